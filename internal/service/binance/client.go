package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gobinance "github.com/adshao/go-binance/v2"

	"TrueVol/internal/domain/models"
	"TrueVol/internal/domain/repository"
)

// maxKlinesPerPage is the largest page Binance serves in one klines call.
const maxKlinesPerPage = 1000

// Client fetches historical OHLC bars from the Binance REST API.
type Client struct {
	api *gobinance.Client
}

// New creates a Binance history client. Public kline endpoints do not require
// credentials, so empty keys are fine for read-only use.
func New(apiKey, apiSecret string) *Client {
	return &Client{api: gobinance.NewClient(apiKey, apiSecret)}
}

// FetchBars pages backwards from `to` until `from` is covered and returns the
// bars sorted ascending with duplicates removed. Pages overlap at their edges,
// Normalize resolves that.
func (c *Client) FetchBars(ctx context.Context, symbol string, from, to time.Time, g repository.Granularity) (models.Series, error) {
	interval, err := intervalFor(g)
	if err != nil {
		return nil, err
	}

	var all models.Series
	end := to
	for end.After(from) {
		klines, err := c.api.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(maxKlinesPerPage).
			EndTime(end.UnixMilli()).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s %s: %w", symbol, interval, err)
		}
		if len(klines) == 0 {
			break
		}
		for _, k := range klines {
			bar, err := toBar(k)
			if err != nil {
				return nil, fmt.Errorf("binance kline %s: %w", symbol, err)
			}
			if bar.Timestamp.Before(from) {
				continue
			}
			all = append(all, bar)
		}
		oldest := time.UnixMilli(klines[0].OpenTime).UTC()
		if !oldest.Before(end) {
			break
		}
		end = oldest.Add(-time.Millisecond)
	}
	return all.Normalize(), nil
}

// toBar converts a raw kline. Binance serializes prices as strings.
func toBar(k *gobinance.Kline) (models.Bar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("parse open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("parse high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("parse low %q: %w", k.Low, err)
	}
	closep, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("parse close %q: %w", k.Close, err)
	}
	return models.Bar{
		Timestamp: time.UnixMilli(k.OpenTime).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closep,
	}, nil
}

func intervalFor(g repository.Granularity) (string, error) {
	switch g {
	case repository.G1m:
		return "1m", nil
	case repository.G1d:
		return "1d", nil
	default:
		return "", fmt.Errorf("unsupported granularity %q", g)
	}
}
