package repository

import (
	"context"
	"time"

	"TrueVol/internal/domain/models"
)

// Granularity represents bar resolution buckets.
type Granularity string

const (
	G1m Granularity = "1m"
	G1d Granularity = "1d"
)

// BarStore provides access to persisted OHLC bars for window analysis.
type BarStore interface {
	GetBars(ctx context.Context, symbol string, from, to time.Time, g Granularity) (models.Series, error)
	GetLatestNBars(ctx context.Context, symbol string, n int, g Granularity) (models.Series, error)
	StoreBars(ctx context.Context, symbol string, g Granularity, bars models.Series) error
}
