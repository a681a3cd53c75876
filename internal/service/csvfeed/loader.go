package csvfeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"TrueVol/internal/domain/models"
	xutil "TrueVol/pkg/util"
)

// Loader reads OHLC bars from CSV exports. Exchange exports vary in column
// order and formatting, so header names drive the mapping and numbers are
// cleaned of thousands separators and percent signs before parsing.
type Loader struct {
	// DateFormats tried in order when parsing the date column.
	DateFormats []string
}

// New returns a Loader accepting the common broker export date formats.
func New() *Loader {
	return &Loader{
		DateFormats: []string{
			"02-01-2006",
			"2006-01-02",
			"02-01-2006 15:04",
			"2006-01-02 15:04:05",
			time.RFC3339,
		},
	}
}

// LoadFile reads a CSV file into a normalized series.
func (l *Loader) LoadFile(path string) (models.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvfeed open: %w", err)
	}
	defer f.Close()
	s, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("csvfeed %s: %w", path, err)
	}
	return s, nil
}

// Load reads CSV data into a normalized series. The first row must be a
// header containing date, open, high, low and close columns (case-insensitive).
func (l *Loader) Load(r io.Reader) (models.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var s models.Series
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bar, err := l.parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		s = append(s, bar)
	}
	return s.Normalize(), nil
}

type columns struct {
	date, open, high, low, closec int
}

func mapColumns(header []string) (columns, error) {
	c := columns{date: -1, open: -1, high: -1, low: -1, closec: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date", "datetime", "timestamp":
			c.date = i
		case "open":
			c.open = i
		case "high":
			c.high = i
		case "low":
			c.low = i
		case "close", "price":
			c.closec = i
		}
	}
	if c.date < 0 || c.open < 0 || c.high < 0 || c.low < 0 || c.closec < 0 {
		return c, fmt.Errorf("header %v missing one of date/open/high/low/close", header)
	}
	return c, nil
}

func (l *Loader) parseRow(rec []string, c columns) (models.Bar, error) {
	ts, err := l.parseDate(rec[c.date])
	if err != nil {
		return models.Bar{}, err
	}
	open, err := parseNumber(rec[c.open])
	if err != nil {
		return models.Bar{}, fmt.Errorf("open: %w", err)
	}
	high, err := parseNumber(rec[c.high])
	if err != nil {
		return models.Bar{}, fmt.Errorf("high: %w", err)
	}
	low, err := parseNumber(rec[c.low])
	if err != nil {
		return models.Bar{}, fmt.Errorf("low: %w", err)
	}
	closep, err := parseNumber(rec[c.closec])
	if err != nil {
		return models.Bar{}, fmt.Errorf("close: %w", err)
	}
	return models.Bar{Timestamp: ts, Open: open, High: high, Low: low, Close: closep}, nil
}

func (l *Loader) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range l.DateFormats {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	// Some exports carry epoch timestamps instead of formatted dates.
	if t, ok := xutil.ParseTime(raw); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// parseNumber strips thousands separators, quotes and percent signs.
func parseNumber(raw string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "%", "", `"`, "", " ", "").Replace(raw)
	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("empty value %q", raw)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	return v, nil
}
