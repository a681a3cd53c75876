package models

import (
	"sort"
	"time"
)

// Bar represents one OHLC record for a single timestamp.
// Bars are immutable once produced by a data source.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// Series is a timestamp-ordered sequence of bars. A valid series is ascending,
// UTC-normalized and free of duplicate timestamps; Normalize enforces that.
type Series []Bar

// Normalize sorts bars ascending by timestamp and drops duplicate timestamps,
// keeping the first occurrence. It returns a new slice and leaves s untouched.
func (s Series) Normalize() Series {
	if len(s) == 0 {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	dedup := out[:1]
	for _, b := range out[1:] {
		if b.Timestamp.Equal(dedup[len(dedup)-1].Timestamp) {
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}

// Between returns the sub-series with start <= timestamp <= end. Bounds are
// inclusive on both ends. Returns an empty series when nothing qualifies.
func (s Series) Between(start, end time.Time) Series {
	lo := sort.Search(len(s), func(i int) bool {
		return !s[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(s), func(i int) bool {
		return s[i].Timestamp.After(end)
	})
	if lo >= hi {
		return Series{}
	}
	return s[lo:hi]
}

// Dates returns the distinct calendar dates (UTC midnights) present in the
// series, in ascending order.
func (s Series) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s)/2+1)
	for _, b := range s {
		d := Midnight(b.Timestamp)
		if len(dates) > 0 && dates[len(dates)-1].Equal(d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// HasDate reports whether at least one bar falls on the given calendar date.
func (s Series) HasDate(date time.Time) bool {
	day := Midnight(date)
	next := day.AddDate(0, 0, 1)
	lo := sort.Search(len(s), func(i int) bool {
		return !s[i].Timestamp.Before(day)
	})
	return lo < len(s) && s[lo].Timestamp.Before(next)
}

// Midnight truncates t to its UTC calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
