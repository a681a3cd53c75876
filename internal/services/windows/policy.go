package windows

import (
	"time"

	"TrueVol/internal/domain/models"
)

// Boundary is one resolved analysis window. Expiry fields are populated only
// by the expiry-anchored policies.
type Boundary struct {
	Start      time.Time
	End        time.Time
	Expiry     time.Time
	NextExpiry time.Time
}

// Policy defines how a series is partitioned into analysis windows.
// Resolve never mutates the series; thresholds and direction rules are
// consulted by the engine at aggregation time, not at resolution time.
type Policy interface {
	Kind() models.PolicyKind
	// Resolve derives ordered, non-overlapping window boundaries from s.
	Resolve(s models.Series) []Boundary
	// MinBars is the minimum bar count a slice needs to produce a result.
	MinBars() int
	// DirectionMode selects the direction classification rule.
	DirectionMode() models.DirectionMode
}

// FixedDailySession emits one window per distinct calendar date in the
// series, anchored at Anchor past midnight UTC and spanning Duration.
// A date with no bars inside the session is skipped later by bar count.
type FixedDailySession struct {
	Anchor   time.Duration
	Duration time.Duration
	Min      int
	Mode     models.DirectionMode
}

func (p FixedDailySession) Kind() models.PolicyKind { return models.PolicyDailySession }
func (p FixedDailySession) MinBars() int            { return p.Min }

func (p FixedDailySession) DirectionMode() models.DirectionMode {
	if p.Mode == "" {
		return models.DirectionByVolatility
	}
	return p.Mode
}

func (p FixedDailySession) Resolve(s models.Series) []Boundary {
	dates := s.Dates()
	out := make([]Boundary, 0, len(dates))
	for _, d := range dates {
		start := d.Add(p.Anchor)
		out = append(out, Boundary{Start: start, End: start.Add(p.Duration)})
	}
	return out
}

// FixedWeeklyAnchor emits one 7-day window per occurrence of the anchor
// weekday in the series, starting AnchorOffset past that day's midnight.
// Consecutive windows touch at their endpoints.
type FixedWeeklyAnchor struct {
	Weekday      time.Weekday
	AnchorOffset time.Duration
	Min          int
}

func (p FixedWeeklyAnchor) Kind() models.PolicyKind { return models.PolicyWeeklyAnchor }
func (p FixedWeeklyAnchor) MinBars() int            { return p.Min }

func (p FixedWeeklyAnchor) DirectionMode() models.DirectionMode {
	return models.DirectionByVolatility
}

func (p FixedWeeklyAnchor) Resolve(s models.Series) []Boundary {
	anchors := weekdayDates(s, p.Weekday)
	out := make([]Boundary, 0, len(anchors))
	for _, a := range anchors {
		start := a.Add(p.AnchorOffset)
		out = append(out, Boundary{Start: start, End: start.AddDate(0, 0, 7)})
	}
	return out
}

// WeeklyExpiry partitions the series between consecutive occurrences of the
// expiry weekday. Each window starts on the first trading day strictly after
// one expiry and ends on the next expiry.
type WeeklyExpiry struct {
	Weekday time.Weekday
	Min     int
}

func (p WeeklyExpiry) Kind() models.PolicyKind { return models.PolicyWeeklyExpiry }
func (p WeeklyExpiry) MinBars() int            { return p.Min }

func (p WeeklyExpiry) DirectionMode() models.DirectionMode {
	return models.DirectionByVolatility
}

func (p WeeklyExpiry) Resolve(s models.Series) []Boundary {
	return expiryBoundaries(s, weekdayDates(s, p.Weekday))
}

// MonthlyExpiry keeps only the last occurrence of the expiry weekday in each
// calendar month, then partitions between consecutive monthly expiries the
// same way WeeklyExpiry does.
type MonthlyExpiry struct {
	Weekday time.Weekday
	Min     int
}

func (p MonthlyExpiry) Kind() models.PolicyKind { return models.PolicyMonthlyExpiry }
func (p MonthlyExpiry) MinBars() int            { return p.Min }

func (p MonthlyExpiry) DirectionMode() models.DirectionMode {
	return models.DirectionByVolatility
}

func (p MonthlyExpiry) Resolve(s models.Series) []Boundary {
	weekly := weekdayDates(s, p.Weekday)
	monthly := make([]time.Time, 0, len(weekly)/4+1)
	for _, d := range weekly {
		if n := len(monthly); n > 0 && sameMonth(monthly[n-1], d) {
			monthly[n-1] = d
			continue
		}
		monthly = append(monthly, d)
	}
	return expiryBoundaries(s, monthly)
}

// weekdayDates returns the distinct calendar dates in s falling on w.
func weekdayDates(s models.Series, w time.Weekday) []time.Time {
	var out []time.Time
	for _, d := range s.Dates() {
		if d.Weekday() == w {
			out = append(out, d)
		}
	}
	return out
}

// expiryBoundaries builds windows between consecutive expiry dates. The start
// advances past days missing from the series (holidays) until a present day is
// found or the next expiry is reached; degenerate windows are still emitted
// and left to the bar-count threshold.
func expiryBoundaries(s models.Series, expiries []time.Time) []Boundary {
	if len(expiries) < 2 {
		return nil
	}
	out := make([]Boundary, 0, len(expiries)-1)
	for i := 0; i < len(expiries)-1; i++ {
		expiry, next := expiries[i], expiries[i+1]
		start := expiry.AddDate(0, 0, 1)
		for !s.HasDate(start) && start.Before(next) {
			start = start.AddDate(0, 0, 1)
		}
		out = append(out, Boundary{Start: start, End: next, Expiry: expiry, NextExpiry: next})
	}
	return out
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
