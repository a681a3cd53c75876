package windows

import (
	"reflect"
	"testing"
	"time"

	"TrueVol/internal/domain/models"
)

// sessionBars builds count minute bars starting at ts with a mild drift.
func sessionBars(ts time.Time, count int, price float64) models.Series {
	s := make(models.Series, 0, count)
	for i := 0; i < count; i++ {
		p := price + float64(i%5)
		s = append(s, bar(ts.Add(time.Duration(i)*time.Minute), p, p+1, p-1, p))
	}
	return s
}

func TestComputeEmptySeries(t *testing.T) {
	p := FixedDailySession{Anchor: 6 * time.Hour, Duration: 5 * time.Hour, Min: 11}
	table, err := Compute(nil, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table) != 0 {
		t.Fatalf("table = %d rows, want 0", len(table))
	}
}

func TestComputeSkipsShortWindows(t *testing.T) {
	// Two bars against an >10 threshold: silently skipped, no error.
	start := day(2024, 3, 4).Add(6*time.Hour + 30*time.Minute)
	s := sessionBars(start, 2, 100).Normalize()

	p := FixedDailySession{Anchor: 6*time.Hour + 30*time.Minute, Duration: 5*time.Hour + 30*time.Minute, Min: 11}
	table, err := Compute(s, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table) != 0 {
		t.Fatalf("table = %d rows, want 0", len(table))
	}
}

func TestComputeDailySessions(t *testing.T) {
	anchor := 6*time.Hour + 30*time.Minute
	s := append(
		sessionBars(day(2024, 3, 4).Add(anchor), 30, 100),
		sessionBars(day(2024, 3, 5).Add(anchor), 30, 110)...,
	).Normalize()

	p := FixedDailySession{Anchor: anchor, Duration: 5*time.Hour + 30*time.Minute, Min: 11}
	table, err := Compute(s, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("table = %d rows, want 2", len(table))
	}
	if table[0].Date.After(table[1].Date) {
		t.Fatalf("table not sorted ascending")
	}
	if table[0].DayOfWeek != "Monday" || table[1].DayOfWeek != "Tuesday" {
		t.Fatalf("weekdays = %s, %s", table[0].DayOfWeek, table[1].DayOfWeek)
	}
	if table[0].Open != s[0].Close {
		t.Fatalf("reference open = %v, want first bar close %v", table[0].Open, s[0].Close)
	}
}

func TestComputeWeeklyExpiryScenario(t *testing.T) {
	// Thursday expiries on the 7th and 14th with enough trading days between:
	// exactly one window from the first trading day after the 7th to the 14th.
	s := dailyBars(
		day(2024, 3, 7), day(2024, 3, 8), day(2024, 3, 11),
		day(2024, 3, 12), day(2024, 3, 13), day(2024, 3, 14),
	)

	table, err := Compute(s, WeeklyExpiry{Weekday: time.Thursday, Min: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table) != 1 {
		t.Fatalf("table = %d rows, want 1", len(table))
	}
	r := table[0]
	if !r.WindowStart.Equal(day(2024, 3, 8)) {
		t.Fatalf("window start = %v, want first trading day after expiry", r.WindowStart)
	}
	if !r.WindowEnd.Equal(day(2024, 3, 14)) {
		t.Fatalf("window end = %v, want next expiry", r.WindowEnd)
	}
	if r.BarCount != 5 {
		t.Fatalf("bar count = %d, want 5", r.BarCount)
	}
}

func TestComputeThresholdMonotonicity(t *testing.T) {
	s := dailyBars(
		day(2024, 3, 7), day(2024, 3, 8), day(2024, 3, 11),
		day(2024, 3, 12), day(2024, 3, 14), day(2024, 3, 15),
		day(2024, 3, 18), day(2024, 3, 21),
	)

	prev := -1
	for min := 1; min <= 8; min++ {
		table, err := Compute(s, WeeklyExpiry{Weekday: time.Thursday, Min: min})
		if err != nil {
			t.Fatalf("min=%d: %v", min, err)
		}
		if prev >= 0 && len(table) > prev {
			t.Fatalf("raising threshold to %d grew the table: %d > %d", min, len(table), prev)
		}
		prev = len(table)
	}
}

func TestComputeIdempotent(t *testing.T) {
	anchor := 12 * time.Hour
	var s models.Series
	for w := 0; w < 4; w++ {
		start := day(2024, 3, 7).AddDate(0, 0, 7*w).Add(anchor)
		s = append(s, sessionBars(start, 20, 100+float64(w))...)
	}
	s = s.Normalize()

	p := FixedWeeklyAnchor{Weekday: time.Thursday, AnchorOffset: anchor, Min: 11}
	first, err := Compute(s, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Compute(s, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recomputation differs")
	}
	if len(first) == 0 {
		t.Fatalf("expected results")
	}
}

func TestComputeMonthlyExpiry(t *testing.T) {
	var dates []time.Time
	for d := day(2024, 1, 1); d.Before(day(2024, 4, 1)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
	}
	s := dailyBars(dates...)

	table, err := Compute(s, MonthlyExpiry{Weekday: time.Thursday, Min: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Expiries: Jan 25, Feb 29, Mar 28 -> two windows.
	if len(table) != 2 {
		t.Fatalf("table = %d rows, want 2", len(table))
	}
	if table[0].Month != "2024-01" || table[1].Month != "2024-02" {
		t.Fatalf("months = %s, %s", table[0].Month, table[1].Month)
	}
	for i := 1; i < len(table); i++ {
		if table[i].WindowStart.Before(table[i-1].WindowStart) {
			t.Fatalf("table not sorted ascending")
		}
	}
}
