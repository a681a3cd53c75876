package windows

import (
	"testing"
	"time"

	"TrueVol/internal/domain/models"
)

// dailyBars builds one midnight bar per date at a flat price.
func dailyBars(dates ...time.Time) models.Series {
	s := make(models.Series, 0, len(dates))
	for _, d := range dates {
		s = append(s, bar(d, 100, 101, 99, 100))
	}
	return s.Normalize()
}

// day returns a UTC midnight.
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFixedDailySessionResolve(t *testing.T) {
	s := models.Series{
		bar(day(2024, 3, 4).Add(7*time.Hour), 1, 1, 1, 1),
		bar(day(2024, 3, 4).Add(8*time.Hour), 1, 1, 1, 1),
		bar(day(2024, 3, 6).Add(7*time.Hour), 1, 1, 1, 1),
	}.Normalize()

	p := FixedDailySession{Anchor: 6*time.Hour + 30*time.Minute, Duration: 5*time.Hour + 30*time.Minute, Min: 11}
	bs := p.Resolve(s)
	if len(bs) != 2 {
		t.Fatalf("boundaries = %d, want 2 (one per distinct date)", len(bs))
	}
	wantStart := day(2024, 3, 4).Add(6*time.Hour + 30*time.Minute)
	if !bs[0].Start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", bs[0].Start, wantStart)
	}
	if !bs[0].End.Equal(wantStart.Add(5*time.Hour + 30*time.Minute)) {
		t.Fatalf("end = %v", bs[0].End)
	}
	if !bs[1].Start.Equal(day(2024, 3, 6).Add(6*time.Hour + 30*time.Minute)) {
		t.Fatalf("second start = %v", bs[1].Start)
	}
}

func TestFixedWeeklyAnchorResolve(t *testing.T) {
	// Two Thursdays, with several bars each: anchors dedupe to one per date.
	thu1, thu2 := day(2024, 3, 7), day(2024, 3, 14)
	s := models.Series{
		bar(thu1.Add(11*time.Hour), 1, 1, 1, 1),
		bar(thu1.Add(13*time.Hour), 1, 1, 1, 1),
		bar(day(2024, 3, 9), 1, 1, 1, 1),
		bar(thu2.Add(12*time.Hour), 1, 1, 1, 1),
	}.Normalize()

	p := FixedWeeklyAnchor{Weekday: time.Thursday, AnchorOffset: 12 * time.Hour, Min: 11}
	bs := p.Resolve(s)
	if len(bs) != 2 {
		t.Fatalf("boundaries = %d, want 2", len(bs))
	}
	if !bs[0].Start.Equal(thu1.Add(12 * time.Hour)) {
		t.Fatalf("start = %v, want Thursday 12:00", bs[0].Start)
	}
	if !bs[0].End.Equal(thu1.Add(12 * time.Hour).AddDate(0, 0, 7)) {
		t.Fatalf("end = %v, want seven days later", bs[0].End)
	}
}

func TestWeeklyExpiryBoundaries(t *testing.T) {
	// Thursday expiries on the 7th and 14th; trading days in between.
	s := dailyBars(
		day(2024, 3, 7), day(2024, 3, 8), day(2024, 3, 11),
		day(2024, 3, 12), day(2024, 3, 13), day(2024, 3, 14),
	)

	p := WeeklyExpiry{Weekday: time.Thursday, Min: 3}
	bs := p.Resolve(s)
	if len(bs) != 1 {
		t.Fatalf("boundaries = %d, want 1", len(bs))
	}
	if !bs[0].Start.Equal(day(2024, 3, 8)) {
		t.Fatalf("start = %v, want Friday the 8th", bs[0].Start)
	}
	if !bs[0].End.Equal(day(2024, 3, 14)) {
		t.Fatalf("end = %v, want next expiry", bs[0].End)
	}
	if !bs[0].Expiry.Equal(day(2024, 3, 7)) {
		t.Fatalf("expiry = %v", bs[0].Expiry)
	}
}

func TestWeeklyExpiryStartSkipsMissingDays(t *testing.T) {
	// Friday the 8th is a holiday: the window starts on Monday the 11th.
	s := dailyBars(
		day(2024, 3, 7), day(2024, 3, 11), day(2024, 3, 12),
		day(2024, 3, 13), day(2024, 3, 14),
	)

	bs := WeeklyExpiry{Weekday: time.Thursday, Min: 3}.Resolve(s)
	if len(bs) != 1 {
		t.Fatalf("boundaries = %d, want 1", len(bs))
	}
	if !bs[0].Start.Equal(day(2024, 3, 11)) {
		t.Fatalf("start = %v, want Monday after the holiday", bs[0].Start)
	}
}

func TestWeeklyExpiryCollapsedWindowStillEmitted(t *testing.T) {
	// Nothing trades between the two expiries: the start advance caps at the
	// next expiry and the boundary is still emitted for the threshold to kill.
	s := dailyBars(day(2024, 3, 7), day(2024, 3, 14))

	bs := WeeklyExpiry{Weekday: time.Thursday, Min: 3}.Resolve(s)
	if len(bs) != 1 {
		t.Fatalf("boundaries = %d, want 1", len(bs))
	}
	if !bs[0].Start.Equal(day(2024, 3, 14)) {
		t.Fatalf("start = %v, want capped at next expiry", bs[0].Start)
	}
}

func TestWeeklyExpirySingleExpiry(t *testing.T) {
	s := dailyBars(day(2024, 3, 7), day(2024, 3, 8))
	if bs := (WeeklyExpiry{Weekday: time.Thursday, Min: 3}).Resolve(s); len(bs) != 0 {
		t.Fatalf("boundaries = %d, want 0 with a single expiry", len(bs))
	}
}

func TestMonthlyExpiryKeepsLastWeekdayPerMonth(t *testing.T) {
	// March 2024 Thursdays: 7, 14, 21, 28. April: 4, 11, 18, 25.
	var dates []time.Time
	for d := day(2024, 3, 1); d.Before(day(2024, 5, 1)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
	}
	s := dailyBars(dates...)

	bs := MonthlyExpiry{Weekday: time.Thursday, Min: 5}.Resolve(s)
	if len(bs) != 1 {
		t.Fatalf("boundaries = %d, want 1 (March expiry to April expiry)", len(bs))
	}
	if !bs[0].Expiry.Equal(day(2024, 3, 28)) {
		t.Fatalf("expiry = %v, want last Thursday of March", bs[0].Expiry)
	}
	if !bs[0].NextExpiry.Equal(day(2024, 4, 25)) {
		t.Fatalf("next expiry = %v, want last Thursday of April", bs[0].NextExpiry)
	}
	if !bs[0].Start.Equal(day(2024, 3, 29)) {
		t.Fatalf("start = %v, want first trading day after expiry", bs[0].Start)
	}
}

func TestBoundariesDoNotOverlap(t *testing.T) {
	var dates []time.Time
	for d := day(2024, 1, 1); d.Before(day(2024, 6, 1)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
	}
	s := dailyBars(dates...)

	policies := []Policy{
		FixedDailySession{Anchor: 6*time.Hour + 30*time.Minute, Duration: 5*time.Hour + 30*time.Minute, Min: 11},
		FixedWeeklyAnchor{Weekday: time.Thursday, AnchorOffset: 12 * time.Hour, Min: 11},
		WeeklyExpiry{Weekday: time.Thursday, Min: 3},
		MonthlyExpiry{Weekday: time.Thursday, Min: 5},
	}
	for _, p := range policies {
		bs := p.Resolve(s)
		for i := 1; i < len(bs); i++ {
			if bs[i].Start.Before(bs[i-1].End) {
				t.Fatalf("%s: window %d starts %v before previous end %v",
					p.Kind(), i, bs[i].Start, bs[i-1].End)
			}
		}
	}
}
