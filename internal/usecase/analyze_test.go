package usecase

import (
	"context"
	"testing"
	"time"

	"TrueVol/internal/domain/models"
	domrepo "TrueVol/internal/domain/repository"
	pkgcache "TrueVol/pkg/cache"
)

type fakeBarStore struct {
	series models.Series
	err    error
	calls  int
	from   time.Time
	to     time.Time
}

func (f *fakeBarStore) GetBars(_ context.Context, _ string, from, to time.Time, _ domrepo.Granularity) (models.Series, error) {
	f.calls++
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func (f *fakeBarStore) GetLatestNBars(_ context.Context, _ string, n int, _ domrepo.Granularity) (models.Series, error) {
	if n > len(f.series) {
		n = len(f.series)
	}
	return f.series[len(f.series)-n:], nil
}

func (f *fakeBarStore) StoreBars(_ context.Context, _ string, _ domrepo.Granularity, _ models.Series) error {
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordBarIngested(string, string)  {}
func (nopMetrics) RecordWindowsComputed(string, int) {}
func (nopMetrics) RecordWindowsSkipped(string, int)  {}
func (nopMetrics) RecordError(string)                {}
func (nopMetrics) RecordLatency(string, float64)     {}

type countingMetrics struct {
	nopMetrics
	computed int
	skipped  int
}

func (m *countingMetrics) RecordWindowsComputed(_ string, n int) { m.computed += n }
func (m *countingMetrics) RecordWindowsSkipped(_ string, n int)  { m.skipped += n }

// sessionSeries builds days of intraday bars inside the default 09:15 session,
// one bar every 30 minutes, closing progressively higher each day.
func sessionSeries(start time.Time, days, barsPerDay int) models.Series {
	var s models.Series
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		base := 100.0 + float64(d)
		for i := 0; i < barsPerDay; i++ {
			ts := time.Date(day.Year(), day.Month(), day.Day(), 9, 15, 0, 0, time.UTC).
				Add(time.Duration(i) * 30 * time.Minute)
			p := base + float64(i)*0.1
			s = append(s, models.Bar{Timestamp: ts, Open: p, High: p + 1, Low: p - 1, Close: p + 0.5})
		}
	}
	return s
}

func newAnalyze(store domrepo.BarStore, now time.Time) *AnalyzeUseCase {
	uc := NewAnalyzeUseCase(store, nopMetrics{}, DefaultPolicySet())
	uc.now = func() time.Time { return now }
	return uc
}

func TestAnalyzeRequiresSymbol(t *testing.T) {
	uc := newAnalyze(&fakeBarStore{}, time.Now())
	if _, err := uc.Analyze(context.Background(), AnalyzeParams{Policy: models.PolicyDailySession}); err == nil {
		t.Fatalf("expected error for empty symbol")
	}
}

func TestAnalyzeUnknownPolicy(t *testing.T) {
	uc := newAnalyze(&fakeBarStore{}, time.Now())
	if _, err := uc.Analyze(context.Background(), AnalyzeParams{Symbol: "BTCUSDT", Policy: "hourly"}); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestAnalyzeDailySessions(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // Monday
	store := &fakeBarStore{series: sessionSeries(start, 3, 12)}
	uc := newAnalyze(store, start.AddDate(0, 0, 10))

	res, err := uc.Analyze(context.Background(), AnalyzeParams{
		Symbol: "BTCUSDT",
		Policy: models.PolicyDailySession,
		Days:   30,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Windows) != 3 {
		t.Fatalf("expected 3 session windows, got %d", len(res.Windows))
	}
	for i := 1; i < len(res.Windows); i++ {
		if res.Windows[i].WindowStart.Before(res.Windows[i-1].WindowStart) {
			t.Fatalf("windows out of order at %d", i)
		}
	}
	if res.Summary.Windows != 3 {
		t.Fatalf("summary windows = %d, want 3", res.Summary.Windows)
	}
	if store.calls != 1 {
		t.Fatalf("store called %d times, want 1", store.calls)
	}
}

func TestAnalyzeDefaultsLookback(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeBarStore{}
	uc := newAnalyze(store, now)

	if _, err := uc.Analyze(context.Background(), AnalyzeParams{
		Symbol: "BTCUSDT",
		Policy: models.PolicyDailySession,
	}); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got := int(store.to.Sub(store.from).Hours() / 24); got != 90 {
		t.Fatalf("default lookback = %d days, want 90", got)
	}
}

func TestAnalyzeMinVolFilter(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	store := &fakeBarStore{series: sessionSeries(start, 3, 12)}
	uc := newAnalyze(store, start.AddDate(0, 0, 10))

	res, err := uc.Analyze(context.Background(), AnalyzeParams{
		Symbol: "BTCUSDT",
		Policy: models.PolicyDailySession,
		Days:   30,
		MinVol: 1000,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Windows) != 0 {
		t.Fatalf("expected all windows filtered, got %d", len(res.Windows))
	}
}

func TestAnalyzeShortSessionsSkipped(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	store := &fakeBarStore{series: sessionSeries(start, 3, 5)} // below DailyMin
	uc := newAnalyze(store, start.AddDate(0, 0, 10))

	res, err := uc.Analyze(context.Background(), AnalyzeParams{
		Symbol: "BTCUSDT",
		Policy: models.PolicyDailySession,
		Days:   30,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Windows) != 0 {
		t.Fatalf("expected short sessions skipped, got %d windows", len(res.Windows))
	}
}

func TestAnalyzeSkipCountOnInterleavedSeries(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	// Interleave three days of session bars so the stored order alternates
	// between dates. The skip count must come from the same normalized
	// series the table was computed over, not the raw store order.
	days := make([]models.Series, 3)
	for d := range days {
		days[d] = sessionSeries(start.AddDate(0, 0, d), 1, 12)
	}
	var interleaved models.Series
	for i := 0; i < 12; i++ {
		for d := range days {
			interleaved = append(interleaved, days[d][i])
		}
	}

	store := &fakeBarStore{series: interleaved}
	metrics := &countingMetrics{}
	uc := NewAnalyzeUseCase(store, metrics, DefaultPolicySet())
	uc.now = func() time.Time { return start.AddDate(0, 0, 10) }

	res, err := uc.Analyze(context.Background(), AnalyzeParams{
		Symbol: "BTCUSDT",
		Policy: models.PolicyDailySession,
		Days:   30,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(res.Windows))
	}
	if metrics.computed != 3 {
		t.Fatalf("computed metric = %d, want 3", metrics.computed)
	}
	if metrics.skipped != 0 {
		t.Fatalf("skipped metric = %d, want 0", metrics.skipped)
	}
}

func TestAnalyzeCachesResults(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	store := &fakeBarStore{series: sessionSeries(start, 3, 12)}
	uc := newAnalyze(store, start.AddDate(0, 0, 10))
	uc.SetCache(pkgcache.NewMemoryCache(), time.Minute)

	params := AnalyzeParams{Symbol: "BTCUSDT", Policy: models.PolicyDailySession, Days: 30}

	first, err := uc.Analyze(context.Background(), params)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	second, err := uc.Analyze(context.Background(), params)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("store called %d times, want 1 (second call cached)", store.calls)
	}
	if len(second.Windows) != len(first.Windows) {
		t.Fatalf("cached result differs: %d vs %d windows", len(second.Windows), len(first.Windows))
	}
}
