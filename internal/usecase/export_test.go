package usecase

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"TrueVol/internal/domain/models"
	domrepo "TrueVol/internal/domain/repository"
	"TrueVol/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "policy,label,window_start") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}

func TestWriteCSVRows(t *testing.T) {
	table := models.ResultTable{
		{
			Policy:            models.PolicyDailySession,
			Label:             "2024-03-04 (Monday)",
			WindowStart:       time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC),
			WindowEnd:         time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC),
			Open:              100,
			High:              102.5,
			Low:               99,
			Close:             101,
			TrueVolatilityPct: 2.5,
			Direction:         models.DirectionUp,
			UpwardVolPct:      2.5,
			DownwardVolPct:    1,
			NetChangePct:      1,
			RangeVolPct:       3.5,
			RangeAbs:          3.5,
			BarCount:          12,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	row := lines[1]
	for _, want := range []string{"daily-session", "2024-03-04 (Monday)", "2024-03-04T09:15:00Z", "2.5", "up", "12"} {
		if !strings.Contains(row, want) {
			t.Fatalf("row missing %q: %s", want, row)
		}
	}
}

func TestExportRender(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	store := &fakeBarStore{series: sessionSeries(start, 2, 12)}
	analyze := newAnalyze(store, start.AddDate(0, 0, 10))
	exports := NewExportUseCase(analyze, nil, t.TempDir(), testLogger(t))

	var buf bytes.Buffer
	err := exports.Render(context.Background(), &buf, ExportParams{
		Symbol: "BTCUSDT",
		Policy: string(models.PolicyDailySession),
		Days:   30,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
}

func TestExportEnqueueWithoutQueue(t *testing.T) {
	exports := NewExportUseCase(nil, nil, t.TempDir(), testLogger(t))
	if err := exports.Enqueue(context.Background(), ExportParams{Symbol: "BTCUSDT"}); err == nil {
		t.Fatalf("expected error without queue")
	}
}

type fakeStorage struct {
	batches map[string]int
}

func (f *fakeStorage) Init(context.Context) error                   { return nil }
func (f *fakeStorage) Store(context.Context, *models.BarEvent) error { return nil }
func (f *fakeStorage) StoreBatch(_ context.Context, symbol string, _ domrepo.Granularity, bars models.Series) error {
	if f.batches == nil {
		f.batches = make(map[string]int)
	}
	f.batches[symbol] += len(bars)
	return nil
}
func (f *fakeStorage) Health(context.Context) error { return nil }
func (f *fakeStorage) Close() error                 { return nil }

type fakeHistory struct {
	bars models.Series
}

func (f *fakeHistory) FetchBars(_ context.Context, _ string, _, _ time.Time, _ domrepo.Granularity) (models.Series, error) {
	return f.bars, nil
}

func TestBackfillStoresFetchedBars(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	storage := &fakeStorage{}
	uc := NewBackfillUseCase(&fakeHistory{bars: sessionSeries(start, 2, 12)}, storage, nopMetrics{})
	uc.now = func() time.Time { return start.AddDate(0, 0, 10) }

	res, err := uc.Backfill(context.Background(), BackfillParams{
		Symbol:      "BTCUSDT",
		Days:        10,
		Granularity: domrepo.G1m,
	})
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if res.Bars != 24 {
		t.Fatalf("res.Bars = %d, want 24", res.Bars)
	}
	if storage.batches["BTCUSDT"] != 24 {
		t.Fatalf("stored %d bars, want 24", storage.batches["BTCUSDT"])
	}
}

func TestBackfillRequiresSymbol(t *testing.T) {
	uc := NewBackfillUseCase(&fakeHistory{}, &fakeStorage{}, nopMetrics{})
	if _, err := uc.Backfill(context.Background(), BackfillParams{}); err == nil {
		t.Fatalf("expected error for empty symbol")
	}
}
