package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"TrueVol/internal/domain/models"
	domrepo "TrueVol/internal/domain/repository"
	"TrueVol/internal/usecase"
	xlogger "TrueVol/pkg/logger"
)

type stubBarStore struct {
	series models.Series
	err    error
}

func (s *stubBarStore) GetBars(context.Context, string, time.Time, time.Time, domrepo.Granularity) (models.Series, error) {
	return s.series, s.err
}

func (s *stubBarStore) GetLatestNBars(context.Context, string, int, domrepo.Granularity) (models.Series, error) {
	return s.series, s.err
}

func (s *stubBarStore) StoreBars(context.Context, string, domrepo.Granularity, models.Series) error {
	return nil
}

type stubMetrics struct{}

func (stubMetrics) RecordBarIngested(string, string)  {}
func (stubMetrics) RecordWindowsComputed(string, int) {}
func (stubMetrics) RecordWindowsSkipped(string, int)  {}
func (stubMetrics) RecordError(string)                {}
func (stubMetrics) RecordLatency(string, float64)     {}

// intradaySeries builds days of 09:15-session bars, enough per day to clear
// the daily window threshold.
func intradaySeries(start time.Time, days, barsPerDay int) models.Series {
	var s models.Series
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		for i := 0; i < barsPerDay; i++ {
			ts := time.Date(day.Year(), day.Month(), day.Day(), 9, 15, 0, 0, time.UTC).
				Add(time.Duration(i) * 30 * time.Minute)
			p := 100.0 + float64(d) + float64(i)*0.1
			s = append(s, models.Bar{Timestamp: ts, Open: p, High: p + 1, Low: p - 1, Close: p + 0.5})
		}
	}
	return s
}

func newTestHandler(t *testing.T, store domrepo.BarStore) *WindowsEchoHandler {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	analyze := usecase.NewAnalyzeUseCase(store, stubMetrics{}, usecase.DefaultPolicySet())
	all := usecase.NewAnalyzeAllUseCase(analyze)
	exports := usecase.NewExportUseCase(analyze, nil, t.TempDir(), log)
	return NewWindowsEchoHandler(log, analyze, all, nil, exports)
}

func doRequest(h *WindowsEchoHandler, method, target string, fn echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = fn(c)
	return rec
}

func TestWindowsCSVWritesTable(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	h := newTestHandler(t, &stubBarStore{series: intradaySeries(start, 3, 12)})

	rec := doRequest(h, http.MethodGet, "/api/windows.csv?symbol=BTCUSDT", h.WindowsCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q, want text/csv", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if !strings.HasPrefix(lines[0], "policy,label,window_start") {
		t.Fatalf("unexpected header row: %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 windows", len(lines))
	}
}

func TestWindowsCSVStoreErrorIsNotOK(t *testing.T) {
	h := newTestHandler(t, &stubBarStore{err: errors.New("connection refused")})

	rec := doRequest(h, http.MethodGet, "/api/windows.csv?symbol=BTCUSDT", h.WindowsCSV)
	if ct := rec.Header().Get(echo.HeaderContentType); strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("store failure rendered as CSV: %q", rec.Body.String())
	}
	body := rec.Body.String()
	if strings.HasPrefix(body, "policy,") {
		t.Fatalf("store failure leaked a CSV header: %q", body)
	}
	if !strings.Contains(body, `"status":500`) {
		t.Fatalf("expected 500 envelope, got %q", body)
	}
}

func TestWindowsCSVRequiresSymbol(t *testing.T) {
	h := newTestHandler(t, &stubBarStore{})

	rec := doRequest(h, http.MethodGet, "/api/windows.csv", h.WindowsCSV)
	if !strings.Contains(rec.Body.String(), `"status":400`) {
		t.Fatalf("expected 400 envelope, got %q", rec.Body.String())
	}
}
