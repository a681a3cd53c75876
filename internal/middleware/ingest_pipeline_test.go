package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"TrueVol/internal/domain/models"
)

type recordingProc struct {
	events []*models.BarEvent
	err    error
}

func (r *recordingProc) Process(_ context.Context, ev *models.BarEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

type countingMetrics struct {
	errors map[string]int
}

func (m *countingMetrics) RecordBarIngested(string, string)  {}
func (m *countingMetrics) RecordWindowsComputed(string, int) {}
func (m *countingMetrics) RecordWindowsSkipped(string, int)  {}
func (m *countingMetrics) RecordError(kind string) {
	if m.errors == nil {
		m.errors = make(map[string]int)
	}
	m.errors[kind]++
}
func (m *countingMetrics) RecordLatency(string, float64) {}

func validEvent(ts time.Time) *models.BarEvent {
	return &models.BarEvent{
		Symbol:      "BTCUSDT",
		Granularity: "1m",
		Bar:         models.Bar{Timestamp: ts, Open: 100, High: 101, Low: 99, Close: 100.5},
	}
}

func TestPipelineForwardsValidEvent(t *testing.T) {
	proc := &recordingProc{}
	p := NewIngestPipeline(proc, &countingMetrics{})

	if err := p.Process(context.Background(), validEvent(time.Now())); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.events) != 1 {
		t.Fatalf("forwarded %d events, want 1", len(proc.events))
	}
}

func TestPipelineRejectsMalformedEvents(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewIngestPipeline(proc, m)

	bad := []*models.BarEvent{
		nil,
		{Granularity: "1m", Bar: models.Bar{Timestamp: time.Now(), Open: 1, High: 1, Low: 1, Close: 1}},      // no symbol
		{Symbol: "BTCUSDT", Bar: models.Bar{Open: 1, High: 1, Low: 1, Close: 1}},                             // zero timestamp
		{Symbol: "BTCUSDT", Bar: models.Bar{Timestamp: time.Now(), Open: 1, High: 0.5, Low: 1, Close: 1}},    // high < low
		{Symbol: "BTCUSDT", Bar: models.Bar{Timestamp: time.Now(), Open: 5, High: 2, Low: 1, Close: 1.5}},    // open above high
		{Symbol: "BTCUSDT", Bar: models.Bar{Timestamp: time.Now(), Open: -1, High: 2, Low: -2, Close: 1}},    // negative price
	}
	for i, ev := range bad {
		if err := p.Process(context.Background(), ev); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if len(proc.events) != 0 {
		t.Fatalf("malformed events reached processor: %d", len(proc.events))
	}
	if m.errors["pipeline_validate"] != len(bad) {
		t.Fatalf("validate errors = %d, want %d", m.errors["pipeline_validate"], len(bad))
	}
}

func TestPipelineThrottlesBursts(t *testing.T) {
	proc := &recordingProc{}
	p := NewIngestPipeline(proc, &countingMetrics{}, WithMaxRPS(1))

	now := time.Now()
	for i := 0; i < 5; i++ {
		ev := validEvent(now.Add(time.Duration(i) * time.Millisecond))
		if err := p.Process(context.Background(), ev); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}
	if len(proc.events) != 1 {
		t.Fatalf("burst not throttled: %d events forwarded, want 1", len(proc.events))
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &recordingProc{err: errors.New("backend down")}
	m := &countingMetrics{}
	p := NewIngestPipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), validEvent(time.Now())); err == nil {
		t.Fatalf("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("buffered %d events, want 1", len(p.bufCh))
	}
	if m.errors["pipeline_process"] != 1 {
		t.Fatalf("process errors = %d, want 1", m.errors["pipeline_process"])
	}
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &recordingProc{}
	p := NewIngestPipeline(proc, &countingMetrics{}, WithTransform(func(ev *models.BarEvent) *models.BarEvent {
		out := *ev
		out.Granularity = "1d"
		return &out
	}))

	if err := p.Process(context.Background(), validEvent(time.Now())); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.events[0].Granularity != "1d" {
		t.Fatalf("transform not applied: %s", proc.events[0].Granularity)
	}
}
