package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TrueVol/internal/domain/models"
	domrepo "TrueVol/internal/domain/repository"
)

// scriptedStream fails its first read session and serves bars from the
// second one, so tests can observe the reconnect path end to end.
type scriptedStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	bar        *models.BarEvent
	bars       chan *models.BarEvent
	errs       chan error
	connected  bool
}

func (s *scriptedStream) Connect(context.Context) error   { s.connected = true; return nil }
func (s *scriptedStream) Subscribe(context.Context) error { return nil }
func (s *scriptedStream) Close() error                    { s.connected = false; return nil }
func (s *scriptedStream) IsConnected() bool               { return s.connected }

func (s *scriptedStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *scriptedStream) Read(context.Context) (<-chan *models.BarEvent, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	s.bars = make(chan *models.BarEvent, 1)
	s.errs = make(chan error, 1)
	if s.reads == 1 {
		s.errs <- errors.New("read: connection reset")
		close(s.bars)
		close(s.errs)
	} else {
		s.bars <- s.bar
	}
	return s.bars, s.errs
}

// endSession closes the channels of the current read session.
func (s *scriptedStream) endSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.bars)
	close(s.errs)
}

func (s *scriptedStream) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

type captureStorage struct {
	stored chan *models.BarEvent
}

func (c *captureStorage) Init(context.Context) error   { return nil }
func (c *captureStorage) Health(context.Context) error { return nil }
func (c *captureStorage) Close() error                 { return nil }

func (c *captureStorage) Store(_ context.Context, ev *models.BarEvent) error {
	c.stored <- ev
	return nil
}

func (c *captureStorage) StoreBatch(context.Context, string, domrepo.Granularity, models.Series) error {
	return nil
}

func TestCollectorReconnectsAndResumesReading(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bar := &models.BarEvent{
		Symbol:      "BTCUSDT",
		Granularity: "1m",
		Bar:         models.Bar{Timestamp: time.Now().UTC(), Open: 1, High: 2, Low: 0.5, Close: 1.5},
	}
	stream := &scriptedStream{bar: bar}
	storage := &captureStorage{stored: make(chan *models.BarEvent, 1)}
	proc := NewBarProcessor(nil, storage, nopMetrics{}, "clickhouse")
	col := NewBarCollector(stream, proc, nopMetrics{}, nil)

	if err := col.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case got := <-storage.stored:
		if got.Symbol != "BTCUSDT" {
			t.Fatalf("stored symbol %q", got.Symbol)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no bar stored after reconnect")
	}
	if n := stream.reconnectCount(); n != 1 {
		t.Fatalf("reconnects = %d, want 1", n)
	}

	// After shutdown a closing session must not trigger another reconnect.
	if err := col.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	stream.endSession()
	time.Sleep(50 * time.Millisecond)
	if n := stream.reconnectCount(); n != 1 {
		t.Fatalf("reconnect after shutdown: %d", n)
	}
}
