package usecase

import (
	"context"

	"TrueVol/internal/domain/models"
	drepo "TrueVol/internal/domain/repository"
	mid "TrueVol/internal/middleware"
)

// BarCollector collects bar events from the market stream and processes them.
type BarCollector struct {
	stream  drepo.MarketStream
	proc    *BarProcessor
	metrics drepo.Metrics
	pipe    *mid.IngestPipeline
	done    chan struct{}
}

// NewBarCollector creates a new BarCollector instance.
func NewBarCollector(stream drepo.MarketStream, proc *BarProcessor, metrics drepo.Metrics, pipe *mid.IngestPipeline) *BarCollector {
	return &BarCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe, done: make(chan struct{})}
}

// IsConnected returns true if the market stream is connected.
func (c *BarCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *BarCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	go c.run(ctx)
	return nil
}

// run owns the read sessions: each stream.Read lasts until its channels
// close on a read error, then the stream is reconnected and read again.
func (c *BarCollector) run(ctx context.Context) {
	for {
		barCh, errCh := c.stream.Read(ctx)
		c.consume(ctx, barCh, errCh)

		if ctx.Err() != nil {
			return
		}
		select {
		case <-c.done:
			return
		default:
		}

		c.metrics.RecordError("stream")
		for c.stream.Reconnect(ctx) != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-c.done:
				return
			default:
			}
		}
	}
}

// consume drains one read session. It returns when both channels are closed
// or the context ends; reconnecting is the caller's job.
func (c *BarCollector) consume(ctx context.Context, barCh <-chan *models.BarEvent, errCh <-chan error) {
	for barCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-errCh:
			if !ok {
				errCh = nil
			}
		case ev, ok := <-barCh:
			if !ok {
				barCh = nil
				continue
			}
			if ev == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, ev)
			} else {
				_ = c.proc.Process(ctx, ev)
			}
		}
	}
}

func (c *BarCollector) Stop() error {
	c.signalDone()
	return c.stream.Close()
}

func (c *BarCollector) signalDone() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// Processor returns the underlying BarProcessor for lifecycle management.
func (c *BarCollector) Processor() *BarProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *BarCollector) Shutdown(ctx context.Context) error {
	c.signalDone()
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
