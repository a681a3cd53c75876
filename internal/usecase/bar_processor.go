package usecase

import (
	"context"
	"fmt"
	"time"

	"TrueVol/internal/domain/models"
	drepo "TrueVol/internal/domain/repository"
)

// BarProcessor routes incoming bar events to the configured backend.
type BarProcessor struct {
	pub     drepo.BarPublisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
}

// NewBarProcessor creates a new BarProcessor instance.
func NewBarProcessor(
	pub drepo.BarPublisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
) *BarProcessor {
	return &BarProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single bar event to the configured backend.
func (p *BarProcessor) Process(ctx context.Context, ev *models.BarEvent) error {
	if ev == nil {
		return fmt.Errorf("bar event is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, ev)
	case "clickhouse":
		err = p.store.Store(ctx, ev)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process bar: %w", err)
	}

	p.metrics.RecordBarIngested(p.backend, ev.Symbol)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple bar events in a batch.
func (p *BarProcessor) ProcessBatch(ctx context.Context, evs []*models.BarEvent) error {
	if len(evs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, evs)
	case "clickhouse":
		err = p.storeBatch(ctx, evs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, ev := range evs {
		p.metrics.RecordBarIngested(p.backend, ev.Symbol)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// storeBatch groups a mixed batch by symbol and granularity before writing.
func (p *BarProcessor) storeBatch(ctx context.Context, evs []*models.BarEvent) error {
	type key struct {
		symbol      string
		granularity drepo.Granularity
	}
	groups := make(map[key]models.Series)
	for _, ev := range evs {
		k := key{ev.Symbol, drepo.NormalizeGranularity(ev.Granularity)}
		groups[k] = append(groups[k], ev.Bar)
	}
	for k, bars := range groups {
		if err := p.store.StoreBatch(ctx, k.symbol, k.granularity, bars); err != nil {
			return err
		}
	}
	return nil
}

// Close closes underlying resources if available.
func (p *BarProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
