package repository

import (
	"context"

	"TrueVol/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.BarEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// BarPublisher ships bar events to the message bus.
type BarPublisher interface {
	Publish(ctx context.Context, ev *models.BarEvent) error
	PublishBatch(ctx context.Context, evs []*models.BarEvent) error
	Close() error
}

// ResultPublisher ships computed window tables to the message bus.
type ResultPublisher interface {
	Publish(ctx context.Context, symbol string, results models.ResultTable) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, ev *models.BarEvent) error
	StoreBatch(ctx context.Context, symbol string, g Granularity, bars models.Series) error
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordBarIngested(source, symbol string)
	RecordWindowsComputed(policy string, count int)
	RecordWindowsSkipped(policy string, count int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
