package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TrueVol/internal/domain/models"
	"TrueVol/internal/domain/repository"
	pkgkafka "TrueVol/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db *sql.DB
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB) repository.Storage {
	return &ClickHouseStorage{db: db}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, ev *models.BarEvent) error {
	g := repository.NormalizeGranularity(ev.Granularity)
	return insertBars(ctx, s.db, ev.Symbol, g, models.Series{ev.Bar})
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, symbol string, g repository.Granularity, bars models.Series) error {
	return insertBars(ctx, s.db, symbol, g, bars)
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// insertBars writes bars with multi-row VALUES to reduce round-trips.
// Chunk size tuned to 2000 rows per batch.
func insertBars(ctx context.Context, db *sql.DB, symbol string, g repository.Granularity, bars models.Series) error {
	if len(bars) == 0 {
		return nil
	}
	table, err := tableFor(g)
	if err != nil {
		return err
	}
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, b := range bars[start:end] {
			if b.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				b.Timestamp.UTC(),
				symbol,
				b.Open,
				b.High,
				b.Low,
				b.Close,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close) VALUES %s", table, strings.Join(values, ","))
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// KafkaBarPublisher implements BarPublisher for Kafka.
type KafkaBarPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaBarPublisher creates a Kafka bar publisher.
func NewKafkaBarPublisher(producer *pkgkafka.Producer, topic string) repository.BarPublisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

func (p *KafkaBarPublisher) Publish(ctx context.Context, ev *models.BarEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaBarPublisher) PublishBatch(ctx context.Context, evs []*models.BarEvent) error {
	if len(evs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(evs))
	for i, ev := range evs {
		msgs[i] = pkgkafka.Message{Key: []byte(ev.Symbol), Value: ev}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaBarPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaResultPublisher ships computed window tables to Kafka for downstream
// consumers (alert engines, dashboards).
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaResultPublisher creates a Kafka result publisher.
func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) repository.ResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) Publish(ctx context.Context, symbol string, results models.ResultTable) error {
	return p.producer.Publish(ctx, p.topic, []byte(symbol), map[string]interface{}{
		"symbol":    symbol,
		"generated": time.Now().UTC(),
		"windows":   results,
	})
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
