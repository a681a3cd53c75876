package usecase

import (
	"context"
	"fmt"
	"time"

	"TrueVol/internal/domain/models"
	domrepo "TrueVol/internal/domain/repository"
	"TrueVol/pkg/cache"
)

// HistorySource fetches historical bars from an exchange REST API.
type HistorySource interface {
	FetchBars(ctx context.Context, symbol string, from, to time.Time, g domrepo.Granularity) (models.Series, error)
}

// BackfillUseCase fills the bar store from an exchange history endpoint.
type BackfillUseCase struct {
	source  HistorySource
	storage domrepo.Storage
	metrics domrepo.Metrics
	cache   cache.Service
	now     func() time.Time
}

func NewBackfillUseCase(source HistorySource, storage domrepo.Storage, metrics domrepo.Metrics) *BackfillUseCase {
	return &BackfillUseCase{source: source, storage: storage, metrics: metrics, now: time.Now}
}

// SetCache lets a backfill invalidate analysis results for the symbol it
// just rewrote history for.
func (uc *BackfillUseCase) SetCache(c cache.Service) {
	uc.cache = c
}

type BackfillParams struct {
	Symbol      string
	Days        int
	Granularity domrepo.Granularity
}

type BackfillResult struct {
	Symbol string    `json:"symbol"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Bars   int       `json:"bars"`
}

// Backfill fetches the lookback range and stores it. Fetched pages are
// normalized before writing, so re-running a backfill is idempotent as long
// as the store deduplicates on timestamp.
func (uc *BackfillUseCase) Backfill(ctx context.Context, p BackfillParams) (*BackfillResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", ErrInvalidParams)
	}
	if p.Days <= 0 {
		p.Days = 30
	}

	to := uc.now().UTC()
	from := to.AddDate(0, 0, -p.Days)

	start := time.Now()
	bars, err := uc.source.FetchBars(ctx, p.Symbol, from, to, p.Granularity)
	if err != nil {
		uc.metrics.RecordError("backfill_fetch")
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	uc.metrics.RecordLatency("backfill_fetch", time.Since(start).Seconds())

	if len(bars) > 0 {
		if err := uc.storage.StoreBatch(ctx, p.Symbol, p.Granularity, bars); err != nil {
			uc.metrics.RecordError("backfill_store")
			return nil, fmt.Errorf("store bars: %w", err)
		}
		if uc.cache != nil {
			_ = uc.cache.DeleteByPattern(ctx, cache.BuildPattern("analyze:"+p.Symbol))
		}
	}
	for range bars {
		uc.metrics.RecordBarIngested("backfill", p.Symbol)
	}

	return &BackfillResult{Symbol: p.Symbol, From: from, To: to, Bars: len(bars)}, nil
}
