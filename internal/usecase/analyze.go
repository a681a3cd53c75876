package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TrueVol/internal/domain/models"
	domrepo "TrueVol/internal/domain/repository"
	"TrueVol/internal/services/windows"
	"TrueVol/pkg/cache"
)

// PolicySet holds the tunable parameters for every window policy. Values come
// from configuration; zero fields fall back to the defaults below.
type PolicySet struct {
	DailyAnchor   time.Duration
	DailyDuration time.Duration
	DailyMin      int

	WeeklyWeekday time.Weekday
	WeeklyOffset  time.Duration
	WeeklyMin     int

	ExpiryWeekday    time.Weekday
	WeeklyExpiryMin  int
	MonthlyExpiryMin int
}

// DefaultPolicySet mirrors an equity-derivatives venue: a 09:15-15:30 session,
// Thursday expiries, >10 intraday bars for fixed windows and 3/5 daily bars
// for weekly/monthly expiry windows.
func DefaultPolicySet() PolicySet {
	return PolicySet{
		DailyAnchor:      9*time.Hour + 15*time.Minute,
		DailyDuration:    6*time.Hour + 15*time.Minute,
		DailyMin:         11,
		WeeklyWeekday:    time.Thursday,
		WeeklyOffset:     9*time.Hour + 15*time.Minute,
		WeeklyMin:        11,
		ExpiryWeekday:    time.Thursday,
		WeeklyExpiryMin:  3,
		MonthlyExpiryMin: 5,
	}
}

// Policy builds the concrete policy for a kind. The direction mode only
// applies to the daily session; other policies classify by volatility.
func (ps PolicySet) Policy(kind models.PolicyKind, mode models.DirectionMode) (windows.Policy, error) {
	switch kind {
	case models.PolicyDailySession:
		return windows.FixedDailySession{
			Anchor:   ps.DailyAnchor,
			Duration: ps.DailyDuration,
			Min:      ps.DailyMin,
			Mode:     mode,
		}, nil
	case models.PolicyWeeklyAnchor:
		return windows.FixedWeeklyAnchor{
			Weekday:      ps.WeeklyWeekday,
			AnchorOffset: ps.WeeklyOffset,
			Min:          ps.WeeklyMin,
		}, nil
	case models.PolicyWeeklyExpiry:
		return windows.WeeklyExpiry{Weekday: ps.ExpiryWeekday, Min: ps.WeeklyExpiryMin}, nil
	case models.PolicyMonthlyExpiry:
		return windows.MonthlyExpiry{Weekday: ps.ExpiryWeekday, Min: ps.MonthlyExpiryMin}, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidParams, kind)
	}
}

// AnalyzeUseCase computes volatility window tables over stored bars.
type AnalyzeUseCase struct {
	store    domrepo.BarStore
	metrics  domrepo.Metrics
	policies PolicySet
	cache    cache.Service
	cacheTTL time.Duration
	results  domrepo.ResultPublisher
	now      func() time.Time
}

func NewAnalyzeUseCase(store domrepo.BarStore, metrics domrepo.Metrics, policies PolicySet) *AnalyzeUseCase {
	return &AnalyzeUseCase{store: store, metrics: metrics, policies: policies, now: time.Now}
}

// SetCache enables result caching with the given TTL.
func (uc *AnalyzeUseCase) SetCache(c cache.Service, ttl time.Duration) {
	uc.cache = c
	uc.cacheTTL = ttl
}

// SetResultPublisher ships freshly computed tables to the message bus for
// downstream consumers. Cached responses are not republished.
func (uc *AnalyzeUseCase) SetResultPublisher(p domrepo.ResultPublisher) {
	uc.results = p
}

// Policies exposes the configured policy set.
func (uc *AnalyzeUseCase) Policies() PolicySet { return uc.policies }

type AnalyzeParams struct {
	Symbol      string
	Policy      models.PolicyKind
	Days        int
	Granularity domrepo.Granularity
	MinVol      float64
	Mode        models.DirectionMode
}

type AnalyzeResult struct {
	Symbol  string             `json:"symbol"`
	Policy  models.PolicyKind  `json:"policy"`
	From    time.Time          `json:"from"`
	To      time.Time          `json:"to"`
	Windows models.ResultTable `json:"windows"`
	Summary windows.Summary    `json:"summary"`
}

// Analyze loads the lookback range, computes the window table for one policy
// and attaches summary statistics. An empty table is a valid result.
func (uc *AnalyzeUseCase) Analyze(ctx context.Context, p AnalyzeParams) (*AnalyzeResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", ErrInvalidParams)
	}
	if p.Days <= 0 {
		p.Days = 90
	}

	policy, err := uc.policies.Policy(p.Policy, p.Mode)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.GenerateKeyWithParams("analyze", p.Symbol, p.Policy, p.Granularity, p.Days, p.MinVol, p.Mode)
	if uc.cache != nil {
		var raw string
		if err := uc.cache.Get(ctx, cacheKey, &raw); err == nil {
			var cached AnalyzeResult
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	to := uc.now().UTC()
	from := to.AddDate(0, 0, -p.Days)

	started := time.Now()
	series, err := uc.store.GetBars(ctx, p.Symbol, from, to, p.Granularity)
	if err != nil {
		uc.metrics.RecordError("bar_store")
		return nil, fmt.Errorf("get bars: %w", err)
	}

	series = series.Normalize()
	table, err := windows.Compute(series, policy)
	if err != nil {
		uc.metrics.RecordError("window_compute")
		return nil, fmt.Errorf("compute %s: %w", p.Policy, err)
	}
	resolved := len(policy.Resolve(series))
	uc.metrics.RecordWindowsComputed(string(p.Policy), len(table))
	uc.metrics.RecordWindowsSkipped(string(p.Policy), resolved-len(table))
	uc.metrics.RecordLatency("analyze", time.Since(started).Seconds())

	table = table.Filter(p.MinVol)
	res := &AnalyzeResult{
		Symbol:  p.Symbol,
		Policy:  p.Policy,
		From:    from,
		To:      to,
		Windows: table,
		Summary: windows.Summarize(table),
	}
	if uc.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, string(b), uc.cacheTTL)
		}
	}
	if uc.results != nil && len(table) > 0 {
		if err := uc.results.Publish(ctx, p.Symbol, table); err != nil {
			uc.metrics.RecordError("result_publish")
		}
	}
	return res, nil
}
