package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TrueVol/internal/domain/models"
	domrepo "TrueVol/internal/domain/repository"
)

// PolicyReport collects the per-policy tables for one symbol in a single
// response. Policies that fail are reported in Errors instead of aborting
// the whole fan-out.
type PolicyReport struct {
	Symbol    string                               `json:"symbol"`
	Timestamp time.Time                            `json:"timestamp"`
	Policies  map[models.PolicyKind]*AnalyzeResult `json:"policies"`
	Errors    map[string]string                    `json:"errors,omitempty"`
}

// AnalyzeAllUseCase runs every window policy concurrently.
type AnalyzeAllUseCase struct {
	analyze *AnalyzeUseCase
	timeout time.Duration
}

func NewAnalyzeAllUseCase(analyze *AnalyzeUseCase) *AnalyzeAllUseCase {
	return &AnalyzeAllUseCase{analyze: analyze, timeout: 10 * time.Second}
}

type AnalyzeAllParams struct {
	Symbol      string
	Days        int
	Granularity domrepo.Granularity
	MinVol      float64
}

func (uc *AnalyzeAllUseCase) AnalyzeAll(ctx context.Context, p AnalyzeAllParams) (*PolicyReport, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", ErrInvalidParams)
	}

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &PolicyReport{
		Symbol:    p.Symbol,
		Timestamp: time.Now(),
		Policies:  map[models.PolicyKind]*AnalyzeResult{},
		Errors:    map[string]string{},
	}

	kinds := []models.PolicyKind{
		models.PolicyDailySession,
		models.PolicyWeeklyAnchor,
		models.PolicyWeeklyExpiry,
		models.PolicyMonthlyExpiry,
	}

	type item struct {
		kind models.PolicyKind
		val  *AnalyzeResult
		err  error
	}
	ch := make(chan item, len(kinds))
	var wg sync.WaitGroup

	for _, kind := range kinds {
		wg.Add(1)
		go func(kind models.PolicyKind) {
			defer wg.Done()
			v, err := uc.analyze.Analyze(ctx, AnalyzeParams{
				Symbol:      p.Symbol,
				Policy:      kind,
				Days:        p.Days,
				Granularity: p.Granularity,
				MinVol:      p.MinVol,
			})
			ch <- item{kind, v, err}
		}(kind)
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[string(it.kind)] = it.err.Error()
			continue
		}
		res.Policies[it.kind] = it.val
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
