package windows

import "TrueVol/internal/domain/models"

// Summary condenses a result table for reporting: mean and extreme true
// volatility plus the per-weekday window distribution.
type Summary struct {
	Windows        int            `json:"windows"`
	AvgTrueVolPct  float64        `json:"avg_true_vol_pct"`
	MaxTrueVolPct  float64        `json:"max_true_vol_pct"`
	MinTrueVolPct  float64        `json:"min_true_vol_pct"`
	MaxVolLabel    string         `json:"max_vol_label"`
	DayOfWeekCount map[string]int `json:"day_of_week_count,omitempty"`
}

// Summarize computes summary statistics over a table. A nil-safe zero Summary
// is returned for an empty table.
func Summarize(t models.ResultTable) Summary {
	if len(t) == 0 {
		return Summary{}
	}
	s := Summary{
		Windows:       len(t),
		MaxTrueVolPct: t[0].TrueVolatilityPct,
		MinTrueVolPct: t[0].TrueVolatilityPct,
		MaxVolLabel:   t[0].Label,
	}
	sum := 0.0
	for _, r := range t {
		sum += r.TrueVolatilityPct
		if r.TrueVolatilityPct > s.MaxTrueVolPct {
			s.MaxTrueVolPct = r.TrueVolatilityPct
			s.MaxVolLabel = r.Label
		}
		if r.TrueVolatilityPct < s.MinTrueVolPct {
			s.MinTrueVolPct = r.TrueVolatilityPct
		}
		if r.DayOfWeek != "" {
			if s.DayOfWeekCount == nil {
				s.DayOfWeekCount = make(map[string]int)
			}
			s.DayOfWeekCount[r.DayOfWeek]++
		}
	}
	s.AvgTrueVolPct = sum / float64(len(t))
	return s
}
