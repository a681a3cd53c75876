package models

import "time"

// Direction labels which side of the reference open a window moved to.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// DirectionMode selects how a window's direction is classified.
type DirectionMode string

const (
	// DirectionByVolatility compares upward vs downward deviation from the
	// reference open; exact ties classify as down.
	DirectionByVolatility DirectionMode = "vol-compare"
	// DirectionByNetChange compares the final close against the reference open.
	DirectionByNetChange DirectionMode = "net-change"
)

// PolicyKind identifies a window-definition policy.
type PolicyKind string

const (
	PolicyDailySession  PolicyKind = "daily-session"
	PolicyWeeklyAnchor  PolicyKind = "weekly-anchor"
	PolicyWeeklyExpiry  PolicyKind = "weekly-expiry"
	PolicyMonthlyExpiry PolicyKind = "monthly-expiry"
)

// WindowResult carries the metric set for one analysis window.
//
// Open is the close price of the window's first bar, not that bar's own open:
// volatility is measured relative to the prior close that opens the window.
// Identity fields (Date, ExpiryDate, Month, ...) are populated per policy and
// zero otherwise.
type WindowResult struct {
	Policy      PolicyKind `json:"policy"`
	Label       string     `json:"label"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`

	Date       time.Time `json:"date,omitzero"`
	DayOfWeek  string    `json:"day_of_week,omitempty"`
	ExpiryDate time.Time `json:"expiry_date,omitzero"`
	NextExpiry time.Time `json:"next_expiry,omitzero"`
	Month      string    `json:"month,omitempty"`

	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`

	TrueVolatilityPct float64   `json:"true_volatility_pct"`
	Direction         Direction `json:"direction"`
	UpwardVolPct      float64   `json:"upward_vol_pct"`
	DownwardVolPct    float64   `json:"downward_vol_pct"`
	NetChangePct      float64   `json:"net_change_pct"`
	RangeVolPct       float64   `json:"range_vol_pct"`
	RangeAbs          float64   `json:"range_abs"`
	BarCount          int       `json:"bar_count"`
}

// ResultTable is the ordered output of a window computation, sorted ascending
// by window start. An empty table is a normal terminal state, not an error.
type ResultTable []WindowResult

// Filter returns the results with true volatility at or above minVol.
// Filter(0) returns the table unchanged.
func (t ResultTable) Filter(minVol float64) ResultTable {
	if minVol <= 0 {
		return t
	}
	out := make(ResultTable, 0, len(t))
	for _, r := range t {
		if r.TrueVolatilityPct >= minVol {
			out = append(out, r)
		}
	}
	return out
}
