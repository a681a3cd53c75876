package models

// Requests for the window-analysis HTTP endpoints. Defined in domain for
// consistency and reuse.

type WindowsRequest struct {
	Symbol      string  `query:"symbol" json:"symbol" validate:"required"`
	Policy      string  `query:"policy" json:"policy" default:"daily-session" validate:"oneof=daily-session weekly-anchor weekly-expiry monthly-expiry"`
	Days        int     `query:"days" json:"days" default:"90" validate:"gte=1,lte=3650"`
	Granularity string  `query:"granularity" json:"granularity" default:"1m" validate:"oneof=1m 1d"`
	MinVol      float64 `query:"min_vol" json:"min_vol" validate:"gte=0"`
	Direction   string  `query:"direction" json:"direction" default:"vol-compare" validate:"oneof=vol-compare net-change"`
}

type BackfillRequest struct {
	Symbol      string `query:"symbol" json:"symbol" validate:"required"`
	Days        int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=3650"`
	Granularity string `query:"granularity" json:"granularity" default:"1m" validate:"oneof=1m 1d"`
}

type ExportRequest struct {
	Symbol      string  `query:"symbol" json:"symbol" validate:"required"`
	Policy      string  `query:"policy" json:"policy" default:"daily-session" validate:"oneof=daily-session weekly-anchor weekly-expiry monthly-expiry"`
	Days        int     `query:"days" json:"days" default:"90" validate:"gte=1,lte=3650"`
	Granularity string  `query:"granularity" json:"granularity" default:"1m" validate:"oneof=1m 1d"`
	MinVol      float64 `query:"min_vol" json:"min_vol" validate:"gte=0"`
}
