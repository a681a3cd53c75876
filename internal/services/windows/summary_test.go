package windows

import (
	"math"
	"testing"

	"TrueVol/internal/domain/models"
)

func TestSummarizeEmptyTable(t *testing.T) {
	s := Summarize(nil)
	if s.Windows != 0 || s.AvgTrueVolPct != 0 || s.MaxVolLabel != "" {
		t.Fatalf("zero table should yield zero summary, got %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	table := models.ResultTable{
		{Label: "a", DayOfWeek: "Monday", TrueVolatilityPct: 2},
		{Label: "b", DayOfWeek: "Monday", TrueVolatilityPct: 8},
		{Label: "c", DayOfWeek: "Friday", TrueVolatilityPct: 5},
	}
	s := Summarize(table)
	if s.Windows != 3 {
		t.Fatalf("windows = %d, want 3", s.Windows)
	}
	if math.Abs(s.AvgTrueVolPct-5) > 1e-12 {
		t.Fatalf("avg = %v, want 5", s.AvgTrueVolPct)
	}
	if s.MaxTrueVolPct != 8 || s.MinTrueVolPct != 2 {
		t.Fatalf("extremes = %v/%v, want 8/2", s.MaxTrueVolPct, s.MinTrueVolPct)
	}
	if s.MaxVolLabel != "b" {
		t.Fatalf("max label = %q, want b", s.MaxVolLabel)
	}
	if s.DayOfWeekCount["Monday"] != 2 || s.DayOfWeekCount["Friday"] != 1 {
		t.Fatalf("weekday counts = %v", s.DayOfWeekCount)
	}
}
