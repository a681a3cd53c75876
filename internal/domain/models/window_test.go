package models

import "testing"

func TestResultTableFilter(t *testing.T) {
	table := ResultTable{
		{Label: "a", TrueVolatilityPct: 0.5},
		{Label: "b", TrueVolatilityPct: 2.0},
		{Label: "c", TrueVolatilityPct: 5.0},
	}

	if got := table.Filter(0); len(got) != len(table) {
		t.Fatalf("Filter(0) dropped rows: %d", len(got))
	}
	if got := table.Filter(-1); len(got) != len(table) {
		t.Fatalf("negative threshold dropped rows: %d", len(got))
	}

	got := table.Filter(2)
	if len(got) != 2 {
		t.Fatalf("Filter(2) = %d rows, want 2", len(got))
	}
	if got[0].Label != "b" || got[1].Label != "c" {
		t.Fatalf("Filter kept %q, %q", got[0].Label, got[1].Label)
	}

	if got := table.Filter(100); len(got) != 0 {
		t.Fatalf("threshold above max kept %d rows", len(got))
	}
}
