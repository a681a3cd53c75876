package models

import (
	"testing"
	"time"
)

func ts(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestNormalizeSortsAndDedups(t *testing.T) {
	s := Series{
		{Timestamp: ts(2, 10), Close: 2},
		{Timestamp: ts(1, 10), Close: 1},
		{Timestamp: ts(2, 10), Close: 99}, // duplicate, later occurrence
		{Timestamp: ts(3, 10), Close: 3},
	}
	got := s.Normalize()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Timestamp.Before(got[i].Timestamp) {
			t.Fatalf("not strictly ascending at %d", i)
		}
	}
	if got[1].Close != 2 {
		t.Fatalf("duplicate resolution kept Close=%v, want the first occurrence", got[1].Close)
	}
	// Source slice is left as-is.
	if s[0].Close != 2 || len(s) != 4 {
		t.Fatalf("input mutated: %+v", s)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := (Series{}).Normalize(); len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestBetweenInclusive(t *testing.T) {
	s := Series{
		{Timestamp: ts(1, 10)},
		{Timestamp: ts(2, 10)},
		{Timestamp: ts(3, 10)},
		{Timestamp: ts(4, 10)},
	}
	got := s.Between(ts(2, 10), ts(3, 10))
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].Timestamp.Equal(ts(2, 10)) || !got[1].Timestamp.Equal(ts(3, 10)) {
		t.Fatalf("bounds not inclusive: %v .. %v", got[0].Timestamp, got[1].Timestamp)
	}
	if got := s.Between(ts(5, 0), ts(6, 0)); len(got) != 0 {
		t.Fatalf("out-of-range slice len = %d, want 0", len(got))
	}
}

func TestDatesAndHasDate(t *testing.T) {
	s := Series{
		{Timestamp: ts(1, 9)},
		{Timestamp: ts(1, 15)},
		{Timestamp: ts(3, 9)},
	}
	dates := s.Dates()
	if len(dates) != 2 {
		t.Fatalf("dates = %v, want 2 entries", dates)
	}
	if !dates[0].Equal(ts(1, 0)) || !dates[1].Equal(ts(3, 0)) {
		t.Fatalf("dates = %v", dates)
	}
	if !s.HasDate(ts(1, 23)) {
		t.Fatalf("HasDate should match any time on a present date")
	}
	if s.HasDate(ts(2, 0)) {
		t.Fatalf("HasDate matched a missing date")
	}
}

func TestMidnight(t *testing.T) {
	in := time.Date(2024, 3, 1, 18, 30, 45, 7, time.FixedZone("IST", 5*3600+1800))
	got := Midnight(in)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Midnight = %v, want %v", got, want)
	}
}
