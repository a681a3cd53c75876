package csvfeed

import (
	"strings"
	"testing"
	"time"
)

func TestLoadBrokerExport(t *testing.T) {
	// Day-first dates, quoted thousands separators, rows out of order.
	data := strings.Join([]string{
		`Date,Open,High,Low,Close`,
		`05-01-2024,"21,727.75","21,834.35","21,710.20","21,710.80"`,
		`04-01-2024,"21,605.80","21,685.65","21,564.15","21,658.60"`,
		`04-01-2024,"99,999.00","99,999.00","99,999.00","99,999.00"`, // duplicate date
	}, "\n")

	s, err := New().Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 2 {
		t.Fatalf("len = %d, want 2 after dedup", len(s))
	}
	want := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	if !s[0].Timestamp.Equal(want) {
		t.Fatalf("first bar = %v, want %v (sorted ascending)", s[0].Timestamp, want)
	}
	if s[0].Open != 21605.80 {
		t.Fatalf("open = %v, want 21605.80", s[0].Open)
	}
	if s[0].High != 21685.65 || s[0].Low != 21564.15 || s[0].Close != 21658.60 {
		t.Fatalf("bar = %+v", s[0])
	}
}

func TestLoadHeaderOrderIndependent(t *testing.T) {
	data := strings.Join([]string{
		`Close,Low,High,Open,Date`,
		`105,95,110,100,2024-03-04`,
	}, "\n")

	s, err := New().Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 1 {
		t.Fatalf("len = %d, want 1", len(s))
	}
	b := s[0]
	if b.Open != 100 || b.High != 110 || b.Low != 95 || b.Close != 105 {
		t.Fatalf("bar = %+v", b)
	}
}

func TestLoadMissingColumn(t *testing.T) {
	data := "Date,Open,High,Low\n04-01-2024,1,2,0.5\n"
	if _, err := New().Load(strings.NewReader(data)); err == nil {
		t.Fatalf("expected error for missing close column")
	}
}

func TestLoadBadNumber(t *testing.T) {
	data := "Date,Open,High,Low,Close\n04-01-2024,abc,2,0.5,1\n"
	if _, err := New().Load(strings.NewReader(data)); err == nil {
		t.Fatalf("expected error for unparseable number")
	}
}

func TestLoadIntradayTimestamps(t *testing.T) {
	data := strings.Join([]string{
		`Timestamp,Open,High,Low,Close`,
		`2024-03-04 09:15:00,100,101,99,100.5`,
		`2024-03-04 09:16:00,100.5,102,100,101`,
	}, "\n")

	s, err := New().Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 2 {
		t.Fatalf("len = %d, want 2", len(s))
	}
	want := time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC)
	if !s[0].Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", s[0].Timestamp, want)
	}
}
