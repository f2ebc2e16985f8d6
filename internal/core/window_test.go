package core

import (
	"errors"
	"testing"
	"time"
)

func TestNewMonthWindowRejectsBadMonth(t *testing.T) {
	for _, m := range []int{0, 13, -1} {
		_, err := NewMonthWindow(m, 2025)
		if !errors.Is(err, ErrInvalidMonth) || !IsKind(err, KindValidation) {
			t.Fatalf("month %d: expected invalid month validation error, got %v", m, err)
		}
	}
}

func TestAttendanceRange(t *testing.T) {
	cases := []struct {
		month, year int
		start, end  string
	}{
		{3, 2025, "2025-03-01", "2025-04-01"},
		{2, 2024, "2024-02-01", "2024-03-01"},
		{12, 2025, "2025-12-01", "2026-01-01"},
	}
	for _, tc := range cases {
		w, err := NewMonthWindow(tc.month, tc.year)
		if err != nil {
			t.Fatal(err)
		}
		r := w.AttendanceRange()
		if r.Start.String() != tc.start || r.End.String() != tc.end {
			t.Fatalf("%s: got [%s, %s)", w, r.Start, r.End)
		}
	}
}

func TestDecemberWindowExcludesNextYear(t *testing.T) {
	w, _ := NewMonthWindow(12, 2025)
	r := w.AttendanceRange()
	if r.Contains(NewDate(2026, 1, 1)) {
		t.Fatalf("2026-01-01 must fall outside December 2025")
	}
	if !r.Contains(NewDate(2025, 12, 31)) || !r.Contains(NewDate(2025, 12, 1)) {
		t.Fatalf("December days must be inside the window")
	}
}

func TestTransactionRangeInclusiveEnd(t *testing.T) {
	w, _ := NewMonthWindow(2, 2024)
	from, to := w.TransactionRange()
	if want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Fatalf("from: got %v", from)
	}
	if want := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC); !to.Equal(want) {
		t.Fatalf("to: got %v", to)
	}
	late := time.Date(2024, 2, 29, 23, 59, 59, 500_000_000, time.UTC)
	if !late.After(to) {
		t.Fatalf("a timestamp past 23:59:59 must fall outside the range")
	}
}

func TestPreviousWindow(t *testing.T) {
	if got := (MonthWindow{Year: 2026, Month: 1}).Previous(); got != (MonthWindow{Year: 2025, Month: 12}) {
		t.Fatalf("got %v", got)
	}
	if got := (MonthWindow{Year: 2026, Month: 7}).Previous().String(); got != "2026-06" {
		t.Fatalf("got %s", got)
	}
}
