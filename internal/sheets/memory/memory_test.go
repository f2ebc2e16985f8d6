package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"payroll/internal/core"
)

func TestWriteReplacesTab(t *testing.T) {
	w := New("")
	ctx := context.Background()
	win := core.MonthWindow{Year: 2025, Month: 4}

	first := core.NewMonthlyReport(win, []core.SalaryBreakdown{{EmployeeID: "a"}, {EmployeeID: "b"}}, time.Now())
	if _, err := w.WriteMonthlyReport(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := core.NewMonthlyReport(win, []core.SalaryBreakdown{{EmployeeID: "a"}}, time.Now())
	ref, err := w.WriteMonthlyReport(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if ref != "mem:Salary 2025-04!A1:K3" {
		t.Errorf("ref = %q", ref)
	}
	rows, ok := w.Tab("Salary 2025-04")
	if !ok || len(rows) != 3 {
		t.Fatalf("tab should hold header, one row and total, got %d", len(rows))
	}
}

func TestFailWith(t *testing.T) {
	w := New("Salary")
	w.FailWith(errors.New("quota exceeded"))
	if _, err := w.WriteMonthlyReport(context.Background(), core.MonthlyReport{}); err == nil {
		t.Fatal("expected error")
	}
}
