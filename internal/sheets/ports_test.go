package sheets

import (
	"testing"
	"time"

	"payroll/internal/core"
)

func TestSheetTitle(t *testing.T) {
	if got := SheetTitle("Salary", core.MonthWindow{Year: 2025, Month: 3}); got != "Salary 2025-03" {
		t.Errorf("SheetTitle() = %q", got)
	}
}

func TestReportRows(t *testing.T) {
	w := core.MonthWindow{Year: 2025, Month: 4}
	rows := []core.SalaryBreakdown{
		{
			EmployeeID: "e1", EmployeeName: "Rahim",
			BasicSalary: core.Money{Cents: 2000000}, DailyAllowance: core.Money{Cents: 15000},
			DaysPresent: 22, DaysAbsent: 8,
			FoodAllowance: core.Money{Cents: 330000}, TotalAdvances: core.Money{Cents: 200000},
			BakeryDeductions: core.Money{Cents: 50000}, FinalSalary: core.Money{Cents: 2080000},
		},
		{EmployeeID: "e2", EmployeeName: "Karim", Error: "store: connection reset"},
	}
	report := core.NewMonthlyReport(w, rows, time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC))

	got := ReportRows(report)
	if len(got) != 4 {
		t.Fatalf("expected header, 2 rows and total, got %d rows", len(got))
	}
	if got[0][0] != "Employee ID" {
		t.Errorf("header = %v", got[0])
	}
	if got[1][4] != "22" || got[1][9] != "20800.00" {
		t.Errorf("row = %v", got[1])
	}
	if got[2][10] != "store: connection reset" || got[2][9] != "0.00" {
		t.Errorf("failed row = %v", got[2])
	}
	last := got[3]
	if last[1] != "Total" || last[9] != "20800.00" || last[10] != "1 rows failed" {
		t.Errorf("total row = %v", last)
	}
}
