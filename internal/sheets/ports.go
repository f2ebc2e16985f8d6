package sheets

import (
	"context"
	"fmt"
	"strconv"

	"payroll/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter publishes a monthly salary report to one tab per month and
	// returns a reference to the written range.
	ReportWriter interface {
		WriteMonthlyReport(ctx context.Context, report core.MonthlyReport) (ref string, err error)
	}
)

// ReportHeader is the first row of every report tab.
var ReportHeader = []string{
	"Employee ID",
	"Employee",
	"Basic Salary",
	"Daily Allowance",
	"Days Present",
	"Days Absent",
	"Food Allowance",
	"Advances",
	"Bakery Purchases",
	"Final Salary",
	"Error",
}

// SheetTitle names the tab of a month, e.g. "Salary 2025-03".
func SheetTitle(prefix string, w core.MonthWindow) string {
	return fmt.Sprintf("%s %s", prefix, w)
}

// ReportRows renders the header, one row per breakdown and a closing total row.
// Amounts are plain decimals so the spreadsheet parses them as numbers.
func ReportRows(report core.MonthlyReport) [][]string {
	rows := make([][]string, 0, len(report.Rows)+2)
	rows = append(rows, ReportHeader)
	for _, b := range report.Rows {
		rows = append(rows, []string{
			b.EmployeeID,
			b.EmployeeName,
			amount(b.BasicSalary),
			amount(b.DailyAllowance),
			strconv.Itoa(b.DaysPresent),
			strconv.Itoa(b.DaysAbsent),
			amount(b.FoodAllowance),
			amount(b.TotalAdvances),
			amount(b.BakeryDeductions),
			amount(b.FinalSalary),
			b.Error,
		})
	}
	total := make([]string, len(ReportHeader))
	total[1] = "Total"
	total[9] = amount(report.TotalPayable)
	if report.FailedRows > 0 {
		total[10] = fmt.Sprintf("%d rows failed", report.FailedRows)
	}
	return append(rows, total)
}

func amount(m core.Money) string {
	return m.Decimal().StringFixed(2)
}
