package core

import "time"

// DaySummary counts the marks recorded for one date.
type DaySummary struct {
	Date         Date
	PresentCount int
	AbsentCount  int
	TotalMarked  int
}

// AttendanceSummary counts one employee's marks over a month window.
type AttendanceSummary struct {
	PresentDays  int
	AbsentDays   int
	TotalRecords int
}

// TransactionSummary totals one employee's cash events over a month window.
type TransactionSummary struct {
	Advances        Money
	BakeryPurchases Money
	Transactions    []Transaction
}

// SalaryBreakdown is the itemized salary of one employee for one month.
// It is derived on demand and never persisted.
type SalaryBreakdown struct {
	EmployeeID       string
	EmployeeName     string
	BasicSalary      Money
	DailyAllowance   Money
	DaysPresent      int
	DaysAbsent       int
	FoodAllowance    Money
	TotalAdvances    Money
	BakeryDeductions Money
	FinalSalary      Money
	// Error is set when this employee's aggregation failed; derived fields are zero.
	Error string
}

// MonthlyReport is the batch of breakdowns for the active roster.
type MonthlyReport struct {
	Window       MonthWindow
	Rows         []SalaryBreakdown
	TotalPayable Money
	FailedRows   int
	GeneratedAt  time.Time
}

// SummarizeAttendance partitions records by status.
func SummarizeAttendance(records []AttendanceRecord) AttendanceSummary {
	var s AttendanceSummary
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			s.PresentDays++
		case StatusAbsent:
			s.AbsentDays++
		}
	}
	s.TotalRecords = len(records)
	return s
}

// SummarizeTransactions sums amounts by type. Unknown types are kept in the
// list but contribute to neither total.
func SummarizeTransactions(txs []Transaction) TransactionSummary {
	s := TransactionSummary{Transactions: txs}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	for _, t := range txs {
		switch t.Type {
		case TypeAdvance:
			s.Advances = s.Advances.Add(t.Amount)
		case TypePurchase:
			s.BakeryPurchases = s.BakeryPurchases.Add(t.Amount)
		}
	}
	return s
}

// ComputeSalary combines base attributes with the month's aggregates:
//
//	food  = dailyAllowance * presentDays
//	final = basic + food - advances - bakeryPurchases
//
// The result is not clamped; a negative final salary is reported as is.
func ComputeSalary(e Employee, att AttendanceSummary, tx TransactionSummary) SalaryBreakdown {
	food := e.DailyAllowance.Times(att.PresentDays)
	final := e.BasicSalary.Add(food).Sub(tx.Advances).Sub(tx.BakeryPurchases)
	return SalaryBreakdown{
		EmployeeID:       e.ID,
		EmployeeName:     e.Name,
		BasicSalary:      e.BasicSalary,
		DailyAllowance:   e.DailyAllowance,
		DaysPresent:      att.PresentDays,
		DaysAbsent:       att.AbsentDays,
		FoodAllowance:    food,
		TotalAdvances:    tx.Advances,
		BakeryDeductions: tx.BakeryPurchases,
		FinalSalary:      final,
	}
}

// FailedBreakdown is the row reported for an employee whose aggregation failed.
func FailedBreakdown(e Employee, err error) SalaryBreakdown {
	return SalaryBreakdown{
		EmployeeID:     e.ID,
		EmployeeName:   e.Name,
		BasicSalary:    e.BasicSalary,
		DailyAllowance: e.DailyAllowance,
		Error:          err.Error(),
	}
}

// NewMonthlyReport totals the rows that computed successfully.
func NewMonthlyReport(w MonthWindow, rows []SalaryBreakdown, now time.Time) MonthlyReport {
	r := MonthlyReport{Window: w, Rows: rows, GeneratedAt: now}
	if r.Rows == nil {
		r.Rows = []SalaryBreakdown{}
	}
	for _, row := range rows {
		if row.Error != "" {
			r.FailedRows++
			continue
		}
		r.TotalPayable = r.TotalPayable.Add(row.FinalSalary)
	}
	return r
}
