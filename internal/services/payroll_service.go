package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"payroll/internal/core"
	"payroll/internal/ledger"
)

const defaultReportConcurrency = 4

// PayrollService combines both aggregators into salary breakdowns.
type PayrollService struct {
	employees    ledger.EmployeeStore
	attendance   *AttendanceService
	transactions *TransactionService
	concurrency  int
	now          func() time.Time
}

// NewPayrollService builds the service. concurrency bounds how many employees
// are aggregated at once during a monthly report.
func NewPayrollService(employees ledger.EmployeeStore, attendance *AttendanceService, transactions *TransactionService, concurrency int) *PayrollService {
	if concurrency < 1 {
		concurrency = defaultReportConcurrency
	}
	return &PayrollService{
		employees:    employees,
		attendance:   attendance,
		transactions: transactions,
		concurrency:  concurrency,
		now:          time.Now,
	}
}

// EmployeeSalary computes one employee's breakdown for the month. Both
// aggregations run concurrently; either failure fails the call.
func (s *PayrollService) EmployeeSalary(ctx context.Context, e core.Employee, month, year int) (core.SalaryBreakdown, error) {
	if _, err := core.NewMonthWindow(month, year); err != nil {
		return core.SalaryBreakdown{}, err
	}

	var (
		att core.AttendanceSummary
		tx  core.TransactionSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		att, err = s.attendance.SummarizeMonth(gctx, e.ID, month, year)
		return err
	})
	g.Go(func() error {
		var err error
		tx, err = s.transactions.SummarizeMonth(gctx, e.ID, month, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.SalaryBreakdown{}, fmt.Errorf("salary of %s: %w", e.ID, err)
	}
	return core.ComputeSalary(e, att, tx), nil
}

// EmployeeSalaryByID looks the employee up in the store first.
func (s *PayrollService) EmployeeSalaryByID(ctx context.Context, id string, month, year int) (core.SalaryBreakdown, error) {
	if _, err := core.NewMonthWindow(month, year); err != nil {
		return core.SalaryBreakdown{}, err
	}
	all, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return core.SalaryBreakdown{}, fmt.Errorf("salary of %s: %w", id, err)
	}
	for _, e := range all {
		if e.ID == id {
			return s.EmployeeSalary(ctx, e, month, year)
		}
	}
	return core.SalaryBreakdown{}, core.NotFound("employee salary", "employee %s not found", id)
}

// ComputeMonthlyReport computes a breakdown for every active employee in the
// given list. A failure for one employee yields a row carrying the error and
// zeroed derived fields; the rest of the batch is unaffected.
func (s *PayrollService) ComputeMonthlyReport(ctx context.Context, employees []core.Employee, month, year int) (core.MonthlyReport, error) {
	w, err := core.NewMonthWindow(month, year)
	if err != nil {
		return core.MonthlyReport{}, err
	}

	active := make([]core.Employee, 0, len(employees))
	for _, e := range employees {
		if e.Active {
			active = append(active, e)
		}
	}

	rows := make([]core.SalaryBreakdown, len(active))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, e := range active {
		g.Go(func() error {
			row, err := s.EmployeeSalary(ctx, e, month, year)
			if err != nil {
				slog.WarnContext(ctx, "Salary computation failed for employee",
					"employee_id", e.ID,
					"year", year,
					"month", month,
					"error", err)
				row = core.FailedBreakdown(e, err)
			}
			rows[i] = row
			return nil
		})
	}
	_ = g.Wait()

	report := core.NewMonthlyReport(w, rows, s.now().UTC())
	slog.InfoContext(ctx, "Monthly salary report computed",
		"year", year,
		"month", month,
		"rows", len(report.Rows),
		"failed_rows", report.FailedRows,
		"total_payable_cents", report.TotalPayable.Cents)
	return report, nil
}

// MonthlyReport loads the roster from the store and computes the report.
func (s *PayrollService) MonthlyReport(ctx context.Context, month, year int) (core.MonthlyReport, error) {
	if _, err := core.NewMonthWindow(month, year); err != nil {
		return core.MonthlyReport{}, err
	}
	employees, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("monthly report: %w", err)
	}
	return s.ComputeMonthlyReport(ctx, employees, month, year)
}
