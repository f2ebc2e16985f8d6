package postgrest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"payroll/internal/core"
)

// Wire rows follow the column names of the remote schema. Numeric columns are
// decoded through decimal so amounts never pass through float64.
type (
	employeeRow struct {
		ID             string          `json:"id,omitempty"`
		Name           string          `json:"name"`
		JoiningDate    string          `json:"joining_date"`
		BasicSalary    decimal.Decimal `json:"basic_salary"`
		DailyAllowance decimal.Decimal `json:"daily_allowance"`
		IsActive       bool            `json:"is_active"`
		CreatedAt      string          `json:"created_at,omitempty"`
	}

	attendanceRow struct {
		ID         string `json:"id,omitempty"`
		EmployeeID string `json:"employee_id"`
		Date       string `json:"date"`
		Status     string `json:"status"`
	}

	transactionRow struct {
		ID          string          `json:"id,omitempty"`
		EmployeeID  string          `json:"employee_id"`
		Type        string          `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description *string         `json:"description"`
		Date        string          `json:"date"`
		CreatedAt   string          `json:"created_at,omitempty"`
	}
)

func newEmployeeRow(e core.Employee) employeeRow {
	return employeeRow{
		ID:             e.ID,
		Name:           e.Name,
		JoiningDate:    e.JoiningDate.String(),
		BasicSalary:    e.BasicSalary.Decimal(),
		DailyAllowance: e.DailyAllowance.Decimal(),
		IsActive:       e.Active,
	}
}

func (r employeeRow) toCore() (core.Employee, error) {
	joined, err := core.ParseDate(r.JoiningDate)
	if err != nil {
		return core.Employee{}, fmt.Errorf("employee %s joining_date: %w", r.ID, err)
	}
	basic, err := core.FromDecimal(r.BasicSalary)
	if err != nil {
		return core.Employee{}, fmt.Errorf("employee %s basic_salary: %w", r.ID, err)
	}
	allowance, err := core.FromDecimal(r.DailyAllowance)
	if err != nil {
		return core.Employee{}, fmt.Errorf("employee %s daily_allowance: %w", r.ID, err)
	}
	created, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return core.Employee{}, fmt.Errorf("employee %s created_at: %w", r.ID, err)
	}
	return core.Employee{
		ID:             r.ID,
		Name:           r.Name,
		JoiningDate:    joined,
		BasicSalary:    basic,
		DailyAllowance: allowance,
		Active:         r.IsActive,
		CreatedAt:      created,
	}, nil
}

// patchBody holds only the columns the patch sets.
func patchBody(p core.EmployeePatch) map[string]any {
	body := map[string]any{}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.JoiningDate != nil {
		body["joining_date"] = p.JoiningDate.String()
	}
	if p.BasicSalary != nil {
		body["basic_salary"] = p.BasicSalary.Decimal()
	}
	if p.DailyAllowance != nil {
		body["daily_allowance"] = p.DailyAllowance.Decimal()
	}
	if p.Active != nil {
		body["is_active"] = *p.Active
	}
	return body
}

func (r attendanceRow) toCore() (core.AttendanceRecord, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.AttendanceRecord{}, fmt.Errorf("attendance %s date: %w", r.ID, err)
	}
	return core.AttendanceRecord{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Date:       d,
		Status:     core.AttendanceStatus(r.Status),
	}, nil
}

func newTransactionRow(t core.Transaction) transactionRow {
	row := transactionRow{
		EmployeeID: t.EmployeeID,
		Type:       string(t.Type),
		Amount:     t.Amount.Decimal(),
		Date:       t.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if t.Description != "" {
		row.Description = &t.Description
	}
	return row
}

func (r transactionRow) toCore() (core.Transaction, error) {
	amount, err := core.FromDecimal(r.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", r.ID, err)
	}
	occurred, err := parseTimestamp(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date: %w", r.ID, err)
	}
	created, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s created_at: %w", r.ID, err)
	}
	t := core.Transaction{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Type:       core.TransactionType(r.Type),
		Amount:     amount,
		OccurredAt: occurred,
		CreatedAt:  created,
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	return t, nil
}

// parseTimestamp accepts the timestamptz renderings PostgREST produces. An
// empty value yields the zero time.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999-07"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
