package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table columns.
type (
	EmployeeRow struct {
		ID                  string
		Name                string
		JoiningDate         string
		BasicSalaryCents    int64
		DailyAllowanceCents int64
		IsActive            bool
		CreatedAt           string
	}

	AttendanceRow struct {
		ID         string
		EmployeeID string
		Date       string
		Status     string
	}

	TransactionRow struct {
		ID          string
		EmployeeID  string
		Type        string
		AmountCents int64
		Description string
		OccurredAt  string
		CreatedAt   string
	}
)

const employeeColumns = `id, name, joining_date, basic_salary_cents, daily_allowance_cents, is_active, created_at`

func scanEmployee(sc interface{ Scan(...any) error }) (EmployeeRow, error) {
	var e EmployeeRow
	err := sc.Scan(&e.ID, &e.Name, &e.JoiningDate, &e.BasicSalaryCents, &e.DailyAllowanceCents, &e.IsActive, &e.CreatedAt)
	return e, err
}

const listEmployees = `SELECT ` + employeeColumns + ` FROM employees ORDER BY name COLLATE NOCASE, id`

func (q *Queries) ListEmployees(ctx context.Context) ([]EmployeeRow, error) {
	rows, err := q.db.QueryContext(ctx, listEmployees)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EmployeeRow
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const getEmployee = `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`

func (q *Queries) GetEmployee(ctx context.Context, id string) (EmployeeRow, error) {
	return scanEmployee(q.db.QueryRowContext(ctx, getEmployee, id))
}

const upsertEmployee = `INSERT INTO employees (` + employeeColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    joining_date = excluded.joining_date,
    basic_salary_cents = excluded.basic_salary_cents,
    daily_allowance_cents = excluded.daily_allowance_cents,
    is_active = excluded.is_active
RETURNING ` + employeeColumns

func (q *Queries) UpsertEmployee(ctx context.Context, e EmployeeRow) (EmployeeRow, error) {
	row := q.db.QueryRowContext(ctx, upsertEmployee,
		e.ID, e.Name, e.JoiningDate, e.BasicSalaryCents, e.DailyAllowanceCents, e.IsActive, e.CreatedAt)
	return scanEmployee(row)
}

const updateEmployee = `UPDATE employees SET
    name = ?, joining_date = ?, basic_salary_cents = ?, daily_allowance_cents = ?, is_active = ?
WHERE id = ?
RETURNING ` + employeeColumns

func (q *Queries) UpdateEmployee(ctx context.Context, e EmployeeRow) (EmployeeRow, error) {
	row := q.db.QueryRowContext(ctx, updateEmployee,
		e.Name, e.JoiningDate, e.BasicSalaryCents, e.DailyAllowanceCents, e.IsActive, e.ID)
	return scanEmployee(row)
}

const deleteAttendanceForDate = `DELETE FROM attendance WHERE date = ?`

func (q *Queries) DeleteAttendanceForDate(ctx context.Context, date string) error {
	_, err := q.db.ExecContext(ctx, deleteAttendanceForDate, date)
	return err
}

const insertAttendance = `INSERT INTO attendance (id, employee_id, date, status) VALUES (?, ?, ?, ?)`

func (q *Queries) InsertAttendance(ctx context.Context, a AttendanceRow) error {
	_, err := q.db.ExecContext(ctx, insertAttendance, a.ID, a.EmployeeID, a.Date, a.Status)
	return err
}

// AttendanceFilter holds optional predicates; empty strings are ignored.
// RangeEnd is exclusive.
type AttendanceFilter struct {
	EmployeeID string
	On         string
	RangeStart string
	RangeEnd   string
}

func (q *Queries) QueryAttendance(ctx context.Context, f AttendanceFilter) ([]AttendanceRow, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where, args = append(where, "employee_id = ?"), append(args, f.EmployeeID)
	}
	if f.On != "" {
		where, args = append(where, "date = ?"), append(args, f.On)
	}
	if f.RangeStart != "" {
		where, args = append(where, "date >= ?"), append(args, f.RangeStart)
	}
	if f.RangeEnd != "" {
		where, args = append(where, "date < ?"), append(args, f.RangeEnd)
	}
	query := `SELECT id, employee_id, date, status FROM attendance` + whereClause(where) + ` ORDER BY date, employee_id`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AttendanceRow
	for rows.Next() {
		var a AttendanceRow
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Date, &a.Status); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const transactionColumns = `id, employee_id, type, amount_cents, description, occurred_at, created_at`

const insertTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

func scanTransaction(sc interface{ Scan(...any) error }) (TransactionRow, error) {
	var t TransactionRow
	err := sc.Scan(&t.ID, &t.EmployeeID, &t.Type, &t.AmountCents, &t.Description, &t.OccurredAt, &t.CreatedAt)
	return t, err
}

func (q *Queries) InsertTransaction(ctx context.Context, t TransactionRow) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, insertTransaction,
		t.ID, t.EmployeeID, t.Type, t.AmountCents, t.Description, t.OccurredAt, t.CreatedAt)
	return scanTransaction(row)
}

// TransactionFilter bounds are inclusive; empty strings are ignored.
type TransactionFilter struct {
	EmployeeID  string
	From        string
	To          string
	Limit       int64
	NewestFirst bool
}

func (q *Queries) QueryTransactions(ctx context.Context, f TransactionFilter) ([]TransactionRow, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where, args = append(where, "employee_id = ?"), append(args, f.EmployeeID)
	}
	if f.From != "" {
		where, args = append(where, "occurred_at >= ?"), append(args, f.From)
	}
	if f.To != "" {
		where, args = append(where, "occurred_at <= ?"), append(args, f.To)
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions` + whereClause(where)
	if f.NewestFirst {
		query += ` ORDER BY created_at DESC, rowid DESC`
	} else {
		query += ` ORDER BY occurred_at, rowid`
	}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
