package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"payroll/internal/core"
	"payroll/internal/ledger"

	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so that text comparison in SQL orders by time.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	rows, err := r.queries.ListEmployees(ctx)
	if err != nil {
		return nil, core.StoreFailure("list employees", err)
	}
	out := make([]core.Employee, 0, len(rows))
	for _, row := range rows {
		e, err := employeeFromRow(row)
		if err != nil {
			return nil, core.StoreFailure("list employees", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) UpsertEmployee(ctx context.Context, e core.Employee) (core.Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
		e.CreatedAt = r.now()
	} else if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	row, err := r.queries.UpsertEmployee(ctx, employeeToRow(e))
	if err != nil {
		return core.Employee{}, core.StoreFailure("upsert employee", err)
	}
	saved, err := employeeFromRow(row)
	if err != nil {
		return core.Employee{}, core.StoreFailure("upsert employee", err)
	}

	slog.InfoContext(ctx, "Employee saved to SQLite",
		"employee_id", saved.ID,
		"name", saved.Name,
		"active", saved.Active)

	return saved, nil
}

// UpdateEmployee reads, patches and writes the row in one SQL transaction.
func (r *SQLiteRepository) UpdateEmployee(ctx context.Context, id string, patch core.EmployeePatch) (core.Employee, error) {
	var saved core.Employee
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetEmployee(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NotFound("update employee", "employee %s not found", id)
		}
		if err != nil {
			return core.StoreFailure("update employee", err)
		}
		current, err := employeeFromRow(row)
		if err != nil {
			return core.StoreFailure("update employee", err)
		}
		row, err = q.UpdateEmployee(ctx, employeeToRow(patch.Apply(current)))
		if err != nil {
			return core.StoreFailure("update employee", err)
		}
		saved, err = employeeFromRow(row)
		if err != nil {
			return core.StoreFailure("update employee", err)
		}
		return nil
	})
	if err != nil {
		return core.Employee{}, err
	}

	slog.InfoContext(ctx, "Employee updated in SQLite", "employee_id", saved.ID, "active", saved.Active)
	return saved, nil
}

// ReplaceAttendanceForDate deletes and inserts inside a single SQL transaction,
// so a failed batch leaves the previous records in place.
func (r *SQLiteRepository) ReplaceAttendanceForDate(ctx context.Context, date core.Date, records []core.AttendanceRecord) error {
	day := date.String()
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteAttendanceForDate(ctx, day); err != nil {
			return core.StoreFailure("replace attendance", fmt.Errorf("delete %s: %w", day, err))
		}
		for _, rec := range records {
			err := q.InsertAttendance(ctx, AttendanceRow{
				ID:         uuid.NewString(),
				EmployeeID: rec.EmployeeID,
				Date:       day,
				Status:     string(rec.Status),
			})
			if isForeignKeyViolation(err) {
				return core.NotFound("replace attendance", "employee %s not found", rec.EmployeeID)
			}
			if err != nil {
				return core.StoreFailure("replace attendance", fmt.Errorf("insert %s: %w", rec.EmployeeID, err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Attendance replaced in SQLite", "date", day, "records", len(records))
	return nil
}

func (r *SQLiteRepository) QueryAttendance(ctx context.Context, q ledger.AttendanceQuery) ([]core.AttendanceRecord, error) {
	f := AttendanceFilter{EmployeeID: q.EmployeeID}
	if q.On != nil {
		f.On = q.On.String()
	}
	if q.Range != nil {
		f.RangeStart, f.RangeEnd = q.Range.Start.String(), q.Range.End.String()
	}
	rows, err := r.queries.QueryAttendance(ctx, f)
	if err != nil {
		return nil, core.StoreFailure("query attendance", err)
	}
	out := make([]core.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, core.StoreFailure("query attendance", err)
		}
		out = append(out, core.AttendanceRecord{
			ID:         row.ID,
			EmployeeID: row.EmployeeID,
			Date:       d,
			Status:     core.AttendanceStatus(row.Status),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	now := r.now()
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = now
	}
	row, err := r.queries.InsertTransaction(ctx, TransactionRow{
		ID:          uuid.NewString(),
		EmployeeID:  tx.EmployeeID,
		Type:        string(tx.Type),
		AmountCents: tx.Amount.Cents,
		Description: tx.Description,
		OccurredAt:  formatTimestamp(tx.OccurredAt),
		CreatedAt:   formatTimestamp(now),
	})
	if isForeignKeyViolation(err) {
		return core.Transaction{}, core.NotFound("insert transaction", "employee %s not found", tx.EmployeeID)
	}
	if err != nil {
		return core.Transaction{}, core.StoreFailure("insert transaction", err)
	}
	saved, err := transactionFromRow(row)
	if err != nil {
		return core.Transaction{}, core.StoreFailure("insert transaction", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"transaction_id", saved.ID,
		"employee_id", saved.EmployeeID,
		"type", saved.Type,
		"amount_cents", saved.Amount.Cents)

	return saved, nil
}

func (r *SQLiteRepository) QueryTransactions(ctx context.Context, q ledger.TransactionQuery) ([]core.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	f := TransactionFilter{EmployeeID: q.EmployeeID, Limit: int64(q.Limit), NewestFirst: q.NewestFirst}
	if q.From != nil {
		f.From = formatTimestamp(*q.From)
	}
	if q.To != nil {
		f.To = formatTimestamp(*q.To)
	}
	rows, err := r.queries.QueryTransactions(ctx, f)
	if err != nil {
		return nil, core.StoreFailure("query transactions", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			return nil, core.StoreFailure("query transactions", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StoreFailure("begin transaction", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.StoreFailure("commit transaction", err)
	}
	return nil
}

func employeeToRow(e core.Employee) EmployeeRow {
	return EmployeeRow{
		ID:                  e.ID,
		Name:                e.Name,
		JoiningDate:         e.JoiningDate.String(),
		BasicSalaryCents:    e.BasicSalary.Cents,
		DailyAllowanceCents: e.DailyAllowance.Cents,
		IsActive:            e.Active,
		CreatedAt:           formatTimestamp(e.CreatedAt),
	}
}

func employeeFromRow(row EmployeeRow) (core.Employee, error) {
	joined, err := core.ParseDate(row.JoiningDate)
	if err != nil {
		return core.Employee{}, fmt.Errorf("employee %s: %w", row.ID, err)
	}
	created, err := parseTimestamp(row.CreatedAt)
	if err != nil {
		return core.Employee{}, fmt.Errorf("employee %s: %w", row.ID, err)
	}
	return core.Employee{
		ID:             row.ID,
		Name:           row.Name,
		JoiningDate:    joined,
		BasicSalary:    core.Money{Cents: row.BasicSalaryCents},
		DailyAllowance: core.Money{Cents: row.DailyAllowanceCents},
		Active:         row.IsActive,
		CreatedAt:      created,
	}, nil
}

func transactionFromRow(row TransactionRow) (core.Transaction, error) {
	occurred, err := parseTimestamp(row.OccurredAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	created, err := parseTimestamp(row.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		EmployeeID:  row.EmployeeID,
		Type:        core.TransactionType(row.Type),
		Amount:      core.Money{Cents: row.AmountCents},
		Description: row.Description,
		OccurredAt:  occurred,
		CreatedAt:   created,
	}, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
