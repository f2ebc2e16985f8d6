// Package ledger declares the store port shared by every persistence backend.
package ledger

import (
	"context"
	"time"

	"payroll/internal/core"
)

// DefaultRecentLimit is used when a caller asks for recent transactions without a limit.
const DefaultRecentLimit = 20

type (
	EmployeeStore interface {
		// ListEmployees returns every employee ordered by name.
		ListEmployees(ctx context.Context) ([]core.Employee, error)
		// UpsertEmployee inserts e when e.ID is empty, otherwise replaces the stored row.
		UpsertEmployee(ctx context.Context, e core.Employee) (core.Employee, error)
		// UpdateEmployee applies a partial update and returns the stored row.
		UpdateEmployee(ctx context.Context, id string, patch core.EmployeePatch) (core.Employee, error)
	}

	AttendanceStore interface {
		// ReplaceAttendanceForDate deletes every record of date and inserts records.
		ReplaceAttendanceForDate(ctx context.Context, date core.Date, records []core.AttendanceRecord) error
		QueryAttendance(ctx context.Context, q AttendanceQuery) ([]core.AttendanceRecord, error)
	}

	TransactionStore interface {
		InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		QueryTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error)
	}

	// Store is the full ledger: the single source of truth for the roster and both ledgers.
	Store interface {
		EmployeeStore
		AttendanceStore
		TransactionStore
	}

	// AttendanceQuery filters attendance. Zero-valued fields do not filter.
	AttendanceQuery struct {
		EmployeeID string
		On         *core.Date
		Range      *core.DateRange
	}

	// TransactionQuery filters transactions. From and To are inclusive.
	// Limit 0 means no limit.
	TransactionQuery struct {
		EmployeeID  string
		From        *time.Time
		To          *time.Time
		Limit       int
		NewestFirst bool
	}
)

func (q TransactionQuery) Validate() error {
	if q.Limit < 0 {
		return core.Invalid("query transactions", core.ErrNegativeLimit)
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return core.Validation("query transactions", "range end %s is before start %s",
			q.To.Format(time.RFC3339), q.From.Format(time.RFC3339))
	}
	return nil
}

// Matches reports whether r satisfies the query.
func (q AttendanceQuery) Matches(r core.AttendanceRecord) bool {
	if q.EmployeeID != "" && r.EmployeeID != q.EmployeeID {
		return false
	}
	if q.On != nil && !r.Date.Equal(q.On.Time) {
		return false
	}
	if q.Range != nil && !q.Range.Contains(r.Date) {
		return false
	}
	return true
}

// Matches reports whether tx satisfies the query filters, ignoring Limit.
func (q TransactionQuery) Matches(tx core.Transaction) bool {
	if q.EmployeeID != "" && tx.EmployeeID != q.EmployeeID {
		return false
	}
	if q.From != nil && tx.OccurredAt.Before(*q.From) {
		return false
	}
	if q.To != nil && tx.OccurredAt.After(*q.To) {
		return false
	}
	return true
}

// CheckAttendanceBatch rejects a batch with an invalid record or an employee
// marked twice, before any store call is made.
func CheckAttendanceBatch(records []core.AttendanceRecord) error {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return core.Validation("save attendance", "record %d: %v", i, err)
		}
		if _, dup := seen[r.EmployeeID]; dup {
			return core.Validation("save attendance", "employee %s: %v", r.EmployeeID, core.ErrDuplicateEmployee)
		}
		seen[r.EmployeeID] = struct{}{}
	}
	return nil
}
