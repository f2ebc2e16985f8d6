// Package memory is an in-process ledger store used by tests and the memory backend.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"payroll/internal/core"
	"payroll/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	employees    map[string]core.Employee
	attendance   []core.AttendanceRecord
	transactions []core.Transaction
	failures     map[string]error
	now          func() time.Time
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		employees: map[string]core.Employee{},
		failures:  map[string]error{},
		now:       time.Now,
	}
}

// Seed stores employees as given, assigning ids where missing.
func (s *Store) Seed(employees ...core.Employee) []core.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Employee, 0, len(employees))
	for _, e := range employees {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.now().UTC()
		}
		s.employees[e.ID] = e
		out = append(out, e)
	}
	return out
}

// FailOn makes every call of the named operation return a store failure wrapping err.
// Operation names are the method names, e.g. "UpsertEmployee". A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		return core.StoreFailure(op, err)
	}
	return nil
}

func (s *Store) ListEmployees(_ context.Context) ([]core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListEmployees"); err != nil {
		return nil, err
	}
	out := make([]core.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b core.Employee) int {
		if c := strings.Compare(foldASCII(a.Name), foldASCII(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) UpsertEmployee(_ context.Context, e core.Employee) (core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpsertEmployee"); err != nil {
		return core.Employee{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
		e.CreatedAt = s.now().UTC()
	} else if prev, ok := s.employees[e.ID]; ok && e.CreatedAt.IsZero() {
		e.CreatedAt = prev.CreatedAt
	}
	s.employees[e.ID] = e
	return e, nil
}

func (s *Store) UpdateEmployee(_ context.Context, id string, patch core.EmployeePatch) (core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateEmployee"); err != nil {
		return core.Employee{}, err
	}
	e, ok := s.employees[id]
	if !ok {
		return core.Employee{}, core.NotFound("update employee", "employee %s not found", id)
	}
	e = patch.Apply(e)
	s.employees[id] = e
	return e, nil
}

func (s *Store) ReplaceAttendanceForDate(_ context.Context, date core.Date, records []core.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ReplaceAttendanceForDate"); err != nil {
		return err
	}
	kept := s.attendance[:0:0]
	for _, r := range s.attendance {
		if !r.Date.Equal(date.Time) {
			kept = append(kept, r)
		}
	}
	for _, r := range records {
		r.ID = uuid.NewString()
		r.Date = date
		kept = append(kept, r)
	}
	s.attendance = kept
	return nil
}

func (s *Store) QueryAttendance(_ context.Context, q ledger.AttendanceQuery) ([]core.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("QueryAttendance"); err != nil {
		return nil, err
	}
	out := []core.AttendanceRecord{}
	for _, r := range s.attendance {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertTransaction"); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()
	tx.CreatedAt = s.now().UTC()
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = tx.CreatedAt
	}
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

func (s *Store) QueryTransactions(_ context.Context, q ledger.TransactionQuery) ([]core.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("QueryTransactions"); err != nil {
		return nil, err
	}
	out := []core.Transaction{}
	for _, tx := range s.transactions {
		if q.Matches(tx) {
			out = append(out, tx)
		}
	}
	if q.NewestFirst {
		// insertion order is creation order
		slices.Reverse(out)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// foldASCII lowercases A-Z only, matching SQLite's NOCASE collation.
func foldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
