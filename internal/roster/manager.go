// Package roster keeps a session-scoped cache of the employee roster and
// applies add and toggle optimistically, rolling back when the store refuses.
package roster

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"payroll/internal/core"
	"payroll/internal/ledger"
	applog "payroll/internal/log"
)

// TempIDPrefix marks provisional rows that the store has not confirmed yet.
const TempIDPrefix = "temp-"

type Manager struct {
	store ledger.EmployeeStore
	now   func() time.Time

	mu        sync.Mutex
	employees []core.Employee
	pending   map[string]*Mutation
	lastErr   string
	collator  *collate.Collator
}

func NewManager(store ledger.EmployeeStore) *Manager {
	return &Manager{
		store:    store,
		now:      time.Now,
		pending:  map[string]*Mutation{},
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
}

// Snapshot returns a copy of the cached roster ordered by name.
func (m *Manager) Snapshot() []core.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.employees)
}

// Active returns the cached employees with the active flag set.
func (m *Manager) Active() []core.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		if e.Active {
			out = append(out, e)
		}
	}
	return out
}

func (m *Manager) Get(id string) (core.Employee, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		return m.employees[i], true
	}
	return core.Employee{}, false
}

// LastError is the message of the most recent failed mutation or refresh.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = ""
}

// Pending reports how many optimistic mutations are awaiting the store.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Refresh replaces the whole cache with the store's roster. On failure the
// cache is left as it was.
func (m *Manager) Refresh(ctx context.Context) error {
	employees, err := m.store.ListEmployees(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastErr = err.Error()
		return err
	}
	m.employees = slices.Clone(employees)
	m.sortLocked()
	return nil
}

// Add inserts a provisional row, then persists it. The provisional row is
// replaced by the stored one on success and removed on failure.
func (m *Manager) Add(ctx context.Context, data core.NewEmployee) (core.Employee, error) {
	if err := data.Validate(); err != nil {
		return core.Employee{}, core.Invalid("add employee", err)
	}

	provisional := core.Employee{
		ID:             TempIDPrefix + uuid.NewString(),
		Name:           data.Name,
		JoiningDate:    data.JoiningDate,
		BasicSalary:    data.BasicSalary,
		DailyAllowance: data.DailyAllowance,
		Active:         true,
		CreatedAt:      m.now().UTC(),
	}
	mut := &Mutation{ID: uuid.NewString(), Kind: MutationAdd, EntityID: provisional.ID, Inverse: provisional}

	m.mu.Lock()
	m.employees = append(m.employees, provisional)
	m.sortLocked()
	m.pending[provisional.ID] = mut
	m.mu.Unlock()

	insert := provisional
	insert.ID = ""
	insert.CreatedAt = time.Time{}
	stored, err := m.store.UpsertEmployee(ctx, insert)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, provisional.ID)

	if err != nil {
		m.lastErr = err.Error()
		if i := m.indexOf(provisional.ID); i >= 0 {
			m.employees = slices.Delete(m.employees, i, i+1)
		} else {
			m.inconsistent(ctx, mut)
		}
		m.settleLocked(ctx, mut, MutationRolledBack)
		return core.Employee{}, err
	}

	if i := m.indexOf(provisional.ID); i >= 0 {
		m.employees[i] = stored
	} else if m.indexOf(stored.ID) < 0 {
		m.employees = append(m.employees, stored)
	}
	m.sortLocked()
	m.settleLocked(ctx, mut, MutationConfirmed)
	return stored, nil
}

// ToggleActive flips the active flag in the cache, then persists it. On
// failure the flag is flipped back. A toggle is rejected while another
// optimistic mutation on the same employee is in flight.
func (m *Manager) ToggleActive(ctx context.Context, id string) (core.Employee, error) {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return core.Employee{}, core.NotFound("toggle employee", "employee %s not in roster", id)
	}
	if _, busy := m.pending[id]; busy {
		m.mu.Unlock()
		return core.Employee{}, core.Conflict("toggle employee", "employee %s has a change in flight", id)
	}
	before := m.employees[i]
	mut := &Mutation{ID: uuid.NewString(), Kind: MutationToggle, EntityID: id, Inverse: before}
	m.employees[i].Active = !before.Active
	m.pending[id] = mut
	m.mu.Unlock()

	active := !before.Active
	stored, err := m.store.UpdateEmployee(ctx, id, core.EmployeePatch{Active: &active})

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)

	if err != nil {
		m.lastErr = err.Error()
		if j := m.indexOf(id); j >= 0 {
			m.employees[j].Active = before.Active
		} else {
			m.inconsistent(ctx, mut)
		}
		m.settleLocked(ctx, mut, MutationRolledBack)
		return core.Employee{}, err
	}

	if j := m.indexOf(id); j >= 0 {
		m.employees[j] = stored
		m.sortLocked()
	}
	m.settleLocked(ctx, mut, MutationConfirmed)
	return stored, nil
}

// Update persists patch first and refreshes the cache afterwards; nothing is
// applied to the cache before the store accepts the change.
func (m *Manager) Update(ctx context.Context, id string, patch core.EmployeePatch) (core.Employee, error) {
	if err := patch.Validate(); err != nil {
		return core.Employee{}, core.Invalid("update employee", err)
	}
	stored, err := m.store.UpdateEmployee(ctx, id, patch)
	if err != nil {
		m.mu.Lock()
		m.lastErr = err.Error()
		m.mu.Unlock()
		return core.Employee{}, err
	}
	if err := m.Refresh(ctx); err != nil {
		return stored, err
	}
	return stored, nil
}

func (m *Manager) indexOf(id string) int {
	return slices.IndexFunc(m.employees, func(e core.Employee) bool { return e.ID == id })
}

// sortLocked orders by collated name, then id. The collator is not safe for
// concurrent use and is only touched under mu.
func (m *Manager) sortLocked() {
	slices.SortStableFunc(m.employees, func(a, b core.Employee) int {
		if c := m.collator.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

func (m *Manager) settleLocked(ctx context.Context, mut *Mutation, to MutationState) {
	if err := mut.settle(to); err != nil {
		logger(ctx).WarnContext(ctx, "Mutation settled twice",
			applog.FieldMutationID, mut.ID,
			applog.FieldError, err)
	}
}

// inconsistent records a rollback whose target left the cache, typically
// because a refresh ran while the store call was in flight.
func (m *Manager) inconsistent(ctx context.Context, mut *Mutation) {
	err := core.InconsistentCache("rollback "+string(mut.Kind), "employee %s no longer cached", mut.EntityID)
	logger(ctx).WarnContext(ctx, "Rollback target missing from roster cache",
		applog.FieldMutationID, mut.ID,
		applog.FieldEmployeeID, mut.EntityID,
		applog.FieldErrorKind, string(core.KindInconsistentCache),
		applog.FieldError, err)
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentRoster)
}
