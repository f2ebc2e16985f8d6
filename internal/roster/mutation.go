package roster

import (
	"payroll/internal/core"
)

// MutationState tracks an optimistic cache change until the store answers.
type MutationState int

const (
	MutationApplied MutationState = iota
	MutationConfirmed
	MutationRolledBack
)

func (s MutationState) String() string {
	switch s {
	case MutationApplied:
		return "applied"
	case MutationConfirmed:
		return "confirmed"
	case MutationRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

type MutationKind string

const (
	MutationAdd    MutationKind = "add"
	MutationToggle MutationKind = "toggle"
)

// Mutation is one optimistic change to the cache. Inverse holds the row as it
// was before the change; for an add it carries the provisional row to remove.
type Mutation struct {
	ID       string
	Kind     MutationKind
	EntityID string
	State    MutationState
	Inverse  core.Employee
}

// settle moves the mutation out of Applied. A mutation settles exactly once.
func (m *Mutation) settle(to MutationState) error {
	if m.State != MutationApplied {
		return core.Conflict("settle mutation", "mutation %s already %s", m.ID, m.State)
	}
	m.State = to
	return nil
}
