package roster

import (
	"context"
	"errors"
	"strings"
	"testing"

	"payroll/internal/core"
	"payroll/internal/ledger/memory"
)

// gatedStore blocks UpdateEmployee until release is closed. With gateUpsert
// set, UpsertEmployee blocks the same way.
type gatedStore struct {
	*memory.Store
	entered    chan struct{}
	release    chan struct{}
	gateUpsert bool
}

func (g *gatedStore) UpsertEmployee(ctx context.Context, e core.Employee) (core.Employee, error) {
	if g.gateUpsert {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.Store.UpsertEmployee(ctx, e)
}

func (g *gatedStore) UpdateEmployee(ctx context.Context, id string, patch core.EmployeePatch) (core.Employee, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Store.UpdateEmployee(ctx, id, patch)
}

func newEmployee(name string) core.NewEmployee {
	return core.NewEmployee{
		Name:           name,
		JoiningDate:    core.NewDate(2024, 1, 15),
		BasicSalary:    core.Money{Cents: 2000000},
		DailyAllowance: core.Money{Cents: 15000},
	}
}

func names(employees []core.Employee) []string {
	out := make([]string, len(employees))
	for i, e := range employees {
		out[i] = e.Name
	}
	return out
}

func TestRefreshOrdersByName(t *testing.T) {
	store := memory.New()
	store.Seed(core.Employee{Name: "karim"}, core.Employee{Name: "Abdul"}, core.Employee{Name: "Babul"})
	m := NewManager(store)

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := names(m.Snapshot())
	want := []string{"Abdul", "Babul", "karim"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestAddConfirmsStoredRow(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.New())

	stored, err := m.Add(ctx, newEmployee("Rahim"))
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID == "" || strings.HasPrefix(stored.ID, TempIDPrefix) {
		t.Fatalf("expected a store id, got %q", stored.ID)
	}
	snap := m.Snapshot()
	if len(snap) != 1 || snap[0].ID != stored.ID || !snap[0].Active {
		t.Fatalf("cache should hold the stored row, got %+v", snap)
	}
	if m.Pending() != 0 {
		t.Fatalf("no mutation should remain pending")
	}
}

func TestAddRollsBackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Seed(core.Employee{Name: "Abdul", Active: true})
	m := NewManager(store)
	if err := m.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	before := m.Snapshot()

	store.FailOn("UpsertEmployee", errors.New("insert refused"))
	_, err := m.Add(ctx, newEmployee("Rahim"))
	if !core.IsKind(err, core.KindStore) {
		t.Fatalf("expected store error, got %v", err)
	}

	after := m.Snapshot()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("cache should equal its pre-call content, got %+v", after)
	}
	if m.LastError() == "" {
		t.Fatal("last error should be recorded")
	}
	m.ClearError()
	if m.LastError() != "" {
		t.Fatal("ClearError should reset the message")
	}
}

func TestAddShowsProvisionalRowWhileInFlight(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	mem.Seed(core.Employee{Name: "Abdul", Active: true}, core.Employee{Name: "Karim", Active: true})
	store := &gatedStore{Store: mem, entered: make(chan struct{}), release: make(chan struct{}), gateUpsert: true}
	m := NewManager(store)
	if err := m.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	type result struct {
		e   core.Employee
		err error
	}
	done := make(chan result, 1)
	go func() {
		e, err := m.Add(ctx, newEmployee("Babul"))
		done <- result{e, err}
	}()
	<-store.entered

	snap := m.Snapshot()
	got := names(snap)
	if len(got) != 3 || got[0] != "Abdul" || got[1] != "Babul" || got[2] != "Karim" {
		t.Fatalf("order while in flight = %v, want [Abdul Babul Karim]", got)
	}
	provisional := snap[1]
	if !strings.HasPrefix(provisional.ID, TempIDPrefix) || !provisional.Active {
		t.Fatalf("provisional row = %+v", provisional)
	}
	if m.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", m.Pending())
	}
	if _, err := m.ToggleActive(ctx, provisional.ID); !core.IsKind(err, core.KindConflict) {
		t.Fatalf("toggle of provisional row: want conflict, got %v", err)
	}

	close(store.release)
	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}
	if _, ok := m.Get(provisional.ID); ok {
		t.Fatal("provisional row should be replaced by the stored one")
	}
	if got, ok := m.Get(res.e.ID); !ok || got.Name != "Babul" {
		t.Fatalf("stored row missing from cache: %+v", got)
	}
	if m.Pending() != 0 {
		t.Fatalf("pending = %d after confirm", m.Pending())
	}
}

func TestAddValidatesBeforeStore(t *testing.T) {
	store := memory.New()
	store.FailOn("UpsertEmployee", errors.New("must not be called"))
	m := NewManager(store)

	_, err := m.Add(context.Background(), core.NewEmployee{Name: "  ", JoiningDate: core.NewDate(2024, 1, 1)})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected empty name, got %v", err)
	}
	if len(m.Snapshot()) != 0 {
		t.Fatal("nothing should be cached")
	}
}

func TestToggleActive(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := store.Seed(core.Employee{Name: "Rahim", Active: true})[0]
	m := NewManager(store)
	if err := m.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := m.ToggleActive(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Active {
		t.Fatal("expected inactive after toggle")
	}
	if len(m.Active()) != 0 {
		t.Fatal("active view should be empty")
	}

	got, err = m.ToggleActive(ctx, e.ID)
	if err != nil || !got.Active {
		t.Fatalf("expected active again, got %+v, %v", got, err)
	}
}

func TestToggleRollsBackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := store.Seed(core.Employee{Name: "Rahim", Active: true})[0]
	m := NewManager(store)
	if err := m.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	store.FailOn("UpdateEmployee", errors.New("update refused"))
	if _, err := m.ToggleActive(ctx, e.ID); !core.IsKind(err, core.KindStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	cached, ok := m.Get(e.ID)
	if !ok || !cached.Active {
		t.Fatalf("flag should be flipped back, got %+v", cached)
	}
}

func TestToggleUnknownEmployee(t *testing.T) {
	m := NewManager(memory.New())
	if _, err := m.ToggleActive(context.Background(), "missing"); !core.IsKind(err, core.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestToggleConflictWhileInFlight(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	e := mem.Seed(core.Employee{Name: "Rahim", Active: true})[0]
	store := &gatedStore{Store: mem, entered: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(store)
	if err := m.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := m.ToggleActive(ctx, e.ID)
		done <- err
	}()
	<-store.entered

	if cached, _ := m.Get(e.ID); cached.Active {
		t.Fatal("optimistic flip should be visible before the store answers")
	}
	if _, err := m.ToggleActive(ctx, e.ID); !core.IsKind(err, core.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	close(store.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if cached, _ := m.Get(e.ID); cached.Active {
		t.Fatal("first toggle should be confirmed")
	}
}

func TestRollbackTargetMissingIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	e := mem.Seed(core.Employee{Name: "Rahim", Active: true})[0]
	store := &gatedStore{Store: mem, entered: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(store)
	if err := m.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := m.ToggleActive(ctx, e.ID)
		done <- err
	}()
	<-store.entered

	// the employee disappears from the cache while the update is in flight
	mem.FailOn("UpdateEmployee", errors.New("update refused"))
	m.mu.Lock()
	m.employees = nil
	m.mu.Unlock()
	close(store.release)

	if err := <-done; !core.IsKind(err, core.KindStore) {
		t.Fatalf("the original store failure should be returned, got %v", err)
	}
	if len(m.Snapshot()) != 0 {
		t.Fatal("nothing should be resurrected")
	}
}

func TestUpdateRefreshesCache(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := store.Seed(core.Employee{Name: "Rahim", Active: true})[0]
	m := NewManager(store)
	if err := m.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	name := "Rahim Uddin"
	salary := core.Money{Cents: 2500000}
	if _, err := m.Update(ctx, e.ID, core.EmployeePatch{Name: &name, BasicSalary: &salary}); err != nil {
		t.Fatal(err)
	}
	cached, _ := m.Get(e.ID)
	if cached.Name != name || cached.BasicSalary != salary {
		t.Fatalf("cache not refreshed: %+v", cached)
	}

	if _, err := m.Update(ctx, e.ID, core.EmployeePatch{}); !core.IsKind(err, core.KindValidation) {
		t.Fatalf("empty patch should fail validation, got %v", err)
	}
	if _, err := m.Update(ctx, "missing", core.EmployeePatch{Name: &name}); !core.IsKind(err, core.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRefreshFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Seed(core.Employee{Name: "Rahim"})
	m := NewManager(store)
	if err := m.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	store.FailOn("ListEmployees", errors.New("offline"))
	if err := m.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}
	if len(m.Snapshot()) != 1 {
		t.Fatal("cache should survive a failed refresh")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := memory.New()
	store.Seed(core.Employee{Name: "Rahim"})
	m := NewManager(store)
	_ = m.Refresh(context.Background())

	snap := m.Snapshot()
	snap[0].Name = "changed"
	if got := m.Snapshot()[0].Name; got != "Rahim" {
		t.Fatalf("snapshot aliased the cache: %q", got)
	}
}

func TestMutationSettlesOnce(t *testing.T) {
	mut := &Mutation{ID: "m1"}
	if err := mut.settle(MutationConfirmed); err != nil {
		t.Fatal(err)
	}
	if err := mut.settle(MutationRolledBack); !core.IsKind(err, core.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if mut.State.String() != "confirmed" {
		t.Fatalf("state = %s", mut.State)
	}
}
