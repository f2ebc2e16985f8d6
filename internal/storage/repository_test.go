package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"payroll/internal/core"
	"payroll/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "payroll.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedEmployee(t *testing.T, repo *SQLiteRepository, name string) core.Employee {
	t.Helper()
	e, err := repo.UpsertEmployee(context.Background(), core.Employee{
		Name:           name,
		JoiningDate:    core.NewDate(2024, 1, 1),
		BasicSalary:    core.Money{Cents: 2000000},
		DailyAllowance: core.Money{Cents: 15000},
		Active:         true,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return e
}

func TestEmployeesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	b := seedEmployee(t, repo, "Karim")
	a := seedEmployee(t, repo, "abdul")

	list, err := repo.ListEmployees(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("expected name order abdul, Karim; got %+v", list)
	}
	if list[1].BasicSalary.Cents != 2000000 || list[1].JoiningDate.String() != "2024-01-01" || !list[1].Active {
		t.Fatalf("fields not preserved: %+v", list[1])
	}

	off := false
	updated, err := repo.UpdateEmployee(ctx, b.ID, core.EmployeePatch{Active: &off})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Active || updated.Name != "Karim" || !updated.CreatedAt.Equal(b.CreatedAt) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := repo.UpdateEmployee(ctx, "missing", core.EmployeePatch{Active: &off}); !core.IsKind(err, core.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReplaceAttendanceForDate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a := seedEmployee(t, repo, "A")
	b := seedEmployee(t, repo, "B")
	day := core.NewDate(2025, 3, 10)

	first := []core.AttendanceRecord{
		{EmployeeID: a.ID, Status: core.StatusPresent},
		{EmployeeID: b.ID, Status: core.StatusAbsent},
	}
	if err := repo.ReplaceAttendanceForDate(ctx, day, first); err != nil {
		t.Fatal(err)
	}
	// repeat is idempotent
	if err := repo.ReplaceAttendanceForDate(ctx, day, first); err != nil {
		t.Fatal(err)
	}
	got, err := repo.QueryAttendance(ctx, ledger.AttendanceQuery{On: &day})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	second := []core.AttendanceRecord{{EmployeeID: a.ID, Status: core.StatusAbsent}}
	if err := repo.ReplaceAttendanceForDate(ctx, day, second); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.QueryAttendance(ctx, ledger.AttendanceQuery{On: &day})
	if len(got) != 1 || got[0].EmployeeID != a.ID || got[0].Status != core.StatusAbsent {
		t.Fatalf("expected only A absent, got %+v", got)
	}
}

func TestReplaceAttendanceRollsBackOnUnknownEmployee(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a := seedEmployee(t, repo, "A")
	day := core.NewDate(2025, 3, 10)

	if err := repo.ReplaceAttendanceForDate(ctx, day, []core.AttendanceRecord{{EmployeeID: a.ID, Status: core.StatusPresent}}); err != nil {
		t.Fatal(err)
	}
	bad := []core.AttendanceRecord{
		{EmployeeID: a.ID, Status: core.StatusAbsent},
		{EmployeeID: "ghost", Status: core.StatusPresent},
	}
	if err := repo.ReplaceAttendanceForDate(ctx, day, bad); !core.IsKind(err, core.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, _ := repo.QueryAttendance(ctx, ledger.AttendanceQuery{On: &day})
	if len(got) != 1 || got[0].Status != core.StatusPresent {
		t.Fatalf("previous records should survive a failed replace, got %+v", got)
	}
}

func TestQueryAttendanceMonthRange(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a := seedEmployee(t, repo, "A")
	for _, d := range []core.Date{core.NewDate(2025, 12, 1), core.NewDate(2025, 12, 31), core.NewDate(2026, 1, 1)} {
		if err := repo.ReplaceAttendanceForDate(ctx, d, []core.AttendanceRecord{{EmployeeID: a.ID, Status: core.StatusPresent}}); err != nil {
			t.Fatal(err)
		}
	}
	r := (core.MonthWindow{Year: 2025, Month: 12}).AttendanceRange()
	got, err := repo.QueryAttendance(ctx, ledger.AttendanceQuery{EmployeeID: a.ID, Range: &r})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 December records, got %d", len(got))
	}
}

func TestTransactionsWindowAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a := seedEmployee(t, repo, "A")

	stamps := []time.Time{
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2025, 3, 31, 23, 59, 59, 500_000_000, time.UTC),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, ts := range stamps {
		_, err := repo.InsertTransaction(ctx, core.Transaction{
			EmployeeID: a.ID,
			Type:       core.TypePurchase,
			Amount:     core.Money{Cents: int64(i + 1)},
			OccurredAt: ts,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	from, to := (core.MonthWindow{Year: 2025, Month: 3}).TransactionRange()
	got, err := repo.QueryTransactions(ctx, ledger.TransactionQuery{EmployeeID: a.ID, From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Amount.Cents != 1 || got[1].Amount.Cents != 2 {
		t.Fatalf("expected the first two transactions, got %+v", got)
	}

	recent, err := repo.QueryTransactions(ctx, ledger.TransactionQuery{Limit: 3, NewestFirst: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 || recent[0].Amount.Cents != 4 {
		t.Fatalf("expected newest first, got %+v", recent)
	}

	if _, err := repo.InsertTransaction(ctx, core.Transaction{EmployeeID: "ghost", Type: core.TypeAdvance}); !core.IsKind(err, core.KindNotFound) {
		t.Fatalf("expected not found for unknown employee, got %v", err)
	}
}

func TestListEmployeesIgnoresCase(t *testing.T) {
	repo := newTestRepo(t)
	for _, name := range []string{"karim", "Babul", "abdul"} {
		seedEmployee(t, repo, name)
	}

	got, err := repo.ListEmployees(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"abdul", "Babul", "karim"}
	if len(got) != len(want) {
		t.Fatalf("got %d employees", len(got))
	}
	for i, e := range got {
		if e.Name != want[i] {
			t.Fatalf("position %d = %q, want order %v", i, e.Name, want)
		}
	}
}
