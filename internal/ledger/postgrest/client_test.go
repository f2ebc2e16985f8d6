package postgrest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"payroll/internal/core"
	"payroll/internal/ledger"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// fakeServer answers each request with the next queued handler and records what it saw.
type fakeServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	replies  []func(w http.ResponseWriter)
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	var reply func(w http.ResponseWriter)
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	f.mu.Unlock()
	if reply == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	reply(w)
}

func jsonReply(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, replies ...func(w http.ResponseWriter)) (*Client, *fakeServer) {
	t.Helper()
	fake := &fakeServer{replies: replies}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/rest/v1/", APIKey: "anon-key", Timeout: 2 * time.Second}), fake
}

func TestListEmployeesDecodesRows(t *testing.T) {
	c, fake := newTestClient(t, jsonReply(http.StatusOK, `[
		{"id":"e1","name":"Rahim","joining_date":"2024-01-15","basic_salary":20000,"daily_allowance":"150.50","is_active":true,"created_at":"2024-01-15T08:30:00.123456+00:00"}
	]`))

	got, err := c.ListEmployees(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 employee, got %d", len(got))
	}
	e := got[0]
	if e.BasicSalary.Cents != 2000000 || e.DailyAllowance.Cents != 15050 || !e.Active || e.JoiningDate.String() != "2024-01-15" {
		t.Fatalf("unexpected employee: %+v", e)
	}

	req := fake.requests[0]
	if req.Path != "/rest/v1/employees" || req.Query.Get("order") != "name.asc" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Header.Get("apikey") != "anon-key" || req.Header.Get("Authorization") != "Bearer anon-key" {
		t.Fatalf("missing auth headers: %v", req.Header)
	}
}

func TestQueryAttendanceMapsFilters(t *testing.T) {
	c, fake := newTestClient(t, jsonReply(http.StatusOK, `[{"id":"a1","employee_id":"e1","date":"2025-12-31","status":"present"}]`))
	r := (core.MonthWindow{Year: 2025, Month: 12}).AttendanceRange()

	got, err := c.QueryAttendance(context.Background(), ledger.AttendanceQuery{EmployeeID: "e1", Range: &r})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != core.StatusPresent {
		t.Fatalf("unexpected records: %+v", got)
	}
	q := fake.requests[0].Query
	if q.Get("employee_id") != "eq.e1" {
		t.Fatalf("employee filter: %v", q)
	}
	dates := q["date"]
	if len(dates) != 2 || dates[0] != "gte.2025-12-01" || dates[1] != "lt.2026-01-01" {
		t.Fatalf("date filters: %v", dates)
	}
}

func TestQueryTransactionsMapsWindowAndLimit(t *testing.T) {
	c, fake := newTestClient(t,
		jsonReply(http.StatusOK, `[{"id":"t1","employee_id":"e1","type":"advance_salary","amount":"2000.00","description":null,"date":"2025-03-05T10:00:00+00:00","created_at":"2025-03-05T10:00:01+00:00"}]`),
		jsonReply(http.StatusOK, `[]`),
	)
	from, to := (core.MonthWindow{Year: 2025, Month: 3}).TransactionRange()

	got, err := c.QueryTransactions(context.Background(), ledger.TransactionQuery{EmployeeID: "e1", From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Amount.Cents != 200000 || got[0].Type != core.TypeAdvance || got[0].Description != "" {
		t.Fatalf("unexpected transactions: %+v", got)
	}
	dates := fake.requests[0].Query["date"]
	if len(dates) != 2 || dates[0] != "gte.2025-03-01T00:00:00Z" || dates[1] != "lte.2025-03-31T23:59:59Z" {
		t.Fatalf("date filters: %v", dates)
	}

	if _, err := c.QueryTransactions(context.Background(), ledger.TransactionQuery{Limit: 20, NewestFirst: true}); err != nil {
		t.Fatal(err)
	}
	q := fake.requests[1].Query
	if q.Get("order") != "created_at.desc" || q.Get("limit") != "20" {
		t.Fatalf("recent query: %v", q)
	}

	if _, err := c.QueryTransactions(context.Background(), ledger.TransactionQuery{Limit: -1}); !core.IsKind(err, core.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fake.requests) != 2 {
		t.Fatalf("a rejected query must not reach the server")
	}
}

func TestReplaceAttendanceDeletesThenInserts(t *testing.T) {
	c, fake := newTestClient(t,
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) },
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusCreated) },
	)
	day := core.NewDate(2025, 3, 10)
	err := c.ReplaceAttendanceForDate(context.Background(), day, []core.AttendanceRecord{
		{EmployeeID: "A", Status: core.StatusAbsent},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(fake.requests) != 2 {
		t.Fatalf("expected delete and insert, got %d requests", len(fake.requests))
	}
	del, ins := fake.requests[0], fake.requests[1]
	if del.Method != http.MethodDelete || del.Query.Get("date") != "eq.2025-03-10" {
		t.Fatalf("unexpected delete: %+v", del)
	}
	var body []map[string]string
	if err := json.Unmarshal([]byte(ins.Body), &body); err != nil {
		t.Fatalf("insert body: %v", err)
	}
	if ins.Method != http.MethodPost || len(body) != 1 || body[0]["date"] != "2025-03-10" || body[0]["status"] != "absent" {
		t.Fatalf("unexpected insert: %+v", ins)
	}
}

func TestReplaceAttendancePartialFailure(t *testing.T) {
	c, _ := newTestClient(t,
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) },
		jsonReply(http.StatusConflict, `{"message":"duplicate key value","code":"23505"}`),
	)
	err := c.ReplaceAttendanceForDate(context.Background(), core.NewDate(2025, 3, 10), []core.AttendanceRecord{
		{EmployeeID: "A", Status: core.StatusPresent},
	})
	if !core.IsKind(err, core.KindStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "state unknown") || !strings.Contains(msg, "23505") {
		t.Fatalf("error should flag unknown state and carry the server message: %s", msg)
	}
}

func TestUpdateEmployeeNotFound(t *testing.T) {
	c, fake := newTestClient(t, jsonReply(http.StatusOK, `[]`))
	off := false
	_, err := c.UpdateEmployee(context.Background(), "e9", core.EmployeePatch{Active: &off})
	if !core.IsKind(err, core.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	req := fake.requests[0]
	if req.Method != http.MethodPatch || req.Query.Get("id") != "eq.e9" || strings.TrimSpace(req.Body) != `{"is_active":false}` {
		t.Fatalf("unexpected patch request: %+v", req)
	}
}

func TestServerErrorBecomesStoreError(t *testing.T) {
	c, _ := newTestClient(t, jsonReply(http.StatusInternalServerError, `{"message":"boom"}`))
	_, err := c.ListEmployees(context.Background())
	if !core.IsKind(err, core.KindStore) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected store error carrying message, got %v", err)
	}
}

func TestInsertTransactionSendsRepresentationHeader(t *testing.T) {
	c, fake := newTestClient(t, jsonReply(http.StatusCreated,
		`[{"id":"t1","employee_id":"e1","type":"bakery_purchase","amount":500,"description":"bread","date":"2025-03-05T10:00:00Z","created_at":"2025-03-05T10:00:00Z"}]`))
	got, err := c.InsertTransaction(context.Background(), core.Transaction{
		EmployeeID:  "e1",
		Type:        core.TypePurchase,
		Amount:      core.Money{Cents: 50000},
		Description: "bread",
		OccurredAt:  time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "t1" || got.Amount.Cents != 50000 || got.Description != "bread" {
		t.Fatalf("unexpected transaction: %+v", got)
	}
	if fake.requests[0].Header.Get("Prefer") != "return=representation" {
		t.Fatalf("missing Prefer header")
	}
}
