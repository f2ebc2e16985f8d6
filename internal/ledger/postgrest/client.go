// Package postgrest stores the ledger in a PostgREST (Supabase) database over HTTP.
package postgrest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"payroll/internal/core"
	"payroll/internal/ledger"
)

// Config holds the endpoint and the static API key.
type Config struct {
	BaseURL string // e.g. https://project.supabase.co/rest/v1
	APIKey  string
	Timeout time.Duration
}

// Client is a resty-backed implementation of ledger.Store.
type Client struct {
	http *resty.Client
}

var _ ledger.Store = (*Client)(nil)

// apiError is the PostgREST error payload.
type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: c}
}

func (c *Client) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	var rows []employeeRow
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("order", "name.asc").
		SetResult(&rows).
		SetError(&apiError{}).
		Get("/employees")
	if err := check("list employees", resp, err); err != nil {
		return nil, err
	}
	return employeesFromRows("list employees", rows)
}

func (c *Client) UpsertEmployee(ctx context.Context, e core.Employee) (core.Employee, error) {
	req := c.http.R().
		SetContext(ctx).
		SetResult(&[]employeeRow{}).
		SetError(&apiError{})
	prefer := "return=representation"
	if e.ID != "" {
		prefer = "resolution=merge-duplicates," + prefer
	}
	resp, err := req.
		SetHeader("Prefer", prefer).
		SetBody(newEmployeeRow(e)).
		Post("/employees")
	if err := check("upsert employee", resp, err); err != nil {
		return core.Employee{}, err
	}
	saved, err := singleEmployee("upsert employee", resp)
	if err != nil {
		return core.Employee{}, err
	}
	slog.InfoContext(ctx, "Employee saved to PostgREST", "employee_id", saved.ID, "name", saved.Name)
	return saved, nil
}

func (c *Client) UpdateEmployee(ctx context.Context, id string, patch core.EmployeePatch) (core.Employee, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		SetHeader("Prefer", "return=representation").
		SetBody(patchBody(patch)).
		SetResult(&[]employeeRow{}).
		SetError(&apiError{}).
		Patch("/employees")
	if err := check("update employee", resp, err); err != nil {
		return core.Employee{}, err
	}
	rows := *resp.Result().(*[]employeeRow)
	if len(rows) == 0 {
		return core.Employee{}, core.NotFound("update employee", "employee %s not found", id)
	}
	return rows[0].toCore()
}

// ReplaceAttendanceForDate issues a DELETE then a bulk insert. The two calls are
// not atomic: when the insert fails after the delete succeeded the error says so.
func (c *Client) ReplaceAttendanceForDate(ctx context.Context, date core.Date, records []core.AttendanceRecord) error {
	day := date.String()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("date", "eq."+day).
		SetError(&apiError{}).
		Delete("/attendance")
	if err := check("replace attendance", resp, err); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	body := make([]attendanceRow, 0, len(records))
	for _, r := range records {
		body = append(body, attendanceRow{EmployeeID: r.EmployeeID, Date: day, Status: string(r.Status)})
	}
	resp, err = c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&apiError{}).
		Post("/attendance")
	if err := check("replace attendance", resp, err); err != nil {
		slog.ErrorContext(ctx, "Attendance insert failed after delete", "date", day, "error", err)
		return &core.Error{
			Kind: core.KindStore,
			Op:   "replace attendance",
			Msg:  fmt.Sprintf("records for %s were deleted but the insert failed; state unknown, re-fetch before trusting", day),
			Err:  err,
		}
	}
	return nil
}

func (c *Client) QueryAttendance(ctx context.Context, q ledger.AttendanceQuery) ([]core.AttendanceRecord, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "date.asc")
	if q.EmployeeID != "" {
		params.Add("employee_id", "eq."+q.EmployeeID)
	}
	if q.On != nil {
		params.Add("date", "eq."+q.On.String())
	}
	if q.Range != nil {
		params.Add("date", "gte."+q.Range.Start.String())
		params.Add("date", "lt."+q.Range.End.String())
	}

	var rows []attendanceRow
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&rows).
		SetError(&apiError{}).
		Get("/attendance")
	if err := check("query attendance", resp, err); err != nil {
		return nil, err
	}
	out := make([]core.AttendanceRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toCore()
		if err != nil {
			return nil, core.StoreFailure("query attendance", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = time.Now()
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(newTransactionRow(tx)).
		SetResult(&[]transactionRow{}).
		SetError(&apiError{}).
		Post("/transactions")
	if err := check("insert transaction", resp, err); err != nil {
		return core.Transaction{}, err
	}
	rows := *resp.Result().(*[]transactionRow)
	if len(rows) == 0 {
		return core.Transaction{}, core.StoreFailure("insert transaction", fmt.Errorf("empty representation"))
	}
	saved, err := rows[0].toCore()
	if err != nil {
		return core.Transaction{}, core.StoreFailure("insert transaction", err)
	}
	slog.InfoContext(ctx, "Transaction saved to PostgREST",
		"transaction_id", saved.ID,
		"employee_id", saved.EmployeeID,
		"type", saved.Type,
		"amount_cents", saved.Amount.Cents)
	return saved, nil
}

func (c *Client) QueryTransactions(ctx context.Context, q ledger.TransactionQuery) ([]core.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("select", "*")
	if q.NewestFirst {
		params.Set("order", "created_at.desc")
	} else {
		params.Set("order", "date.asc")
	}
	if q.EmployeeID != "" {
		params.Add("employee_id", "eq."+q.EmployeeID)
	}
	if q.From != nil {
		params.Add("date", "gte."+q.From.UTC().Format(time.RFC3339))
	}
	if q.To != nil {
		params.Add("date", "lte."+q.To.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var rows []transactionRow
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&rows).
		SetError(&apiError{}).
		Get("/transactions")
	if err := check("query transactions", resp, err); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		t, err := r.toCore()
		if err != nil {
			return nil, core.StoreFailure("query transactions", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Ping checks that the endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "id").
		SetQueryParam("limit", "1").
		SetError(&apiError{}).
		Get("/employees")
	return check("ping", resp, err)
}

// check turns a transport failure or an error status into a store error.
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return core.StoreFailure(op, err)
	}
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	msg := strings.TrimSpace(resp.Status())
	if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Message != "" {
		msg = apiErr.Message
		if apiErr.Code != "" {
			msg = fmt.Sprintf("%s (code %s)", msg, apiErr.Code)
		}
	}
	return core.StoreFailure(op, fmt.Errorf("postgrest status %d: %s", resp.StatusCode(), msg))
}

func singleEmployee(op string, resp *resty.Response) (core.Employee, error) {
	rows := *resp.Result().(*[]employeeRow)
	if len(rows) == 0 {
		return core.Employee{}, core.StoreFailure(op, fmt.Errorf("empty representation"))
	}
	e, err := rows[0].toCore()
	if err != nil {
		return core.Employee{}, core.StoreFailure(op, err)
	}
	return e, nil
}

func employeesFromRows(op string, rows []employeeRow) ([]core.Employee, error) {
	out := make([]core.Employee, 0, len(rows))
	for _, r := range rows {
		e, err := r.toCore()
		if err != nil {
			return nil, core.StoreFailure(op, err)
		}
		out = append(out, e)
	}
	return out, nil
}
