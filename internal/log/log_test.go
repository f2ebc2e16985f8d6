package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentRoster, Output: &buf})
	l.Info("Employee added", FieldEmployeeID, "e1")

	out := buf.String()
	if !strings.Contains(out, "component=roster") || !strings.Contains(out, "employee_id=e1") {
		t.Fatalf("unexpected log line: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %+v", l)
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	type key struct{}
	handler := Middleware(base)(RequestIDMiddleware(func(ctx context.Context) string {
		id, _ := ctx.Value(key{}).(string)
		return id
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	req = req.WithContext(context.WithValue(req.Context(), key{}, "req-123"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "request_id=req-123") {
		t.Fatalf("request id missing from log: %s", buf.String())
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf}))
	req := httptest.NewRequest(http.MethodGet, "/api/reports/salary?year=2025&month=3", nil)

	sl.LogHTTPEnd(context.Background(), req, "req-1", http.StatusBadGateway, 12, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "status_code=502") {
		t.Fatalf("expected error level line, got %s", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "Report failed", errors.New("boom"), OpReport, NewFields().WithWindow(2025, 3))
	if !strings.Contains(buf.String(), "error=boom") || !strings.Contains(buf.String(), "month=3") {
		t.Fatalf("unexpected error line: %s", buf.String())
	}
}
