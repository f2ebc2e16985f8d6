// Package http exposes the payroll operations as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"payroll/internal/backend"
	"payroll/internal/core"
	applog "payroll/internal/log"
	"payroll/internal/middleware/ratelimit"
	"payroll/internal/middleware/security"
	"payroll/internal/middleware/trace"
	"payroll/internal/roster"
	"payroll/internal/services"
)

// ReportRequester enqueues a report export for the worker.
type ReportRequester interface {
	PublishReportRequest(ctx context.Context, w core.MonthWindow) (string, error)
}

// Deps are the collaborators the handlers call into. Reports and Ready are optional.
type Deps struct {
	Roster       *roster.Manager
	Attendance   *services.AttendanceService
	Transactions *services.TransactionService
	Payroll      *services.PayrollService
	Reports      ReportRequester
	Ready        backend.PingFunc
	Logger       *applog.Logger
}

// Options tunes request limits.
type Options struct {
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps Deps

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// Call Shutdown to stop the limiter's cleanup loop.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		deps:    deps,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(deps.Logger, security.ClientIP),
		now:     time.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(security.ClientIP, writeRateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.RequestIDMiddleware(trace.GetRequestID)(h)
	h = s.tracer.Middleware(h)
	h = applog.Middleware(deps.Logger.WithComponent(applog.ComponentHTTP))(h)

	s.Addr = addr
	s.Handler = h
	s.ReadTimeout = 10 * time.Second
	s.ReadHeaderTimeout = 5 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	s.MaxHeaderBytes = 1 << 16 // 64KB
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/employees", s.handleListEmployees)
	mux.HandleFunc("POST /api/employees", s.handleAddEmployee)
	mux.HandleFunc("POST /api/employees/refresh", s.handleRefreshEmployees)
	mux.HandleFunc("PATCH /api/employees/{id}", s.handleUpdateEmployee)
	mux.HandleFunc("POST /api/employees/{id}/toggle", s.handleToggleEmployee)
	mux.HandleFunc("GET /api/employees/{id}/attendance", s.handleEmployeeAttendance)
	mux.HandleFunc("GET /api/employees/{id}/transactions", s.handleEmployeeTransactions)
	mux.HandleFunc("GET /api/employees/{id}/salary", s.handleEmployeeSalary)

	mux.HandleFunc("GET /api/attendance", s.handleAttendanceForDate)
	mux.HandleFunc("GET /api/attendance/today", s.handleTodaySummary)
	mux.HandleFunc("PUT /api/attendance/{date}", s.handleSaveAttendance)
	mux.HandleFunc("GET /api/attendance/{date}/summary", s.handleDaySummary)

	mux.HandleFunc("POST /api/transactions", s.handleRecordTransaction)
	mux.HandleFunc("GET /api/transactions/recent", s.handleRecentTransactions)

	mux.HandleFunc("GET /api/reports/salary", s.handleMonthlyReport)
	mux.HandleFunc("POST /api/reports/salary/export", s.handleExportReport)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
