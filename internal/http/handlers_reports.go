package http

import (
	"net/http"

	"payroll/internal/core"
	applog "payroll/internal/log"
)

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	// computed on every request; breakdowns are never kept past one render
	report, err := s.deps.Payroll.MonthlyReport(r.Context(), p.Month, p.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toReport(report))
}

type exportResponse struct {
	RequestID string `json:"request_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reports == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Success: false,
			Error:   "report export is not configured",
			Kind:    string(core.KindInternal),
		})
		return
	}
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	win, err := core.NewMonthWindow(p.Month, p.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.deps.Reports.PublishReportRequest(r.Context(), win)
	if err != nil {
		writeError(w, r, core.StoreFailure("enqueue report export", err))
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Report export enqueued",
		"request_id", id,
		applog.FieldYear, win.Year,
		applog.FieldMonth, win.Month)
	writeData(w, http.StatusAccepted, exportResponse{RequestID: id, Year: win.Year, Month: win.Month})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	today, err := s.deps.Attendance.SummarizeToday(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, dashboardResponse{
		ActiveEmployees: len(s.deps.Roster.Active()),
		TotalEmployees:  len(s.deps.Roster.Snapshot()),
		Today:           toDaySummary(today),
	})
}
