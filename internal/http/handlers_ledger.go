package http

import (
	"net/http"
)

func (s *Server) handleAttendanceForDate(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, err := s.deps.Attendance.AttendanceForDate(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAttendanceRecords(records))
}

func (s *Server) handleSaveAttendance(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req saveAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.deps.Attendance.SaveAttendance(r.Context(), date, req.toRecords())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toDaySummary(summary))
}

func (s *Server) handleDaySummary(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.deps.Attendance.SummarizeDay(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toDaySummary(summary))
}

func (s *Server) handleTodaySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Attendance.SummarizeToday(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toDaySummary(summary))
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.deps.Transactions.RecordTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toTransaction(saved))
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.deps.Transactions.RecentTransactions(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTransactions(txs))
}
