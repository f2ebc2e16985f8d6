package http

import (
	"net/http"
)

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := ParseBoolParam(r.URL.Query(), "active")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if activeOnly {
		writeData(w, http.StatusOK, toEmployees(s.deps.Roster.Active()))
		return
	}
	writeData(w, http.StatusOK, toEmployees(s.deps.Roster.Snapshot()))
}

func (s *Server) handleAddEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	data, err := req.toNewEmployee()
	if err != nil {
		writeError(w, r, err)
		return
	}
	stored, err := s.deps.Roster.Add(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toEmployee(stored))
}

func (s *Server) handleRefreshEmployees(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Roster.Refresh(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toEmployees(s.deps.Roster.Snapshot()))
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req updateEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	stored, err := s.deps.Roster.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toEmployee(stored))
}

func (s *Server) handleToggleEmployee(w http.ResponseWriter, r *http.Request) {
	stored, err := s.deps.Roster.ToggleActive(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toEmployee(stored))
}

func (s *Server) handleEmployeeAttendance(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := r.PathValue("id")
	sum, err := s.deps.Attendance.SummarizeMonth(r.Context(), id, p.Month, p.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, attendanceSummaryResponse{
		EmployeeID:   id,
		Year:         p.Year,
		Month:        p.Month,
		PresentDays:  sum.PresentDays,
		AbsentDays:   sum.AbsentDays,
		TotalRecords: sum.TotalRecords,
	})
}

func (s *Server) handleEmployeeTransactions(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := r.PathValue("id")
	sum, err := s.deps.Transactions.SummarizeMonth(r.Context(), id, p.Month, p.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, transactionSummaryResponse{
		EmployeeID:      id,
		Year:            p.Year,
		Month:           p.Month,
		Advances:        sum.Advances.Decimal(),
		BakeryPurchases: sum.BakeryPurchases.Decimal(),
		Transactions:    toTransactions(sum.Transactions),
	})
}

func (s *Server) handleEmployeeSalary(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.deps.Payroll.EmployeeSalaryByID(r.Context(), r.PathValue("id"), p.Month, p.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toSalary(b))
}
