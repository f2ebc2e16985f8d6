package http

import (
	"time"

	"github.com/shopspring/decimal"

	"payroll/internal/core"
)

// Amounts travel as decimal strings in major units with trailing zeros
// dropped, e.g. "20800" or "120.5".

type employeeResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	JoiningDate    string          `json:"joining_date"`
	BasicSalary    decimal.Decimal `json:"basic_salary"`
	DailyAllowance decimal.Decimal `json:"daily_allowance"`
	Active         bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toEmployee(e core.Employee) employeeResponse {
	return employeeResponse{
		ID:             e.ID,
		Name:           e.Name,
		JoiningDate:    e.JoiningDate.String(),
		BasicSalary:    e.BasicSalary.Decimal(),
		DailyAllowance: e.DailyAllowance.Decimal(),
		Active:         e.Active,
		CreatedAt:      e.CreatedAt,
	}
}

func toEmployees(in []core.Employee) []employeeResponse {
	out := make([]employeeResponse, len(in))
	for i, e := range in {
		out[i] = toEmployee(e)
	}
	return out
}

type createEmployeeRequest struct {
	Name           string          `json:"name"`
	JoiningDate    string          `json:"joining_date"`
	BasicSalary    decimal.Decimal `json:"basic_salary"`
	DailyAllowance decimal.Decimal `json:"daily_allowance"`
}

func (req createEmployeeRequest) toNewEmployee() (core.NewEmployee, error) {
	joined, err := core.ParseDate(req.JoiningDate)
	if err != nil {
		return core.NewEmployee{}, err
	}
	basic, err := moneyField("basic_salary", req.BasicSalary)
	if err != nil {
		return core.NewEmployee{}, err
	}
	daily, err := moneyField("daily_allowance", req.DailyAllowance)
	if err != nil {
		return core.NewEmployee{}, err
	}
	return core.NewEmployee{
		Name:           sanitizeInput(req.Name),
		JoiningDate:    joined,
		BasicSalary:    basic,
		DailyAllowance: daily,
	}, nil
}

type updateEmployeeRequest struct {
	Name           *string          `json:"name"`
	JoiningDate    *string          `json:"joining_date"`
	BasicSalary    *decimal.Decimal `json:"basic_salary"`
	DailyAllowance *decimal.Decimal `json:"daily_allowance"`
	Active         *bool            `json:"is_active"`
}

func (req updateEmployeeRequest) toPatch() (core.EmployeePatch, error) {
	var p core.EmployeePatch
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		p.Name = &name
	}
	if req.JoiningDate != nil {
		d, err := core.ParseDate(*req.JoiningDate)
		if err != nil {
			return core.EmployeePatch{}, err
		}
		p.JoiningDate = &d
	}
	if req.BasicSalary != nil {
		m, err := moneyField("basic_salary", *req.BasicSalary)
		if err != nil {
			return core.EmployeePatch{}, err
		}
		p.BasicSalary = &m
	}
	if req.DailyAllowance != nil {
		m, err := moneyField("daily_allowance", *req.DailyAllowance)
		if err != nil {
			return core.EmployeePatch{}, err
		}
		p.DailyAllowance = &m
	}
	p.Active = req.Active
	return p, nil
}

func moneyField(name string, d decimal.Decimal) (core.Money, error) {
	if d.IsNegative() {
		return core.Money{}, core.Validation("parse "+name, "%s cannot be negative", name)
	}
	m, err := core.FromDecimal(d)
	if err != nil {
		return core.Money{}, core.Validation("parse "+name, "%s is not a valid amount", name)
	}
	return m, nil
}

type attendanceRecordJSON struct {
	ID         string `json:"id,omitempty"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date,omitempty"`
	Status     string `json:"status"`
}

func toAttendanceRecords(in []core.AttendanceRecord) []attendanceRecordJSON {
	out := make([]attendanceRecordJSON, len(in))
	for i, r := range in {
		out[i] = attendanceRecordJSON{ID: r.ID, EmployeeID: r.EmployeeID, Date: r.Date.String(), Status: string(r.Status)}
	}
	return out
}

type saveAttendanceRequest struct {
	Records []attendanceRecordJSON `json:"records"`
}

func (req saveAttendanceRequest) toRecords() []core.AttendanceRecord {
	out := make([]core.AttendanceRecord, len(req.Records))
	for i, r := range req.Records {
		out[i] = core.AttendanceRecord{
			EmployeeID: sanitizeInput(r.EmployeeID),
			Status:     core.AttendanceStatus(sanitizeInput(r.Status)),
		}
	}
	return out
}

type daySummaryResponse struct {
	Date    string `json:"date"`
	Present int    `json:"present_count"`
	Absent  int    `json:"absent_count"`
	Total   int    `json:"total_marked"`
}

func toDaySummary(s core.DaySummary) daySummaryResponse {
	return daySummaryResponse{Date: s.Date.String(), Present: s.PresentCount, Absent: s.AbsentCount, Total: s.TotalMarked}
}

type attendanceSummaryResponse struct {
	EmployeeID   string `json:"employee_id"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	PresentDays  int    `json:"present_days"`
	AbsentDays   int    `json:"absent_days"`
	TotalRecords int    `json:"total_records"`
}

type transactionResponse struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	OccurredAt  time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toTransaction(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		EmployeeID:  t.EmployeeID,
		Type:        string(t.Type),
		Amount:      t.Amount.Decimal(),
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
		CreatedAt:   t.CreatedAt,
	}
}

func toTransactions(in []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(in))
	for i, t := range in {
		out[i] = toTransaction(t)
	}
	return out
}

type recordTransactionRequest struct {
	EmployeeID  string          `json:"employee_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date"`
}

func (req recordTransactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := moneyField("amount", req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		EmployeeID:  sanitizeInput(req.EmployeeID),
		Type:        core.TransactionType(sanitizeInput(req.Type)),
		Amount:      amount,
		Description: sanitizeInput(req.Description),
	}
	if req.Date != nil {
		tx.OccurredAt = req.Date.UTC()
	}
	return tx, nil
}

type transactionSummaryResponse struct {
	EmployeeID      string                `json:"employee_id"`
	Year            int                   `json:"year"`
	Month           int                   `json:"month"`
	Advances        decimal.Decimal       `json:"advances"`
	BakeryPurchases decimal.Decimal       `json:"bakery_purchases"`
	Transactions    []transactionResponse `json:"transactions"`
}

type salaryResponse struct {
	EmployeeID       string          `json:"employee_id"`
	EmployeeName     string          `json:"employee_name"`
	BasicSalary      decimal.Decimal `json:"basic_salary"`
	DailyAllowance   decimal.Decimal `json:"daily_allowance"`
	DaysPresent      int             `json:"days_present"`
	DaysAbsent       int             `json:"days_absent"`
	FoodAllowance    decimal.Decimal `json:"food_allowance"`
	TotalAdvances    decimal.Decimal `json:"total_advances"`
	BakeryDeductions decimal.Decimal `json:"bakery_deductions"`
	FinalSalary      decimal.Decimal `json:"final_salary"`
	Error            string          `json:"error,omitempty"`
}

func toSalary(b core.SalaryBreakdown) salaryResponse {
	return salaryResponse{
		EmployeeID:       b.EmployeeID,
		EmployeeName:     b.EmployeeName,
		BasicSalary:      b.BasicSalary.Decimal(),
		DailyAllowance:   b.DailyAllowance.Decimal(),
		DaysPresent:      b.DaysPresent,
		DaysAbsent:       b.DaysAbsent,
		FoodAllowance:    b.FoodAllowance.Decimal(),
		TotalAdvances:    b.TotalAdvances.Decimal(),
		BakeryDeductions: b.BakeryDeductions.Decimal(),
		FinalSalary:      b.FinalSalary.Decimal(),
		Error:            b.Error,
	}
}

type reportResponse struct {
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	Rows         []salaryResponse `json:"rows"`
	TotalPayable decimal.Decimal  `json:"total_payable"`
	FailedRows   int              `json:"failed_rows"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

func toReport(r core.MonthlyReport) reportResponse {
	rows := make([]salaryResponse, len(r.Rows))
	for i, b := range r.Rows {
		rows[i] = toSalary(b)
	}
	return reportResponse{
		Year:         r.Window.Year,
		Month:        r.Window.Month,
		Rows:         rows,
		TotalPayable: r.TotalPayable.Decimal(),
		FailedRows:   r.FailedRows,
		GeneratedAt:  r.GeneratedAt,
	}
}

type dashboardResponse struct {
	ActiveEmployees int                `json:"active_employees"`
	TotalEmployees  int                `json:"total_employees"`
	Today           daySummaryResponse `json:"today"`
}
