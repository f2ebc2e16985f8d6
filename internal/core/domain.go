// Package core holds the payroll domain: employees, attendance marks, cash
// transactions, month windows, the salary formula and the tagged errors shared
// by every layer.
package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
)

const (
	TypeAdvance  TransactionType = "advance_salary"
	TypePurchase TransactionType = "bakery_purchase"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

type (
	AttendanceStatus string
	TransactionType  string

	// Date is a calendar day without a time component, always at UTC midnight.
	Date struct {
		time.Time
	}

	Employee struct {
		ID             string
		Name           string
		JoiningDate    Date
		BasicSalary    Money
		DailyAllowance Money
		Active         bool
		CreatedAt      time.Time
	}

	// NewEmployee carries the fields a caller supplies when adding to the roster.
	NewEmployee struct {
		Name           string
		JoiningDate    Date
		BasicSalary    Money
		DailyAllowance Money
	}

	// EmployeePatch is a partial update; nil fields are left untouched.
	EmployeePatch struct {
		Name           *string
		JoiningDate    *Date
		BasicSalary    *Money
		DailyAllowance *Money
		Active         *bool
	}

	AttendanceRecord struct {
		ID         string
		EmployeeID string
		Date       Date
		Status     AttendanceStatus
	}

	Transaction struct {
		ID          string
		EmployeeID  string
		Type        TransactionType
		Amount      Money
		Description string
		OccurredAt  time.Time
		CreatedAt   time.Time
	}
)

var (
	ErrZeroDate          = errors.New("date cannot be zero")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyEmployeeID   = errors.New("empty employee id")
	ErrInvalidStatus     = errors.New("invalid attendance status")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrDuplicateEmployee = errors.New("employee marked more than once")
	ErrNegativeLimit     = errors.New("limit cannot be negative")
	ErrEmptyPatch        = errors.New("nothing to update")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Validation("parse date", "malformed date %q, expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

func (t TransactionType) Valid() bool {
	return t == TypeAdvance || t == TypePurchase
}

func (e NewEmployee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := e.JoiningDate.Validate(); err != nil {
		return err
	}
	if e.BasicSalary.Cents < 0 || e.DailyAllowance.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (p EmployeePatch) Validate() error {
	if p.Name == nil && p.JoiningDate == nil && p.BasicSalary == nil && p.DailyAllowance == nil && p.Active == nil {
		return ErrEmptyPatch
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrEmptyName
	}
	if p.JoiningDate != nil {
		if err := p.JoiningDate.Validate(); err != nil {
			return err
		}
	}
	if (p.BasicSalary != nil && p.BasicSalary.Cents < 0) || (p.DailyAllowance != nil && p.DailyAllowance.Cents < 0) {
		return ErrNegativeAmount
	}
	return nil
}

// Apply returns a copy of e with the patch's non-nil fields set.
func (p EmployeePatch) Apply(e Employee) Employee {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.JoiningDate != nil {
		e.JoiningDate = *p.JoiningDate
	}
	if p.BasicSalary != nil {
		e.BasicSalary = *p.BasicSalary
	}
	if p.DailyAllowance != nil {
		e.DailyAllowance = *p.DailyAllowance
	}
	if p.Active != nil {
		e.Active = *p.Active
	}
	return e
}

func (r AttendanceRecord) Validate() error {
	if strings.TrimSpace(r.EmployeeID) == "" {
		return ErrEmptyEmployeeID
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Validate checks the fields the store needs. A non-positive amount is accepted
// and left to the caller's judgement.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.EmployeeID) == "" {
		return ErrEmptyEmployeeID
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}
