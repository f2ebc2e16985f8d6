package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"payroll/internal/core"
)

// Routing keys on the direct exchange.
const (
	RoutingAttendanceSaved     = "attendance.saved"
	RoutingTransactionRecorded = "transaction.recorded"
	RoutingReportRequested     = "report.requested"
)

// AttendanceSavedMessage announces that the records of one date were replaced.
type AttendanceSavedMessage struct {
	Date      string    `json:"date"`
	Present   int       `json:"present"`
	Absent    int       `json:"absent"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAttendanceSavedMessage(date core.Date, s core.DaySummary) *AttendanceSavedMessage {
	return &AttendanceSavedMessage{
		Date:      date.String(),
		Present:   s.PresentCount,
		Absent:    s.AbsentCount,
		Total:     s.TotalMarked,
		Timestamp: time.Now(),
	}
}

// TransactionRecordedMessage announces an appended transaction.
type TransactionRecordedMessage struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employee_id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(tx core.Transaction) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:          tx.ID,
		EmployeeID:  tx.EmployeeID,
		Type:        string(tx.Type),
		AmountCents: tx.Amount.Cents,
		OccurredAt:  tx.OccurredAt,
		Timestamp:   time.Now(),
	}
}

// ReportRequestMessage asks the worker to export one month's salary report.
type ReportRequestMessage struct {
	RequestID string    `json:"request_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportRequestMessage(w core.MonthWindow) *ReportRequestMessage {
	return &ReportRequestMessage{
		RequestID: uuid.NewString(),
		Year:      w.Year,
		Month:     w.Month,
		Timestamp: time.Now(),
	}
}

// Window validates the requested month.
func (m *ReportRequestMessage) Window() (core.MonthWindow, error) {
	return core.NewMonthWindow(m.Month, m.Year)
}

// ToJSON converts the message to JSON bytes
func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRequestMessageFromJSON decodes and validates a report request.
func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := msg.Window(); err != nil {
		return nil, fmt.Errorf("report request %s: %w", msg.RequestID, err)
	}
	return &msg, nil
}
