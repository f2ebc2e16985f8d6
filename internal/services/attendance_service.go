package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"payroll/internal/core"
	"payroll/internal/ledger"
)

// AttendanceService records daily attendance and aggregates it by day and month.
type AttendanceService struct {
	store  ledger.AttendanceStore
	events EventPublisher
	now    func() time.Time
}

// NewAttendanceService wires the store; events may be nil when no broker is configured.
func NewAttendanceService(store ledger.AttendanceStore, events EventPublisher) *AttendanceService {
	return &AttendanceService{store: store, events: events, now: time.Now}
}

// SaveAttendance replaces every record of date with records. The batch is
// validated before the store is touched.
func (s *AttendanceService) SaveAttendance(ctx context.Context, date core.Date, records []core.AttendanceRecord) (core.DaySummary, error) {
	if err := date.Validate(); err != nil {
		return core.DaySummary{}, core.Invalid("save attendance", err)
	}
	if err := ledger.CheckAttendanceBatch(records); err != nil {
		return core.DaySummary{}, err
	}

	stamped := make([]core.AttendanceRecord, len(records))
	for i, r := range records {
		r.Date = date
		stamped[i] = r
	}
	if err := s.store.ReplaceAttendanceForDate(ctx, date, stamped); err != nil {
		return core.DaySummary{}, fmt.Errorf("save attendance for %s: %w", date, err)
	}

	summary := summarizeDay(date, stamped)
	slog.InfoContext(ctx, "Attendance saved",
		"date", date.String(),
		"present", summary.PresentCount,
		"absent", summary.AbsentCount)

	if s.events != nil {
		if err := s.events.PublishAttendanceSaved(ctx, date, summary); err != nil {
			// the ledger is already updated
			slog.ErrorContext(ctx, "Failed to publish attendance event", "date", date.String(), "error", err)
		}
	}
	return summary, nil
}

// AttendanceForDate returns the records of one date.
func (s *AttendanceService) AttendanceForDate(ctx context.Context, date core.Date) ([]core.AttendanceRecord, error) {
	if err := date.Validate(); err != nil {
		return nil, core.Invalid("attendance for date", err)
	}
	records, err := s.store.QueryAttendance(ctx, ledger.AttendanceQuery{On: &date})
	if err != nil {
		return nil, fmt.Errorf("attendance for %s: %w", date, err)
	}
	return records, nil
}

// SummarizeDay counts present and absent marks for date. A date with no
// records yields an all-zero summary.
func (s *AttendanceService) SummarizeDay(ctx context.Context, date core.Date) (core.DaySummary, error) {
	records, err := s.AttendanceForDate(ctx, date)
	if err != nil {
		return core.DaySummary{}, err
	}
	return summarizeDay(date, records), nil
}

// SummarizeToday summarizes the current UTC date.
func (s *AttendanceService) SummarizeToday(ctx context.Context) (core.DaySummary, error) {
	return s.SummarizeDay(ctx, core.DateOf(s.now().UTC()))
}

// SummarizeMonth aggregates one employee's records over the half-open month range.
func (s *AttendanceService) SummarizeMonth(ctx context.Context, employeeID string, month, year int) (core.AttendanceSummary, error) {
	if employeeID == "" {
		return core.AttendanceSummary{}, core.Invalid("summarize attendance", core.ErrEmptyEmployeeID)
	}
	w, err := core.NewMonthWindow(month, year)
	if err != nil {
		return core.AttendanceSummary{}, err
	}
	r := w.AttendanceRange()
	records, err := s.store.QueryAttendance(ctx, ledger.AttendanceQuery{EmployeeID: employeeID, Range: &r})
	if err != nil {
		return core.AttendanceSummary{}, fmt.Errorf("attendance of %s for %s: %w", employeeID, w, err)
	}
	return core.SummarizeAttendance(records), nil
}

func summarizeDay(date core.Date, records []core.AttendanceRecord) core.DaySummary {
	s := core.SummarizeAttendance(records)
	return core.DaySummary{
		Date:         date,
		PresentCount: s.PresentDays,
		AbsentCount:  s.AbsentDays,
		TotalMarked:  s.TotalRecords,
	}
}
