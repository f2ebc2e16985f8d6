package worker

import (
	"context"
	"fmt"
	"log/slog"

	"payroll/internal/amqp"
	"payroll/internal/core"
	"payroll/internal/sheets"
)

// ReportSource computes the salary report of one month.
type ReportSource interface {
	MonthlyReport(ctx context.Context, month, year int) (core.MonthlyReport, error)
}

// ReportWorker exports monthly salary reports to the report writer.
type ReportWorker struct {
	reports ReportSource
	writer  sheets.ReportWriter
}

func NewReportWorker(reports ReportSource, writer sheets.ReportWriter) *ReportWorker {
	return &ReportWorker{reports: reports, writer: writer}
}

// HandleReportRequest processes a single report request from AMQP. A request
// for an invalid month is dropped; any other failure is returned so the
// message is requeued.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	slog.InfoContext(ctx, "Processing report request",
		"request_id", msg.RequestID,
		"year", msg.Year,
		"month", msg.Month)

	win, err := msg.Window()
	if err != nil {
		slog.WarnContext(ctx, "Dropping report request with invalid month",
			"request_id", msg.RequestID,
			"error", err)
		return nil
	}

	ref, err := w.ExportMonth(ctx, win)
	if err != nil {
		if core.IsKind(err, core.KindValidation) {
			slog.WarnContext(ctx, "Dropping invalid report request", "request_id", msg.RequestID, "error", err)
			return nil
		}
		return fmt.Errorf("report request %s: %w", msg.RequestID, err)
	}

	slog.InfoContext(ctx, "Report request completed",
		"request_id", msg.RequestID,
		"range", ref,
		"requested_at", msg.Timestamp)
	return nil
}

// ExportMonth computes the report of win and writes it out.
func (w *ReportWorker) ExportMonth(ctx context.Context, win core.MonthWindow) (string, error) {
	report, err := w.reports.MonthlyReport(ctx, win.Month, win.Year)
	if err != nil {
		return "", fmt.Errorf("compute report for %s: %w", win, err)
	}

	ref, err := w.writer.WriteMonthlyReport(ctx, report)
	if err != nil {
		return "", fmt.Errorf("write report for %s: %w", win, err)
	}

	slog.InfoContext(ctx, "Salary report exported",
		"year", win.Year,
		"month", win.Month,
		"rows", len(report.Rows),
		"failed_rows", report.FailedRows,
		"total_payable_cents", report.TotalPayable.Cents)
	return ref, nil
}
