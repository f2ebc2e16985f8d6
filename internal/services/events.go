package services

import (
	"context"

	"payroll/internal/core"
)

// EventPublisher announces ledger changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishAttendanceSaved(ctx context.Context, date core.Date, summary core.DaySummary) error
	PublishTransactionRecorded(ctx context.Context, tx core.Transaction) error
}
