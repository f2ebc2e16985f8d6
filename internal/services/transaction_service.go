package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"payroll/internal/core"
	"payroll/internal/ledger"
)

// TransactionService records salary advances and bakery purchases.
type TransactionService struct {
	store  ledger.TransactionStore
	events EventPublisher
	now    func() time.Time
}

func NewTransactionService(store ledger.TransactionStore, events EventPublisher) *TransactionService {
	return &TransactionService{store: store, events: events, now: time.Now}
}

// RecordTransaction appends tx, stamping the current time when none is given.
func (s *TransactionService) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, core.Invalid("record transaction", err)
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = s.now()
	}

	saved, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"transaction_id", saved.ID,
		"employee_id", saved.EmployeeID,
		"type", saved.Type,
		"amount_cents", saved.Amount.Cents)

	if s.events != nil {
		if err := s.events.PublishTransactionRecorded(ctx, saved); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction event", "transaction_id", saved.ID, "error", err)
		}
	}
	return saved, nil
}

// RecentTransactions lists the newest transactions by creation time. A zero
// limit falls back to ledger.DefaultRecentLimit.
func (s *TransactionService) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit < 0 {
		return nil, core.Invalid("recent transactions", core.ErrNegativeLimit)
	}
	if limit == 0 {
		limit = ledger.DefaultRecentLimit
	}
	txs, err := s.store.QueryTransactions(ctx, ledger.TransactionQuery{Limit: limit, NewestFirst: true})
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return txs, nil
}

// SummarizeMonth sums one employee's transactions by type over the closed
// timestamp range of the month.
func (s *TransactionService) SummarizeMonth(ctx context.Context, employeeID string, month, year int) (core.TransactionSummary, error) {
	if employeeID == "" {
		return core.TransactionSummary{}, core.Invalid("summarize transactions", core.ErrEmptyEmployeeID)
	}
	w, err := core.NewMonthWindow(month, year)
	if err != nil {
		return core.TransactionSummary{}, err
	}
	from, to := w.TransactionRange()
	txs, err := s.store.QueryTransactions(ctx, ledger.TransactionQuery{EmployeeID: employeeID, From: &from, To: &to})
	if err != nil {
		return core.TransactionSummary{}, fmt.Errorf("transactions of %s for %s: %w", employeeID, w, err)
	}
	return core.SummarizeTransactions(txs), nil
}
