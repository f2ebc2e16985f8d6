// Package memory keeps exported reports in process; used when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"payroll/internal/core"
	ports "payroll/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	prefix string
	tabs   map[string][][]string
	err    error
}

var _ ports.ReportWriter = (*Writer)(nil)

func New(prefix string) *Writer {
	if prefix == "" {
		prefix = "Salary"
	}
	return &Writer{prefix: prefix, tabs: map[string][][]string{}}
}

// WriteMonthlyReport replaces the tab of the report's month.
func (w *Writer) WriteMonthlyReport(_ context.Context, report core.MonthlyReport) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	title := ports.SheetTitle(w.prefix, report.Window)
	rows := ports.ReportRows(report)
	w.tabs[title] = rows
	return fmt.Sprintf("mem:%s!A1:K%d", title, len(rows)), nil
}

// Tab returns the rows last written to title.
func (w *Writer) Tab(title string) ([][]string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[title]
	return slices.Clone(rows), ok
}

// FailWith makes every write return err; nil restores normal behavior.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}
