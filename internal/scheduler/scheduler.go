// Package scheduler exports the previous month's salary report on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"payroll/internal/core"
)

const defaultRunTimeout = 5 * time.Minute

// Exporter writes out the report of one month.
type Exporter interface {
	ExportMonth(ctx context.Context, w core.MonthWindow) (string, error)
}

// Scheduler manages the monthly export job.
type Scheduler struct {
	cron     *cron.Cron
	exporter Exporter
	spec     string
	timeout  time.Duration
	now      func() time.Time
}

// NewScheduler parses schedules in UTC with the standard five-field parser.
func NewScheduler(spec string, exporter Exporter) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		exporter: exporter,
		spec:     spec,
		timeout:  defaultRunTimeout,
		now:      time.Now,
	}
}

// Start registers the export job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("schedule report export %q: %w", s.spec, err)
	}
	s.cron.Start()
	slog.Info("Report scheduler started", "schedule", s.spec)
	return nil
}

// Stop stops the cron loop; the returned context is done once a running job finishes.
func (s *Scheduler) Stop() context.Context {
	slog.Info("Stopping report scheduler")
	return s.cron.Stop()
}

// Next reports when the job fires next, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce exports the month before the current one.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	w := core.WindowOf(s.now().UTC()).Previous()
	slog.InfoContext(ctx, "Running scheduled report export", "year", w.Year, "month", w.Month)
	return s.exporter.ExportMonth(ctx, w)
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ref, err := s.RunOnce(ctx)
	if err != nil {
		slog.Error("Scheduled report export failed", "error", err)
		return
	}
	slog.Info("Scheduled report export completed", "range", ref)
}
