package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"payroll/internal/core"
)

type recordingExporter struct {
	windows []core.MonthWindow
	err     error
}

func (r *recordingExporter) ExportMonth(_ context.Context, w core.MonthWindow) (string, error) {
	r.windows = append(r.windows, w)
	return "ref", r.err
}

func TestRunOnceExportsPreviousMonth(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want core.MonthWindow
	}{
		{"mid year", time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC), core.MonthWindow{Year: 2025, Month: 4}},
		{"january rolls back", time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC), core.MonthWindow{Year: 2025, Month: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := &recordingExporter{}
			s := NewScheduler("0 6 1 * *", exp)
			s.now = func() time.Time { return tt.now }

			if _, err := s.RunOnce(context.Background()); err != nil {
				t.Fatal(err)
			}
			if len(exp.windows) != 1 || exp.windows[0] != tt.want {
				t.Errorf("exported %v, want %v", exp.windows, tt.want)
			}
		})
	}
}

func TestRunOncePropagatesError(t *testing.T) {
	s := NewScheduler("0 6 1 * *", &recordingExporter{err: errors.New("sheets down")})
	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler("not a schedule", &recordingExporter{})
	if err := s.Start(); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestStartSchedulesNextRun(t *testing.T) {
	s := NewScheduler("0 6 1 * *", &recordingExporter{})
	if !s.Next().IsZero() {
		t.Fatal("no run before Start")
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	next := s.Next()
	if next.Day() != 1 || next.Hour() != 6 || next.Minute() != 0 {
		t.Errorf("next run = %v", next)
	}
}
