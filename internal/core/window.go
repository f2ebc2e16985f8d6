package core

import "time"

// MonthWindow is one calendar month used to scope ledger aggregation.
type MonthWindow struct {
	Year  int
	Month int // 1-12
}

// DateRange is a half-open range of days: Start <= d < End.
type DateRange struct {
	Start Date
	End   Date
}

// NewMonthWindow validates month and returns the window.
func NewMonthWindow(month, year int) (MonthWindow, error) {
	w := MonthWindow{Year: year, Month: month}
	if err := w.Validate(); err != nil {
		return MonthWindow{}, err
	}
	return w, nil
}

// WindowOf returns the month containing t.
func WindowOf(t time.Time) MonthWindow {
	return MonthWindow{Year: t.Year(), Month: int(t.Month())}
}

func (w MonthWindow) Validate() error {
	if w.Month < 1 || w.Month > 12 {
		return Invalid("month window", ErrInvalidMonth)
	}
	if w.Year < 1 || w.Year > 9999 {
		return Validation("month window", "invalid year %d", w.Year)
	}
	return nil
}

// Previous returns the month before w, rolling January back to December.
func (w MonthWindow) Previous() MonthWindow {
	if w.Month == 1 {
		return MonthWindow{Year: w.Year - 1, Month: 12}
	}
	return MonthWindow{Year: w.Year, Month: w.Month - 1}
}

// AttendanceRange is [first-of-month, first-of-next-month). December rolls
// into January of the following year.
func (w MonthWindow) AttendanceRange() DateRange {
	endYear, endMonth := w.Year, w.Month+1
	if w.Month == 12 {
		endYear, endMonth = w.Year+1, 1
	}
	return DateRange{
		Start: NewDate(w.Year, w.Month, 1),
		End:   NewDate(endYear, endMonth, 1),
	}
}

// TransactionRange is the closed timestamp range from day 1 at 00:00:00 to the
// last day at 23:59:59. Both ends are inclusive and a timestamp with a
// fractional second after 23:59:59 falls outside.
func (w MonthWindow) TransactionRange() (from, to time.Time) {
	from = time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, time.UTC)
	// day 0 of the next month is the last day of this one
	to = time.Date(w.Year, time.Month(w.Month)+1, 0, 23, 59, 59, 0, time.UTC)
	return from, to
}

// Contains reports whether d falls inside the half-open range.
func (r DateRange) Contains(d Date) bool {
	return !d.Time.Before(r.Start.Time) && d.Time.Before(r.End.Time)
}

func (w MonthWindow) String() string {
	return time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}
