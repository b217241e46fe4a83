package quota

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Pure calendar value (no time-of-day, no zone)
// =============================================================================

// Date is a calendar date at day granularity, normalized to UTC midnight.
// Dates are always constructed from y/m/d triples or the plain "2006-01-02"
// layout, never from zoned timestamps. Parsing a zoned timestamp and
// truncating it can shift the day near midnight boundaries; this type makes
// that bug unrepresentable.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

const dateLayout = "2006-01-02"

// ParseDate parses a plain calendar date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Comparison
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }
func (d Date) IsZero() bool       { return d.Time.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }

func (d Date) String() string { return d.Time.Format(dateLayout) }

// =============================================================================
// WORKING DAYS - Tenant-configurable working-weekday set
// =============================================================================

// WorkingDays is the set of weekdays that count as working days.
type WorkingDays struct {
	days [7]bool
}

// NewWorkingDays builds the set from weekday values. Values outside
// Sunday..Saturday are ignored: weekday sets reach this constructor from
// client JSON and stored rows, and one bad value must degrade the set,
// never crash a sweep.
func NewWorkingDays(ds ...time.Weekday) WorkingDays {
	var w WorkingDays
	for _, d := range ds {
		if d < time.Sunday || d > time.Saturday {
			continue
		}
		w.days[d] = true
	}
	return w
}

func (w WorkingDays) Contains(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday && w.days[d]
}

func (w WorkingDays) IsEmpty() bool {
	for _, set := range w.days {
		if set {
			return false
		}
	}
	return true
}

// List returns the member weekdays in Sunday-first order.
func (w WorkingDays) List() []time.Weekday {
	var out []time.Weekday
	for i, set := range w.days {
		if set {
			out = append(out, time.Weekday(i))
		}
	}
	return out
}

// MondayToFriday is the conventional default working week.
func MondayToFriday() WorkingDays {
	return NewWorkingDays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
}

// =============================================================================
// WORKING DAY COUNT
// =============================================================================

// WorkingDayCount counts the calendar days in [start, end] inclusive whose
// weekday is in the working set. A reversed range counts zero days rather
// than failing: historical data contains such anomalies and a single bad
// record must not abort a batch sweep.
func WorkingDayCount(start, end Date, wd WorkingDays) int {
	if end.Before(start) {
		return 0
	}
	count := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if wd.Contains(d.Weekday()) {
			count++
		}
	}
	return count
}
