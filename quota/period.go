package quota

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - One instance of an accounting period
// =============================================================================

// Period is the accounting window a record's quota is charged against.
// Two dates share a period exactly when they produce the same Key; the
// Contains predicate is derived from the same calendar-month arithmetic,
// so the two views can never disagree.
type Period struct {
	QuotaType QuotaType
	Start     Date
	End       Date
	Key       string
}

// Contains is the membership predicate for the period.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

func (p Period) String() string { return p.Key }

// =============================================================================
// PERIOD DERIVATION
// =============================================================================

// PeriodKey returns the canonical identifier of the period containing d:
// "2025" (yearly), "2025-Q2" (quarterly), "2025-05" (monthly).
func PeriodKey(qt QuotaType, d Date) string {
	return PeriodOf(qt, d).Key
}

// PeriodOf returns the period containing d. Boundaries come from calendar
// month arithmetic only; the day-of-month of d never shifts them.
func PeriodOf(qt QuotaType, d Date) Period {
	year := d.Year()
	switch qt {
	case QuotaMonthly:
		start := NewDate(year, d.Month(), 1)
		return Period{
			QuotaType: qt,
			Start:     start,
			End:       start.AddMonths(1).AddDays(-1),
			Key:       fmt.Sprintf("%04d-%02d", year, int(d.Month())),
		}

	case QuotaQuarterly:
		q := (int(d.Month()) - 1) / 3
		start := NewDate(year, time.Month(q*3+1), 1)
		return Period{
			QuotaType: qt,
			Start:     start,
			End:       start.AddMonths(3).AddDays(-1),
			Key:       fmt.Sprintf("%04d-Q%d", year, q+1),
		}

	default: // QuotaYearly
		return Period{
			QuotaType: QuotaYearly,
			Start:     NewDate(year, time.January, 1),
			End:       NewDate(year, time.December, 31),
			Key:       fmt.Sprintf("%04d", year),
		}
	}
}
