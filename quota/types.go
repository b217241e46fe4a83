/*
Package quota provides the core leave quota allocation and recomputation engine.

PURPOSE:
  This package contains the pure computation at the heart of leave
  bookkeeping: counting working days between two calendar dates, resolving
  a person's quota from a free-text job level, deriving the accounting
  period a record belongs to, and recomputing running balances for all
  records of one person in one period.

KEY CONCEPTS IN THIS FILE (types.go):
  - Days: An exact day quantity (backed by decimal, never floating point)
  - QuotaType: The accounting period granularity (monthly/quarterly/yearly)
  - RecordID: Type-safe record identifier
  - DerivedFields: The engine-owned derived state of one record

DESIGN PRINCIPLES:
  1. Purity: No I/O, no clocks, no globals. Callers load data, the engine
     computes, callers persist.
  2. Precision: Uses decimal.Decimal so repeated sweeps are bit-identical.
  3. Degradation: Bad input (reversed date ranges, unknown job levels)
     degrades the computation, it never aborts a sweep.

USAGE:
  results := quota.Recompute(quota.RecomputeInput{
      Records:  records,
      Policy:   policy,
      JobLevel: "Senior Coach",
  })

SEE ALSO:
  - calendar.go: Working-day counting over pure calendar dates
  - policy.go: Quota policy and job-level bucket resolution
  - period.go: Accounting period keys and membership predicates
  - recompute.go: The balance sweep and write-time preview
*/
package quota

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DAYS - Exact day quantity
// =============================================================================

// Days is a count of leave days. All engine arithmetic flows through this
// type; values derived from working-day counts are whole numbers, but the
// representation tolerates fractional allocations (half-day policies).
type Days struct {
	Value decimal.Decimal
}

func NewDays(n int) Days {
	return Days{Value: decimal.NewFromInt(int64(n))}
}

// ParseDays parses a stored decimal string. Invalid input yields zero.
func ParseDays(s string) Days {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Days{Value: decimal.Zero}
	}
	return Days{Value: d}
}

func (d Days) Add(o Days) Days         { return Days{Value: d.Value.Add(o.Value)} }
func (d Days) Sub(o Days) Days         { return Days{Value: d.Value.Sub(o.Value)} }
func (d Days) IsZero() bool            { return d.Value.IsZero() }
func (d Days) IsNegative() bool        { return d.Value.IsNegative() }
func (d Days) Equal(o Days) bool       { return d.Value.Equal(o.Value) }
func (d Days) GreaterThan(o Days) bool { return d.Value.GreaterThan(o.Value) }
func (d Days) LessThan(o Days) bool    { return d.Value.LessThan(o.Value) }
func (d Days) String() string          { return d.Value.String() }

// FloorZero clamps negative values to zero. Balances never go below zero;
// overconsumption shows up as limitReached instead.
func (d Days) FloorZero() Days {
	if d.IsNegative() {
		return Days{Value: decimal.Zero}
	}
	return d
}

// =============================================================================
// QUOTA TYPE - Accounting period granularity
// =============================================================================

type QuotaType string

const (
	QuotaMonthly   QuotaType = "monthly"
	QuotaQuarterly QuotaType = "quarterly"
	QuotaYearly    QuotaType = "yearly"
)

// ParseQuotaType normalizes a stored quota type. Unknown values fall back
// to yearly, the widest period.
func ParseQuotaType(s string) QuotaType {
	switch QuotaType(s) {
	case QuotaMonthly, QuotaQuarterly, QuotaYearly:
		return QuotaType(s)
	default:
		return QuotaYearly
	}
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RecordID string

// =============================================================================
// DERIVED FIELDS - Engine-owned state of one record
// =============================================================================

// DerivedFields are the values the engine derives for a record. The engine
// is the single writer of these; it never reads them back as computation
// input, only to detect drift against a stale persisted copy.
type DerivedFields struct {
	Days            Days
	AllocationTotal Days
	AllocationUsed  Days
	Balance         Days
	LimitReached    bool
}

// Equal reports whether two derived snapshots match exactly.
func (f DerivedFields) Equal(o DerivedFields) bool {
	return f.Days.Equal(o.Days) &&
		f.AllocationTotal.Equal(o.AllocationTotal) &&
		f.AllocationUsed.Equal(o.AllocationUsed) &&
		f.Balance.Equal(o.Balance) &&
		f.LimitReached == o.LimitReached
}
