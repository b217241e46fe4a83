/*
recompute.go - Balance recomputation sweep and write-time preview

PURPOSE:
  Derives, for every leave record of one person in one accounting period,
  how many working days it consumes, the running total consumed so far,
  the remaining balance, and whether the quota is exhausted. There is no
  ledger table: derived state is recomputed from the raw record set on
  demand, and stale persisted copies are flagged for the caller to heal.

TWO ENTRY POINTS, ONE CORE:
  Recompute: the read-time sweep. Takes everything visible for the
  person+period and recomputes the whole chain. Safe to re-run
  speculatively on every read: with an unchanged record set the output is
  bit-identical (all arithmetic is exact decimal over integer day counts).

  Preview: the write-time variant. Evaluates a new or edited record
  against the others BEFORE it is persisted. The candidate is excluded
  from "already used" by identity - an in-place date edit must not count
  its own old copy against itself.

WHAT COUNTS:
  Only Approved records consume quota. Draft and Pending never do.
  Records outside the approved set keep their persisted usage fields
  untouched in the result - moving a record out of the approved set
  triggers a re-sweep of the rest of the period, never a silent wipe of
  historical data.

SELF-HEALING:
  The freshly computed value is always authoritative. Each result row
  carries Stale=true when the persisted copy differs; the caller decides
  whether and when to write it back. Persisted derived fields are never
  inputs to the computation.

SEE ALSO:
  - policy.go: Allocation resolution feeding AllocationTotal
  - calendar.go: Working-day counting feeding Days
*/
package quota

import "sort"

// =============================================================================
// INPUT TYPES
// =============================================================================

// QuotaRecord is the engine's view of one leave record. Callers map their
// domain records into this shape; the engine reads nothing else.
type QuotaRecord struct {
	ID  RecordID
	Seq int64 // insertion order, tie-break for equal start dates

	Start Date
	End   Date

	// Counted is true when the record's status consumes quota (Approved).
	Counted bool

	// Persisted is the derived snapshot currently stored for the record.
	// Used only for drift detection, never as computation input.
	Persisted DerivedFields
}

// RecomputeInput is a snapshot of one person's records in one period.
type RecomputeInput struct {
	Records  []QuotaRecord
	Policy   Policy
	JobLevel string
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// RecordResult is the recomputed state of one record. Results are returned
// in the same order as the input records.
type RecordResult struct {
	ID RecordID

	// Counted mirrors the input: whether this record consumed quota.
	Counted bool

	// Enforced is false when the job level resolved to no allocation
	// bucket. Days and usage are still tracked, but LimitReached can
	// never become true.
	Enforced bool

	Derived DerivedFields

	// Stale is true when Derived differs from the persisted snapshot.
	Stale bool
}

// =============================================================================
// READ-TIME SWEEP
// =============================================================================

// Recompute runs the read-time sweep over one person's period records.
func Recompute(in RecomputeInput) []RecordResult {
	total, enforced := in.Policy.ResolveAllocation(in.JobLevel)

	// Order the counted records chronologically. Equal start dates fall
	// back to insertion order so repeated sweeps stay reproducible.
	counted := make([]int, 0, len(in.Records))
	for i, rec := range in.Records {
		if rec.Counted {
			counted = append(counted, i)
		}
	}
	sort.SliceStable(counted, func(a, b int) bool {
		ra, rb := in.Records[counted[a]], in.Records[counted[b]]
		if !ra.Start.Equal(rb.Start) {
			return ra.Start.Before(rb.Start)
		}
		if ra.Seq != rb.Seq {
			return ra.Seq < rb.Seq
		}
		return ra.ID < rb.ID
	})

	results := make([]RecordResult, len(in.Records))

	// Accumulate consumption in chronological order.
	running := NewDays(0)
	for _, i := range counted {
		rec := in.Records[i]
		days := NewDays(WorkingDayCount(rec.Start, rec.End, in.Policy.WorkingDays))
		running = running.Add(days)

		derived := DerivedFields{
			Days:           days,
			AllocationUsed: running,
		}
		if enforced {
			derived.AllocationTotal = total
			derived.Balance = total.Sub(running).FloorZero()
			derived.LimitReached = derived.Balance.IsZero()
		}

		results[i] = RecordResult{
			ID:       rec.ID,
			Counted:  true,
			Enforced: enforced,
			Derived:  derived,
			Stale:    !derived.Equal(rec.Persisted),
		}
	}

	// Non-counted records keep their persisted usage fields. Only the day
	// count is refreshed, and only when both dates are present.
	for i, rec := range in.Records {
		if rec.Counted {
			continue
		}
		derived := rec.Persisted
		if !rec.Start.IsZero() && !rec.End.IsZero() {
			derived.Days = NewDays(WorkingDayCount(rec.Start, rec.End, in.Policy.WorkingDays))
		}
		results[i] = RecordResult{
			ID:       rec.ID,
			Counted:  false,
			Enforced: enforced,
			Derived:  derived,
			Stale:    !derived.Equal(rec.Persisted),
		}
	}

	return results
}

// =============================================================================
// WRITE-TIME PREVIEW
// =============================================================================

// PreviewInput evaluates one proposed record against the others in its
// period. Records may include an older copy of the candidate itself; it is
// excluded by identity.
type PreviewInput struct {
	Candidate QuotaRecord
	Records   []QuotaRecord
	Policy    Policy
	JobLevel  string
}

// Preview is the "you have X days remaining" answer shown before commit.
type Preview struct {
	// PeriodKey identifies the accounting period the candidate lands in.
	PeriodKey string

	// PriorUsed is what the rest of the approved set already consumes.
	PriorUsed Days

	// Days is the working-day cost of the candidate itself.
	Days Days

	// UsedAfter = PriorUsed + Days: consumption if the candidate commits.
	UsedAfter Days

	AllocationTotal Days
	Remaining       Days
	Enforced        bool
	LimitReached    bool
}

// PreviewBalance computes the write-time preview for a new or edited record.
func PreviewBalance(in PreviewInput) Preview {
	total, enforced := in.Policy.ResolveAllocation(in.JobLevel)

	prior := NewDays(0)
	for _, rec := range in.Records {
		if !rec.Counted || rec.ID == in.Candidate.ID {
			continue
		}
		prior = prior.Add(NewDays(WorkingDayCount(rec.Start, rec.End, in.Policy.WorkingDays)))
	}

	days := NewDays(WorkingDayCount(in.Candidate.Start, in.Candidate.End, in.Policy.WorkingDays))
	after := prior.Add(days)

	p := Preview{
		PeriodKey: PeriodKey(in.Policy.QuotaType, in.Candidate.Start),
		PriorUsed: prior,
		Days:      days,
		UsedAfter: after,
		Enforced:  enforced,
	}
	if enforced {
		p.AllocationTotal = total
		p.Remaining = total.Sub(after).FloorZero()
		p.LimitReached = p.Remaining.IsZero()
	}
	return p
}
