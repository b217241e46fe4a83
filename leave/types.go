/*
Package leave implements the leave record lifecycle on top of the quota engine.

PURPOSE:
  Governs the Draft -> Submitted -> Approved/Rejected/Cancelled state
  machine for leave records, decides which states count against quota,
  enforces required fields before a record leaves Draft, and stamps
  lifecycle timestamps. The Service type orchestrates store loads,
  transitions, and period recomputation; the Controller is the pure state
  machine underneath it.

OWNERSHIP:
  The engine owns the derived fields of a record (Days, AllocationTotal,
  AllocationUsed, Balance, LimitReached) - it is their single writer. All
  other fields belong to the caller and are only read here.

SEE ALSO:
  - lifecycle.go: State machine and transition validation
  - service.go: Orchestration over stores and the quota engine
  - store.go: Persistence interfaces (external collaborators)
*/
package leave

import (
	"time"

	"github.com/warp/leave-engine/quota"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string

// =============================================================================
// STATUS - Lifecycle states
// =============================================================================

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a stored status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// CountsAgainstQuota reports whether records in this status consume quota.
// Only approved leave does; Draft and Pending never hold balance.
func (s Status) CountsAgainstQuota() bool { return s == StatusApproved }

// =============================================================================
// LEAVE RECORD
// =============================================================================

// Record is one leave entry for one person. StartDate/EndDate are zero for
// date-less drafts. JobLevel is a denormalized snapshot used when the live
// person record does not resolve.
type Record struct {
	ID  quota.RecordID
	Seq int64 // insertion order, assigned by the store

	PersonID   PersonID
	PersonName string
	JobLevel   string

	Category string
	Reason   string

	StartDate quota.Date
	EndDate   quota.Date

	Status Status

	// Derived fields - engine-owned, single writer is the recompute sweep.
	Days            quota.Days
	AllocationTotal quota.Days
	AllocationUsed  quota.Days
	Balance         quota.Days
	LimitReached    bool

	// Lifecycle timestamps - set once, never overwritten while present.
	SubmittedAt    *time.Time
	ApprovedAt     *time.Time
	RegisteredDate string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Derived bundles the engine-owned fields for comparison and persistence.
func (r *Record) Derived() quota.DerivedFields {
	return quota.DerivedFields{
		Days:            r.Days,
		AllocationTotal: r.AllocationTotal,
		AllocationUsed:  r.AllocationUsed,
		Balance:         r.Balance,
		LimitReached:    r.LimitReached,
	}
}

// SetDerived applies a recomputed snapshot back onto the record.
func (r *Record) SetDerived(f quota.DerivedFields) {
	r.Days = f.Days
	r.AllocationTotal = f.AllocationTotal
	r.AllocationUsed = f.AllocationUsed
	r.Balance = f.Balance
	r.LimitReached = f.LimitReached
}

// QuotaRecord maps the record into the engine's input shape.
func (r *Record) QuotaRecord() quota.QuotaRecord {
	return quota.QuotaRecord{
		ID:        r.ID,
		Seq:       r.Seq,
		Start:     r.StartDate,
		End:       r.EndDate,
		Counted:   r.Status.CountsAgainstQuota(),
		Persisted: r.Derived(),
	}
}

// HasDates reports whether both calendar dates are present.
func (r *Record) HasDates() bool {
	return !r.StartDate.IsZero() && !r.EndDate.IsZero()
}
