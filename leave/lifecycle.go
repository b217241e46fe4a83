/*
lifecycle.go - Leave record state machine

PURPOSE:
  Pure transition logic for leave records:

      Draft     -> Pending, Cancelled
      Pending   -> Approved, Rejected, Cancelled
      Approved  -> Cancelled
      Rejected  -> Pending   (edit-and-resubmit)
      Cancelled -> Pending   (edit-and-resubmit)

  Terminal Approved/Rejected records never re-open; resubmission is
  modeled as a fresh Pending transition with lifecycle timestamps reset.

FIELD VALIDATION:
  Drafts carry no obligations - they may lack dates entirely. The moment
  a record leaves Draft (or is created directly as Pending/Approved) it
  needs the minimal field set: person identity, leave category, both
  dates, and a reason. Validation reports every missing field at once.

TIMESTAMPS:
  SubmittedAt:    stamped on first entry into Pending.
  ApprovedAt:     stamped on first entry into Approved.
  RegisteredDate: human-readable rendering of ApprovedAt, computed once.
  Demotion out of Approved clears both approval stamps so a later
  re-approval restamps them.

SEE ALSO:
  - service.go: Triggers period recomputation around transitions
*/
package leave

import "time"

// registeredDateLayout renders the approval date for human consumption.
const registeredDateLayout = "January 2, 2006"

// allowedTransitions encodes the state machine edges.
var allowedTransitions = map[Status][]Status{
	StatusDraft:     {StatusPending, StatusCancelled},
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCancelled},
	StatusRejected:  {StatusPending},
	StatusCancelled: {StatusPending},
}

// Controller is the pure lifecycle state machine. It mutates records in
// memory only; persistence and recomputation belong to the Service.
type Controller struct{}

// CanTransition reports whether the state machine allows from -> to.
func (c *Controller) CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateSubmittable checks the minimal field set required outside Draft.
// Every missing field is reported, not just the first.
func (c *Controller) ValidateSubmittable(rec *Record) error {
	var ve ValidationError
	if rec.PersonID == "" {
		ve.add("person_id", "person identity is required")
	}
	if rec.Category == "" {
		ve.add("category", "leave category is required")
	}
	if rec.StartDate.IsZero() {
		ve.add("start_date", "start date is required")
	}
	if rec.EndDate.IsZero() {
		ve.add("end_date", "end date is required")
	}
	if rec.Reason == "" {
		ve.add("reason", "reason is required")
	}
	return ve.orNil()
}

// Create initializes a new record in the given status. Draft needs no
// fields; direct creation as Pending or Approved requires the full
// submittable set and stamps the matching timestamps.
func (c *Controller) Create(rec *Record, status Status, now time.Time) error {
	switch status {
	case StatusDraft:
		// Drafts are free-form.
	case StatusPending:
		if err := c.ValidateSubmittable(rec); err != nil {
			return err
		}
		c.stampSubmitted(rec, now)
	case StatusApproved:
		if err := c.ValidateSubmittable(rec); err != nil {
			return err
		}
		c.stampApproved(rec, now)
	default:
		return &TransitionError{From: "", To: status}
	}

	rec.Status = status
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

// Transition moves a record to a new status, validating fields and
// stamping timestamps. The record is mutated only on success.
func (c *Controller) Transition(rec *Record, to Status, now time.Time) error {
	from := rec.Status
	if !c.CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}

	switch to {
	case StatusPending:
		if err := c.ValidateSubmittable(rec); err != nil {
			return err
		}
		if from == StatusRejected || from == StatusCancelled {
			// Resubmission is a fresh submission: timestamps reset.
			rec.SubmittedAt = nil
			rec.ApprovedAt = nil
			rec.RegisteredDate = ""
		}
		c.stampSubmitted(rec, now)

	case StatusApproved:
		if err := c.ValidateSubmittable(rec); err != nil {
			return err
		}
		c.stampApproved(rec, now)
	}

	if from == StatusApproved && to != StatusApproved {
		// Demotion: clear approval stamps so re-approval restamps.
		rec.ApprovedAt = nil
		rec.RegisteredDate = ""
	}

	rec.Status = to
	rec.UpdatedAt = now
	return nil
}

// stampSubmitted sets SubmittedAt on first entry into Pending only.
func (c *Controller) stampSubmitted(rec *Record, now time.Time) {
	if rec.SubmittedAt == nil {
		t := now
		rec.SubmittedAt = &t
	}
}

// stampApproved sets ApprovedAt and RegisteredDate on first entry only.
func (c *Controller) stampApproved(rec *Record, now time.Time) {
	if rec.ApprovedAt == nil {
		t := now
		rec.ApprovedAt = &t
	}
	if rec.RegisteredDate == "" {
		rec.RegisteredDate = rec.ApprovedAt.Format(registeredDateLayout)
	}
}
