/*
service.go - Lifecycle orchestration over stores and the quota engine

PURPOSE:
  The Service is the single entry point for mutations and sweeps. Every
  route that used to recompute and fire off its own persistence calls ad
  hoc goes through here instead:

  1. Mutation enters (create / update / transition / delete).
  2. The Controller validates and stamps the lifecycle change.
  3. The affected accounting period(s) are recomputed - when a date edit
     moves a record across a period boundary, BOTH the old and the new
     period are swept (the old loses a consumer, the new gains one).
  4. Rows the engine flags as stale are written back. Write-back failure
     is logged and dropped, never surfaced as a mutation failure: the
     next read-time sweep self-heals.

CONCURRENCY:
  The service holds no mutable state beyond its collaborators. Two
  concurrent writers on the same person+period race on the persisted
  snapshot; last recompute wins and the next sweep corrects it. Raw
  records never race inside the engine - they are the store's problem.

SEE ALSO:
  - quota/recompute.go: The computation underneath
  - lifecycle.go: The state machine
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/quota"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service coordinates lifecycle transitions with quota recomputation.
type Service struct {
	Records   RecordStore
	Policies  PolicyStore
	Lifecycle *Controller

	// Log receives non-fatal events such as failed derived write-backs.
	Log *slog.Logger

	// Now is the clock used for lifecycle stamps. Defaults to time.Now.
	Now func() time.Time
}

func NewService(records RecordStore, policies PolicyStore) *Service {
	return &Service{
		Records:   records,
		Policies:  policies,
		Lifecycle: &Controller{},
		Log:       slog.Default(),
		Now:       time.Now,
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateInput carries the caller-owned fields of a new record.
type CreateInput struct {
	PersonID   PersonID
	PersonName string
	JobLevel   string
	Category   string
	Reason     string
	StartDate  quota.Date
	EndDate    quota.Date
	Status     Status // Draft, Pending, or Approved
}

// Create validates, persists, and recomputes a new leave record.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Record, error) {
	rec := &Record{
		ID:         quota.RecordID(uuid.NewString()),
		PersonID:   in.PersonID,
		PersonName: in.PersonName,
		JobLevel:   in.JobLevel,
		Category:   in.Category,
		Reason:     in.Reason,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
	}

	if err := s.Lifecycle.Create(rec, in.Status, s.Now()); err != nil {
		return nil, err
	}

	if err := s.Records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create leave record: %w", err)
	}

	if err := s.recomputeAround(ctx, rec, nil); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateInput carries editable caller-owned fields. Nil means unchanged.
type UpdateInput struct {
	PersonName *string
	JobLevel   *string
	Category   *string
	Reason     *string
	StartDate  *quota.Date
	EndDate    *quota.Date
}

// Update edits a record's fields. Date edits on a counted record sweep
// both the old and the new period.
func (s *Service) Update(ctx context.Context, id quota.RecordID, in UpdateInput) (*Record, error) {
	rec, err := s.Records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStart := rec.StartDate

	if in.PersonName != nil {
		rec.PersonName = *in.PersonName
	}
	if in.JobLevel != nil {
		rec.JobLevel = *in.JobLevel
	}
	if in.Category != nil {
		rec.Category = *in.Category
	}
	if in.Reason != nil {
		rec.Reason = *in.Reason
	}
	if in.StartDate != nil {
		rec.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		rec.EndDate = *in.EndDate
	}

	// Outside Draft the minimal field set must survive the edit.
	if rec.Status != StatusDraft {
		if err := s.Lifecycle.ValidateSubmittable(rec); err != nil {
			return nil, err
		}
	}
	rec.UpdatedAt = s.Now()

	if err := s.Records.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("update leave record: %w", err)
	}

	if err := s.recomputeAround(ctx, rec, &oldStart); err != nil {
		return nil, err
	}
	return rec, nil
}

// Transition moves a record through the lifecycle and recomputes the
// affected period.
func (s *Service) Transition(ctx context.Context, id quota.RecordID, to Status) (*Record, error) {
	rec, err := s.Records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Lifecycle.Transition(rec, to, s.Now()); err != nil {
		return nil, err
	}

	if err := s.Records.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("update leave record: %w", err)
	}

	if err := s.recomputeAround(ctx, rec, nil); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a record and recomputes the period it vacated.
func (s *Service) Delete(ctx context.Context, id quota.RecordID) error {
	rec, err := s.Records.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete leave record: %w", err)
	}

	if rec.HasDates() {
		policy, err := s.Policies.GetPolicy(ctx)
		if errors.Is(err, ErrPolicyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		period := quota.PeriodOf(policy.QuotaType, rec.StartDate)
		if err := s.recomputePeriod(ctx, rec.PersonID, period, policy); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// BalancePreview answers "you have X days remaining" for a proposed
// record before it is committed. excludeID carries the identity of an
// edited record so its old copy is not counted against itself.
func (s *Service) BalancePreview(ctx context.Context, personID PersonID, jobLevel string, start, end quota.Date, excludeID quota.RecordID) (quota.Preview, error) {
	policy, err := s.Policies.GetPolicy(ctx)
	if err != nil {
		return quota.Preview{}, err
	}

	records, err := s.Records.ListByPerson(ctx, personID)
	if err != nil {
		return quota.Preview{}, err
	}

	period := quota.PeriodOf(policy.QuotaType, start)
	in := quota.PreviewInput{
		Candidate: quota.QuotaRecord{ID: excludeID, Start: start, End: end},
		Policy:    policy,
		JobLevel:  jobLevel,
	}
	for _, rec := range records {
		if rec.HasDates() && period.Contains(rec.StartDate) {
			in.Records = append(in.Records, rec.QuotaRecord())
		}
	}
	return quota.PreviewBalance(in), nil
}

// Sweep runs the read-time recomputation over every visible record,
// healing any stale persisted derived fields. Returns the number of
// records whose persisted copy drifted.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	policy, err := s.Policies.GetPolicy(ctx)
	if err != nil {
		return 0, err
	}

	records, err := s.Records.List(ctx)
	if err != nil {
		return 0, err
	}

	// Group by person and period key.
	type groupKey struct {
		person PersonID
		period string
	}
	groups := make(map[groupKey][]*Record)
	for _, rec := range records {
		if rec.StartDate.IsZero() {
			continue // date-less drafts have no period
		}
		k := groupKey{rec.PersonID, quota.PeriodKey(policy.QuotaType, rec.StartDate)}
		groups[k] = append(groups[k], rec)
	}

	healed := 0
	for _, group := range groups {
		n, err := s.recomputeGroup(ctx, group, policy)
		if err != nil {
			return healed, err
		}
		healed += n
	}
	return healed, nil
}

// SweepPerson recomputes all periods of a single person.
func (s *Service) SweepPerson(ctx context.Context, personID PersonID) (int, error) {
	policy, err := s.Policies.GetPolicy(ctx)
	if err != nil {
		return 0, err
	}

	records, err := s.Records.ListByPerson(ctx, personID)
	if err != nil {
		return 0, err
	}

	byPeriod := make(map[string][]*Record)
	for _, rec := range records {
		if rec.StartDate.IsZero() {
			continue
		}
		key := quota.PeriodKey(policy.QuotaType, rec.StartDate)
		byPeriod[key] = append(byPeriod[key], rec)
	}

	healed := 0
	for _, group := range byPeriod {
		n, err := s.recomputeGroup(ctx, group, policy)
		if err != nil {
			return healed, err
		}
		healed += n
	}
	return healed, nil
}

// ChangePolicy replaces the tenant policy and resweeps everything: quota
// type changes regroup every record into new periods.
func (s *Service) ChangePolicy(ctx context.Context, p quota.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.Policies.SavePolicy(ctx, p); err != nil {
		return fmt.Errorf("save policy: %w", err)
	}
	_, err := s.Sweep(ctx)
	return err
}

// =============================================================================
// RECOMPUTATION PLUMBING
// =============================================================================

// recomputeAround sweeps the period of rec's current start date, plus the
// period of oldStart when a date edit crossed a boundary. With no policy
// configured yet there is nothing to recompute; the mutation still stands.
func (s *Service) recomputeAround(ctx context.Context, rec *Record, oldStart *quota.Date) error {
	policy, err := s.Policies.GetPolicy(ctx)
	if errors.Is(err, ErrPolicyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	swept := make(map[string]bool)
	if !rec.StartDate.IsZero() {
		period := quota.PeriodOf(policy.QuotaType, rec.StartDate)
		if err := s.recomputePeriod(ctx, rec.PersonID, period, policy); err != nil {
			return err
		}
		swept[period.Key] = true
	}
	if oldStart != nil && !oldStart.IsZero() {
		period := quota.PeriodOf(policy.QuotaType, *oldStart)
		if !swept[period.Key] {
			if err := s.recomputePeriod(ctx, rec.PersonID, period, policy); err != nil {
				return err
			}
		}
	}

	// Refresh the caller's copy with the swept derived values.
	if fresh, err := s.Records.Get(ctx, rec.ID); err == nil {
		rec.SetDerived(fresh.Derived())
	}
	return nil
}

// recomputePeriod loads one person's records in one period and sweeps them.
func (s *Service) recomputePeriod(ctx context.Context, personID PersonID, period quota.Period, policy quota.Policy) error {
	records, err := s.Records.ListByPerson(ctx, personID)
	if err != nil {
		return err
	}

	var group []*Record
	for _, rec := range records {
		if !rec.StartDate.IsZero() && period.Contains(rec.StartDate) {
			group = append(group, rec)
		}
	}
	if len(group) == 0 {
		return nil
	}
	_, err = s.recomputeGroup(ctx, group, policy)
	return err
}

// recomputeGroup runs the engine over one person+period group and writes
// back any rows flagged stale. Returns the number healed.
func (s *Service) recomputeGroup(ctx context.Context, group []*Record, policy quota.Policy) (int, error) {
	in := quota.RecomputeInput{
		Policy:  policy,
		Records: make([]quota.QuotaRecord, len(group)),
	}
	// Job level is denormalized per record; trust the newest snapshot.
	var newest int64 = -1
	for i, rec := range group {
		in.Records[i] = rec.QuotaRecord()
		if rec.Seq > newest {
			newest = rec.Seq
			in.JobLevel = rec.JobLevel
		}
	}

	results := quota.Recompute(in)

	healed := 0
	for i, res := range results {
		group[i].SetDerived(res.Derived)
		if !res.Stale {
			continue
		}
		healed++
		// Fire-and-forget: the freshly computed answer stands even when
		// the write-back fails; the next sweep heals it.
		if err := s.Records.UpdateDerived(ctx, res.ID, res.Derived); err != nil {
			s.Log.Warn("derived write-back failed, next sweep heals it",
				"record_id", string(res.ID), "error", err)
		}
	}
	return healed, nil
}
