/*
policy.go - Leave policy and job-level allocation resolution

PURPOSE:
  A Policy is the tenant-scoped contract that drives the engine: which
  weekdays are working days, how often quotas reset, and how many days
  each job-level bucket is entitled to per period.

JOB-LEVEL RESOLUTION:
  Job levels are unconstrained free text entered by administrators
  ("Senior Coach", " junior instructor ", "Intern"). Resolution degrades
  gracefully instead of rejecting bookkeeping for unrecognized labels:

  1. Exact match: case-insensitive, trim-normalized lookup against the
     allocation keys.
  2. Substring match: containment against the fixed buckets junior,
     senior, managers - in that priority order.
  3. No match: quota is simply not enforced for that person. This is a
     sentinel, NOT an allocation of zero days.

EXAMPLE:
  policy := quota.Policy{
      QuotaType:   quota.QuotaMonthly,
      WorkingDays: quota.MondayToFriday(),
      Allocations: map[string]quota.Days{"senior": quota.NewDays(16)},
  }
  alloc, ok := policy.ResolveAllocation("Senior Coach") // 16, true
  _, ok = policy.ResolveAllocation("Intern")            // false: unenforced

SEE ALSO:
  - recompute.go: Consumes the resolved allocation
  - period.go: Period derivation from QuotaType
*/
package quota

import (
	"fmt"
	"strings"
)

// =============================================================================
// ALLOCATION BUCKETS
// =============================================================================

const (
	BucketJunior   = "junior"
	BucketSenior   = "senior"
	BucketManagers = "managers"
)

// bucketPriority orders the substring fallback. A label containing more
// than one bucket name resolves to the first hit.
var bucketPriority = []string{BucketJunior, BucketSenior, BucketManagers}

// =============================================================================
// POLICY
// =============================================================================

// Policy is the leave quota policy for one tenant. The engine never looks
// a policy up from ambient state; callers resolve it and pass it in.
type Policy struct {
	QuotaType   QuotaType
	WorkingDays WorkingDays

	// Allocations maps job-level bucket names to per-period day quotas.
	// Keys are stored normalized (lowercase, trimmed).
	Allocations map[string]Days
}

// Validate checks the policy invariants administrators can break.
func (p Policy) Validate() error {
	if p.WorkingDays.IsEmpty() {
		return fmt.Errorf("%w: working day set is empty", ErrInvalidPolicy)
	}
	switch p.QuotaType {
	case QuotaMonthly, QuotaQuarterly, QuotaYearly:
	default:
		return fmt.Errorf("%w: unknown quota type %q", ErrInvalidPolicy, p.QuotaType)
	}
	return nil
}

// ResolveAllocation maps a free-text job level to its day quota.
// The second return value is false when no bucket matches, meaning quota
// enforcement is disabled for that person. Callers must not conflate this
// with an allocation of zero days.
func (p Policy) ResolveAllocation(jobLevel string) (Days, bool) {
	label := normalizeLabel(jobLevel)
	if label == "" || len(p.Allocations) == 0 {
		return Days{}, false
	}

	// Exact case-insensitive match against allocation keys.
	for key, alloc := range p.Allocations {
		if normalizeLabel(key) == label {
			return alloc, true
		}
	}

	// Substring containment against the fixed buckets, in priority order.
	for _, bucket := range bucketPriority {
		if !strings.Contains(label, bucket) {
			continue
		}
		for key, alloc := range p.Allocations {
			if normalizeLabel(key) == bucket {
				return alloc, true
			}
		}
	}

	return Days{}, false
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
