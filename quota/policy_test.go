package quota_test

import (
	"testing"

	"github.com/warp/leave-engine/quota"
)

func seniorPolicy() quota.Policy {
	return quota.Policy{
		QuotaType:   quota.QuotaMonthly,
		WorkingDays: monToSat(),
		Allocations: map[string]quota.Days{
			"junior":   quota.NewDays(10),
			"senior":   quota.NewDays(16),
			"managers": quota.NewDays(20),
		},
	}
}

// =============================================================================
// ALLOCATION RESOLUTION
// =============================================================================

func TestResolveAllocation_ExactMatch_CaseAndSpaceInsensitive(t *testing.T) {
	p := seniorPolicy()

	for _, label := range []string{"senior", "Senior", "SENIOR", "  senior  "} {
		alloc, ok := p.ResolveAllocation(label)
		if !ok {
			t.Fatalf("expected %q to resolve", label)
		}
		if !alloc.Equal(quota.NewDays(16)) {
			t.Errorf("%q resolved to %s, want 16", label, alloc)
		}
	}
}

func TestResolveAllocation_SubstringFallback(t *testing.T) {
	// GIVEN: free-text label containing a bucket name
	// THEN: resolves to that bucket's allocation

	p := seniorPolicy()

	alloc, ok := p.ResolveAllocation("Senior Coach")
	if !ok || !alloc.Equal(quota.NewDays(16)) {
		t.Errorf("Senior Coach: got (%s, %v), want (16, true)", alloc, ok)
	}

	alloc, ok = p.ResolveAllocation("Junior Instructor")
	if !ok || !alloc.Equal(quota.NewDays(10)) {
		t.Errorf("Junior Instructor: got (%s, %v), want (10, true)", alloc, ok)
	}
}

func TestResolveAllocation_SubstringPriorityOrder(t *testing.T) {
	// A label containing several bucket names resolves to the first in
	// junior, senior, managers order.
	p := seniorPolicy()

	alloc, ok := p.ResolveAllocation("junior senior managers")
	if !ok || !alloc.Equal(quota.NewDays(10)) {
		t.Errorf("got (%s, %v), want junior's 10", alloc, ok)
	}
}

func TestResolveAllocation_Unknown_IsSentinelNotZero(t *testing.T) {
	// GIVEN: a label matching no bucket
	// THEN: ok=false, which callers must treat as "quota not enforced"

	p := seniorPolicy()

	if _, ok := p.ResolveAllocation("Intern"); ok {
		t.Error("Intern should not resolve")
	}
	if _, ok := p.ResolveAllocation(""); ok {
		t.Error("empty label should not resolve")
	}
}

func TestResolveAllocation_ArbitraryBucketNames(t *testing.T) {
	p := quota.Policy{
		QuotaType:   quota.QuotaYearly,
		WorkingDays: quota.MondayToFriday(),
		Allocations: map[string]quota.Days{"head coach": quota.NewDays(25)},
	}

	alloc, ok := p.ResolveAllocation("Head Coach")
	if !ok || !alloc.Equal(quota.NewDays(25)) {
		t.Errorf("got (%s, %v), want (25, true)", alloc, ok)
	}

	// Substring fallback only covers the fixed buckets.
	if _, ok := p.ResolveAllocation("Assistant Head Coach of Sport"); ok {
		t.Error("fuzzy matching must not extend to arbitrary buckets")
	}
}

// =============================================================================
// POLICY VALIDATION
// =============================================================================

func TestPolicyValidate(t *testing.T) {
	if err := seniorPolicy().Validate(); err != nil {
		t.Errorf("valid policy rejected: %v", err)
	}

	empty := quota.Policy{QuotaType: quota.QuotaMonthly}
	if err := empty.Validate(); err == nil {
		t.Error("empty working-day set should be rejected")
	}

	bad := quota.Policy{QuotaType: "weekly", WorkingDays: quota.MondayToFriday()}
	if err := bad.Validate(); err == nil {
		t.Error("unknown quota type should be rejected")
	}
}
