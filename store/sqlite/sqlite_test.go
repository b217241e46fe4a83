package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/quota"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRecord(id quota.RecordID) *leave.Record {
	now := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	return &leave.Record{
		ID:         id,
		PersonID:   "person-1",
		PersonName: "Amina Diallo",
		JobLevel:   "Senior Coach",
		Category:   "annual",
		Reason:     "family visit",
		StartDate:  quota.NewDate(2025, time.May, 5),
		EndDate:    quota.NewDate(2025, time.May, 7),
		Status:     leave.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestRecordRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("rec-1")
	submitted := time.Date(2025, time.May, 1, 10, 30, 0, 0, time.UTC)
	rec.SubmittedAt = &submitted

	require.NoError(t, st.Create(ctx, rec))
	assert.Equal(t, int64(1), rec.Seq)

	got, err := st.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, rec.PersonID, got.PersonID)
	assert.Equal(t, rec.JobLevel, got.JobLevel)
	assert.True(t, rec.StartDate.Equal(got.StartDate))
	assert.True(t, rec.EndDate.Equal(got.EndDate))
	assert.Equal(t, leave.StatusPending, got.Status)
	require.NotNil(t, got.SubmittedAt)
	assert.True(t, submitted.Equal(*got.SubmittedAt))
	assert.Nil(t, got.ApprovedAt)
}

func TestGet_Missing_ReturnsNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, leave.ErrRecordNotFound)
}

func TestCreate_AssignsMonotonicSeq(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := sampleRecord("rec-1")
	second := sampleRecord("rec-2")
	require.NoError(t, st.Create(ctx, first))
	require.NoError(t, st.Create(ctx, second))

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)

	all, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, quota.RecordID("rec-1"), all[0].ID)
	assert.Equal(t, quota.RecordID("rec-2"), all[1].ID)
}

func TestUpdate_LeavesDerivedColumnsAlone(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("rec-1")
	require.NoError(t, st.Create(ctx, rec))
	require.NoError(t, st.UpdateDerived(ctx, rec.ID, quota.DerivedFields{
		Days:            quota.NewDays(3),
		AllocationTotal: quota.NewDays(16),
		AllocationUsed:  quota.NewDays(3),
		Balance:         quota.NewDays(13),
	}))

	rec.Reason = "wedding"
	rec.Status = leave.StatusApproved
	require.NoError(t, st.Update(ctx, rec))

	got, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "wedding", got.Reason)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.True(t, got.Days.Equal(quota.NewDays(3)), "derived columns survive field updates")
	assert.True(t, got.Balance.Equal(quota.NewDays(13)))
}

func TestUpdate_Missing_ReturnsNotFound(t *testing.T) {
	st := newTestStore(t)

	rec := sampleRecord("ghost")
	err := st.Update(context.Background(), rec)
	assert.ErrorIs(t, err, leave.ErrRecordNotFound)
}

func TestDelete_RemovesRecord(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("rec-1")
	require.NoError(t, st.Create(ctx, rec))
	require.NoError(t, st.Delete(ctx, rec.ID))

	_, err := st.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, leave.ErrRecordNotFound)
	assert.ErrorIs(t, st.Delete(ctx, rec.ID), leave.ErrRecordNotFound)
}

func TestListByPerson_FiltersAndOrders(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	mine := sampleRecord("rec-1")
	other := sampleRecord("rec-2")
	other.PersonID = "person-2"
	mineLater := sampleRecord("rec-3")

	require.NoError(t, st.Create(ctx, mine))
	require.NoError(t, st.Create(ctx, other))
	require.NoError(t, st.Create(ctx, mineLater))

	got, err := st.ListByPerson(ctx, "person-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, quota.RecordID("rec-1"), got[0].ID)
	assert.Equal(t, quota.RecordID("rec-3"), got[1].ID)
}

func TestDatelessDraft_RoundTrips(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	draft := &leave.Record{
		ID:        "draft-1",
		PersonID:  "person-1",
		Status:    leave.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.Create(ctx, draft))

	got, err := st.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, got.StartDate.IsZero())
	assert.True(t, got.EndDate.IsZero())
}

func TestPolicyRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.GetPolicy(ctx)
	assert.ErrorIs(t, err, leave.ErrPolicyNotFound)

	policy := quota.Policy{
		QuotaType: quota.QuotaMonthly,
		WorkingDays: quota.NewWorkingDays(
			time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		),
		Allocations: map[string]quota.Days{
			"senior":   quota.NewDays(16),
			"managers": quota.NewDays(20),
		},
	}
	require.NoError(t, st.SavePolicy(ctx, policy))

	got, err := st.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, quota.QuotaMonthly, got.QuotaType)
	assert.True(t, got.WorkingDays.Contains(time.Saturday))
	assert.False(t, got.WorkingDays.Contains(time.Sunday))
	assert.True(t, got.Allocations["senior"].Equal(quota.NewDays(16)))

	// Saving again overwrites the single policy row.
	policy.QuotaType = quota.QuotaYearly
	require.NoError(t, st.SavePolicy(ctx, policy))
	got, err = st.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, quota.QuotaYearly, got.QuotaType)
}

func TestServiceOnSQLite_EndToEnd(t *testing.T) {
	// GIVEN: the full service wired over the SQLite store
	// WHEN: an approved record is created
	// THEN: derived columns land in the database

	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SavePolicy(ctx, quota.Policy{
		QuotaType: quota.QuotaMonthly,
		WorkingDays: quota.NewWorkingDays(
			time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		),
		Allocations: map[string]quota.Days{"senior": quota.NewDays(16)},
	}))

	svc := leave.NewService(st, st)
	rec, err := svc.Create(ctx, leave.CreateInput{
		PersonID:   "person-1",
		PersonName: "Amina Diallo",
		JobLevel:   "Senior Coach",
		Category:   "annual",
		Reason:     "family visit",
		StartDate:  quota.NewDate(2025, time.May, 5),
		EndDate:    quota.NewDate(2025, time.May, 7),
		Status:     leave.StatusApproved,
	})
	require.NoError(t, err)

	stored, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.Days.Equal(quota.NewDays(3)))
	assert.True(t, stored.AllocationTotal.Equal(quota.NewDays(16)))
	assert.True(t, stored.Balance.Equal(quota.NewDays(13)))
}
