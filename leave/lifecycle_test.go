package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/quota"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func submittableRecord() *leave.Record {
	return &leave.Record{
		ID:         "rec-1",
		PersonID:   "person-1",
		PersonName: "Amina Diallo",
		JobLevel:   "Senior Coach",
		Category:   "annual",
		Reason:     "family visit",
		StartDate:  quota.NewDate(2025, time.May, 5),
		EndDate:    quota.NewDate(2025, time.May, 7),
		Status:     leave.StatusDraft,
	}
}

var noon = time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC)

// =============================================================================
// STATE MACHINE
// =============================================================================

func TestTransition_AllowedEdges(t *testing.T) {
	c := &leave.Controller{}

	allowed := []struct{ from, to leave.Status }{
		{leave.StatusDraft, leave.StatusPending},
		{leave.StatusDraft, leave.StatusCancelled},
		{leave.StatusPending, leave.StatusApproved},
		{leave.StatusPending, leave.StatusRejected},
		{leave.StatusPending, leave.StatusCancelled},
		{leave.StatusApproved, leave.StatusCancelled},
		{leave.StatusRejected, leave.StatusPending},
		{leave.StatusCancelled, leave.StatusPending},
	}
	for _, edge := range allowed {
		assert.True(t, c.CanTransition(edge.from, edge.to), "%s -> %s should be allowed", edge.from, edge.to)
	}

	forbidden := []struct{ from, to leave.Status }{
		{leave.StatusDraft, leave.StatusApproved},
		{leave.StatusApproved, leave.StatusPending},
		{leave.StatusApproved, leave.StatusRejected},
		{leave.StatusRejected, leave.StatusApproved},
		{leave.StatusRejected, leave.StatusCancelled},
	}
	for _, edge := range forbidden {
		assert.False(t, c.CanTransition(edge.from, edge.to), "%s -> %s should be forbidden", edge.from, edge.to)
	}
}

func TestTransition_Forbidden_ReturnsTransitionError(t *testing.T) {
	c := &leave.Controller{}
	rec := submittableRecord()
	rec.Status = leave.StatusApproved

	err := c.Transition(rec, leave.StatusPending, noon)

	var te *leave.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, leave.StatusApproved, te.From)
	assert.Equal(t, leave.StatusApproved, rec.Status, "record must not mutate on failure")
	assert.True(t, leave.IsClientError(err))
}

// =============================================================================
// FIELD VALIDATION
// =============================================================================

func TestLeaveDraft_ReportsEveryMissingField(t *testing.T) {
	// GIVEN: an empty draft
	// WHEN: promoting to pending
	// THEN: all five missing fields are listed, not just the first

	c := &leave.Controller{}
	rec := &leave.Record{ID: "rec-1", Status: leave.StatusDraft}

	err := c.Transition(rec, leave.StatusPending, noon)

	var ve *leave.ValidationError
	require.ErrorAs(t, err, &ve)

	var fields []string
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"person_id", "category", "start_date", "end_date", "reason"}, fields)
	assert.Equal(t, leave.StatusDraft, rec.Status)
	assert.True(t, leave.IsClientError(err))
}

func TestDraftCreation_NeedsNoFields(t *testing.T) {
	c := &leave.Controller{}
	rec := &leave.Record{ID: "rec-1", PersonID: "person-1"}

	require.NoError(t, c.Create(rec, leave.StatusDraft, noon))
	assert.Equal(t, leave.StatusDraft, rec.Status)
	assert.Nil(t, rec.SubmittedAt)
}

func TestDirectCreation_AsApproved_ValidatesAndStamps(t *testing.T) {
	c := &leave.Controller{}

	rec := submittableRecord()
	require.NoError(t, c.Create(rec, leave.StatusApproved, noon))
	assert.Equal(t, leave.StatusApproved, rec.Status)
	require.NotNil(t, rec.ApprovedAt)
	assert.Equal(t, noon, *rec.ApprovedAt)
	assert.Equal(t, "April 20, 2025", rec.RegisteredDate)

	incomplete := &leave.Record{ID: "rec-2", PersonID: "person-1"}
	err := c.Create(incomplete, leave.StatusApproved, noon)
	var ve *leave.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 4)
}

// =============================================================================
// TIMESTAMP STAMPING
// =============================================================================

func TestStamps_SetOnceNeverOverwritten(t *testing.T) {
	c := &leave.Controller{}
	rec := submittableRecord()

	require.NoError(t, c.Transition(rec, leave.StatusPending, noon))
	require.NotNil(t, rec.SubmittedAt)
	firstSubmit := *rec.SubmittedAt

	later := noon.Add(48 * time.Hour)
	require.NoError(t, c.Transition(rec, leave.StatusApproved, later))
	require.NotNil(t, rec.ApprovedAt)
	assert.Equal(t, later, *rec.ApprovedAt)
	assert.Equal(t, "April 22, 2025", rec.RegisteredDate)
	assert.Equal(t, firstSubmit, *rec.SubmittedAt, "submit stamp survives approval")
}

func TestDemotionOutOfApproved_ClearsApprovalStamps(t *testing.T) {
	// GIVEN: an approved record
	// WHEN: cancelled and resubmitted and approved again
	// THEN: the approval stamps are recomputed, not frozen

	c := &leave.Controller{}
	rec := submittableRecord()
	require.NoError(t, c.Transition(rec, leave.StatusPending, noon))
	require.NoError(t, c.Transition(rec, leave.StatusApproved, noon))

	require.NoError(t, c.Transition(rec, leave.StatusCancelled, noon))
	assert.Nil(t, rec.ApprovedAt)
	assert.Empty(t, rec.RegisteredDate)

	resubmitAt := noon.AddDate(0, 1, 0)
	require.NoError(t, c.Transition(rec, leave.StatusPending, resubmitAt))
	require.NotNil(t, rec.SubmittedAt)
	assert.Equal(t, resubmitAt, *rec.SubmittedAt, "resubmission resets the submit stamp")

	approveAt := resubmitAt.Add(time.Hour)
	require.NoError(t, c.Transition(rec, leave.StatusApproved, approveAt))
	require.NotNil(t, rec.ApprovedAt)
	assert.Equal(t, approveAt, *rec.ApprovedAt)
	assert.Equal(t, "May 20, 2025", rec.RegisteredDate)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, leave.StatusApproved.CountsAgainstQuota())
	assert.False(t, leave.StatusPending.CountsAgainstQuota())
	assert.False(t, leave.StatusDraft.CountsAgainstQuota())

	_, ok := leave.ParseStatus("approved")
	assert.True(t, ok)
	_, ok = leave.ParseStatus("archived")
	assert.False(t, ok)
}
