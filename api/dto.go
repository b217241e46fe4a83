/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Leave:
    LeaveDTO, CreateLeaveRequest, UpdateLeaveRequest

  Balance:
    BalanceDTO

  Policy:
    PolicyDTO

DATE FORMAT:
  All leave dates travel as ISO dates ("2006-01-02"); lifecycle
  timestamps as RFC3339. Allocations travel as decimal strings so
  half-day policies round-trip without float drift.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: The domain model underneath
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/quota"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// LeaveDTO represents a leave record in API responses.
type LeaveDTO struct {
	ID         string `json:"id"`
	PersonID   string `json:"person_id"`
	PersonName string `json:"person_name,omitempty"`
	JobLevel   string `json:"job_level,omitempty"`
	Category   string `json:"category,omitempty"`
	Reason     string `json:"reason,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	Status     string `json:"status"`

	Days            string `json:"days"`
	AllocationTotal string `json:"allocation_total"`
	AllocationUsed  string `json:"allocation_used"`
	Balance         string `json:"balance"`
	LimitReached    bool   `json:"limit_reached"`

	SubmittedAt    string `json:"submitted_at,omitempty"`
	ApprovedAt     string `json:"approved_at,omitempty"`
	RegisteredDate string `json:"registered_date,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// CreateLeaveRequest is the request to create a leave record.
type CreateLeaveRequest struct {
	PersonID   string `json:"person_id"`
	PersonName string `json:"person_name"`
	JobLevel   string `json:"job_level"`
	Category   string `json:"category"`
	Reason     string `json:"reason"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Status     string `json:"status"` // draft (default), pending, or approved
}

// UpdateLeaveRequest is the request to edit a leave record.
// Nil fields are left unchanged.
type UpdateLeaveRequest struct {
	PersonName *string `json:"person_name,omitempty"`
	JobLevel   *string `json:"job_level,omitempty"`
	Category   *string `json:"category,omitempty"`
	Reason     *string `json:"reason,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
}

// BalanceDTO answers "how many days would this leave consume".
type BalanceDTO struct {
	PersonID        string `json:"person_id"`
	PeriodKey       string `json:"period_key"`
	Days            string `json:"days"`
	PriorUsed       string `json:"prior_used"`
	UsedAfter       string `json:"used_after"`
	AllocationTotal string `json:"allocation_total"`
	Remaining       string `json:"remaining"`
	Enforced        bool   `json:"enforced"`
	LimitReached    bool   `json:"limit_reached"`
}

// PolicyDTO represents the tenant leave policy.
type PolicyDTO struct {
	QuotaType   string            `json:"quota_type"`
	WorkingDays []int             `json:"working_days"` // time.Weekday values, Sunday=0
	Allocations map[string]string `json:"allocations"`  // bucket -> days
}

// SweepResultDTO reports a recomputation sweep.
type SweepResultDTO struct {
	Healed int `json:"healed"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toLeaveDTO(rec *leave.Record) LeaveDTO {
	dto := LeaveDTO{
		ID:         string(rec.ID),
		PersonID:   string(rec.PersonID),
		PersonName: rec.PersonName,
		JobLevel:   rec.JobLevel,
		Category:   rec.Category,
		Reason:     rec.Reason,
		Status:     string(rec.Status),

		Days:            rec.Days.String(),
		AllocationTotal: rec.AllocationTotal.String(),
		AllocationUsed:  rec.AllocationUsed.String(),
		Balance:         rec.Balance.String(),
		LimitReached:    rec.LimitReached,

		RegisteredDate: rec.RegisteredDate,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      rec.UpdatedAt.Format(time.RFC3339),
	}
	if !rec.StartDate.IsZero() {
		dto.StartDate = rec.StartDate.String()
	}
	if !rec.EndDate.IsZero() {
		dto.EndDate = rec.EndDate.String()
	}
	if rec.SubmittedAt != nil {
		dto.SubmittedAt = rec.SubmittedAt.Format(time.RFC3339)
	}
	if rec.ApprovedAt != nil {
		dto.ApprovedAt = rec.ApprovedAt.Format(time.RFC3339)
	}
	return dto
}

func toLeaveDTOs(recs []*leave.Record) []LeaveDTO {
	dtos := make([]LeaveDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toLeaveDTO(rec)
	}
	return dtos
}

func toPolicyDTO(p quota.Policy) PolicyDTO {
	dto := PolicyDTO{
		QuotaType:   string(p.QuotaType),
		WorkingDays: []int{},
		Allocations: make(map[string]string, len(p.Allocations)),
	}
	for _, d := range p.WorkingDays.List() {
		dto.WorkingDays = append(dto.WorkingDays, int(d))
	}
	for bucket, days := range p.Allocations {
		dto.Allocations[bucket] = days.String()
	}
	return dto
}

func toPolicy(dto PolicyDTO) quota.Policy {
	weekdays := make([]time.Weekday, len(dto.WorkingDays))
	for i, d := range dto.WorkingDays {
		weekdays[i] = time.Weekday(d)
	}
	p := quota.Policy{
		QuotaType:   quota.ParseQuotaType(dto.QuotaType),
		WorkingDays: quota.NewWorkingDays(weekdays...),
		Allocations: make(map[string]quota.Days, len(dto.Allocations)),
	}
	for bucket, days := range dto.Allocations {
		p.Allocations[bucket] = quota.ParseDays(days)
	}
	return p
}
