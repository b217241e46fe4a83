/*
handlers.go - HTTP API handlers for the leave quota engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the leave service.

ENDPOINTS:
  Leaves:
    GET    /api/leaves                 List leave records (?person_id=)
    POST   /api/leaves                 Create leave record
    GET    /api/leaves/{id}            Get leave record
    PUT    /api/leaves/{id}            Edit leave record
    DELETE /api/leaves/{id}            Delete leave record
    POST   /api/leaves/{id}/submit     Draft/Rejected/Cancelled -> Pending
    POST   /api/leaves/{id}/approve    Pending -> Approved
    POST   /api/leaves/{id}/reject     Pending -> Rejected
    POST   /api/leaves/{id}/cancel     -> Cancelled

  Balance:
    GET    /api/people/{id}/balance    Quota preview for a date range

  Policy:
    GET    /api/policy                 Get the tenant policy
    PUT    /api/policy                 Replace the policy (full resweep)

  Admin:
    POST   /api/admin/resweep          Recompute every person+period

REQUEST FLOW:
  1. Parse HTTP request
  2. Call the service (validation lives in the domain layer)
  3. Serialize response
  4. Map domain errors to HTTP status

ERROR HANDLING:
  - 400: Validation errors, malformed input
  - 404: Record not found
  - 409: Forbidden lifecycle transition
  - 500: Storage and other internal errors

READ-TIME SWEEPS:
  List reads trigger a recomputation sweep before responding, so stale
  persisted balances self-heal on the next read even when a write-time
  write-back was lost.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - leave/service.go: The orchestration underneath
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/quota"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
}

// NewHandler creates a new handler over the given service.
func NewHandler(svc *leave.Service) *Handler {
	return &Handler{Service: svc}
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// ListLeaves returns leave records, optionally filtered by person.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if personID := r.URL.Query().Get("person_id"); personID != "" {
		// Heal the person's persisted balances before serving them.
		if _, err := h.Service.SweepPerson(ctx, leave.PersonID(personID)); err != nil && !errors.Is(err, leave.ErrPolicyNotFound) {
			writeError(w, http.StatusInternalServerError, "Failed to recompute balances", err)
			return
		}
		records, err := h.Service.Records.ListByPerson(ctx, leave.PersonID(personID))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list leaves", err)
			return
		}
		writeJSON(w, http.StatusOK, toLeaveDTOs(records))
		return
	}

	if _, err := h.Service.Sweep(ctx); err != nil && !errors.Is(err, leave.ErrPolicyNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to recompute balances", err)
		return
	}
	records, err := h.Service.Records.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leaves", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTOs(records))
}

// GetLeave returns a single leave record.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	id := quota.RecordID(chi.URLParam(r, "id"))

	rec, err := h.Service.Records.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get leave", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(rec))
}

// CreateLeave creates a new leave record.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := leave.StatusDraft
	if req.Status != "" {
		parsed, ok := leave.ParseStatus(req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown status: "+req.Status, nil)
			return
		}
		status = parsed
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	rec, err := h.Service.Create(r.Context(), leave.CreateInput{
		PersonID:   leave.PersonID(req.PersonID),
		PersonName: req.PersonName,
		JobLevel:   req.JobLevel,
		Category:   req.Category,
		Reason:     req.Reason,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     status,
	})
	if err != nil {
		writeDomainError(w, "Failed to create leave", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(rec))
}

// UpdateLeave edits a leave record's fields.
func (h *Handler) UpdateLeave(w http.ResponseWriter, r *http.Request) {
	id := quota.RecordID(chi.URLParam(r, "id"))

	var req UpdateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := leave.UpdateInput{
		PersonName: req.PersonName,
		JobLevel:   req.JobLevel,
		Category:   req.Category,
		Reason:     req.Reason,
	}
	if req.StartDate != nil {
		d, err := parseOptionalDate(*req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date", err)
			return
		}
		in.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := parseOptionalDate(*req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date", err)
			return
		}
		in.EndDate = &d
	}

	rec, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, "Failed to update leave", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(rec))
}

// DeleteLeave removes a leave record.
func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	id := quota.RecordID(chi.URLParam(r, "id"))

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete leave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LIFECYCLE HANDLERS
// =============================================================================

// SubmitLeave moves a record to Pending.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, leave.StatusPending)
}

// ApproveLeave moves a record to Approved.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, leave.StatusApproved)
}

// RejectLeave moves a record to Rejected.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, leave.StatusRejected)
}

// CancelLeave moves a record to Cancelled.
func (h *Handler) CancelLeave(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, leave.StatusCancelled)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to leave.Status) {
	id := quota.RecordID(chi.URLParam(r, "id"))

	rec, err := h.Service.Transition(r.Context(), id, to)
	if err != nil {
		writeDomainError(w, "Failed to transition leave", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(rec))
}

// =============================================================================
// BALANCE HANDLER
// =============================================================================

// GetBalance previews quota consumption for a proposed date range.
// GET /api/people/{id}/balance?job_level=&start_date=&end_date=&exclude_id=
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID := leave.PersonID(chi.URLParam(r, "id"))
	q := r.URL.Query()

	start, err := quota.ParseDate(q.Get("start_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := quota.ParseDate(q.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	preview, err := h.Service.BalancePreview(ctx, personID, q.Get("job_level"),
		start, end, quota.RecordID(q.Get("exclude_id")))
	if err != nil {
		writeDomainError(w, "Failed to preview balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		PersonID:        string(personID),
		PeriodKey:       preview.PeriodKey,
		Days:            preview.Days.String(),
		PriorUsed:       preview.PriorUsed.String(),
		UsedAfter:       preview.UsedAfter.String(),
		AllocationTotal: preview.AllocationTotal.String(),
		Remaining:       preview.Remaining.String(),
		Enforced:        preview.Enforced,
		LimitReached:    preview.LimitReached,
	})
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// GetPolicy returns the tenant policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Service.Policies.GetPolicy(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to load policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(policy))
}

// PutPolicy replaces the tenant policy and resweeps every period.
func (h *Handler) PutPolicy(w http.ResponseWriter, r *http.Request) {
	var dto PolicyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	policy := toPolicy(dto)
	if err := h.Service.ChangePolicy(r.Context(), policy); err != nil {
		if errors.Is(err, quota.ErrInvalidPolicy) {
			writeError(w, http.StatusBadRequest, "Invalid policy", err)
			return
		}
		writeDomainError(w, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(policy))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Resweep recomputes every person+period group.
// POST /api/admin/resweep
func (h *Handler) Resweep(w http.ResponseWriter, r *http.Request) {
	healed, err := h.Service.Sweep(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to resweep", err)
		return
	}
	writeJSON(w, http.StatusOK, SweepResultDTO{Healed: healed})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseOptionalDate(s string) (quota.Date, error) {
	if s == "" {
		return quota.Date{}, nil
	}
	return quota.ParseDate(s)
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var ve *leave.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   ve.Error(),
			Code:    "validation_failed",
			Details: ve.Fields,
		})
		return
	}

	var te *leave.TransitionError
	if errors.As(err, &te) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: te.Error(),
			Code:  "invalid_transition",
		})
		return
	}

	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case leave.IsClientError(err) || errors.Is(err, quota.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
