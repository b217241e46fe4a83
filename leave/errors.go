/*
errors.go - Centralized error types for the leave lifecycle

PURPOSE:
  All lifecycle error types in one place. Callers branch with errors.Is /
  errors.As; the HTTP layer maps them to status codes.

ERROR CATEGORIES:
  1. Validation errors - missing required fields on a transition; carry
     EVERY offending field, never just the first.
  2. Transition errors - moves the state machine forbids.
  3. Not-found errors - store lookups for absent records/policies.

NOTE ON NON-ERRORS:
  An unresolved job level and a reversed date range are NOT errors here.
  Both degrade the computation (quota unenforced / zero-day count) so one
  bad record cannot poison a whole period's sweep.
*/
package leave

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRecordNotFound is returned when a referenced record doesn't exist.
	ErrRecordNotFound = errors.New("leave record not found")

	// ErrPolicyNotFound is returned when no leave policy is configured.
	ErrPolicyNotFound = errors.New("leave policy not found")

	// ErrInvalidStatus is returned for status strings outside the lifecycle.
	ErrInvalidStatus = errors.New("invalid status")
)

// =============================================================================
// VALIDATION ERROR - Lists every offending field
// =============================================================================

// FieldError is one offending field in a failed transition.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError blocks a state transition. It accumulates all missing or
// invalid fields so the caller can surface them in one round trip.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// =============================================================================
// TRANSITION ERROR
// =============================================================================

// TransitionError reports a move the state machine forbids.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition leave record from %s to %s", e.From, e.To)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var ve *ValidationError
	var te *TransitionError
	return errors.As(err, &ve) || errors.As(err, &te) || errors.Is(err, ErrInvalidStatus)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrPolicyNotFound)
}
