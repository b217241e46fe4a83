package quota

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPolicy is returned when a policy violates its invariants
	// (empty working-day set, unknown quota type).
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrInvalidDate is returned when a date string cannot be parsed as a
	// plain calendar date. This guards the boundary: already-accepted
	// records with anomalies (reversed ranges) are handled leniently, but
	// unparseable input never reaches the calendar.
	ErrInvalidDate = errors.New("invalid date")
)
