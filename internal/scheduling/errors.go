package scheduling

import "errors"

// The scheduler's error vocabulary. All of these are expected outcomes
// returned to the caller, never process-fatal. Storage-level conflicts are
// translated to ErrSlotUnavailable so callers see one conflict vocabulary.
var (
	// ErrInvalidRequest covers malformed intervals, past dates and
	// non-positive numeric fields.
	ErrInvalidRequest = errors.New("invalid booking request")

	// ErrOutsideBusinessHours means the computed interval does not fit the
	// operating window.
	ErrOutsideBusinessHours = errors.New("outside business hours")

	// ErrSlotUnavailable means the interval conflicts with an existing
	// reservation or no therapist is free and working.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrTherapistUnavailable means the explicitly requested therapist does
	// not exist or is marked unavailable.
	ErrTherapistUnavailable = errors.New("therapist unavailable")

	// ErrCodeGenerationExhausted means booking-code uniqueness retries ran
	// out. Transient; callers may retry.
	ErrCodeGenerationExhausted = errors.New("booking code generation exhausted")

	// ErrNotCancellable means cancellation was attempted past the cutoff or
	// on a terminal booking.
	ErrNotCancellable = errors.New("booking not cancellable")

	// ErrInvalidTransition means the requested status change is not allowed
	// by the booking state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound means the booking or referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)
