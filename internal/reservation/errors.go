package reservation

import (
	"errors"
	"fmt"
)

// Structural errors: bad caller input, surfaced verbatim, never retried.
var (
	ErrInvalidTimeRange = errors.New("start time must be before end time")
	ErrInvalidPartySize = errors.New("party size must be positive")
	ErrCapacityExceeded = errors.New("party size exceeds table capacity")
	ErrOutsideHours     = errors.New("requested window is outside operating hours")
)

// Business-rule rejections.
var (
	ErrTableNotFound    = errors.New("table not found")
	ErrNotFound         = errors.New("booking not found")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrDoubleBooking    = errors.New("table is already booked for an overlapping window")
)

// ErrBusy is transient contention: the per-key exclusion could not be
// acquired in time, or the bounded retries ran out. Safe for the
// caller to retry with backoff.
var ErrBusy = errors.New("reservation engine is busy, retry later")

// ConflictError names the confirmed booking the candidate collides
// with, so callers can pick another slot. errors.Is(err,
// ErrDoubleBooking) matches it.
type ConflictError struct {
	ConflictingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot overlaps confirmed booking %s", e.ConflictingID)
}

func (e *ConflictError) Unwrap() error {
	return ErrDoubleBooking
}
