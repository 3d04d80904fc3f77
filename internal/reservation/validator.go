package reservation

import (
	"time"

	"stolik/internal/models"
)

// Request is one admission attempt as received from the API layer.
// UserID and TableID arrive already authenticated/resolved by the
// caller; the engine only checks capacity and time semantics.
type Request struct {
	UserID  string
	TableID string
	Date    time.Time
	Slot    models.Interval
	Guests  int
}

// Validator rejects structurally invalid requests before any
// concurrency control is engaged. It deliberately performs no
// conflict check: that belongs inside the coordinator's critical
// section, otherwise check-then-act races reappear.
type Validator struct {
	// hours, when set, restricts bookings to the operating window.
	hours *models.Interval
}

func NewValidator(hours *models.Interval) *Validator {
	return &Validator{hours: hours}
}

// Validate runs the checks in a fixed order and returns the first
// failure: time range, party size, capacity, operating hours.
func (v *Validator) Validate(req Request, table models.Table) error {
	if !req.Slot.Valid() {
		return ErrInvalidTimeRange
	}
	if req.Guests <= 0 {
		return ErrInvalidPartySize
	}
	if !table.Fits(req.Guests) {
		return ErrCapacityExceeded
	}
	if v.hours != nil && !req.Slot.Within(*v.hours) {
		return ErrOutsideHours
	}
	return nil
}
