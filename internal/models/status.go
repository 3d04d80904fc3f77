package models

import (
	"errors"
	"fmt"
)

// Status is the booking lifecycle state. Bookings are born confirmed
// (admission is atomic, there is no pending step) and the only legal
// transition is confirmed -> cancelled. Cancelled is terminal.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid booking status transition")

func (s Status) Valid() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Transition checks a status change against the lifecycle table and
// returns the new status. Every edge except confirmed->cancelled is
// rejected, including cancelled->cancelled.
func Transition(from, to Status) (Status, error) {
	if from == StatusConfirmed && to == StatusCancelled {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
