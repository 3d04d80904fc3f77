package models

import "time"

// Booking ties a user to a table for a half-open time window on one
// calendar date. Rows are never deleted: cancellation flips the status
// and the record stays for history.
type Booking struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TableID   string    `json:"table_id"`
	Date      time.Time `json:"date"`
	Slot      Interval  `json:"slot"`
	Guests    int       `json:"guests"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// DateKey returns the calendar-date part used in exclusion keys and
// storage queries.
func (b *Booking) DateKey() string {
	return b.Date.Format(DateFormat)
}

// BookingWindow is the occupancy view cached per (table, date): just
// enough to render a day without touching the store.
type BookingWindow struct {
	BookingID string `json:"booking_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
}
