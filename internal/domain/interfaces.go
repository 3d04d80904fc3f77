package domain

import (
	"context"
	"time"

	"stolik/internal/models"
)

// Store is the persistence collaborator. It must provide at least
// read-committed isolation; the optimistic version column on bookings
// is how the engine detects lost updates.
type Store interface {
	GetTable(ctx context.Context, id string) (*models.Table, error)
	GetTableByNumber(ctx context.Context, number int) (*models.Table, error)
	ListTables(ctx context.Context) ([]*models.Table, error)

	InsertBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status models.Status) error
	ListConfirmedByTableDate(ctx context.Context, tableID string, date time.Time) ([]*models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]*models.Booking, error)
	ListBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	ListConfirmed(ctx context.Context) ([]*models.Booking, error)

	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// SlotCache is the advisory occupancy cache in front of the store.
// It is never consulted inside the admission critical section; a
// stale read here can only make the advisory availability endpoint
// slightly pessimistic or optimistic, never double-book a table.
type SlotCache interface {
	GetDay(ctx context.Context, tableID, date string) ([]models.BookingWindow, error)
	SetDay(ctx context.Context, tableID, date string, windows []models.BookingWindow) error
	Invalidate(ctx context.Context, tableID, date string) error
}

// EventPublisher feeds committed lifecycle changes to subscribers
// (notifications, reporting).
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// NotificationSender delivers one rendered message to a recipient.
type NotificationSender interface {
	Send(ctx context.Context, recipient, message string) error
}
