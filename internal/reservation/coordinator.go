// Package reservation implements the admission protocol for table
// bookings: validation, per-(table, date) mutual exclusion, conflict
// detection against the availability index, and the booking lifecycle.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stolik/internal/availability"
	"stolik/internal/database"
	"stolik/internal/domain"
	"stolik/internal/events"
	"stolik/internal/metrics"
	"stolik/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Coordinator serializes conflicting booking attempts per (table,
// date) key and keeps the no-overlap invariant true under concurrent
// writers. Keys that differ in table or date proceed independently.
type Coordinator struct {
	store     domain.Store
	index     *availability.Index
	locks     *lockTable
	validator *Validator
	bus       domain.EventPublisher
	cache     domain.SlotCache
	logger    *zerolog.Logger

	lockTimeout   time.Duration
	cancelRetries int
}

// Options tune the contention behavior. Zero values fall back to the
// defaults in models.
type Options struct {
	LockTimeout   time.Duration
	CancelRetries int
	Hours         *models.Interval
}

func NewCoordinator(store domain.Store, bus domain.EventPublisher, cache domain.SlotCache, opts Options, logger *zerolog.Logger) *Coordinator {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = models.DefaultLockTimeout
	}
	if opts.CancelRetries <= 0 {
		opts.CancelRetries = models.DefaultCancelRetries
	}
	return &Coordinator{
		store:         store,
		index:         availability.NewIndex(),
		locks:         newLockTable(),
		validator:     NewValidator(opts.Hours),
		bus:           bus,
		cache:         cache,
		logger:        logger,
		lockTimeout:   opts.LockTimeout,
		cancelRetries: opts.CancelRetries,
	}
}

// Hydrate loads every confirmed booking from the store into the
// availability index. Call once at startup before serving traffic.
// All dates are loaded: a booking left out here is invisible to
// conflict checks, which would let an overlapping admit through.
func (c *Coordinator) Hydrate(ctx context.Context) error {
	bookings, err := c.store.ListConfirmed(ctx)
	if err != nil {
		return fmt.Errorf("hydrate availability index: %w", err)
	}
	for _, b := range bookings {
		c.index.Insert(availability.Key{TableID: b.TableID, Date: b.DateKey()}, b.ID, b.Slot)
	}
	c.logger.Info().Int("bookings", len(bookings)).Msg("availability index hydrated")
	return nil
}

// Admit validates the request and atomically turns it into a
// confirmed booking or a rejection. Between lock acquisition and
// release no other admit or cancel on the same key can interleave.
func (c *Coordinator) Admit(ctx context.Context, req Request) (*models.Booking, error) {
	table, err := c.store.GetTable(ctx, req.TableID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("load table: %w", err)
	}

	if err := c.validator.Validate(req, *table); err != nil {
		metrics.IncAdmission("rejected")
		return nil, err
	}

	key := availability.Key{TableID: req.TableID, Date: req.Date.Format(models.DateFormat)}

	lockStart := time.Now()
	release, err := c.locks.Acquire(ctx, key, c.lockTimeout)
	if err != nil {
		metrics.IncAdmission("busy")
		return nil, err
	}
	defer release()
	metrics.ObserveLockWait(time.Since(lockStart))

	if conflictID, ok := c.index.Conflict(key, req.Slot); ok {
		metrics.IncAdmission("conflict")
		return nil, &ConflictError{ConflictingID: conflictID}
	}

	now := time.Now()
	booking := &models.Booking{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		TableID:   req.TableID,
		Date:      req.Date,
		Slot:      req.Slot,
		Guests:    req.Guests,
		Status:    models.StatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}

	// Persist first, index after: a failed insert must leave the
	// index exactly as before the call.
	if err := c.store.InsertBooking(ctx, booking); err != nil {
		metrics.IncAdmission("error")
		return nil, fmt.Errorf("persist booking: %w", err)
	}
	c.index.Insert(key, booking.ID, booking.Slot)
	metrics.IncAdmission("confirmed")

	c.afterCommit(ctx, events.EventBookingAdmitted, booking, table.Number)
	return booking, nil
}

// Cancel transitions a confirmed booking to cancelled and frees its
// slot. Cancelling an already cancelled booking reports
// ErrAlreadyCancelled rather than silently succeeding.
func (c *Coordinator) Cancel(ctx context.Context, bookingID string) error {
	booking, err := c.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load booking: %w", err)
	}
	if booking.Status == models.StatusCancelled {
		metrics.IncCancellation("already_cancelled")
		return ErrAlreadyCancelled
	}

	if _, err := models.Transition(booking.Status, models.StatusCancelled); err != nil {
		// Engine or caller bug: the lifecycle table has no such edge.
		c.logger.Error().Err(err).Str("booking_id", bookingID).Str("status", string(booking.Status)).Msg("illegal lifecycle transition")
		metrics.IncCancellation("invalid_transition")
		return err
	}

	key := availability.Key{TableID: booking.TableID, Date: booking.DateKey()}
	release, err := c.locks.Acquire(ctx, key, c.lockTimeout)
	if err != nil {
		metrics.IncCancellation("busy")
		return err
	}
	defer release()

	// Bounded optimistic retries against concurrent status writers.
	for attempt := 0; ; attempt++ {
		err = c.store.UpdateBookingStatusWithVersion(ctx, bookingID, booking.Version, models.StatusCancelled)
		if err == nil {
			break
		}
		if !errors.Is(err, database.ErrConcurrentModification) {
			metrics.IncCancellation("error")
			return fmt.Errorf("cancel booking: %w", err)
		}
		if attempt+1 >= c.cancelRetries {
			metrics.IncCancellation("busy")
			return ErrBusy
		}
		booking, err = c.store.GetBooking(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("reload booking: %w", err)
		}
		if booking.Status == models.StatusCancelled {
			metrics.IncCancellation("already_cancelled")
			return ErrAlreadyCancelled
		}
	}

	c.index.Remove(key, bookingID)
	metrics.IncCancellation("cancelled")

	booking.Status = models.StatusCancelled
	c.afterCommit(ctx, events.EventBookingCancelled, booking, 0)
	return nil
}

// ListConfirmed returns the confirmed bookings for a table and date
// ordered by start time. Advisory only: a slot that looks free here
// is not reserved until Admit commits it.
func (c *Coordinator) ListConfirmed(ctx context.Context, tableID string, date time.Time) ([]*models.Booking, error) {
	return c.store.ListConfirmedByTableDate(ctx, tableID, date)
}

// SlotFree is the advisory "is this window open" probe used by the
// availability endpoint.
func (c *Coordinator) SlotFree(tableID string, date time.Time, slot models.Interval) bool {
	key := availability.Key{TableID: tableID, Date: date.Format(models.DateFormat)}
	_, conflict := c.index.Conflict(key, slot)
	return !conflict
}

// Occupancy returns the indexed windows for one table and date.
func (c *Coordinator) Occupancy(tableID string, date time.Time) []models.BookingWindow {
	key := availability.Key{TableID: tableID, Date: date.Format(models.DateFormat)}
	entries := c.index.Snapshot(key)
	windows := make([]models.BookingWindow, 0, len(entries))
	for _, e := range entries {
		windows = append(windows, models.BookingWindow{
			BookingID: e.BookingID,
			Start:     e.Slot.StartClock(),
			End:       e.Slot.EndClock(),
		})
	}
	return windows
}

func (c *Coordinator) afterCommit(ctx context.Context, eventType string, booking *models.Booking, tableNumber int) {
	if c.cache != nil {
		if err := c.cache.Invalidate(ctx, booking.TableID, booking.DateKey()); err != nil {
			c.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("slot cache invalidation failed")
		}
	}
	if c.bus != nil {
		payload := events.BookingEventPayload{
			BookingID:   booking.ID,
			UserID:      booking.UserID,
			TableID:     booking.TableID,
			TableNumber: tableNumber,
			Date:        booking.DateKey(),
			Start:       booking.Slot.StartClock(),
			End:         booking.Slot.EndClock(),
			Guests:      booking.Guests,
			Status:      string(booking.Status),
		}
		if err := c.bus.PublishJSON(eventType, payload); err != nil {
			c.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("event publish failed")
		}
	}
}
