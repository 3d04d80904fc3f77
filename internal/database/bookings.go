package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stolik/internal/models"
)

const bookingColumns = `id, user_id, table_id, date, start_time, end_time, guests, status, created_at, updated_at, version`

// InsertBooking persists a new booking row. The caller (reservation
// coordinator) holds the per-(table, date) exclusion, so no conflict
// check happens here.
func (db *DB) InsertBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (` + bookingColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.TableID,
		booking.DateKey(),
		booking.Slot.StartClock(),
		booking.Slot.EndClock(),
		booking.Guests,
		booking.Status,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// UpdateBookingStatusWithVersion commits a status change only when
// the row still carries fromVersion. Zero affected rows means another
// writer got there first.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status models.Status) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// ListConfirmedByTableDate returns the confirmed bookings for one
// table and date ordered by start time.
func (db *DB) ListConfirmedByTableDate(ctx context.Context, tableID string, date time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE table_id = ? AND date = ? AND status = ?
              ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query, tableID, date.Format(models.DateFormat), models.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed bookings: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (db *DB) ListBookingsByUser(ctx context.Context, userID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE user_id = ? ORDER BY date DESC, start_time DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (db *DB) ListBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE date >= ? AND date <= ?
              ORDER BY date ASC, start_time ASC`
	rows, err := db.QueryContext(ctx, query, start.Format(models.DateFormat), end.Format(models.DateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by date range: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

// ListConfirmed returns every confirmed booking regardless of date;
// the coordinator uses it to hydrate the availability index at
// startup. Filtering by date here would leave old bookings invisible
// to conflict checks after a restart.
func (db *DB) ListConfirmed(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE status = ?
              ORDER BY date ASC, start_time ASC`
	rows, err := db.QueryContext(ctx, query, models.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed bookings: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		dateStr    string
		startClock string
		endClock   string
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.TableID, &dateStr, &startClock, &endClock,
		&b.Guests, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.Date, err = time.Parse(models.DateFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	b.Slot, err = models.ParseInterval(startClock, endClock)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking slot: %w", err)
	}
	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
