package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stolik/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTestTable(t *testing.T, db *DB) *models.Table {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.SeedTables(ctx, []models.Table{
		{Number: 1, Capacity: 4, Location: models.LocationIndoor},
	}))
	table, err := db.GetTableByNumber(ctx, 1)
	require.NoError(t, err)
	return table
}

func seedTestUser(t *testing.T, db *DB) *models.User {
	t.Helper()
	user := &models.User{Email: "test@example.com", Name: "Test User", Phone: "+15550101"}
	require.NoError(t, db.CreateOrUpdateUser(context.Background(), user))
	return user
}

func newBooking(userID, tableID string, start, end int) *models.Booking {
	return &models.Booking{
		ID:      uuid.NewString(),
		UserID:  userID,
		TableID: tableID,
		Date:    time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Slot:    models.Interval{Start: start, End: end},
		Guests:  2,
		Status:  models.StatusConfirmed,
	}
}

func TestHealthy(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Healthy(context.Background()))
}

func TestSeedTablesIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tables := []models.Table{
		{Number: 1, Capacity: 2, Location: models.LocationIndoor},
		{Number: 2, Capacity: 4, Location: models.LocationOutdoor},
	}

	require.NoError(t, db.SeedTables(ctx, tables))
	require.NoError(t, db.SeedTables(ctx, tables))

	got, err := db.ListTables(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBookingRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	table := seedTestTable(t, db)
	user := seedTestUser(t, db)

	booking := newBooking(user.ID, table.ID, 18*60, 19*60+30)
	require.NoError(t, db.InsertBooking(ctx, booking))
	assert.Equal(t, int64(1), booking.Version)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
	assert.Equal(t, booking.UserID, got.UserID)
	assert.Equal(t, "2026-09-15", got.DateKey())
	assert.Equal(t, booking.Slot, got.Slot)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, int64(1), got.Version)
}

func TestGetBookingNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetBooking(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	table := seedTestTable(t, db)
	user := seedTestUser(t, db)

	booking := newBooking(user.ID, table.ID, 18*60, 19*60)
	require.NoError(t, db.InsertBooking(ctx, booking))

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, booking.ID, 1, models.StatusCancelled))

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestUpdateBookingStatusStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	table := seedTestTable(t, db)
	user := seedTestUser(t, db)

	booking := newBooking(user.ID, table.ID, 18*60, 19*60)
	require.NoError(t, db.InsertBooking(ctx, booking))

	// first writer bumps the version, the stale one must lose
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, booking.ID, 1, models.StatusCancelled))
	err := db.UpdateBookingStatusWithVersion(ctx, booking.ID, 1, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestListConfirmedByTableDateOrdering(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	table := seedTestTable(t, db)
	user := seedTestUser(t, db)

	late := newBooking(user.ID, table.ID, 20*60, 21*60)
	early := newBooking(user.ID, table.ID, 12*60, 13*60)
	cancelled := newBooking(user.ID, table.ID, 14*60, 15*60)
	require.NoError(t, db.InsertBooking(ctx, late))
	require.NoError(t, db.InsertBooking(ctx, early))
	require.NoError(t, db.InsertBooking(ctx, cancelled))
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, cancelled.ID, 1, models.StatusCancelled))

	got, err := db.ListConfirmedByTableDate(ctx, table.ID, late.Date)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
}

func TestListConfirmedReturnsAllDates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	table := seedTestTable(t, db)
	user := seedTestUser(t, db)

	past := newBooking(user.ID, table.ID, 18*60, 19*60)
	past.Date = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	future := newBooking(user.ID, table.ID, 18*60, 19*60)
	cancelled := newBooking(user.ID, table.ID, 20*60, 21*60)
	require.NoError(t, db.InsertBooking(ctx, past))
	require.NoError(t, db.InsertBooking(ctx, future))
	require.NoError(t, db.InsertBooking(ctx, cancelled))
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, cancelled.ID, 1, models.StatusCancelled))

	got, err := db.ListConfirmed(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, past.ID, got[0].ID, "old dates must not be filtered out")
	assert.Equal(t, future.ID, got[1].ID)
}

func TestListBookingsByUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	table := seedTestTable(t, db)
	user := seedTestUser(t, db)

	other := &models.User{Email: "other@example.com", Name: "Other"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, other))

	mine := newBooking(user.ID, table.ID, 18*60, 19*60)
	theirs := newBooking(other.ID, table.ID, 20*60, 21*60)
	require.NoError(t, db.InsertBooking(ctx, mine))
	require.NoError(t, db.InsertBooking(ctx, theirs))

	got, err := db.ListBookingsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
}

func TestCreateOrUpdateUserUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := &models.User{Email: "upsert@example.com", Name: "Before"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, first))
	require.NotEmpty(t, first.ID)

	second := &models.User{Email: "upsert@example.com", Name: "After", Phone: "+15550102"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, second))

	// same email keeps the same identity
	assert.Equal(t, first.ID, second.ID)

	got, err := db.GetUserByEmail(ctx, "upsert@example.com")
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, "+15550102", got.Phone)
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
