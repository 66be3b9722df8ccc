package service

import (
	"context"
	"testing"
	"time"

	"github.com/runnerstay/booking-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAvailability_ReserveReleaseRoundTrip(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	propertyID := uint(1)
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 3)

	before, err := s.availability.IsAvailable(ctx, propertyID, from, to)
	require.NoError(t, err)
	require.True(t, before)

	require.NoError(t, s.availability.ReserveTx(ctx, s.db, propertyID, from, to, 7))

	during, err := s.availability.IsAvailable(ctx, propertyID, from, to)
	require.NoError(t, err)
	assert.False(t, during)

	require.NoError(t, s.availability.ReleaseTx(ctx, s.db, 7))

	after, err := s.availability.IsAvailable(ctx, propertyID, from, to)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAvailability_ReserveIsIdempotentPerBooking(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 2)

	require.NoError(t, s.availability.ReserveTx(ctx, s.db, 1, from, to, 7))
	// Same booking again: no-op.
	require.NoError(t, s.availability.ReserveTx(ctx, s.db, 1, from, to, 7))

	// Different booking: conflict.
	err := s.availability.ReserveTx(ctx, s.db, 1, from, to, 8)
	assert.ErrorIs(t, err, ErrAvailabilityConflict)

	entries, err := s.availability.Calendar(ctx, 1, from, to)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, models.DateReserved, e.Status)
		require.NotNil(t, e.BookingID)
		assert.Equal(t, uint(7), *e.BookingID)
	}
}

func TestAvailability_PartialOverlapConflicts(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.availability.ReserveTx(ctx, s.db, 1, from, from.AddDate(0, 0, 2), 7))

	// Overlaps the second night.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.availability.ReserveTx(ctx, tx, 1, from.AddDate(0, 0, 1), from.AddDate(0, 0, 3), 8)
	})
	assert.ErrorIs(t, err, ErrAvailabilityConflict)

	// The rollback left nothing behind for booking 8.
	entries, err := s.availability.Calendar(ctx, 1, from, from.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAvailability_BackToBackStaysDoNotConflict(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	// Check-out day is exclusive, so a stay starting that day fits.
	require.NoError(t, s.availability.ReserveTx(ctx, s.db, 1, from, from.AddDate(0, 0, 2), 7))
	require.NoError(t, s.availability.ReserveTx(ctx, s.db, 1, from.AddDate(0, 0, 2), from.AddDate(0, 0, 4), 8))
}

func TestAvailability_HostBlocksSurviveRelease(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.availability.Block(ctx, 1, from, from.AddDate(0, 0, 1), "renovation"))
	require.NoError(t, s.availability.ReserveTx(ctx, s.db, 1, from.AddDate(0, 0, 1), from.AddDate(0, 0, 3), 7))

	// Releasing the booking never frees the host's block.
	require.NoError(t, s.availability.ReleaseTx(ctx, s.db, 7))

	entries, err := s.availability.Calendar(ctx, 1, from, from.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.DateBlocked, entries[0].Status)
	assert.Equal(t, models.DateAvailable, entries[1].Status)
	assert.Equal(t, models.DateAvailable, entries[2].Status)
}

func TestAvailability_CannotReserveBlockedDate(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.availability.Block(ctx, 1, from, from.AddDate(0, 0, 1), ""))
	err := s.availability.ReserveTx(ctx, s.db, 1, from, from.AddDate(0, 0, 2), 7)
	assert.ErrorIs(t, err, ErrAvailabilityConflict)
}

func TestAvailability_CannotBlockReservedDate(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.availability.ReserveTx(ctx, s.db, 1, from, from.AddDate(0, 0, 1), 7))
	err := s.availability.Block(ctx, 1, from, from.AddDate(0, 0, 1), "renovation")
	assert.ErrorIs(t, err, ErrAvailabilityConflict)
}

func TestAvailability_Unblock(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 2)

	require.NoError(t, s.availability.Block(ctx, 1, from, to, "renovation"))
	require.NoError(t, s.availability.Unblock(ctx, 1, from, to))

	available, err := s.availability.IsAvailable(ctx, 1, from, to)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestAvailability_UnblockLeavesReservations(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.availability.ReserveTx(ctx, s.db, 1, from, from.AddDate(0, 0, 1), 7))
	require.NoError(t, s.availability.Unblock(ctx, 1, from, from.AddDate(0, 0, 1)))

	entries, err := s.availability.Calendar(ctx, 1, from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.DateReserved, entries[0].Status)
}
