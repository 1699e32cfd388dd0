package database

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ainaru/internal/models"
	"ainaru/internal/timeslot"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testBooking(therapistID int64, date, start, end string) *models.Booking {
	s, _ := timeslot.ParseTimeOfDay(start)
	e, _ := timeslot.ParseTimeOfDay(end)
	return &models.Booking{
		TherapistID: &therapistID,
		ServiceID:   1,
		Date:        date,
		StartTime:   s,
		EndTime:     e,
		Status:      models.StatusPending,
		TotalPrice:  600,
	}
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("AssignsCodeAndID", func(t *testing.T) {
		db := newTestDB(t)
		b := testBooking(1, "2026-09-01", "14:00", "15:00")
		require.NoError(t, db.CreateBooking(ctx, b))

		assert.NotZero(t, b.ID)
		assert.Regexp(t, regexp.MustCompile(`^AM\d{6}[0-9A-Z]{3}$`), b.BookingCode)
		assert.Equal(t, models.StatusPending, b.Status)
		assert.Equal(t, models.PaymentPending, b.PaymentStatus)

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.BookingCode, got.BookingCode)
		assert.Equal(t, timeslot.FromClock(14, 0), got.StartTime)
		assert.Equal(t, timeslot.FromClock(15, 0), got.EndTime)
	})

	t.Run("RejectsOverlapSameTherapist", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-09-01", "14:00", "15:00")))

		err := db.CreateBooking(ctx, testBooking(1, "2026-09-01", "14:30", "15:30"))
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("AllowsBackToBack", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-09-01", "14:00", "15:00")))
		assert.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-09-01", "15:00", "16:00")))
	})

	t.Run("AllowsOverlapOtherTherapist", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-09-01", "14:00", "15:00")))
		assert.NoError(t, db.CreateBooking(ctx, testBooking(2, "2026-09-01", "14:00", "15:00")))
	})

	t.Run("CancelledBookingFreesSlot", func(t *testing.T) {
		db := newTestDB(t)
		first := testBooking(1, "2026-09-01", "14:00", "15:00")
		require.NoError(t, db.CreateBooking(ctx, first))
		require.NoError(t, db.UpdateBookingStatus(ctx, first.ID, models.StatusCancelled, "test"))

		assert.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-09-01", "14:00", "15:00")))
	})

	t.Run("OvernightOverlap", func(t *testing.T) {
		db := newTestDB(t)
		// 23:30 to 01:00 next day, stored as 23:30-25:00.
		require.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-09-01", "23:30", "25:00")))

		err := db.CreateBooking(ctx, testBooking(1, "2026-09-01", "24:30", "25:30"))
		assert.ErrorIs(t, err, ErrSlotTaken)
	})
}

func TestCreateBookingConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.CreateBooking(ctx, testBooking(1, "2026-09-01", "14:00", "15:00"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent writer may win the slot")

	bookings, err := db.ListBookingsForDate(ctx, "2026-09-01", nil)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestUpdateBookingStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := testBooking(1, "2026-09-01", "14:00", "15:00")
	require.NoError(t, db.CreateBooking(ctx, b))

	require.NoError(t, db.UpdateBookingStatus(ctx, b.ID, models.StatusConfirmed, ""))
	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Empty(t, got.CancelledReason)

	require.NoError(t, db.UpdateBookingStatus(ctx, b.ID, models.StatusCancelled, "guest request"))
	got, err = db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "guest request", got.CancelledReason)

	assert.ErrorIs(t, db.UpdateBookingStatus(ctx, 9999, models.StatusConfirmed, ""), ErrNotFound)
}

func TestGetBookingByCode(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := testBooking(1, "2026-09-01", "14:00", "15:00")
	require.NoError(t, db.CreateBooking(ctx, b))

	got, err := db.GetBookingByCode(ctx, b.BookingCode)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = db.GetBookingByCode(ctx, "AM000000ZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-09-01", "14:00", "15:00")))
	require.NoError(t, db.CreateBooking(ctx, testBooking(2, "2026-09-02", "10:00", "11:00")))
	confirmed := testBooking(1, "2026-09-03", "12:00", "13:00")
	require.NoError(t, db.CreateBooking(ctx, confirmed))
	require.NoError(t, db.UpdateBookingStatus(ctx, confirmed.ID, models.StatusConfirmed, ""))

	t.Run("ByStatus", func(t *testing.T) {
		got, err := db.ListBookings(ctx, BookingFilter{Status: models.StatusConfirmed})
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, confirmed.ID, got[0].ID)
	})

	t.Run("ByTherapist", func(t *testing.T) {
		got, err := db.ListBookings(ctx, BookingFilter{TherapistID: 2})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("ByDateRange", func(t *testing.T) {
		got, err := db.ListBookings(ctx, BookingFilter{DateFrom: "2026-09-02", DateTo: "2026-09-03"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Limit", func(t *testing.T) {
		got, err := db.ListBookings(ctx, BookingFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestListBookingsInRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-09-01", "14:00", "15:00")))
	require.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-09-15", "14:00", "15:00")))
	require.NoError(t, db.CreateBooking(ctx, testBooking(1, "2026-10-01", "14:00", "15:00")))

	got, err := db.ListBookingsInRange(ctx, "2026-09-01", "2026-09-30", nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	// Ordered by date.
	assert.Equal(t, "2026-09-01", got[0].Date)
	assert.Equal(t, "2026-09-15", got[1].Date)
}
