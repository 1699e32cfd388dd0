package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"ainaru/internal/models"
	"ainaru/internal/timeslot"
)

const codeAttempts = 10

const bookingColumns = `id, booking_code, therapist_id, service_id, hotel_id,
	date, start_time, end_time, status, payment_status, total_price,
	notes, client_ref, cancelled_reason, created_at, updated_at`

// newBookingCode builds "AM" + 6 digits + 3 uppercase alphanumerics. Not
// guaranteed unique; CreateBooking retries on collision.
func newBookingCode() string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits := time.Now().UnixMilli() % 1_000_000
	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("AM%06d%s", digits, suffix)
}

// CreateBooking inserts a reservation atomically. Inside one transaction it
// re-checks that no non-cancelled booking overlaps the interval for the
// therapist, generates a unique booking code (bounded retries), and inserts
// the row. On conflict nothing is written and ErrSlotTaken is returned.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if b.TherapistID != nil {
		var conflicts int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM bookings
			WHERE therapist_id = ? AND date = ? AND status != 'cancelled'
			AND start_time < ? AND end_time > ?`,
			*b.TherapistID, b.Date, b.EndTime.String(), b.StartTime.String(),
		).Scan(&conflicts)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if conflicts > 0 {
			return ErrSlotTaken
		}
	}

	code := ""
	for attempt := 0; attempt < codeAttempts; attempt++ {
		candidate := newBookingCode()
		var existing int64
		err = tx.QueryRowContext(ctx,
			"SELECT id FROM bookings WHERE booking_code = ?", candidate,
		).Scan(&existing)
		if err == sql.ErrNoRows {
			code = candidate
			break
		}
		if err != nil {
			return fmt.Errorf("check booking code: %w", err)
		}
	}
	if code == "" {
		return ErrCodeExhausted
	}

	now := time.Now()
	if b.Status == "" {
		b.Status = models.StatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = models.PaymentPending
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (
			booking_code, therapist_id, service_id, hotel_id, date,
			start_time, end_time, status, payment_status, total_price,
			notes, client_ref, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		code, b.TherapistID, b.ServiceID, b.HotelID, b.Date,
		b.StartTime.String(), b.EndTime.String(), b.Status, b.PaymentStatus,
		b.TotalPrice, b.Notes, b.ClientRef, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	b.ID = id
	b.BookingCode = code
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// GetBooking returns a booking by ID.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)
	return scanBooking(row)
}

// GetBookingByCode returns a booking by its human-facing code.
func (db *DB) GetBookingByCode(ctx context.Context, code string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE booking_code = ?", code)
	return scanBooking(row)
}

// UpdateBookingStatus sets a booking's status. The reason is only persisted
// for cancellations.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status, reason string) error {
	var result sql.Result
	var err error
	if status == models.StatusCancelled {
		result, err = db.ExecContext(ctx, `
			UPDATE bookings SET status = ?, cancelled_reason = ?, updated_at = ?
			WHERE id = ?`,
			status, reason, time.Now(), id)
	} else {
		result, err = db.ExecContext(ctx, `
			UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
			status, time.Now(), id)
	}
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBookingsForDate returns all non-cancelled bookings on a date,
// optionally pinned to one therapist, ordered by start time.
func (db *DB) ListBookingsForDate(ctx context.Context, date string, therapistID *int64) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE date = ? AND status != 'cancelled'`
	args := []any{date}
	if therapistID != nil {
		query += " AND therapist_id = ?"
		args = append(args, *therapistID)
	}
	query += " ORDER BY start_time"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListBookings returns bookings matching a typed filter, newest date first.
func (db *DB) ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	where, args := filter.compile()
	query := "SELECT " + bookingColumns + " FROM bookings " + where +
		" ORDER BY date DESC, start_time"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListBookingsInRange returns non-cancelled bookings with dates in
// [from, to] inclusive, ordered by date then start time. Read path for the
// calendar projection.
func (db *DB) ListBookingsInRange(ctx context.Context, from, to string, therapistID *int64) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE date >= ? AND date <= ? AND status != 'cancelled'`
	args := []any{from, to}
	if therapistID != nil {
		query += " AND therapist_id = ?"
		args = append(args, *therapistID)
	}
	query += " ORDER BY date, start_time"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var therapistID, hotelID sql.NullInt64
	var start, end string
	var notes, clientRef, reason sql.NullString

	err := row.Scan(
		&b.ID, &b.BookingCode, &therapistID, &b.ServiceID, &hotelID,
		&b.Date, &start, &end, &b.Status, &b.PaymentStatus, &b.TotalPrice,
		&notes, &clientRef, &reason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if therapistID.Valid {
		b.TherapistID = &therapistID.Int64
	}
	if hotelID.Valid {
		b.HotelID = &hotelID.Int64
	}
	b.Notes = notes.String
	b.ClientRef = clientRef.String
	b.CancelledReason = reason.String

	if b.StartTime, err = timeslot.ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("booking %d start_time: %w", b.ID, err)
	}
	if b.EndTime, err = timeslot.ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("booking %d end_time: %w", b.ID, err)
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
