package models

import (
	"strings"
	"time"

	"ainaru/internal/timeslot"
)

// Booking statuses. pending -> confirmed -> completed; pending and confirmed
// may be cancelled. completed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment statuses mirror the payment gateway's view of the booking.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

var statusTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Booking represents a reservation record.
type Booking struct {
	ID              int64              `json:"id"`
	BookingCode     string             `json:"booking_code"`
	TherapistID     *int64             `json:"therapist_id,omitempty"`
	ServiceID       int64              `json:"service_id"`
	HotelID         *int64             `json:"hotel_id,omitempty"`
	Date            string             `json:"date"` // YYYY-MM-DD
	StartTime       timeslot.TimeOfDay `json:"-"`
	EndTime         timeslot.TimeOfDay `json:"-"`
	Status          string             `json:"status"`
	PaymentStatus   string             `json:"payment_status"`
	TotalPrice      int64              `json:"total_price"`
	Notes           string             `json:"notes,omitempty"`
	ClientRef       string             `json:"client_ref,omitempty"` // caller-supplied reference (bot chat, web session)
	CancelledReason string             `json:"cancelled_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Interval returns the booking's time range on the extended clock.
func (b *Booking) Interval() timeslot.Interval {
	return timeslot.Interval{Start: b.StartTime, End: b.EndTime}
}

// OverlapsWith checks interval overlap with another booking on the same date.
// Half-open semantics: back-to-back bookings do not conflict.
func (b *Booking) OverlapsWith(other *Booking) bool {
	if b.Date != other.Date {
		return false
	}
	return b.Interval().Overlaps(other.Interval())
}

// IsActive reports whether the booking still occupies its slot.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// StartsAt combines the booking date with its (possibly extended) start time
// into an absolute instant in loc.
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", b.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(b.StartTime) * time.Minute), nil
}

// DateOf formats a date the way bookings store it.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekdayName returns the lowercase weekday key a therapist schedule uses.
func WeekdayName(date string) (string, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", err
	}
	return strings.ToLower(day.Weekday().String()), nil
}
