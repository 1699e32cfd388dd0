// Package scheduling implements the appointment scheduling core: availability
// computation, booking creation with double-booking protection, status
// transitions and the monthly calendar projection.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"ainaru/internal/database"
	"ainaru/internal/metrics"
	"ainaru/internal/models"
	"ainaru/internal/timeslot"
)

// Repository is the persistence surface the scheduler needs.
type Repository interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status, reason string) error
	ListBookingsForDate(ctx context.Context, date string, therapistID *int64) ([]models.Booking, error)
	ListBookingsInRange(ctx context.Context, from, to string, therapistID *int64) ([]models.Booking, error)
	GetService(ctx context.Context, id int64) (*models.Service, error)
	GetTherapist(ctx context.Context, id int64) (*models.Therapist, error)
	ListAvailableTherapists(ctx context.Context) ([]models.Therapist, error)
}

// Slot is a bookable start time: canonical extended form for ordering and
// comparison, wall-clock form for display.
type Slot struct {
	Time    timeslot.TimeOfDay `json:"-"`
	Start   string             `json:"start"`   // extended, e.g. "25:00"
	Display string             `json:"display"` // wall clock, e.g. "01:00"
}

// CreateBookingRequest carries everything needed to place a reservation.
// Start may be given in wall-clock form; small-hours times are lifted onto
// the extended clock of the business day.
type CreateBookingRequest struct {
	Date        string
	Start       timeslot.TimeOfDay
	ServiceID   int64
	TherapistID *int64
	HotelID     *int64
	Notes       string
	ClientRef   string
}

// CalendarDay groups one date's bookings, ordered by start time.
type CalendarDay struct {
	Date     string           `json:"date"`
	Bookings []models.Booking `json:"bookings"`
}

// MonthlyCalendar is the month projection of confirmed reservations.
type MonthlyCalendar struct {
	Year          int           `json:"year"`
	Month         int           `json:"month"`
	Days          []CalendarDay `json:"days"`
	TotalBookings int           `json:"total_bookings"`
}

// Scheduler is the scheduling core's entry point.
type Scheduler struct {
	repo         Repository
	hours        timeslot.BusinessHours
	cancelCutoff time.Duration
	loc          *time.Location
	logger       *zerolog.Logger
	now          func() time.Time
}

// NewScheduler wires the scheduler. cancelCutoff <= 0 falls back to the
// 24-hour policy.
func NewScheduler(repo Repository, hours timeslot.BusinessHours, cancelCutoff time.Duration, logger *zerolog.Logger) *Scheduler {
	if cancelCutoff <= 0 {
		cancelCutoff = 24 * time.Hour
	}
	return &Scheduler{
		repo:         repo,
		hours:        hours,
		cancelCutoff: cancelCutoff,
		loc:          time.Local,
		logger:       logger,
		now:          time.Now,
	}
}

// AvailableSlots returns every start time on the booking grid where a
// service of the given duration can begin on date. With therapistID pinned,
// only that therapist's schedule and bookings matter; otherwise a slot is
// available when at least one available therapist is working and free for
// the whole interval. Chronological and idempotent over unchanged storage.
func (s *Scheduler) AvailableSlots(ctx context.Context, date string, durationMinutes int, therapistID *int64) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidRequest)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidRequest, date)
	}

	therapists, err := s.candidateTherapists(ctx, therapistID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookingsForDate(ctx, date, therapistID)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	byTherapist := groupByTherapist(bookings)

	// Resolve working hours once per therapist, not per slot.
	working := make(map[int64]timeslot.Interval, len(therapists))
	for _, t := range therapists {
		wh, ok, err := t.WorkingHoursOn(date)
		if err != nil {
			return nil, err
		}
		if ok {
			working[t.ID] = wh
		}
	}

	var available []Slot
	for _, start := range s.hours.Slots() {
		end := start.Add(durationMinutes)
		if end > s.hours.Close {
			// A session may not run past closing even if it starts legally.
			continue
		}
		candidate := timeslot.Interval{Start: start, End: end}

		if s.anyTherapistFree(therapists, working, byTherapist, candidate) {
			available = append(available, Slot{
				Time:    start,
				Start:   start.String(),
				Display: start.Display(),
			})
		}
	}

	s.logger.Debug().
		Str("date", date).
		Int("duration", durationMinutes).
		Int("slots", len(available)).
		Msg("availability computed")
	return available, nil
}

func (s *Scheduler) anyTherapistFree(
	therapists []models.Therapist,
	working map[int64]timeslot.Interval,
	byTherapist map[int64][]models.Booking,
	candidate timeslot.Interval,
) bool {
	for _, t := range therapists {
		wh, ok := working[t.ID]
		if !ok || !wh.Contains(candidate) {
			continue
		}
		if !overlapsAny(candidate, byTherapist[t.ID]) {
			return true
		}
	}
	return false
}

// CreateBooking validates the request, re-runs the availability checks for
// the specific interval, assigns a therapist if none was requested, and
// commits the reservation. The store's transaction is the serialization
// point; the checks here are defense in depth against stale availability
// data.
func (s *Scheduler) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	svc, interval, err := s.validateRequest(ctx, &req)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookingsForDate(ctx, req.Date, nil)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	byTherapist := groupByTherapist(bookings)

	var therapist *models.Therapist
	if req.TherapistID != nil {
		therapist, err = s.pinnedTherapist(ctx, *req.TherapistID, req.Date, interval, byTherapist)
	} else {
		therapist, err = s.bestTherapist(ctx, req.Date, interval, byTherapist)
	}
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		TherapistID:   &therapist.ID,
		ServiceID:     svc.ID,
		HotelID:       req.HotelID,
		Date:          req.Date,
		StartTime:     interval.Start,
		EndTime:       interval.End,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		TotalPrice:    svc.Price,
		Notes:         req.Notes,
		ClientRef:     req.ClientRef,
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		switch {
		case errors.Is(err, database.ErrSlotTaken):
			// Lost the race to a concurrent writer.
			return nil, ErrSlotUnavailable
		case errors.Is(err, database.ErrCodeExhausted):
			return nil, ErrCodeGenerationExhausted
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingCreated(booking.Status)
	s.logger.Info().
		Str("booking_code", booking.BookingCode).
		Int64("therapist_id", therapist.ID).
		Str("date", booking.Date).
		Str("interval", interval.String()).
		Msg("booking created")
	return booking, nil
}

func (s *Scheduler) validateRequest(ctx context.Context, req *CreateBookingRequest) (*models.Service, timeslot.Interval, error) {
	day, err := time.ParseInLocation("2006-01-02", req.Date, s.loc)
	if err != nil {
		return nil, timeslot.Interval{}, fmt.Errorf("%w: invalid date %q", ErrInvalidRequest, req.Date)
	}

	today := s.now().In(s.loc)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.loc)
	if day.Before(today) {
		return nil, timeslot.Interval{}, fmt.Errorf("%w: date is in the past", ErrInvalidRequest)
	}

	svc, err := s.repo.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, timeslot.Interval{}, fmt.Errorf("%w: unknown service", ErrInvalidRequest)
		}
		return nil, timeslot.Interval{}, fmt.Errorf("get service: %w", err)
	}
	if !svc.IsActive || svc.DurationMinutes <= 0 || svc.Price < 0 {
		return nil, timeslot.Interval{}, fmt.Errorf("%w: service not bookable", ErrInvalidRequest)
	}

	start := timeslot.Extend(req.Start, s.hours.Open)
	interval, err := timeslot.NewInterval(start, start.Add(svc.DurationMinutes))
	if err != nil {
		return nil, timeslot.Interval{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if !s.hours.Fits(interval) {
		return nil, timeslot.Interval{}, fmt.Errorf("%w: %s outside %s-%s",
			ErrOutsideBusinessHours, interval, s.hours.Open, s.hours.Close)
	}
	return svc, interval, nil
}

func (s *Scheduler) pinnedTherapist(ctx context.Context, id int64, date string, interval timeslot.Interval, byTherapist map[int64][]models.Booking) (*models.Therapist, error) {
	t, err := s.repo.GetTherapist(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrTherapistUnavailable
		}
		return nil, fmt.Errorf("get therapist: %w", err)
	}
	if !t.IsAvailable {
		return nil, ErrTherapistUnavailable
	}

	wh, ok, err := t.WorkingHoursOn(date)
	if err != nil {
		return nil, err
	}
	if !ok || !wh.Contains(interval) {
		return nil, ErrSlotUnavailable
	}
	if overlapsAny(interval, byTherapist[t.ID]) {
		return nil, ErrSlotUnavailable
	}
	return t, nil
}

// bestTherapist deterministically picks the highest-rated available
// therapist that is working and conflict-free for the interval, lowest id
// breaking rating ties. Only provably free therapists are considered, so
// auto-assignment can never double-book.
func (s *Scheduler) bestTherapist(ctx context.Context, date string, interval timeslot.Interval, byTherapist map[int64][]models.Booking) (*models.Therapist, error) {
	therapists, err := s.repo.ListAvailableTherapists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list therapists: %w", err)
	}

	sort.SliceStable(therapists, func(i, j int) bool {
		if therapists[i].Rating != therapists[j].Rating {
			return therapists[i].Rating > therapists[j].Rating
		}
		return therapists[i].ID < therapists[j].ID
	})

	for i := range therapists {
		t := &therapists[i]
		wh, ok, err := t.WorkingHoursOn(date)
		if err != nil {
			return nil, err
		}
		if !ok || !wh.Contains(interval) {
			continue
		}
		if overlapsAny(interval, byTherapist[t.ID]) {
			continue
		}
		return t, nil
	}
	return nil, ErrSlotUnavailable
}

func (s *Scheduler) candidateTherapists(ctx context.Context, therapistID *int64) ([]models.Therapist, error) {
	if therapistID == nil {
		therapists, err := s.repo.ListAvailableTherapists(ctx)
		if err != nil {
			return nil, fmt.Errorf("list therapists: %w", err)
		}
		return therapists, nil
	}

	t, err := s.repo.GetTherapist(ctx, *therapistID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrTherapistUnavailable
		}
		return nil, fmt.Errorf("get therapist: %w", err)
	}
	if !t.IsAvailable {
		return nil, ErrTherapistUnavailable
	}
	return []models.Therapist{*t}, nil
}

// CancelBooking cancels a reservation. A confirmed booking cannot be
// cancelled once less than the cutoff remains before its start; terminal
// bookings are never cancellable.
func (s *Scheduler) CancelBooking(ctx context.Context, id, requesterID int64, reason string) (*models.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status == models.StatusCancelled || booking.Status == models.StatusCompleted {
		return nil, ErrNotCancellable
	}

	if booking.Status == models.StatusConfirmed {
		startsAt, err := booking.StartsAt(s.loc)
		if err != nil {
			return nil, fmt.Errorf("booking %d start: %w", id, err)
		}
		if startsAt.Sub(s.now()) < s.cancelCutoff {
			return nil, ErrNotCancellable
		}
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, models.StatusCancelled, reason); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	metrics.IncBookingCancelled()
	s.logger.Info().
		Int64("booking_id", id).
		Int64("requester_id", requesterID).
		Str("reason", reason).
		Msg("booking cancelled")

	booking.Status = models.StatusCancelled
	booking.CancelledReason = reason
	return booking, nil
}

// ConfirmBooking moves a pending booking to confirmed.
func (s *Scheduler) ConfirmBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.transition(ctx, id, models.StatusConfirmed)
}

// CompleteBooking moves a confirmed booking to completed.
func (s *Scheduler) CompleteBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.transition(ctx, id, models.StatusCompleted)
}

func (s *Scheduler) transition(ctx context.Context, id int64, to string) (*models.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(booking.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, to)
	}
	if err := s.repo.UpdateBookingStatus(ctx, id, to, ""); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logger.Info().Int64("booking_id", id).Str("status", to).Msg("booking status updated")
	booking.Status = to
	return booking, nil
}

// MonthlyCalendar projects non-cancelled reservations of one month, grouped
// by date in chronological order. Pure read; no mutation.
func (s *Scheduler) MonthlyCalendar(ctx context.Context, year, month int, therapistID *int64) (*MonthlyCalendar, error) {
	if month < 1 || month > 12 || year < 1 {
		return nil, fmt.Errorf("%w: invalid year/month", ErrInvalidRequest)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	bookings, err := s.repo.ListBookingsInRange(ctx,
		models.DateOf(first), models.DateOf(last), therapistID)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	cal := &MonthlyCalendar{Year: year, Month: month, TotalBookings: len(bookings)}
	// Bookings arrive ordered by date then start time; group preserving order.
	for _, b := range bookings {
		if n := len(cal.Days); n == 0 || cal.Days[n-1].Date != b.Date {
			cal.Days = append(cal.Days, CalendarDay{Date: b.Date})
		}
		day := &cal.Days[len(cal.Days)-1]
		day.Bookings = append(day.Bookings, b)
	}
	return cal, nil
}

// Booking fetches a single reservation by id.
func (s *Scheduler) Booking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.getBooking(ctx, id)
}

// Service fetches a bookable service, rejecting unknown ids as invalid
// requests.
func (s *Scheduler) Service(ctx context.Context, id int64) (*models.Service, error) {
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown service", ErrInvalidRequest)
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

func (s *Scheduler) getBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

func groupByTherapist(bookings []models.Booking) map[int64][]models.Booking {
	grouped := make(map[int64][]models.Booking)
	for _, b := range bookings {
		if b.TherapistID == nil {
			continue
		}
		grouped[*b.TherapistID] = append(grouped[*b.TherapistID], b)
	}
	return grouped
}

func overlapsAny(candidate timeslot.Interval, bookings []models.Booking) bool {
	for _, b := range bookings {
		if candidate.Overlaps(b.Interval()) {
			return true
		}
	}
	return false
}
