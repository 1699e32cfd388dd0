package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"ainaru/internal/database"
	"ainaru/internal/export"
	"ainaru/internal/metrics"
	"ainaru/internal/scheduling"
	"ainaru/internal/timeslot"
)

// GET /api/availability?date=YYYY-MM-DD&duration_minutes=N[&therapist_id=N]
//
// Callers may pass service_id instead of duration_minutes; the service's
// duration is looked up for them.
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("availability")
	q := r.URL.Query()

	date := q.Get("date")

	duration := intQuery(q.Get("duration_minutes"), 0)
	if duration == 0 {
		serviceID, err := strconv.ParseInt(q.Get("service_id"), 10, 64)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: duration_minutes or service_id is required", scheduling.ErrInvalidRequest))
			return
		}
		svc, err := s.scheduler.Service(r.Context(), serviceID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		duration = svc.DurationMinutes
	}

	therapistID, err := optionalID(q.Get("therapist_id"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid therapist_id", scheduling.ErrInvalidRequest))
		return
	}

	slots, err := s.scheduler.AvailableSlots(r.Context(), date, duration, therapistID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date,
		"slots": slots,
	})
}

type createBookingRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Start       string `json:"start" validate:"required"`
	ServiceID   int64  `json:"service_id" validate:"required,gt=0"`
	TherapistID *int64 `json:"therapist_id" validate:"omitempty,gt=0"`
	HotelID     *int64 `json:"hotel_id" validate:"omitempty,gt=0"`
	Notes       string `json:"notes" validate:"max=500"`
	ClientRef   string `json:"client_ref" validate:"max=64"`
}

// POST /api/bookings
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("create_booking")

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body", scheduling.ErrInvalidRequest))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", scheduling.ErrInvalidRequest, err))
		return
	}

	start, err := timeslot.ParseTimeOfDay(req.Start)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid start time %q", scheduling.ErrInvalidRequest, req.Start))
		return
	}

	booking, err := s.scheduler.CreateBooking(r.Context(), scheduling.CreateBookingRequest{
		Date:        req.Date,
		Start:       start,
		ServiceID:   req.ServiceID,
		TherapistID: req.TherapistID,
		HotelID:     req.HotelID,
		Notes:       req.Notes,
		ClientRef:   req.ClientRef,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, booking)
}

// GET /api/bookings/:id
func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	metrics.IncHTTP("get_booking")

	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid booking id", scheduling.ErrInvalidRequest))
		return
	}

	booking, err := s.scheduler.Booking(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, booking)
}

type updateBookingRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed"`
}

// PUT /api/bookings/:id advances the booking through its status machine.
func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	metrics.IncHTTP("update_booking")

	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid booking id", scheduling.ErrInvalidRequest))
		return
	}

	var req updateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body", scheduling.ErrInvalidRequest))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", scheduling.ErrInvalidRequest, err))
		return
	}

	var booking interface{}
	switch req.Status {
	case "confirmed":
		booking, err = s.scheduler.ConfirmBooking(r.Context(), id)
	case "completed":
		booking, err = s.scheduler.CompleteBooking(r.Context(), id)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, booking)
}

type cancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// DELETE /api/bookings/:id
func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	metrics.IncHTTP("cancel_booking")

	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid booking id", scheduling.ErrInvalidRequest))
		return
	}

	var req cancelBookingRequest
	if r.Body != nil {
		// Body is optional for cancellations.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	booking, err := s.scheduler.CancelBooking(r.Context(), id, 0, req.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, booking)
}

// GET /api/bookings?status=&date_from=&date_to=&therapist_id=&hotel_id=&limit=&offset=
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("list_bookings")
	q := r.URL.Query()

	filter := database.BookingFilter{
		Status:   q.Get("status"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
	if filter.Status != "" && !validStatusFilter(filter.Status) {
		s.writeError(w, fmt.Errorf("%w: unknown status %q", scheduling.ErrInvalidRequest, filter.Status))
		return
	}
	for name, dst := range map[string]*int64{
		"therapist_id": &filter.TherapistID,
		"hotel_id":     &filter.HotelID,
	} {
		if v := q.Get(name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				s.writeError(w, fmt.Errorf("%w: invalid %s", scheduling.ErrInvalidRequest, name))
				return
			}
			*dst = n
		}
	}
	filter.Limit = intQuery(q.Get("limit"), 100)
	filter.Offset = intQuery(q.Get("offset"), 0)

	bookings, err := s.store.ListBookings(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GET /api/calendar?year=&month=[&therapist_id=]
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("calendar")

	cal, err := s.monthlyCalendar(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cal)
}

// GET /api/calendar/export renders the month as an Excel workbook.
func (s *Server) handleCalendarExport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("calendar_export")

	cal, err := s.monthlyCalendar(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	xw := export.NewExcelizeWriter()
	defer xw.Close()
	if err := export.WriteMonthlyReport(xw, cal); err != nil {
		s.writeError(w, err)
		return
	}

	filename := fmt.Sprintf("bookings-%04d-%02d.xlsx", cal.Year, cal.Month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := xw.Save(w); err != nil {
		s.logger.Error().Err(err).Msg("failed to stream export")
	}
}

func (s *Server) monthlyCalendar(r *http.Request) (*scheduling.MonthlyCalendar, error) {
	q := r.URL.Query()

	now := time.Now()
	year := intQuery(q.Get("year"), now.Year())
	month := intQuery(q.Get("month"), int(now.Month()))

	therapistID, err := optionalID(q.Get("therapist_id"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid therapist_id", scheduling.ErrInvalidRequest)
	}
	return s.scheduler.MonthlyCalendar(r.Context(), year, month, therapistID)
}

// GET /api/services
func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("list_services")

	services, err := s.store.ListActiveServices(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"services": services,
	})
}

func validStatusFilter(status string) bool {
	switch status {
	case "pending", "confirmed", "completed", "cancelled":
		return true
	}
	return false
}

func optionalID(v string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid id %q", v)
	}
	return &n, nil
}

func intQuery(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
