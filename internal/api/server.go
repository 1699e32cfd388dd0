// Package api exposes the scheduling core over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"ainaru/internal/database"
	"ainaru/internal/models"
	"ainaru/internal/scheduling"
)

// Store is the read surface the API needs beyond the scheduler.
type Store interface {
	ListBookings(ctx context.Context, filter database.BookingFilter) ([]models.Booking, error)
	ListActiveServices(ctx context.Context) ([]models.Service, error)
}

// Server serves the booking API.
type Server struct {
	scheduler *scheduling.Scheduler
	store     Store
	logger    *zerolog.Logger
	validate  *validator.Validate
	http      *http.Server
}

// NewServer creates an API server listening on addr.
func NewServer(addr string, scheduler *scheduling.Scheduler, store Store, logger *zerolog.Logger) *Server {
	s := &Server{
		scheduler: scheduler,
		store:     store,
		logger:    logger,
		validate:  validator.New(),
	}

	router := httprouter.New()
	router.GET("/api/availability", s.handleAvailability)
	router.POST("/api/bookings", s.handleCreateBooking)
	router.GET("/api/bookings", s.handleListBookings)
	router.GET("/api/bookings/:id", s.handleGetBooking)
	router.PUT("/api/bookings/:id", s.handleUpdateBooking)
	router.DELETE("/api/bookings/:id", s.handleCancelBooking)
	router.GET("/api/calendar", s.handleCalendar)
	router.GET("/api/calendar/export", s.handleCalendarExport)
	router.GET("/api/services", s.handleListServices)
	router.GET("/healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP API listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps scheduling errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scheduling.ErrInvalidRequest),
		errors.Is(err, scheduling.ErrOutsideBusinessHours):
		status = http.StatusBadRequest
	case errors.Is(err, scheduling.ErrSlotUnavailable),
		errors.Is(err, scheduling.ErrTherapistUnavailable),
		errors.Is(err, scheduling.ErrNotCancellable),
		errors.Is(err, scheduling.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, scheduling.ErrCodeGenerationExhausted):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
		s.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
