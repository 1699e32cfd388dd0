package models

import "time"

// Service is a bookable treatment. Deactivated instead of deleted while
// bookings still reference it.
type Service struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           int64     `json:"price"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Hotel is an opaque location reference carried on bookings.
type Hotel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
