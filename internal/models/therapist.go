package models

import (
	"encoding/json"
	"fmt"
	"time"

	"ainaru/internal/timeslot"
)

// WorkingSchedule maps lowercase weekday names to working-hours ranges in
// "HH:MM-HH:MM" notation (extended hours allowed). A missing weekday is a
// day off.
type WorkingSchedule map[string]string

// Therapist is a bookable resource. The scheduling core reads it; mutation
// belongs to the admin surface.
type Therapist struct {
	ID          int64           `json:"id"`
	DisplayName string          `json:"display_name"`
	Rating      float64         `json:"rating"`
	IsAvailable bool            `json:"is_available"`
	Schedule    WorkingSchedule `json:"schedule"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WorkingHoursOn resolves the therapist's working interval for a date.
// Returns false if the therapist does not work that weekday.
func (t *Therapist) WorkingHoursOn(date string) (timeslot.Interval, bool, error) {
	weekday, err := WeekdayName(date)
	if err != nil {
		return timeslot.Interval{}, false, err
	}

	raw, ok := t.Schedule[weekday]
	if !ok || raw == "" {
		return timeslot.Interval{}, false, nil
	}

	iv, err := timeslot.ParseInterval(raw)
	if err != nil {
		return timeslot.Interval{}, false, fmt.Errorf("therapist %d schedule %q: %w", t.ID, raw, err)
	}
	return iv, true, nil
}

// ParseWorkingSchedule decodes the JSON form schedules are persisted in.
// An empty or NULL column means no working days.
func ParseWorkingSchedule(raw string) (WorkingSchedule, error) {
	if raw == "" {
		return WorkingSchedule{}, nil
	}
	var ws WorkingSchedule
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		return nil, fmt.Errorf("parse working schedule: %w", err)
	}
	return ws, nil
}

// Encode serializes the schedule for storage.
func (ws WorkingSchedule) Encode() (string, error) {
	data, err := json.Marshal(ws)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
