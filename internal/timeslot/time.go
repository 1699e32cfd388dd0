// Package timeslot provides the time-of-day and interval primitives the
// scheduling core is built on. Times use an extended clock: a business day
// that runs past midnight keeps counting hours (26:00 = 02:00 next day), so
// interval comparisons stay plain integer comparisons.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is minutes since midnight of the business day. The hour component
// may exceed 24 for times that belong to the tail of an overnight schedule.
type TimeOfDay int

// FromClock builds a TimeOfDay from an hour (possibly >= 24) and minute.
func FromClock(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" (seconds tolerated and ignored). Hours above
// 23 are accepted as extended-clock notation.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}

	return FromClock(hour, minute), nil
}

// Hour returns the extended-clock hour (may be >= 24).
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute within the hour.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Add returns the time shifted by n minutes, keeping the extended clock.
func (t TimeOfDay) Add(n int) TimeOfDay { return t + TimeOfDay(n) }

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool { return t < other }

// String renders the canonical extended form, e.g. "26:00".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Display renders the wall-clock form shown to users, hour mod 24.
func (t TimeOfDay) Display() string {
	return fmt.Sprintf("%02d:%02d", t.Hour()%24, t.Minute())
}

// Extend lifts a wall-clock time onto the extended clock of a business day
// that opens at open: anything earlier than the opening hour is treated as
// belonging to the small hours after midnight.
func Extend(t, open TimeOfDay) TimeOfDay {
	if t < open {
		return t + 24*60
	}
	return t
}
