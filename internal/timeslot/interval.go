package timeslot

import "fmt"

// Interval is a half-open [Start, End) time range within one business day.
// Immutable value type; Start < End always holds for intervals built through
// NewInterval.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewInterval validates start < end.
func NewInterval(start, end TimeOfDay) (Interval, error) {
	if start >= end {
		return Interval{}, fmt.Errorf("interval start %s is not before end %s", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval parses "HH:MM-HH:MM" (therapist schedule notation).
func ParseInterval(s string) (Interval, error) {
	parts := splitRange(s)
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("invalid interval format: %q", s)
	}
	start, err := ParseTimeOfDay(parts[0])
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseTimeOfDay(parts[1])
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(start, end)
}

func splitRange(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// Duration returns the interval length in minutes.
func (iv Interval) Duration() int { return int(iv.End - iv.Start) }

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Contains reports whether inner lies entirely within iv.
func (iv Interval) Contains(inner Interval) bool {
	return iv.Start <= inner.Start && inner.End <= iv.End
}

// ContainsTime reports whether t falls within [Start, End).
func (iv Interval) ContainsTime(t TimeOfDay) bool {
	return iv.Start <= t && t < iv.End
}

// String renders "HH:MM-HH:MM" in extended notation.
func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}

// Display renders the wall-clock form, e.g. "23:30-01:00".
func (iv Interval) Display() string {
	return iv.Start.Display() + "-" + iv.End.Display()
}
