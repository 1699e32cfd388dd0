package timeslot

import "fmt"

// BusinessHours defines the global operating window on the extended clock.
// An overnight salon that opens at 10:00 and closes at 02:00 next day is
// expressed as Open=10:00, Close=26:00.
type BusinessHours struct {
	Open        TimeOfDay
	Close       TimeOfDay
	SlotMinutes int
}

// DefaultBusinessHours matches the salon's published schedule: 10:00 until
// 02:00 next day, 15-minute booking grid.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Open:        FromClock(10, 0),
		Close:       FromClock(26, 0),
		SlotMinutes: 15,
	}
}

// ParseBusinessHours builds BusinessHours from config strings.
func ParseBusinessHours(open, close string, slotMinutes int) (BusinessHours, error) {
	o, err := ParseTimeOfDay(open)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("parse open: %w", err)
	}
	c, err := ParseTimeOfDay(close)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("parse close: %w", err)
	}
	if c <= o {
		return BusinessHours{}, fmt.Errorf("close %s must be after open %s (use extended hours for overnight)", c, o)
	}
	if slotMinutes <= 0 {
		slotMinutes = 15
	}
	return BusinessHours{Open: o, Close: c, SlotMinutes: slotMinutes}, nil
}

// Within reports whether t falls inside the operating window [Open, Close).
func (h BusinessHours) Within(t TimeOfDay) bool {
	return h.Open <= t && t < h.Close
}

// Fits reports whether a whole interval fits the operating window. A booking
// may start before close but must also end by close.
func (h BusinessHours) Fits(iv Interval) bool {
	return h.Open <= iv.Start && iv.End <= h.Close
}

// Slots produces every candidate start time from Open up to (excluding)
// Close on the configured grid. Pure function of the calendar; chronological
// and restartable.
func (h BusinessHours) Slots() []TimeOfDay {
	step := h.SlotMinutes
	if step <= 0 {
		step = 15
	}
	var slots []TimeOfDay
	for t := h.Open; t < h.Close; t = t.Add(step) {
		slots = append(slots, t)
	}
	return slots
}
