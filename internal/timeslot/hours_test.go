package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBusinessHours(t *testing.T) {
	h := DefaultBusinessHours()
	assert.Equal(t, FromClock(10, 0), h.Open)
	assert.Equal(t, FromClock(26, 0), h.Close)

	// 16 hours on a 15-minute grid.
	slots := h.Slots()
	assert.Len(t, slots, 64)
	assert.Equal(t, FromClock(10, 0), slots[0])
	assert.Equal(t, FromClock(25, 45), slots[len(slots)-1])
}

func TestBusinessHoursFits(t *testing.T) {
	h := DefaultBusinessHours()

	ok := func(s string) bool { return h.Fits(iv(t, s)) }
	assert.True(t, ok("10:00-11:00"))
	assert.True(t, ok("25:00-26:00"))
	assert.False(t, ok("09:00-10:00"))
	// Starting legally is not enough, the session must end by close.
	assert.False(t, ok("25:30-26:30"))
}

func TestBusinessHoursWithin(t *testing.T) {
	h := DefaultBusinessHours()
	assert.True(t, h.Within(FromClock(10, 0)))
	assert.True(t, h.Within(FromClock(25, 59)))
	assert.False(t, h.Within(FromClock(26, 0)))
	assert.False(t, h.Within(FromClock(9, 59)))
}

func TestParseBusinessHours(t *testing.T) {
	h, err := ParseBusinessHours("10:00", "26:00", 60)
	assert.NoError(t, err)
	assert.Len(t, h.Slots(), 16)

	_, err = ParseBusinessHours("10:00", "09:00", 15)
	assert.Error(t, err)
}
