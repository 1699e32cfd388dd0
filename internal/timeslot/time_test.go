package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Run("WallClock", func(t *testing.T) {
		tod, err := ParseTimeOfDay("10:30")
		assert.NoError(t, err)
		assert.Equal(t, 10, tod.Hour())
		assert.Equal(t, 30, tod.Minute())
	})

	t.Run("ExtendedHours", func(t *testing.T) {
		tod, err := ParseTimeOfDay("26:00")
		assert.NoError(t, err)
		assert.Equal(t, 26, tod.Hour())
		assert.Equal(t, "26:00", tod.String())
		assert.Equal(t, "02:00", tod.Display())
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, in := range []string{"", "10", "10:60", "-1:00", "aa:bb"} {
			_, err := ParseTimeOfDay(in)
			assert.Error(t, err, in)
		}
	})
}

func TestTimeOfDayArithmetic(t *testing.T) {
	start := FromClock(25, 0)
	assert.Equal(t, FromClock(26, 0), start.Add(60))
	assert.True(t, FromClock(10, 0).Before(FromClock(25, 0)))
	assert.Equal(t, "01:00", start.Display())
}

func TestExtend(t *testing.T) {
	open := FromClock(10, 0)

	// Small-hours wall-clock times are lifted past midnight.
	assert.Equal(t, FromClock(25, 0), Extend(FromClock(1, 0), open))
	// Times at or after opening stay as given.
	assert.Equal(t, FromClock(10, 0), Extend(FromClock(10, 0), open))
	assert.Equal(t, FromClock(23, 30), Extend(FromClock(23, 30), open))
	// Already-extended times pass through.
	assert.Equal(t, FromClock(26, 0), Extend(FromClock(26, 0), open))
}
