package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinutesSinceMidnight(t *testing.T) {
	assert.Zero(t, MinutesSinceMidnight(0))
	assert.InDelta(t, 90.5, MinutesSinceMidnight(90.5), 1e-9)
	assert.InDelta(t, 30, MinutesSinceMidnight(24*60+30), 1e-9)
	assert.InDelta(t, 1439, MinutesSinceMidnight(-1), 1e-9)
}

func TestDay(t *testing.T) {
	assert.Equal(t, 0, Day(0))
	assert.Equal(t, 0, Day(1439))
	assert.Equal(t, 1, Day(1440))
	assert.Equal(t, 2, Day(2*1440+5))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "Day 1 00:00", FormatClock(0))
	assert.Equal(t, "Day 1 06:30", FormatClock(6*60+30))
	assert.Equal(t, "Day 2 08:05", FormatClock(1440+8*60+5))
}

func TestTimeOfDay(t *testing.T) {
	assert.Equal(t, "night", TimeOfDay(3*60))
	assert.Equal(t, "morning", TimeOfDay(5*60))
	assert.Equal(t, "morning", TimeOfDay(11*60+59))
	assert.Equal(t, "afternoon", TimeOfDay(12*60))
	assert.Equal(t, "evening", TimeOfDay(17*60))
	assert.Equal(t, "night", TimeOfDay(22*60))
	assert.Equal(t, "morning", TimeOfDay(1440+6*60), "buckets reduce to the clock, not absolute time")
}
