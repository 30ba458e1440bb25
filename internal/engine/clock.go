// Simulated-time helpers. Absolute simulated time is fractional minutes
// since the simulation epoch; routine logic works on the reduced
// minutes-since-midnight value.
package engine

import (
	"fmt"
	"math"
)

const minutesPerDay = 24 * 60

// MinutesSinceMidnight reduces absolute simulated minutes to a clock position
// in [0, 1440).
func MinutesSinceMidnight(simMinutes float64) float64 {
	m := math.Mod(simMinutes, minutesPerDay)
	if m < 0 {
		m += minutesPerDay
	}
	return m
}

// Day returns the zero-based simulated day number.
func Day(simMinutes float64) int {
	return int(math.Floor(simMinutes / minutesPerDay))
}

// FormatClock renders absolute simulated minutes as "Day N HH:MM".
func FormatClock(simMinutes float64) string {
	m := MinutesSinceMidnight(simMinutes)
	return fmt.Sprintf("Day %d %02d:%02d", Day(simMinutes)+1, int(m)/60, int(m)%60)
}

// TimeOfDay buckets the clock into the labels the decision service expects.
func TimeOfDay(simMinutes float64) string {
	switch h := int(MinutesSinceMidnight(simMinutes)) / 60; {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 22:
		return "evening"
	default:
		return "night"
	}
}
