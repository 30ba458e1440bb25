package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyQuantization(t *testing.T) {
	// Differences below the sixth decimal collapse onto one key.
	assert.Equal(t, Key(45.4371239, 12.3345671), Key(45.4371241, 12.3345669))
	assert.NotEqual(t, Key(45.437123, 12.334567), Key(45.437124, 12.334567))
}

func TestDistance(t *testing.T) {
	a := Coordinate{Lat: 45.44, Lng: 12.33}
	assert.Zero(t, Distance(a, a))

	// One thousandth of a degree of latitude is roughly 111 meters.
	b := Coordinate{Lat: 45.441, Lng: 12.33}
	d := Distance(a, b)
	assert.InDelta(t, 111, d, 1)
	assert.Equal(t, d, Distance(b, a))
}

func TestPathLength(t *testing.T) {
	a := Coordinate{Lat: 45.44, Lng: 12.33}
	b := Coordinate{Lat: 45.441, Lng: 12.33}
	c := Coordinate{Lat: 45.442, Lng: 12.33}

	assert.Zero(t, PathLength(nil))
	assert.Zero(t, PathLength([]Coordinate{a}))
	assert.InDelta(t, Distance(a, b)+Distance(b, c), PathLength([]Coordinate{a, b, c}), 1e-9)
}

func TestTimeDistanceConversions(t *testing.T) {
	// Ten minutes of walking at 1.4 m/s is 840 meters.
	require.InDelta(t, 840, MinutesToMeters(10), 1e-9)
	assert.InDelta(t, 10, MetersToMinutes(MinutesToMeters(10)), 1e-9)
}

func TestBoundsContains(t *testing.T) {
	assert.True(t, VeniceBounds.Contains(Coordinate{Lat: 45.44, Lng: 12.33}))
	assert.True(t, VeniceBounds.Contains(Coordinate{Lat: 45.406, Lng: 12.285}), "bounds are inclusive")
	assert.False(t, VeniceBounds.Contains(Coordinate{Lat: 45.5, Lng: 12.33}))
	assert.False(t, VeniceBounds.Contains(Coordinate{Lat: 45.44, Lng: 12.5}))
}
