// Package geo provides the coordinate primitives shared by the street graph,
// the catalogs, and the movement code: great-circle distance, coordinate
// quantization, and walking-time conversions.
package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// WalkingSpeed is the real-world pedestrian speed, in meters per second,
// used for every time/distance conversion in the simulation.
const WalkingSpeed = 1.4

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts to an orb.Point (lng/lat order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// FromPoint converts an orb.Point (lng/lat order) to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// Distance returns the great-circle distance between two coordinates in meters.
func Distance(a, b Coordinate) float64 {
	return orbgeo.DistanceHaversine(a.Point(), b.Point())
}

// PathLength sums the great-circle lengths of a polyline's segments.
func PathLength(path []Coordinate) float64 {
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		total += Distance(path[i], path[i+1])
	}
	return total
}

// Key returns a stable identifier for the quantized coordinate. Six decimal
// places is ~11cm at this latitude, so independently digitized layers that
// share an endpoint collapse onto the same graph node.
func Key(lat, lng float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}

// MinutesToMeters converts a walking-time budget in simulated minutes to the
// distance walkable in that time.
func MinutesToMeters(minutes float64) float64 {
	return minutes * 60 * WalkingSpeed
}

// MetersToMinutes converts a distance to the simulated minutes needed to walk it.
func MetersToMinutes(meters float64) float64 {
	return meters / (60 * WalkingSpeed)
}

// Bounds is an inclusive lat/lng rectangle.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether the coordinate falls inside the rectangle.
func (b Bounds) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// VeniceBounds covers the historical city and the lagoon edge. Catalog
// entries outside it are almost always digitization errors.
var VeniceBounds = Bounds{
	MinLat: 45.406, MaxLat: 45.472,
	MinLng: 12.285, MaxLng: 12.395,
}
