// Package catalog loads the static inputs: street and ferry line layers, the
// POI dataset, and the persona roster. Loading happens once at startup; the
// simulation core only depends on the shapes produced here.
package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/talgya/serenissima/internal/geo"
)

// LoadLineLayers reads one or more GeoJSON files of LineString /
// MultiLineString features and returns their polylines in file order.
// Multiple layers (streets, ferry routes) are concatenated before a single
// graph build; shared endpoints are how cross-modal connectivity emerges.
func LoadLineLayers(paths ...string) ([][]geo.Coordinate, error) {
	var lines [][]geo.Coordinate
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read line layer: %w", err)
		}
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("parse line layer %s: %w", path, err)
		}
		count := 0
		for _, f := range fc.Features {
			switch g := f.Geometry.(type) {
			case orb.LineString:
				lines = append(lines, toCoordinates(g))
				count++
			case orb.MultiLineString:
				for _, ls := range g {
					lines = append(lines, toCoordinates(ls))
					count++
				}
			default:
				// Point and polygon features in a line layer are noise.
			}
		}
		slog.Info("loaded line layer", "path", path, "lines", count)
	}
	return lines, nil
}

func toCoordinates(ls orb.LineString) []geo.Coordinate {
	out := make([]geo.Coordinate, len(ls))
	for i, p := range ls {
		out[i] = geo.FromPoint(p)
	}
	return out
}
