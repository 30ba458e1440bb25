// Command streetgen emits a synthetic canal-city street network as GeoJSON.
// It is a stand-in for the historical street layers: a jittered grid of
// calli with canals carved out by simplex noise, so the graph has the same
// texture the real data does: dead ends, detached islets, bridges.
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"

	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/talgya/serenissima/internal/geo"
)

const (
	canalThreshold    = 0.38 // noise below this is water
	jitterFraction    = 0.35 // node displacement as a fraction of cell size
	bridgeChance      = 0.15 // chance a water crossing gets a bridge anyway
	noiseFrequency    = 3.5
	noiseOctaves      = 3
	octaveLacunarity  = 2.0
	octavePersistence = 0.5
)

func main() {
	out := flag.String("out", "streets.geojson", "output GeoJSON path")
	seed := flag.Int64("seed", 1740, "generator seed")
	cols := flag.Int("cols", 48, "grid columns")
	rows := flag.Int("rows", 32, "grid rows")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	fc := generate(*seed, *cols, *rows, geo.VeniceBounds)
	raw, err := fc.MarshalJSON()
	if err != nil {
		slog.Error("encode failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		slog.Error("write failed", "error", err)
		os.Exit(1)
	}
	slog.Info("street network written", "path", *out, "features", len(fc.Features))
}

// generate lays a jittered grid over the bounds and keeps only the street
// segments whose midpoint sits on land, plus the occasional bridge.
func generate(seed int64, cols, rows int, bounds geo.Bounds) *geojson.FeatureCollection {
	noise := opensimplex.NewNormalized(seed)
	rng := rand.New(rand.NewSource(seed))

	latSpan := bounds.MaxLat - bounds.MinLat
	lngSpan := bounds.MaxLng - bounds.MinLng
	cellLat := latSpan / float64(rows-1)
	cellLng := lngSpan / float64(cols-1)

	// Jittered node lattice. The jitter is what turns a grid into calli.
	points := make([][]orb.Point, rows)
	for r := 0; r < rows; r++ {
		points[r] = make([]orb.Point, cols)
		for c := 0; c < cols; c++ {
			lat := bounds.MinLat + float64(r)*cellLat + (rng.Float64()-0.5)*jitterFraction*cellLat
			lng := bounds.MinLng + float64(c)*cellLng + (rng.Float64()-0.5)*jitterFraction*cellLng
			points[r][c] = orb.Point{lng, lat}
		}
	}

	fc := geojson.NewFeatureCollection()
	addSegment := func(a, b orb.Point) {
		mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
		land := landValue(noise, mid, bounds)
		if land < canalThreshold && rng.Float64() > bridgeChance {
			return
		}
		f := geojson.NewFeature(orb.LineString{a, b})
		if land < canalThreshold {
			f.Properties["bridge"] = true
		}
		fc.Append(f)
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				addSegment(points[r][c], points[r][c+1])
			}
			if r+1 < rows {
				addSegment(points[r][c], points[r+1][c])
			}
		}
	}
	return fc
}

// landValue samples octave noise at a point, normalized into [0, 1].
func landValue(noise opensimplex.Noise, p orb.Point, bounds geo.Bounds) float64 {
	x := (p[0] - bounds.MinLng) / (bounds.MaxLng - bounds.MinLng)
	y := (p[1] - bounds.MinLat) / (bounds.MaxLat - bounds.MinLat)

	var total, amplitude, maxValue float64
	amplitude = 1
	freq := noiseFrequency
	for i := 0; i < noiseOctaves; i++ {
		total += noise.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= octavePersistence
		freq *= octaveLacunarity
	}
	return total / maxValue
}
