// POI catalog loading: Catastici point features mapped into the closed
// detour category set.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/talgya/serenissima/internal/detour"
	"github.com/talgya/serenissima/internal/geo"
)

// Catastici function labels that map into each detour category. Matching is
// substring-based because the source data mixes levels ("BOTTEGA: OSTERIA",
// "CHIESA PARROCCHIALE", ...).
var categoryLabels = map[detour.Category][]string{
	detour.CategoryTavern:     {"OSTERIA", "LOCANDA", "MALVASIA", "BACARO", "CAFFE"},
	detour.CategoryDevotional: {"CHIESA", "SCUOLA", "ORATORIO", "CONVENTO", "CAPPELLA"},
	detour.CategoryOpenAir:    {"CAMPO", "GIARDINO", "CORTE", "FONDAMENTA", "SQUERO"},
}

// LoadPOIs reads the POI GeoJSON dataset. Features whose function cannot be
// mapped into a detour category, or whose coordinate falls outside the city
// bounds, are skipped: they are catalog noise, not errors.
func LoadPOIs(path string) ([]detour.POI, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read POI catalog: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parse POI catalog %s: %w", path, err)
	}

	var pois []detour.POI
	skipped := 0
	for i, f := range fc.Features {
		point, ok := f.Geometry.(orb.Point)
		if !ok {
			skipped++
			continue
		}
		c := geo.FromPoint(point)
		if !geo.VeniceBounds.Contains(c) {
			skipped++
			continue
		}
		function := properties(f, "PP_Function_MID", "function", "type")
		label := properties(f, "PP_Bottega_STD", "name", "label")
		if label == "" {
			label = function
		}
		category, ok := categorize(function + " " + label)
		if !ok {
			skipped++
			continue
		}
		id := properties(f, "id", "uid")
		if id == "" {
			id = fmt.Sprintf("poi-%d", i)
		}
		pois = append(pois, detour.POI{
			ID:       id,
			Lat:      c.Lat,
			Lng:      c.Lng,
			Category: category,
			Label:    label,
		})
	}
	slog.Info("loaded POI catalog", "path", path, "pois", len(pois), "skipped", skipped)
	return pois, nil
}

// properties returns the first non-empty string property among the keys.
func properties(f *geojson.Feature, keys ...string) string {
	for _, k := range keys {
		if v, ok := f.Properties[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func categorize(function string) (detour.Category, bool) {
	upper := strings.ToUpper(function)
	for _, cat := range detour.Categories {
		for _, label := range categoryLabels[cat] {
			if strings.Contains(upper, label) {
				return cat, true
			}
		}
	}
	return "", false
}
