// Package detour decides whether an agent can slip a side trip into the gap
// before its next obligation, and assembles the option set offered to the
// external decision service.
package detour

import "math/rand"

// Category is the closed set of point-of-interest categories offered as
// detours. Anything the catalog cannot map into this set is not a detour
// candidate.
type Category string

const (
	CategoryTavern     Category = "tavern"     // osterie, malvasie, bacari
	CategoryDevotional Category = "devotional" // churches, scuole, oratories
	CategoryOpenAir    Category = "openair"    // campi, gardens, fondamente
)

// Categories lists all valid categories in ranking order.
var Categories = []Category{CategoryTavern, CategoryDevotional, CategoryOpenAir}

// Valid reports whether the category is one of the closed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryTavern, CategoryDevotional, CategoryOpenAir:
		return true
	}
	return false
}

// POI is a static catalog entry used only as a detour candidate.
type POI struct {
	ID       string   `json:"id"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Category Category `json:"category"`
	Label    string   `json:"label"`
}

// dwellRange is the minutes an agent plausibly spends at a category.
type dwellRange struct {
	min, max float64
}

// A quick prayer is short; a garden stroll longer; an osteria longer still.
var dwellRanges = map[Category]dwellRange{
	CategoryDevotional: {5, 15},
	CategoryOpenAir:    {10, 30},
	CategoryTavern:     {20, 45},
}

// EstimateDwell draws a stay length for the category, capped to half the
// slack remaining after travel so a detour can never by itself cause a
// missed obligation. Returns 0 when even the category's minimum stay does
// not fit.
func EstimateDwell(c Category, remainingSlack float64) float64 {
	r, ok := dwellRanges[c]
	if !ok {
		return 0
	}
	limit := remainingSlack * 0.5
	if limit < r.min {
		return 0
	}
	dwell := r.min + rand.Float64()*(r.max-r.min)
	if dwell > limit {
		dwell = limit
	}
	return dwell
}
