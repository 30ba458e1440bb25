// Package agents provides the persona data model, the per-agent simulation
// state, the routine resolver, and the movement integrator.
package agents

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/talgya/serenissima/internal/geo"
)

// RoutineType enumerates the activity types a routine block may carry.
type RoutineType string

const (
	RoutineHome         RoutineType = "HOME"
	RoutineShop         RoutineType = "SHOP"
	RoutineFreeTime     RoutineType = "FREE_TIME"
	RoutineTravelToShop RoutineType = "TRAVEL_TO_SHOP"
	RoutineTravelHome   RoutineType = "TRAVEL_HOME"
)

// IsTravel reports whether the block represents a commute.
func (t RoutineType) IsTravel() bool {
	return t == RoutineTravelToShop || t == RoutineTravelHome
}

// IsObligatory reports whether the block pins the agent to a schedule.
// Free time is the only block an agent may trade away for a detour.
func (t RoutineType) IsObligatory() bool {
	return t != RoutineFreeTime
}

// RoutineBlock is one scheduled interval of an agent's day. Times are "HH:MM"
// and a block may wrap past midnight (end before start).
type RoutineBlock struct {
	StartTime string      `json:"startTime"`
	EndTime   string      `json:"endTime"`
	Type      RoutineType `json:"type"`
}

// Persona is the static profile an agent is created from: a 1740 Catastici
// shopkeeper with a home, a shop, and a generated daily routine.
type Persona struct {
	Name         string         `json:"name"`
	ShopType     string         `json:"shopType"`
	ShopCategory string         `json:"shopCategory"`
	Personality  string         `json:"personality"`
	Home         geo.Coordinate `json:"home"`
	Shop         geo.Coordinate `json:"shop"`
	DailyRoutine []RoutineBlock `json:"dailyRoutine"`
}

// Validate checks the routine blocks parse and the anchors sit inside the city.
func (p *Persona) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("persona has no name")
	}
	if !geo.VeniceBounds.Contains(p.Home) {
		return fmt.Errorf("persona %s: home %v outside Venice bounds", p.Name, p.Home)
	}
	if !geo.VeniceBounds.Contains(p.Shop) {
		return fmt.Errorf("persona %s: shop %v outside Venice bounds", p.Name, p.Shop)
	}
	for _, b := range p.DailyRoutine {
		if _, err := ParseClock(b.StartTime); err != nil {
			return fmt.Errorf("persona %s: %w", p.Name, err)
		}
		if _, err := ParseClock(b.EndTime); err != nil {
			return fmt.Errorf("persona %s: %w", p.Name, err)
		}
	}
	return nil
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	return hours*60 + minutes, nil
}
