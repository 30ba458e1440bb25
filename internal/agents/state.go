// Per-agent simulation state. The orchestrator is the only writer; every
// mutation clones the state, edits the clone, and swaps it in wholesale so
// readers never see a half-applied tick.
package agents

import (
	"fmt"

	"github.com/talgya/serenissima/internal/geo"
	"github.com/talgya/serenissima/internal/graph"
)

// Mode is the agent state machine phase.
type Mode string

const (
	ModeRoutine   Mode = "ROUTINE"
	ModeDetouring Mode = "DETOURING"
	ModeAtDetour  Mode = "AT_DETOUR"
)

// State is the mutable simulation unit for one agent.
type State struct {
	Persona *Persona

	CurrentNodeID graph.NodeID
	HomeNodeID    graph.NodeID
	WorkNodeID    graph.NodeID

	// CurrentPath is the expanded street geometry the agent walks, with
	// PathProgress a fractional index into it. Rendering interpolates between
	// floor and ceil of the progress value.
	CurrentPath  []geo.Coordinate
	PathProgress float64

	Mode               Mode
	CurrentRoutineType RoutineType
	TargetNodeID       graph.NodeID

	// Detour bookkeeping. DetourTargetNodeID is empty outside a detour.
	// Times are absolute simulated minutes since the simulation epoch.
	DetourTargetNodeID  graph.NodeID
	SpontaneousEndTime  *float64
	LastDetourEndTime   *float64
	DetoursTakenToday   int
	DetourThought       string
	SpontaneousActivity string
}

// NewState resolves a persona's home and shop against the graph and places
// the agent at home in ROUTINE mode.
func NewState(p *Persona, g *graph.StreetGraph) (*State, error) {
	home, ok := g.NearestNode(p.Home.Lat, p.Home.Lng)
	if !ok {
		return nil, fmt.Errorf("agent %s: empty graph", p.Name)
	}
	work, _ := g.NearestNode(p.Shop.Lat, p.Shop.Lng)
	return &State{
		Persona:            p,
		CurrentNodeID:      home.ID,
		HomeNodeID:         home.ID,
		WorkNodeID:         work.ID,
		Mode:               ModeRoutine,
		CurrentRoutineType: RoutineHome,
		TargetNodeID:       home.ID,
	}, nil
}

// Clone returns a copy safe to mutate before an atomic swap. The path slice
// is shared: paths are only ever replaced wholesale, never edited in place.
func (s *State) Clone() *State {
	clone := *s
	return &clone
}

// Arrived reports whether the agent has consumed its whole path.
func (s *State) Arrived() bool {
	return len(s.CurrentPath) < 2 || s.PathProgress >= float64(len(s.CurrentPath)-1)
}

// Position returns the agent's interpolated coordinate along its path.
// Returns false when the agent has no path (callers fall back to the
// current node's coordinate).
func (s *State) Position() (geo.Coordinate, bool) {
	if len(s.CurrentPath) == 0 {
		return geo.Coordinate{}, false
	}
	idx := int(s.PathProgress)
	if idx >= len(s.CurrentPath)-1 {
		return s.CurrentPath[len(s.CurrentPath)-1], true
	}
	frac := s.PathProgress - float64(idx)
	a, b := s.CurrentPath[idx], s.CurrentPath[idx+1]
	return geo.Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*frac,
		Lng: a.Lng + (b.Lng-a.Lng)*frac,
	}, true
}
