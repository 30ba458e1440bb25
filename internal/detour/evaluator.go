// Candidate assembly and feasibility. The evaluator only proposes; the
// decision service chooses, and the orchestrator commits.
package detour

import (
	"fmt"
	"math/rand"

	"github.com/samber/lo"

	"github.com/talgya/serenissima/internal/agents"
	"github.com/talgya/serenissima/internal/geo"
	"github.com/talgya/serenissima/internal/graph"
)

// ContinueOptionID is the synthetic no-detour choice appended to every option
// set, and the sentinel the decision service answers with when it declines.
const ContinueOptionID = "none"

// Option is the wire record for one candidate offered to the decision service.
type Option struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// ContinueOption returns the synthetic "keep to the routine" option.
func ContinueOption() Option {
	return Option{ID: ContinueOptionID, Type: "continue", Label: "Continue on your way"}
}

// Candidate pairs an option with its feasibility estimates, all in simulated
// minutes.
type Candidate struct {
	Option      Option
	NodeID      graph.NodeID
	TravelThere float64
	TravelBack  float64
	Dwell       float64
}

// Config carries the evaluator's tuning knobs. Zero values fall back to
// DefaultConfig.
type Config struct {
	CheckpointMinMinutes float64 // lower bound between per-agent checkpoints
	CheckpointMaxMinutes float64 // upper bound between per-agent checkpoints
	CooldownMinutes      float64 // minimum gap after a detour ends
	DailyCap             int     // detours allowed per simulated day
	MinSlackMinutes      float64 // smallest gap worth evaluating at all
	SearchRadiusMinutes  float64 // walking-time radius for candidate POIs
	MaxOptions           int     // candidates offered per decision
}

// DefaultConfig returns the tuning used by the full-city simulation.
func DefaultConfig() Config {
	return Config{
		CheckpointMinMinutes: 5,
		CheckpointMaxMinutes: 15,
		CooldownMinutes:      60,
		DailyCap:             2,
		MinSlackMinutes:      20,
		SearchRadiusMinutes:  8,
		MaxOptions:           4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CheckpointMinMinutes <= 0 {
		c.CheckpointMinMinutes = d.CheckpointMinMinutes
	}
	if c.CheckpointMaxMinutes <= 0 {
		c.CheckpointMaxMinutes = d.CheckpointMaxMinutes
	}
	if c.CooldownMinutes <= 0 {
		c.CooldownMinutes = d.CooldownMinutes
	}
	if c.DailyCap <= 0 {
		c.DailyCap = d.DailyCap
	}
	if c.MinSlackMinutes <= 0 {
		c.MinSlackMinutes = d.MinSlackMinutes
	}
	if c.SearchRadiusMinutes <= 0 {
		c.SearchRadiusMinutes = d.SearchRadiusMinutes
	}
	if c.MaxOptions <= 0 {
		c.MaxOptions = d.MaxOptions
	}
	return c
}

// Evaluator ranks nearby points of interest against an agent's slack. Safe
// for concurrent use: it only reads the graph and the catalog.
type Evaluator struct {
	graph    *graph.StreetGraph
	cfg      Config
	pois     []POI
	poiNodes map[string]graph.NodeID // POI id → nearest graph node, resolved once
}

// NewEvaluator resolves every POI to its nearest graph node up front; POIs
// with an invalid category are dropped.
func NewEvaluator(g *graph.StreetGraph, pois []POI, cfg Config) *Evaluator {
	e := &Evaluator{
		graph:    g,
		cfg:      cfg.withDefaults(),
		poiNodes: make(map[string]graph.NodeID),
	}
	for _, p := range pois {
		if !p.Category.Valid() {
			continue
		}
		node, ok := g.NearestNode(p.Lat, p.Lng)
		if !ok {
			continue
		}
		e.pois = append(e.pois, p)
		e.poiNodes[p.ID] = node.ID
	}
	return e
}

// Config returns the evaluator's effective tuning.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// NextCheckpointDelay draws the gap, in simulated minutes, until an agent's
// next detour checkpoint.
func (e *Evaluator) NextCheckpointDelay() float64 {
	span := e.cfg.CheckpointMaxMinutes - e.cfg.CheckpointMinMinutes
	return e.cfg.CheckpointMinMinutes + rand.Float64()*span
}

// NodeFor returns the graph node a POI was resolved to.
func (e *Evaluator) NodeFor(poiID string) (graph.NodeID, bool) {
	id, ok := e.poiNodes[poiID]
	return id, ok
}

// ShouldConsider reports whether a detour checkpoint should evaluate at all
// for the given state. now is absolute simulated minutes.
func (e *Evaluator) ShouldConsider(s *agents.State, now float64) bool {
	if s.Mode != agents.ModeRoutine {
		return false
	}
	if s.CurrentRoutineType.IsTravel() {
		return false
	}
	if s.DetoursTakenToday >= e.cfg.DailyCap {
		return false
	}
	if s.LastDetourEndTime != nil && now-*s.LastDetourEndTime < e.cfg.CooldownMinutes {
		return false
	}
	return true
}

// SlackMinutes returns the simulated minutes until the persona's next
// obligatory routine block. The routine is scanned twice so a block early
// tomorrow is still found from late tonight. A routine with no obligatory
// blocks at all yields a full day of slack.
func SlackMinutes(p *agents.Persona, minutesSinceMidnight float64) float64 {
	for lap := 0; lap < 2; lap++ {
		for _, b := range p.DailyRoutine {
			if !b.Type.IsObligatory() {
				continue
			}
			start, err := agents.ParseClock(b.StartTime)
			if err != nil {
				continue
			}
			shifted := float64(start + lap*24*60)
			if shifted > minutesSinceMidnight {
				return shifted - minutesSinceMidnight
			}
		}
	}
	return 24 * 60
}

// Assemble gathers feasible detour candidates around the agent's current
// node. Candidates come from the bounded reachability set, are diversified
// across categories, deduplicated, capped, and then filtered by the full
// there + dwell + back budget against slack (the return leg uses the
// weighted shortest distance). An empty result is a normal outcome.
func (e *Evaluator) Assemble(current graph.NodeID, slack float64) []Candidate {
	if slack < e.cfg.MinSlackMinutes {
		return nil
	}
	reach := e.graph.ReachableWithinBudget(current, e.cfg.SearchRadiusMinutes, geo.WalkingSpeed)
	if len(reach) == 0 {
		return nil
	}

	// POIs whose node fell inside the reachability set, nearest first.
	nearby := lo.Filter(e.pois, func(p POI, _ int) bool {
		_, ok := reach[e.poiNodes[p.ID]]
		return ok
	})
	if len(nearby) == 0 {
		return nil
	}
	nearby = lo.UniqBy(nearby, func(p POI) string { return p.ID })

	// Diversify: round-robin across categories so one osteria-dense parish
	// does not crowd out every church and campo.
	byCategory := lo.GroupBy(nearby, func(p POI) Category { return p.Category })
	var picked []POI
	for len(picked) < e.cfg.MaxOptions {
		added := false
		for _, c := range Categories {
			if len(byCategory[c]) == 0 {
				continue
			}
			picked = append(picked, byCategory[c][0])
			byCategory[c] = byCategory[c][1:]
			added = true
			if len(picked) == e.cfg.MaxOptions {
				break
			}
		}
		if !added {
			break
		}
	}

	var out []Candidate
	for _, p := range nearby {
		if !lo.ContainsBy(picked, func(q POI) bool { return q.ID == p.ID }) {
			continue
		}
		node := e.poiNodes[p.ID]
		there := geo.MetersToMinutes(reach[node])
		backMeters, ok := e.graph.ShortestDistanceWeighted(node, current)
		if !ok {
			continue
		}
		back := geo.MetersToMinutes(backMeters)
		dwell := EstimateDwell(p.Category, slack-there-back)
		if dwell <= 0 {
			continue
		}
		if there+dwell+back > slack {
			continue
		}
		out = append(out, Candidate{
			Option: Option{
				ID:    p.ID,
				Type:  string(p.Category),
				Label: p.Label,
			},
			NodeID:      node,
			TravelThere: there,
			TravelBack:  back,
			Dwell:       dwell,
		})
	}
	return out
}

// Revalidate re-checks a chosen candidate's feasibility just before commit;
// simulated time keeps moving while the decision service thinks. The return
// leg is re-measured from the agent's current node, which may have drifted.
func (e *Evaluator) Revalidate(c Candidate, current graph.NodeID, slack float64) bool {
	thereMeters, ok := e.graph.ShortestDistanceWeighted(current, c.NodeID)
	if !ok {
		return false
	}
	backMeters, ok := e.graph.ShortestDistanceWeighted(c.NodeID, current)
	if !ok {
		return false
	}
	total := geo.MetersToMinutes(thereMeters) + c.Dwell + geo.MetersToMinutes(backMeters)
	return total <= slack
}

// Describe renders a candidate for logs and journal entries.
func (c Candidate) Describe() string {
	return fmt.Sprintf("%s (%s, %.0f+%.0f+%.0f min)",
		c.Option.Label, c.Option.Type, c.TravelThere, c.Dwell, c.TravelBack)
}
