// Package engine owns the per-agent state machines and the shared simulated
// clock. The orchestrator is the only writer of agent state: each agent lives
// in its own slot, and every mutation (routine re-resolution, movement,
// detour transitions, decision results) replaces the slot's state wholesale
// under the slot lock. Agents never share mutable state with each other; the
// street graph and POI catalog are read-only.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/talgya/serenissima/internal/agents"
	"github.com/talgya/serenissima/internal/detour"
	"github.com/talgya/serenissima/internal/geo"
	"github.com/talgya/serenissima/internal/graph"
	"github.com/talgya/serenissima/internal/llm"
)

// Decider is the slice of the decision client the orchestrator needs.
// Decisions are the only operation that may suspend; everything else in a
// tick is pure synchronous computation.
type Decider interface {
	DecideDetour(ctx context.Context, req *llm.DetourRequest) (*llm.DetourResponse, error)
}

// DetourEvent is one journal entry: a committed or declined detour decision.
type DetourEvent struct {
	SimMinutes   float64
	Agent        string
	ChoiceID     string
	Category     string
	Label        string
	Thought      string
	DwellMinutes float64
}

// agentSlot is one agent's home in the state table. epoch is bumped whenever
// the agent is removed so a decision result that arrives late finds a number
// it no longer matches and is dropped.
type agentSlot struct {
	name string

	mu             sync.Mutex
	state          *agents.State
	epoch          uint64
	inFlight       bool // a decision request is outstanding
	nextCheckpoint float64
}

// Orchestrator ticks all agents on the shared clock and serializes every
// state transition per agent.
type Orchestrator struct {
	graph           *graph.StreetGraph
	evaluator       *detour.Evaluator
	decider         Decider
	decisionTimeout time.Duration

	// OnDetourEvent, when set, receives journal entries for decision
	// outcomes. Called outside any lock.
	OnDetourEvent func(DetourEvent)

	mu         sync.RWMutex
	slots      map[string]*agentSlot
	simMinutes float64
	day        int
}

// NewOrchestrator creates an orchestrator starting at the given absolute
// simulated time. evaluator and decider may be nil, which disables detours.
func NewOrchestrator(g *graph.StreetGraph, evaluator *detour.Evaluator, decider Decider, decisionTimeout time.Duration, startMinutes float64) *Orchestrator {
	if decisionTimeout <= 0 {
		decisionTimeout = 10 * time.Second
	}
	return &Orchestrator{
		graph:           g,
		evaluator:       evaluator,
		decider:         decider,
		decisionTimeout: decisionTimeout,
		slots:           make(map[string]*agentSlot),
		simMinutes:      startMinutes,
		day:             Day(startMinutes),
	}
}

// AddAgent creates the agent's state from its persona and registers it.
func (o *Orchestrator) AddAgent(p *agents.Persona) error {
	st, err := agents.NewState(p, o.graph)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.slots[p.Name]; exists {
		return fmt.Errorf("agent %s already registered", p.Name)
	}
	slot := &agentSlot{
		name:           p.Name,
		state:          st,
		nextCheckpoint: o.simMinutes + o.checkpointDelay(),
	}
	o.slots[p.Name] = slot
	return nil
}

// RemoveAgent takes the agent out of the simulation. Any decision still in
// flight for it will be dropped when it lands.
func (o *Orchestrator) RemoveAgent(name string) bool {
	o.mu.Lock()
	slot, ok := o.slots[name]
	if ok {
		delete(o.slots, name)
	}
	o.mu.Unlock()
	if !ok {
		return false
	}

	slot.mu.Lock()
	slot.epoch++
	slot.inFlight = false
	slot.mu.Unlock()
	return true
}

// Snapshot returns a copy of one agent's state.
func (o *Orchestrator) Snapshot(name string) (*agents.State, bool) {
	o.mu.RLock()
	slot, ok := o.slots[name]
	o.mu.RUnlock()
	if !ok {
		return nil, false
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.state.Clone(), true
}

// States returns copies of every agent's state, sorted by name.
func (o *Orchestrator) States() []*agents.State {
	o.mu.RLock()
	slots := make([]*agentSlot, 0, len(o.slots))
	for _, s := range o.slots {
		slots = append(slots, s)
	}
	o.mu.RUnlock()

	out := make([]*agents.State, 0, len(slots))
	for _, slot := range slots {
		slot.mu.Lock()
		out = append(out, slot.state.Clone())
		slot.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b *agents.State) int {
		switch {
		case a.Persona.Name < b.Persona.Name:
			return -1
		case a.Persona.Name > b.Persona.Name:
			return 1
		}
		return 0
	})
	return out
}

// SimMinutes returns the current absolute simulated time.
func (o *Orchestrator) SimMinutes() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.simMinutes
}

// AgentCount returns the number of agents in the simulation.
func (o *Orchestrator) AgentCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.slots)
}

// Locate returns an agent state's current coordinate: the interpolated path
// position when walking, the current node otherwise.
func (o *Orchestrator) Locate(st *agents.State) geo.Coordinate {
	if pos, ok := st.Position(); ok {
		return pos
	}
	if n, ok := o.graph.Node(st.CurrentNodeID); ok {
		return n.Coordinate()
	}
	return geo.Coordinate{}
}

// Tick advances the simulated clock and steps every agent. Within one agent
// the order is fixed (routine recheck, movement, detour transitions,
// checkpoint) and there is no ordering across agents.
func (o *Orchestrator) Tick(deltaMs, speed float64) {
	o.mu.Lock()
	o.simMinutes += speed * deltaMs / 1000
	now := o.simMinutes
	newDay := Day(now)
	dayChanged := newDay != o.day
	o.day = newDay
	slots := make([]*agentSlot, 0, len(o.slots))
	for _, s := range o.slots {
		slots = append(slots, s)
	}
	o.mu.Unlock()

	for _, slot := range slots {
		o.stepAgent(slot, deltaMs, speed, now, dayChanged)
	}
}

func (o *Orchestrator) stepAgent(slot *agentSlot, deltaMs, speed, now float64, dayChanged bool) {
	slot.mu.Lock()
	defer slot.mu.Unlock()

	st := slot.state.Clone()
	if dayChanged {
		st.DetoursTakenToday = 0
	}

	if st.Mode == agents.ModeRoutine {
		o.resolveRoutine(st, now, false)
	}

	agents.Advance(st, deltaMs, speed)

	switch st.Mode {
	case agents.ModeDetouring:
		if st.DetourTargetNodeID != "" && st.Arrived() && st.CurrentNodeID == st.DetourTargetNodeID {
			st.Mode = agents.ModeAtDetour
			st.CurrentPath = nil
			st.PathProgress = 0
			slog.Debug("agent at detour",
				"agent", st.Persona.Name,
				"activity", st.SpontaneousActivity,
				"time", FormatClock(now))
		}
	case agents.ModeAtDetour:
		if st.SpontaneousEndTime != nil && now >= *st.SpontaneousEndTime {
			o.finishDetour(st, now)
		}
	}

	slot.state = st

	if now >= slot.nextCheckpoint {
		slot.nextCheckpoint = now + o.checkpointDelay()
		o.maybeRequestDetour(slot, st, now)
	}
}

// resolveRoutine re-resolves the active block and, only when the implied
// target node changed (not merely the block label), recomputes the path.
// force recomputes the path regardless, for the walk back after a detour.
func (o *Orchestrator) resolveRoutine(st *agents.State, now float64, force bool) {
	rt := agents.RoutineHome
	if block, ok := agents.ActiveBlock(st.Persona, MinutesSinceMidnight(now)); ok {
		rt = block.Type
	}
	st.CurrentRoutineType = rt
	target := agents.TargetNodeFor(rt, st.HomeNodeID, st.WorkNodeID, st.CurrentNodeID)
	if target == st.TargetNodeID && !force {
		return
	}
	st.TargetNodeID = target
	o.setPath(st, target)
}

// setPath computes and installs the walk to target. No path is a normal
// outcome (disconnected regions); the agent stays put.
func (o *Orchestrator) setPath(st *agents.State, target graph.NodeID) {
	nodePath, ok := o.graph.ShortestPathUnweighted(st.CurrentNodeID, target)
	if !ok {
		st.CurrentPath = nil
		st.PathProgress = 0
		slog.Debug("no path", "agent", st.Persona.Name, "from", st.CurrentNodeID, "to", target)
		return
	}
	st.CurrentPath = o.graph.ExpandToCoordinates(nodePath)
	st.PathProgress = 0
}

// finishDetour closes the excursion and sends the agent back to whatever its
// routine now demands.
func (o *Orchestrator) finishDetour(st *agents.State, now float64) {
	st.DetoursTakenToday++
	end := now
	st.LastDetourEndTime = &end
	st.DetourTargetNodeID = ""
	st.SpontaneousEndTime = nil
	st.SpontaneousActivity = ""
	st.DetourThought = ""
	st.Mode = agents.ModeRoutine
	o.resolveRoutine(st, now, true)
	slog.Info("detour complete",
		"agent", st.Persona.Name,
		"taken_today", st.DetoursTakenToday,
		"time", FormatClock(now))
}

func (o *Orchestrator) checkpointDelay() float64 {
	if o.evaluator == nil {
		return 24 * 60
	}
	return o.evaluator.NextCheckpointDelay()
}

// maybeRequestDetour runs one detour checkpoint. Called with the slot lock
// held; the decision call itself runs as an independent goroutine gated by
// the slot's in-flight flag so it never blocks the movement tick.
func (o *Orchestrator) maybeRequestDetour(slot *agentSlot, st *agents.State, now float64) {
	if o.evaluator == nil || o.decider == nil {
		return
	}
	if slot.inFlight {
		return
	}
	if !o.evaluator.ShouldConsider(st, now) {
		return
	}
	slack := detour.SlackMinutes(st.Persona, MinutesSinceMidnight(now))
	if slack < o.evaluator.Config().MinSlackMinutes {
		return
	}
	candidates := o.evaluator.Assemble(st.CurrentNodeID, slack)
	if len(candidates) == 0 {
		return
	}

	options := make([]detour.Option, 0, len(candidates)+1)
	for _, c := range candidates {
		options = append(options, c.Option)
	}
	options = append(options, detour.ContinueOption())

	req := &llm.DetourRequest{
		AgentName:        st.Persona.Name,
		Personality:      st.Persona.Personality,
		TimeOfDay:        TimeOfDay(now),
		MainGoal:         mainGoal(st.CurrentRoutineType),
		AvailableMinutes: math.Floor(slack),
		Options:          options,
	}

	slot.inFlight = true
	go o.requestDetour(slot, slot.epoch, req, candidates)
}

func mainGoal(rt agents.RoutineType) string {
	switch rt {
	case agents.RoutineShop:
		return "keeping the shop open"
	case agents.RoutineFreeTime:
		return "passing some free time"
	default:
		return "spending time at home"
	}
}

func (o *Orchestrator) requestDetour(slot *agentSlot, epoch uint64, req *llm.DetourRequest, candidates []detour.Candidate) {
	ctx, cancel := context.WithTimeout(context.Background(), o.decisionTimeout)
	defer cancel()

	resp, err := o.decider.DecideDetour(ctx, req)
	if err != nil {
		// An unreachable or slow service never stalls the simulation; the
		// agent simply keeps to its routine.
		slog.Debug("detour decision failed", "agent", req.AgentName, "error", err)
	}
	choice := llm.ValidateChoice(resp, req.Options)
	thought := ""
	if resp != nil {
		thought = resp.Thought
	}
	o.applyDecision(slot, epoch, choice, thought, candidates)
}

// applyDecision folds a decision result back into agent state using the same
// atomic replacement discipline as the tick loop. Stale results, where the
// agent was removed or the detour no longer fits, are dropped, not applied.
func (o *Orchestrator) applyDecision(slot *agentSlot, epoch uint64, choice, thought string, candidates []detour.Candidate) {
	var ev *DetourEvent
	defer func() {
		if ev != nil && o.OnDetourEvent != nil {
			o.OnDetourEvent(*ev)
		}
	}()

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.epoch != epoch {
		slog.Debug("dropping decision for removed agent", "agent", slot.name)
		return
	}
	slot.inFlight = false
	now := o.SimMinutes()

	if choice == detour.ContinueOptionID {
		if thought != "" {
			ev = &DetourEvent{
				SimMinutes: now,
				Agent:      slot.name,
				ChoiceID:   detour.ContinueOptionID,
				Thought:    thought,
			}
		}
		return
	}

	idx := -1
	for i, c := range candidates {
		if c.Option.ID == choice {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	chosen := candidates[idx]

	st := slot.state.Clone()
	if st.Mode != agents.ModeRoutine || st.DetoursTakenToday >= o.evaluator.Config().DailyCap {
		return
	}
	slack := detour.SlackMinutes(st.Persona, MinutesSinceMidnight(now))
	if !o.evaluator.Revalidate(chosen, st.CurrentNodeID, slack) {
		slog.Debug("detour no longer fits, continuing",
			"agent", slot.name, "option", chosen.Option.Label)
		return
	}
	nodePath, ok := o.graph.ShortestPathUnweighted(st.CurrentNodeID, chosen.NodeID)
	if !ok {
		return
	}

	st.Mode = agents.ModeDetouring
	st.TargetNodeID = chosen.NodeID
	st.DetourTargetNodeID = chosen.NodeID
	end := now + chosen.Dwell
	st.SpontaneousEndTime = &end
	st.SpontaneousActivity = chosen.Option.Label
	st.DetourThought = thought
	st.CurrentPath = o.graph.ExpandToCoordinates(nodePath)
	st.PathProgress = 0
	slot.state = st

	slog.Info("detour committed",
		"agent", slot.name,
		"to", chosen.Option.Label,
		"category", chosen.Option.Type,
		"until", FormatClock(end))
	ev = &DetourEvent{
		SimMinutes:   now,
		Agent:        slot.name,
		ChoiceID:     choice,
		Category:     chosen.Option.Type,
		Label:        chosen.Option.Label,
		Thought:      thought,
		DwellMinutes: chosen.Dwell,
	}
}
