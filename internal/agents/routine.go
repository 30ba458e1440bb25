// Routine resolution: mapping a wall-clock time to the active schedule block
// and the node that block implies as a destination.
package agents

import (
	"github.com/talgya/serenissima/internal/graph"
)

// ActiveBlock returns the routine block covering the given minutes since
// midnight. A block matches when current is in [start, end); when the block
// wraps past midnight (end before start) it matches current >= start OR
// current < end. Returns false when no block covers the time, in which case
// callers treat the agent as at home.
func ActiveBlock(p *Persona, minutesSinceMidnight float64) (RoutineBlock, bool) {
	current := minutesSinceMidnight
	for _, b := range p.DailyRoutine {
		start, err := ParseClock(b.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(b.EndTime)
		if err != nil {
			continue
		}
		if end < start {
			if current >= float64(start) || current < float64(end) {
				return b, true
			}
		} else if current >= float64(start) && current < float64(end) {
			return b, true
		}
	}
	return RoutineBlock{}, false
}

// TargetNodeFor maps a routine type to the node it implies as destination.
// Free time keeps the agent where it is; what a free agent does with the time
// is the detour evaluator's business, not the routine's.
func TargetNodeFor(t RoutineType, home, work, current graph.NodeID) graph.NodeID {
	switch t {
	case RoutineShop, RoutineTravelToShop:
		return work
	case RoutineFreeTime:
		return current
	default: // HOME, TRAVEL_HOME, and anything unrecognized
		return home
	}
}
