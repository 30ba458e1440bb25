// Movement integration: advancing a fractional position along a path.
package agents

import (
	"github.com/talgya/serenissima/internal/geo"
)

// Advance moves the agent along its current path by the distance walkable in
// deltaMs of real time. simSpeed is simulated minutes per real second, so the
// per-tick budget in simulated meters is
//
//	WalkingSpeed × (simSpeed × 60) × deltaMs / 1000.
//
// Progress stays fractional inside a segment rather than snapping to the next
// point, and never decreases. On reaching the final index the agent's current
// node becomes the path's target. The result depends only on the state and
// the arguments; callers own producing a correct deltaMs.
func Advance(s *State, deltaMs, simSpeed float64) {
	if len(s.CurrentPath) < 2 {
		return
	}
	last := float64(len(s.CurrentPath) - 1)
	if s.PathProgress >= last {
		return
	}
	budget := geo.WalkingSpeed * (simSpeed * 60) * deltaMs / 1000
	if budget <= 0 {
		return
	}

	idx := int(s.PathProgress)
	frac := s.PathProgress - float64(idx)
	for idx < len(s.CurrentPath)-1 && budget > 0 {
		segment := geo.Distance(s.CurrentPath[idx], s.CurrentPath[idx+1])
		if segment <= 0 {
			idx++
			frac = 0
			continue
		}
		remaining := segment * (1 - frac)
		if budget < remaining {
			frac += budget / segment
			budget = 0
		} else {
			budget -= remaining
			idx++
			frac = 0
		}
	}

	s.PathProgress = float64(idx) + frac
	if s.PathProgress >= last {
		s.PathProgress = last
		if s.TargetNodeID != "" {
			s.CurrentNodeID = s.TargetNodeID
		}
	}
}
