// Query operations. Absence of a path is a normal outcome in this city,
// where land and water form disconnected regions, so every lookup reports
// not-found through its return values instead of failing.
package graph

import (
	"github.com/talgya/serenissima/internal/geo"
)

// NearestNode returns the node closest to the given coordinate by
// great-circle distance. A linear scan: graphs here are city-block scale
// (thousands of nodes), and callers must not assume sub-linear cost.
// Returns false only for an empty graph.
func (g *StreetGraph) NearestNode(lat, lng float64) (Node, bool) {
	target := geo.Coordinate{Lat: lat, Lng: lng}
	best := Node{}
	bestDist := -1.0
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		d := geo.Distance(n.Coordinate(), target)
		if bestDist < 0 || d < bestDist {
			best = n
			bestDist = d
		}
	}
	return best, bestDist >= 0
}

// ShortestPathUnweighted runs breadth-first search over adjacency and returns
// the node sequence from start to goal. Edge length is irrelevant here; this
// is the feasibility query routine and detour travel use. Ties between
// equal-length paths fall to BFS visitation order, which follows adjacency
// insertion order and is not otherwise specified.
func (g *StreetGraph) ShortestPathUnweighted(start, goal NodeID) ([]NodeID, bool) {
	if _, ok := g.nodes[start]; !ok {
		return nil, false
	}
	if _, ok := g.nodes[goal]; !ok {
		return nil, false
	}
	if start == goal {
		return []NodeID{start}, true
	}

	prev := map[NodeID]NodeID{start: start}
	queue := []NodeID{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.adjacency[current] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = current
			if next == goal {
				return rebuildPath(prev, start, goal), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func rebuildPath(prev map[NodeID]NodeID, start, goal NodeID) []NodeID {
	path := []NodeID{goal}
	for at := goal; at != start; at = prev[at] {
		path = append(path, prev[at])
	}
	// Reverse in place.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ShortestDistanceWeighted runs Dijkstra with great-circle edge length as
// weight and returns the shortest distance in meters. Used whenever a numeric
// time or distance budget has to be checked.
func (g *StreetGraph) ShortestDistanceWeighted(start, goal NodeID) (float64, bool) {
	if _, ok := g.nodes[start]; !ok {
		return 0, false
	}
	if _, ok := g.nodes[goal]; !ok {
		return 0, false
	}

	settled := make(map[NodeID]bool)
	frontier := &minQueue[NodeID]{}
	frontier.push(start, 0)
	for !frontier.empty() {
		current, dist := frontier.pop()
		if settled[current] {
			continue
		}
		settled[current] = true
		if current == goal {
			return dist, true
		}
		for _, next := range g.adjacency[current] {
			if settled[next] {
				continue
			}
			edge, ok := g.edgeBetween(current, next)
			if !ok {
				continue
			}
			frontier.push(next, dist+edge.Length())
		}
	}
	return 0, false
}

// ReachableWithinBudget runs a bounded Dijkstra from start, stopping once the
// frontier exceeds the distance walkable in maxMinutes at walkingSpeed
// (meters per second). Returns every settled node with its cumulative
// distance in meters, boundary-inclusive. This is the cheap "what is nearby"
// query the detour evaluator builds candidate sets from.
func (g *StreetGraph) ReachableWithinBudget(start NodeID, maxMinutes, walkingSpeed float64) map[NodeID]float64 {
	reached := make(map[NodeID]float64)
	if _, ok := g.nodes[start]; !ok {
		return reached
	}
	budget := maxMinutes * 60 * walkingSpeed

	frontier := &minQueue[NodeID]{}
	frontier.push(start, 0)
	for !frontier.empty() {
		current, dist := frontier.pop()
		if dist > budget {
			// Min-queue invariant: everything left is at least this far.
			break
		}
		if _, seen := reached[current]; seen {
			continue
		}
		reached[current] = dist
		for _, next := range g.adjacency[current] {
			if _, seen := reached[next]; seen {
				continue
			}
			edge, ok := g.edgeBetween(current, next)
			if !ok {
				continue
			}
			frontier.push(next, dist+edge.Length())
		}
	}
	return reached
}

// ExpandToCoordinates stitches a node path back into the full street
// geometry. For each consecutive pair it orients the connecting edge's stored
// polyline (reversing when the edge was built the other way) and concatenates
// all but the duplicated joint point. Degenerates gracefully: a single-node
// path yields that node's coordinate, and a missing edge falls back to the
// bare node coordinate, because upstream data occasionally has gaps.
func (g *StreetGraph) ExpandToCoordinates(path []NodeID) []geo.Coordinate {
	out := make([]geo.Coordinate, 0, len(path))
	push := func(c geo.Coordinate) {
		if n := len(out); n > 0 && out[n-1] == c {
			return
		}
		out = append(out, c)
	}

	for i := 0; i+1 < len(path); i++ {
		edge, ok := g.edgeBetween(path[i], path[i+1])
		if !ok {
			if n, exists := g.nodes[path[i]]; exists {
				push(n.Coordinate())
			}
			continue
		}
		geom := edge.Geometry
		if edge.From != path[i] {
			geom = reverseCoords(geom)
		}
		for _, c := range geom[:len(geom)-1] {
			push(c)
		}
	}
	if len(path) > 0 {
		if n, ok := g.nodes[path[len(path)-1]]; ok {
			push(n.Coordinate())
		}
	}
	return out
}

func reverseCoords(in []geo.Coordinate) []geo.Coordinate {
	out := make([]geo.Coordinate, len(in))
	for i, c := range in {
		out[len(in)-1-i] = c
	}
	return out
}
