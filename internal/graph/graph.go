// Package graph builds a walkable street graph from raw line geometry and
// answers nearest-node, shortest-path, and reachability queries against it.
// A graph is immutable after Build and safe for concurrent reads.
package graph

import (
	"github.com/talgya/serenissima/internal/geo"
)

// NodeID identifies a node by its quantized coordinate key.
type NodeID string

// Node is a point in the walkable graph.
type Node struct {
	ID  NodeID  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinate returns the node's position.
func (n Node) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: n.Lat, Lng: n.Lng}
}

// Edge is an undirected connection between two nodes carrying the original
// polyline geometry, so rendered paths follow the street rather than cutting
// corners. Geometry always starts at From's coordinate and ends at To's;
// direction is resolved at query time.
type Edge struct {
	From     NodeID
	To       NodeID
	Geometry []geo.Coordinate
	length   float64
}

// Length returns the edge's great-circle length in meters.
func (e Edge) Length() float64 {
	return e.length
}

// edgeKey is an unordered node pair.
type edgeKey struct {
	a, b NodeID
}

func keyFor(a, b NodeID) edgeKey {
	if b < a {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// StreetGraph owns all nodes, edges, and adjacency. Build it once and share
// it read-only; no query mutates it.
type StreetGraph struct {
	nodes     map[NodeID]Node
	nodeOrder []NodeID // insertion order, for deterministic scans
	edges     []Edge
	edgeIndex map[edgeKey]int
	adjacency map[NodeID][]NodeID
}

// Build constructs a StreetGraph from a set of polylines. Each consecutive
// coordinate pair becomes an undirected edge between quantized endpoints, so
// independently authored layers (street lines, ferry routes) join wherever
// they share an endpoint. Deterministic given identical input order.
func Build(lines [][]geo.Coordinate) *StreetGraph {
	g := &StreetGraph{
		nodes:     make(map[NodeID]Node),
		edgeIndex: make(map[edgeKey]int),
		adjacency: make(map[NodeID][]NodeID),
	}
	for _, line := range lines {
		for i := 0; i+1 < len(line); i++ {
			from := g.intern(line[i])
			to := g.intern(line[i+1])
			if from == to {
				// Sub-quantization segment, nothing to connect.
				continue
			}
			key := keyFor(from, to)
			if _, dup := g.edgeIndex[key]; dup {
				continue
			}
			geom := []geo.Coordinate{g.nodes[from].Coordinate(), g.nodes[to].Coordinate()}
			g.edgeIndex[key] = len(g.edges)
			g.edges = append(g.edges, Edge{
				From:     from,
				To:       to,
				Geometry: geom,
				length:   geo.PathLength(geom),
			})
			g.adjacency[from] = append(g.adjacency[from], to)
			g.adjacency[to] = append(g.adjacency[to], from)
		}
	}
	return g
}

// intern quantizes a coordinate to its node, creating the node on first sight.
// The stored coordinate is the first one seen for the key, which keeps node
// positions stable for the lifetime of the graph.
func (g *StreetGraph) intern(c geo.Coordinate) NodeID {
	id := NodeID(geo.Key(c.Lat, c.Lng))
	if _, ok := g.nodes[id]; !ok {
		g.nodes[id] = Node{ID: id, Lat: c.Lat, Lng: c.Lng}
		g.nodeOrder = append(g.nodeOrder, id)
	}
	return id
}

// Node looks up a node by id.
func (g *StreetGraph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Neighbors returns the adjacency list for a node. Callers must not mutate it.
func (g *StreetGraph) Neighbors(id NodeID) []NodeID {
	return g.adjacency[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *StreetGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *StreetGraph) EdgeCount() int {
	return len(g.edges)
}

// edgeBetween finds the edge connecting two nodes, in either orientation.
func (g *StreetGraph) edgeBetween(a, b NodeID) (Edge, bool) {
	idx, ok := g.edgeIndex[keyFor(a, b)]
	if !ok {
		return Edge{}, false
	}
	return g.edges[idx], true
}
