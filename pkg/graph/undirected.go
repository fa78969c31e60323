package graph

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
)

// Undirected is an undirected graph over nodes 0..n-1 whose edges all carry
// weight 1. Node i is the i-th segment of a shape. It is backed by an
// unweighted lvlath graph; vertex ids are the decimal node numbers.
type Undirected struct {
	n int
	g *core.Graph
}

// NewUndirected returns a graph with n nodes and no edges.
func NewUndirected(n int) *Undirected {
	g := core.NewGraph(core.WithDirected(false))
	for i := 0; i < n; i++ {
		// Ids are non-empty and unique, so AddVertex cannot fail.
		_ = g.AddVertex(nodeID(i))
	}
	return &Undirected{n: n, g: g}
}

func nodeID(i int) string {
	return strconv.Itoa(i)
}

func (g *Undirected) inRange(a int) bool {
	return a >= 0 && a < g.n
}

// Len returns the number of nodes.
func (g *Undirected) Len() int {
	return g.n
}

// AddEdge connects a and b. Self loops and repeated edges are ignored.
func (g *Undirected) AddEdge(a, b int) error {
	if !g.inRange(a) || !g.inRange(b) {
		return fmt.Errorf("graph: edge (%d, %d) out of range for %d nodes", a, b, g.n)
	}
	if a == b || g.HasEdge(a, b) {
		return nil
	}
	if _, err := g.g.AddEdge(nodeID(a), nodeID(b), 0); err != nil {
		return fmt.Errorf("graph: edge (%d, %d): %w", a, b, err)
	}
	return nil
}

// HasEdge reports whether a and b are adjacent.
func (g *Undirected) HasEdge(a, b int) bool {
	if !g.inRange(a) || !g.inRange(b) {
		return false
	}
	return g.g.HasEdge(nodeID(a), nodeID(b))
}

// EdgeCount returns the number of undirected edges.
func (g *Undirected) EdgeCount() int {
	return g.g.EdgeCount()
}

// Neighbors returns the nodes adjacent to a in ascending order.
func (g *Undirected) Neighbors(a int) []int {
	if !g.inRange(a) {
		return nil
	}
	ids, err := g.g.NeighborIDs(nodeID(a))
	if err != nil {
		return nil
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if n, err := strconv.Atoi(id); err == nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// Distances returns the shortest-path distance from seed to every node
// reachable within maxDistance. With unit weights the breadth-first depth
// is the Dijkstra distance. Unreachable nodes are absent.
func (g *Undirected) Distances(seed int, maxDistance float64) (map[int]float64, error) {
	if !g.inRange(seed) {
		return nil, fmt.Errorf("graph: seed %d out of range for %d nodes", seed, g.n)
	}
	res, err := bfs.BFS(g.g, nodeID(seed))
	if err != nil {
		return nil, fmt.Errorf("graph: search from %d: %w", seed, err)
	}
	dist := make(map[int]float64, len(res.Depth))
	for id, depth := range res.Depth {
		n, err := strconv.Atoi(id)
		if err != nil || float64(depth) > maxDistance {
			continue
		}
		dist[n] = float64(depth)
	}
	return dist, nil
}

// Reachable returns the nodes at finite distance from seed within
// maxDistance, sorted ascending. A negative maxDistance is treated as
// unbounded.
func (g *Undirected) Reachable(seed int, maxDistance float64) ([]int, error) {
	if maxDistance < 0 {
		maxDistance = math.Inf(1)
	}
	dist, err := g.Distances(seed, maxDistance)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(dist))
	for n := range dist {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
