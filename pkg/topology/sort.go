package topology

import (
	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/graph"
)

// Sorter is the chain-sorting primitive: it groups segments into maximal
// connected runs and orders each run for traversal. Runs hold indices into
// segs. Hosts with a kernel-native sorter can supply their own.
type Sorter interface {
	SortConnected(segs []geom.Segment) [][]int
}

// ProximitySorter is the built-in Sorter. Segment ends closer than Eps are
// connected.
type ProximitySorter struct {
	Eps float64
}

// DefaultSorter connects ends at geom.VertexEpsilon.
var DefaultSorter Sorter = ProximitySorter{Eps: geom.VertexEpsilon}

func (s ProximitySorter) SortConnected(segs []geom.Segment) [][]int {
	return SortConnected(segs, s.Eps)
}

// SortConnected groups segs into connected runs, in order of each run's
// lowest segment index, and orders every run so consecutive segments share
// an endpoint. An open run starts from its lowest-indexed dangling end. A
// branching run is walked greedily; when a walk dead-ends the next walk
// starts from the lowest unused segment of the same run, so the run stays
// complete even though it is no longer continuous.
func SortConnected(segs []geom.Segment, eps float64) [][]int {
	if len(segs) == 0 {
		return nil
	}
	idx := NewEndpointIndex(segs, eps)

	var runs [][]int
	assigned := make([]bool, len(segs))
	for i := range segs {
		if assigned[i] {
			continue
		}
		comp := component(idx, i, assigned)
		runs = append(runs, walkRun(idx, comp))
	}
	return runs
}

// component collects every segment reachable from start through shared
// endpoints, marking them assigned. The result is in ascending order.
func component(idx *EndpointIndex, start int, assigned []bool) []int {
	member := map[int]bool{start: true}
	assigned[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range [...]graph.End{graph.First, graph.Last} {
			for _, ref := range idx.Near(idx.Endpoint(cur, e)) {
				if assigned[ref.Segment] {
					continue
				}
				assigned[ref.Segment] = true
				member[ref.Segment] = true
				queue = append(queue, ref.Segment)
			}
		}
	}
	out := make([]int, 0, len(member))
	for i := 0; i < len(assigned); i++ {
		if member[i] {
			out = append(out, i)
		}
	}
	return out
}

// walkRun orders the segments of one connected component.
func walkRun(idx *EndpointIndex, comp []int) []int {
	used := make(map[int]bool, len(comp))
	order := make([]int, 0, len(comp))

	for len(order) < len(comp) {
		cur, entry := startOf(idx, comp, used)
		for {
			used[cur] = true
			order = append(order, cur)
			exit := idx.Endpoint(cur, other(entry))

			next, nextEntry, ok := -1, graph.First, false
			for _, ref := range idx.Near(exit) {
				if !used[ref.Segment] {
					next, nextEntry, ok = ref.Segment, ref.End, true
					break
				}
			}
			if !ok {
				break
			}
			cur, entry = next, nextEntry
		}
	}
	return order
}

// startOf picks where a walk begins: the lowest unused segment with a
// dangling end (entering through that end), else the lowest unused segment
// entered through its first end.
func startOf(idx *EndpointIndex, comp []int, used map[int]bool) (int, graph.End) {
	fallback := -1
	for _, i := range comp {
		if used[i] {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		for _, e := range [...]graph.End{graph.First, graph.Last} {
			if len(idx.Near(idx.Endpoint(i, e))) == 1 {
				return i, e
			}
		}
	}
	return fallback, graph.First
}

func other(e graph.End) graph.End {
	if e == graph.First {
		return graph.Last
	}
	return graph.First
}
