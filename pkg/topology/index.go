package topology

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/graph"
)

// R-tree node fan-out. Selections hold tens to hundreds of segments, so the
// exact values matter little.
const (
	indexMinChildren = 4
	indexMaxChildren = 16
)

// EndpointRef names one end of one segment.
type EndpointRef struct {
	Segment int
	End     graph.End
	Point   geom.Vec
}

// endpoint is the rtreego.Spatial stored in the index.
type endpoint struct {
	ref  EndpointRef
	rect rtreego.Rect
}

func (e *endpoint) Bounds() rtreego.Rect {
	return e.rect
}

// EndpointIndex is a spatial index over both endpoints of every segment,
// answering "which segment ends lie within eps of this point".
type EndpointIndex struct {
	tree *rtreego.Rtree
	eps  float64
	segs []geom.Segment
	ends [][2]geom.Vec
}

// NewEndpointIndex indexes the endpoints of segs.
func NewEndpointIndex(segs []geom.Segment, eps float64) *EndpointIndex {
	idx := &EndpointIndex{
		tree: rtreego.NewTree(3, indexMinChildren, indexMaxChildren),
		eps:  eps,
		segs: segs,
		ends: make([][2]geom.Vec, len(segs)),
	}
	for i, s := range segs {
		first, last := geom.Endpoints(s)
		idx.ends[i] = [2]geom.Vec{first, last}
		idx.tree.Insert(&endpoint{
			ref:  EndpointRef{Segment: i, End: graph.First, Point: first},
			rect: toPoint(first).ToRect(eps),
		})
		idx.tree.Insert(&endpoint{
			ref:  EndpointRef{Segment: i, End: graph.Last, Point: last},
			rect: toPoint(last).ToRect(eps),
		})
	}
	return idx
}

func toPoint(v geom.Vec) rtreego.Point {
	return rtreego.Point{v.X, v.Y, v.Z}
}

// Len returns the number of indexed segments.
func (idx *EndpointIndex) Len() int {
	return len(idx.segs)
}

// Endpoint returns the point at end e of segment i.
func (idx *EndpointIndex) Endpoint(i int, e graph.End) geom.Vec {
	return idx.ends[i][e]
}

// Near returns the segment ends closer than eps to p, ordered by segment
// index then end.
func (idx *EndpointIndex) Near(p geom.Vec) []EndpointRef {
	hits := idx.tree.SearchIntersect(toPoint(p).ToRect(idx.eps))
	out := make([]EndpointRef, 0, len(hits))
	for _, h := range hits {
		ep := h.(*endpoint)
		if geom.Distance(ep.ref.Point, p) < idx.eps {
			out = append(out, ep.ref)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Segment != out[j].Segment {
			return out[i].Segment < out[j].Segment
		}
		return out[i].End < out[j].End
	})
	return out
}

// Candidates returns every pair (i, j), i < j, of segments having endpoints
// closer than eps, in ascending order.
func (idx *EndpointIndex) Candidates() [][2]int {
	seen := make(map[[2]int]bool)
	var out [][2]int
	for i := range idx.segs {
		for _, e := range [...]graph.End{graph.First, graph.Last} {
			for _, ref := range idx.Near(idx.ends[i][e]) {
				if ref.Segment <= i {
					continue
				}
				pair := [2]int{i, ref.Segment}
				if !seen[pair] {
					seen[pair] = true
					out = append(out, pair)
				}
			}
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a][0] != out[b][0] {
			return out[a][0] < out[b][0]
		}
		return out[a][1] < out[b][1]
	})
	return out
}

// VertexKeys groups segment ends into vertices for graph.BuildIncidences.
// Ends closer than eps, directly or through a chain of such ends, form one
// vertex keyed by the rounded position of its lowest-numbered end. Sorting
// and flipping use the same closeness test, so every component agrees on
// which ends meet.
func (idx *EndpointIndex) VertexKeys() graph.KeyFunc {
	parent := make([]int, 2*len(idx.segs))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range idx.segs {
		for _, e := range [...]graph.End{graph.First, graph.Last} {
			a := find(endID(i, e))
			for _, ref := range idx.Near(idx.ends[i][e]) {
				b := find(endID(ref.Segment, ref.End))
				switch {
				case a < b:
					parent[b] = a
				case b < a:
					parent[a] = b
					a = b
				}
			}
		}
	}

	keys := make([]geom.VertexKey, len(parent))
	owner := make(map[geom.VertexKey]int)
	for id := range parent {
		root := find(id)
		k := geom.KeyOf(idx.ends[root/2][root%2])
		if r, taken := owner[k]; taken && r != root {
			// Two vertices rounding alike: give the later one a key no
			// rounded position can produce.
			k = geom.VertexKey{math.MinInt64, int64(root), 0}
		}
		owner[k] = root
		keys[id] = k
	}
	return func(seg int, e graph.End, _ geom.Vec) geom.VertexKey {
		return keys[endID(seg, e)]
	}
}

func endID(seg int, e graph.End) int {
	return 2*seg + int(e)
}
