package graph

import (
	"sort"

	"github.com/chazu/weldbead/pkg/geom"
)

// End names one end of a segment.
type End int

const (
	First End = iota // endpoint at the first parameter
	Last             // endpoint at the last parameter
)

func (e End) String() string {
	switch e {
	case First:
		return "first"
	case Last:
		return "last"
	default:
		return "unknown"
	}
}

// Incidence records that one end of a segment touches a vertex.
type Incidence struct {
	Segment int // index into the classified segment slice
	End     End
}

// Incidences maps vertex keys to the segment ends touching them. The degree
// of a vertex is its incidence count.
type Incidences struct {
	byVertex map[geom.VertexKey][]Incidence
	order    []geom.VertexKey // insertion order, for deterministic iteration
}

// NewIncidences returns an empty incidence graph.
func NewIncidences() *Incidences {
	return &Incidences{byVertex: make(map[geom.VertexKey][]Incidence)}
}

// KeyFunc names the vertex that end e of segment seg, located at p,
// belongs to.
type KeyFunc func(seg int, e End, p geom.Vec) geom.VertexKey

// BuildIncidences records both endpoints of every segment under the vertex
// chosen by key. A nil key rounds the endpoint with geom.KeyOf.
func BuildIncidences(segs []geom.Segment, key KeyFunc) *Incidences {
	if key == nil {
		key = func(_ int, _ End, p geom.Vec) geom.VertexKey { return geom.KeyOf(p) }
	}
	g := NewIncidences()
	for i, s := range segs {
		first, last := geom.Endpoints(s)
		g.Add(key(i, First, first), Incidence{Segment: i, End: First})
		g.Add(key(i, Last, last), Incidence{Segment: i, End: Last})
	}
	return g
}

// Add records an incidence at vertex k.
func (g *Incidences) Add(k geom.VertexKey, inc Incidence) {
	if _, ok := g.byVertex[k]; !ok {
		g.order = append(g.order, k)
	}
	g.byVertex[k] = append(g.byVertex[k], inc)
}

// At returns the incidences at vertex k.
func (g *Incidences) At(k geom.VertexKey) []Incidence {
	return g.byVertex[k]
}

// Degree returns the number of segment ends at vertex k.
func (g *Incidences) Degree(k geom.VertexKey) int {
	return len(g.byVertex[k])
}

// VertexCount returns the number of distinct vertices.
func (g *Incidences) VertexCount() int {
	return len(g.order)
}

// Vertices returns vertex keys in first-seen order.
func (g *Incidences) Vertices() []geom.VertexKey {
	out := make([]geom.VertexKey, len(g.order))
	copy(out, g.order)
	return out
}

// Histogram maps each degree to the number of vertices having it.
func (g *Incidences) Histogram() map[int]int {
	h := make(map[int]int)
	for _, k := range g.order {
		h[len(g.byVertex[k])]++
	}
	return h
}

// DegreesAbove returns the vertices whose degree exceeds n, in first-seen
// order.
func (g *Incidences) DegreesAbove(n int) []geom.VertexKey {
	var out []geom.VertexKey
	for _, k := range g.order {
		if len(g.byVertex[k]) > n {
			out = append(out, k)
		}
	}
	return out
}

// HistogramKeys returns the degrees present in h in ascending order.
func HistogramKeys(h map[int]int) []int {
	keys := make([]int, 0, len(h))
	for d := range h {
		keys = append(keys, d)
	}
	sort.Ints(keys)
	return keys
}
