package graph

import (
	"testing"

	"github.com/chazu/weldbead/pkg/geom"
)

func square() []geom.Segment {
	a := geom.Vec{}
	b := geom.Vec{X: 10}
	c := geom.Vec{X: 10, Y: 10}
	d := geom.Vec{Y: 10}
	return []geom.Segment{
		geom.NewLine(a, b),
		geom.NewLine(c, b), // reversed on purpose
		geom.NewLine(c, d),
		geom.NewLine(a, d),
	}
}

func TestBuildIncidencesCycle(t *testing.T) {
	g := BuildIncidences(square(), nil)
	if g.VertexCount() != 4 {
		t.Fatalf("VertexCount = %d, want 4", g.VertexCount())
	}
	h := g.Histogram()
	if len(h) != 1 || h[2] != 4 {
		t.Errorf("Histogram = %v, want map[2:4]", h)
	}
	if got := g.DegreesAbove(2); len(got) != 0 {
		t.Errorf("DegreesAbove(2) = %v, want none", got)
	}
}

func TestBuildIncidencesOpenPath(t *testing.T) {
	segs := square()[:3]
	g := BuildIncidences(segs, nil)
	h := g.Histogram()
	if h[1] != 2 || h[2] != 2 {
		t.Errorf("Histogram = %v, want map[1:2 2:2]", h)
	}

	start := g.At(geom.KeyOf(geom.Vec{}))
	if len(start) != 1 || start[0] != (Incidence{Segment: 0, End: First}) {
		t.Errorf("At(origin) = %v, want [{0 first}]", start)
	}
	corner := g.At(geom.KeyOf(geom.Vec{X: 10}))
	if len(corner) != 2 {
		t.Fatalf("At(corner) = %v, want two incidences", corner)
	}
	if corner[1] != (Incidence{Segment: 1, End: Last}) {
		t.Errorf("second incidence = %v, want {1 last}", corner[1])
	}
}

func TestBuildIncidencesFuzzyCoincidence(t *testing.T) {
	segs := []geom.Segment{
		geom.NewLine(geom.Vec{}, geom.Vec{X: 1}),
		geom.NewLine(geom.Vec{X: 1.000001}, geom.Vec{X: 2}),
	}
	g := BuildIncidences(segs, nil)
	if g.VertexCount() != 3 {
		t.Errorf("VertexCount = %d, want 3 (near-coincident ends merged)", g.VertexCount())
	}
}

func TestBranchingDegree(t *testing.T) {
	o := geom.Vec{}
	segs := []geom.Segment{
		geom.NewLine(o, geom.Vec{X: 1}),
		geom.NewLine(o, geom.Vec{Y: 1}),
		geom.NewLine(o, geom.Vec{Z: 1}),
	}
	g := BuildIncidences(segs, nil)
	above := g.DegreesAbove(2)
	if len(above) != 1 || above[0] != geom.KeyOf(o) {
		t.Errorf("DegreesAbove(2) = %v, want [origin]", above)
	}
	if got := HistogramKeys(g.Histogram()); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("HistogramKeys = %v, want [1 3]", got)
	}
}

func TestEndString(t *testing.T) {
	tests := []struct {
		end  End
		want string
	}{
		{First, "first"},
		{Last, "last"},
		{End(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.end.String(); got != tt.want {
			t.Errorf("End(%d).String() = %q, want %q", int(tt.end), got, tt.want)
		}
	}
}

func TestBuildIncidencesCustomKey(t *testing.T) {
	// Every end of segment 1 is folded onto the origin vertex.
	segs := square()[:2]
	origin := geom.KeyOf(geom.Vec{})
	g := BuildIncidences(segs, func(seg int, _ End, p geom.Vec) geom.VertexKey {
		if seg == 1 {
			return origin
		}
		return geom.KeyOf(p)
	})
	if g.Degree(origin) != 3 {
		t.Errorf("Degree(origin) = %d, want 3", g.Degree(origin))
	}
	if g.VertexCount() != 2 {
		t.Errorf("VertexCount = %d, want 2", g.VertexCount())
	}
}
