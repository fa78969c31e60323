package tangency

import (
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/shape"
)

func v(x, y float64) geom.Vec { return geom.Vec{X: x, Y: y} }

// slot returns a stadium outline: two straights joined by half circles,
// plus a spur meeting the lower straight's end at a right angle.
//
//	0: lower straight (0,0)->(10,0)
//	1: right half circle (10,0)->(10,4), tangent to 0 and 2
//	2: upper straight (10,4)->(0,4), given reversed
//	3: left half circle (0,4)->(0,0)
//	4: spur (10,0)->(10,-5), sharp against 0 and 1
func slot(t *testing.T) *shape.Shape {
	t.Helper()
	right := geom.NewArc(v(10, 2), 2, geom.Vec{Z: 1}, -math.Pi/2, math.Pi)
	left := geom.NewArc(v(0, 2), 2, geom.Vec{Z: 1}, math.Pi/2, math.Pi)
	s, err := shape.New("slot", []geom.Segment{
		geom.NewLine(v(0, 0), v(10, 0)),
		right,
		geom.NewLine(v(0, 4), v(10, 4)),
		left,
		geom.NewLine(v(10, 0), v(10, -5)),
	})
	if err != nil {
		t.Fatalf("shape.New: %v", err)
	}
	return s
}

func TestJointAngle(t *testing.T) {
	tests := []struct {
		name   string
		a, b   geom.Segment
		want   float64
		smooth bool
	}{
		{"straight continuation", geom.NewLine(v(0, 0), v(1, 0)), geom.NewLine(v(1, 0), v(3, 0)), math.Pi, true},
		{"continuation reversed", geom.NewLine(v(1, 0), v(0, 0)), geom.NewLine(v(3, 0), v(1, 0)), math.Pi, true},
		{"right angle", geom.NewLine(v(0, 0), v(1, 0)), geom.NewLine(v(1, 0), v(1, 1)), math.Pi / 2, false},
		{"hairpin", geom.NewLine(v(0, 0), v(1, 0)), geom.NewLine(v(1, 0), v(0, 0)), 0, false},
		{"slight kink", geom.NewLine(v(0, 0), v(1, 0)), geom.NewLine(v(1, 0), v(2, 0.2)), math.Pi - math.Atan(0.2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JointAngle(tt.a, tt.b)
			if !ok {
				t.Fatal("segments should meet")
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("JointAngle = %g, want %g", got, tt.want)
			}
			if IsSmooth(got) != tt.smooth {
				t.Errorf("IsSmooth(%g) = %v, want %v", got, IsSmooth(got), tt.smooth)
			}
		})
	}
}

func TestJointAngleDisjoint(t *testing.T) {
	if _, ok := JointAngle(geom.NewLine(v(0, 0), v(1, 0)), geom.NewLine(v(2, 0), v(3, 0))); ok {
		t.Error("disjoint segments reported a joint")
	}
}

func TestBuildAdjacency(t *testing.T) {
	g := BuildAdjacency(slot(t).Edges)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}} {
		if !g.HasEdge(e[0], e[1]) {
			t.Errorf("missing smooth joint %v", e)
		}
	}
	for _, n := range []int{0, 1} {
		if g.HasEdge(4, n) {
			t.Errorf("sharp joint 4-%d recorded as smooth", n)
		}
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount = %d, want 4", g.EdgeCount())
	}
}

// cubic is a Bezier segment, used where the tangents at the two ends of a
// segment must differ in a way no line or arc allows.
type cubic [4]geom.Vec

func (c cubic) ParameterRange() (float64, float64) { return 0, 1 }

func (c cubic) ValueAt(t float64) geom.Vec {
	u := 1 - t
	return c[0].MulScalar(u * u * u).
		Add(c[1].MulScalar(3 * u * u * t)).
		Add(c[2].MulScalar(3 * u * t * t)).
		Add(c[3].MulScalar(t * t * t))
}

func (c cubic) DerivativeAt(t float64) geom.Vec {
	u := 1 - t
	return c[1].Sub(c[0]).MulScalar(3 * u * u).
		Add(c[2].Sub(c[1]).MulScalar(6 * u * t)).
		Add(c[3].Sub(c[2]).MulScalar(3 * t * t))
}

func (c cubic) Length() float64 {
	var l float64
	prev := c.ValueAt(0)
	for i := 1; i <= 64; i++ {
		p := c.ValueAt(float64(i) / 64)
		l += geom.Distance(prev, p)
		prev = p
	}
	return l
}

func TestFirstJointDecidesSmoothness(t *testing.T) {
	// The curve leaves the line's end at a right angle and comes back into
	// the line's start tangentially. The end joint is the one measured.
	segs := []geom.Segment{
		geom.NewLine(v(0, 0), v(1, 0)),
		cubic{v(1, 0), v(1, -1), v(-1, 0), v(0, 0)},
	}
	angle, ok := JointAngle(segs[0], segs[1])
	if !ok {
		t.Fatal("segments should meet")
	}
	if math.Abs(angle-math.Pi/2) > 1e-9 {
		t.Errorf("JointAngle = %g, want pi/2", angle)
	}
	if g := BuildAdjacency(segs); g.HasEdge(0, 1) {
		t.Error("joint recorded as smooth through the second endpoint pair")
	}
}

func TestExpand(t *testing.T) {
	s := slot(t)
	p := NewPropagator(0)
	tests := []struct {
		name string
		seed int
		max  float64
		want []int
	}{
		{"loop from straight", 0, DefaultMaxDistance, []int{0, 1, 2, 3}},
		{"loop from arc", 3, DefaultMaxDistance, []int{0, 1, 2, 3}},
		{"spur stays alone", 4, DefaultMaxDistance, []int{4}},
		{"one joint", 0, 1, []int{0, 1, 3}},
		{"zero distance", 2, 0, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Expand(s, tt.seed, tt.max)
			if err != nil {
				t.Fatalf("Expand: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expand(%d) = %v, want %v", tt.seed, got, tt.want)
			}
			if !slices.Contains(got, tt.seed) {
				t.Errorf("seed %d missing from %v", tt.seed, got)
			}
		})
	}
}

func TestExpandErrors(t *testing.T) {
	p := NewPropagator(0)
	if _, err := p.Expand(nil, 0, DefaultMaxDistance); err == nil {
		t.Error("nil shape should fail")
	}
	if _, err := p.Expand(slot(t), 9, DefaultMaxDistance); err == nil {
		t.Error("out of range seed should fail")
	}
}

func TestCacheReuseAndInvalidate(t *testing.T) {
	s := slot(t)
	p := NewPropagator(0)
	for range 3 {
		if _, err := p.Expand(s, 0, DefaultMaxDistance); err != nil {
			t.Fatal(err)
		}
	}
	st := p.Stats()
	if st.Misses != 1 || st.Hits != 2 || st.Entries != 1 {
		t.Errorf("stats = %+v, want 1 miss, 2 hits, 1 entry", st)
	}

	p.Invalidate(s.ID)
	if p.Len() != 0 {
		t.Fatalf("Len = %d after Invalidate", p.Len())
	}
	if _, err := p.Expand(s, 0, DefaultMaxDistance); err != nil {
		t.Fatal(err)
	}
	if got := p.Stats().Misses; got != 2 {
		t.Errorf("Misses = %d, want rebuild after Invalidate", got)
	}

	p.Purge()
	if p.Len() != 0 {
		t.Errorf("Len = %d after Purge", p.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	p := NewPropagator(2)
	a, b, c := slot(t), slot(t), slot(t)
	for _, s := range []*shape.Shape{a, b, a, c} {
		if _, err := p.Expand(s, 0, DefaultMaxDistance); err != nil {
			t.Fatal(err)
		}
	}
	st := p.Stats()
	if st.Entries != 2 || st.Evictions != 1 {
		t.Fatalf("stats = %+v, want 2 entries and 1 eviction", st)
	}
	// b was least recently used, so a is still cached.
	if _, err := p.Expand(a, 0, DefaultMaxDistance); err != nil {
		t.Fatal(err)
	}
	if got := p.Stats().Hits; got != 2 {
		t.Errorf("Hits = %d, want 2", got)
	}
}

func TestConcurrentExpand(t *testing.T) {
	s := slot(t)
	p := NewPropagator(0)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Expand(s, i%5, DefaultMaxDistance)
			if err != nil {
				t.Error(err)
				return
			}
			if !slices.Contains(got, i%5) {
				t.Errorf("seed %d missing", i%5)
			}
		}()
	}
	wg.Wait()
	if p.Len() != 1 {
		t.Errorf("Len = %d, want 1", p.Len())
	}
}
