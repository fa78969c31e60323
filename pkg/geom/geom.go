// Package geom defines the curve segment capability consumed by the weld
// path engine, the shared numerical tolerances, and a few concrete segment
// types (lines, circular arcs, placed segments) used by scripts, DXF import
// and tests.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec is a point or vector in model space (mm).
type Vec = v3.Vec

// Process-wide tolerances. Every component compares endpoints and joints
// with these values so ordering and connectivity never disagree.
const (
	// VertexEpsilon is the distance below which two endpoints are the same
	// topological vertex.
	VertexEpsilon = 1e-5

	// TangencyThreshold is the joint angle (radians) above which two
	// segments continue smoothly into each other.
	TangencyThreshold = 0.99 * math.Pi
)

// Segment is a parametric curve primitive owned by the host geometry layer.
// Implementations must be immutable for the duration of a recompute.
type Segment interface {
	// Length returns the arc length of the whole segment.
	Length() float64
	// ParameterRange returns the first and last parameter values.
	ParameterRange() (t0, t1 float64)
	// ValueAt evaluates the segment at parameter t.
	ValueAt(t float64) Vec
	// DerivativeAt returns the first derivative at parameter t.
	DerivativeAt(t float64) Vec
}

// Endpoints returns the points at the first and last parameter of s.
func Endpoints(s Segment) (first, last Vec) {
	t0, t1 := s.ParameterRange()
	return s.ValueAt(t0), s.ValueAt(t1)
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	return a.Sub(b).Length()
}

// Angle returns the angle between a and b in [0, pi]. Zero vectors yield 0.
func Angle(a, b Vec) float64 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

// VertexKey identifies a topological vertex: coordinates rounded to the
// number of decimals implied by the tolerance.
type VertexKey [3]int64

// KeyOf returns the vertex key of p at VertexEpsilon.
func KeyOf(p Vec) VertexKey {
	return KeyOfTol(p, VertexEpsilon)
}

// KeyOfTol returns the vertex key of p, rounding each coordinate to
// ceil(-log10(eps)) decimals.
func KeyOfTol(p Vec, eps float64) VertexKey {
	scale := math.Pow(10, math.Ceil(-math.Log10(eps)))
	return VertexKey{
		int64(math.Round(p.X * scale)),
		int64(math.Round(p.Y * scale)),
		int64(math.Round(p.Z * scale)),
	}
}
