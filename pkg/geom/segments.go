package geom

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
)

// Compile-time interface checks.
var (
	_ Segment = Line{}
	_ Segment = Arc{}
	_ Segment = Placed{}
)

// ---------------------------------------------------------------------------
// Line
// ---------------------------------------------------------------------------

// Line is a straight segment from P0 to P1, parameterised by distance from
// P0, so the parameter range is [0, |P1-P0|].
type Line struct {
	P0, P1 Vec
}

// NewLine returns the line from p0 to p1.
func NewLine(p0, p1 Vec) Line {
	return Line{P0: p0, P1: p1}
}

func (l Line) Length() float64 {
	return Distance(l.P0, l.P1)
}

func (l Line) ParameterRange() (float64, float64) {
	return 0, l.Length()
}

func (l Line) direction() Vec {
	n := l.Length()
	if n == 0 {
		return Vec{}
	}
	return l.P1.Sub(l.P0).MulScalar(1 / n)
}

func (l Line) ValueAt(t float64) Vec {
	return l.P0.Add(l.direction().MulScalar(t))
}

func (l Line) DerivativeAt(float64) Vec {
	return l.direction()
}

func (l Line) String() string {
	return fmt.Sprintf("Line(%v -> %v)", l.P0, l.P1)
}

// ---------------------------------------------------------------------------
// Arc
// ---------------------------------------------------------------------------

// Arc is a circular arc. The parameter is the polar angle in radians,
// measured from XAxis towards Normal x XAxis, over [Start, Start+Sweep].
type Arc struct {
	Center Vec
	Radius float64
	Normal Vec // unit plane normal
	XAxis  Vec // unit reference direction in the plane
	Start  float64
	Sweep  float64
}

// NewArc builds an arc around center in the plane with the given normal.
// Angles are in radians. The in-plane reference axis is derived from the
// normal: world X projected into the plane, or world Y when the normal is
// close to X.
func NewArc(center Vec, radius float64, normal Vec, start, sweep float64) Arc {
	n := normal.Normalize()
	ref := Vec{X: 1}
	if math.Abs(n.Dot(ref)) > 0.9 {
		ref = Vec{Y: 1}
	}
	x := ref.Sub(n.MulScalar(ref.Dot(n))).Normalize()
	return Arc{
		Center: center,
		Radius: radius,
		Normal: n,
		XAxis:  x,
		Start:  start,
		Sweep:  sweep,
	}
}

// NewArcXY builds an arc in a plane parallel to XY with angles in degrees,
// the convention used by DXF.
func NewArcXY(center Vec, radius, startDeg, endDeg float64) Arc {
	sweep := endDeg - startDeg
	for sweep <= 0 {
		sweep += 360
	}
	return Arc{
		Center: center,
		Radius: radius,
		Normal: Vec{Z: 1},
		XAxis:  Vec{X: 1},
		Start:  startDeg * math.Pi / 180,
		Sweep:  sweep * math.Pi / 180,
	}
}

func (a Arc) yAxis() Vec {
	return a.Normal.Cross(a.XAxis)
}

func (a Arc) Length() float64 {
	return a.Radius * math.Abs(a.Sweep)
}

func (a Arc) ParameterRange() (float64, float64) {
	return a.Start, a.Start + a.Sweep
}

func (a Arc) ValueAt(t float64) Vec {
	s, c := math.Sincos(t)
	return a.Center.
		Add(a.XAxis.MulScalar(a.Radius * c)).
		Add(a.yAxis().MulScalar(a.Radius * s))
}

func (a Arc) DerivativeAt(t float64) Vec {
	s, c := math.Sincos(t)
	return a.XAxis.MulScalar(-a.Radius * s).Add(a.yAxis().MulScalar(a.Radius * c))
}

func (a Arc) String() string {
	return fmt.Sprintf("Arc(c=%v r=%g start=%g sweep=%g)", a.Center, a.Radius, a.Start, a.Sweep)
}

// ---------------------------------------------------------------------------
// Placement
// ---------------------------------------------------------------------------

// Placed is a segment moved by a rigid transform. Scaling transforms are not
// supported: Length is taken from the underlying segment.
type Placed struct {
	Segment Segment
	M       sdf.M44
}

// Place returns s moved by m.
func Place(s Segment, m sdf.M44) Placed {
	return Placed{Segment: s, M: m}
}

// Placement builds a rigid transform from a translation and Euler angles in
// degrees, applied X first, then Y, then Z, then the translation.
func Placement(at, rotDeg Vec) sdf.M44 {
	const toRad = math.Pi / 180
	r := sdf.RotateZ(rotDeg.Z * toRad).Mul(sdf.RotateY(rotDeg.Y * toRad)).Mul(sdf.RotateX(rotDeg.X * toRad))
	return sdf.Translate3d(at).Mul(r)
}

func (p Placed) Length() float64 {
	return p.Segment.Length()
}

func (p Placed) ParameterRange() (float64, float64) {
	return p.Segment.ParameterRange()
}

func (p Placed) ValueAt(t float64) Vec {
	return p.M.MulPosition(p.Segment.ValueAt(t))
}

func (p Placed) DerivativeAt(t float64) Vec {
	o := p.Segment.ValueAt(t)
	d := p.Segment.DerivativeAt(t)
	return p.M.MulPosition(o.Add(d)).Sub(p.M.MulPosition(o))
}
