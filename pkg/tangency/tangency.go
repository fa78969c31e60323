// Package tangency expands a seed edge to every edge of the same shape that
// continues into it through smooth joints.
package tangency

import (
	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/graph"
	"github.com/chazu/weldbead/pkg/logging"
	"github.com/chazu/weldbead/pkg/topology"
)

// DefaultMaxDistance bounds how many smooth joints an expansion may cross.
const DefaultMaxDistance = 100

// JointAngle returns the angle, in [0, pi], between the tangents of a and b
// at the joint they share, both pointing away from the joint. A straight
// continuation gives pi and a hairpin gives 0. ok is false when a and b do
// not meet.
//
// When a and b meet at both ends, as two arcs closing a circle do, only the
// joint ShouldFlip would match first is measured.
func JointAngle(a, b geom.Segment) (angle float64, ok bool) {
	return jointAngle(a, b, geom.VertexEpsilon)
}

// IsSmooth reports whether a joint angle counts as tangent continuity.
func IsSmooth(angle float64) bool {
	return angle > geom.TangencyThreshold
}

// jointAngle measures the first endpoint pair of a and b closer than eps,
// in ShouldFlip priority order.
func jointAngle(a, b geom.Segment, eps float64) (float64, bool) {
	a0, a1 := a.ParameterRange()
	b0, b1 := b.ParameterRange()
	aFirst, aLast := a.ValueAt(a0), a.ValueAt(a1)
	bFirst, bLast := b.ValueAt(b0), b.ValueAt(b1)

	// Outward tangents: along the derivative at the first end, against it
	// at the last end.
	aOutFirst, aOutLast := a.DerivativeAt(a0), a.DerivativeAt(a1).MulScalar(-1)
	bOutFirst, bOutLast := b.DerivativeAt(b0), b.DerivativeAt(b1).MulScalar(-1)

	joints := [...]struct {
		p, q       geom.Vec
		tanA, tanB geom.Vec
	}{
		{aLast, bFirst, aOutLast, bOutFirst},
		{aLast, bLast, aOutLast, bOutLast},
		{aFirst, bFirst, aOutFirst, bOutFirst},
		{aFirst, bLast, aOutFirst, bOutLast},
	}
	for _, j := range joints {
		if geom.Distance(j.p, j.q) < eps {
			return geom.Angle(j.tanA, j.tanB), true
		}
	}
	return 0, false
}

// BuildAdjacency returns the tangency graph of segs: nodes are segment
// indices and an edge joins two segments whose JointAngle is smooth.
// Candidate pairs come from the endpoint index.
func BuildAdjacency(segs []geom.Segment) *graph.Undirected {
	g := graph.NewUndirected(len(segs))
	idx := topology.NewEndpointIndex(segs, geom.VertexEpsilon)
	for _, pair := range idx.Candidates() {
		a, b := segs[pair[0]], segs[pair[1]]
		if !topology.Connected(a, b, geom.VertexEpsilon) {
			continue
		}
		if angle, ok := jointAngle(a, b, geom.VertexEpsilon); ok && IsSmooth(angle) {
			// Indices come from the index, so they are in range.
			_ = g.AddEdge(pair[0], pair[1])
		}
	}
	logging.Logger().Debug("built tangency graph", "segments", len(segs), "smooth_joints", g.EdgeCount())
	return g
}
