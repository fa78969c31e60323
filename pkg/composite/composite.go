// Package composite wraps an ordered, oriented segment chain as a single
// curve parameterised by arc length over [0, Length].
package composite

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/logging"
	"github.com/chazu/weldbead/pkg/topology"
)

// ErrZeroLength is returned by New when the chain has no length to sample.
var ErrZeroLength = errors.New("composite: chain has zero total length")

// OutOfRangeError reports an arc-length parameter outside [0, Length].
type OutOfRangeError struct {
	S      float64
	Length float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("composite: parameter %g outside [0, %g]", e.S, e.Length)
}

// Curve is a chain of oriented segments evaluated as one curve.
type Curve struct {
	entries []topology.Oriented
	lengths []float64 // length of entries[i]
	cum     []float64 // strictly increasing: cum[i] = sum(lengths[:i+1])
	total   float64
}

// New builds a curve from chain. Members of zero length are skipped, so the
// cumulative table is strictly increasing.
func New(chain topology.Chain) (*Curve, error) {
	c := &Curve{}
	for _, e := range chain.Entries {
		l := e.Segment.Length()
		if l <= 0 {
			logging.Logger().Warn("skipping zero-length segment", "index", e.Index)
			continue
		}
		c.total += l
		c.entries = append(c.entries, e)
		c.lengths = append(c.lengths, l)
		c.cum = append(c.cum, c.total)
	}
	if len(c.entries) == 0 {
		return nil, ErrZeroLength
	}
	return c, nil
}

// FromSegments orders and orients segs with the default sorter and builds
// a curve from the result.
func FromSegments(segs []geom.Segment) (*Curve, error) {
	chain, err := topology.OrderAndOrient(segs, nil)
	if err != nil {
		return nil, err
	}
	return New(chain)
}

// Length returns the total arc length.
func (c *Curve) Length() float64 {
	return c.total
}

// ParameterRange returns (0, Length).
func (c *Curve) ParameterRange() (float64, float64) {
	return 0, c.total
}

// Entries returns the oriented members actually used by the curve.
func (c *Curve) Entries() []topology.Oriented {
	return c.entries
}

// Segments returns the underlying segments in traversal order.
func (c *Curve) Segments() []geom.Segment {
	return lo.Map(c.entries, func(e topology.Oriented, _ int) geom.Segment {
		return e.Segment
	})
}

// ValueAt returns the point at arc length s from the start of the chain.
// Within a member the position is linear in that member's own parameter.
func (c *Curve) ValueAt(s float64) (geom.Vec, error) {
	if s < 0 || s > c.total {
		return geom.Vec{}, &OutOfRangeError{S: s, Length: c.total}
	}
	i := sort.SearchFloat64s(c.cum, s)
	prior := c.cum[i] - c.lengths[i]
	frac := (s - prior) / c.lengths[i]
	frac = min(1, max(0, frac))

	e := c.entries[i]
	if e.Flipped {
		frac = 1 - frac
	}
	t0, t1 := e.Segment.ParameterRange()
	return e.Segment.ValueAt(t0 + frac*(t1-t0)), nil
}

// Discretize returns n+1 points at arc lengths i/n * Length. A lone
// unflipped member is evaluated on its own parameterisation instead.
func (c *Curve) Discretize(n int) ([]geom.Vec, error) {
	if n < 1 {
		return nil, fmt.Errorf("composite: discretize needs n >= 1, got %d", n)
	}
	pts := make([]geom.Vec, n+1)
	if len(c.entries) == 1 && !c.entries[0].Flipped {
		s := c.entries[0].Segment
		t0, t1 := s.ParameterRange()
		for i := range pts {
			pts[i] = s.ValueAt(t0 + (t1-t0)*float64(i)/float64(n))
		}
		return pts, nil
	}
	for i := range pts {
		p, err := c.ValueAt(c.total * float64(i) / float64(n))
		if err != nil {
			return nil, err
		}
		pts[i] = p
	}
	return pts, nil
}
