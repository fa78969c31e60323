// Package sample turns a composite curve into ordered point batches: one
// batch for a continuous bead, or one batch per stitch for an intermittent
// weld.
package sample

import (
	"fmt"
	"iter"
	"math"

	"github.com/samber/lo"

	"github.com/chazu/weldbead/pkg/composite"
	"github.com/chazu/weldbead/pkg/geom"
)

// Batch is an ordered run of sample points, at least two long.
type Batch []geom.Vec

// Length returns the polyline length of b.
func (b Batch) Length() float64 {
	var l float64
	for i := 1; i < len(b); i++ {
		l += geom.Distance(b[i-1], b[i])
	}
	return l
}

// Curve is the arc-length parameterised path being sampled.
type Curve interface {
	Length() float64
	ValueAt(s float64) (geom.Vec, error)
	Discretize(n int) ([]geom.Vec, error)
}

var _ Curve = (*composite.Curve)(nil)

// endpointInset is the fraction of the adjacent sample interval by which
// Options.EndpointInset pulls the first and last points inward.
const endpointInset = 0.05

// Options tunes uniform sampling.
type Options struct {
	// EndpointInset moves the first and last samples inward so preview
	// spheres do not poke past the ends of the path.
	EndpointInset bool
}

// Count returns the number of intervals used for a path of length l at the
// given spacing: floor(l/spacing), never fewer than 2.
func Count(l, spacing float64) int {
	return max(2, int(math.Floor(l/spacing)))
}

// Uniform samples c at roughly pitch spacing. It returns Count(L, pitch)+1
// points including both ends.
func Uniform(c Curve, pitch float64, opts Options) (Batch, error) {
	if pitch <= 0 {
		return nil, fmt.Errorf("sample: pitch must be positive, got %g", pitch)
	}
	pts, err := c.Discretize(Count(c.Length(), pitch))
	if err != nil {
		return nil, fmt.Errorf("sample: uniform: %w", err)
	}
	if opts.EndpointInset {
		inset(pts)
	}
	return pts, nil
}

func inset(pts []geom.Vec) {
	n := len(pts)
	first := pts[0].Add(pts[1].Sub(pts[0]).MulScalar(endpointInset))
	last := pts[n-1].Add(pts[n-2].Sub(pts[n-1]).MulScalar(endpointInset))
	pts[0], pts[n-1] = first, last
}

// Intermittent describes a stitched weld: beads of Stitch length starting
// every Pitch along the path, the first one at Offset. Spacing is the
// target distance between samples inside a stitch.
type Intermittent struct {
	Stitch  float64
	Pitch   float64
	Offset  float64
	Spacing float64
}

func (p Intermittent) validate() error {
	switch {
	case p.Stitch <= 0:
		return fmt.Errorf("sample: stitch length must be positive, got %g", p.Stitch)
	case p.Pitch <= 0:
		return fmt.Errorf("sample: stitch pitch must be positive, got %g", p.Pitch)
	case p.Spacing <= 0:
		return fmt.Errorf("sample: spacing must be positive, got %g", p.Spacing)
	case p.Offset < 0:
		return fmt.Errorf("sample: offset must not be negative, got %g", p.Offset)
	}
	return nil
}

// Stitches yields one batch per complete stitch along c. A stitch that
// would run past the end of the path is not emitted. The sequence can be
// ranged over more than once. Invalid parameters yield a single error, as
// does a pitch too small to move the offset in floating point.
func Stitches(c Curve, p Intermittent) iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		if err := p.validate(); err != nil {
			yield(nil, err)
			return
		}
		count := Count(p.Stitch, p.Spacing)
		l := c.Length()
		for offset := p.Offset; offset+p.Stitch <= l; {
			b := make(Batch, count+1)
			for j := range b {
				pt, err := c.ValueAt(offset + p.Stitch*float64(j)/float64(count))
				if err != nil {
					yield(nil, fmt.Errorf("sample: stitch at %g: %w", offset, err))
					return
				}
				b[j] = pt
			}
			if !yield(b, nil) {
				return
			}
			next := offset + p.Pitch
			if next <= offset {
				yield(nil, fmt.Errorf("sample: pitch %g does not advance past offset %g", p.Pitch, offset))
				return
			}
			offset = next
		}
	}
}

// IntermittentBatches collects Stitches into a slice.
func IntermittentBatches(c Curve, p Intermittent) ([]Batch, error) {
	var out []Batch
	for b, err := range Stitches(c, p) {
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// TotalLength returns the summed polyline length of batches.
func TotalLength(batches []Batch) float64 {
	return lo.SumBy(batches, Batch.Length)
}
