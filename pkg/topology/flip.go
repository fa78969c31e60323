package topology

import (
	"math"

	"github.com/chazu/weldbead/pkg/geom"
)

// ShouldFlip reports which of two adjacent segments must be reversed so the
// end of a meets the start of b. Endpoint pairs are tested in priority
// order: a.last-b.first, a.last-b.last, a.first-b.first, a.first-b.last.
// A *ConnectivityError is returned when no pair is closer than eps.
func ShouldFlip(a, b geom.Segment, eps float64) (flipA, flipB bool, err error) {
	aFirst, aLast := geom.Endpoints(a)
	bFirst, bLast := geom.Endpoints(b)

	pairs := [...]struct {
		d            float64
		flipA, flipB bool
	}{
		{geom.Distance(aLast, bFirst), false, false},
		{geom.Distance(aLast, bLast), false, true},
		{geom.Distance(aFirst, bFirst), true, false},
		{geom.Distance(aFirst, bLast), true, true},
	}
	gap := math.Inf(1)
	for _, p := range pairs {
		if p.d < eps {
			return p.flipA, p.flipB, nil
		}
		gap = math.Min(gap, p.d)
	}
	return false, false, &ConnectivityError{Gap: gap, Tolerance: eps}
}

// Connected reports whether a and b share an endpoint within eps.
func Connected(a, b geom.Segment, eps float64) bool {
	_, _, err := ShouldFlip(a, b, eps)
	return err == nil
}
