// Package tessellate turns weld sample batches into bead preview meshes.
// Each batch becomes one solid: cylinders between consecutive samples,
// spheres where the path turns, and an optional cap at both ends. The
// solid is meshed by a geometry kernel.
package tessellate

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/kernel"
	"github.com/chazu/weldbead/pkg/logging"
	"github.com/chazu/weldbead/pkg/sample"
)

// turnThreshold is the direction change (radians) above which a joint
// between two bead cylinders gets a sphere to fill the gap.
const turnThreshold = 1e-3 * math.Pi

// ErrEmptyBatch is returned for a batch with no points.
var ErrEmptyBatch = errors.New("tessellate: empty batch")

// EndCap selects the shape at both ends of a bead.
type EndCap int

const (
	CapFlat EndCap = iota
	CapRounded
	CapPointed
)

var capNames = [...]string{"flat", "rounded", "pointed"}

func (c EndCap) String() string {
	if c < 0 || int(c) >= len(capNames) {
		return fmt.Sprintf("EndCap(%d)", int(c))
	}
	return capNames[c]
}

// ParseEndCap accepts "flat", "rounded" or "pointed" in any case.
func ParseEndCap(s string) (EndCap, error) {
	for i, n := range capNames {
		if strings.EqualFold(s, n) {
			return EndCap(i), nil
		}
	}
	return CapFlat, fmt.Errorf("tessellate: unknown end cap %q", s)
}

// Options control the bead solid.
type Options struct {
	Size float64 // bead diameter
	Cap  EndCap
}

// Bead builds the solid for a single batch. A batch that collapses to a
// single point yields a sphere.
func Bead(k kernel.Kernel, b sample.Batch, opts Options) (kernel.Solid, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("tessellate: bead size must be positive, got %g", opts.Size)
	}
	pts := dedupe(b)
	if len(pts) == 0 {
		return nil, ErrEmptyBatch
	}
	r := opts.Size / 2
	if len(pts) == 1 {
		return at(k, k.Sphere(r), pts[0]), nil
	}

	var parts []kernel.Solid
	for i := 1; i < len(pts); i++ {
		p, q := pts[i-1], pts[i]
		d := q.Sub(p)
		cyl := orient(k, k.Cylinder(d.Length(), r), d)
		parts = append(parts, at(k, cyl, p.Add(d.MulScalar(0.5))))

		if i+1 < len(pts) && geom.Angle(d, pts[i+1].Sub(q)) > turnThreshold {
			parts = append(parts, at(k, k.Sphere(r), q))
		}
	}

	n := len(pts)
	parts = append(parts, endCap(k, opts.Cap, r, pts[0], pts[0].Sub(pts[1]))...)
	parts = append(parts, endCap(k, opts.Cap, r, pts[n-1], pts[n-1].Sub(pts[n-2]))...)

	return k.Union(parts...), nil
}

// Tessellate meshes every batch. Meshes are named "<name>/<n>" with n
// counting from 1 in batch order.
func Tessellate(k kernel.Kernel, name string, batches []sample.Batch, opts Options) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(batches))
	for i, b := range batches {
		solid, err := Bead(k, b, opts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s batch %d: %w", name, i+1, err)
		}
		m, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s batch %d: %w", name, i+1, err)
		}
		m.Name = fmt.Sprintf("%s/%d", name, i+1)
		logging.Logger().Debug("bead meshed", "mesh", m.Name, "points", len(b), "triangles", m.TriangleCount())
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// endCap returns the cap solids at end point p, where out points away
// from the bead.
func endCap(k kernel.Kernel, c EndCap, r float64, p, out geom.Vec) []kernel.Solid {
	switch c {
	case CapRounded:
		return []kernel.Solid{at(k, k.Sphere(r), p)}
	case CapPointed:
		u := out.Normalize()
		cone := orient(k, k.Cone(r, r, 0), u)
		return []kernel.Solid{at(k, cone, p.Add(u.MulScalar(r/2)))}
	default:
		return nil
	}
}

// orient rotates a Z-aligned solid so its axis follows dir.
func orient(k kernel.Kernel, s kernel.Solid, dir geom.Vec) kernel.Solid {
	u := dir.Normalize()
	tilt := math.Acos(math.Max(-1, math.Min(1, u.Z))) * 180 / math.Pi
	heading := math.Atan2(u.Y, u.X) * 180 / math.Pi
	if tilt == 0 {
		return s
	}
	return k.Rotate(s, 0, tilt, heading)
}

func at(k kernel.Kernel, s kernel.Solid, p geom.Vec) kernel.Solid {
	return k.Translate(s, p.X, p.Y, p.Z)
}

// dedupe drops consecutive points closer than the vertex tolerance.
func dedupe(b sample.Batch) []geom.Vec {
	out := make([]geom.Vec, 0, len(b))
	for _, p := range b {
		if len(out) > 0 && geom.Distance(out[len(out)-1], p) < geom.VertexEpsilon {
			continue
		}
		out = append(out, p)
	}
	return out
}
