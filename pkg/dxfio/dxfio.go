// Package dxfio reads weld geometry from DXF drawings and writes edges and
// bead sample paths back out. LINE, ARC and CIRCLE entities are supported.
package dxfio

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/entity"

	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/logging"
	"github.com/chazu/weldbead/pkg/sample"
	"github.com/chazu/weldbead/pkg/shape"
)

// Layer names used by the exporters.
const (
	EdgeLayer = "Edges"
	BeadLayer = "Bead"
)

// curveSteps is how many straight pieces approximate a curve that has no
// DXF entity of its own, such as an arc outside the XY plane.
const curveSteps = 32

// Import reads path and returns its LINE, ARC and CIRCLE entities as the
// edges of one shape named after the file. Other entities are skipped.
func Import(path string) (*shape.Shape, error) {
	d, err := dxf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dxfio: open %s: %w", path, err)
	}
	edges, skipped := edgesOf(d)
	if skipped > 0 {
		logging.Logger().Warn("skipped unsupported DXF entities", "file", path, "count", skipped)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	logging.Logger().Info("imported DXF", "file", path, "shape", name, "edges", len(edges))
	return shape.New(name, edges)
}

func edgesOf(d *drawing.Drawing) (edges []geom.Segment, skipped int) {
	for _, e := range d.Entities() {
		switch v := e.(type) {
		case *entity.Line:
			edges = append(edges, geom.NewLine(vec(v.Start), vec(v.End)))
		case *entity.Arc:
			edges = append(edges, geom.NewArcXY(vec(v.Center), v.Radius, v.Angle[0], v.Angle[1]))
		case *entity.Circle:
			edges = append(edges, geom.NewArc(vec(v.Center), v.Radius, geom.Vec{Z: 1}, 0, 2*math.Pi))
		default:
			skipped++
		}
	}
	return edges, skipped
}

func vec(c []float64) geom.Vec {
	var v geom.Vec
	if len(c) > 0 {
		v.X = c[0]
	}
	if len(c) > 1 {
		v.Y = c[1]
	}
	if len(c) > 2 {
		v.Z = c[2]
	}
	return v
}

// Export writes edges to path on the Edges layer. Lines and arcs lying in
// a plane parallel to XY keep their exact form; anything else is written
// as a chain of short lines.
func Export(path string, edges []geom.Segment) error {
	d := dxf.NewDrawing()
	if _, err := d.AddLayer(EdgeLayer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("dxfio: %w", err)
	}
	for i, e := range edges {
		if err := writeSegment(d, e); err != nil {
			return fmt.Errorf("dxfio: edge %d: %w", i, err)
		}
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("dxfio: save %s: %w", path, err)
	}
	return nil
}

// ExportBatches writes each sample batch as a polyline of LINE entities on
// the Bead layer.
func ExportBatches(path string, batches []sample.Batch) error {
	d := dxf.NewDrawing()
	if _, err := d.AddLayer(BeadLayer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("dxfio: %w", err)
	}
	for bi, b := range batches {
		for i := 1; i < len(b); i++ {
			if err := line(d, b[i-1], b[i]); err != nil {
				return fmt.Errorf("dxfio: batch %d: %w", bi, err)
			}
		}
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("dxfio: save %s: %w", path, err)
	}
	return nil
}

func line(d *drawing.Drawing, a, b geom.Vec) error {
	_, err := d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z)
	return err
}

func writeSegment(d *drawing.Drawing, s geom.Segment) error {
	switch v := s.(type) {
	case geom.Line:
		return line(d, v.P0, v.P1)
	case geom.Arc:
		if ok, err := writeArc(d, v); ok || err != nil {
			return err
		}
	}
	t0, t1 := s.ParameterRange()
	prev := s.ValueAt(t0)
	for i := 1; i <= curveSteps; i++ {
		p := s.ValueAt(t0 + (t1-t0)*float64(i)/curveSteps)
		if err := line(d, prev, p); err != nil {
			return err
		}
		prev = p
	}
	return nil
}

// writeArc writes a as an ARC or CIRCLE entity when it lies in a plane
// parallel to XY. ok is false when it does not.
func writeArc(d *drawing.Drawing, a geom.Arc) (ok bool, err error) {
	const eps = 1e-9
	if math.Abs(math.Abs(a.Normal.Z)-1) > eps || math.Abs(a.XAxis.X-1) > eps {
		return false, nil
	}
	c := a.Center
	if math.Abs(a.Sweep) >= 2*math.Pi-eps {
		_, err = d.Circle(c.X, c.Y, c.Z, a.Radius)
		return true, err
	}
	// A -Z normal mirrors the polar angle.
	s := math.Copysign(1, a.Normal.Z)
	start, sweep := s*a.Start, s*a.Sweep
	if sweep < 0 {
		start, sweep = start+sweep, -sweep
	}
	const toDeg = 180 / math.Pi
	_, err = d.Arc(c.X, c.Y, c.Z, a.Radius, start*toDeg, (start+sweep)*toDeg)
	return true, err
}
