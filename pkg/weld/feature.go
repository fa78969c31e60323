package weld

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/weldbead/pkg/logging"
	"github.com/chazu/weldbead/pkg/shape"
	"github.com/chazu/weldbead/pkg/tangency"
	"github.com/chazu/weldbead/pkg/topology"
)

// Feature is a weld attached to a document. It keeps the output of its last
// successful recompute, so a failed recompute leaves the previous bead in
// place.
type Feature struct {
	Name       string
	Selections []shape.Selection
	Params     Params
	Info       Info

	output  Result
	valid   bool
	lastErr error
}

// NewFeature returns a feature with DefaultParams.
func NewFeature(name string, sel ...shape.Selection) *Feature {
	return &Feature{Name: name, Selections: sel, Params: DefaultParams()}
}

// Recompute runs Compute with the feature's selections and parameters. On
// failure the previous output is retained and the error returned.
func (f *Feature) Recompute(sorter topology.Sorter, prop *tangency.Propagator) error {
	res, err := Compute(Input{
		Selections: f.Selections,
		Params:     f.Params,
		Sorter:     sorter,
		Propagator: prop,
	})
	if err != nil {
		f.lastErr = err
		logging.Logger().Warn("weld recompute failed, keeping previous output",
			"feature", f.Name, "error", err.Error())
		return fmt.Errorf("weld %q: %w", f.Name, err)
	}
	f.output, f.valid, f.lastErr = res, true, nil
	return nil
}

// Output returns the last successful result. ok is false before the first
// successful recompute.
func (f *Feature) Output() (res Result, ok bool) {
	return f.output, f.valid
}

// Err returns the error of the last recompute, or nil if it succeeded.
func (f *Feature) Err() error {
	return f.lastErr
}

// Document holds the shapes and weld features of one model, and the
// tangency cache shared by its features.
type Document struct {
	mu       sync.Mutex
	Shapes   []*shape.Shape
	Features []*Feature
	Sorter   topology.Sorter

	propagator *tangency.Propagator
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{propagator: tangency.NewPropagator(tangency.DefaultCacheSize)}
}

// AddShape appends s. Shape names must be unique.
func (d *Document) AddShape(s *shape.Shape) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s == nil {
		return errors.New("weld: nil shape")
	}
	for _, existing := range d.Shapes {
		if existing.Name == s.Name {
			return fmt.Errorf("weld: duplicate shape name %q", s.Name)
		}
	}
	d.Shapes = append(d.Shapes, s)
	return nil
}

// Shape returns the shape called name.
func (d *Document) Shape(name string) (*shape.Shape, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.Shapes {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// ReplaceShape swaps the shape with the same name as s for s, retargets
// every selection of the old revision and drops its cached tangency graph.
func (d *Document) ReplaceShape(s *shape.Shape) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, old := range d.Shapes {
		if old.Name != s.Name {
			continue
		}
		d.Shapes[i] = s
		d.propagator.Invalidate(old.ID)
		for _, f := range d.Features {
			for j := range f.Selections {
				if f.Selections[j].Shape == old {
					f.Selections[j].Shape = s
				}
			}
		}
		return nil
	}
	return fmt.Errorf("weld: no shape named %q", s.Name)
}

// AddFeature appends f.
func (d *Document) AddFeature(f *Feature) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Features = append(d.Features, f)
}

// Feature returns the feature called name.
func (d *Document) Feature(name string) (*Feature, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.Features {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Recompute recomputes every feature in order. Failures do not stop later
// features; they are joined into the returned error.
func (d *Document) Recompute() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for _, f := range d.Features {
		if err := f.Recompute(d.Sorter, d.propagator); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CacheStats reports the shared tangency cache.
func (d *Document) CacheStats() tangency.CacheStats {
	return d.propagator.Stats()
}
