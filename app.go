package main

import (
	"fmt"

	"github.com/chazu/weldbead/pkg/engine"
	"github.com/chazu/weldbead/pkg/kernel"
	"github.com/chazu/weldbead/pkg/kernel/sdfx"
	"github.com/chazu/weldbead/pkg/logging"
	"github.com/chazu/weldbead/pkg/sample"
	"github.com/chazu/weldbead/pkg/shape"
	"github.com/chazu/weldbead/pkg/tessellate"
	"github.com/chazu/weldbead/pkg/weld"
)

// colorPalette is a default palette used to assign distinct colors to welds.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App evaluates weld job scripts and turns the resulting features into
// sample paths and bead preview meshes.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel

	// Shapes are loaded into every document before the script runs.
	Shapes []*shape.Shape
	// Preview enables bead mesh generation.
	Preview bool
	// Cap is the end cap used for bead previews.
	Cap tessellate.EndCap
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// WeldData is the recomputed output of one weld feature.
type WeldData struct {
	Name        string         `json:"name"`
	Params      weld.Params    `json:"params"`
	Info        weld.Info      `json:"info"`
	Runs        int            `json:"runs"`
	TotalLength float64        `json:"totalLength"`
	Batches     [][][3]float64 `json:"batches"`
	Stale       bool           `json:"stale,omitempty"` // output kept from an earlier recompute
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Welds    []WeldData      `json:"welds"`
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App with an engine and the sdfx kernel at its
// default resolution. Previews are on, with rounded end caps.
func NewApp() *App {
	return newApp(sdfx.New())
}

func newApp(k kernel.Kernel) *App {
	return &App{
		engine:  engine.NewEngine(),
		kernel:  k,
		Preview: true,
		Cap:     tessellate.CapRounded,
	}
}

// Evaluate takes a weld job script and returns weld paths, meshes and
// errors. Script errors stop evaluation; a failing weld does not stop the
// others.
func (a *App) Evaluate(source string) EvalResult {
	log := logging.Logger()
	result := EvalResult{
		Welds:    []WeldData{},
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a document.
	doc, evalErrs, err := a.engine.Evaluate(source, a.Shapes...)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Error("evaluate fatal error", "error", err.Error())
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 2: Recompute every weld. Each failure is reported on its own.
	if err := doc.Recompute(); err != nil {
		for _, e := range unjoin(err) {
			result.Errors = append(result.Errors, EvalErrorData{Message: e.Error()})
		}
	}

	// Step 3: Collect outputs, warnings and previews.
	for i, f := range doc.Features {
		for _, v := range f.Params.Validate() {
			if v.Severity == weld.SeverityWarning {
				result.Warnings = append(result.Warnings, EvalErrorData{
					Message: fmt.Sprintf("weld %q: %s", f.Name, v.Message),
				})
			}
		}

		out, ok := f.Output()
		if !ok {
			continue
		}
		for _, w := range out.Warnings {
			result.Warnings = append(result.Warnings, EvalErrorData{
				Message: fmt.Sprintf("weld %q: %s", f.Name, w),
			})
		}
		result.Welds = append(result.Welds, weldData(f, out))

		if !a.Preview || len(out.Batches) == 0 {
			continue
		}
		meshes, err := tessellate.Tessellate(a.kernel, f.Name, out.Batches,
			tessellate.Options{Size: f.Params.Size, Cap: a.Cap})
		if err != nil {
			log.Error("bead preview failed", "weld", f.Name, "error", err.Error())
			result.Errors = append(result.Errors, EvalErrorData{
				Message: "bead preview failed: " + err.Error(),
			})
			continue
		}
		color := colorPalette[i%len(colorPalette)]
		for _, m := range meshes {
			result.Meshes = append(result.Meshes, MeshData{
				Vertices: m.Vertices,
				Normals:  m.Normals,
				Indices:  m.Indices,
				Name:     m.Name,
				Color:    color,
			})
		}
	}

	log.Info("evaluation finished",
		"welds", len(result.Welds), "meshes", len(result.Meshes),
		"errors", len(result.Errors), "warnings", len(result.Warnings))
	return result
}

// AllBatches returns every sample batch of the result in weld order.
func (r EvalResult) AllBatches() []sample.Batch {
	var out []sample.Batch
	for _, w := range r.Welds {
		for _, b := range w.Batches {
			batch := make(sample.Batch, len(b))
			for i, p := range b {
				batch[i].X, batch[i].Y, batch[i].Z = p[0], p[1], p[2]
			}
			out = append(out, batch)
		}
	}
	return out
}

func weldData(f *weld.Feature, out weld.Result) WeldData {
	batches := make([][][3]float64, len(out.Batches))
	for i, b := range out.Batches {
		pts := make([][3]float64, len(b))
		for j, p := range b {
			pts[j] = [3]float64{p.X, p.Y, p.Z}
		}
		batches[i] = pts
	}
	return WeldData{
		Name:        f.Name,
		Params:      f.Params,
		Info:        f.Info,
		Runs:        len(out.Runs),
		TotalLength: out.TotalLength,
		Batches:     batches,
		Stale:       f.Err() != nil,
	}
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
