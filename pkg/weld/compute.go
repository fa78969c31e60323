package weld

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/chazu/weldbead/pkg/composite"
	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/logging"
	"github.com/chazu/weldbead/pkg/sample"
	"github.com/chazu/weldbead/pkg/shape"
	"github.com/chazu/weldbead/pkg/tangency"
	"github.com/chazu/weldbead/pkg/topology"
)

// Input is everything one recompute needs.
type Input struct {
	Selections []shape.Selection
	Params     Params
	// Sorter groups and orders segments; nil means topology.DefaultSorter.
	Sorter topology.Sorter
	// Propagator expands selections when Params.Propagate is set. nil
	// means a throwaway propagator, so nothing is cached between calls.
	Propagator *tangency.Propagator
}

// Run is one connected run of the selection.
type Run struct {
	Edges    []shape.EdgeRef
	Topology topology.Topology
	// Guaranteed is false when the run was degenerate and its orientation
	// is best effort.
	Guaranteed bool
	Length     float64
}

// Result is the output of a recompute.
type Result struct {
	Batches     []sample.Batch
	TotalLength float64
	Runs        []Run
	Warnings    []topology.DegenerateWarning
}

// Compute resolves in.Selections into connected runs and samples each run.
// Invalid parameters return ValidationErrors. Segments that fail to connect
// return a wrapped *topology.ConnectivityError. Null geometry gives an
// empty result.
func Compute(in Input) (Result, error) {
	if err := in.Params.Check(); err != nil {
		return Result{}, err
	}
	sorter := in.Sorter
	if sorter == nil {
		sorter = topology.DefaultSorter
	}

	refs, segs, err := resolve(in)
	if err != nil {
		return Result{}, err
	}
	if len(segs) == 0 {
		logging.Logger().Info("weld selection is empty")
		return Result{}, nil
	}

	var res Result
	for ri, run := range sorter.SortConnected(segs) {
		runSegs := make([]geom.Segment, len(run))
		runRefs := make([]shape.EdgeRef, len(run))
		for i, si := range run {
			runSegs[i], runRefs[i] = segs[si], refs[si]
		}

		chain, err := topology.OrderAndOrient(runSegs, sorter)
		if err != nil {
			return Result{}, fmt.Errorf("weld: run %d: %w", ri, err)
		}
		res.Warnings = append(res.Warnings, chain.Warnings...)

		curve, err := composite.New(chain)
		if errors.Is(err, composite.ErrZeroLength) {
			logging.Logger().Warn("skipping zero-length run", "run", ri, "segments", len(run))
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("weld: run %d: %w", ri, err)
		}

		batches, err := sampleRun(curve, in.Params)
		if err != nil {
			return Result{}, fmt.Errorf("weld: run %d: %w", ri, err)
		}
		res.Batches = append(res.Batches, batches...)
		res.Runs = append(res.Runs, Run{
			Edges: lo.Map(chain.Entries, func(e topology.Oriented, _ int) shape.EdgeRef {
				return runRefs[e.Index]
			}),
			Topology:   chain.Topology,
			Guaranteed: chain.Guaranteed,
			Length:     curve.Length(),
		})
		logging.Logger().Debug("sampled run",
			"run", ri,
			"topology", chain.Topology.String(),
			"length", curve.Length(),
			"batches", len(batches),
		)
	}
	res.TotalLength = sample.TotalLength(res.Batches)
	logging.Logger().Info("weld recomputed",
		"runs", len(res.Runs),
		"batches", len(res.Batches),
		"length", res.TotalLength,
		"warnings", len(res.Warnings),
	)
	return res, nil
}

func sampleRun(c *composite.Curve, p Params) ([]sample.Batch, error) {
	if !p.Intermittent {
		b, err := sample.Uniform(c, p.Size, sample.Options{EndpointInset: p.EndpointInset})
		if err != nil {
			return nil, err
		}
		return []sample.Batch{b}, nil
	}
	return sample.IntermittentBatches(c, sample.Intermittent{
		Stitch:  p.Length,
		Pitch:   p.Pitch,
		Offset:  p.Offset,
		Spacing: p.Size,
	})
}

// resolve turns the selections into a duplicate-free edge list. Faces add
// their boundary edges, propagation adds edges smoothly joined to the
// explicitly selected ones, and null shapes are skipped.
func resolve(in Input) ([]shape.EdgeRef, []geom.Segment, error) {
	prop := in.Propagator
	if in.Params.Propagate && prop == nil {
		prop = tangency.NewPropagator(0)
	}

	type picked struct {
		ref shape.EdgeRef
		seg geom.Segment
	}
	var all []picked
	for si, sel := range in.Selections {
		if sel.Shape.IsNull() {
			logging.Logger().Warn("skipping null shape in selection", "selection", si)
			continue
		}
		idx, err := sel.Resolve()
		if err != nil {
			return nil, nil, fmt.Errorf("weld: selection %d: %w", si, err)
		}
		if in.Params.Propagate {
			var expanded []int
			// Only explicitly picked edges seed the expansion; face
			// boundaries are taken as given.
			for _, seed := range lo.Uniq(sel.Edges) {
				more, err := prop.Expand(sel.Shape, seed, in.Params.MaxDistance)
				if err != nil {
					return nil, nil, fmt.Errorf("weld: selection %d: %w", si, err)
				}
				expanded = append(expanded, more...)
			}
			idx = lo.Uniq(append(idx, expanded...))
		}
		for _, i := range idx {
			all = append(all, picked{
				ref: shape.EdgeRef{Shape: sel.Shape.ID, Index: i},
				seg: sel.Shape.Edges[i],
			})
		}
	}
	all = lo.UniqBy(all, func(p picked) shape.EdgeRef { return p.ref })
	all = lo.Filter(all, func(p picked, _ int) bool { return p.seg != nil })

	refs := lo.Map(all, func(p picked, _ int) shape.EdgeRef { return p.ref })
	segs := lo.Map(all, func(p picked, _ int) geom.Segment { return p.seg })
	return refs, segs, nil
}
