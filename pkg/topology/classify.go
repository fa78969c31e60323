package topology

import (
	"fmt"

	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/graph"
	"github.com/chazu/weldbead/pkg/logging"
)

// Topology is the connectivity class of a segment selection.
type Topology int

const (
	Empty         Topology = iota // no segments
	SingleSegment                 // exactly one segment
	OpenPath                      // two degree-1 vertices, the rest degree 2
	Cycle                         // every vertex degree 2
	Degenerate                    // branching or several disjoint chains
)

func (t Topology) String() string {
	switch t {
	case Empty:
		return "empty"
	case SingleSegment:
		return "single-segment"
	case OpenPath:
		return "open-path"
	case Cycle:
		return "cycle"
	case Degenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// Classify builds the incidence graph of segs and classifies it from the
// vertex degree histogram. Degenerate selections are logged and reported as
// warnings; they are never an error.
func Classify(segs []geom.Segment) (Topology, []DegenerateWarning) {
	switch len(segs) {
	case 0:
		return Empty, nil
	case 1:
		return SingleSegment, nil
	}

	inc := graph.BuildIncidences(segs, NewEndpointIndex(segs, geom.VertexEpsilon).VertexKeys())
	hist := inc.Histogram()

	var warnings []DegenerateWarning
	if branching := inc.DegreesAbove(2); len(branching) > 0 {
		warnings = append(warnings, DegenerateWarning{
			Reason:   ReasonBranching,
			Vertices: len(branching),
			Message: fmt.Sprintf("%d vertices join more than two segment ends; "+
				"the bead may not follow the intended path", len(branching)),
		})
	}
	if dangling := hist[1]; dangling > 2 {
		warnings = append(warnings, DegenerateWarning{
			Reason:   ReasonDisjoint,
			Vertices: dangling,
			Message: fmt.Sprintf("%d open ends found; multiple discontinuous "+
				"segment sets were selected", dangling),
		})
	}

	topo := Degenerate
	switch {
	case len(warnings) > 0:
	case hist[2] == inc.VertexCount():
		topo = Cycle
	case hist[1] == 2 && hist[2] == inc.VertexCount()-2:
		topo = OpenPath
	}

	if topo == Degenerate {
		if len(warnings) == 0 {
			warnings = append(warnings, DegenerateWarning{
				Reason:  ReasonDisjoint,
				Message: fmt.Sprintf("unexpected vertex degrees %v", hist),
			})
		}
		for _, w := range warnings {
			logging.Logger().Warn("degenerate segment topology",
				"reason", w.Reason.String(),
				"vertices", w.Vertices,
				"segments", len(segs),
			)
		}
	} else {
		logging.Logger().Debug("classified segments", "topology", topo.String(), "segments", len(segs))
	}
	return topo, warnings
}
