package topology

import (
	"fmt"

	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/logging"
)

// Oriented is one chain entry: a segment and whether it is traversed from
// its last parameter to its first.
type Oriented struct {
	Segment geom.Segment
	Index   int // position in the slice given to OrderAndOrient
	Flipped bool
}

// Start returns the point where the entry begins in traversal order.
func (o Oriented) Start() geom.Vec {
	first, last := geom.Endpoints(o.Segment)
	if o.Flipped {
		return last
	}
	return first
}

// End returns the point where the entry ends in traversal order.
func (o Oriented) End() geom.Vec {
	first, last := geom.Endpoints(o.Segment)
	if o.Flipped {
		return first
	}
	return last
}

// Chain is an ordered, oriented segment sequence.
type Chain struct {
	Entries  []Oriented
	Topology Topology
	// Guaranteed is false for degenerate selections, whose entries are left
	// in input order and unflipped.
	Guaranteed bool
	Warnings   []DegenerateWarning
}

// Segments returns the chain's segments in traversal order.
func (c Chain) Segments() []geom.Segment {
	out := make([]geom.Segment, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Segment
	}
	return out
}

// OrderAndOrient classifies segs, orders them with sorter and resolves the
// direction of every segment so that each entry starts where the previous
// one ends. The first segment's direction is fixed by comparing it with its
// neighbour through ShouldFlip. A nil sorter means DefaultSorter.
//
// Degenerate selections are returned in input order with nothing flipped
// and Guaranteed set to false. A *ConnectivityError (wrapped) is returned
// when consecutive sorted segments do not meet.
func OrderAndOrient(segs []geom.Segment, sorter Sorter) (Chain, error) {
	if sorter == nil {
		sorter = DefaultSorter
	}
	topo, warnings := Classify(segs)
	chain := Chain{Topology: topo, Warnings: warnings, Guaranteed: true}

	switch topo {
	case Empty:
		return chain, nil
	case SingleSegment:
		chain.Entries = []Oriented{{Segment: segs[0], Index: 0}}
		return chain, nil
	case Degenerate:
		return bestEffort(segs, chain), nil
	}

	runs := sorter.SortConnected(segs)
	if len(runs) != 1 {
		// The degree histogram of two separate loops looks like one cycle.
		w := DegenerateWarning{
			Reason:  ReasonDisjoint,
			Message: fmt.Sprintf("selection forms %d separate runs", len(runs)),
		}
		logging.Logger().Warn("degenerate segment topology",
			"reason", w.Reason.String(), "runs", len(runs), "segments", len(segs))
		chain.Topology = Degenerate
		chain.Warnings = append(chain.Warnings, w)
		return bestEffort(segs, chain), nil
	}
	order := runs[0]

	entries := make([]Oriented, len(order))
	flipFirst, _, err := ShouldFlip(segs[order[0]], segs[order[1]], geom.VertexEpsilon)
	if err != nil {
		return Chain{}, fmt.Errorf("topology: entries 0 and 1 (segments %d, %d): %w", order[0], order[1], err)
	}
	entries[0] = Oriented{Segment: segs[order[0]], Index: order[0], Flipped: flipFirst}

	for i := 1; i < len(order); i++ {
		prev := entries[i-1]
		cur := segs[order[i]]
		if _, _, err := ShouldFlip(prev.Segment, cur, geom.VertexEpsilon); err != nil {
			return Chain{}, fmt.Errorf("topology: entries %d and %d (segments %d, %d): %w",
				i-1, i, order[i-1], order[i], err)
		}
		flipped, err := orientAfter(prev.End(), cur)
		if err != nil {
			return Chain{}, fmt.Errorf("topology: entry %d (segment %d): %w", i, order[i], err)
		}
		entries[i] = Oriented{Segment: cur, Index: order[i], Flipped: flipped}
	}

	chain.Entries = entries
	return chain, nil
}

// orientAfter decides whether s must be reversed to start at p.
func orientAfter(p geom.Vec, s geom.Segment) (bool, error) {
	first, last := geom.Endpoints(s)
	df, dl := geom.Distance(first, p), geom.Distance(last, p)
	switch {
	case df < geom.VertexEpsilon:
		return false, nil
	case dl < geom.VertexEpsilon:
		return true, nil
	}
	return false, &ConnectivityError{Gap: min(df, dl), Tolerance: geom.VertexEpsilon}
}

func bestEffort(segs []geom.Segment, chain Chain) Chain {
	chain.Guaranteed = false
	chain.Entries = make([]Oriented, len(segs))
	for i, s := range segs {
		chain.Entries[i] = Oriented{Segment: s, Index: i}
	}
	return chain
}
