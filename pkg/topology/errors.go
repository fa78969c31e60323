package topology

import "fmt"

// ConnectivityError is returned when two segments presumed adjacent share no
// endpoint within tolerance.
type ConnectivityError struct {
	Gap       float64 // smallest endpoint distance found
	Tolerance float64
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("segments are not connected: closest endpoints are %g apart (tolerance %g)", e.Gap, e.Tolerance)
}

// DegenerateReason says why a selection could not be classified as a simple
// path or cycle.
type DegenerateReason int

const (
	// ReasonDisjoint: more than two dangling ends, i.e. several separate
	// chains in one selection.
	ReasonDisjoint DegenerateReason = iota
	// ReasonBranching: a vertex joins more than two segment ends.
	ReasonBranching
)

func (r DegenerateReason) String() string {
	switch r {
	case ReasonDisjoint:
		return "disjoint"
	case ReasonBranching:
		return "branching"
	default:
		return fmt.Sprintf("DegenerateReason(%d)", int(r))
	}
}

// DegenerateWarning is a non-fatal finding: ordering continues in best-effort
// mode and the resulting orientation is not guaranteed.
type DegenerateWarning struct {
	Reason   DegenerateReason
	Vertices int // number of offending vertices
	Message  string
}

func (w DegenerateWarning) String() string {
	return fmt.Sprintf("[%s] %s", w.Reason, w.Message)
}
