// Package weld recomputes weld beads: it resolves a selection of shape
// edges into connected runs, orders and orients each run and samples it
// into point batches for a continuous or intermittent bead.
package weld

import (
	"fmt"
	"strings"

	"github.com/chazu/weldbead/pkg/tangency"
)

// MinWeldSize is the smallest accepted bead size, in mm.
const MinWeldSize = 0.1

// Params configures one weld feature.
type Params struct {
	// Size is the bead diameter. It is also the sample pitch along the path.
	Size float64 `json:"size"`

	// Intermittent switches from one continuous bead per run to stitches
	// of Length every Pitch, starting at Offset.
	Intermittent bool    `json:"intermittent"`
	Pitch        float64 `json:"pitch"`
	Length       float64 `json:"length"`
	Offset       float64 `json:"offset"`

	// Propagate adds every edge joined to a selected edge through smooth
	// joints, up to MaxDistance joints away.
	Propagate   bool    `json:"propagate"`
	MaxDistance float64 `json:"maxDistance"`

	// EndpointInset pulls the first and last samples of a continuous bead
	// slightly inward.
	EndpointInset bool `json:"endpointInset"`
}

// DefaultParams returns the parameters of a new weld feature.
func DefaultParams() Params {
	return Params{
		Size:        4,
		Pitch:       50,
		Length:      15,
		Offset:      0,
		MaxDistance: tangency.DefaultMaxDistance,
	}
}

// Info carries annotation-only properties. None of them affect geometry.
type Info struct {
	FieldWeld   bool `json:"fieldWeld"`
	Alternating bool `json:"alternating"`
	AllAround   bool `json:"allAround"`
}

// Severity grades a validation finding.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// ValidationError is one problem with a feature's parameters.
type ValidationError struct {
	Code     string
	Field    string
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
}

// ValidationErrors is returned by Check when at least one finding has
// SeverityError.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "weld: invalid parameters: " + strings.Join(msgs, "; ")
}

// Validate returns every finding for p. Warnings do not block a recompute.
func (p Params) Validate() []ValidationError {
	var out []ValidationError
	if p.Size < MinWeldSize {
		out = append(out, ValidationError{
			Code:    "WELD_SIZE_TOO_SMALL",
			Field:   "size",
			Message: fmt.Sprintf("bead size %g is below the minimum of %g mm", p.Size, MinWeldSize),
		})
	}
	if !p.Intermittent {
		return out
	}
	if !(p.Pitch >= MinWeldSize) {
		out = append(out, ValidationError{
			Code:    "INVALID_PITCH",
			Field:   "pitch",
			Message: fmt.Sprintf("stitch pitch must be at least %g mm, got %g", MinWeldSize, p.Pitch),
		})
	}
	if p.Length <= 0 {
		out = append(out, ValidationError{
			Code:    "INVALID_LENGTH",
			Field:   "length",
			Message: fmt.Sprintf("stitch length must be positive, got %g", p.Length),
		})
	}
	if p.Offset < 0 {
		out = append(out, ValidationError{
			Code:    "INVALID_OFFSET",
			Field:   "offset",
			Message: fmt.Sprintf("stitch offset must not be negative, got %g", p.Offset),
		})
	}
	if p.Length > 0 && p.Pitch > 0 && p.Length > p.Pitch {
		out = append(out, ValidationError{
			Code:     "OVERLAPPING_STITCHES",
			Field:    "length",
			Message:  fmt.Sprintf("stitch length %g exceeds pitch %g", p.Length, p.Pitch),
			Severity: SeverityWarning,
		})
	}
	return out
}

// Check returns the error-severity findings of Validate as
// ValidationErrors, or nil.
func (p Params) Check() error {
	var errs ValidationErrors
	for _, v := range p.Validate() {
		if v.Severity == SeverityError {
			errs = append(errs, v)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
