// Package shape holds the segment owners a weld selects from: a named set
// of edges with optional faces grouping them, and the selections that
// reference edges and faces of one shape.
package shape

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/weldbead/pkg/geom"
)

// ID identifies one immutable revision of a shape. Rebuilding a shape gives
// it a new ID, which is what keys the tangency cache.
type ID uuid.UUID

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.New())
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Shape is an edge container. Faces list edge indices bounding each face.
type Shape struct {
	ID    ID
	Name  string
	Edges []geom.Segment
	Faces [][]int
}

// New returns a shape with a fresh ID. Face edge indices are checked
// against edges.
func New(name string, edges []geom.Segment, faces ...[]int) (*Shape, error) {
	for fi, f := range faces {
		for _, e := range f {
			if e < 0 || e >= len(edges) {
				return nil, fmt.Errorf("shape %q: face %d references edge %d, shape has %d edges", name, fi, e, len(edges))
			}
		}
	}
	return &Shape{ID: NewID(), Name: name, Edges: edges, Faces: faces}, nil
}

// Rebuild returns a copy of s with new edges and faces and a new ID.
func (s *Shape) Rebuild(edges []geom.Segment, faces ...[]int) (*Shape, error) {
	return New(s.Name, edges, faces...)
}

// IsNull reports whether s carries no geometry. A nil shape is null.
func (s *Shape) IsNull() bool {
	return s == nil || len(s.Edges) == 0
}

// Edge returns edge i, or an error for an index outside the shape.
func (s *Shape) Edge(i int) (geom.Segment, error) {
	if i < 0 || i >= len(s.Edges) {
		return nil, fmt.Errorf("shape %q: edge %d out of range [0, %d)", s.Name, i, len(s.Edges))
	}
	return s.Edges[i], nil
}

// Face returns the edge indices of face i.
func (s *Shape) Face(i int) ([]int, error) {
	if i < 0 || i >= len(s.Faces) {
		return nil, fmt.Errorf("shape %q: face %d out of range [0, %d)", s.Name, i, len(s.Faces))
	}
	return s.Faces[i], nil
}

func (s *Shape) String() string {
	if s == nil {
		return "Shape(<nil>)"
	}
	return fmt.Sprintf("Shape(%s, %d edges, %d faces)", s.Name, len(s.Edges), len(s.Faces))
}

// Selection picks edges and faces from one shape. Indices are 0-based.
type Selection struct {
	Shape *Shape
	Edges []int
	Faces []int
}

// EdgeRef names one edge of one shape revision.
type EdgeRef struct {
	Shape ID
	Index int
}

// Resolve expands faces into their boundary edges and returns the selected
// edge indices, first occurrence order, without duplicates.
func (sel Selection) Resolve() ([]int, error) {
	if sel.Shape.IsNull() {
		return nil, nil
	}
	seen := make(map[int]bool)
	var out []int
	add := func(i int) error {
		if _, err := sel.Shape.Edge(i); err != nil {
			return err
		}
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
		return nil
	}
	for _, e := range sel.Edges {
		if err := add(e); err != nil {
			return nil, err
		}
	}
	for _, fi := range sel.Faces {
		f, err := sel.Shape.Face(fi)
		if err != nil {
			return nil, err
		}
		for _, e := range f {
			if err := add(e); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
