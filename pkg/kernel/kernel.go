// Package kernel defines the solid modeling interface used to build bead
// preview geometry. The sdfx subpackage provides the implementation; the
// abstraction keeps the preview builder independent of the backend.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the set of operations a bead preview needs. All primitives are
// centred on the origin; cylinders and cones run along Z.
type Kernel interface {
	// Primitives
	Sphere(radius float64) Solid
	Cylinder(height, radius float64) Solid
	// Cone has radius r0 at z = -height/2 and r1 at z = +height/2.
	Cone(height, r0, r1 float64) Solid

	// Boolean operations
	Union(solids ...Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees, X then Y then Z

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
