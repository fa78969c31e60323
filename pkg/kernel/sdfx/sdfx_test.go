package sdfx

import (
	"math"
	"testing"
)

// Tests mesh at a coarse resolution to stay fast.
const testCells = 24

func checkBounds(t *testing.T, gotMin, gotMax, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(gotMin[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, gotMin[i], wantMin[i])
		}
		if math.Abs(gotMax[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, gotMax[i], wantMax[i])
		}
	}
}

func TestSphere(t *testing.T) {
	k := NewWithResolution(testCells)
	s := k.Sphere(2)
	min, max := s.BoundingBox()
	checkBounds(t, min, max, [3]float64{-2, -2, -2}, [3]float64{2, 2, 2}, 0.01)

	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
	// Every vertex lies near the sphere surface.
	for i := 0; i < len(mesh.Vertices); i += 3 {
		x, y, z := float64(mesh.Vertices[i]), float64(mesh.Vertices[i+1]), float64(mesh.Vertices[i+2])
		if r := math.Sqrt(x*x + y*y + z*z); math.Abs(r-2) > 0.3 {
			t.Fatalf("vertex %d at radius %f, expected ~2", i/3, r)
		}
	}
}

func TestCylinderCentred(t *testing.T) {
	k := NewWithResolution(testCells)
	min, max := k.Cylinder(10, 1).BoundingBox()
	checkBounds(t, min, max, [3]float64{-1, -1, -5}, [3]float64{1, 1, 5}, 0.01)
}

func TestCone(t *testing.T) {
	k := NewWithResolution(testCells)
	cone := k.Cone(4, 2, 0)
	min, max := cone.BoundingBox()
	checkBounds(t, min, max, [3]float64{-2, -2, -2}, [3]float64{2, 2, 2}, 0.01)

	mesh, err := k.ToMesh(cone)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
}

func TestUnion(t *testing.T) {
	k := NewWithResolution(testCells)
	u := k.Union(k.Sphere(1), k.Translate(k.Sphere(1), 6, 0, 0), k.Translate(k.Cylinder(6, 1), 0, 0, 3))
	min, max := u.BoundingBox()
	checkBounds(t, min, max, [3]float64{-1, -1, -1}, [3]float64{7, 1, 6}, 0.01)

	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}

func TestUnionPanicsWithoutSolids(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Union() with no solids did not panic")
		}
	}()
	New().Union()
}

func TestTranslate(t *testing.T) {
	k := New()
	s := k.Translate(k.Sphere(5), 100, 200, 300)
	min, max := s.BoundingBox()
	checkBounds(t, min, max, [3]float64{95, 195, 295}, [3]float64{105, 205, 305}, 0.5)
}

func TestRotate(t *testing.T) {
	k := New()
	cyl := k.Cylinder(100, 5)

	// A cylinder along Z tipped 90 degrees about Y lies along X.
	rotated := k.Rotate(cyl, 0, 90, 0)
	min, max := rotated.BoundingBox()

	xExtent := max[0] - min[0]
	zExtent := max[2] - min[2]

	const tol = 1.0
	if math.Abs(xExtent-100) > tol {
		t.Errorf("rotated X extent = %f, expected ~100", xExtent)
	}
	if math.Abs(zExtent-10) > tol {
		t.Errorf("rotated Z extent = %f, expected ~10", zExtent)
	}
}

func TestResolutionFloor(t *testing.T) {
	if k := NewWithResolution(1); k.cells != 8 {
		t.Errorf("cells = %d, want 8", k.cells)
	}
	if k := New(); k.cells != DefaultMeshCells {
		t.Errorf("cells = %d, want %d", k.cells, DefaultMeshCells)
	}
}
