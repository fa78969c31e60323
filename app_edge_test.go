package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/weldbead/pkg/dxfio"
	"github.com/chazu/weldbead/pkg/geom"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 welds, 0 errors, non-nil slices.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Welds == nil || result.Meshes == nil || result.Errors == nil || result.Warnings == nil {
		t.Errorf("result slices should be non-nil: %+v", result)
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax errors: unmatched parens -> eval error, nothing computed.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := newTestApp()

	// Put valid code on line 1, broken code on line 2 so line info is meaningful.
	source := "(+ 1 2)\n(defshape \"test\""
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Welds) != 0 {
		t.Errorf("expected 0 welds on syntax error, got %d", len(result.Welds))
	}

	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2ESyntaxErrorSingleLineMissingParen(t *testing.T) {
	app := newTestApp()

	result := app.Evaluate("(+ 1 2")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for missing closing paren")
	}
	if result.Errors[0].Message == "" {
		t.Error("error message should not be empty")
	}
}

// ---------------------------------------------------------------------------
// 3. Undefined shape reference -> eval error naming the shape.
// ---------------------------------------------------------------------------

func TestE2EUndefinedShapeReference(t *testing.T) {
	app := newTestApp()

	source := `
(defshape "bar" (line (vec3 0 0 0) (vec3 10 0 0)))
(weld "w" :select (edges "nonexistent"))
`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for undefined shape reference")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "nonexistent") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error mentioning 'nonexistent', got: %v", result.Errors)
	}
	if len(result.Welds) != 0 {
		t.Errorf("expected 0 welds on error, got %d", len(result.Welds))
	}
}

// ---------------------------------------------------------------------------
// 4. Parameter validation: errors block a weld, warnings do not.
// ---------------------------------------------------------------------------

func TestE2EBeadSizeTooSmall(t *testing.T) {
	app := newTestApp()

	source := `
(defshape "bar" (line (vec3 0 0 0) (vec3 10 0 0)))
(weld "tiny" :select (edges "bar") :size 0.05)
(weld "ok" :select (edges "bar") :size 2)
`
	result := app.Evaluate(source)

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	msg := result.Errors[0].Message
	if !strings.Contains(msg, "WELD_SIZE_TOO_SMALL") || !strings.Contains(msg, "tiny") {
		t.Errorf("error = %q, want size code and weld name", msg)
	}
	// The failing weld does not stop the next one.
	if len(result.Welds) != 1 || result.Welds[0].Name != "ok" {
		t.Fatalf("welds = %+v, want only 'ok'", result.Welds)
	}
}

func TestE2EOverlappingStitchesWarn(t *testing.T) {
	app := newTestApp()
	app.Preview = false

	source := `
(defshape "bar" (line (vec3 0 0 0) (vec3 110 0 0)))
(weld "dense" :select (edges "bar") :intermittent true :pitch 10 :length 15)
`
	result := app.Evaluate(source)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Message, "exceeds pitch") {
		t.Errorf("warnings = %v, want one overlap warning", result.Warnings)
	}
	if len(result.Welds) != 1 || len(result.Welds[0].Batches) == 0 {
		t.Errorf("overlapping stitches should still be computed: %+v", result.Welds)
	}
}

// ---------------------------------------------------------------------------
// 5. Degenerate topology: a branching selection is flagged, not fixed.
// ---------------------------------------------------------------------------

func TestE2EBranchingSelectionWarns(t *testing.T) {
	app := newTestApp()
	app.Preview = false

	source := `
(defshape "star"
  (line (vec3 0 0 0) (vec3 10 0 0))
  (line (vec3 0 0 0) (vec3 0 10 0))
  (line (vec3 -10 0 0) (vec3 0 0 0)))
(weld "w" :select (edges "star"))
`
	result := app.Evaluate(source)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected a degenerate topology warning")
	}
	if !strings.Contains(result.Warnings[0].Message, `weld "w"`) {
		t.Errorf("warning should name the weld: %q", result.Warnings[0].Message)
	}
}

// ---------------------------------------------------------------------------
// 6. Rapid evaluation: sequential calls on one App never panic.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources rapidly.
	// Ensures the engine recovers cleanly between error and success states.
	app := newTestApp()
	app.Preview = false

	sources := []string{
		`(defshape "ok" (line (vec3 0 0 0) (vec3 10 0 0)))`,
		`(defshape "broken"`,
		``,
		`(shape "missing")`,
		`(defshape "a" (line (vec3 0 0 0) (vec3 10 0 0))) (weld "w" :select (edges "a"))`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(undefined-func 1 2 3)`,
		`(defshape "last" (circle (vec3 0 0 0) 5)) (weld "w" :select (edges "last"))`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			_ = app.Evaluate(source)
		}()
	}
}

// ---------------------------------------------------------------------------
// 7. Comments and whitespace only.
// ---------------------------------------------------------------------------

func TestE2ECommentsAndWhitespace(t *testing.T) {
	app := newTestApp()
	for _, source := range []string{
		";; nothing to weld here\n; still nothing",
		"   \n\t\n  ",
		"\n;; comment\n\n   ;; indented comment\n",
	} {
		result := app.Evaluate(source)
		if len(result.Errors) != 0 || len(result.Welds) != 0 {
			t.Errorf("source %q: errors=%v welds=%d", source, result.Errors, len(result.Welds))
		}
	}
}

// ---------------------------------------------------------------------------
// 8. Arithmetic in parameters.
// ---------------------------------------------------------------------------

func TestE2ENestedArithmeticDef(t *testing.T) {
	app := newTestApp()
	app.Preview = false

	source := `
(def base 25)
(def pitch (* 2 base))
(def stitch (- (/ pitch 2) 10))
(defshape "bar" (line (vec3 0 0 0) (vec3 (+ pitch 60) 0 0)))
(weld "w" :select (edges "bar") :intermittent true :pitch pitch :length stitch :size 5)
`
	result := app.Evaluate(source)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	w := findWeld(t, result, "w")
	if w.Params.Pitch != 50 || w.Params.Length != 15 {
		t.Errorf("params = %+v, want pitch 50 length 15", w.Params)
	}
	if len(w.Batches) != 2 {
		t.Errorf("batches = %d, want 2", len(w.Batches))
	}
}

// ---------------------------------------------------------------------------
// 9. Color palette wraps around for many welds.
// ---------------------------------------------------------------------------

func TestE2EColorPaletteWrapping(t *testing.T) {
	app := newTestApp()

	var b strings.Builder
	for i := 1; i <= 9; i++ {
		fmt.Fprintf(&b, "(defshape \"bar%d\" (line (vec3 0 0 0) (vec3 10 0 0)) :at (vec3 0 %d 0))\n", i, 20*i)
		fmt.Fprintf(&b, "(weld \"w%d\" :select (edges \"bar%d\") :size 2)\n", i, i)
	}
	result := app.Evaluate(b.String())

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 9 {
		t.Fatalf("expected 9 meshes, got %d", len(result.Meshes))
	}
	for _, m := range result.Meshes {
		if m.Color == "" {
			t.Errorf("mesh %q should have a color assigned", m.Name)
		}
	}
	if result.Meshes[8].Color != result.Meshes[0].Color {
		t.Errorf("palette should wrap: mesh 9 color %s, mesh 1 color %s", result.Meshes[8].Color, result.Meshes[0].Color)
	}
}

// ---------------------------------------------------------------------------
// 10. Shapes imported from DXF are visible to scripts.
// ---------------------------------------------------------------------------

func TestE2EPreloadedDXFShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bracket.dxf")
	edges := []geom.Segment{
		geom.NewLine(geom.Vec{}, geom.Vec{X: 30}),
		geom.NewLine(geom.Vec{X: 30}, geom.Vec{X: 30, Y: 20}),
	}
	if err := dxfio.Export(path, edges); err != nil {
		t.Fatalf("Export: %v", err)
	}
	s, err := dxfio.Import(path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	app := newTestApp()
	app.Preview = false
	app.Shapes = append(app.Shapes, s)
	result := app.Evaluate(`(weld "w" :select (edges "bracket") :size 5)`)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	w := findWeld(t, result, "w")
	if len(w.Batches) != 1 || len(w.Batches[0]) != 11 {
		t.Fatalf("batches = %v, want one batch of 11 points", w.Batches)
	}
}

// ---------------------------------------------------------------------------
// 11. Command line.
// ---------------------------------------------------------------------------

func TestRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	dxfOut := filepath.Join(dir, "beads.dxf")
	meshOut := filepath.Join(dir, "beads.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{
		"-script", "examples/stitch.weld",
		"-out", dxfOut,
		"-mesh", meshOut,
		"-cells", "32",
		"-cap", "pointed",
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v (stderr: %s)", err, stderr.String())
	}

	var report EvalResult
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("stdout is not a JSON report: %v", err)
	}
	if len(report.Welds) != 1 || len(report.Welds[0].Batches) != 4 {
		t.Fatalf("report welds = %+v", report.Welds)
	}
	if len(report.Meshes) != 0 {
		t.Errorf("meshes belong in the mesh file, got %d on stdout", len(report.Meshes))
	}

	var meshes []MeshData
	data, err := os.ReadFile(meshOut)
	if err != nil {
		t.Fatalf("mesh file: %v", err)
	}
	if err := json.Unmarshal(data, &meshes); err != nil {
		t.Fatalf("mesh file is not JSON: %v", err)
	}
	if len(meshes) != 4 {
		t.Errorf("mesh file has %d meshes, want 4", len(meshes))
	}

	beads, err := dxfio.Import(dxfOut)
	if err != nil {
		t.Fatalf("reading exported beads: %v", err)
	}
	// Four stitches of four points each.
	if got := len(beads.Edges); got != 12 {
		t.Errorf("exported %d bead lines, want 12", got)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing script flag", nil},
		{"missing script file", []string{"-script", "no/such/file.weld"}},
		{"bad cap", []string{"-script", "examples/stitch.weld", "-cap", "square"}},
		{"unknown flag", []string{"-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := run(tt.args, &stdout, &stderr); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
