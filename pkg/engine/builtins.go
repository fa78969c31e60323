package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/weldbead/pkg/geom"
	"github.com/chazu/weldbead/pkg/shape"
	"github.com/chazu/weldbead/pkg/weld"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec.
type sexpVec3 struct {
	vec geom.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSegment wraps one edge returned by `line`, `arc` or `circle`.
type sexpSegment struct {
	seg geom.Segment
}

func (s *sexpSegment) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(segment %v)", s.seg)
}
func (s *sexpSegment) Type() *zygo.RegisteredType { return nil }

// sexpFace lists the 1-based edge numbers bounding a face.
type sexpFace struct {
	edges []int
}

func (f *sexpFace) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(face %v)", f.edges)
}
func (f *sexpFace) Type() *zygo.RegisteredType { return nil }

// sexpShapeRef refers to a shape of the document by name.
type sexpShapeRef struct {
	name string
}

func (r *sexpShapeRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(shape %q)", r.name)
}
func (r *sexpShapeRef) Type() *zygo.RegisteredType { return nil }

// sexpSelection wraps a shape.Selection built by `edges` or `faces`.
type sexpSelection struct {
	sel shape.Selection
}

func (s *sexpSelection) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(selection %q :edges %v :faces %v)", s.sel.Shape.Name, s.sel.Edges, s.sel.Faces)
}
func (s *sexpSelection) Type() *zygo.RegisteredType { return nil }

// sexpWeldRef refers to a weld feature by name.
type sexpWeldRef struct {
	name string
}

func (w *sexpWeldRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(weld %q)", w.name)
}
func (w *sexpWeldRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Trailing keyword with no value is a flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats must be whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false, a bare trailing flag, or a number (non-zero
// is true).
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpInt:
		return v.Val != 0, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a geom.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// flatten expands nested lists and arrays in args into one slice.
func flatten(args []zygo.Sexp) []zygo.Sexp {
	var out []zygo.Sexp
	for _, a := range args {
		switch a.(type) {
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(a)
			if err != nil {
				out = append(out, a)
				continue
			}
			out = append(out, flatten(items)...)
		default:
			out = append(out, a)
		}
	}
	return out
}

// toShape resolves a shape name or shape reference against doc.
func toShape(doc *weld.Document, s zygo.Sexp) (*shape.Shape, error) {
	var name string
	switch v := s.(type) {
	case *sexpShapeRef:
		name = v.name
	case *zygo.SexpStr:
		name = v.S
	default:
		return nil, fmt.Errorf("expected shape name or reference, got %T (%s)", s, s.SexpString(nil))
	}
	sh, ok := doc.Shape(name)
	if !ok {
		return nil, fmt.Errorf("no shape named %q", name)
	}
	return sh, nil
}

// toIndices converts 1-based numbers to 0-based indices.
func toIndices(args []zygo.Sexp) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := toInt(a)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("numbers start at 1, got %d", n)
		}
		out = append(out, n-1)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the weld DSL into a zygomys environment. Shapes
// and weld features are added to doc as the script runs.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, doc *weld.Document) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: geom.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (line (vec3 0 0 0) (vec3 40 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("line requires a start and an end point, got %d arguments", len(args))
		}
		p0, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: start: %w", err)
		}
		p1, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: end: %w", err)
		}
		return &sexpSegment{seg: geom.NewLine(p0, p1)}, nil
	})

	// -----------------------------------------------------------------------
	// (arc center radius start-deg end-deg :normal (vec3 0 0 1))
	//
	// Without :normal the arc lies in a plane parallel to XY and runs
	// counter-clockwise from start to end. With :normal the sweep is
	// end - start and may be negative.
	// -----------------------------------------------------------------------
	env.AddFunction("arc", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 4 {
			return zygo.SexpNull, fmt.Errorf("arc requires center, radius, start and end angles")
		}
		center, err := toVec3(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: center: %w", err)
		}
		var nums [3]float64
		for i, field := range []string{"radius", "start", "end"} {
			f, err := toFloat64(pa.positional[i+1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("arc: %s: %w", field, err)
			}
			nums[i] = f
		}
		radius, start, end := nums[0], nums[1], nums[2]
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("arc: radius must be positive, got %g", radius)
		}
		if v, ok := pa.kw["normal"]; ok {
			n, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("arc: normal: %w", err)
			}
			if n.Length() == 0 {
				return zygo.SexpNull, fmt.Errorf("arc: normal must not be zero")
			}
			const toRad = math.Pi / 180
			return &sexpSegment{seg: geom.NewArc(center, radius, n, start*toRad, (end-start)*toRad)}, nil
		}
		return &sexpSegment{seg: geom.NewArcXY(center, radius, start, end)}, nil
	})

	// -----------------------------------------------------------------------
	// (circle center radius :normal (vec3 0 0 1))
	// -----------------------------------------------------------------------
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("circle requires a center and a radius")
		}
		center, err := toVec3(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: center: %w", err)
		}
		radius, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: radius: %w", err)
		}
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("circle: radius must be positive, got %g", radius)
		}
		normal := geom.Vec{Z: 1}
		if v, ok := pa.kw["normal"]; ok {
			if normal, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("circle: normal: %w", err)
			}
		}
		return &sexpSegment{seg: geom.NewArc(center, radius, normal, 0, 2*math.Pi)}, nil
	})

	// -----------------------------------------------------------------------
	// (face 1 2 3 4)
	// -----------------------------------------------------------------------
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			return zygo.SexpNull, fmt.Errorf("face requires at least one edge number")
		}
		idx, err := toIndices(flatten(args))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		return &sexpFace{edges: idx}, nil
	})

	// -----------------------------------------------------------------------
	// (defshape "plate" (line ...) (arc ...) (face 1 2 3)
	//           :at (vec3 0 0 10) :rotate (vec3 0 0 90))
	//
	// Edges are numbered from 1 in the order given. Lists of edges are
	// flattened. :rotate takes Euler angles in degrees applied X, Y, Z.
	// -----------------------------------------------------------------------
	env.AddFunction("defshape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("defshape requires a name")
		}
		shapeName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: name: %w", err)
		}

		var edges []geom.Segment
		var faces [][]int
		for i, item := range flatten(pa.positional[1:]) {
			switch v := item.(type) {
			case *sexpSegment:
				edges = append(edges, v.seg)
			case *sexpFace:
				faces = append(faces, v.edges)
			default:
				return zygo.SexpNull, fmt.Errorf("defshape %q: item %d: expected line, arc, circle or face, got %s",
					shapeName, i+1, item.SexpString(nil))
			}
		}

		var at, rot geom.Vec
		placed := false
		if v, ok := pa.kw["at"]; ok {
			if at, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("defshape %q: at: %w", shapeName, err)
			}
			placed = true
		}
		if v, ok := pa.kw["rotate"]; ok {
			if rot, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("defshape %q: rotate: %w", shapeName, err)
			}
			placed = true
		}
		if placed {
			m := geom.Placement(at, rot)
			for i, e := range edges {
				edges[i] = geom.Place(e, m)
			}
		}

		sh, err := shape.New(shapeName, edges, faces...)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: %w", err)
		}
		if err := doc.AddShape(sh); err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: %w", err)
		}
		return &sexpShapeRef{name: shapeName}, nil
	})

	// -----------------------------------------------------------------------
	// (shape "plate")
	// -----------------------------------------------------------------------
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("shape requires a name argument")
		}
		sh, err := toShape(doc, args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: %w", err)
		}
		return &sexpShapeRef{name: sh.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (edge-count "plate")
	// -----------------------------------------------------------------------
	env.AddFunction("edge_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("edge-count requires a shape")
		}
		sh, err := toShape(doc, args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge-count: %w", err)
		}
		return &zygo.SexpInt{Val: int64(len(sh.Edges))}, nil
	})

	// -----------------------------------------------------------------------
	// (edges "plate" 1 2 3)   ; no numbers selects every edge
	// (faces "plate" 1)
	// -----------------------------------------------------------------------
	selector := func(kind string) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires a shape", kind)
			}
			sh, err := toShape(doc, args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
			}
			idx, err := toIndices(flatten(args[1:]))
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s %q: %w", kind, sh.Name, err)
			}
			sel := shape.Selection{Shape: sh}
			if kind == "faces" {
				if len(idx) == 0 {
					idx = allIndices(len(sh.Faces))
				}
				sel.Faces = idx
			} else {
				if len(idx) == 0 {
					idx = allIndices(len(sh.Edges))
				}
				sel.Edges = idx
			}
			if _, err := sel.Resolve(); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
			}
			return &sexpSelection{sel: sel}, nil
		}
	}
	env.AddFunction("edges", selector("edges"))
	env.AddFunction("faces", selector("faces"))

	// -----------------------------------------------------------------------
	// (weld "fillet" :select (edges "plate" 1 2) :size 5
	//       :intermittent true :pitch 50 :length 15 :offset 0
	//       :propagate true :max-distance 100 :inset true
	//       :field true :alternating false :all-around true)
	// -----------------------------------------------------------------------
	env.AddFunction("weld", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("weld requires a name")
		}
		weldName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("weld: name: %w", err)
		}
		if _, exists := doc.Feature(weldName); exists {
			return zygo.SexpNull, fmt.Errorf("weld: duplicate weld name %q", weldName)
		}

		f := weld.NewFeature(weldName)
		if v, ok := pa.kw["select"]; ok {
			for i, item := range flatten([]zygo.Sexp{v}) {
				sel, ok := item.(*sexpSelection)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("weld %q: select item %d: expected (edges ...) or (faces ...), got %s",
						weldName, i+1, item.SexpString(nil))
				}
				f.Selections = append(f.Selections, sel.sel)
			}
		}

		floats := []struct {
			kw  string
			dst *float64
		}{
			{"size", &f.Params.Size},
			{"pitch", &f.Params.Pitch},
			{"length", &f.Params.Length},
			{"offset", &f.Params.Offset},
			{"max-distance", &f.Params.MaxDistance},
		}
		for _, fl := range floats {
			if v, ok := pa.kw[fl.kw]; ok {
				if *fl.dst, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("weld %q: %s: %w", weldName, fl.kw, err)
				}
			}
		}

		flags := []struct {
			kw  string
			dst *bool
		}{
			{"intermittent", &f.Params.Intermittent},
			{"propagate", &f.Params.Propagate},
			{"inset", &f.Params.EndpointInset},
			{"field", &f.Info.FieldWeld},
			{"alternating", &f.Info.Alternating},
			{"all-around", &f.Info.AllAround},
		}
		for _, fl := range flags {
			if v, ok := pa.kw[fl.kw]; ok {
				if *fl.dst, err = toBool(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("weld %q: %s: %w", weldName, fl.kw, err)
				}
			}
		}

		doc.AddFeature(f)
		return &sexpWeldRef{name: weldName}, nil
	})
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
