// Package engine evaluates weld job scripts. A script is a zygomys Lisp
// program, run in a sandbox, that defines shapes from lines and arcs and
// attaches weld features to edge and face selections. The result is a
// weld.Document ready to recompute.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/weldbead/pkg/shape"
	"github.com/chazu/weldbead/pkg/weld"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment.
type Engine struct {
	// Timeout bounds each evaluation. Zero means DefaultTimeout.
	Timeout time.Duration

	generation atomic.Uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs source and returns the document it describes. Shapes in
// preload are added to the document first so the script can select from
// them by name, e.g. geometry imported from a DXF file.
//
// Return semantics:
//   - On success: returns document + nil errors + nil error
//   - On parse/eval failure: returns nil document + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string, preload ...*shape.Shape) (*weld.Document, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source, preload...)
}

// EvaluateContext is Evaluate bounded by ctx as well as the engine timeout.
// Only the most recently started evaluation delivers a document; earlier
// ones still running return ErrSuperseded.
func (e *Engine) EvaluateContext(ctx context.Context, source string, preload ...*shape.Shape) (*weld.Document, []EvalError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	gen := e.generation.Add(1)

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		doc, evalErrs, err := e.evaluate(source, preload)
		ch <- outcome{doc: doc, errs: evalErrs, err: err}
	}()

	return e.await(ctx, ch, gen)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, preload []*shape.Shape) (*weld.Document, []EvalError, error) {
	doc := weld.NewDocument()
	for _, s := range preload {
		if err := doc.AddShape(s); err != nil {
			return nil, nil, fmt.Errorf("preloading shapes: %w", err)
		}
	}

	// Empty source is a valid program that produces an empty document.
	if strings.TrimSpace(source) == "" {
		return doc, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, doc)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return doc, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ...".
// The detail may span several lines when a builtin's error is wrapped.
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?is)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values,
// extracting the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
