package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/weldbead/pkg/weld"
)

// DefaultTimeout bounds one evaluation when Engine.Timeout is zero.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's timeout.
	ErrTimeout = errors.New("engine: evaluation timed out")

	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one had started on the same engine.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

// outcome is what the evaluating goroutine hands back.
type outcome struct {
	doc  *weld.Document
	errs []EvalError
	err  error
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

// await blocks until the evaluation tagged gen reports on ch or ctx ends.
// The zygomys interpreter cannot be interrupted, so an abandoned goroutine
// runs on and its late outcome is dropped into the buffered channel.
func (e *Engine) await(ctx context.Context, ch <-chan outcome, gen uint64) (*weld.Document, []EvalError, error) {
	select {
	case o := <-ch:
		if current := e.generation.Load(); gen != current {
			return nil, nil, fmt.Errorf("%w: generation %d, current %d", ErrSuperseded, gen, current)
		}
		return o.doc, o.errs, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout())
		}
		return nil, nil, ctx.Err()
	}
}
