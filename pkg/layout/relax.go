// Package layout computes node positions for a scene: deterministic seed
// placement followed by force-directed relaxation.
//
// Relaxation runs as a background task so the host loop never stalls on
// it. Each Relax call returns a Task whose done channel closes when the
// run finishes; the task can be cancelled between iterations through its
// context. A running task only writes its part's positions, never
// adjacency, and the editor guarantees at most one relaxation per part is
// in flight.
package layout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vanderheijden86/orrery/pkg/debug"
	"github.com/vanderheijden86/orrery/pkg/metrics"
	"github.com/vanderheijden86/orrery/pkg/scene"
)

// Result summarizes a finished relaxation.
type Result struct {
	// Iterations is the number of completed simulation steps.
	Iterations int
	// Converged is true when the run stopped because displacement fell
	// below Config.Epsilon, false when it hit the iteration cap or was
	// cancelled. A capped run is a normal best-effort layout.
	Converged bool
	// MaxDisplacement is the largest per-node movement of the final step.
	MaxDisplacement float32
}

// Task is one in-flight relaxation.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.RWMutex
	res Result
	err error
}

// Done returns a channel closed when the relaxation finishes, whether it
// converged, hit the cap, was cancelled, or panicked.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the relaxation finishes and returns its outcome.
// The error is non-nil only for cancellation or an internal panic;
// hitting the iteration cap is reported through Result.Converged.
func (t *Task) Wait() (Result, error) {
	<-t.done
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.res, t.err
}

// Cancel stops the relaxation after the current iteration. It is safe to
// call repeatedly and after completion.
func (t *Task) Cancel() {
	t.cancel()
}

// Err returns the task error, or nil while the task is still running.
func (t *Task) Err() error {
	select {
	case <-t.done:
	default:
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// finish publishes the outcome. Must be called exactly once.
func (t *Task) finish(res Result, err error) {
	t.mu.Lock()
	t.res, t.err = res, err
	t.mu.Unlock()
}

// Engine relaxes parts of one scene.
type Engine struct {
	scene *scene.Scene
	cfg   Config
}

// NewEngine returns an engine for s. A nil cfg means DefaultConfig.
func NewEngine(s *scene.Scene, cfg *Config) *Engine {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Engine{scene: s, cfg: c}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Relax starts a background relaxation of part and returns its task.
//
// The caller must not mutate the part's topology, or start another
// relaxation for the same part, until the task finishes or is cancelled;
// the editor serializes this. Zero- and one-node parts complete
// immediately as converged.
//
// Adjacency is read synchronously, before Relax returns: the background
// goroutine works from a captured spring list and only ever writes the
// part's positions, so mutating some other part while this one relaxes is
// safe.
func (e *Engine) Relax(ctx context.Context, part scene.Part) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	if len(part) < 2 {
		t.finish(Result{Converged: true}, nil)
		cancel()
		close(t.done)
		return t
	}

	bodies := make([]body, len(part))
	index := make(map[int64]int, len(part))
	for i, n := range part {
		bodies[i] = body{n: n}
		index[n.ID()] = i
	}
	var springs [][2]int
	for i, n := range part {
		for _, m := range e.scene.Outputs(n) {
			j, ok := index[m.ID()]
			debug.Assert(ok, "edge leaves its part")
			if ok {
				springs = append(springs, [2]int{i, j})
			}
		}
	}
	debug.Log("relaxing part of %d nodes, %d springs", len(part), len(springs))

	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.finish(Result{}, fmt.Errorf("relaxation panic: %v", r))
			}
		}()
		defer metrics.TimerWithCallback(metrics.Relaxation, func(d time.Duration) {
			debug.LogTiming("relax", d)
		})()

		t.finish(e.run(ctx, bodies, springs))
	}()
	return t
}

// run iterates the simulation until convergence, the iteration cap, or
// cancellation. Cancellation leaves positions at the last completed step.
func (e *Engine) run(ctx context.Context, bodies []body, springs [][2]int) (Result, error) {
	var res Result
	for it := 0; it < e.cfg.MaxIterations; it++ {
		select {
		case <-ctx.Done():
			res.Iterations = it
			return res, ctx.Err()
		default:
		}

		maxDisp := e.step(bodies, springs)
		res.Iterations = it + 1
		res.MaxDisplacement = maxDisp
		debug.LogIf(it > 0 && it%100 == 0, "relax: %d iterations, max displacement %.4f", it, maxDisp)

		if maxDisp < e.cfg.Epsilon {
			res.Converged = true
			return res, nil
		}
	}

	// Hitting the cap is a normal termination: the caller keeps the
	// best-effort layout.
	return res, nil
}
