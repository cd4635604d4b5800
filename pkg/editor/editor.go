// Package editor coordinates scene mutations with layout.
//
// The editor owns the current partition of the scene into isolated graphs
// and enforces the concurrency contract between the mutation API and the
// relaxation engine: at most one relaxation per part is in flight, and a
// mutation cancels and awaits the tasks of the parts it touches before it
// changes topology. Unaffected parts keep relaxing undisturbed.
//
// Mutations are expected from a single host goroutine (typically a render
// or main loop); completion callbacks arrive on task goroutines.
package editor

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"
	"sync"

	"cogentcore.org/core/math32"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/orrery/pkg/debug"
	"github.com/vanderheijden86/orrery/pkg/layout"
	"github.com/vanderheijden86/orrery/pkg/scene"
)

// Notify is the re-render trigger: it runs after a part settles, with the
// part and the relaxation outcome. Parts settle on their own goroutines,
// so Notify may be called concurrently; hosts usually post to their main
// loop from here.
type Notify func(part scene.Part, res layout.Result)

// partState tracks one isolated graph and its in-flight relaxation.
type partState struct {
	nodes  scene.Part
	origin math32.Vector3
	task   *layout.Task // nil once settled
}

// Editor is the host-facing coordinator. Construct with New; the zero
// value is not usable.
type Editor struct {
	scene  *scene.Scene
	engine *layout.Engine
	cfg    layout.Config
	notify Notify

	mu    sync.Mutex
	parts []*partState
}

// Option configures an Editor.
type Option func(*Editor)

// WithConfig overrides the default layout configuration.
func WithConfig(cfg layout.Config) Option {
	return func(e *Editor) { e.cfg = cfg }
}

// WithNotify installs the re-render callback.
func WithNotify(fn Notify) Option {
	return func(e *Editor) { e.notify = fn }
}

// New wraps s. The editor assumes it is the only mutator of s from here
// on; hosts read positions and adjacency but mutate through the editor.
// Existing nodes are tracked at their current positions; call Reflow to
// lay them out.
func New(s *scene.Scene, opts ...Option) *Editor {
	e := &Editor{scene: s, cfg: layout.DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	e.engine = layout.NewEngine(s, &e.cfg)
	for _, p := range s.Parts() {
		v := scene.NewVolume()
		v.AddNodes(p)
		e.parts = append(e.parts, &partState{nodes: p, origin: v.Center()})
	}
	return e
}

// Scene returns the underlying arena for read access.
func (e *Editor) Scene() *scene.Scene {
	return e.scene
}

// Config returns the layout configuration in use.
func (e *Editor) Config() layout.Config {
	return e.cfg
}

// Reflow partitions the whole scene, seeds every part side by side along
// X, and relaxes them in parallel, blocking until all of them settle.
// Call it once after the host loads its nodes and links, or to rebuild
// the layout from scratch.
func (e *Editor) Reflow(ctx context.Context) error {
	defer debug.LogEnterExit("editor.Reflow")()

	e.cancelAndAwait(e.takeStates(nil))

	parts := e.scene.Parts()
	states := make([]*partState, len(parts))
	var originX float32
	for i, p := range parts {
		ext := gridExtent(len(p), e.cfg.Spacing)
		origin := math32.Vec3(originX+ext/2, 0, 0)
		originX += ext + e.cfg.Spacing*2
		layout.Seed(e.scene, p, e.cfg, origin)
		states[i] = &partState{nodes: p, origin: origin}
	}

	e.mu.Lock()
	e.parts = states
	e.mu.Unlock()

	// Relaxations are CPU-bound; one per core is as parallel as useful.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, st := range states {
		g.Go(func() error {
			return e.settle(gctx, st)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	e.checkIntegrity()
	return nil
}

// settle runs one part's relaxation to completion and publishes the
// outcome. A deadline expiry counts as a best-effort completion, like
// hitting the iteration cap; only cancellation is an error.
func (e *Editor) settle(ctx context.Context, st *partState) error {
	rctx := ctx
	var cancel context.CancelFunc
	if e.cfg.Timeout > 0 {
		rctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	// Publish the task under the lock so a concurrent mutation taking
	// this part always sees something to cancel.
	e.mu.Lock()
	task := e.engine.Relax(rctx, st.nodes)
	st.task = task
	e.mu.Unlock()

	res, err := task.Wait()
	e.mu.Lock()
	st.task = nil
	e.mu.Unlock()

	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if e.notify != nil {
		e.notify(st.nodes, res)
	}
	return nil
}

// Insert adds an isolated node as its own singleton part. Its seed slot
// derives from the arena ID, which is never reused, so inserts never
// land on each other. Singletons need no relaxation.
func (e *Editor) Insert(text string) *scene.Node {
	n := e.scene.Insert(text)
	n.Pos = math32.Vec3(float32(n.ID())*e.cfg.Spacing*2, 0, 0)

	st := &partState{nodes: scene.Part{n}, origin: n.Pos}
	e.mu.Lock()
	e.parts = append(e.parts, st)
	e.mu.Unlock()

	if e.notify != nil {
		e.notify(st.nodes, layout.Result{Converged: true})
	}
	e.checkIntegrity()
	return n
}

// Link records a relationship between src and target and re-lays-out the
// affected component. Linking may merge two parts into one; the merged
// part is re-seeded and its relaxation task returned. Validation failures
// reject the call before any in-flight relaxation is disturbed.
func (e *Editor) Link(ctx context.Context, src, target *scene.Node, dir scene.Direction) (*layout.Task, error) {
	if err := e.scene.CanLink(src, target); err != nil {
		return nil, err
	}

	taken := e.takeStates([]*scene.Node{src, target})
	e.cancelAndAwait(taken)

	if err := e.scene.Link(src, target, dir); err != nil {
		// CanLink holds, so this cannot fire; keep the parts tracked
		// regardless.
		debug.AssertNoError(err, "link after CanLink")
		e.restoreStates(taken)
		return nil, err
	}

	merged := e.scene.PartOf(src)
	origin := originFor(taken, src)
	task := e.startRelax(ctx, merged, origin)
	e.checkIntegrity()
	return task, nil
}

// Remove deletes a leaf node and re-lays-out what remains of its part.
// The strict leaf rule applies: a node with more than one relationship in
// total is rejected with scene.ErrInvalidRemoval and nothing changes, not
// even in-flight relaxations. The remainder is re-partitioned and one
// task per resulting part is returned; removing a singleton returns none.
func (e *Editor) Remove(ctx context.Context, n *scene.Node) ([]*layout.Task, error) {
	if err := e.scene.CanRemove(n); err != nil {
		return nil, err
	}

	taken := e.takeStates([]*scene.Node{n})
	e.cancelAndAwait(taken)

	var remainder []*scene.Node
	for _, st := range taken {
		for _, m := range st.nodes {
			if m != n {
				remainder = append(remainder, m)
			}
		}
	}

	if err := e.scene.Remove(n); err != nil {
		debug.AssertNoError(err, "remove after CanRemove")
		e.restoreStates(taken)
		return nil, err
	}

	origin := originFor(taken, n)
	var tasks []*layout.Task
	seen := make(map[int64]bool, len(remainder))
	for _, m := range remainder {
		if seen[m.ID()] {
			continue
		}
		part := e.scene.PartOf(m)
		for _, x := range part {
			seen[x.ID()] = true
		}
		// Split siblings stack along Z next to the original origin.
		off := math32.Vec3(0, 0, float32(len(tasks))*gridExtent(len(part), e.cfg.Spacing))
		tasks = append(tasks, e.startRelax(ctx, part, origin.Add(off)))
	}
	e.checkIntegrity()
	return tasks, nil
}

// startRelax seeds a part, starts its relaxation, and tracks the task. A
// watcher goroutine clears the bookkeeping and fires Notify when the part
// settles.
func (e *Editor) startRelax(ctx context.Context, part scene.Part, origin math32.Vector3) *layout.Task {
	layout.Seed(e.scene, part, e.cfg, origin)

	rctx := ctx
	var cancel context.CancelFunc
	if e.cfg.Timeout > 0 {
		rctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
	}
	task := e.engine.Relax(rctx, part)

	st := &partState{nodes: part, origin: origin, task: task}
	e.mu.Lock()
	e.parts = append(e.parts, st)
	e.mu.Unlock()

	go func() {
		res, err := task.Wait()
		if cancel != nil {
			cancel()
		}
		e.mu.Lock()
		st.task = nil
		e.mu.Unlock()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return
		}
		if e.notify != nil {
			e.notify(st.nodes, res)
		}
	}()
	return task
}

// takeStates removes and returns the states whose parts contain any of
// the given nodes. A nil argument takes every state.
func (e *Editor) takeStates(nodes []*scene.Node) []*partState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if nodes == nil {
		taken := e.parts
		e.parts = nil
		return taken
	}

	var taken, kept []*partState
	for _, st := range e.parts {
		hit := false
		for _, n := range nodes {
			if st.nodes.Contains(n) {
				hit = true
				break
			}
		}
		if hit {
			taken = append(taken, st)
		} else {
			kept = append(kept, st)
		}
	}
	e.parts = kept
	return taken
}

// restoreStates puts taken states back, for the unreachable path where a
// pre-validated mutation still fails.
func (e *Editor) restoreStates(states []*partState) {
	e.mu.Lock()
	e.parts = append(e.parts, states...)
	e.mu.Unlock()
}

// cancelAndAwait stops the in-flight relaxations of the given states and
// blocks until their goroutines have exited, so no task is writing
// positions while topology changes.
func (e *Editor) cancelAndAwait(states []*partState) {
	e.mu.Lock()
	var tasks []*layout.Task
	for _, st := range states {
		if st.task != nil {
			tasks = append(tasks, st.task)
		}
	}
	e.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	for _, t := range tasks {
		<-t.Done()
	}
}

// Wait blocks until every in-flight relaxation finishes or ctx expires.
func (e *Editor) Wait(ctx context.Context) error {
	e.mu.Lock()
	var tasks []*layout.Task
	for _, st := range e.parts {
		if st.task != nil {
			tasks = append(tasks, st.task)
		}
	}
	e.mu.Unlock()

	for _, t := range tasks {
		select {
		case <-t.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close cancels every in-flight relaxation and waits for the tasks to
// stop. Call it before discarding the scene so no background work keeps
// writing into it. The editor stops tracking its parts; Parts returns
// nothing afterwards.
func (e *Editor) Close() {
	e.cancelAndAwait(e.takeStates(nil))
}

// Parts returns a snapshot of the current partition, ordered by lowest
// node ID.
func (e *Editor) Parts() []scene.Part {
	e.mu.Lock()
	out := make([]scene.Part, len(e.parts))
	for i, st := range e.parts {
		out[i] = st.nodes
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i][0].ID() < out[j][0].ID()
	})
	return out
}

// FrameVolume returns the bounding volume over every node position, for
// camera framing. Guard with IsEmpty when the scene can be empty.
func (e *Editor) FrameVolume() scene.Volume {
	v := scene.NewVolume()
	v.AddNodes(e.scene.Nodes())
	return v
}

// checkIntegrity asserts the partition tiles the arena. Debug builds only.
func (e *Editor) checkIntegrity() {
	if !debug.Enabled() {
		return
	}
	debug.AssertNoError(e.scene.CheckIntegrity(e.Parts()), "partition integrity")
}

// originFor picks the seed origin for a recomputed part: the origin of
// the prior part that contained anchor, so layout stays where the user
// was working.
func originFor(taken []*partState, anchor *scene.Node) math32.Vector3 {
	for _, st := range taken {
		if st.nodes.Contains(anchor) {
			return st.origin
		}
	}
	return math32.Vector3{}
}

// gridExtent is the edge length of the seed cube for n nodes.
func gridExtent(n int, spacing float32) float32 {
	if n < 1 {
		return spacing
	}
	side := math.Ceil(math.Cbrt(float64(n)))
	return float32(side) * spacing
}
