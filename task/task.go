// Package task adapts asynchronous units of work into rebind resources.
//
// A Def describes one unit of work. From binds it through an owner: each
// argument change starts a fresh run, fire-and-forget, and the runner keeps
// the most recently completed result alongside live status. The core never
// blocks on a run; status is observed on the next access.
package task

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rebindio/rebind"
	"github.com/rebindio/rebind/track"
)

// Def is one asynchronous unit of work. Run receives the latest normalized
// arguments each time the bound runner's inputs change.
type Def[T any] struct {
	Run func(ctx context.Context, positional []any, named map[string]any) (T, error)
}

// Runner is the live resource behind one bound definition. Updates launch a
// new run with the latest arguments; completions are latest-wins, so a run
// whose arguments went stale while it was in flight is discarded.
type Runner[T any] struct {
	def   *Def[T]
	state *track.Source[uint64]

	mu         sync.Mutex
	seq        uint64
	generation uint64
	inFlight   int
	finished   bool
	value      T
	hasValue   bool
	err        error
}

// Update implements the resource update hook: it records a new generation and
// starts the definition without waiting for it.
func (r *Runner[T]) Update(positional []any, named map[string]any) error {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.inFlight++
	r.finished = false
	r.mu.Unlock()
	r.bump()
	go r.run(gen, positional, named)
	return nil
}

func (r *Runner[T]) run(gen uint64, positional []any, named map[string]any) {
	value, err := r.def.Run(context.Background(), positional, named)
	r.mu.Lock()
	r.inFlight--
	if gen == r.generation {
		r.finished = true
		r.err = err
		if err == nil {
			r.value = value
			r.hasValue = true
		}
	}
	r.mu.Unlock()
	r.bump()
}

// bump invalidates the tracked state source so cells that observed the
// runner's status re-evaluate.
func (r *Runner[T]) bump() {
	r.mu.Lock()
	r.seq++
	next := r.seq
	r.mu.Unlock()
	r.state.Set(next)
}

// Destroy invalidates any in-flight run so its completion is discarded.
func (r *Runner[T]) Destroy() error {
	r.mu.Lock()
	r.generation++
	r.mu.Unlock()
	return nil
}

// IsRunning reports whether any run is still in flight.
func (r *Runner[T]) IsRunning() bool {
	r.state.Get()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight > 0
}

// IsFinished reports whether the newest started run has completed.
func (r *Runner[T]) IsFinished() bool {
	r.state.Get()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// Value returns the most recently completed result. While a newer run is in
// flight this is the last known good value; ok is false before any run has
// succeeded.
func (r *Runner[T]) Value() (T, bool) {
	r.state.Get()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.hasValue
}

// Err returns the error of the newest completed run, if any.
func (r *Runner[T]) Err() error {
	r.state.Get()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// wrappers caches one factory per definition identity so repeated binds of
// the same definition share a wrapper. The cache is append-only; the
// singleflight group dedupes concurrent construction of the same entry.
var wrappers = struct {
	mu        sync.Mutex
	factories map[any]any
	sf        singleflight.Group
}{factories: make(map[any]any)}

func wrapperFor[T any](def *Def[T]) (rebind.Factory[*Runner[T]], error) {
	if def == nil || def.Run == nil {
		return nil, rebind.InvalidFactoryError{Reason: "task definition has no Run"}
	}
	wrappers.mu.Lock()
	if f, ok := wrappers.factories[def]; ok {
		wrappers.mu.Unlock()
		return f.(rebind.Factory[*Runner[T]]), nil
	}
	wrappers.mu.Unlock()

	v, _, _ := wrappers.sf.Do(fmt.Sprintf("%p", def), func() (any, error) {
		wrappers.mu.Lock()
		defer wrappers.mu.Unlock()
		if f, ok := wrappers.factories[def]; ok {
			return f, nil
		}
		f := rebind.Factory[*Runner[T]](func(*rebind.Owner) (*Runner[T], error) {
			return &Runner[T]{def: def, state: track.NewSource[uint64](0)}, nil
		})
		wrappers.factories[def] = f
		return f, nil
	})
	return v.(rebind.Factory[*Runner[T]]), nil
}

// From binds def into owner's lifetime and returns the runner handle. The
// first access starts the first run.
func From[T any](owner *rebind.Owner, def *Def[T], thunk rebind.Thunk, opts ...rebind.Option) (*rebind.Handle[*Runner[T]], error) {
	factory, err := wrapperFor(def)
	if err != nil {
		return nil, err
	}
	return rebind.Bind(owner, factory, thunk, opts...)
}
