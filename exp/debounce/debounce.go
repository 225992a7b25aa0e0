// Package debounce provides a debounced value resource built on the rebind
// core: the exposed value trails its input by a quiet period.
//
// This package is EXPERIMENTAL and its API may change before v1.
package debounce

import (
	"sync"
	"time"

	"github.com/rebindio/rebind"
	"github.com/rebindio/rebind/track"
)

// Debounced trails an input by a quiet period. Get returns the last input
// value that went unchanged for at least the configured wait.
type Debounced[T comparable] struct {
	handle *rebind.Handle[*resource[T]]
	res    *resource[T]
}

// New binds a debounced view of input into owner's lifetime. The input
// function runs inside the binding's cell, so it should read tracked sources
// to drive re-evaluation.
func New[T comparable](owner *rebind.Owner, wait time.Duration, input func() T) (*Debounced[T], error) {
	var zero T
	res := &resource[T]{
		wait: wait,
		out:  track.NewSource[T](zero),
	}
	handle, err := rebind.Bind(owner,
		rebind.Factory[*resource[T]](func(*rebind.Owner) (*resource[T], error) {
			return res, nil
		}),
		func() any { return []any{input()} },
	)
	if err != nil {
		return nil, err
	}
	return &Debounced[T]{handle: handle, res: res}, nil
}

// Get re-evaluates the binding and returns the settled value. Reading inside
// a cell entangles the caller with future settlements.
func (d *Debounced[T]) Get() (T, error) {
	if _, err := d.handle.Current(); err != nil {
		var zero T
		return zero, err
	}
	return d.res.out.Get(), nil
}

type resource[T comparable] struct {
	wait time.Duration
	out  *track.Source[T]

	mu    sync.Mutex
	timer *time.Timer
}

// Update restarts the quiet period with the latest input value.
func (r *resource[T]) Update(positional []any, _ map[string]any) error {
	if len(positional) == 0 {
		return nil
	}
	v, err := rebind.As[T](positional[0])
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.wait, func() {
		r.out.Set(v)
	})
	return nil
}

func (r *resource[T]) Destroy() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	return nil
}
