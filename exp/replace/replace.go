// Package replace provides an experimental replace-on-change binding policy.
//
// The core updates instances in place and never swaps identity. This package
// instead hashes the normalized arguments on every evaluation and, when the
// hash changes, builds a fresh instance, swaps it in, then closes the old
// one. Swap happens before close so no access observes a torn-down instance.
//
// This package is EXPERIMENTAL and its API may change before v1.
package replace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rebindio/rebind"
)

// Handle wraps a binding whose instance is rebuilt whenever the argument
// hash changes.
type Handle[T any] struct {
	inner *rebind.Handle[*slot[T]]
}

// New binds build into owner's lifetime under the replacement policy. The
// build function runs on first access and again on every argument change.
func New[T any](owner *rebind.Owner, build func(args rebind.Args) (T, error), thunk rebind.Thunk, opts ...rebind.Option) (*Handle[T], error) {
	if build == nil {
		return nil, rebind.InvalidFactoryError{Reason: "build func is nil"}
	}
	factory := rebind.Factory[*slot[T]](func(*rebind.Owner) (*slot[T], error) {
		return &slot[T]{build: build}, nil
	})
	h, err := rebind.Bind(owner, factory, thunk, opts...)
	if err != nil {
		return nil, err
	}
	return &Handle[T]{inner: h}, nil
}

// Current returns the instance built for the current arguments.
func (h *Handle[T]) Current() (T, error) {
	s, err := h.inner.Current()
	if err != nil {
		var zero T
		return zero, err
	}
	return s.current()
}

// slot holds the instance generation for one replacement binding. It is the
// resource registered with the owner; the instances it builds are owned by
// the slot, not registered individually.
type slot[T any] struct {
	build func(rebind.Args) (T, error)

	mu    sync.Mutex
	hash  string
	has   bool
	value T
}

func (s *slot[T]) Update(positional []any, named map[string]any) error {
	sum, err := hashArgs(positional, named)
	if err != nil {
		return fmt.Errorf("hash arguments: %w", err)
	}

	s.mu.Lock()
	if s.has && s.hash == sum {
		s.mu.Unlock()
		return nil
	}
	old, hadOld := s.value, s.has
	s.mu.Unlock()

	next, err := s.build(rebind.Args{Positional: positional, Named: named})
	if err != nil {
		return fmt.Errorf("build replacement: %w", err)
	}

	s.mu.Lock()
	s.value = next
	s.hash = sum
	s.has = true
	s.mu.Unlock()

	// Swap first, close old after.
	if hadOld {
		if err := teardown(old); err != nil {
			return fmt.Errorf("close replaced instance: %w", err)
		}
	}
	return nil
}

func (s *slot[T]) current() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.has {
		var zero T
		return zero, fmt.Errorf("replacement slot has no instance")
	}
	return s.value, nil
}

func (s *slot[T]) Destroy() error {
	s.mu.Lock()
	value, has := s.value, s.has
	s.has = false
	s.mu.Unlock()
	if !has {
		return nil
	}
	return teardown(value)
}

func teardown(v any) error {
	switch c := v.(type) {
	case rebind.Destroyer:
		return c.Destroy()
	case io.Closer:
		return c.Close()
	}
	return nil
}

// hashArgs produces a canonical digest of the normalized arguments.
// encoding/json sorts map keys, which is canonical enough here; arguments
// that cannot be marshaled fail the evaluation.
func hashArgs(positional []any, named map[string]any) (string, error) {
	payload := struct {
		Positional []any          `json:"positional"`
		Named      map[string]any `json:"named"`
	}{Positional: positional, Named: named}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
