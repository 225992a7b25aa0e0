package rebind

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/rebindio/rebind/track"
)

// Factory constructs the resource instance for one binding. It runs at most
// once per binding; after that the instance is only updated in place.
type Factory[T any] func(owner *Owner) (T, error)

// Updater is the optional update hook a resource may implement. It runs with
// fresh normalized arguments on the first evaluation and again on every
// evaluation whose tracked inputs changed, always completing before Current
// returns. A returned error propagates to the accessor without rolling back
// the constructed instance.
type Updater interface {
	Update(positional []any, named map[string]any) error
}

// Cell is the memoized recomputation contract a binding evaluates through:
// Read re-runs the evaluation function only when a tracked input changed,
// otherwise it returns the memoized outcome.
type Cell interface {
	Read() (any, error)
}

// CellFactory builds the one cell backing a binding.
type CellFactory func(fn func() (any, error)) Cell

type bindOptions struct {
	cells CellFactory
}

type Option func(*bindOptions)

// WithCellFactory overrides the recomputation cell implementation backing a
// binding. The default is track.New.
func WithCellFactory(f CellFactory) Option {
	return func(o *bindOptions) {
		o.cells = f
	}
}

func defaultCellFactory(fn func() (any, error)) Cell {
	return track.New(fn)
}

// Handle is the accessor for one binding. Reading Current is what drives the
// binding: construction, updates, and dependency entanglement all happen on
// access.
type Handle[T any] struct {
	cell Cell
}

// Bind associates an owner, a factory, and an argument thunk into a lazily
// evaluated binding. Nothing runs until the first Current call.
//
// On first evaluation the factory constructs the instance, the instance is
// registered with owner for cascading teardown, and the update hook (if
// implemented) runs with the normalized arguments. Later evaluations re-run
// only the update hook, and only when a tracked input of the thunk changed;
// the instance identity never changes while the binding lives.
func Bind[T any](owner *Owner, factory Factory[T], thunk Thunk, opts ...Option) (*Handle[T], error) {
	if owner == nil {
		return nil, InvalidFactoryError{Reason: "owner is nil"}
	}
	if factory == nil {
		return nil, InvalidFactoryError{Reason: "factory func is nil"}
	}
	options := bindOptions{cells: defaultCellFactory}
	for _, opt := range opts {
		opt(&options)
	}

	args := normalizeThunk(thunk)
	var (
		instance T
		built    bool
	)
	eval := func() (any, error) {
		current := args()
		if !built {
			v, err := factory(owner)
			if err != nil {
				return nil, fmt.Errorf("build resource: %w", err)
			}
			if err := owner.RegisterChild(v); err != nil {
				regErr := fmt.Errorf("register resource for teardown: %w", err)
				if terr := teardownChild(v); terr != nil {
					return nil, errors.Join(regErr, terr)
				}
				return nil, regErr
			}
			instance = v
			built = true
		}
		if up, ok := any(instance).(Updater); ok {
			if err := up.Update(current.Positional, current.Named); err != nil {
				return nil, fmt.Errorf("update resource: %w", err)
			}
		}
		return instance, nil
	}
	return &Handle[T]{cell: options.cells(eval)}, nil
}

// From binds a resource type whose pointer implements the update hook,
// constructing the instance with new(T). It is the class-style convenience
// entry point.
func From[T any, PT interface {
	*T
	Updater
}](owner *Owner, thunk Thunk, opts ...Option) (*Handle[PT], error) {
	factory := Factory[PT](func(*Owner) (PT, error) {
		return PT(new(T)), nil
	})
	return Bind(owner, factory, thunk, opts...)
}

// Current returns the live instance, lazily constructing it and re-running
// the update hook when tracked inputs changed. Construction and update
// errors propagate to the caller; the next access retries only if the cell
// decides to re-run.
func (h *Handle[T]) Current() (T, error) {
	v, err := h.cell.Read()
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// As casts a value resolved through a view or an untyped handle to T.
func As[T any](v any) (T, error) {
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, TypeMismatchError{
			Expected: reflect.TypeOf((*T)(nil)).Elem().String(),
			Actual:   fmt.Sprintf("%T", v),
		}
	}
	return typed, nil
}
