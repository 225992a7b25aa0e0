package rebind

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Destroyer is implemented by resources that need teardown work. Children
// without a Destroy method fall back to io.Closer when possible.
type Destroyer interface {
	Destroy() error
}

// DestroyFunc adapts a plain function into a Destroyer.
type DestroyFunc func() error

func (f DestroyFunc) Destroy() error { return f() }

// Owner is one node in the destruction tree. Registered children are torn
// down when the owner is destroyed, in reverse registration order and
// depth-first through sub-owners. Each child is destroyed exactly once;
// Destroy itself is idempotent.
type Owner struct {
	mu        sync.Mutex
	children  []any
	destroyed bool
}

func NewOwner() *Owner {
	return &Owner{}
}

// Child creates a sub-owner registered for cascading destruction.
func (o *Owner) Child() (*Owner, error) {
	child := NewOwner()
	if err := o.RegisterChild(child); err != nil {
		return nil, err
	}
	return child, nil
}

// RegisterChild registers v for teardown when o is destroyed. Values that
// implement neither Destroyer nor io.Closer are still tracked so they appear
// in the ownership graph.
func (o *Owner) RegisterChild(v any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destroyed {
		return OwnerDestroyedError{}
	}
	o.children = append(o.children, v)
	return nil
}

// Destroy tears down all registered children and marks the owner unusable
// for further registrations. Destruction failures are collected; every child
// still gets its turn.
func (o *Owner) Destroy() error {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return nil
	}
	o.destroyed = true
	children := o.children
	o.children = nil
	o.mu.Unlock()

	var errs []error
	for i := len(children) - 1; i >= 0; i-- {
		if err := teardownChild(children[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func teardownChild(child any) error {
	switch c := child.(type) {
	case Destroyer:
		if err := c.Destroy(); err != nil {
			return fmt.Errorf("destroy %T: %w", child, err)
		}
	case io.Closer:
		if err := c.Close(); err != nil {
			return fmt.Errorf("close %T: %w", child, err)
		}
	}
	return nil
}
