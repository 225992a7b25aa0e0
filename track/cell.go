package track

import "sync"

// Cell memoizes one evaluation function. Read re-runs the function only when
// a source recorded during the previous run has changed version; otherwise it
// returns the memoized outcome, errors included. A failed run is therefore
// not retried until an input actually changes.
//
// A Cell is itself a source: cells read inside another cell's evaluation
// become tracked dependencies of the outer cell.
type Cell struct {
	mu      sync.Mutex
	fn      func() (any, error)
	value   any
	err     error
	deps    []dep
	version uint64
	ran     bool
}

// New creates a cell over fn. The function does not run until the first Read.
func New(fn func() (any, error)) *Cell {
	return &Cell{fn: fn}
}

// Read returns the memoized outcome, re-running the evaluation function first
// if any recorded source changed since the previous run.
func (c *Cell) Read() (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ran || c.dirtyLocked() {
		beginFrame()
		func() {
			defer func() { c.deps = endFrame() }()
			c.value, c.err = c.fn()
		}()
		c.version++
		c.ran = true
	}
	record(c, c.version)
	return c.value, c.err
}

// dirtyLocked reports whether any recorded dependency changed. Dependent
// cells are revalidated lazily through their own Read.
func (c *Cell) dirtyLocked() bool {
	for _, d := range c.deps {
		if d.src.currentVersion() != d.version {
			return true
		}
	}
	return false
}

func (c *Cell) currentVersion() uint64 {
	// Revalidate first: a chained cell only bumps its version when its own
	// Read decides to re-run.
	c.Read()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}
