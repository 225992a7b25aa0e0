// Package track provides the memoized recomputation primitive the rebind
// core evaluates through: tracked sources and cells.
//
// A Cell runs its function once and records which sources the run read.
// Subsequent reads re-run the function only if a recorded source changed;
// otherwise the memoized outcome is returned. Evaluation is cooperative:
// cells are not reentrant and cyclic cell reads are not supported.
package track

import (
	"runtime"
	"sync"
)

// A Source is a mutable tracked value. Reads performed while a cell is
// evaluating are recorded so the cell can tell, later, whether it needs to
// re-run. T is comparable: primitives change by value, pointers by identity.
type Source[T comparable] struct {
	mu      sync.Mutex
	value   T
	version uint64
}

func NewSource[T comparable](initial T) *Source[T] {
	return &Source[T]{value: initial, version: 1}
}

// Get returns the current value and records the read in the innermost
// evaluating cell, if any.
func (s *Source[T]) Get() T {
	s.mu.Lock()
	v, ver := s.value, s.version
	s.mu.Unlock()
	record(s, ver)
	return v
}

// Set replaces the value. Setting an equal value is a no-op, so dependent
// cells re-run only on actual change.
func (s *Source[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == s.value {
		return
	}
	s.value = v
	s.version++
}

// Update applies fn to the current value under the source's lock.
func (s *Source[T]) Update(fn func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.value)
	if next == s.value {
		return
	}
	s.value = next
	s.version++
}

func (s *Source[T]) currentVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// source is the version probe shared by Source and Cell so cells can depend
// on either.
type source interface {
	currentVersion() uint64
}

type dep struct {
	src     source
	version uint64
}

// frames holds the stacks of in-progress cell evaluations, one stack per
// goroutine. The innermost frame of the current goroutine collects the reads
// of the cell it is evaluating; reads on other goroutines never leak into it.
var frames = struct {
	mu     sync.Mutex
	stacks map[uint64][][]dep
}{stacks: make(map[uint64][][]dep)}

func beginFrame() {
	id := goroutineID()
	frames.mu.Lock()
	frames.stacks[id] = append(frames.stacks[id], nil)
	frames.mu.Unlock()
}

func endFrame() []dep {
	id := goroutineID()
	frames.mu.Lock()
	defer frames.mu.Unlock()
	stack := frames.stacks[id]
	top := stack[len(stack)-1]
	if len(stack) == 1 {
		delete(frames.stacks, id)
	} else {
		frames.stacks[id] = stack[:len(stack)-1]
	}
	return top
}

func record(s source, version uint64) {
	id := goroutineID()
	frames.mu.Lock()
	defer frames.mu.Unlock()
	stack := frames.stacks[id]
	if len(stack) == 0 {
		return
	}
	top := &stack[len(stack)-1]
	for i := range *top {
		if (*top)[i].src == s {
			(*top)[i].version = version
			return
		}
	}
	*top = append(*top, dep{src: s, version: version})
}

// goroutineID parses the current goroutine's id from the runtime stack
// header ("goroutine 123 [running]:"). Evaluation frames are keyed by it so
// cells evaluating on different goroutines cannot record reads into each
// other's dependency sets.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for _, c := range buf[len("goroutine "):n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
