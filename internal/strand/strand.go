// Package strand implements the ambient per-goroutine binding that the
// replay driver uses to locate the Context owned by the calling goroutine
// ("strand" in the vocabulary of this library).
//
// Go has no language-level thread-local storage. This package parses the
// goroutine id out of the runtime's own debug stack dump, which is the
// conventional workaround used by goroutine-local-storage shims in the
// absence of a language feature; see DESIGN.md for why no ecosystem
// package in the reference corpus covers this need.
package strand

import (
	"bytes"
	"strconv"
	"sync"
	"runtime"
)

// ID identifies one goroutine for the lifetime of that goroutine.
type ID uint64

// Current returns the id of the calling goroutine.
//
// This walks only the first line of a debug stack dump ("goroutine N
// [state]:"), so the cost is a small fixed-size stack capture rather than a
// full trace. It is called a handful of times per replay attempt, never in
// a tight loop.
func Current() ID {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		panic("strand: unrecognized runtime.Stack output")
	}
	b = b[len(prefix):]

	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		panic("strand: unrecognized runtime.Stack output")
	}

	id, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		panic("strand: unrecognized runtime.Stack output: " + err.Error())
	}
	return ID(id)
}

// Slot is a per-strand slot holding one value of type V per goroutine,
// created on first access via factory. It is the Go realization of a
// thread-local variable.
type Slot[V any] struct {
	mu      sync.Mutex
	values  map[ID]V
	factory func() V
}

// NewSlot creates a slot whose per-strand value is produced by factory the
// first time that strand accesses it.
func NewSlot[V any](factory func() V) *Slot[V] {
	return &Slot[V]{values: make(map[ID]V), factory: factory}
}

// Get returns the calling strand's value, creating it via factory if this
// is the strand's first access.
func (s *Slot[V]) Get() V {
	return s.GetFor(Current())
}

// GetFor returns the value bound to a specific strand id, creating it via
// factory if necessary. Get calls it with the calling strand's id.
func (s *Slot[V]) GetFor(id ID) V {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[id]
	if !ok {
		v = s.factory()
		s.values[id] = v
	}
	return v
}

// Bind installs v as the value for id, returning whatever was previously
// bound (and whether anything was) so the caller can later Unbind to
// restore it. This is how a completion handler firing on an unrelated
// goroutine temporarily takes over that goroutine's slot.
func (s *Slot[V]) Bind(id ID, v V) (previous V, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, existed = s.values[id]
	s.values[id] = v
	return previous, existed
}

// Unbind restores whatever Bind displaced, or removes the binding entirely
// if nothing existed before.
func (s *Slot[V]) Unbind(id ID, previous V, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existed {
		s.values[id] = previous
	} else {
		delete(s.values, id)
	}
}
