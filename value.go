package lightsync

import (
	"context"
	"sync"
)

// A Value is a mutable container for a single value of type T that can be
// concurrently accessed by multiple goroutines. A zero Value is ready for use,
// but must not be copied after its first use.
type Value[T any] struct {
	μ     sync.Mutex
	x     T
	ready chan struct{} // signal channel for Wait, created by the first waiter
}

// NewValue creates a new Value with the given initial value.
func NewValue[T any](init T) *Value[T] { return &Value[T]{x: init} }

// Set updates the value stored in v to newValue, and wakes every goroutine
// blocked in Wait.
func (v *Value[T]) Set(newValue T) {
	v.μ.Lock()
	defer v.μ.Unlock()
	v.x = newValue
	if v.ready != nil {
		close(v.ready)
		v.ready = nil
	}
}

// Get returns the current value stored in v.
func (v *Value[T]) Get() T {
	v.μ.Lock()
	defer v.μ.Unlock()
	return v.x
}

// Wait blocks until v.Set is called, or until ctx ends, and returns the
// current value in v. The flag reports whether Set was called (true) or ctx
// ended (false).
//
// If ctx ends first, Wait returns the value v held when Wait was called.
func (v *Value[T]) Wait(ctx context.Context) (T, bool) {
	v.μ.Lock()
	if v.ready == nil {
		v.ready = make(chan struct{})
	}
	old, ready := v.x, v.ready
	v.μ.Unlock()

	select {
	case <-ctx.Done():
		return old, false
	case <-ready:
		return v.Get(), true
	}
}
