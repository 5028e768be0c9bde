package lightsync

import (
	"context"
	"errors"
	"sync"

	"github.com/creachadair/mds/queue"
)

// ErrClosed is the sentinel error reported by a handoff that is closed
// before a value could be delivered.
var ErrClosed = errors.New("handoff is closed")

// A Handoff is an unbounded first-in, first-out buffer that delivers values
// from any number of senders to any number of receivers. Each value sent is
// delivered to exactly one receiver, in the order the values were sent.
//
// Sending a value to the handoff does not block: The value is buffered until
// a receiver takes it. Receiving blocks until a value is available.
//
// A zero Handoff is ready for use, but must not be copied after first use.
type Handoff[T any] struct {
	// μ protects the fields below.
	μ      sync.Mutex
	items  *queue.Queue[T] // buffered values, oldest first
	waits  []chan struct{} // blocked receivers, oldest first
	closed bool
}

// NewHandoff constructs a new empty handoff.
func NewHandoff[T any]() *Handoff[T] { return &Handoff[T]{items: queue.New[T]()} }

func (h *Handoff[T]) queueLocked() *queue.Queue[T] {
	if h.items == nil {
		h.items = queue.New[T]()
	}
	return h.items
}

// Send buffers v for delivery and wakes at most one blocked receiver.  It
// reports whether v was buffered (true) or discarded because h is closed
// (false). Send does not block.
func (h *Handoff[T]) Send(v T) bool {
	h.μ.Lock()
	defer h.μ.Unlock()
	if h.closed {
		return false
	}
	h.queueLocked().Add(v)
	h.wakeLocked()
	return true
}

// wakeLocked releases the oldest blocked receiver, if any.
// The caller must hold h.μ.
func (h *Handoff[T]) wakeLocked() {
	if len(h.waits) == 0 {
		return
	}
	w := h.waits[0]
	h.waits[0] = nil
	h.waits = h.waits[1:]
	close(w)
}

// dropWaitLocked removes w from the set of blocked receivers, and reports
// whether it was found. The caller must hold h.μ.
func (h *Handoff[T]) dropWaitLocked(w chan struct{}) bool {
	for i, v := range h.waits {
		if v == w {
			h.waits = append(h.waits[:i], h.waits[i+1:]...)
			return true
		}
	}
	return false
}

// Recv removes and returns the oldest value buffered in h. If no value is
// available, Recv blocks until one is sent, h is closed, or ctx ends.
//
// If ctx ends first, Recv returns a zero value and the error from ctx.  If h
// is closed and no values remain, Recv returns a zero value and ErrClosed.
// Values buffered before Close remain available to Recv.
func (h *Handoff[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	h.μ.Lock()
	for {
		if v, ok := h.queueLocked().Pop(); ok {
			h.μ.Unlock()
			return v, nil
		} else if h.closed {
			h.μ.Unlock()
			return zero, ErrClosed
		} else if err := ctx.Err(); err != nil {
			h.μ.Unlock()
			return zero, err
		}

		ready := make(chan struct{})
		h.waits = append(h.waits, ready)
		h.μ.Unlock()

		select {
		case <-ctx.Done():
			h.μ.Lock()
			if !h.dropWaitLocked(ready) && h.queueLocked().Len() != 0 {
				// A sender woke us concurrently with ctx ending. Pass the
				// wakeup along so the value is not stranded.
				h.wakeLocked()
			}
			h.μ.Unlock()
			return zero, ctx.Err()
		case <-ready:
		}

		// N.B. Another receiver may take the value before we re-acquire the
		// lock. If so, we go back to waiting.
		h.μ.Lock()
	}
}

// TryRecv removes and returns the oldest value buffered in h, if one is
// available.  It reports false if h is empty. TryRecv does not block.
func (h *Handoff[T]) TryRecv() (T, bool) {
	h.μ.Lock()
	defer h.μ.Unlock()
	return h.queueLocked().Pop()
}

// Len reports the number of values currently buffered in h.
func (h *Handoff[T]) Len() int {
	h.μ.Lock()
	defer h.μ.Unlock()
	return h.queueLocked().Len()
}

// Close closes the handoff, which causes further sends to be discarded and
// wakes all blocked receivers. Values already buffered may still be received.
// If h is already closed, Close returns ErrClosed.
func (h *Handoff[T]) Close() error {
	h.μ.Lock()
	defer h.μ.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.closed = true
	for _, w := range h.waits {
		close(w)
	}
	h.waits = nil
	return nil
}
