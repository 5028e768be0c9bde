// Package tasks manages a group of goroutines that share a lifetime.
//
// A Group owns the tasks it starts: Each task receives a context that ends
// when the group is stopped, and Stop does not return until every task has
// exited.
package tasks

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// A Task is a function that runs until its work is done or ctx ends.
type Task func(ctx context.Context) error

// A Group is a collection of cancellable tasks. The first task to report a
// non-nil error cancels the others.
type Group struct {
	ctx    context.Context // governs all tasks in the group
	cancel context.CancelFunc
	eg     *errgroup.Group
	n      atomic.Int64 // number of tasks started
}

// New constructs a new empty group whose tasks are governed by a context
// derived from ctx.
func New(ctx context.Context) *Group {
	ctx, cancel := context.WithCancel(ctx)
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{ctx: ctx, cancel: cancel, eg: eg}
}

// Go starts task in a new goroutine owned by g.
func (g *Group) Go(task Task) {
	g.n.Add(1)
	g.eg.Go(func() error { return task(g.ctx) })
}

// Len reports the number of tasks that have been started in g.
func (g *Group) Len() int { return int(g.n.Load()) }

// Wait blocks until all the tasks in g have exited, and returns the first
// non-nil error reported by any of them.
func (g *Group) Wait() error {
	defer g.cancel()
	return g.eg.Wait()
}

// Stop cancels the context governing the tasks in g, then waits for them to
// exit as Wait does.
func (g *Group) Stop() error {
	g.cancel()
	return g.eg.Wait()
}
