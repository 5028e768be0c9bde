package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creachadair/lightsync/tasks"
	"github.com/fortytw2/leaktest"
)

func TestGroup_Stop(t *testing.T) {
	defer leaktest.Check(t)()

	g := tasks.New(context.Background())

	const numTasks = 5
	var running, exited atomic.Int32
	for range numTasks {
		g.Go(func(ctx context.Context) error {
			running.Add(1)
			defer exited.Add(1)
			<-ctx.Done()
			return nil
		})
	}
	if n := g.Len(); n != numTasks {
		t.Errorf("Len: got %d, want %d", n, numTasks)
	}

	// Wait for the tasks to start, so we know Stop is what ended them.
	for running.Load() != numTasks {
		time.Sleep(time.Millisecond)
	}
	if err := g.Stop(); err != nil {
		t.Errorf("Stop: unexpected error: %v", err)
	}
	if n := exited.Load(); n != numTasks {
		t.Errorf("After Stop: %d tasks exited, want %d", n, numTasks)
	}
}

func TestGroup_Wait(t *testing.T) {
	defer leaktest.Check(t)()

	g := tasks.New(context.Background())
	var count atomic.Int32
	for range 3 {
		g.Go(func(context.Context) error {
			count.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Errorf("Wait: unexpected error: %v", err)
	}
	if n := count.Load(); n != 3 {
		t.Errorf("Tasks run: got %d, want 3", n)
	}
}

func TestGroup_Error(t *testing.T) {
	defer leaktest.Check(t)()

	bad := errors.New("bad")
	g := tasks.New(context.Background())

	// A failing task cancels its peers.
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.Go(func(context.Context) error { return bad })

	if err := g.Wait(); !errors.Is(err, bad) {
		t.Errorf("Wait: got %v, want %v", err, bad)
	}
}

func TestGroup_Parent(t *testing.T) {
	defer leaktest.Check(t)()

	ctx, cancel := context.WithCancel(context.Background())
	g := tasks.New(ctx)
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	// Ending the parent context ends the tasks too.
	cancel()
	if err := g.Wait(); err != nil {
		t.Errorf("Wait: unexpected error: %v", err)
	}
}
