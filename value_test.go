package lightsync_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/creachadair/lightsync"
	"github.com/fortytw2/leaktest"
)

func TestValue_Zero(t *testing.T) {
	var v lightsync.Value[lightsync.Phase]

	if got := v.Get(); got != lightsync.Red {
		t.Errorf("Get from zero Value: got %v, want red", got)
	}
	v.Set(lightsync.Green)
	if got := v.Get(); got != lightsync.Green {
		t.Errorf("Get: got %v, want green", got)
	}
}

func TestValue_Wait(t *testing.T) {
	defer leaktest.Check(t)()

	v := lightsync.NewValue("red")

	t.Run("Broadcast", func(t *testing.T) {
		// A single Set wakes every goroutine waiting at the time.
		const numWaiters = 5
		got := make([]string, numWaiters)
		var wg sync.WaitGroup
		for i := range numWaiters {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				s, ok := v.Wait(ctx)
				if !ok {
					t.Errorf("Waiter %d: timed out", i+1)
				}
				got[i] = s
			}()
		}

		time.Sleep(20 * time.Millisecond)
		v.Set("green")
		wg.Wait()

		for i, s := range got {
			if s != "green" {
				t.Errorf("Waiter %d: got %q, want green", i+1, s)
			}
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		// With no Set, Wait reports the value it started with.
		if s, ok := v.Wait(ctx); ok || s != "green" {
			t.Errorf("Wait: got %q, %v; want green, false", s, ok)
		}
	})

	t.Run("GiveUp", func(t *testing.T) {
		// A waiter that gave up does not stall later updates.
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		v.Wait(ctx)

		done := make(chan struct{})
		go func() { v.Set("red"); close(done) }()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Timed out waiting for Set")
		}
		if s := v.Get(); s != "red" {
			t.Errorf("Get: got %q, want red", s)
		}
	})
}
