package lightsync

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/creachadair/lightsync/tasks"
)

// ErrStopped is reported by WaitFor when the cycler stops before the awaited
// phase is delivered.
var ErrStopped = errors.New("cycler is stopped")

// DefaultPoll is the polling interval used when CyclerOptions.Poll is zero.
const DefaultPoll = 50 * time.Millisecond

// DefaultIntervals are the toggle intervals used when CyclerOptions.Intervals
// is empty.
var DefaultIntervals = []time.Duration{4 * time.Second, 5 * time.Second, 6 * time.Second}

// CyclerOptions are settings for a Cycler. A nil *CyclerOptions is ready for
// use and provides default values as described.
type CyclerOptions struct {
	// How often the cycler checks whether it is time to toggle.
	// If zero, DefaultPoll is used.
	Poll time.Duration

	// The durations between toggles. Before each toggle the cycler chooses
	// one of these uniformly at random. If empty, DefaultIntervals is used.
	// Each interval must be positive.
	Intervals []time.Duration

	// The phase the cycler begins in, Red or Green. The default is Red.
	Initial Phase

	// If set, Rand is called to choose an index in [0, n) among the
	// intervals. If nil, rand.IntN is used.
	Rand func(n int) int

	// If set, Logf is called to log each toggle and the end of the cycle.
	Logf func(msg string, args ...any)
}

func (o *CyclerOptions) poll() time.Duration {
	if o == nil || o.Poll <= 0 {
		return DefaultPoll
	}
	return o.Poll
}

func (o *CyclerOptions) intervals() []time.Duration {
	if o == nil || len(o.Intervals) == 0 {
		return slices.Clone(DefaultIntervals)
	}
	return slices.Clone(o.Intervals)
}

func (o *CyclerOptions) initial() Phase {
	if o == nil {
		return Red
	}
	return o.Initial
}

func (o *CyclerOptions) rand() func(int) int {
	if o == nil || o.Rand == nil {
		return rand.IntN
	}
	return o.Rand
}

func (o *CyclerOptions) logf() func(string, ...any) {
	if o == nil || o.Logf == nil {
		return func(string, ...any) {}
	}
	return o.Logf
}

// A Cycler is a traffic light that alternates between Red and Green. Once
// started, it toggles its phase after an interval chosen at random, and
// publishes each new phase to a Handoff from which waiters receive it.
//
// Each published phase is delivered to exactly one receiver: Concurrent
// callers of WaitFor and Next share the stream of toggles rather than each
// observing all of them. Use Watch to observe toggles without consuming them.
type Cycler struct {
	poll      time.Duration   // read-only after initialization
	intervals []time.Duration // read-only after initialization
	intn      func(int) int
	logf      func(string, ...any)

	queue   *Handoff[Phase]
	phase   *Value[Phase] // written only by the toggle loop
	toggles atomic.Int64
	started atomic.Bool
}

// NewCycler constructs a new Cycler with the given options. The cycler does
// not toggle until it is started with Start or Run.
//
// NewCycler panics if opts.Initial is not Red or Green, or if any of
// opts.Intervals is not positive.
func NewCycler(opts *CyclerOptions) *Cycler {
	first := opts.initial()
	if !first.Valid() {
		panic(fmt.Sprintf("lightsync: invalid initial phase %v", first))
	}
	ivs := opts.intervals()
	for _, d := range ivs {
		if d <= 0 {
			panic(fmt.Sprintf("lightsync: invalid toggle interval %v", d))
		}
	}
	return &Cycler{
		poll:      opts.poll(),
		intervals: ivs,
		intn:      opts.rand(),
		logf:      opts.logf(),
		queue:     NewHandoff[Phase](),
		phase:     NewValue(first),
	}
}

// Current returns the most recently committed phase of c. The phase may
// change at any time after Current returns.
func (c *Cycler) Current() Phase { return c.phase.Get() }

// Toggles reports the number of times c has changed phase.
func (c *Cycler) Toggles() int { return int(c.toggles.Load()) }

// Watch blocks until c changes phase, or until ctx ends, and returns the
// current phase. The flag reports whether a change occurred (true) or ctx
// ended (false). Unlike Next, Watch does not consume the published phase,
// so every concurrent watcher observes the same change.
func (c *Cycler) Watch(ctx context.Context) (Phase, bool) { return c.phase.Wait(ctx) }

// Start begins toggling c in a task owned by g, and returns immediately. The
// cycler runs until the context governing g ends. Start panics if c has
// already been started.
func (c *Cycler) Start(g *tasks.Group) {
	c.claim()
	g.Go(c.run)
}

// Run toggles c until ctx ends, then returns nil. Run panics if c has already
// been started. When Run returns, any goroutines blocked in WaitFor or Next
// are released.
func (c *Cycler) Run(ctx context.Context) error {
	c.claim()
	return c.run(ctx)
}

func (c *Cycler) claim() {
	if !c.started.CompareAndSwap(false, true) {
		panic("lightsync: cycler already started")
	}
}

func (c *Cycler) run(ctx context.Context) error {
	defer c.queue.Close()

	tick := time.NewTicker(c.poll)
	defer tick.Stop()

	wait := c.nextInterval()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			c.logf("cycler stopped after %d toggles: %v", c.Toggles(), ctx.Err())
			return nil
		case now := <-tick.C:
			if now.Sub(last) < wait {
				continue
			}
			p := c.toggle()
			c.queue.Send(p)
			c.logf("phase %v after %v", p, now.Sub(last).Round(time.Millisecond))

			wait = c.nextInterval()
			last = time.Now()
		}
	}
}

// toggle flips the current phase and returns the new value.
// Only the toggle loop calls this, so the read and write need not be atomic.
func (c *Cycler) toggle() Phase {
	p := c.phase.Get().Next()
	c.toggles.Add(1)
	c.phase.Set(p)
	return p
}

func (c *Cycler) nextInterval() time.Duration {
	return c.intervals[c.intn(len(c.intervals))]
}

// Next blocks until c publishes a phase change, or ctx ends, and returns the
// new phase. If c stops first, Next reports ErrStopped.
func (c *Cycler) Next(ctx context.Context) (Phase, error) {
	p, err := c.queue.Recv(ctx)
	if errors.Is(err, ErrClosed) {
		return p, ErrStopped
	}
	return p, err
}

// WaitFor blocks until c publishes a change to the target phase, discarding
// any other phase changes it receives in the meantime. It returns nil as soon
// as target is received.
//
// If ctx ends first, WaitFor returns the error from ctx. If c stops first,
// WaitFor reports ErrStopped.
func (c *Cycler) WaitFor(ctx context.Context, target Phase) error {
	for {
		p, err := c.Next(ctx)
		if err != nil {
			return err
		} else if p == target {
			return nil
		}
	}
}

// WaitForGreen is shorthand for c.WaitFor(ctx, Green).
func (c *Cycler) WaitForGreen(ctx context.Context) error { return c.WaitFor(ctx, Green) }
