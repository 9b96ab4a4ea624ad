package drill

import (
	"sync"
	"time"
)

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers. It lets tests replace the wall clock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// RealClock returns a Clock backed by time.Ticker.
func RealClock() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// ManualClock is a Clock whose tickers only fire when Tick is called.
// It is used by tests and by tools that replay drills.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManualClock returns a ManualClock starting at now.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// NewTicker implements Clock.
func (c *ManualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTicker{
		interval: d,
		ch:       make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Tick advances the clock by one interval of each live ticker and delivers
// the tick. It blocks until every live ticker has either received the tick
// or been stopped. Returns the number of tickers that received it.
func (c *ManualClock) Tick() int {
	live := c.live()

	delivered := 0
	for _, t := range live {
		c.mu.Lock()
		c.now = c.now.Add(t.interval)
		now := c.now
		c.mu.Unlock()

		select {
		case t.ch <- now:
			delivered++
		case <-t.stopped:
		}
	}
	return delivered
}

// Active returns the number of tickers that have not been stopped.
func (c *ManualClock) Active() int {
	return len(c.live())
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// live prunes stopped tickers and returns the rest.
func (c *ManualClock) live() []*manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.tickers[:0]
	for _, t := range c.tickers {
		select {
		case <-t.stopped:
		default:
			kept = append(kept, t)
		}
	}
	c.tickers = kept

	out := make([]*manualTicker, len(kept))
	copy(out, kept)
	return out
}

type manualTicker struct {
	interval time.Duration
	ch       chan time.Time
	stopped  chan struct{}
	once     sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}
