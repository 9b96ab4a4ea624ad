package drill

import (
	"errors"
	"time"
)

// ErrInvalidDuration is returned by Start when the countdown is not positive.
var ErrInvalidDuration = errors.New("drill duration must be positive")

// tickInterval is one countdown unit.
const tickInterval = time.Second

// Timer counts down whole seconds. It does not run its own goroutine: the
// owner selects on C and calls Advance for every value received, so ticks
// are applied on the owner's goroutine. Whoever calls Start must make sure
// Stop runs on every exit path.
type Timer struct {
	clock     Clock
	total     int
	remaining int
	ticker    Ticker
	onExpire  func()
}

// NewTimer returns a stopped timer with total seconds on the clock.
// onExpire may be nil.
func NewTimer(clock Clock, total int, onExpire func()) *Timer {
	if clock == nil {
		clock = RealClock()
	}
	return &Timer{
		clock:     clock,
		total:     total,
		remaining: total,
		onExpire:  onExpire,
	}
}

// Start begins counting down. It is a no-op while already running or once
// the countdown has reached zero; call Reset to rearm.
func (t *Timer) Start() error {
	if t.total <= 0 {
		return ErrInvalidDuration
	}
	if t.ticker != nil || t.remaining <= 0 {
		return nil
	}
	t.ticker = t.clock.NewTicker(tickInterval)
	return nil
}

// Stop halts the countdown. It is idempotent.
func (t *Timer) Stop() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	t.ticker = nil
}

// Reset stops the timer and restores the full duration.
func (t *Timer) Reset(total int) {
	t.Stop()
	t.total = total
	t.remaining = total
}

// C returns the tick channel, or nil while stopped. A nil channel never
// becomes ready in a select, so a stopped timer cannot deliver a stale tick.
func (t *Timer) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C()
}

// Advance applies one elapsed second. When the count reaches zero the timer
// stops and onExpire runs, once. Advance on a stopped timer does nothing.
func (t *Timer) Advance() int {
	if t.ticker == nil {
		return t.remaining
	}

	t.remaining--
	if t.remaining <= 0 {
		t.remaining = 0
		t.Stop()
		if t.onExpire != nil {
			t.onExpire()
		}
	}
	return t.remaining
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int { return t.remaining }

// Total returns the configured duration in seconds.
func (t *Timer) Total() int { return t.total }

// Running reports whether the countdown is active.
func (t *Timer) Running() bool { return t.ticker != nil }
