package drill

import (
	"fmt"
	"time"
)

// Drill defaults.
const (
	DefaultGridSize = 100
	DefaultDuration = 120 // seconds
)

// Phase is the coarse drill lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseFinished
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*p = PhaseIdle
	case "running":
		*p = PhaseRunning
	case "finished":
		*p = PhaseFinished
	default:
		return fmt.Errorf("unknown drill phase %q", text)
	}
	return nil
}

// State is the mutable part of a drill.
type State struct {
	Phase            Phase `json:"phase"`
	Target           int   `json:"target"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

// Result is reported once per drill when it finishes.
type Result struct {
	Score      int       `json:"score"`
	Completed  bool      `json:"completed"` // all numbers found before time ran out
	FinishedAt time.Time `json:"finished_at"`
}

// ResultSink receives finished drills. Record must not block for long; it
// runs on the machine's goroutine and its failures are its own concern.
type ResultSink interface {
	Record(Result)
}

// SinkFunc adapts a function to ResultSink.
type SinkFunc func(Result)

// Record implements ResultSink.
func (f SinkFunc) Record(r Result) { f(r) }

// Snapshot is a consistent copy of a machine's grid and state.
type Snapshot struct {
	Grid  Grid
	State State
}

// Options configures a Machine.
type Options struct {
	GridSize int       // numbers on the grid; defaults to DefaultGridSize
	Duration int       // seconds on the clock; must be positive to start
	Clock    Clock     // defaults to RealClock
	Shuffler *Shuffler // defaults to the package source
	Sink     ResultSink
	Now      func() time.Time
}

// DefaultOptions returns options for the standard 100-number, two-minute drill.
func DefaultOptions() Options {
	return Options{
		GridSize: DefaultGridSize,
		Duration: DefaultDuration,
	}
}

type listener struct {
	id int
	fn func(Snapshot)
}

// Machine is the drill state machine. It is not safe for concurrent use;
// run it inside a Session, or drive it from a single goroutine.
type Machine struct {
	size     int
	duration int
	grid     Grid
	state    State
	timer    *Timer
	shuffler *Shuffler
	sink     ResultSink
	now      func() time.Time

	listeners []listener
	nextID    int
}

// NewMachine returns an idle machine with a freshly shuffled grid.
func NewMachine(opts Options) *Machine {
	if opts.GridSize <= 0 {
		opts.GridSize = DefaultGridSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Machine{
		size:     opts.GridSize,
		duration: opts.Duration,
		shuffler: opts.Shuffler,
		sink:     opts.Sink,
		now:      opts.Now,
	}
	m.timer = NewTimer(opts.Clock, opts.Duration, m.expire)
	m.grid = m.shuffler.Shuffle(m.size)
	m.state = State{Phase: PhaseIdle, RemainingSeconds: opts.Duration}
	return m
}

// Start moves Idle to Running with a fresh grid and a full clock.
// It is a no-op in any other phase.
func (m *Machine) Start() error {
	if m.state.Phase != PhaseIdle {
		return nil
	}

	m.timer.Reset(m.duration)
	if err := m.timer.Start(); err != nil {
		return fmt.Errorf("failed to start drill timer: %w", err)
	}

	m.grid = m.shuffler.Shuffle(m.size)
	m.state = State{
		Phase:            PhaseRunning,
		Target:           0,
		RemainingSeconds: m.timer.Remaining(),
	}
	m.publish()
	return nil
}

// Tap records a tap on number n. Only the current target is accepted;
// anything else, or any tap outside Running, is ignored.
// Returns whether the tap advanced the drill.
func (m *Machine) Tap(n int) bool {
	if m.state.Phase != PhaseRunning || n != m.state.Target {
		return false
	}

	m.state.Target++
	if m.state.Target >= m.size {
		m.finish(true)
		return true
	}
	m.publish()
	return true
}

// Tick applies one second from the timer channel.
func (m *Machine) Tick() {
	if m.state.Phase != PhaseRunning {
		return
	}
	m.timer.Advance()
	// expire has already published the finished state.
	if m.state.Phase != PhaseRunning {
		return
	}
	m.state.RemainingSeconds = m.timer.Remaining()
	m.publish()
}

// TickC returns the timer channel to select on, nil while the clock is stopped.
func (m *Machine) TickC() <-chan time.Time {
	return m.timer.C()
}

// Restart moves Finished back to Idle with a fresh grid, a zero target and a
// full clock. It is a no-op in any other phase.
func (m *Machine) Restart() {
	if m.state.Phase != PhaseFinished {
		return
	}

	m.timer.Reset(m.duration)
	m.grid = m.shuffler.Shuffle(m.size)
	m.state = State{
		Phase:            PhaseIdle,
		Target:           0,
		RemainingSeconds: m.timer.Remaining(),
	}
	m.publish()
}

// Teardown stops the clock without changing phase. After Teardown no tick or
// expiry is delivered.
func (m *Machine) Teardown() {
	m.timer.Stop()
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Grid returns a copy of the current grid.
func (m *Machine) Grid() Grid { return m.grid.Clone() }

// Size returns the number of cells, which is also the winning target.
func (m *Machine) Size() int { return m.size }

// Snapshot returns a copy of grid and state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{Grid: m.grid.Clone(), State: m.state}
}

// Subscribe registers fn to receive a snapshot after every change.
// Listeners run synchronously on the machine's goroutine. The returned
// function removes the listener.
func (m *Machine) Subscribe(fn func(Snapshot)) func() {
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})

	return func() {
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// expire is the timer's onExpire callback.
func (m *Machine) expire() {
	if m.state.Phase != PhaseRunning {
		return
	}
	m.state.RemainingSeconds = 0
	m.finish(false)
}

// finish enters Finished and reports the result exactly once.
func (m *Machine) finish(completed bool) {
	m.timer.Stop()
	m.state.Phase = PhaseFinished

	if m.sink != nil {
		m.sink.Record(Result{
			Score:      m.state.Target,
			Completed:  completed,
			FinishedAt: m.now(),
		})
	}
	m.publish()
}

func (m *Machine) publish() {
	if len(m.listeners) == 0 {
		return
	}
	snap := m.Snapshot()
	for _, l := range append([]listener(nil), m.listeners...) {
		l.fn(snap)
	}
}
