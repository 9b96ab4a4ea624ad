package drill

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionClosed is returned by Session methods after Close.
var ErrSessionClosed = errors.New("drill session closed")

type command struct {
	fn   func(*Machine)
	done chan struct{}
}

// Session owns a Machine and applies intents and timer ticks on a single
// goroutine, one at a time. Listeners registered through Subscribe run on
// that goroutine and must not call back into the Session.
type Session struct {
	machine *Machine
	cmds    chan command
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// NewSession starts the event loop for m. Call Close to release it.
func NewSession(m *Machine) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		machine: m,
		cmds:    make(chan command),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.machine.Teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.cmds:
			cmd.fn(s.machine)
			close(cmd.done)
		case <-s.machine.TickC():
			s.machine.Tick()
		}
	}
}

// do runs fn on the loop and waits for it to complete.
func (s *Session) do(ctx context.Context, fn func(*Machine)) error {
	cmd := command{fn: fn, done: make(chan struct{})}

	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// Once dispatched, fn runs to completion before the loop looks at
	// anything else, so only wait for it.
	<-cmd.done
	return nil
}

// Start starts the drill.
func (s *Session) Start(ctx context.Context) error {
	var err error
	if doErr := s.do(ctx, func(m *Machine) { err = m.Start() }); doErr != nil {
		return doErr
	}
	return err
}

// Tap taps number n and reports whether it advanced the drill.
func (s *Session) Tap(ctx context.Context, n int) (bool, error) {
	var ok bool
	if err := s.do(ctx, func(m *Machine) { ok = m.Tap(n) }); err != nil {
		return false, err
	}
	return ok, nil
}

// Restart returns a finished drill to Idle.
func (s *Session) Restart(ctx context.Context) error {
	return s.do(ctx, func(m *Machine) { m.Restart() })
}

// Snapshot returns the current grid and state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := s.do(ctx, func(m *Machine) { snap = m.Snapshot() }); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// View renders the current state.
func (s *Session) View(ctx context.Context) (View, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return View{}, err
	}
	return RenderSnapshot(snap), nil
}

// Subscribe registers fn for change notifications and returns the current
// snapshot taken atomically with registration. The returned function
// unregisters fn; it is safe to call after Close.
func (s *Session) Subscribe(ctx context.Context, fn func(Snapshot)) (Snapshot, func(), error) {
	var (
		snap  Snapshot
		unsub func()
	)
	err := s.do(ctx, func(m *Machine) {
		unsub = m.Subscribe(fn)
		snap = m.Snapshot()
	})
	if err != nil {
		return Snapshot{}, nil, err
	}

	cancel := func() {
		_ = s.do(context.Background(), func(*Machine) { unsub() })
	}
	return snap, cancel, nil
}

// Close stops the timer and the event loop. No tick or expiry is delivered
// after Close returns. It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed when the event loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
