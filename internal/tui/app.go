package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bluejays/teamtrack/internal/drill"
	"github.com/bluejays/teamtrack/internal/logging"
)

// App runs a drill session against a terminal: keys become intents and
// every change is redrawn.
type App struct {
	session *drill.Session
	keys    *KeyReader
	out     io.Writer
	entry   *NumberEntry
	last    drill.View
}

// NewApp creates an App reading keys from in and drawing to out. in should be
// a raw terminal; out receives ANSI output with CRLF line endings.
func NewApp(session *drill.Session, in io.Reader, out io.Writer) *App {
	return &App{
		session: session,
		keys:    NewKeyReader(in),
		out:     out,
		entry:   NewNumberEntry(minCellWidth),
	}
}

type keyResult struct {
	ev  KeyEvent
	err error
}

// Run draws the drill and handles keys until the user quits, input ends or
// ctx is cancelled. The final state is drawn before Run returns.
func (a *App) Run(ctx context.Context) error {
	updates := make(chan drill.Snapshot, 1)
	snap, unsubscribe, err := a.session.Subscribe(ctx, func(s drill.Snapshot) {
		// Keep only the newest snapshot; redraws may lag the loop.
		select {
		case updates <- s:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to drill: %w", err)
	}
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)
	keys := make(chan keyResult)
	go a.readKeys(keys, done)

	fmt.Fprint(a.out, CursorHide)
	defer fmt.Fprint(a.out, CursorShow)

	a.last = drill.RenderSnapshot(snap)
	a.entry = NewNumberEntry(CellWidth(a.last.Cells))
	a.draw()

	for {
		select {
		case <-ctx.Done():
			a.drawFinal()
			return ctx.Err()
		case <-a.session.Done():
			return drill.ErrSessionClosed
		case s := <-updates:
			a.last = drill.RenderSnapshot(s)
			a.draw()
		case k := <-keys:
			if k.err != nil {
				a.drawFinal()
				if errors.Is(k.err, io.EOF) {
					return nil
				}
				return fmt.Errorf("failed to read key: %w", k.err)
			}
			quit, err := a.handle(ctx, k.ev)
			if err != nil {
				return err
			}
			if quit {
				a.drawFinal()
				return nil
			}
			a.draw()
		}
	}
}

func (a *App) readKeys(keys chan<- keyResult, done <-chan struct{}) {
	for {
		ev, err := a.keys.ReadKey()
		select {
		case keys <- keyResult{ev: ev, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// handle applies one key. It reports whether the user asked to quit.
func (a *App) handle(ctx context.Context, ev KeyEvent) (bool, error) {
	switch ParseCommand(ev) {
	case CommandQuit:
		return true, nil
	case CommandStart:
		a.entry.Clear()
		if err := a.session.Start(ctx); err != nil {
			return false, fmt.Errorf("failed to start drill: %w", err)
		}
	case CommandRestart:
		a.entry.Clear()
		if err := a.session.Restart(ctx); err != nil {
			return false, fmt.Errorf("failed to restart drill: %w", err)
		}
	case CommandErase:
		a.entry.Erase()
	case CommandDigit:
		n, ok := a.entry.Add(ev.Rune)
		if !ok {
			return false, nil
		}
		accepted, err := a.session.Tap(ctx, n)
		if err != nil {
			return false, fmt.Errorf("failed to tap: %w", err)
		}
		logging.Debug("tap", "number", n, "accepted", accepted)
	}
	return false, nil
}

// drawFinal redraws from a fresh view so the screen left behind shows the
// drill's actual end state, not the last queued update.
func (a *App) drawFinal() {
	if v, err := a.session.View(context.Background()); err == nil {
		a.last = v
	}
	a.draw()
}

func (a *App) draw() {
	lines := RenderDrill(a.last, a.entry.Text())
	fmt.Fprint(a.out, ClearScreen+CursorHome+strings.Join(lines, "\r\n")+"\r\n")
}
