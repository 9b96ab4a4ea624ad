package tui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Terminal handles raw terminal mode and provides ANSI escape helpers.
type Terminal struct {
	in       *os.File
	out      io.Writer
	oldState *term.State
	isRaw    bool
}

// NewTerminal creates a Terminal that reads from stdin and writes to the given writer.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		in:  os.Stdin,
		out: out,
	}
}

// IsTerminal reports whether stdin is an interactive terminal.
func (t *Terminal) IsTerminal() bool {
	return term.IsTerminal(int(t.in.Fd()))
}

// EnterRaw puts the terminal into raw mode.
// Returns an error if already in raw mode or if the operation fails.
func (t *Terminal) EnterRaw() error {
	if t.isRaw {
		return fmt.Errorf("terminal already in raw mode")
	}

	oldState, err := term.MakeRaw(int(t.in.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}

	t.oldState = oldState
	t.isRaw = true
	return nil
}

// ExitRaw restores the terminal to its original state.
// Safe to call even if not in raw mode.
func (t *Terminal) ExitRaw() error {
	if !t.isRaw || t.oldState == nil {
		return nil
	}

	if err := term.Restore(int(t.in.Fd()), t.oldState); err != nil {
		return fmt.Errorf("failed to restore terminal: %w", err)
	}

	t.isRaw = false
	t.oldState = nil
	return nil
}

// IsRaw returns true if the terminal is in raw mode.
func (t *Terminal) IsRaw() bool {
	return t.isRaw
}

// Input returns the terminal's input file.
func (t *Terminal) Input() *os.File {
	return t.in
}

// ANSI escape sequences
const (
	ClearScreen = "\033[2J"
	CursorHome  = "\033[H"
	CursorHide  = "\033[?25l"
	CursorShow  = "\033[?25h"

	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	FgRed         = "\033[31m"
	FgGreen       = "\033[32m"
	FgYellow      = "\033[33m"
	FgCyan        = "\033[36m"
	FgBrightGreen = "\033[92m"

	Bell = "\a"
)

// CursorTo returns an ANSI escape sequence to move the cursor to (row, col).
// Row and column are 1-indexed.
func CursorTo(row, col int) string {
	return fmt.Sprintf("\033[%d;%dH", row, col)
}
