package tui

import (
	"bufio"
	"io"
)

// Key represents a keyboard input.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyCtrlC
	KeyCtrlD
	KeyRune // Regular character
)

// KeyEvent represents a key press event.
type KeyEvent struct {
	Key  Key
	Rune rune // Only valid when Key == KeyRune
}

// KeyReader reads keyboard input from a raw terminal.
type KeyReader struct {
	reader *bufio.Reader
}

// NewKeyReader creates a KeyReader from the given io.Reader.
// The reader should be a raw terminal input (e.g., os.Stdin after term.MakeRaw).
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{
		reader: bufio.NewReaderSize(r, 64),
	}
}

// ReadKey reads a single key event from the input.
// This method blocks until a key is pressed.
func (k *KeyReader) ReadKey() (KeyEvent, error) {
	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}

	switch b {
	case 0x03: // Ctrl+C
		return KeyEvent{Key: KeyCtrlC}, nil
	case 0x04: // Ctrl+D
		return KeyEvent{Key: KeyCtrlD}, nil
	case 0x0D, 0x0A: // Enter (CR in raw mode, LF when piped)
		return KeyEvent{Key: KeyEnter}, nil
	case 0x7F, 0x08: // Backspace (DEL or BS)
		return KeyEvent{Key: KeyBackspace}, nil
	case 0x1B:
		k.skipEscapeSequence()
		return KeyEvent{Key: KeyEscape}, nil
	default:
		if b >= 0x20 && b < 0x7F {
			return KeyEvent{Key: KeyRune, Rune: rune(b)}, nil
		}
		return KeyEvent{Key: KeyUnknown}, nil
	}
}

// skipEscapeSequence drops the rest of an already buffered CSI or SS3
// sequence (arrow keys and the like), which the drill has no use for.
func (k *KeyReader) skipEscapeSequence() {
	if k.reader.Buffered() == 0 {
		return
	}
	b, _ := k.reader.ReadByte()
	if b != '[' && b != 'O' {
		k.reader.UnreadByte()
		return
	}
	for k.reader.Buffered() > 0 {
		next, _ := k.reader.ReadByte()
		if (next >= 'A' && next <= 'Z') || (next >= 'a' && next <= 'z') || next == '~' {
			return
		}
	}
}

// Command is what a key asks the drill to do.
type Command int

const (
	CommandNone    Command = iota
	CommandDigit           // a digit of the number being typed
	CommandErase           // backspace
	CommandStart           // 's' or enter
	CommandRestart         // 'r'
	CommandQuit            // 'q', esc, ctrl+c or ctrl+d
)

// ParseCommand converts a KeyEvent to a Command.
func ParseCommand(ev KeyEvent) Command {
	switch ev.Key {
	case KeyEscape, KeyCtrlC, KeyCtrlD:
		return CommandQuit
	case KeyEnter:
		return CommandStart
	case KeyBackspace:
		return CommandErase
	case KeyRune:
		switch {
		case ev.Rune >= '0' && ev.Rune <= '9':
			return CommandDigit
		case ev.Rune == 's' || ev.Rune == 'S':
			return CommandStart
		case ev.Rune == 'r' || ev.Rune == 'R':
			return CommandRestart
		case ev.Rune == 'q' || ev.Rune == 'Q':
			return CommandQuit
		}
	}
	return CommandNone
}

// NumberEntry collects typed digits into grid numbers of a fixed width.
type NumberEntry struct {
	width  int
	digits []rune
}

// NewNumberEntry returns an entry that completes after width digits.
func NewNumberEntry(width int) *NumberEntry {
	if width < 1 {
		width = 1
	}
	return &NumberEntry{width: width, digits: make([]rune, 0, width)}
}

// Add appends a digit. When the entry is full it returns the number and
// clears itself.
func (e *NumberEntry) Add(r rune) (int, bool) {
	if r < '0' || r > '9' {
		return 0, false
	}
	e.digits = append(e.digits, r)
	if len(e.digits) < e.width {
		return 0, false
	}

	n := 0
	for _, d := range e.digits {
		n = n*10 + int(d-'0')
	}
	e.Clear()
	return n, true
}

// Erase removes the last digit.
func (e *NumberEntry) Erase() {
	if len(e.digits) > 0 {
		e.digits = e.digits[:len(e.digits)-1]
	}
}

// Clear drops any typed digits.
func (e *NumberEntry) Clear() {
	e.digits = e.digits[:0]
}

// Text returns the typed digits padded with underscores to the entry width.
func (e *NumberEntry) Text() string {
	buf := make([]rune, e.width)
	for i := range buf {
		buf[i] = '_'
	}
	copy(buf, e.digits)
	return string(buf)
}
