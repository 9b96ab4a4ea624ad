package tui

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyReader_ReadKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  KeyEvent
	}{
		{"digit", []byte{'7'}, KeyEvent{Key: KeyRune, Rune: '7'}},
		{"letter", []byte{'s'}, KeyEvent{Key: KeyRune, Rune: 's'}},
		{"ctrl+c", []byte{0x03}, KeyEvent{Key: KeyCtrlC}},
		{"ctrl+d", []byte{0x04}, KeyEvent{Key: KeyCtrlD}},
		{"enter CR", []byte{0x0D}, KeyEvent{Key: KeyEnter}},
		{"enter LF", []byte{0x0A}, KeyEvent{Key: KeyEnter}},
		{"backspace DEL", []byte{0x7F}, KeyEvent{Key: KeyBackspace}},
		{"backspace BS", []byte{0x08}, KeyEvent{Key: KeyBackspace}},
		{"lone escape", []byte{0x1B}, KeyEvent{Key: KeyEscape}},
		{"non-printable", []byte{0x01}, KeyEvent{Key: KeyUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewKeyReader(bytes.NewReader(tt.input)).ReadKey()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyReader_SkipsEscapeSequence(t *testing.T) {
	t.Parallel()

	// Up arrow followed by a digit.
	reader := NewKeyReader(bytes.NewReader([]byte{0x1B, '[', 'A', '4'}))

	ev, err := reader.ReadKey()
	require.NoError(t, err)
	assert.Equal(t, KeyEscape, ev.Key)

	ev, err = reader.ReadKey()
	require.NoError(t, err)
	assert.Equal(t, KeyEvent{Key: KeyRune, Rune: '4'}, ev)
}

func TestKeyReader_EOF(t *testing.T) {
	t.Parallel()

	_, err := NewKeyReader(bytes.NewReader(nil)).ReadKey()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ev   KeyEvent
		want Command
	}{
		{KeyEvent{Key: KeyRune, Rune: '0'}, CommandDigit},
		{KeyEvent{Key: KeyRune, Rune: '9'}, CommandDigit},
		{KeyEvent{Key: KeyRune, Rune: 's'}, CommandStart},
		{KeyEvent{Key: KeyEnter}, CommandStart},
		{KeyEvent{Key: KeyRune, Rune: 'R'}, CommandRestart},
		{KeyEvent{Key: KeyRune, Rune: 'q'}, CommandQuit},
		{KeyEvent{Key: KeyEscape}, CommandQuit},
		{KeyEvent{Key: KeyCtrlC}, CommandQuit},
		{KeyEvent{Key: KeyBackspace}, CommandErase},
		{KeyEvent{Key: KeyRune, Rune: 'x'}, CommandNone},
		{KeyEvent{Key: KeyUnknown}, CommandNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCommand(tt.ev), "event %+v", tt.ev)
	}
}

func TestNumberEntry(t *testing.T) {
	t.Parallel()

	e := NewNumberEntry(2)
	assert.Equal(t, "__", e.Text())

	_, ok := e.Add('4')
	assert.False(t, ok)
	assert.Equal(t, "4_", e.Text())

	n, ok := e.Add('2')
	require.True(t, ok)
	assert.Equal(t, 42, n)
	assert.Equal(t, "__", e.Text(), "entry clears once complete")

	e.Add('0')
	e.Erase()
	assert.Equal(t, "__", e.Text())
	e.Erase()

	_, ok = e.Add('x')
	assert.False(t, ok)

	e.Add('0')
	n, ok = e.Add('7')
	require.True(t, ok)
	assert.Equal(t, 7, n)
}
