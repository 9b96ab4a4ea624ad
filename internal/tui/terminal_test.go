package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorTo(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "\033[1;1H", CursorTo(1, 1))
	assert.Equal(t, "\033[5;10H", CursorTo(5, 10))
}

func TestTerminal_ExitRawWhenNotRaw(t *testing.T) {
	t.Parallel()

	term := NewTerminal(nil)
	assert.False(t, term.IsRaw())
	assert.NoError(t, term.ExitRaw())
}
