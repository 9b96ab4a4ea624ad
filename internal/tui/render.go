package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bluejays/teamtrack/internal/drill"
)

// Box drawing characters (Unicode)
const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
)

// minCellWidth is the visible width of a two-digit label.
const minCellWidth = 2

// CellWidth returns the widest label among cells, at least two.
func CellWidth(cells []drill.Cell) int {
	width := minCellWidth
	for _, c := range cells {
		width = max(width, utf8.RuneCountInString(c.Label))
	}
	return width
}

// PadOrTruncate pads or truncates a string to exactly width characters.
// Uses visual width (rune count) for proper Unicode handling.
func PadOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runeLen := utf8.RuneCountInString(s)
	if runeLen == width {
		return s
	}
	if runeLen < width {
		return s + strings.Repeat(" ", width-runeLen)
	}

	runes := []rune(s)
	if width >= 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}

// Style applies ANSI style codes to text.
func Style(s string, codes ...string) string {
	if len(codes) == 0 {
		return s
	}
	return strings.Join(codes, "") + s + Reset
}

// GridWidth returns the visible width of a rendered grid with the given
// number of columns, borders included.
func GridWidth(columns, cellWidth int) int {
	if columns < 1 {
		columns = 1
	}
	// "│ " + cells separated by spaces + " │"
	return 4 + columns*cellWidth + (columns - 1)
}

// RenderGrid draws the cells in a box, columns per row. Found cells are
// dimmed; the target is not highlighted, finding it is the drill.
func RenderGrid(cells []drill.Cell, columns int) []string {
	if columns < 1 {
		columns = 1
	}
	cellWidth := CellWidth(cells)
	width := GridWidth(columns, cellWidth)
	lines := []string{BoxTopLeft + strings.Repeat(BoxHorizontal, width-2) + BoxTopRight}

	for start := 0; start < len(cells); start += columns {
		end := min(start+columns, len(cells))
		parts := make([]string, 0, columns)
		for _, c := range cells[start:end] {
			label := fmt.Sprintf("%*s", cellWidth, c.Label)
			if c.State == drill.CellFound {
				label = Style(label, Dim, FgGreen)
			}
			parts = append(parts, label)
		}
		// Pad a short last row so the right border lines up.
		for i := end - start; i < columns; i++ {
			parts = append(parts, strings.Repeat(" ", cellWidth))
		}
		lines = append(lines, BoxVertical+" "+strings.Join(parts, " ")+" "+BoxVertical)
	}

	lines = append(lines, BoxBottomLeft+strings.Repeat(BoxHorizontal, width-2)+BoxBottomRight)
	return lines
}

// RenderDrill draws the whole drill screen for v. entry is the number being
// typed, shown while the drill runs.
func RenderDrill(v drill.View, entry string) []string {
	width := GridWidth(v.Columns, CellWidth(v.Cells))

	const title = "FOCUS GRID"
	clock := v.Clock
	head := PadOrTruncate(title, max(width-utf8.RuneCountInString(clock), len(title)+1))
	if v.Urgent {
		clock = Style(clock, Bold, FgRed)
	}
	lines := []string{Style(head, Bold) + clock}

	switch v.Phase {
	case drill.PhaseRunning:
		lines = append(lines, "Find: "+Style(v.TargetLabel, Bold, FgCyan))
	default:
		lines = append(lines, "")
	}

	lines = append(lines, RenderGrid(v.Cells, v.Columns)...)

	switch v.Phase {
	case drill.PhaseIdle:
		lines = append(lines, "Press s to start, q to quit.")
	case drill.PhaseRunning:
		lines = append(lines, "Type the number: "+entry)
	case drill.PhaseFinished:
		score := v.Target
		if v.Score != nil {
			score = *v.Score
		}
		if score == len(v.Cells) {
			lines = append(lines, Style(fmt.Sprintf("Complete! Score: %d", score), Bold, FgBrightGreen))
		} else {
			lines = append(lines, Style(fmt.Sprintf("Time! Score: %d", score), Bold, FgYellow))
		}
		lines = append(lines, "Press r for a new grid, q to quit.")
	}
	return lines
}
