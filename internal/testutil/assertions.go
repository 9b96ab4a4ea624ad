package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bluejays/teamtrack/internal/drill"
)

// AssertPermutation checks that grid holds each of 0..n-1 exactly once.
func AssertPermutation(t *testing.T, grid drill.Grid, n int) {
	t.Helper()

	if !assert.Len(t, grid, n) {
		return
	}
	seen := make([]bool, n)
	for i, v := range grid {
		if !assert.True(t, v >= 0 && v < n, "cell %d out of range: %d", i, v) {
			return
		}
		assert.False(t, seen[v], "duplicate value %d", v)
		seen[v] = true
	}
}

// AssertCellCounts checks how many cells of v are in each state.
func AssertCellCounts(t *testing.T, v drill.View, found, current, pending int) {
	t.Helper()

	counts := map[drill.CellState]int{}
	for _, c := range v.Cells {
		counts[c.State]++
	}
	assert.Equal(t, found, counts[drill.CellFound], "found cells")
	assert.Equal(t, current, counts[drill.CellCurrent], "current cells")
	assert.Equal(t, pending, counts[drill.CellPending], "pending cells")
}

// AssertScore checks that v is a finished view with the given score.
func AssertScore(t *testing.T, v drill.View, score int) {
	t.Helper()

	assert.Equal(t, drill.PhaseFinished, v.Phase)
	if assert.NotNil(t, v.Score, "finished view should carry a score") {
		assert.Equal(t, score, *v.Score)
	}
}
