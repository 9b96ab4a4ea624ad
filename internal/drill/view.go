package drill

import "fmt"

// GridColumns is the number of cells per rendered row.
const GridColumns = 10

// urgentSeconds is the threshold below which the clock is shown as urgent.
const urgentSeconds = 10

// CellState is the visual state of one grid cell.
type CellState string

const (
	CellFound   CellState = "found"   // number already found
	CellCurrent CellState = "current" // the number to find next
	CellPending CellState = "pending" // not reached yet
)

// Cell is one rendered grid cell.
type Cell struct {
	Number int       `json:"number"`
	Label  string    `json:"label"`
	State  CellState `json:"state"`
}

// View is the renderable projection of a drill.
type View struct {
	Phase            Phase  `json:"phase"`
	Target           int    `json:"target"`
	TargetLabel      string `json:"target_label"`
	Clock            string `json:"clock"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Urgent           bool   `json:"urgent"`
	Columns          int    `json:"columns"`
	Cells            []Cell `json:"cells"`
	Score            *int   `json:"score,omitempty"`
}

// Render projects grid and state into a View. It keeps no state of its own.
func Render(grid Grid, st State) View {
	cells := make([]Cell, len(grid))
	for i, n := range grid {
		cells[i] = Cell{
			Number: n,
			Label:  Label(n),
			State:  cellState(n, st.Target),
		}
	}

	v := View{
		Phase:            st.Phase,
		Target:           st.Target,
		TargetLabel:      Label(st.Target),
		Clock:            FormatClock(st.RemainingSeconds),
		RemainingSeconds: st.RemainingSeconds,
		Urgent:           st.Phase == PhaseRunning && st.RemainingSeconds < urgentSeconds,
		Columns:          GridColumns,
		Cells:            cells,
	}
	if st.Phase == PhaseFinished {
		score := st.Target
		v.Score = &score
	}
	return v
}

// RenderSnapshot is Render for a Snapshot.
func RenderSnapshot(s Snapshot) View {
	return Render(s.Grid, s.State)
}

func cellState(n, target int) CellState {
	switch {
	case n < target:
		return CellFound
	case n == target:
		return CellCurrent
	default:
		return CellPending
	}
}

// Label formats a grid number with two digits.
func Label(n int) string {
	return fmt.Sprintf("%02d", n)
}

// FormatClock formats seconds as m:ss. Negative input is shown as 0:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
