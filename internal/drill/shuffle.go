package drill

import "math/rand"

// Grid is the shuffled arrangement of numbers shown to the athlete. Index is
// the cell position, value is the number printed in that cell.
type Grid []int

// Shuffler produces uniformly permuted grids.
// A Shuffler with an injected source is not safe for concurrent use.
type Shuffler struct {
	rng *rand.Rand
}

// NewShuffler returns a Shuffler drawing from rng. A nil rng uses the
// automatically seeded package source.
func NewShuffler(rng *rand.Rand) *Shuffler {
	return &Shuffler{rng: rng}
}

// Shuffle returns the integers [0, n) in uniformly random order.
// Each call starts from a fresh identity sequence.
func (s *Shuffler) Shuffle(n int) Grid {
	if n <= 0 {
		return Grid{}
	}

	nums := make(Grid, n)
	for i := range nums {
		nums[i] = i
	}

	for i := n - 1; i > 0; i-- {
		j := s.intn(i + 1)
		nums[i], nums[j] = nums[j], nums[i]
	}
	return nums
}

func (s *Shuffler) intn(n int) int {
	if s == nil || s.rng == nil {
		return rand.Intn(n)
	}
	return s.rng.Intn(n)
}

// Shuffle returns the integers [0, n) in uniformly random order using the
// package source.
func Shuffle(n int) Grid {
	return (*Shuffler)(nil).Shuffle(n)
}

// Clone returns a copy of the grid.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	copy(out, g)
	return out
}
