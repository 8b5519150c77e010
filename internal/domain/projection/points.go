package projection

import "fmt"

// maxScoringRank is the last finishing position that can score.
const maxScoringRank = 10

// PointsTable holds the points awarded per finishing rank, rank 1 first.
type PointsTable []int

// DefaultPointsTable is the current Formula 1 allocation for the top ten.
func DefaultPointsTable() PointsTable {
	return PointsTable{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}
}

// Points returns the points for a 1-based rank. Ranks outside the table score 0.
func (t PointsTable) Points(rank int) int {
	if rank < 1 || rank > maxScoringRank || rank > len(t) {
		return 0
	}
	return t[rank-1]
}

// Validate checks the table has 1 to 10 non-negative, strictly decreasing entries.
func (t PointsTable) Validate() error {
	if len(t) == 0 || len(t) > maxScoringRank {
		return fmt.Errorf("%w: need 1..%d entries, got %d", ErrInvalidPointsTable, maxScoringRank, len(t))
	}
	for i, p := range t {
		if p < 0 {
			return fmt.Errorf("%w: rank %d has negative points %d", ErrInvalidPointsTable, i+1, p)
		}
		if i > 0 && p >= t[i-1] {
			return fmt.Errorf("%w: rank %d (%d) not below rank %d (%d)", ErrInvalidPointsTable, i+1, p, i, t[i-1])
		}
	}
	return nil
}
