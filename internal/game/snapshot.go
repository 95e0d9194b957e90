package game

import "fmt"

// StateType represents the controller's lifecycle state.
type StateType string

const (
	StateUninitialized StateType = "uninitialized"
	StatePlaying       StateType = "playing"
	StateGameOver      StateType = "game_over"
)

// MaxTileValue is the largest tile a restored snapshot may hold. Merging two
// of them cannot overflow int.
const MaxTileValue = 1 << 30

// Snapshot is the persisted form of a game session. The merge mask is
// per-move scratch state and is never part of it.
type Snapshot struct {
	Grid      [][]int `json:"grid"`
	Score     int     `json:"score"`
	BestScore int     `json:"bestScore"`
}

// Validate checks that the snapshot describes a playable rows x cols session.
// Failures wrap ErrCorruptSnapshot.
func (s Snapshot) Validate(rows, cols int) error {
	if len(s.Grid) != rows {
		return fmt.Errorf("%w: %d rows, want %d", ErrCorruptSnapshot, len(s.Grid), rows)
	}
	for r, row := range s.Grid {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrCorruptSnapshot, r, len(row), cols)
		}
		for c, v := range row {
			if v != 0 && (!isPowerOfTwo(v) || v > MaxTileValue) {
				return fmt.Errorf("%w: cell (%d, %d) holds %d", ErrCorruptSnapshot, r, c, v)
			}
		}
	}
	if s.Score < 0 {
		return fmt.Errorf("%w: negative score %d", ErrCorruptSnapshot, s.Score)
	}
	if s.BestScore < 0 {
		return fmt.Errorf("%w: negative best score %d", ErrCorruptSnapshot, s.BestScore)
	}
	return nil
}

// Equal reports whether two snapshots hold the same session.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Score != o.Score || s.BestScore != o.BestScore || len(s.Grid) != len(o.Grid) {
		return false
	}
	for r := range s.Grid {
		if len(s.Grid[r]) != len(o.Grid[r]) {
			return false
		}
		for c := range s.Grid[r] {
			if s.Grid[r][c] != o.Grid[r][c] {
				return false
			}
		}
	}
	return true
}

// View is a read-only copy of the session handed to presentation adapters.
type View struct {
	Grid      [][]int
	Score     int
	BestScore int
	MaxTile   int
	State     StateType
}

// Rows returns the number of rows in the view's grid.
func (v View) Rows() int { return len(v.Grid) }

// Cols returns the number of columns in the view's grid.
func (v View) Cols() int {
	if len(v.Grid) == 0 {
		return 0
	}
	return len(v.Grid[0])
}
