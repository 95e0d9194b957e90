// Package game implements the 2048 tile-merging engine: the board, the move
// resolver, tile spawning, terminal detection and the controller that turns
// player input into state transitions.
package game

import "fmt"

// DefaultSize is the default board dimension.
const DefaultSize = 4

// Cell addresses a single grid position.
type Cell struct {
	Row int
	Col int
}

// Grid is a fixed-size board of tile values. Zero means empty; every other
// value is a power of two. Dimensions never change after construction.
type Grid struct {
	rows  int
	cols  int
	cells []int
}

// NewGrid creates an empty rows x cols grid.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, rows, cols)
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]int, rows*cols),
	}, nil
}

// GridFromValues builds a grid from row-major values. All rows must have the
// same non-zero length.
func GridFromValues(values [][]int) (*Grid, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, fmt.Errorf("%w: empty values", ErrInvalidDimensions)
	}
	g, err := NewGrid(len(values), len(values[0]))
	if err != nil {
		return nil, err
	}
	for r, row := range values {
		if len(row) != g.cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidDimensions, r, len(row), g.cols)
		}
		copy(g.cells[r*g.cols:(r+1)*g.cols], row)
	}
	return g, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether (r, c) addresses a cell of the grid.
func (g *Grid) InBounds(r, c int) bool {
	return r >= 0 && r < g.rows && c >= 0 && c < g.cols
}

func (g *Grid) index(r, c int) int {
	if !g.InBounds(r, c) {
		panic(fmt.Sprintf("game: cell (%d, %d) out of range for %dx%d grid", r, c, g.rows, g.cols))
	}
	return r*g.cols + c
}

// At returns the value at (r, c). Panics if out of range.
func (g *Grid) At(r, c int) int {
	return g.cells[g.index(r, c)]
}

// Set stores v at (r, c). Panics if out of range.
func (g *Grid) Set(r, c, v int) {
	g.cells[g.index(r, c)] = v
}

// IsEmpty reports whether (r, c) holds no tile. Panics if out of range.
func (g *Grid) IsEmpty(r, c int) bool {
	return g.At(r, c) == 0
}

// Clear empties every cell.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = 0
	}
}

// EmptyCells returns the coordinates of all empty cells in row-major order.
func (g *Grid) EmptyCells() []Cell {
	var cells []Cell
	for i, v := range g.cells {
		if v == 0 {
			cells = append(cells, Cell{Row: i / g.cols, Col: i % g.cols})
		}
	}
	return cells
}

// Sum returns the total of all tile values.
func (g *Grid) Sum() int {
	total := 0
	for _, v := range g.cells {
		total += v
	}
	return total
}

// MaxTile returns the highest tile value on the board.
func (g *Grid) MaxTile() int {
	maxVal := 0
	for _, v := range g.cells {
		if v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	cells := make([]int, len(g.cells))
	copy(cells, g.cells)
	return &Grid{rows: g.rows, cols: g.cols, cells: cells}
}

// Equal reports whether both grids have the same shape and values.
func (g *Grid) Equal(other *Grid) bool {
	if g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Values returns the grid as a fresh row-major slice of rows.
func (g *Grid) Values() [][]int {
	out := make([][]int, g.rows)
	for r := range out {
		out[r] = make([]int, g.cols)
		copy(out[r], g.cells[r*g.cols:(r+1)*g.cols])
	}
	return out
}

// String renders the grid one row per line, for test failures and logs.
func (g *Grid) String() string {
	s := ""
	for r := 0; r < g.rows; r++ {
		s += fmt.Sprint(g.cells[r*g.cols : (r+1)*g.cols])
		if r < g.rows-1 {
			s += "\n"
		}
	}
	return s
}

// MergeMask records which cells already absorbed a merge during the current
// move. It is reset before every move and never persisted.
type MergeMask struct {
	cols   int
	merged []bool
}

// NewMergeMask creates a mask matching the grid's dimensions.
func NewMergeMask(g *Grid) *MergeMask {
	return &MergeMask{cols: g.cols, merged: make([]bool, g.rows*g.cols)}
}

// Reset clears every marker.
func (m *MergeMask) Reset() {
	for i := range m.merged {
		m.merged[i] = false
	}
}

// Merged reports whether (r, c) absorbed a merge this move.
func (m *MergeMask) Merged(r, c int) bool {
	return m.merged[r*m.cols+c]
}

// Mark records a merge into (r, c).
func (m *MergeMask) Mark(r, c int) {
	m.merged[r*m.cols+c] = true
}

// Count returns the number of marked cells.
func (m *MergeMask) Count() int {
	n := 0
	for _, v := range m.merged {
		if v {
			n++
		}
	}
	return n
}

// isPowerOfTwo reports whether v is a positive power of two.
func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}
