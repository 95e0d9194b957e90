package game

// HasAnyMove reports whether the board still admits a move: an empty cell
// exists, or some cell equals its left or upper neighbour. Every adjacent pair
// is compared exactly once, and an equal pair always allows a merge along its
// axis, so this is the terminal-state test used by the controller.
func HasAnyMove(g *Grid) bool {
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			v := g.At(r, c)
			if v == 0 {
				return true
			}
			if c > 0 && g.At(r, c-1) == v {
				return true
			}
			if r > 0 && g.At(r-1, c) == v {
				return true
			}
		}
	}
	return false
}
