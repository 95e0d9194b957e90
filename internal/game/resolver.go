package game

// MoveResult describes the outcome of resolving one move.
type MoveResult struct {
	Changed    bool // Any tile relocated or merged
	ScoreDelta int  // Sum of the values produced by merges
	Merges     int  // Number of merge events
}

// traversal returns the scan order along one axis. Cells nearest the target
// edge come first so every tile settles before the tile behind it moves.
func traversal(n, step int) []int {
	order := make([]int, n)
	for i := range order {
		if step > 0 {
			order[i] = n - 1 - i
		} else {
			order[i] = i
		}
	}
	return order
}

// Resolve slides and merges every tile of g in direction dir, in place.
// The mask is reset before sliding starts; a cell that absorbed a merge
// cannot take part in another merge during the same call.
func Resolve(g *Grid, mask *MergeMask, dir Direction) MoveResult {
	var res MoveResult
	if !dir.Valid() {
		return res
	}
	if mask == nil || len(mask.merged) != len(g.cells) || mask.cols != g.cols {
		mask = NewMergeMask(g)
	}
	mask.Reset()

	dr, dc := dir.Delta()
	for _, r := range traversal(g.rows, dr) {
		for _, c := range traversal(g.cols, dc) {
			if g.IsEmpty(r, c) {
				continue
			}
			slideTile(g, mask, r, c, dr, dc, &res)
		}
	}
	return res
}

// slideTile probes forward from (r, c) until the tile settles or merges.
func slideTile(g *Grid, mask *MergeMask, r, c, dr, dc int, res *MoveResult) {
	for {
		nr, nc := r+dr, c+dc
		if !g.InBounds(nr, nc) {
			return
		}

		cur := g.At(r, c)
		next := g.At(nr, nc)

		if next == 0 {
			g.Set(nr, nc, cur)
			g.Set(r, c, 0)
			r, c = nr, nc
			res.Changed = true
			continue
		}

		if next == cur && !mask.Merged(nr, nc) && !mask.Merged(r, c) {
			merged := next * 2
			g.Set(nr, nc, merged)
			g.Set(r, c, 0)
			mask.Mark(nr, nc)
			res.ScoreDelta += merged
			res.Merges++
			res.Changed = true
		}
		return
	}
}

// CanMoveIn reports whether resolving dir would change g. The grid is not
// modified.
func CanMoveIn(g *Grid, dir Direction) bool {
	return Resolve(g.Clone(), nil, dir).Changed
}
