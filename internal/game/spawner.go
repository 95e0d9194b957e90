package game

import "math/rand"

// DefaultSpawnFourProb is the probability that a spawned tile is a 4.
const DefaultSpawnFourProb = 0.10

// Spawner places new tiles on random empty cells.
type Spawner struct {
	rng      *rand.Rand
	fourProb float64
}

// NewSpawner creates a spawner drawing from rng. A fourProb outside [0, 1]
// falls back to DefaultSpawnFourProb.
func NewSpawner(rng *rand.Rand, fourProb float64) *Spawner {
	if fourProb < 0 || fourProb > 1 {
		fourProb = DefaultSpawnFourProb
	}
	return &Spawner{rng: rng, fourProb: fourProb}
}

// Spawn puts a 2 (or, with probability fourProb, a 4) on a uniformly chosen
// empty cell. Returns false when the board is full.
func (s *Spawner) Spawn(g *Grid) (Cell, int, bool) {
	empty := g.EmptyCells()
	if len(empty) == 0 {
		return Cell{}, 0, false
	}

	cell := empty[s.rng.Intn(len(empty))]

	value := 2
	if s.rng.Float64() < s.fourProb {
		value = 4
	}

	g.Set(cell.Row, cell.Col, value)
	return cell, value, true
}
