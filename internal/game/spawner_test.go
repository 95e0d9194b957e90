package game

import (
	"math/rand"
	"testing"
)

func TestSpawnFillsOnlyEmptyCell(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		g := mustGrid(t, [][]int{
			{2, 4, 8, 16},
			{32, 64, 128, 256},
			{512, 1024, 0, 2},
			{4, 8, 16, 32},
		})
		s := NewSpawner(rand.New(rand.NewSource(seed)), DefaultSpawnFourProb)

		cell, value, ok := s.Spawn(g)
		if !ok {
			t.Fatalf("seed %d: Spawn() reported a full board", seed)
		}
		if cell != (Cell{Row: 2, Col: 2}) {
			t.Fatalf("seed %d: spawned at %+v, want (2, 2)", seed, cell)
		}
		if value != 2 && value != 4 {
			t.Fatalf("seed %d: spawned %d, want 2 or 4", seed, value)
		}
		if g.At(2, 2) != value {
			t.Fatalf("seed %d: cell holds %d, want %d", seed, g.At(2, 2), value)
		}
	}
}

func TestSpawnFullBoard(t *testing.T) {
	g := mustGrid(t, [][]int{{2, 4}, {8, 16}})
	s := NewSpawner(rand.New(rand.NewSource(1)), DefaultSpawnFourProb)

	if _, _, ok := s.Spawn(g); ok {
		t.Error("Spawn() on a full board should report false")
	}
}

func TestDeterministicSpawn(t *testing.T) {
	run := func() []Cell {
		g, _ := NewGrid(4, 4)
		s := NewSpawner(rand.New(rand.NewSource(12345)), DefaultSpawnFourProb)
		var cells []Cell
		for i := 0; i < 8; i++ {
			c, _, _ := s.Spawn(g)
			cells = append(cells, c)
		}
		return cells
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("spawn %d differs with the same seed: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSpawnValueDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	s := NewSpawner(rng, DefaultSpawnFourProb)

	fours := 0
	const n = 10000
	for i := 0; i < n; i++ {
		g, _ := NewGrid(1, 1)
		_, v, _ := s.Spawn(g)
		if v == 4 {
			fours++
		}
	}
	ratio := float64(fours) / n
	if ratio < 0.07 || ratio > 0.13 {
		t.Errorf("four ratio = %.3f, want about 0.10", ratio)
	}
}

func TestNewSpawnerClampsProbability(t *testing.T) {
	s := NewSpawner(rand.New(rand.NewSource(1)), 3)
	if s.fourProb != DefaultSpawnFourProb {
		t.Errorf("fourProb = %v, want default %v", s.fourProb, DefaultSpawnFourProb)
	}

	always := NewSpawner(rand.New(rand.NewSource(1)), 1)
	g, _ := NewGrid(2, 2)
	for i := 0; i < 4; i++ {
		if _, v, _ := always.Spawn(g); v != 4 {
			t.Fatalf("spawn with probability 1 produced %d", v)
		}
	}
}
