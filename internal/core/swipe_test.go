package core

import (
	"testing"

	"github.com/vovakirdan/tile2048/internal/game"
)

func TestSwipeDirection(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy int
		want   game.Direction
		ok     bool
	}{
		{"right", 10, 2, game.DirRight, true},
		{"left", -7, 3, game.DirLeft, true},
		{"down", 1, 9, game.DirDown, true},
		{"up", -2, -5, game.DirUp, true},
		{"tie goes horizontal right", 4, 4, game.DirRight, true},
		{"tie goes horizontal left", -4, 4, game.DirLeft, true},
		{"no displacement", 0, 0, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SwipeDirection(tc.dx, tc.dy)
			if ok != tc.ok {
				t.Fatalf("SwipeDirection(%d, %d) ok = %v, expected %v", tc.dx, tc.dy, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("SwipeDirection(%d, %d) = %s, expected %s", tc.dx, tc.dy, got, tc.want)
			}
		})
	}
}

func TestSwipeGesture(t *testing.T) {
	s := NewSwipe(NewRect(10, 5, 20, 10))

	if s.Begin(Point{X: 0, Y: 0}) {
		t.Fatal("Begin outside bounds should be rejected")
	}
	if _, ok := s.End(Point{X: 5, Y: 5}); ok {
		t.Error("End without an active gesture should yield nothing")
	}

	if !s.Begin(Point{X: 15, Y: 8}) {
		t.Fatal("Begin inside bounds should be accepted")
	}
	if !s.Active() {
		t.Error("Active() = false after Begin")
	}
	dir, ok := s.End(Point{X: 15, Y: 2})
	if !ok || dir != game.DirUp {
		t.Errorf("End = (%s, %v), expected (up, true)", dir, ok)
	}
	if s.Active() {
		t.Error("Active() = true after End")
	}
}

func TestSwipeUnbounded(t *testing.T) {
	s := NewSwipe(Rect{})
	if !s.Begin(Point{X: 500, Y: 500}) {
		t.Fatal("zero bounds should accept any press")
	}
	s.Cancel()
	if _, ok := s.End(Point{X: 0, Y: 500}); ok {
		t.Error("cancelled gesture should yield nothing")
	}
}
