package core

import "github.com/vovakirdan/tile2048/internal/game"

// SwipeDirection converts a gesture displacement into a move direction.
// dx grows to the right and dy grows downward, as in terminal and browser
// coordinates. The axis with the larger absolute displacement wins and the
// horizontal axis wins ties. A zero displacement yields no direction.
func SwipeDirection(dx, dy int) (game.Direction, bool) {
	if dx == 0 && dy == 0 {
		return 0, false
	}
	if Abs(dx) >= Abs(dy) {
		if dx > 0 {
			return game.DirRight, true
		}
		return game.DirLeft, true
	}
	if dy > 0 {
		return game.DirDown, true
	}
	return game.DirUp, true
}

// Swipe tracks a press-drag-release gesture.
type Swipe struct {
	start  Point
	active bool
	bounds Rect
}

// NewSwipe creates a tracker that only starts gestures inside bounds.
// A zero Rect accepts presses anywhere.
func NewSwipe(bounds Rect) *Swipe {
	return &Swipe{bounds: bounds}
}

// SetBounds changes the area in which gestures may start.
func (s *Swipe) SetBounds(bounds Rect) {
	s.bounds = bounds
}

// Begin records the start of a gesture. Returns false if p is outside the
// bounds.
func (s *Swipe) Begin(p Point) bool {
	if s.bounds.W > 0 && s.bounds.H > 0 && !s.bounds.Contains(p.X, p.Y) {
		s.active = false
		return false
	}
	s.start = p
	s.active = true
	return true
}

// End completes the gesture at p and returns its direction.
func (s *Swipe) End(p Point) (game.Direction, bool) {
	if !s.active {
		return 0, false
	}
	s.active = false
	return SwipeDirection(p.X-s.start.X, p.Y-s.start.Y)
}

// Cancel drops a gesture in progress.
func (s *Swipe) Cancel() {
	s.active = false
}

// Active reports whether a gesture is in progress.
func (s *Swipe) Active() bool {
	return s.active
}
