package core

import (
	"testing"

	"github.com/vovakirdan/tile2048/internal/game"
)

func TestActionDirectionRoundTrip(t *testing.T) {
	for _, d := range game.Directions {
		a := ActionFor(d)
		got, ok := a.Direction()
		if !ok || got != d {
			t.Errorf("ActionFor(%s).Direction() = (%s, %v)", d, got, ok)
		}
	}
	if _, ok := ActionQuit.Direction(); ok {
		t.Error("ActionQuit should not map to a direction")
	}
}

func TestInputFrame(t *testing.T) {
	f := NewInputFrame()
	if _, ok := f.Move(); ok {
		t.Error("empty frame should have no move")
	}

	f.Set(ActionRestart)
	f.Set(ActionLeft)
	if !f.Has(ActionRestart) || !f.Has(ActionLeft) {
		t.Error("Has() missed a set action")
	}
	if dir, ok := f.Move(); !ok || dir != game.DirLeft {
		t.Errorf("Move() = (%s, %v), expected (left, true)", dir, ok)
	}

	f.Clear()
	if f.Has(ActionLeft) {
		t.Error("Clear() left actions behind")
	}

	var zero InputFrame
	if zero.Has(ActionUp) {
		t.Error("zero frame should have no actions")
	}
}
