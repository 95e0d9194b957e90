package core

import "github.com/vovakirdan/tile2048/internal/game"

// Action represents a semantic player intent, abstracted from physical key
// presses, mouse gestures and network messages.
type Action int

const (
	ActionNone    Action = iota
	ActionUp             // W, K, Up arrow, swipe up
	ActionDown           // S, J, Down arrow, swipe down
	ActionLeft           // A, H, Left arrow, swipe left
	ActionRight          // D, L, Right arrow, swipe right
	ActionConfirm        // Y, Enter - accept a prompt
	ActionCancel         // N, Escape - decline a prompt
	ActionRestart        // R - start a new game (asks first)
	ActionHelp           // ? - toggle the full help view
	ActionQuit           // Q, Ctrl+C - exit session
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionConfirm:
		return "Confirm"
	case ActionCancel:
		return "Cancel"
	case ActionRestart:
		return "Restart"
	case ActionHelp:
		return "Help"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// Direction maps a movement action to a board direction.
// The second result is false for non-movement actions.
func (a Action) Direction() (game.Direction, bool) {
	switch a {
	case ActionUp:
		return game.DirUp, true
	case ActionDown:
		return game.DirDown, true
	case ActionLeft:
		return game.DirLeft, true
	case ActionRight:
		return game.DirRight, true
	default:
		return 0, false
	}
}

// ActionFor returns the movement action for a board direction.
func ActionFor(d game.Direction) Action {
	switch d {
	case game.DirUp:
		return ActionUp
	case game.DirDown:
		return ActionDown
	case game.DirLeft:
		return ActionLeft
	case game.DirRight:
		return ActionRight
	default:
		return ActionNone
	}
}

// InputFrame collects the actions triggered by one input event.
// A key press usually yields one action; a bound key may yield several.
type InputFrame struct {
	Actions map[Action]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	if f.Actions == nil {
		return false
	}
	return f.Actions[a]
}

// Clear resets all actions for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
}

// Move returns the first movement direction in the frame, checked in the
// fixed order up, down, left, right.
func (f InputFrame) Move() (game.Direction, bool) {
	for _, a := range [...]Action{ActionUp, ActionDown, ActionLeft, ActionRight} {
		if f.Has(a) {
			return a.Direction()
		}
	}
	return 0, false
}
