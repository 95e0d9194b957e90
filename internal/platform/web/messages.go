package web

import "github.com/vovakirdan/tile2048/internal/game"

// Client message types.
const (
	TypeMove    = "move"
	TypeReset   = "reset"
	TypeRestore = "restore"
	TypeState   = "state"
)

// Server message types. TypeState is shared with the client request.
const (
	TypeGameOver      = "gameover"
	TypeRestorePrompt = "restore_prompt"
	TypeError         = "error"
)

// ClientMessage is sent by the browser.
type ClientMessage struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
}

// ServerMessage is sent to the browser after every change and in reply to
// requests.
type ServerMessage struct {
	Type      string         `json:"type"`
	ID        string         `json:"id,omitempty"`
	Player    string         `json:"player,omitempty"`
	Grid      [][]int        `json:"grid,omitempty"`
	Score     int            `json:"score"`
	BestScore int            `json:"bestScore"`
	MaxTile   int            `json:"maxTile,omitempty"`
	State     game.StateType `json:"state,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func viewMessage(typ string, v game.View) ServerMessage {
	return ServerMessage{
		Type:      typ,
		Grid:      v.Grid,
		Score:     v.Score,
		BestScore: v.BestScore,
		MaxTile:   v.MaxTile,
		State:     v.State,
	}
}

func promptMessage(snap game.Snapshot) ServerMessage {
	return ServerMessage{
		Type:      TypeRestorePrompt,
		Grid:      snap.Grid,
		Score:     snap.Score,
		BestScore: snap.BestScore,
		State:     game.StateUninitialized,
	}
}

func errorMessage(text string) ServerMessage {
	return ServerMessage{Type: TypeError, Error: text}
}
