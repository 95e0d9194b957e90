package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tile2048/internal/config"
	"github.com/vovakirdan/tile2048/internal/game"
	"github.com/vovakirdan/tile2048/internal/storage"
)

var mergeRow = [][]int{
	{2, 2, 0, 0},
	{0, 0, 0, 0},
	{0, 0, 0, 0},
	{0, 0, 0, 0},
}

var stuckBoard = [][]int{
	{2, 4, 2, 4},
	{4, 2, 4, 2},
	{2, 4, 2, 4},
	{4, 2, 4, 2},
}

func newTestStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store, err := storage.OpenFileStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("OpenFileStore() failed: %v", err)
	}
	return store
}

func saveGame(t *testing.T, store storage.Backend, player string, grid [][]int, score int) {
	t.Helper()
	snap := game.Snapshot{Grid: grid, Score: score, BestScore: score}
	if err := store.Player(player).Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
}

func newTestServer(t *testing.T, backend storage.Backend, origins ...string) *httptest.Server {
	t.Helper()
	board := game.DefaultConfig()
	board.Seed = 9
	srv := NewServer(config.WebConfig{AllowedOrigins: origins}, board, backend, log.New(io.Discard))
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server, player string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?player=" + player
}

func dial(t *testing.T, ts *httptest.Server, player string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, player), nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON() failed: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() failed: %v", err)
	}
	return msg
}

func expect(t *testing.T, conn *websocket.Conn, typ string) ServerMessage {
	t.Helper()
	msg := receive(t, conn)
	if msg.Type != typ {
		t.Fatalf("message type = %q (%+v), want %q", msg.Type, msg, typ)
	}
	return msg
}

func TestNewPlayerGetsFreshGame(t *testing.T) {
	ts := newTestServer(t, newTestStore(t))
	conn := dial(t, ts, "dave")

	msg := expect(t, conn, TypeState)
	if msg.Player != "dave" || msg.ID == "" {
		t.Errorf("player/id = %q/%q", msg.Player, msg.ID)
	}
	if msg.State != game.StatePlaying {
		t.Errorf("state = %q, want playing", msg.State)
	}
	tiles := 0
	for _, row := range msg.Grid {
		for _, v := range row {
			if v != 0 {
				tiles++
			}
		}
	}
	if tiles != 2 {
		t.Errorf("new game has %d tiles, want 2", tiles)
	}

	send(t, conn, ClientMessage{Type: TypeState})
	if again := expect(t, conn, TypeState); again.ID != msg.ID {
		t.Errorf("connection id changed: %q then %q", msg.ID, again.ID)
	}
}

func TestMoveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	saveGame(t, store, "erin", mergeRow, 40)
	ts := newTestServer(t, store)
	conn := dial(t, ts, "erin")

	prompt := expect(t, conn, TypeRestorePrompt)
	if prompt.Score != 40 {
		t.Errorf("prompt score = %d, want 40", prompt.Score)
	}

	send(t, conn, ClientMessage{Type: TypeMove, Direction: "left"})
	expect(t, conn, TypeError)

	send(t, conn, ClientMessage{Type: TypeRestore})
	restored := expect(t, conn, TypeState)
	if restored.Score != 40 || restored.State != game.StatePlaying {
		t.Fatalf("restored = %+v", restored)
	}

	send(t, conn, ClientMessage{Type: TypeMove, Direction: "left"})
	moved := expect(t, conn, TypeState)
	if moved.Score != 44 {
		t.Errorf("score after merge = %d, want 44", moved.Score)
	}
	if moved.Grid[0][0] != 4 {
		t.Errorf("merged tile = %d, want 4", moved.Grid[0][0])
	}

	send(t, conn, ClientMessage{Type: TypeMove, Direction: "sideways"})
	expect(t, conn, TypeError)

	send(t, conn, ClientMessage{Type: TypeReset})
	reset := expect(t, conn, TypeState)
	if reset.Score != 0 || reset.BestScore != 44 {
		t.Errorf("after reset score/best = %d/%d, want 0/44", reset.Score, reset.BestScore)
	}
}

func TestDeclineRestore(t *testing.T) {
	store := newTestStore(t)
	saveGame(t, store, "fay", mergeRow, 40)
	ts := newTestServer(t, store)
	conn := dial(t, ts, "fay")

	expect(t, conn, TypeRestorePrompt)
	send(t, conn, ClientMessage{Type: TypeReset})
	msg := expect(t, conn, TypeState)
	if msg.Score != 0 || msg.State != game.StatePlaying {
		t.Errorf("declined restore = %+v", msg)
	}

	send(t, conn, ClientMessage{Type: TypeRestore})
	expect(t, conn, TypeError)
}

func TestGameOverMessage(t *testing.T) {
	store := newTestStore(t)
	saveGame(t, store, "gus", stuckBoard, 100)
	ts := newTestServer(t, store)
	conn := dial(t, ts, "gus")

	expect(t, conn, TypeRestorePrompt)
	send(t, conn, ClientMessage{Type: TypeRestore})
	expect(t, conn, TypeState)

	send(t, conn, ClientMessage{Type: TypeMove, Direction: "up"})
	over := expect(t, conn, TypeGameOver)
	if over.State != game.StateGameOver || over.Score != 100 {
		t.Errorf("gameover = %+v", over)
	}

	scores, err := store.TopScores(context.Background(), "gus", 5)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 100 {
		t.Errorf("recorded scores = %+v, want one of 100", scores)
	}
}

func TestMalformedAndUnknownMessages(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := dial(t, ts, "")

	first := expect(t, conn, TypeState)
	if first.Player != "local" {
		t.Errorf("anonymous player = %q, want local", first.Player)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("WriteMessage() failed: %v", err)
	}
	expect(t, conn, TypeError)

	send(t, conn, ClientMessage{Type: "dance"})
	if msg := expect(t, conn, TypeError); !strings.Contains(msg.Error, "dance") {
		t.Errorf("error = %q, want it to name the type", msg.Error)
	}
}

func TestAllowedOrigins(t *testing.T) {
	ts := newTestServer(t, nil, "https://ok.example")

	tests := []struct {
		origin string
		wantOK bool
	}{
		{"https://ok.example", true},
		{"https://evil.example", false},
		{"", true},
	}

	for _, tc := range tests {
		t.Run(tc.origin, func(t *testing.T) {
			header := http.Header{}
			if tc.origin != "" {
				header.Set("Origin", tc.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "o"), header)
			if conn != nil {
				conn.Close()
			}
			if tc.wantOK && err != nil {
				t.Fatalf("Dial() failed: %v", err)
			}
			if !tc.wantOK {
				if err == nil {
					t.Fatal("Dial() succeeded for a foreign origin")
				}
				if resp == nil || resp.StatusCode != http.StatusForbidden {
					t.Errorf("response = %v, want 403", resp)
				}
			}
		})
	}
}

func TestOriginPolicyDefaults(t *testing.T) {
	sameHost := newTestServer(t, nil)
	anyOrigin := newTestServer(t, nil, "*")

	tests := []struct {
		name   string
		ts     *httptest.Server
		origin string
		wantOK bool
	}{
		{"empty list same host", sameHost, sameHost.URL, true},
		{"empty list foreign", sameHost, "https://evil.example", false},
		{"wildcard foreign", anyOrigin, "https://evil.example", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			header.Set("Origin", tc.origin)
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(tc.ts, "o"), header)
			if conn != nil {
				conn.Close()
			}
			if tc.wantOK && err != nil {
				t.Fatalf("Dial() failed: %v", err)
			}
			if !tc.wantOK && (resp == nil || resp.StatusCode != http.StatusForbidden) {
				t.Errorf("response = %v, want 403", resp)
			}
		})
	}
}

func TestScoresAPI(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, r := range []struct {
		player string
		score  int
	}{{"alice", 300}, {"bob", 500}, {"alice", 100}} {
		if err := store.Player(r.player).RecordScore(ctx, r.score, 64); err != nil {
			t.Fatalf("RecordScore() failed: %v", err)
		}
	}
	ts := newTestServer(t, store)

	tests := []struct {
		path       string
		wantStatus int
		wantLen    int
	}{
		{"/api/scores", http.StatusOK, 3},
		{"/api/scores?limit=1", http.StatusOK, 1},
		{"/api/scores/alice", http.StatusOK, 2},
		{"/api/scores/nobody", http.StatusOK, 0},
		{"/api/scores?limit=zero", http.StatusBadRequest, -1},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tc.path)
			if err != nil {
				t.Fatalf("GET failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if tc.wantLen < 0 {
				return
			}
			var scores []storage.ScoreEntry
			if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if len(scores) != tc.wantLen {
				t.Errorf("got %d scores, want %d", len(scores), tc.wantLen)
			}
		})
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	board := game.DefaultConfig()
	srv := NewServer(config.WebConfig{Address: "127.0.0.1:0"}, board, nil, log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}
