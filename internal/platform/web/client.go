package web

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tile2048/internal/game"
	"github.com/vovakirdan/tile2048/internal/platform"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 32
)

// Client is one WebSocket connection playing one session. It is the
// controller's presenter: every render is queued as a message.
type Client struct {
	id      uuid.UUID
	player  string
	conn    *websocket.Conn
	send    chan []byte
	session *platform.Session
	logger  *log.Logger
}

func newClient(conn *websocket.Conn, player string, logger *log.Logger) *Client {
	id := uuid.New()
	return &Client{
		id:     id,
		player: player,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger.With("conn", id.String(), "player", player),
	}
}

// Render implements game.Presenter.
func (c *Client) Render(v game.View) {
	c.enqueue(viewMessage(TypeState, v))
}

// GameOver implements game.Presenter.
func (c *Client) GameOver(v game.View) {
	c.enqueue(viewMessage(TypeGameOver, v))
}

func (c *Client) enqueue(msg ServerMessage) {
	msg.ID = c.id.String()
	msg.Player = c.player

	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("could not encode message", "type", msg.Type, "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping message", "type", msg.Type)
	}
}

// handle dispatches one client message.
func (c *Client) handle(ctx context.Context, msg ClientMessage) {
	sess := c.session

	switch msg.Type {
	case TypeState:
		if sess.Pending != nil {
			c.enqueue(promptMessage(*sess.Pending))
			return
		}
		c.Render(sess.Controller.View())

	case TypeRestore:
		if sess.Pending == nil {
			c.enqueue(errorMessage("no saved game to restore"))
			return
		}
		if err := sess.Resolve(ctx, true); err != nil {
			c.logger.Warn("restore failed", "error", err)
			c.enqueue(errorMessage("saved game could not be restored, started a new one"))
		}

	case TypeReset:
		if sess.Pending != nil {
			if err := sess.Resolve(ctx, false); err != nil {
				c.enqueue(errorMessage(err.Error()))
			}
			return
		}
		sess.Controller.ResetGame(ctx)

	case TypeMove:
		if sess.Pending != nil {
			c.enqueue(errorMessage("answer the restore prompt first"))
			return
		}
		dir, err := game.ParseDirection(msg.Direction)
		if err != nil {
			c.enqueue(errorMessage(err.Error()))
			return
		}
		out := sess.Controller.ApplyMove(ctx, dir)
		if !out.Changed && !out.GameOver {
			// Nothing rendered; acknowledge with the unchanged state.
			c.Render(sess.Controller.View())
		}

	default:
		c.enqueue(errorMessage("unknown message type " + msg.Type))
	}
}

// readPump reads client messages until the connection fails. It owns the
// send channel and closes it on return.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket error", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(errorMessage("malformed message"))
			continue
		}
		c.handle(ctx, msg)
	}
}

// writePump writes queued messages and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close asks the peer to go away. Safe to call from any goroutine.
func (c *Client) close() {
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(writeWait))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Debug("close frame not sent", "error", err)
	}
	c.conn.Close()
}
