// Package web serves the game over WebSocket for browser clients, one
// session per connection, plus a small JSON API for high scores.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tile2048/internal/config"
	"github.com/vovakirdan/tile2048/internal/game"
	"github.com/vovakirdan/tile2048/internal/platform"
	"github.com/vovakirdan/tile2048/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP and WebSocket front end.
type Server struct {
	config   config.WebConfig
	board    game.Config
	backend  storage.Backend
	logger   *log.Logger
	router   *mux.Router
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uuid.UUID]*Client
}

// NewServer creates a server. backend may be nil, in which case sessions
// are not persisted and the scores API returns an empty list.
func NewServer(cfg config.WebConfig, board game.Config, backend storage.Backend, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "tile2048-web",
		})
	}

	s := &Server{
		config:  cfg,
		board:   board,
		backend: backend,
		logger:  logger,
		router:  mux.NewRouter(),
		clients: make(map[uuid.UUID]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(cfg.AllowedOrigins) > 0 {
		s.upgrader.CheckOrigin = s.checkOrigin
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scores", s.handleScores).Methods(http.MethodGet)
	api.HandleFunc("/scores/{player}", s.handleScores).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// checkOrigin allows requests without an Origin header and those listed in
// the config. "*" allows everything.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.config.AllowedOrigins, "*") ||
		slices.Contains(s.config.AllowedOrigins, origin)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "connections": n})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]

	limit := storage.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	scores := []storage.ScoreEntry{}
	if s.backend != nil {
		entries, err := s.backend.TopScores(r.Context(), player, limit)
		if err != nil {
			s.logger.Error("could not list scores", "player", player, "error", err)
			respondError(w, http.StatusInternalServerError, "could not list scores")
			return
		}
		scores = append(scores, entries...)
	}
	respondJSON(w, http.StatusOK, scores)
}

// handleWebSocket upgrades the request and runs the session until the
// connection closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	// Detached from the request, cancelled when the connection closes.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	client := newClient(conn, platform.NormalizePlayer(r.URL.Query().Get("player")), s.logger)
	sess, err := platform.OpenSession(ctx, s.backend, s.board, client.player,
		s.logger.With("conn", client.id.String()), game.WithPresenter(client))
	if err != nil {
		client.logger.Error("could not open game", "error", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "could not open game"))
		conn.Close()
		return
	}
	client.session = sess
	if sess.Pending != nil {
		client.enqueue(promptMessage(*sess.Pending))
	}

	s.register(client)
	defer s.unregister(client)

	go client.writePump()
	client.readPump(ctx)
}

func (s *Server) register(c *Client) {
	s.mu.Lock()
	s.clients[c.id] = c
	n := len(s.clients)
	s.mu.Unlock()

	c.logger.Info("client connected", "clients", n)
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	n := len(s.clients)
	s.mu.Unlock()

	c.logger.Info("client disconnected", "clients", n)
}

// closeClients disconnects every WebSocket client.
func (s *Server) closeClients() {
	s.mu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// ListenAndServe serves on the configured address until ctx is cancelled or
// the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting web server", "address", s.config.Address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web: server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.closeClients()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Address
}
