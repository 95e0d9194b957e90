// Package tui provides the terminal presentation of the game: a Bubble Tea
// model for local play, a high score screen and an SSH server built on Wish.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tile2048/internal/config"
	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/game"
	"github.com/vovakirdan/tile2048/internal/platform"
	"github.com/vovakirdan/tile2048/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// SSHServer serves one game session per SSH connection. The SSH user name
// is the player id.
type SSHServer struct {
	config  config.SSHConfig
	board   game.Config
	server  *ssh.Server
	backend storage.Backend
	logger  *log.Logger
}

// NewSSHServer creates an SSH server. backend may be nil, in which case
// sessions are not persisted.
func NewSSHServer(cfg config.SSHConfig, board game.Config, backend storage.Backend, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "tile2048-ssh",
		})
	}

	srv := &SSHServer{
		config:  cfg,
		board:   board,
		backend: backend,
		logger:  logger,
	}

	hostKeyPath, err := resolveHostKeyPath(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", err)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}
	if cfg.IdleTimeout > 0 {
		opts = append(opts, wish.WithIdleTimeout(cfg.IdleTimeout))
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// resolveHostKeyPath expands ~ and falls back to ~/.tile2048/host_key.
func resolveHostKeyPath(path string) (string, error) {
	if path == "" {
		dir := config.UserDir()
		if dir == "" {
			return "", errors.New("tui: no host key path and no home directory")
		}
		return filepath.Join(dir, "host_key"), nil
	}
	return config.ExpandHome(path)
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	cfg := core.RuntimeConfig{
		ScreenW: pty.Window.Width,
		ScreenH: pty.Window.Height,
		Player:  sess.User(),
	}

	model, err := s.newModel(sess.Context(), cfg, bubbletea.MakeRenderer(sess))
	if err != nil {
		s.logger.Error("could not open game", "user", sess.User(), "error", err)
		wish.Fatalln(sess, "could not open game")
		return nil, nil
	}

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
}

// newModel opens the player's session and wraps it in a Model.
func (s *SSHServer) newModel(ctx context.Context, cfg core.RuntimeConfig, r *lipgloss.Renderer) (Model, error) {
	sess, err := platform.OpenSession(ctx, s.backend, s.board, cfg.Player, s.logger)
	if err != nil {
		return Model{}, err
	}
	cfg.Player = sess.Player
	return NewModel(ctx, sess, NewStyles(r), cfg), nil
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until ctx is cancelled or
// the server fails.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("tui: SSH server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down SSH server")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("tui: SSH shutdown: %w", err)
	}
	return nil
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
