// Package platform holds what the presentation adapters share: opening a
// player's game session against the configured storage backend.
package platform

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/game"
	"github.com/vovakirdan/tile2048/internal/storage"
)

// Session is a booted controller for one player.
type Session struct {
	Player     string
	Controller *game.Controller
	// Pending is the saved game found at boot, waiting for the player to
	// choose between restoring it and starting over. Nil when none.
	Pending *game.Snapshot
}

// NormalizePlayer trims a player id and substitutes the default when empty.
func NormalizePlayer(player string) string {
	player = strings.TrimSpace(player)
	if player == "" {
		return core.DefaultPlayer
	}
	return player
}

// OpenSession creates a controller bound to the player's persisted state and
// boots it. backend may be nil, in which case nothing is persisted.
func OpenSession(ctx context.Context, backend storage.Backend, cfg game.Config, player string, logger *log.Logger, opts ...game.Option) (*Session, error) {
	player = NormalizePlayer(player)
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.With("player", player)

	all := []game.Option{game.WithLogger(logger)}
	if backend != nil {
		all = append(all, game.WithStore(backend.Player(player)))
	}
	all = append(all, opts...)

	ctrl, err := game.NewController(cfg, all...)
	if err != nil {
		return nil, fmt.Errorf("platform: cannot create game: %w", err)
	}

	pending, err := ctrl.Boot(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform: cannot boot game: %w", err)
	}
	if pending != nil {
		logger.Info("saved game found", "score", pending.Score)
	}

	return &Session{Player: player, Controller: ctrl, Pending: pending}, nil
}

// Resolve answers the restore prompt. restore=false, or a snapshot that no
// longer validates, starts a new game.
func (s *Session) Resolve(ctx context.Context, restore bool) error {
	if s.Pending == nil {
		return nil
	}
	snap := *s.Pending
	s.Pending = nil

	if !restore {
		s.Controller.ResetGame(ctx)
		return nil
	}
	if err := s.Controller.RestoreGame(ctx, snap); err != nil {
		s.Controller.ResetGame(ctx)
		return err
	}
	return nil
}
