// Package storage persists game sessions, best scores and score history.
// Two drivers are provided: SQLite through the pure-Go modernc.org/sqlite
// driver, and one JSON file per player.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/tile2048/internal/config"
	"github.com/vovakirdan/tile2048/internal/game"
)

// PlayerStore is the persistence adapter for a single player's session.
type PlayerStore interface {
	game.Persistence
	game.ScoreKeeper
}

// Backend is implemented by every storage driver.
type Backend interface {
	// Player returns the adapter bound to one player id.
	Player(id string) PlayerStore
	// TopScores returns the best finished games, highest first. An empty
	// player selects every player.
	TopScores(ctx context.Context, player string, limit int) ([]ScoreEntry, error)
	// HighScore returns the best score of a player, or 0.
	HighScore(ctx context.Context, player string) (int, error)
	// Reset deletes the session, best score and history of a player.
	Reset(ctx context.Context, player string) error
	// ResetAll deletes everything.
	ResetAll(ctx context.Context) error
	Close() error
}

// ScoreEntry represents a single finished game.
type ScoreEntry struct {
	ID        int64     `json:"id"`
	Player    string    `json:"player"`
	Score     int       `json:"score"`
	MaxTile   int       `json:"maxTile"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultLimit is used when a non-positive limit is requested.
const DefaultLimit = 10

// OpenBackend opens the driver selected by cfg.
func OpenBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		store, err := Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverFile:
		store, err := OpenFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

func corrupt(player string, reason error) error {
	return fmt.Errorf("storage: saved session for %q: %v: %w", player, reason, game.ErrCorruptSnapshot)
}
