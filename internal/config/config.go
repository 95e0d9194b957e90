// Package config provides YAML-based configuration loading for tile2048,
// with environment overrides and an embedded default.
package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tile2048/internal/game"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Config is the complete application configuration.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	Storage StorageConfig `yaml:"storage"`
	SSH     SSHConfig     `yaml:"ssh"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`
}

// BoardConfig defines the grid and spawn parameters.
type BoardConfig struct {
	Rows                 int     `yaml:"rows"`
	Cols                 int     `yaml:"cols"`
	SpawnFourProbability float64 `yaml:"spawn_four_probability"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`  // "sqlite" or "file"
	DBPath string `yaml:"db_path"` // SQLite database file
	Dir    string `yaml:"dir"`     // Directory for the file driver
}

// SSHConfig configures the Wish server.
type SSHConfig struct {
	Address     string        `yaml:"address"`
	HostKeyPath string        `yaml:"host_key_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// WebConfig configures the WebSocket server.
type WebConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"` // Empty applies gorilla's same-host check; "*" allows any origin
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // Used by the terminal UI, which owns stderr
}

// Validate checks the configuration for values that would prevent a session
// from starting.
func (c Config) Validate() error {
	if c.Board.Rows <= 0 || c.Board.Cols <= 0 {
		return fmt.Errorf("config: board %dx%d: %w", c.Board.Rows, c.Board.Cols, game.ErrInvalidDimensions)
	}
	if p := c.Board.SpawnFourProbability; p < 0 || p > 1 {
		return fmt.Errorf("config: spawn_four_probability %v outside [0, 1]", p)
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.DBPath == "" {
			return fmt.Errorf("config: storage.db_path is required for the sqlite driver")
		}
	case DriverFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("config: storage.dir is required for the file driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// GameConfig returns the controller configuration for this board.
func (c Config) GameConfig(seed int64) game.Config {
	return game.Config{
		Rows:          c.Board.Rows,
		Cols:          c.Board.Cols,
		SpawnFourProb: c.Board.SpawnFourProbability,
		Seed:          seed,
	}
}
