package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/tile2048/internal/game"
)

//go:embed defaults/tile2048.yaml
var defaultYAML []byte

// Default returns the built-in configuration. It matches the embedded YAML and
// is used when that cannot be parsed.
func Default() Config {
	return Config{
		Board: BoardConfig{
			Rows:                 game.DefaultSize,
			Cols:                 game.DefaultSize,
			SpawnFourProbability: game.DefaultSpawnFourProb,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			DBPath: "~/.tile2048/tile2048.db",
			Dir:    "~/.tile2048/sessions",
		},
		SSH: SSHConfig{
			Address:     ":23234",
			HostKeyPath: ".ssh/tile2048_ed25519",
			IdleTimeout: 30 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
			File:  "~/.tile2048/tile2048.log",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
