// tile2048 is the 2048 sliding-tile puzzle for the terminal, SSH and the
// browser.
//
// Usage:
//
//	tile2048                 - Play in this terminal (same as play)
//	tile2048 play            - Play in this terminal
//	tile2048 serve           - Serve over SSH and, optionally, WebSocket
//	tile2048 scores          - Show high scores
//	tile2048 reset           - Delete a player's saved game and scores
//	tile2048 config          - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Config file (default search: ~/.tile2048/config.yaml, ./configs/tile2048.yaml)
//	--db <path>         - SQLite database path
//	--seed <value>      - RNG seed for reproducible games
//	--log-level <level> - debug, info, warn or error
//	--player <id>       - Player whose game and scores are used
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tile2048/internal/config"
	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagSeed     int64
	flagLogLevel string
	flagPlayer   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tile2048",
	Short: "2048 - slide and merge tiles in your terminal",
	Long: `tile2048 is the 2048 sliding-tile puzzle. Slide the board, merge equal
tiles and try to reach 2048.

Your game is saved after every move and offered for restore on the next
start. Finished games go to the high score table.

Available commands:
  play     - Play in this terminal (default)
  serve    - Serve over SSH and WebSocket
  scores   - View high scores
  reset    - Delete saved games and scores
  config   - Print the effective configuration

Examples:
  tile2048
  tile2048 --player alice --seed 42
  tile2048 serve --ssh :23234 --web :8080
  tile2048 scores --limit 20`,
	Run: runPlay,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", core.DefaultPlayer, "Player id for saved games and scores")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configCmd)
}

// fail prints an error and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig reads .env, the config file and the environment, then applies
// the global flags that were set on the command line.
func loadConfig(cmd *cobra.Command) config.Config {
	if _, err := config.LoadDotEnv(); err != nil {
		fail("%v", err)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		fail("%v", err)
	}

	if err := applyFlags(&cfg, cmd); err != nil {
		fail("%v", err)
	}
	return cfg
}

// applyFlags copies changed global flags onto cfg and validates the result.
func applyFlags(cfg *config.Config, cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Storage.Driver = config.DriverSQLite
		cfg.Storage.DBPath = flagDBPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.Log.Level)
	}
	return cfg.Validate()
}

// newLogger creates a logger writing to w at the configured level.
func newLogger(w io.Writer, cfg config.LogConfig, prefix string) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
}

// openLogFile opens the log file for appending. The terminal UI owns the
// screen, so play logs here instead of stderr.
func openLogFile(cfg config.LogConfig) (io.WriteCloser, error) {
	if cfg.File == "" {
		return nil, nil
	}
	path, err := config.ExpandHome(cfg.File)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file: %w", err)
	}
	return f, nil
}

// openBackend opens the configured storage backend.
func openBackend(cfg config.Config) (storage.Backend, error) {
	return storage.OpenBackend(cfg.Storage)
}
