package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/game"
	"github.com/vovakirdan/tile2048/internal/platform"
	"github.com/vovakirdan/tile2048/internal/platform/tui"
	"github.com/vovakirdan/tile2048/internal/storage"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in this terminal",
	Long: `Start a game in this terminal. A saved game is offered for restore.

Controls:
  Arrows/WASD/HJKL - Slide tiles
  Mouse drag       - Slide tiles in the drag direction
  R                - New game (asks first)
  Y/N              - Answer a prompt
  ?                - Toggle help
  Q/Ctrl+C         - Quit (the game stays saved)

Examples:
  tile2048 play
  tile2048 play --player alice
  tile2048 play --seed 7 --db ./scores.db`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func runPlay(cmd *cobra.Command, _ []string) {
	cfg := loadConfig(cmd)

	logOut, err := openLogFile(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	var w io.Writer = io.Discard
	if logOut != nil {
		defer logOut.Close()
		w = logOut
	}
	logger := newLogger(w, cfg.Log, "tile2048")

	width, height := 80, 24
	if tw, th, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = tw, th
	}

	backend, err := openBackend(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open storage, progress will not be saved: %v\n", err)
		logger.Warn("storage unavailable", "error", err)
		backend = nil
	}

	runErr := play(cmd, backend, cfg.GameConfig(flagSeed), logger, core.RuntimeConfig{
		ScreenW: width,
		ScreenH: height,
		Seed:    flagSeed,
		Player:  flagPlayer,
	})

	if backend != nil {
		backend.Close()
	}
	if runErr != nil {
		fail("%v", runErr)
	}
}

func play(cmd *cobra.Command, backend storage.Backend, board game.Config, logger *log.Logger, rcfg core.RuntimeConfig) error {
	ctx := cmd.Context()

	sess, err := platform.OpenSession(ctx, backend, board, rcfg.Player, logger)
	if err != nil {
		return err
	}
	rcfg.Player = sess.Player

	if err := tui.Run(ctx, sess, rcfg); err != nil {
		return fmt.Errorf("running game: %w", err)
	}
	return nil
}
