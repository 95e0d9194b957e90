package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tile2048/internal/platform/tui"
	"github.com/vovakirdan/tile2048/internal/storage"
)

var (
	flagLimit int
	flagPlain bool
	flagStats bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show high scores",
	Long: `Display the best finished games. On a terminal this opens an
interactive table (tab switches between all players and --player);
otherwise, or with --plain, a text list is printed.

Examples:
  tile2048 scores
  tile2048 scores --limit 20 --plain
  tile2048 scores --player alice --plain
  tile2048 scores --stats`,
	Args: cobra.NoArgs,
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagLimit, "limit", storage.DefaultLimit, "Number of scores to show")
	scoresCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print a text list instead of the interactive table")
	scoresCmd.Flags().BoolVar(&flagStats, "stats", false, "Print per-player statistics (SQLite storage only)")
}

func runScores(cmd *cobra.Command, _ []string) {
	cfg := loadConfig(cmd)
	ctx := cmd.Context()

	backend, err := openBackend(cfg)
	if err != nil {
		fail("opening storage: %v", err)
	}
	defer backend.Close()

	if flagStats {
		err = printStats(ctx, os.Stdout, backend)
	} else if !flagPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		width, height, sizeErr := term.GetSize(int(os.Stdout.Fd()))
		if sizeErr != nil {
			width, height = 80, 24
		}
		err = tui.RunScoreboard(ctx, backend, flagPlayer, flagLimit, width, height)
	} else {
		player := ""
		if cmd.Flags().Changed("player") {
			player = flagPlayer
		}
		err = printScores(ctx, os.Stdout, backend, player, flagLimit)
	}

	if err != nil {
		backend.Close()
		fail("%v", err)
	}
}

// printScores writes the top scores as a text table. An empty player lists
// everyone.
func printScores(ctx context.Context, w io.Writer, backend storage.Backend, player string, limit int) error {
	scores, err := backend.TopScores(ctx, player, limit)
	if err != nil {
		return fmt.Errorf("retrieving scores: %w", err)
	}

	title := "all players"
	if player != "" {
		title = player
	}
	fmt.Fprintf(w, "High Scores - %s\n\n", title)

	if len(scores) == 0 {
		fmt.Fprintln(w, "No scores recorded yet.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Finish a game with 'tile2048 play' to set the first high score!")
		return nil
	}

	fmt.Fprintf(w, "  %-4s  %-12s  %-8s  %-6s  %s\n", "Rank", "Player", "Score", "Tile", "Date")
	fmt.Fprintf(w, "  %-4s  %-12s  %-8s  %-6s  %s\n", "----", "------", "-----", "----", "----")
	for i, entry := range scores {
		fmt.Fprintf(w, "  %-4d  %-12s  %-8d  %-6d  %s\n",
			i+1, entry.Player, entry.Score, entry.MaxTile, entry.CreatedAt.Local().Format("2006-01-02 15:04"))
	}

	if player != "" {
		best, err := backend.HighScore(ctx, player)
		if err == nil {
			fmt.Fprintf(w, "\nBest: %d\n", best)
		}
	}
	return nil
}

// printStats writes per-player aggregates. Only the SQLite store keeps them.
func printStats(ctx context.Context, w io.Writer, backend storage.Backend) error {
	store, ok := backend.(*storage.Store)
	if !ok {
		return fmt.Errorf("statistics need the %q storage driver", "sqlite")
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintln(w, "No games finished yet.")
		return nil
	}

	fmt.Fprintf(w, "  %-12s  %-6s  %-8s  %-8s  %-6s  %s\n", "Player", "Games", "Best", "Average", "Tile", "Last played")
	for _, st := range stats {
		fmt.Fprintf(w, "  %-12s  %-6d  %-8d  %-8.0f  %-6d  %s\n",
			st.Player, st.GamesCount, st.HighScore, st.AvgScore, st.MaxTile, st.LastPlayed.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
