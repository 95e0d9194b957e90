package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagAll bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete saved games and scores",
	Long: `Delete the saved game, best score and score history of --player, or of
every player with --all.

Examples:
  tile2048 reset --player alice
  tile2048 reset --all`,
	Args: cobra.NoArgs,
	Run:  runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&flagAll, "all", false, "Delete data of every player")
}

func runReset(cmd *cobra.Command, _ []string) {
	cfg := loadConfig(cmd)
	ctx := cmd.Context()

	backend, err := openBackend(cfg)
	if err != nil {
		fail("opening storage: %v", err)
	}
	defer backend.Close()

	if flagAll {
		err = backend.ResetAll(ctx)
	} else {
		err = backend.Reset(ctx, flagPlayer)
	}
	if err != nil {
		backend.Close()
		fail("%v", err)
	}

	if flagAll {
		fmt.Println("Deleted all saved games and scores.")
	} else {
		fmt.Printf("Deleted saved game and scores of %q.\n", flagPlayer)
	}
}
