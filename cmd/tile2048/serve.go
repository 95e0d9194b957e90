package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tile2048/internal/platform/tui"
	"github.com/vovakirdan/tile2048/internal/platform/web"
)

var (
	flagSSHAddr     string
	flagWebAddr     string
	flagHostKey     string
	flagIdleTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game over SSH and WebSocket",
	Long: `Start the network servers. Each SSH connection plays the game of its
SSH user name; each WebSocket connection plays the game of its ?player=
query parameter. Saved games and scores go to the configured storage.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise the configured ssh.host_key_path, generated if missing

Examples:
  tile2048 serve                          # SSH on :23234
  tile2048 serve --ssh :2222 --web :8080  # SSH and WebSocket
  tile2048 serve --ssh "" --web :8080     # WebSocket only

Connect with:
  ssh localhost -p 23234
  ws://localhost:8080/ws?player=alice`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, empty to disable)")
	serveCmd.Flags().StringVar(&flagWebAddr, "web", "", "WebSocket server address (host:port, empty to disable)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key file")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout before disconnecting SSH sessions")
}

// server is implemented by the SSH and web front ends.
type server interface {
	ListenAndServe(ctx context.Context) error
	Addr() string
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg := loadConfig(cmd)

	flags := cmd.Flags()
	if flags.Changed("ssh") {
		cfg.SSH.Address = flagSSHAddr
	}
	if flags.Changed("web") {
		cfg.Web.Address = flagWebAddr
	}
	if flags.Changed("host-key") {
		cfg.SSH.HostKeyPath = flagHostKey
	}
	if flags.Changed("idle-timeout") {
		cfg.SSH.IdleTimeout = flagIdleTimeout
	}
	if cfg.SSH.Address == "" && cfg.Web.Address == "" {
		fail("nothing to serve: set --ssh or --web")
	}

	logger := newLogger(os.Stderr, cfg.Log, "tile2048")

	backend, err := openBackend(cfg)
	if err != nil {
		fail("opening storage: %v", err)
	}
	defer backend.Close()

	board := cfg.GameConfig(flagSeed)

	var servers []server
	if cfg.SSH.Address != "" {
		srv, err := tui.NewSSHServer(cfg.SSH, board, backend, logger.WithPrefix("tile2048-ssh"))
		if err != nil {
			backend.Close()
			fail("creating SSH server: %v", err)
		}
		servers = append(servers, srv)
		fmt.Printf("SSH:       ssh %s\n", cfg.SSH.Address)
	}
	if cfg.Web.Address != "" {
		srv := web.NewServer(cfg.Web, board, backend, logger.WithPrefix("tile2048-web"))
		servers = append(servers, srv)
		fmt.Printf("WebSocket: ws://%s/ws?player=<id>\n", cfg.Web.Address)
	}
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serveAll(ctx, servers); err != nil {
		backend.Close()
		fail("%v", err)
	}
}

// serveAll runs every server until ctx is cancelled. The first failure stops
// the others.
func serveAll(ctx context.Context, servers []server) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			if err := srv.ListenAndServe(ctx); err != nil {
				return fmt.Errorf("%s: %w", srv.Addr(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
