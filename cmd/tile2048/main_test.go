package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tile2048/internal/config"
	"github.com/vovakirdan/tile2048/internal/storage"
)

func flagCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&flagDBPath, "db", "", "")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "", "")
	return cmd
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name    string
		set     map[string]string
		check   func(config.Config) bool
		wantErr bool
	}{
		{
			name:  "no flags keeps config",
			check: func(c config.Config) bool { return c.Log.Level == "info" },
		},
		{
			name:  "db switches to sqlite",
			set:   map[string]string{"db": "/tmp/x.db"},
			check: func(c config.Config) bool { return c.Storage.Driver == config.DriverSQLite && c.Storage.DBPath == "/tmp/x.db" },
		},
		{
			name:  "log level",
			set:   map[string]string{"log-level": "debug"},
			check: func(c config.Config) bool { return c.Log.Level == "debug" },
		},
		{
			name:    "bad log level",
			set:     map[string]string{"log-level": "chatty"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := flagCommand()
			for k, v := range tc.set {
				if err := cmd.Flags().Set(k, v); err != nil {
					t.Fatalf("Set(%s) failed: %v", k, err)
				}
			}

			cfg := config.Default()
			cfg.Storage.Driver = config.DriverFile
			err := applyFlags(&cfg, cmd)
			if tc.wantErr {
				if err == nil {
					t.Fatal("applyFlags() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("applyFlags() failed: %v", err)
			}
			if !tc.check(cfg) {
				t.Errorf("unexpected config: %+v", cfg)
			}
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "warn"}, "test")

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "test") {
		t.Errorf("log output = %q", out)
	}

	if newLogger(io.Discard, config.LogConfig{Level: "bogus"}, "").GetLevel() != log.InfoLevel {
		t.Error("unknown level should fall back to info")
	}
}

func TestOpenLogFile(t *testing.T) {
	if f, err := openLogFile(config.LogConfig{}); f != nil || err != nil {
		t.Errorf("openLogFile(empty) = %v, %v, want nil, nil", f, err)
	}

	path := filepath.Join(t.TempDir(), "logs", "tile2048.log")
	f, err := openLogFile(config.LogConfig{File: path})
	if err != nil {
		t.Fatalf("openLogFile() failed: %v", err)
	}
	defer f.Close()
	if _, err := f.Write([]byte("line\n")); err != nil {
		t.Errorf("Write() failed: %v", err)
	}
}

func seedScores(t *testing.T, backend storage.Backend) {
	t.Helper()
	ctx := context.Background()
	for _, r := range []struct {
		player string
		score  int
		tile   int
	}{{"alice", 2400, 256}, {"bob", 900, 64}} {
		if err := backend.Player(r.player).RecordScore(ctx, r.score, r.tile); err != nil {
			t.Fatalf("RecordScore() failed: %v", err)
		}
	}
}

func TestPrintScores(t *testing.T) {
	store, err := storage.OpenFileStore(filepath.Join(t.TempDir(), "s"))
	if err != nil {
		t.Fatalf("OpenFileStore() failed: %v", err)
	}
	ctx := context.Background()

	var empty bytes.Buffer
	if err := printScores(ctx, &empty, store, "", 10); err != nil {
		t.Fatalf("printScores() failed: %v", err)
	}
	if !strings.Contains(empty.String(), "No scores recorded yet.") {
		t.Errorf("empty output = %q", empty.String())
	}

	seedScores(t, store)

	var all bytes.Buffer
	if err := printScores(ctx, &all, store, "", 10); err != nil {
		t.Fatalf("printScores() failed: %v", err)
	}
	out := all.String()
	if strings.Index(out, "alice") > strings.Index(out, "bob") {
		t.Errorf("scores not ordered best first:\n%s", out)
	}

	var mine bytes.Buffer
	if err := printScores(ctx, &mine, store, "bob", 10); err != nil {
		t.Fatalf("printScores() failed: %v", err)
	}
	if strings.Contains(mine.String(), "alice") || !strings.Contains(mine.String(), "Best: 900") {
		t.Errorf("player output = %q", mine.String())
	}
}

func TestPrintStats(t *testing.T) {
	ctx := context.Background()

	fileStore, err := storage.OpenFileStore(filepath.Join(t.TempDir(), "s"))
	if err != nil {
		t.Fatalf("OpenFileStore() failed: %v", err)
	}
	if err := printStats(ctx, io.Discard, fileStore); err == nil {
		t.Error("printStats() should refuse the file store")
	}

	store, err := storage.Open(filepath.Join(t.TempDir(), "t.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()
	seedScores(t, store)

	var buf bytes.Buffer
	if err := printStats(ctx, &buf, store); err != nil {
		t.Fatalf("printStats() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "alice") || !strings.Contains(buf.String(), "2400") {
		t.Errorf("stats output = %q", buf.String())
	}
}

type fakeServer struct {
	addr string
	err  error
}

func (f fakeServer) ListenAndServe(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func (f fakeServer) Addr() string { return f.addr }

func TestServeAllStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	servers := []server{
		fakeServer{addr: ":1"},
		fakeServer{addr: ":2", err: boom},
	}

	done := make(chan error, 1)
	go func() { done <- serveAll(context.Background(), servers) }()

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("serveAll() = %v, want boom", err)
		}
		if err != nil && !strings.HasPrefix(err.Error(), ":2: ") {
			t.Errorf("serveAll() = %q, want the failing server's address", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serveAll() did not stop after a server failed")
	}
}

func TestServeAllStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serveAll(ctx, []server{fakeServer{addr: ":1"}}); err != nil {
		t.Errorf("serveAll() = %v, want nil", err)
	}
}
