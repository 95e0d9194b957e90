package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/tile2048/internal/game"
)

func openTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("OpenFileStore() failed: %v", err)
	}
	return store
}

func TestFileStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestFileStore(t)
	p := store.Player("alice")

	if _, ok, err := p.Load(ctx); err != nil || ok {
		t.Fatalf("Load() on empty store = (%v, %v), want (false, nil)", ok, err)
	}

	want := sampleSnapshot()
	if err := p.Save(ctx, want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, ok, err := p.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load() = (%v, %v)", ok, err)
	}
	if !got.Equal(want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
	if best, _ := p.BestScore(ctx); best != want.BestScore {
		t.Errorf("BestScore() = %d, want %d", best, want.BestScore)
	}

	if err := p.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, ok, _ := p.Load(ctx); ok {
		t.Error("Load() found a session after Clear()")
	}
	if best, _ := p.BestScore(ctx); best != want.BestScore {
		t.Error("Clear() dropped the best score")
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	ctx := context.Background()
	store := openTestFileStore(t)

	if err := os.WriteFile(filepath.Join(store.dir, "alice.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	p := store.Player("alice")
	if _, _, err := p.Load(ctx); !errors.Is(err, game.ErrCorruptSnapshot) {
		t.Errorf("Load() error = %v, want ErrCorruptSnapshot", err)
	}

	// clearing replaces the broken document
	if err := p.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, ok, err := p.Load(ctx); err != nil || ok {
		t.Errorf("Load() after Clear() = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestFileStoreScores(t *testing.T) {
	ctx := context.Background()
	store := openTestFileStore(t)

	store.Player("alice").RecordScore(ctx, 100, 16)
	store.Player("alice").RecordScore(ctx, 300, 64)
	store.Player("bob").RecordScore(ctx, 200, 32)

	top, err := store.TopScores(ctx, "", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("TopScores() returned %d entries, want 3", len(top))
	}
	if top[0].Score != 300 || top[1].Player != "bob" || top[2].Score != 100 {
		t.Errorf("TopScores() = %+v", top)
	}

	top, _ = store.TopScores(ctx, "alice", 1)
	if len(top) != 1 || top[0].Score != 300 {
		t.Errorf("TopScores(alice, 1) = %+v", top)
	}

	if high, _ := store.HighScore(ctx, "alice"); high != 300 {
		t.Errorf("HighScore(alice) = %d, want 300", high)
	}
	if best, _ := store.Player("bob").BestScore(ctx); best != 200 {
		t.Errorf("bob BestScore() = %d, want 200", best)
	}
}

func TestFileStoreReset(t *testing.T) {
	ctx := context.Background()
	store := openTestFileStore(t)

	store.Player("alice").Save(ctx, sampleSnapshot())
	store.Player("bob").Save(ctx, sampleSnapshot())

	if err := store.Reset(ctx, "alice"); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if _, ok, _ := store.Player("alice").Load(ctx); ok {
		t.Error("alice's session survived Reset()")
	}
	if err := store.Reset(ctx, "nobody"); err != nil {
		t.Errorf("Reset() of unknown player failed: %v", err)
	}

	if err := store.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll() failed: %v", err)
	}
	if _, ok, _ := store.Player("bob").Load(ctx); ok {
		t.Error("bob's session survived ResetAll()")
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alice", "alice.json"},
		{"../etc/passwd", ".._etc_passwd.json"},
		{"user@host", "user_host.json"},
		{"", "_.json"},
		{"..", "_.json"},
	}
	for _, tc := range tests {
		if got := fileName(tc.in); got != tc.want {
			t.Errorf("fileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
