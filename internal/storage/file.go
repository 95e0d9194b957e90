package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/tile2048/internal/config"
	"github.com/vovakirdan/tile2048/internal/game"
)

// FileStore keeps one JSON document per player in a directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// playerFile is the on-disk layout of a player document.
type playerFile struct {
	Player    string         `json:"player"`
	Session   *game.Snapshot `json:"session,omitempty"`
	BestScore int            `json:"bestScore"`
	History   []ScoreEntry   `json:"history,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// OpenFileStore creates the directory if needed.
func OpenFileStore(dir string) (*FileStore, error) {
	dir, err := config.ExpandHome(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Close is a no-op.
func (f *FileStore) Close() error { return nil }

// Player returns the persistence adapter for one player.
func (f *FileStore) Player(id string) PlayerStore {
	return &filePlayer{store: f, player: id}
}

// fileName maps a player id to a safe file name.
func fileName(player string) string {
	var b strings.Builder
	for _, r := range player {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || strings.Trim(name, ".") == "" {
		name = "_"
	}
	return name + ".json"
}

func (f *FileStore) path(player string) string {
	return filepath.Join(f.dir, fileName(player))
}

// read returns the player's document. A missing file yields an empty one.
func (f *FileStore) read(player string) (playerFile, error) {
	doc := playerFile{Player: player}
	data, err := os.ReadFile(f.path(player))
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("storage: cannot read %s: %w", f.path(player), err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return playerFile{Player: player}, corrupt(player, err)
	}
	return doc, nil
}

// write replaces the player's document through a temporary file.
func (f *FileStore) write(doc playerFile) error {
	doc.UpdatedAt = f.now().UTC()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: cannot encode player %q: %w", doc.Player, err)
	}

	target := f.path(doc.Player)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: cannot write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("storage: cannot replace %s: %w", target, err)
	}
	return nil
}

// update applies fn to the player's document. A corrupt document is replaced
// by an empty one so that new state can still be written.
func (f *FileStore) update(player string, fn func(*playerFile)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(player)
	if err != nil && !errors.Is(err, game.ErrCorruptSnapshot) {
		return err
	}
	fn(&doc)
	return f.write(doc)
}

// TopScores returns the best finished games across the selected players.
func (f *FileStore) TopScores(_ context.Context, player string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	docs, err := f.docs(player)
	if err != nil {
		return nil, err
	}

	var entries []ScoreEntry
	for _, doc := range docs {
		entries = append(entries, doc.History...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// HighScore returns the best score of a player, or 0.
func (f *FileStore) HighScore(_ context.Context, player string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(player)
	if err != nil {
		return 0, err
	}
	best := doc.BestScore
	for _, e := range doc.History {
		best = max(best, e.Score)
	}
	return best, nil
}

// docs reads one player's document, or every document when player is empty.
// Unreadable documents are skipped when listing.
func (f *FileStore) docs(player string) ([]playerFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if player != "" {
		doc, err := f.read(player)
		if err != nil {
			return nil, err
		}
		return []playerFile{doc}, nil
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot read directory %s: %w", f.dir, err)
	}

	var docs []playerFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, entry.Name()))
		if err != nil {
			continue
		}
		var doc playerFile
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Reset deletes a player's document.
func (f *FileStore) Reset(_ context.Context, player string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(player)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: cannot reset player %q: %w", player, err)
	}
	return nil
}

// ResetAll deletes every player document.
func (f *FileStore) ResetAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("storage: cannot read directory %s: %w", f.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, entry.Name())); err != nil {
			return fmt.Errorf("storage: cannot remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// filePlayer binds a FileStore to one player id.
type filePlayer struct {
	store  *FileStore
	player string
}

func (p *filePlayer) Save(_ context.Context, snap game.Snapshot) error {
	return p.store.update(p.player, func(doc *playerFile) {
		doc.Session = &snap
		doc.BestScore = max(doc.BestScore, snap.BestScore)
	})
}

func (p *filePlayer) Load(_ context.Context) (game.Snapshot, bool, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	doc, err := p.store.read(p.player)
	if err != nil {
		return game.Snapshot{}, false, err
	}
	if doc.Session == nil {
		return game.Snapshot{}, false, nil
	}
	return *doc.Session, true, nil
}

func (p *filePlayer) Clear(_ context.Context) error {
	return p.store.update(p.player, func(doc *playerFile) {
		doc.Session = nil
	})
}

func (p *filePlayer) BestScore(_ context.Context) (int, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	doc, err := p.store.read(p.player)
	if err != nil {
		return 0, err
	}
	return doc.BestScore, nil
}

func (p *filePlayer) RecordScore(_ context.Context, score, maxTile int) error {
	return p.store.update(p.player, func(doc *playerFile) {
		doc.History = append(doc.History, ScoreEntry{
			ID:        int64(len(doc.History) + 1),
			Player:    p.player,
			Score:     score,
			MaxTile:   maxTile,
			CreatedAt: p.store.now().UTC(),
		})
		doc.BestScore = max(doc.BestScore, score)
	})
}

var _ Backend = (*FileStore)(nil)
