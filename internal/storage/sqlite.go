package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tile2048/internal/config"
	"github.com/vovakirdan/tile2048/internal/game"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	dbPath, err := config.ExpandHome(dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer at a time; SSH and web sessions share the handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			player TEXT PRIMARY KEY,
			grid_rows INTEGER NOT NULL,
			grid_cols INTEGER NOT NULL,
			grid TEXT NOT NULL,
			score INTEGER NOT NULL,
			best_score INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS best_scores (
			player TEXT PRIMARY KEY,
			score INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player TEXT NOT NULL,
			score INTEGER NOT NULL,
			max_tile INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_player ON scores(player);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(player, score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Player returns the persistence adapter for one player.
func (s *Store) Player(id string) PlayerStore {
	return &sqlitePlayer{store: s, player: id}
}

// SaveSession stores the in-progress session of a player, replacing any
// previous one, and raises the player's best score if needed.
func (s *Store) SaveSession(ctx context.Context, player string, snap game.Snapshot) error {
	grid, err := json.Marshal(snap.Grid)
	if err != nil {
		return fmt.Errorf("storage: cannot encode grid: %w", err)
	}
	cols := 0
	if len(snap.Grid) > 0 {
		cols = len(snap.Grid[0])
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (player, grid_rows, grid_cols, grid, score, best_score, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(player) DO UPDATE SET
			grid_rows = excluded.grid_rows,
			grid_cols = excluded.grid_cols,
			grid = excluded.grid,
			score = excluded.score,
			best_score = excluded.best_score,
			updated_at = CURRENT_TIMESTAMP`,
		player, len(snap.Grid), cols, string(grid), snap.Score, snap.BestScore,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save session: %w", err)
	}

	if err := raiseBest(ctx, tx, player, snap.BestScore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit session: %w", err)
	}
	return nil
}

// LoadSession returns the saved session of a player. The second result is
// false when there is none. A row that cannot be decoded yields an error
// wrapping game.ErrCorruptSnapshot.
func (s *Store) LoadSession(ctx context.Context, player string) (game.Snapshot, bool, error) {
	var (
		snap       game.Snapshot
		rows, cols int
		grid       string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT grid_rows, grid_cols, grid, score, best_score
		 FROM sessions WHERE player = ?`,
		player,
	).Scan(&rows, &cols, &grid, &snap.Score, &snap.BestScore)

	if errors.Is(err, sql.ErrNoRows) {
		return game.Snapshot{}, false, nil
	}
	if err != nil {
		return game.Snapshot{}, false, fmt.Errorf("storage: cannot query session: %w", err)
	}

	if err := json.Unmarshal([]byte(grid), &snap.Grid); err != nil {
		return game.Snapshot{}, false, corrupt(player, err)
	}
	if len(snap.Grid) != rows {
		return game.Snapshot{}, false, corrupt(player, fmt.Errorf("grid has %d rows, row says %d", len(snap.Grid), rows))
	}
	for _, row := range snap.Grid {
		if len(row) != cols {
			return game.Snapshot{}, false, corrupt(player, fmt.Errorf("grid row has %d columns, row says %d", len(row), cols))
		}
	}
	return snap, true, nil
}

// ClearSession deletes the saved session of a player.
func (s *Store) ClearSession(ctx context.Context, player string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE player = ?", player); err != nil {
		return fmt.Errorf("storage: cannot clear session: %w", err)
	}
	return nil
}

// BestScore returns the recorded best score of a player, or 0.
func (s *Store) BestScore(ctx context.Context, player string) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		"SELECT score FROM best_scores WHERE player = ?",
		player,
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query best score: %w", err)
	}
	return score, nil
}

// SaveScore records a finished game and raises the player's best score.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(ctx context.Context, player string, score, maxTile int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO scores (player, score, max_tile) VALUES (?, ?, ?)",
		player, score, maxTile,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	if err := raiseBest(ctx, tx, player, score); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit score: %w", err)
	}
	return id, nil
}

func raiseBest(ctx context.Context, tx *sql.Tx, player string, score int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO best_scores (player, score) VALUES (?, ?)
		 ON CONFLICT(player) DO UPDATE SET
			score = MAX(best_scores.score, excluded.score),
			updated_at = CURRENT_TIMESTAMP`,
		player, score,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot update best score: %w", err)
	}
	return nil
}

// TopScores retrieves the top N finished games. An empty player selects
// every player. Results are ordered by score descending.
func (s *Store) TopScores(ctx context.Context, player string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player, score, max_tile, created_at
		 FROM scores
		 WHERE ? = '' OR player = ?
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		player, player, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Player, &e.Score, &e.MaxTile, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score of a player, including the best score
// reached in an unfinished game. Returns 0 if nothing is recorded.
func (s *Store) HighScore(ctx context.Context, player string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(score) FROM (
			SELECT score FROM scores WHERE player = ?
			UNION ALL
			SELECT score FROM best_scores WHERE player = ?
		)`,
		player, player,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearScores deletes the score history of a player. The best score is kept.
func (s *Store) ClearScores(ctx context.Context, player string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM scores WHERE player = ?", player)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// Reset deletes the session, best score and score history of a player.
func (s *Store) Reset(ctx context.Context, player string) error {
	return s.exec(ctx, "reset player",
		[]string{
			"DELETE FROM sessions WHERE player = ?",
			"DELETE FROM best_scores WHERE player = ?",
			"DELETE FROM scores WHERE player = ?",
		},
		player,
	)
}

// ResetAll deletes every session and score.
func (s *Store) ResetAll(ctx context.Context) error {
	return s.exec(ctx, "reset all",
		[]string{
			"DELETE FROM sessions",
			"DELETE FROM best_scores",
			"DELETE FROM scores",
		},
	)
}

func (s *Store) exec(ctx context.Context, what string, stmts []string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("storage: cannot %s: %w", what, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot %s: %w", what, err)
	}
	return nil
}

// PlayerStats contains aggregated statistics for a player.
type PlayerStats struct {
	Player     string
	GamesCount int
	HighScore  int
	AvgScore   float64
	MaxTile    int
	LastPlayed time.Time
}

// Stats retrieves aggregated statistics for every player with a finished
// game, ordered by high score.
func (s *Store) Stats(ctx context.Context) ([]PlayerStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player, COUNT(*), MAX(score), AVG(score), MAX(max_tile), MAX(created_at)
		 FROM scores
		 GROUP BY player
		 ORDER BY MAX(score) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	defer rows.Close()

	var stats []PlayerStats
	for rows.Next() {
		var st PlayerStats
		var lastPlayed any
		if err := rows.Scan(&st.Player, &st.GamesCount, &st.HighScore, &st.AvgScore, &st.MaxTile, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastPlayed = parseTime(lastPlayed)
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// parseTime handles both time.Time and the SQLite text format.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// sqlitePlayer binds a Store to one player id.
type sqlitePlayer struct {
	store  *Store
	player string
}

func (p *sqlitePlayer) Save(ctx context.Context, snap game.Snapshot) error {
	return p.store.SaveSession(ctx, p.player, snap)
}

func (p *sqlitePlayer) Load(ctx context.Context) (game.Snapshot, bool, error) {
	return p.store.LoadSession(ctx, p.player)
}

func (p *sqlitePlayer) Clear(ctx context.Context) error {
	return p.store.ClearSession(ctx, p.player)
}

func (p *sqlitePlayer) BestScore(ctx context.Context) (int, error) {
	return p.store.BestScore(ctx, p.player)
}

func (p *sqlitePlayer) RecordScore(ctx context.Context, score, maxTile int) error {
	_, err := p.store.SaveScore(ctx, p.player, score, maxTile)
	return err
}

var _ Backend = (*Store)(nil)
