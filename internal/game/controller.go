package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/looplab/fsm"
)

// Persistence stores the in-progress session between runs.
type Persistence interface {
	Save(ctx context.Context, snap Snapshot) error
	// Load returns false when nothing has been saved.
	Load(ctx context.Context) (Snapshot, bool, error)
	Clear(ctx context.Context) error
}

// ScoreKeeper is implemented by persistence adapters that also keep a score
// history. The controller uses it when available.
type ScoreKeeper interface {
	BestScore(ctx context.Context) (int, error)
	RecordScore(ctx context.Context, score, maxTile int) error
}

// Presenter is notified after the session changes. Implementations may call
// back into the controller.
type Presenter interface {
	Render(v View)
	GameOver(v View)
}

// Config holds the board parameters of a session.
type Config struct {
	Rows          int
	Cols          int
	SpawnFourProb float64
	Seed          int64 // 0 selects a time-based seed
}

// DefaultConfig returns the classic 4x4 setup.
func DefaultConfig() Config {
	return Config{
		Rows:          DefaultSize,
		Cols:          DefaultSize,
		SpawnFourProb: DefaultSpawnFourProb,
	}
}

// MoveOutcome is returned by ApplyMove.
type MoveOutcome struct {
	MoveResult
	Spawned      Cell
	SpawnedValue int  // 0 if nothing spawned
	GameOver     bool // The session is (now) over
	Busy         bool // Dropped because another move was still running
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore attaches a persistence adapter.
func WithStore(p Persistence) Option {
	return func(c *Controller) { c.store = p }
}

// WithPresenter attaches a presentation adapter.
func WithPresenter(p Presenter) Option {
	return func(c *Controller) { c.presenter = p }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

const (
	eventStart  = "start"
	eventFinish = "finish"
)

// Controller owns a game session and turns player input into state
// transitions: uninitialized -> playing -> game_over -> playing.
type Controller struct {
	moving sync.Mutex // held for the whole of ApplyMove
	mu     sync.Mutex

	cfg     Config
	machine *fsm.FSM
	grid    *Grid
	mask    *MergeMask
	spawner *Spawner
	score   int
	best    int

	store     Persistence
	presenter Presenter
	logger    *log.Logger
}

// NewController creates a controller in the uninitialized state. Call Boot,
// StartNewGame or RestoreGame before applying moves.
func NewController(cfg Config, opts ...Option) (*Controller, error) {
	grid, err := NewGrid(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	c := &Controller{
		cfg:     cfg,
		grid:    grid,
		mask:    NewMergeMask(grid),
		spawner: NewSpawner(rand.New(rand.NewSource(seed)), cfg.SpawnFourProb),
		machine: fsm.NewFSM(
			string(StateUninitialized),
			fsm.Events{
				{Name: eventStart, Src: []string{string(StateUninitialized), string(StatePlaying), string(StateGameOver)}, Dst: string(StatePlaying)},
				{Name: eventFinish, Src: []string{string(StatePlaying)}, Dst: string(StateGameOver)},
			},
			fsm.Callbacks{},
		),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Boot prepares the session on start-up. With no saved game it starts a new
// one and returns nil. A saved game that fails validation is discarded and a
// new game started. A valid saved game is returned without being applied so
// the caller can ask the player whether to restore it; the controller stays
// uninitialized until RestoreGame or ResetGame is called.
func (c *Controller) Boot(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	v, pending := c.bootLocked(ctx)
	c.mu.Unlock()

	if pending != nil {
		return pending, nil
	}
	c.render(v)
	return nil, nil
}

func (c *Controller) bootLocked(ctx context.Context) (View, *Snapshot) {
	if keeper, ok := c.store.(ScoreKeeper); ok {
		best, err := keeper.BestScore(ctx)
		if err != nil {
			c.logger.Warn("could not load best score", "error", err)
		} else if best > c.best {
			c.best = best
		}
	}

	if c.store == nil {
		c.startLocked(ctx)
		return c.viewLocked(), nil
	}

	snap, ok, err := c.store.Load(ctx)
	switch {
	case err != nil:
		c.logger.Warn("discarding unreadable saved game", "error", err)
		c.clearSaved(ctx)
	case !ok:
		c.logger.Debug("no saved game")
	default:
		if verr := snap.Validate(c.grid.Rows(), c.grid.Cols()); verr != nil {
			c.logger.Warn("discarding corrupt saved game", "error", verr)
			c.clearSaved(ctx)
			break
		}
		if snap.BestScore > c.best {
			c.best = snap.BestScore
		}
		return View{}, &snap
	}

	c.startLocked(ctx)
	return c.viewLocked(), nil
}

// StartNewGame clears the board, zeroes the score and spawns two tiles.
func (c *Controller) StartNewGame(ctx context.Context) {
	c.mu.Lock()
	c.startLocked(ctx)
	v := c.viewLocked()
	c.mu.Unlock()

	c.render(v)
}

// ResetGame abandons the current session and starts a new one. The best
// score is kept.
func (c *Controller) ResetGame(ctx context.Context) {
	c.logger.Info("game reset", "score", c.Score())
	c.StartNewGame(ctx)
}

// RestoreGame replaces the session with snap. A snapshot that does not fit
// the configured grid is rejected and the session is left untouched.
func (c *Controller) RestoreGame(ctx context.Context, snap Snapshot) error {
	c.mu.Lock()
	if err := snap.Validate(c.grid.Rows(), c.grid.Cols()); err != nil {
		c.mu.Unlock()
		return err
	}

	for r, row := range snap.Grid {
		for col, v := range row {
			c.grid.Set(r, col, v)
		}
	}
	c.score = snap.Score
	c.best = max(c.best, snap.BestScore, snap.Score)
	c.transition(ctx, eventStart)
	v := c.viewLocked()
	c.mu.Unlock()

	c.logger.Info("game restored", "score", v.Score, "best", v.BestScore)
	c.render(v)
	return nil
}

// ApplyMove runs one move. It never fails: an illegal direction is a no-op,
// and a board with no legal move ends the game without being modified.
// Calls made while another move is still running are dropped.
func (c *Controller) ApplyMove(ctx context.Context, dir Direction) MoveOutcome {
	if !c.moving.TryLock() {
		c.logger.Debug("move dropped, controller busy", "direction", dir)
		return MoveOutcome{Busy: true}
	}
	defer c.moving.Unlock()

	c.mu.Lock()
	out := c.applyMoveLocked(ctx, dir)
	v := c.viewLocked()
	c.mu.Unlock()

	switch {
	case out.GameOver:
		if c.presenter != nil {
			c.presenter.GameOver(v)
		}
	case out.Changed:
		c.render(v)
	}
	return out
}

func (c *Controller) render(v View) {
	if c.presenter != nil {
		c.presenter.Render(v)
	}
}

func (c *Controller) applyMoveLocked(ctx context.Context, dir Direction) MoveOutcome {
	switch StateType(c.machine.Current()) {
	case StateGameOver:
		return MoveOutcome{GameOver: true}
	case StateUninitialized:
		return MoveOutcome{}
	}

	if !HasAnyMove(c.grid) {
		c.transition(ctx, eventFinish)
		c.finishLocked(ctx)
		return MoveOutcome{GameOver: true}
	}

	res := Resolve(c.grid, c.mask, dir)
	out := MoveOutcome{MoveResult: res}
	if !res.Changed {
		return out
	}

	c.score += res.ScoreDelta
	if c.score > c.best {
		c.best = c.score
	}

	if cell, value, ok := c.spawner.Spawn(c.grid); ok {
		out.Spawned = cell
		out.SpawnedValue = value
	}

	c.logger.Debug("move applied",
		"direction", dir,
		"score_delta", res.ScoreDelta,
		"score", c.score,
	)
	c.saveLocked(ctx)
	return out
}

// startLocked resets the board and moves to playing.
func (c *Controller) startLocked(ctx context.Context) {
	c.grid.Clear()
	c.mask.Reset()
	c.score = 0
	c.spawner.Spawn(c.grid)
	c.spawner.Spawn(c.grid)
	c.transition(ctx, eventStart)
	c.saveLocked(ctx)
}

// finishLocked records the final score and drops the saved session.
func (c *Controller) finishLocked(ctx context.Context) {
	c.logger.Info("game over", "score", c.score, "max_tile", c.grid.MaxTile())

	if keeper, ok := c.store.(ScoreKeeper); ok {
		if err := keeper.RecordScore(ctx, c.score, c.grid.MaxTile()); err != nil {
			c.logger.Error("could not record score", "error", err)
		}
	}
	c.clearSaved(ctx)
}

func (c *Controller) saveLocked(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, c.snapshotLocked()); err != nil {
		c.logger.Error("could not save game", "error", err)
	}
}

func (c *Controller) clearSaved(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("could not clear saved game", "error", err)
	}
}

// transition fires an fsm event. Restarting from playing is a self
// transition, which fsm reports as NoTransitionError.
func (c *Controller) transition(ctx context.Context, event string) {
	err := c.machine.Event(ctx, event)
	if err == nil {
		return
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return
	}
	c.logger.Error("state transition failed",
		"event", event,
		"state", c.machine.Current(),
		"error", err,
	)
}

// State returns the current lifecycle state.
func (c *Controller) State() StateType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StateType(c.machine.Current())
}

// Score returns the current score.
func (c *Controller) Score() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score
}

// BestScore returns the best score seen so far.
func (c *Controller) BestScore() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.best
}

// View returns a copy of the session for rendering.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	return View{
		Grid:      c.grid.Values(),
		Score:     c.score,
		BestScore: c.best,
		MaxTile:   c.grid.MaxTile(),
		State:     StateType(c.machine.Current()),
	}
}

// Snapshot returns the persistable form of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Grid:      c.grid.Values(),
		Score:     c.score,
		BestScore: c.best,
	}
}

// String describes the controller for logs.
func (c *Controller) String() string {
	return fmt.Sprintf("game.Controller(%dx%d, %s)", c.cfg.Rows, c.cfg.Cols, c.State())
}
