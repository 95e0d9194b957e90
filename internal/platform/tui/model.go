package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/game"
	"github.com/vovakirdan/tile2048/internal/platform"
)

type phase int

const (
	phasePlaying phase = iota
	phaseRestore       // a saved game waits for y/n
	phaseConfirmReset  // r was pressed, waiting for y/n
	phaseGameOver
)

// Model is the Bubble Tea model of a game session. The controller runs
// moves synchronously inside Update, so the model only keeps UI state.
type Model struct {
	ctx      context.Context
	session  *platform.Session
	keys     *KeyMapper
	help     help.Model
	swipe    *core.Swipe
	styles   Styles
	config   core.RuntimeConfig
	phase    phase
	back     phase // phase to return to when a reset is declined
	status   string
	quitting bool
}

// NewModel creates a model for an opened session.
func NewModel(ctx context.Context, sess *platform.Session, styles Styles, cfg core.RuntimeConfig) Model {
	m := Model{
		ctx:     ctx,
		session: sess,
		keys:    NewKeyMapper(),
		help:    help.New(),
		swipe:   core.NewSwipe(core.Rect{}),
		styles:  styles,
		config:  cfg,
	}
	m.help.Width = cfg.ScreenW
	m.swipe.SetBounds(m.boardBounds())

	switch {
	case sess.Pending != nil:
		m.phase = phaseRestore
	case sess.Controller.State() == game.StateGameOver:
		m.phase = phaseGameOver
	}
	return m
}

// Init sets the window title.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("2048")
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keys.MapKey(msg)

	switch action {
	case core.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case core.ActionHelp:
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case core.ActionNone:
		return m, nil
	}

	switch m.phase {
	case phaseRestore:
		m.handleRestorePrompt(action)

	case phaseConfirmReset:
		switch action {
		case core.ActionConfirm:
			m.session.Controller.ResetGame(m.ctx)
			m.phase = phasePlaying
			m.status = "New game"
		case core.ActionCancel:
			m.phase = m.back
			m.status = ""
		}

	case phaseGameOver:
		switch action {
		case core.ActionRestart, core.ActionConfirm:
			m.session.Controller.ResetGame(m.ctx)
			m.phase = phasePlaying
			m.status = "New game"
		}

	default:
		if dir, ok := action.Direction(); ok {
			m.move(dir)
			return m, nil
		}
		if action == core.ActionRestart {
			m.back = m.phase
			m.phase = phaseConfirmReset
		}
	}

	return m, nil
}

func (m *Model) handleRestorePrompt(action core.Action) {
	var restore bool
	switch action {
	case core.ActionConfirm:
		restore = true
	case core.ActionCancel, core.ActionRestart:
		restore = false
	default:
		return
	}

	m.phase = phasePlaying
	if err := m.session.Resolve(m.ctx, restore); err != nil {
		m.status = "Saved game could not be restored, started a new one"
		return
	}
	if restore {
		m.status = "Game restored"
	} else {
		m.status = "New game"
	}
}

// handleMouse turns a press-drag-release into a move.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	p := core.Point{X: msg.X, Y: msg.Y}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.swipe.Begin(p)
		}
	case tea.MouseActionRelease:
		dir, ok := m.swipe.End(p)
		if ok && m.phase == phasePlaying {
			m.move(dir)
		}
	}

	return m, nil
}

// handleResize processes window resize events.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.config.ScreenW = msg.Width
	m.config.ScreenH = msg.Height
	m.help.Width = msg.Width
	m.swipe.SetBounds(m.boardBounds())
	return m, nil
}

// boardBounds approximates where the centred board lands on screen. The
// vertical slack covers the header and prompt lines around it.
func (m Model) boardBounds() core.Rect {
	v := m.session.Controller.View()
	w, h := boardSize(v.Rows(), v.Cols())
	if m.config.ScreenW <= 0 || m.config.ScreenH <= 0 || w == 0 {
		return core.Rect{}
	}
	screen := core.NewRect(0, 0, m.config.ScreenW, m.config.ScreenH)
	return screen.Centered(min(w, screen.W), min(h+8, screen.H))
}

func (m *Model) move(dir game.Direction) {
	out := m.session.Controller.ApplyMove(m.ctx, dir)
	switch {
	case out.GameOver:
		m.phase = phaseGameOver
		m.status = ""
	case out.Changed:
		m.status = ""
	}
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.styles
	v := m.session.Controller.View()

	var board string
	if m.phase == phaseRestore {
		board = s.Status.Render("A saved game was found.")
	} else {
		board = RenderBoard(s, v)
	}

	lines := []string{
		s.Title.Render("2048") + "  " + s.Label.Render(m.session.Player),
		RenderScoreLine(s, v),
		"",
		board,
		"",
		m.promptLine(v),
		"",
		m.help.View(m.keys.Keys()),
	}
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)

	if m.config.ScreenW <= 0 || m.config.ScreenH <= 0 {
		return content
	}
	return lipgloss.Place(m.config.ScreenW, m.config.ScreenH, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) promptLine(v game.View) string {
	s := m.styles
	switch m.phase {
	case phaseRestore:
		return s.Prompt.Render("Continue your saved game? (y/n)")
	case phaseConfirmReset:
		return s.Prompt.Render("Start a new game? (y/n)")
	case phaseGameOver:
		return s.Over.Render(fmt.Sprintf("Game over! Score %d, best tile %d.", v.Score, v.MaxTile)) +
			"  " + s.Label.Render("r to play again")
	}
	return s.Status.Render(m.status)
}

// Run starts the Bubble Tea program for sess on the local terminal.
func Run(ctx context.Context, sess *platform.Session, cfg core.RuntimeConfig) error {
	model := NewModel(ctx, sess, NewStyles(nil), cfg)

	p := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
