package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tile2048/internal/game"
)

const (
	tileWidth  = 7
	tileHeight = 3
)

// tileColors is the classic palette, keyed by tile value.
var tileColors = map[int]string{
	0:    "#cdc1b4",
	2:    "#eee4da",
	4:    "#ede0c8",
	8:    "#f2b179",
	16:   "#f59563",
	32:   "#f67c5f",
	64:   "#f65e3b",
	128:  "#edcf72",
	256:  "#edcc61",
	512:  "#edc850",
	1024: "#edc53f",
	2048: "#edc22e",
}

const (
	superTileColor = "#3c3a32"
	darkText       = "#776e65"
	lightText      = "#f9f6f2"
	boardColor     = "#bbada0"
)

// Styles holds the lipgloss styles of the game screen. They are bound to a
// renderer so SSH sessions detect the remote terminal's colour profile.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Board    lipgloss.Style
	Prompt   lipgloss.Style
	Over     lipgloss.Style
	Status   lipgloss.Style
	tile     lipgloss.Style
}

// NewStyles creates styles for r. A nil renderer uses the default one.
func NewStyles(r *lipgloss.Renderer) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Styles{
		Title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#edc22e")),
		Label:    r.NewStyle().Foreground(lipgloss.Color("245")),
		Value:    r.NewStyle().Bold(true),
		Board:    r.NewStyle().Background(lipgloss.Color(boardColor)).Padding(0, 1),
		Prompt:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
		Over:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Status:   r.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		tile: r.NewStyle().
			Width(tileWidth).
			Height(tileHeight).
			Align(lipgloss.Center, lipgloss.Center).
			Bold(true),
	}
}

// Tile returns the style for a tile value.
func (s Styles) Tile(v int) lipgloss.Style {
	bg, ok := tileColors[v]
	if !ok {
		bg = superTileColor
	}
	fg := lightText
	if v <= 4 {
		fg = darkText
	}
	return s.tile.
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(fg))
}

func tileLabel(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// RenderBoard draws the grid of v, one coloured block per cell.
func RenderBoard(s Styles, v game.View) string {
	rows := make([]string, 0, v.Rows()*2)
	for r, row := range v.Grid {
		cells := make([]string, 0, len(row)*2)
		for c, val := range row {
			if c > 0 {
				cells = append(cells, " ")
			}
			cells = append(cells, s.Tile(val).Render(tileLabel(val)))
		}
		if r > 0 {
			rows = append(rows, "")
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return s.Board.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// boardSize returns the outer width and height of RenderBoard's output for
// a rows x cols grid.
func boardSize(rows, cols int) (int, int) {
	if rows <= 0 || cols <= 0 {
		return 0, 0
	}
	w := cols*tileWidth + (cols - 1) + 2
	h := rows*tileHeight + (rows - 1)
	return w, h
}

// RenderScoreLine draws the score and best score side by side.
func RenderScoreLine(s Styles, v game.View) string {
	return s.Label.Render("Score ") + s.Value.Render(strconv.Itoa(v.Score)) +
		s.Label.Render("   Best ") + s.Value.Render(strconv.Itoa(v.BestScore))
}
