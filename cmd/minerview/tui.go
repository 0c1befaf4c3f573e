package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/holycrab/minerview/internal/input"
	"github.com/holycrab/minerview/internal/motion"
	"github.com/holycrab/minerview/internal/snapshot"
	"github.com/holycrab/minerview/internal/visualizer"
	"github.com/holycrab/minerview/internal/world"
)

// Layout of the terminal screen.
const (
	cellsPerTile = 2 // tiles are two cells wide so they look square
	chromeLines  = 2 // HUD line + status bar
	gaugeCells   = 20
)

// --- Messages ---

// frameMsg drives one render frame.
type frameMsg time.Time

// --- Key bindings ---

type keyMap struct {
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	ZoomIn:  key.NewBinding(key.WithKeys("w", "+"), key.WithHelp("w/+", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("s", "-"), key.WithHelp("s/-", "zoom out")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "pan up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "pan down")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h/left", "pan left")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l/right", "pan right")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.ZoomOut},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Help, k.Quit},
	}
}

// action maps a key press to a viewport action.
func (k keyMap) action(msg tea.KeyMsg) input.Action {
	switch {
	case key.Matches(msg, k.ZoomIn):
		return input.ZoomIn
	case key.Matches(msg, k.ZoomOut):
		return input.ZoomOut
	case key.Matches(msg, k.Up):
		return input.PanUp
	case key.Matches(msg, k.Down):
		return input.PanDown
	case key.Matches(msg, k.Left):
		return input.PanLeft
	case key.Matches(msg, k.Right):
		return input.PanRight
	}
	return input.None
}

// --- Model ---

type uiModel struct {
	vis       *visualizer.Visualizer
	frame     *snapshot.Frame
	worldPath string
	interval  time.Duration

	width  int
	height int

	help     help.Model
	showHelp bool
}

func newModel(vis *visualizer.Visualizer, worldPath string, interval time.Duration) uiModel {
	return uiModel{
		vis:       vis,
		frame:     snapshot.Build(vis),
		worldPath: worldPath,
		interval:  interval,
		help:      help.New(),
	}
}

func (m uiModel) Init() tea.Cmd {
	return m.nextFrame()
}

func (m uiModel) nextFrame() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.vis.Close()
			return m, tea.Quit

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp

		default:
			// At most one viewport change per frame; extra presses are dropped.
			m.vis.Input(keys.action(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		mapRows := max(1, msg.Height-chromeLines)
		mapCols := max(1, msg.Width/cellsPerTile)
		_ = m.vis.Resize(float64(mapCols), float64(mapRows))

	case frameMsg:
		m.vis.BeginFrame()
		m.vis.Step(time.Time(msg))
		m.frame = snapshot.Build(m.vis)
		return m, m.nextFrame()
	}

	return m, nil
}

// --- Styles ---

var (
	terrainStyles = [world.TerrainCount]lipgloss.Style{
		world.DeepWater:    tileStyle("#1E3A8A", "#93C5FD"),
		world.ShallowWater: tileStyle("#3B82F6", "#DBEAFE"),
		world.Grass:        tileStyle("#15803D", "#86EFAC"),
		world.Hill:         tileStyle("#65A30D", "#D9F99D"),
		world.Sand:         tileStyle("#CA8A04", "#FEF08A"),
		world.Lava:         tileStyle("#B91C1C", "#FDBA74"),
		world.Snow:         tileStyle("#E5E7EB", "#6B7280"),
		world.Mountain:     tileStyle("#57534E", "#D6D3D1"),
		world.Street:       tileStyle("#44403C", "#A8A29E"),
	}

	outsideStyle = lipgloss.NewStyle().Background(lipgloss.Color("#1A334D"))

	rockColor  = lipgloss.Color("#F5F5F4")
	agentColor = lipgloss.Color("#FACC15")

	hudLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	gaugeFillStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))

	gaugeFrameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4"))

	rockIconStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAB387"))

	movingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1")).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#1E1E2E"))
)

func tileStyle(bg, fg string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(fg))
}

// --- View rendering ---

func (m uiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(truncateLines(m.renderHUD(), m.width))
	b.WriteRune('\n')

	mapRows := m.height - chromeLines
	footer := m.renderStatusBar()
	if m.showHelp {
		footer = m.help.View(keys)
		mapRows -= strings.Count(footer, "\n")
	}
	b.WriteString(truncateLines(m.renderMap(max(0, mapRows)), m.width))
	b.WriteString(footer)
	return b.String()
}

// tileAt maps a screen cell to the tile under its centre.
func (m uiModel) tileAt(cx, cy int) (row, col int) {
	r, c := m.vis.Viewport().ScreenToTile((float64(cx)+0.5)/cellsPerTile, float64(cy)+0.5)
	return int(math.Floor(r)), int(math.Floor(c))
}

// renderMap paints rows lines by inverse-mapping every cell through the
// viewport. Overlays go on the first visible cell of their tile.
func (m uiModel) renderMap(rows int) string {
	grid := m.vis.Map()
	f := m.frame

	var b strings.Builder
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < m.width; cx++ {
			r, c := m.tileAt(cx, cy)
			if !grid.InBounds(r, c) {
				b.WriteString(outsideStyle.Render(" "))
				continue
			}
			tile := grid.At(r, c)
			style := terrainStyles[tile.Terrain]
			glyph := string(tile.Terrain.Glyph())

			if m.anchor(cx, cy, r, c) {
				switch {
				case f.HasSample && f.Agent.Row == r && f.Agent.Col == c:
					style = style.Foreground(agentColor).Bold(true)
					glyph = agentGlyph(f.Motion)
				case tile.Content.IsRock() && tile.Content.Quantity > 0:
					style = style.Foreground(rockColor).Bold(true)
					glyph = "o"
				}
			}
			b.WriteString(style.Render(glyph))
		}
		b.WriteRune('\n')
	}
	return b.String()
}

// anchor reports whether (cx, cy) is the top-left visible cell of tile (r, c).
func (m uiModel) anchor(cx, cy, r, c int) bool {
	if cx > 0 {
		if lr, lc := m.tileAt(cx-1, cy); lr == r && lc == c {
			return false
		}
	}
	if cy > 0 {
		if ur, uc := m.tileAt(cx, cy-1); ur == r && uc == c {
			return false
		}
	}
	return true
}

func agentGlyph(s motion.State) string {
	if s == motion.Idle {
		return "z"
	}
	return "@"
}

func (m uiModel) renderHUD() string {
	f := m.frame
	if !f.HasSample {
		return dimStyle.Render(" waiting for telemetry")
	}

	filled := 0
	if f.GaugeMax > 0 {
		filled = int(math.Round(f.GaugeWidth / f.GaugeMax * gaugeCells))
	}
	gauge := gaugeFrameStyle.Render("[") +
		gaugeFillStyle.Render(strings.Repeat("█", filled)) +
		strings.Repeat(" ", gaugeCells-filled) +
		gaugeFrameStyle.Render("]")

	state := movingStyle.Render(f.Motion.String())
	if f.Motion == motion.Idle {
		state = idleStyle.Render(f.Motion.String())
	}

	return fmt.Sprintf(" %s %s %4.0f  %s %s  %s (%d,%d)",
		hudLabelStyle.Render("Energy"), gauge, f.Energy,
		hudLabelStyle.Render("Rocks"), rockIconStyle.Render(strings.Repeat("◆", f.RockIcons)),
		state, f.Agent.Row, f.Agent.Col)
}

func (m uiModel) renderStatusBar() string {
	f := m.frame
	left := " w/s: zoom | arrows: pan | ?: help | q: quit"
	right := fmt.Sprintf("%s | dropped %d | discarded %d ", m.worldPath, f.Dropped, f.Discarded)
	gap := strings.Repeat(" ", max(0, m.width-len(left)-lipgloss.Width(right)))
	return truncateLines(statusBarStyle.Render(left+gap+right), m.width)
}

// truncateLines truncates each line in content to at most width visible
// characters, preserving ANSI escape codes.
func truncateLines(content string, width int) string {
	if width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}
