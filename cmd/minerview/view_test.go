package main

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/holycrab/minerview/internal/telemetry"
	"github.com/holycrab/minerview/internal/visualizer"
	"github.com/holycrab/minerview/internal/world"
)

// testWorld is a 4x6 grass map with deep water at (0,0) and a rock at (1,2).
func testWorld(t *testing.T) *world.Map {
	t.Helper()
	m, err := world.NewMap(4, 6, world.Tile{Terrain: world.Grass})
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	m.Set(0, 0, world.Tile{Terrain: world.DeepWater})
	m.Set(1, 2, world.Tile{Terrain: world.Grass, Content: world.Rock(1)})
	return m
}

// testModel creates a uiModel sized so that every tile is one row by two
// cells, with the channel feeding it.
func testModel(t *testing.T) (uiModel, *telemetry.Channel) {
	t.Helper()
	ch := telemetry.NewChannel(4)
	cfg := visualizer.DefaultConfig()
	cfg.ScreenWidth, cfg.ScreenHeight = 6, 4
	vis, err := visualizer.New(ch, testWorld(t), cfg, nil)
	if err != nil {
		t.Fatalf("visualizer.New: %v", err)
	}
	m := newModel(vis, "world/world.yaml", time.Second)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 12, Height: 4 + chromeLines})
	return updated.(uiModel), ch
}

var t0 = time.Unix(1_700_000_000, 0)

func frame(m uiModel, at time.Time) uiModel {
	updated, _ := m.Update(frameMsg(at))
	return updated.(uiModel)
}

func press(m uiModel, k tea.KeyMsg) (uiModel, tea.Cmd) {
	updated, cmd := m.Update(k)
	return updated.(uiModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewLoading(t *testing.T) {
	m, _ := testModel(t)
	m.width = 0 // triggers "Loading..." state

	out := m.View()
	if out != "Loading..." {
		t.Errorf("expected 'Loading...' when width=0, got %q", out)
	}
}

func TestViewWaitingForTelemetry(t *testing.T) {
	m, _ := testModel(t)
	out := ansi.Strip(m.View())
	if !strings.Contains(out, "waiting for telemetry") {
		t.Errorf("expected waiting message, got:\n%s", out)
	}
	if strings.Contains(ansi.Strip(m.renderMap(4)), "@") {
		t.Error("agent drawn before any sample")
	}
}

func TestViewLineCount(t *testing.T) {
	m, _ := testModel(t)
	out := m.View()
	if got := strings.Count(out, "\n") + 1; got != m.height {
		t.Errorf("rendered %d lines, want %d", got, m.height)
	}
	for i, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > m.width {
			t.Errorf("line %d is %d cells wide, want <= %d", i, w, m.width)
		}
	}
}

func TestRenderMapInverseMapping(t *testing.T) {
	m, _ := testModel(t)
	lines := strings.Split(strings.TrimSuffix(ansi.Strip(m.renderMap(4)), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d map lines, want 4", len(lines))
	}
	// Deep water covers the first tile: two cells on row 0.
	if !strings.HasPrefix(lines[0], "~~..") {
		t.Errorf("row 0 = %q, want deep water then grass", lines[0])
	}
	// The rock overlay sits on the first cell of tile (1,2).
	if lines[1][4] != 'o' || lines[1][5] != '.' {
		t.Errorf("row 1 = %q, want rock glyph at cell 4", lines[1])
	}
}

func TestFrameDrawsAgent(t *testing.T) {
	m, ch := testModel(t)
	_ = ch.Send(telemetry.Sample{Row: 1, Col: 2, Energy: 500, Rocks: 1})
	m = frame(m, t0)

	if !m.frame.HasSample {
		t.Fatal("frame did not pick up the sample")
	}
	mapOut := ansi.Strip(m.renderMap(4))
	row1 := strings.Split(mapOut, "\n")[1]
	if row1[4] != '@' {
		t.Errorf("row 1 = %q, want agent at cell 4", row1)
	}
	if got := m.vis.Map().At(1, 2).Content; got.IsRock() {
		t.Errorf("rock at (1,2) should be picked up, got %+v", got)
	}

	hud := ansi.Strip(m.renderHUD())
	for _, want := range []string{"Energy", "500", "Rocks", "◆", "moving", "(1,2)"} {
		if !strings.Contains(hud, want) {
			t.Errorf("HUD missing %q: %q", want, hud)
		}
	}
	if n := strings.Count(hud, "█"); n != gaugeCells/2 {
		t.Errorf("gauge has %d filled cells, want %d", n, gaugeCells/2)
	}
}

func TestFrameIdleGlyph(t *testing.T) {
	m, ch := testModel(t)
	_ = ch.Send(telemetry.Sample{Row: 2, Col: 1, Energy: 100})
	m = frame(m, t0)
	_ = ch.Send(telemetry.Sample{Row: 2, Col: 1, Energy: 140})
	m = frame(m, t0.Add(4*time.Second))

	mapOut := ansi.Strip(m.renderMap(4))
	if strings.Contains(mapOut, "@") {
		t.Error("idle agent drawn as moving")
	}
	if row := strings.Split(mapOut, "\n")[2]; row[2] != 'z' {
		t.Errorf("row 2 = %q, want idle glyph at cell 2", row)
	}
	if hud := ansi.Strip(m.renderHUD()); !strings.Contains(hud, "idle") {
		t.Errorf("HUD = %q, want idle state", hud)
	}
}

func TestFrameKeepsStateOnBadSample(t *testing.T) {
	m, ch := testModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 10})
	m = updated.(uiModel)
	_ = ch.Send(telemetry.Sample{Row: 3, Col: 5, Energy: 800})
	m = frame(m, t0)
	_ = ch.Send(telemetry.Sample{Row: 30, Col: 5, Energy: 1})
	m = frame(m, t0.Add(time.Second))

	if m.frame.Agent.Row != 3 || m.frame.Energy != 800 {
		t.Errorf("frame = %+v, want the last good sample", m.frame)
	}
	if !strings.Contains(ansi.Strip(m.renderStatusBar()), "discarded 1") {
		t.Errorf("status bar = %q", ansi.Strip(m.renderStatusBar()))
	}
}

func TestFrameSchedulesNext(t *testing.T) {
	m, _ := testModel(t)
	if _, cmd := m.Update(frameMsg(t0)); cmd == nil {
		t.Error("frame did not schedule the next one")
	}
	if m.Init() == nil {
		t.Error("Init did not schedule a frame")
	}
}

func TestUpdateZoomOncePerFrame(t *testing.T) {
	m, _ := testModel(t)
	base, _ := m.vis.Viewport().MinScale()

	m, _ = press(m, runes("w"))
	m, _ = press(m, runes("w"))
	if sx, _ := m.vis.Viewport().Scale(); math.Abs(sx-base*1.1) > 1e-9 {
		t.Errorf("scale after two presses in one frame = %v, want %v", sx, base*1.1)
	}

	m = frame(m, t0)
	m, _ = press(m, runes("w"))
	if sx, _ := m.vis.Viewport().Scale(); math.Abs(sx-base*1.21) > 1e-9 {
		t.Errorf("scale after next frame = %v, want %v", sx, base*1.21)
	}

	m = frame(m, t0.Add(time.Second))
	m, _ = press(m, runes("s"))
	if sx, _ := m.vis.Viewport().Scale(); math.Abs(sx-base*1.1) > 1e-9 {
		t.Errorf("scale after zoom out = %v, want %v", sx, base*1.1)
	}
}

func TestUpdatePanKeys(t *testing.T) {
	m, _ := testModel(t)
	m, _ = press(m, runes("w"))
	m = frame(m, t0)
	m, _ = press(m, runes("w"))
	m = frame(m, t0.Add(time.Second))

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if x, _ := m.vis.Viewport().Offset(); x != 1 {
		t.Errorf("pan x = %v after right, want 1", x)
	}
	m = frame(m, t0.Add(2*time.Second))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if _, y := m.vis.Viewport().Offset(); y <= 0 {
		t.Errorf("pan y = %v after down, want > 0", y)
	}
}

func TestUpdateHelpToggle(t *testing.T) {
	m, _ := testModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	m = updated.(uiModel)
	if m.showHelp {
		t.Error("showHelp should start as false")
	}

	m, _ = press(m, runes("?"))
	if !m.showHelp {
		t.Error("? should toggle showHelp to true")
	}
	if out := ansi.Strip(m.View()); !strings.Contains(out, "zoom in") {
		t.Errorf("full help missing from view:\n%s", out)
	}

	m, _ = press(m, runes("?"))
	if m.showHelp {
		t.Error("? again should toggle showHelp back to false")
	}
}

func TestUpdateQuitClosesChannel(t *testing.T) {
	m, ch := testModel(t)
	_, cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if !ch.Closed() {
		t.Error("quitting should close the telemetry channel")
	}
}

// TestUpdateWindowSizeMsg verifies the viewport follows the terminal.
func TestUpdateWindowSizeMsg(t *testing.T) {
	m, _ := testModel(t)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(uiModel)
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
	if w, h := m.vis.Viewport().ScreenSize(); w != 60 || h != 40-chromeLines {
		t.Errorf("viewport screen = %vx%v, want 60x%d", w, h, 40-chromeLines)
	}
}

func TestTerrainStylesExhaustive(t *testing.T) {
	for _, terrain := range world.Terrains() {
		if _, ok := terrainStyles[terrain].GetBackground().(lipgloss.NoColor); ok {
			t.Errorf("no background for %v", terrain)
		}
	}
}

func TestTruncateLines(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("abcdef")
	out := truncateLines(styled+"\nxy", 3)
	lines := strings.Split(out, "\n")
	if got := ansi.Strip(lines[0]); got != "abc" {
		t.Errorf("first line = %q, want abc", got)
	}
	if lines[1] != "xy" {
		t.Errorf("short line changed: %q", lines[1])
	}
	if truncateLines("abc", 0) != "abc" {
		t.Error("zero width should leave content alone")
	}
}
