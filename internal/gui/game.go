// Package gui is the windowed sprite renderer.
package gui

import (
	"bytes"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/holycrab/minerview/internal/input"
	"github.com/holycrab/minerview/internal/motion"
	"github.com/holycrab/minerview/internal/snapshot"
	"github.com/holycrab/minerview/internal/visualizer"
)

var (
	background = color.RGBA{0x1a, 0x33, 0x4d, 0xff}
	gaugeFill  = color.RGBA{0xff, 0x00, 0x00, 0xff}
	gaugeFrame = color.White
)

// HUD geometry, in pixels.
const (
	hudX        = 10
	hudY        = 20
	gaugeOffset = 70
	gaugeHeight = 25
	iconSize    = 24
)

// actionKeys binds each viewport action to its keys.
var actionKeys = map[input.Action][]ebiten.Key{
	input.ZoomIn:   {ebiten.KeyW},
	input.ZoomOut:  {ebiten.KeyS},
	input.PanUp:    {ebiten.KeyArrowUp},
	input.PanDown:  {ebiten.KeyArrowDown},
	input.PanLeft:  {ebiten.KeyArrowLeft},
	input.PanRight: {ebiten.KeyArrowRight},
}

func held(a input.Action) bool {
	for _, k := range actionKeys[a] {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	return false
}

// Game implements ebiten.Game over a visualizer.
type Game struct {
	vis     *visualizer.Visualizer
	sprites *Sprites
	face    *text.GoTextFace
	logger  *slog.Logger
	now     func() time.Time

	frame  *snapshot.Frame
	width  int
	height int
}

// New prepares a game. The visualizer must not be used elsewhere afterwards.
func New(vis *visualizer.Visualizer, sprites *Sprites, logger *slog.Logger) (*Game, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	w, h := vis.Viewport().ScreenSize()
	return &Game{
		vis:     vis,
		sprites: sprites,
		face:    &text.GoTextFace{Source: src, Size: 16},
		logger:  logger,
		now:     time.Now,
		frame:   snapshot.Build(vis),
		width:   int(w),
		height:  int(h),
	}, nil
}

// Update samples held keys, then drains at most one telemetry sample.
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		g.vis.Close()
		return ebiten.Termination
	}
	if a := g.vis.PollInput(held); a != input.None {
		g.logger.Debug("input", "action", a.String())
	}
	g.vis.Step(g.now())
	g.frame = snapshot.Build(g.vis)
	return nil
}

// Draw paints the visible tiles, the agent and the HUD, then re-arms input.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	g.drawMap(screen)
	g.drawAgent(screen)
	g.drawHUD(screen)
	g.vis.BeginFrame()
}

// Layout follows the window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		if err := g.vis.Resize(float64(outsideWidth), float64(outsideHeight)); err == nil {
			g.width, g.height = outsideWidth, outsideHeight
		}
	}
	return g.width, g.height
}

func (g *Game) drawMap(screen *ebiten.Image) {
	view := g.vis.Viewport()
	m := g.vis.Map()
	sx, sy := view.Scale()
	row0, col0, row1, col1 := view.VisibleTiles()

	for r := row0; r < row1; r++ {
		for c := col0; c < col1; c++ {
			x, y := view.TileToScreen(float64(r), float64(c))
			tile := m.At(r, c)
			drawSprite(screen, g.sprites.Terrain[tile.Terrain], x, y, sx, sy)
			if tile.Content.IsRock() && tile.Content.Quantity > 0 {
				drawSprite(screen, g.sprites.Rock, x+sx/3, y+sy/4, sx/3, sy/3)
			}
		}
	}
}

func (g *Game) drawAgent(screen *ebiten.Image) {
	if !g.frame.HasSample {
		return
	}
	view := g.vis.Viewport()
	sx, sy := view.Scale()
	x, y := view.TileToScreen(float64(g.frame.Agent.Row), float64(g.frame.Agent.Col))
	img := g.sprites.AgentMoving
	if g.frame.Motion == motion.Idle {
		img = g.sprites.AgentIdle
	}
	drawSprite(screen, img, x, y, sx, sy)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	f := g.frame
	if !f.HasSample {
		g.drawText(screen, "waiting for telemetry", hudX, hudY)
		return
	}

	g.drawText(screen, "Energy:", hudX, hudY)
	gx, gy := float32(hudX+gaugeOffset), float32(hudY-5)
	vector.DrawFilledRect(screen, gx, gy, float32(f.GaugeWidth), gaugeHeight, gaugeFill, false)
	vector.StrokeRect(screen, gx, gy, float32(f.GaugeMax), gaugeHeight, 2, gaugeFrame, false)

	g.drawText(screen, "Rocks:", hudX, hudY+35)
	for i := range f.RockIcons {
		x := float64(hudX + gaugeOffset + i*(iconSize+4))
		drawSprite(screen, g.sprites.Rock, x, hudY+30, iconSize, iconSize)
	}

	status := fmt.Sprintf("(%d,%d) %s  dropped %d  discarded %d",
		f.Agent.Row, f.Agent.Col, f.Motion, f.Dropped, f.Discarded)
	g.drawText(screen, status, hudX, hudY+70)
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y float64) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, s, g.face, op)
}

// drawSprite scales img to a w by h box at (x, y).
func drawSprite(dst, img *ebiten.Image, x, y, w, h float64) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	op.GeoM.Translate(x, y)
	dst.DrawImage(img, op)
}

// Run opens the window and blocks until it is closed. Update runs fps times
// per second, at least once.
func Run(g *Game, title string, fps float64) error {
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(max(1, int(fps)))
	g.logger.Info("window renderer started", "width", g.width, "height", g.height, "tps", ebiten.TPS())
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}
