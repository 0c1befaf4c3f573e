// Package visualizer runs the per-frame update of the client: it drains at
// most one telemetry sample, feeds it to the world mirror and the motion
// classifier, and applies viewport input. Rendering backends call it once
// per frame and draw from its state.
package visualizer

import (
	"errors"
	"log/slog"
	"time"

	"github.com/holycrab/minerview/internal/input"
	"github.com/holycrab/minerview/internal/mirror"
	"github.com/holycrab/minerview/internal/motion"
	"github.com/holycrab/minerview/internal/telemetry"
	"github.com/holycrab/minerview/internal/viewport"
	"github.com/holycrab/minerview/internal/world"
)

// Config tunes a Visualizer.
type Config struct {
	ScreenWidth   float64
	ScreenHeight  float64
	IdleThreshold time.Duration
	ZoomStep      float64
	PanStep       float64
	EnergyMax     float64
	GaugeWidth    float64
}

// DefaultConfig is a 1500x1500 window with 10%
// zoom steps and a 200 pixel energy gauge for a 1000 energy agent.
func DefaultConfig() Config {
	return Config{
		ScreenWidth:   1500,
		ScreenHeight:  1500,
		IdleThreshold: motion.DefaultIdleThreshold,
		ZoomStep:      1.1,
		PanStep:       1,
		EnergyMax:     1000,
		GaugeWidth:    200,
	}
}

// Visualizer owns every piece of render-side state. It must only be used
// from the render loop.
type Visualizer struct {
	cfg    Config
	ch     *telemetry.Channel
	mirror *mirror.Mirror
	motion *motion.Classifier
	view   *viewport.Viewport
	input  *input.Controller
	logger *slog.Logger

	last      telemetry.Sample
	hasSample bool
	applied   uint64
	discarded uint64
	dropped   uint64
}

// New builds a visualizer over m, consuming samples from ch. m becomes owned
// by the visualizer.
func New(ch *telemetry.Channel, m *world.Map, cfg Config, logger *slog.Logger) (*Visualizer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	view, err := viewport.New(cfg.ScreenWidth, cfg.ScreenHeight, m.Rows(), m.Cols())
	if err != nil {
		return nil, err
	}
	return &Visualizer{
		cfg:    cfg,
		ch:     ch,
		mirror: mirror.New(m, logger),
		motion: motion.NewClassifier(cfg.IdleThreshold),
		view:   view,
		input:  input.NewController(cfg.ZoomStep, cfg.PanStep),
		logger: logger,
	}, nil
}

// BeginFrame re-arms input for a new frame.
func (v *Visualizer) BeginFrame() {
	v.input.BeginFrame()
}

// Input applies a viewport action, at most once per frame.
func (v *Visualizer) Input(a input.Action) bool {
	return v.input.Apply(a, v.view)
}

// PollInput applies the first held action, at most once per frame.
func (v *Visualizer) PollInput(held func(input.Action) bool) input.Action {
	return v.input.Poll(held, v.view)
}

// Step polls the channel once without blocking. A received sample updates
// the mirror and the classifier; one outside the map is counted and dropped,
// leaving the last good state on screen. Step reports whether a sample was
// applied.
func (v *Visualizer) Step(now time.Time) bool {
	if d := v.ch.Dropped(); d > v.dropped {
		v.logger.Debug("telemetry queue overflowed, oldest samples dropped", "new", d-v.dropped, "total", d)
		v.dropped = d
	}
	s, ok := v.ch.TryReceive()
	if !ok {
		return false
	}
	if _, err := v.mirror.Apply(s); err != nil {
		if !errors.Is(err, mirror.ErrOutOfBounds) {
			v.logger.Error("apply sample", "err", err)
		}
		v.discarded++
		return false
	}
	v.motion.Observe(s.Position(), now)
	v.last = s
	v.hasSample = true
	v.applied++
	return true
}

// Resize adapts the viewport to a new screen size.
func (v *Visualizer) Resize(width, height float64) error {
	return v.view.Resize(width, height)
}

// Close tears down the consumer side of the channel, which stops the
// producer at its next send.
func (v *Visualizer) Close() {
	v.ch.Close()
}

func (v *Visualizer) Config() Config                 { return v.cfg }
func (v *Visualizer) Channel() *telemetry.Channel    { return v.ch }
func (v *Visualizer) Mirror() *mirror.Mirror         { return v.mirror }
func (v *Visualizer) Map() *world.Map                { return v.mirror.Map() }
func (v *Visualizer) Viewport() *viewport.Viewport   { return v.view }
func (v *Visualizer) Motion() motion.State           { return v.motion.State() }
func (v *Visualizer) Applied() uint64                { return v.applied }
func (v *Visualizer) Discarded() uint64              { return v.discarded }
func (v *Visualizer) Last() (telemetry.Sample, bool) { return v.last, v.hasSample }

// GaugeWidth scales energy into [0, maxWidth].
func GaugeWidth(energy, energyMax, maxWidth float64) float64 {
	if !(energyMax > 0) || !(energy > 0) {
		return 0
	}
	w := energy / energyMax * maxWidth
	if w > maxWidth {
		return maxWidth
	}
	return w
}

// RockIcons is the number of rock icons drawn for a carried-rock counter.
// The counter may be negative; no icons are drawn then.
func RockIcons(counter int) int {
	return max(counter, 0)
}
