// Package snapshot builds immutable views of the visualizer state.
//
// A Frame captures everything a renderer needs for the HUD at one point in
// time. Renderers build one per frame after stepping the visualizer, so the
// terminal and window backends agree on what is shown.
package snapshot

import (
	"time"

	"github.com/holycrab/minerview/internal/motion"
	"github.com/holycrab/minerview/internal/telemetry"
	"github.com/holycrab/minerview/internal/visualizer"
	"github.com/holycrab/minerview/internal/world"
)

// Frame is an immutable, self-contained view of the HUD state.
type Frame struct {
	// HasSample is false until the first sample is applied; the remaining
	// agent fields are zero until then.
	HasSample bool
	Agent     telemetry.Position
	Energy    float64
	Reported  int // rocks carried according to the runtime
	Motion    motion.State

	// Gauge geometry.
	GaugeWidth float64
	GaugeMax   float64

	// Inferred carried-rock counter and the number of icons to draw for it.
	Rocks     int
	RockIcons int

	// Counters.
	Applied   uint64
	Discarded uint64
	Dropped   uint64
	Queued    int

	// Timestamp of snapshot creation.
	BuiltAt time.Time
}

// Build reads the visualizer and returns a complete frame snapshot.
func Build(v *visualizer.Visualizer) *Frame {
	cfg := v.Config()
	last, ok := v.Last()
	ch := v.Channel()

	f := &Frame{
		HasSample: ok,
		Motion:    v.Motion(),
		GaugeMax:  cfg.GaugeWidth,
		Rocks:     v.Mirror().Rocks(),
		RockIcons: visualizer.RockIcons(v.Mirror().Rocks()),
		Applied:   v.Applied(),
		Discarded: v.Discarded(),
		Dropped:   ch.Dropped(),
		Queued:    ch.Len(),
		BuiltAt:   time.Now(),
	}
	if ok {
		f.Agent = last.Position()
		f.Energy = last.Energy
		f.Reported = last.Rocks
		f.GaugeWidth = visualizer.GaugeWidth(last.Energy, cfg.EnergyMax, cfg.GaugeWidth)
	}
	return f
}

// WorldSummary is the machine-readable description of a world artifact.
type WorldSummary struct {
	Path      string         `json:"path,omitempty"`
	Rows      int            `json:"rows"`
	Cols      int            `json:"cols"`
	Terrain   map[string]int `json:"terrain"`
	Rocks     int            `json:"rocks"`
	RockTiles int            `json:"rockTiles"`
}

// Summarize counts the terrain and rocks of m. Terrains that do not occur
// are omitted.
func Summarize(path string, m *world.Map) WorldSummary {
	c := m.Counts()
	terrain := make(map[string]int)
	for _, t := range world.Terrains() {
		if n := c.Terrain[t]; n > 0 {
			terrain[t.String()] = n
		}
	}
	return WorldSummary{
		Path:      path,
		Rows:      m.Rows(),
		Cols:      m.Cols(),
		Terrain:   terrain,
		Rocks:     c.Rocks,
		RockTiles: c.RockTiles,
	}
}
