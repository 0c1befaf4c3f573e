// Package mirror keeps a local, speculative copy of the world map.
//
// The client never receives tile diffs from the simulation, only the agent's
// position. The mirror infers the agent's side effects from the tile it is
// standing on at sample time, assuming one action per sample:
//
//   - a tile holding rocks has been picked clean (+1 carried rock)
//   - a deep-water tile has been bridged into street (-3 carried rocks)
//
// Both rules mutate the tile, so replaying a sample on the same tile is a
// no-op.
package mirror

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/holycrab/minerview/internal/telemetry"
	"github.com/holycrab/minerview/internal/world"
)

// BridgeCost is the number of rocks spent to turn deep water into street.
const BridgeCost = 3

// ErrOutOfBounds is returned for samples that do not index the map.
var ErrOutOfBounds = errors.New("mirror: sample outside map")

// Effect reports which inferred actions a sample triggered.
type Effect struct {
	PickedRock bool
	Bridged    bool
}

// Changed reports whether the sample mutated the map.
func (e Effect) Changed() bool {
	return e.PickedRock || e.Bridged
}

// Mirror owns the local map and the inferred carried-rock counter. It is not
// safe for concurrent use; the render loop is its only owner.
type Mirror struct {
	m      *world.Map
	rocks  int
	logger *slog.Logger
}

// New takes ownership of m.
func New(m *world.Map, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mirror{m: m, logger: logger}
}

// Map returns the mirrored map. Callers must treat it as read-only.
func (mr *Mirror) Map() *world.Map {
	return mr.m
}

// Rocks returns the running carried-rock counter. It can go negative when
// more bridges are inferred than pickups.
func (mr *Mirror) Rocks() int {
	return mr.rocks
}

// Apply infers the agent's effect on the tile it stands on. Out-of-bounds
// samples are logged and rejected with ErrOutOfBounds without touching any
// state.
func (mr *Mirror) Apply(s telemetry.Sample) (Effect, error) {
	if !mr.m.InBounds(s.Row, s.Col) {
		mr.logger.Warn("discarding sample outside map",
			"row", s.Row, "col", s.Col, "rows", mr.m.Rows(), "cols", mr.m.Cols())
		return Effect{}, fmt.Errorf("(%d,%d) in %dx%d: %w", s.Row, s.Col, mr.m.Rows(), mr.m.Cols(), ErrOutOfBounds)
	}

	var eff Effect
	t := mr.m.At(s.Row, s.Col)

	// Rock pickup is checked before bridging.
	if t.Content.IsRock() && t.Content.Quantity > 0 {
		t.Content = world.None
		mr.rocks++
		eff.PickedRock = true
	}
	if t.Terrain == world.DeepWater {
		t.Terrain = world.Street
		mr.rocks -= BridgeCost
		eff.Bridged = true
	}

	if eff.Changed() {
		mr.m.Set(s.Row, s.Col, t)
		mr.logger.Debug("mirror updated",
			"row", s.Row, "col", s.Col, "picked", eff.PickedRock, "bridged", eff.Bridged, "rocks", mr.rocks)
	}
	return eff, nil
}
