// Package agent runs the simulated agent on its own goroutine and publishes
// a telemetry sample after every tick.
package agent

import (
	"context"

	"github.com/holycrab/minerview/internal/telemetry"
)

// Runtime is an autonomous agent advancing one action per tick. A Runtime
// is driven from a single goroutine and need not be safe for concurrent use.
type Runtime interface {
	ProcessTick(ctx context.Context) error
	Coordinate() (row, col int)
	EnergyLevel() float64
	Rocks() int
}

// SampleOf captures rt's current state.
func SampleOf(rt Runtime) telemetry.Sample {
	row, col := rt.Coordinate()
	return telemetry.Sample{
		Row:    row,
		Col:    col,
		Energy: rt.EnergyLevel(),
		Rocks:  rt.Rocks(),
	}
}

// Wrapper decorates a Runtime, counting ticks and tick failures. Every
// accessor forwards to Inner.
type Wrapper struct {
	Inner Runtime

	ticks    int
	failures int
}

// Wrap returns a Wrapper around rt.
func Wrap(rt Runtime) *Wrapper {
	return &Wrapper{Inner: rt}
}

func (w *Wrapper) ProcessTick(ctx context.Context) error {
	w.ticks++
	err := w.Inner.ProcessTick(ctx)
	if err != nil {
		w.failures++
	}
	return err
}

func (w *Wrapper) Coordinate() (row, col int) { return w.Inner.Coordinate() }
func (w *Wrapper) EnergyLevel() float64       { return w.Inner.EnergyLevel() }
func (w *Wrapper) Rocks() int                 { return w.Inner.Rocks() }

// Ticks returns how many ticks have been attempted.
func (w *Wrapper) Ticks() int { return w.ticks }

// Failures returns how many ticks returned an error.
func (w *Wrapper) Failures() int { return w.failures }
