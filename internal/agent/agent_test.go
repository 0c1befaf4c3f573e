package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holycrab/minerview/internal/telemetry"
	"github.com/holycrab/minerview/internal/world"
)

func parseWorld(t *testing.T, src string) *world.Map {
	t.Helper()
	m, err := world.Parse([]byte(src))
	if err != nil {
		t.Fatalf("world.Parse: %v", err)
	}
	return m
}

func tick(t *testing.T, rt Runtime, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := rt.ProcessTick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}

func TestNewMinerStartsOnWalkableTile(t *testing.T) {
	m := parseWorld(t, `rows: ["~^l", "~.."]`)
	mn, err := NewMiner(m, MinerConfig{})
	if err != nil {
		t.Fatalf("NewMiner: %v", err)
	}
	if r, c := mn.Coordinate(); r != 1 || c != 1 {
		t.Errorf("start = (%d,%d), want (1,1)", r, c)
	}
	if mn.EnergyLevel() != DefaultMaxEnergy {
		t.Errorf("energy = %v, want %v", mn.EnergyLevel(), DefaultMaxEnergy)
	}

	if _, err := NewMiner(parseWorld(t, `rows: ["~^"]`), MinerConfig{}); !errors.Is(err, ErrNoFooting) {
		t.Errorf("NewMiner on water and rock = %v, want ErrNoFooting", err)
	}
}

func TestMinerCollectsRocksThenBridges(t *testing.T) {
	m := parseWorld(t, `
rows: ["....~"]
rocks:
  - {row: 0, col: 1, quantity: 1}
  - {row: 0, col: 2, quantity: 4}
  - {row: 0, col: 3, quantity: 1}
`)
	mn, err := NewMiner(m, MinerConfig{Seed: 3})
	if err != nil {
		t.Fatalf("NewMiner: %v", err)
	}

	// step, pick, step, pick, step, pick
	tick(t, mn, 6)
	if mn.Rocks() != 3 {
		t.Fatalf("rocks = %d after collecting, want 3", mn.Rocks())
	}
	if r, c := mn.Coordinate(); r != 0 || c != 3 {
		t.Fatalf("position = (%d,%d), want (0,3)", r, c)
	}

	// Next to deep water with enough rocks: bridge and step onto it.
	tick(t, mn, 1)
	if mn.Rocks() != 0 {
		t.Errorf("rocks = %d after bridging, want 0", mn.Rocks())
	}
	if r, c := mn.Coordinate(); r != 0 || c != 4 {
		t.Errorf("position = (%d,%d), want (0,4) on the bridge", r, c)
	}
	if got := m.At(0, 4).Terrain; got != world.Street {
		t.Errorf("bridged tile = %v, want Street", got)
	}
	if mn.EnergyLevel() >= DefaultMaxEnergy {
		t.Error("actions did not cost energy")
	}
}

func TestMinerRestsWithNothingToDo(t *testing.T) {
	m := parseWorld(t, `rows: ["..", ".."]`)
	mn, _ := NewMiner(m, MinerConfig{MaxEnergy: 100})
	mn.energy = 10
	tick(t, mn, 1)
	if r, c := mn.Coordinate(); r != 0 || c != 0 {
		t.Errorf("idle miner moved to (%d,%d)", r, c)
	}
	if mn.EnergyLevel() != 50 {
		t.Errorf("energy = %v after rest, want 50", mn.EnergyLevel())
	}
	tick(t, mn, 5)
	if mn.EnergyLevel() != 100 {
		t.Errorf("energy = %v, want capped at 100", mn.EnergyLevel())
	}
}

func TestMinerRestsWhenExhausted(t *testing.T) {
	m := parseWorld(t, "rows: [\"..\"]\nrocks: [{row: 0, col: 1, quantity: 1}]")
	mn, _ := NewMiner(m, MinerConfig{})
	mn.energy = 0
	tick(t, mn, 1)
	if _, c := mn.Coordinate(); c != 0 {
		t.Error("exhausted miner moved")
	}
	if mn.EnergyLevel() != restGain {
		t.Errorf("energy = %v, want %v", mn.EnergyLevel(), restGain)
	}
}

func TestMinerAvoidsImpassableTerrain(t *testing.T) {
	m := parseWorld(t, `
rows:
  - "..^."
  - "...."
rocks:
  - {row: 0, col: 3, quantity: 1}
`)
	mn, _ := NewMiner(m, MinerConfig{Seed: 1})
	for i := 0; i < 10; i++ {
		tick(t, mn, 1)
		r, c := mn.Coordinate()
		if !Walkable(m.At(r, c).Terrain) {
			t.Fatalf("miner stepped onto %v at (%d,%d)", m.At(r, c).Terrain, r, c)
		}
	}
	if mn.Rocks() != 1 {
		t.Errorf("rocks = %d, want the rock behind the mountain collected", mn.Rocks())
	}
}

func TestMinerHonoursCancelledContext(t *testing.T) {
	mn, _ := NewMiner(parseWorld(t, `rows: [".."]`), MinerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := mn.ProcessTick(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ProcessTick = %v, want context.Canceled", err)
	}
}

type stubRuntime struct {
	row, col int
	energy   float64
	rocks    int
	ticks    int
	err      error
}

func (s *stubRuntime) ProcessTick(context.Context) error {
	s.ticks++
	s.col++
	return s.err
}
func (s *stubRuntime) Coordinate() (int, int) { return s.row, s.col }
func (s *stubRuntime) EnergyLevel() float64   { return s.energy }
func (s *stubRuntime) Rocks() int             { return s.rocks }

func TestWrapperDelegates(t *testing.T) {
	inner := &stubRuntime{row: 2, col: 3, energy: 42, rocks: 5}
	w := Wrap(inner)

	if r, c := w.Coordinate(); r != 2 || c != 3 {
		t.Errorf("Coordinate() = (%d,%d), want (2,3)", r, c)
	}
	if w.EnergyLevel() != 42 || w.Rocks() != 5 {
		t.Errorf("EnergyLevel/Rocks = %v/%d", w.EnergyLevel(), w.Rocks())
	}

	tick(t, w, 2)
	inner.err = errors.New("stuck")
	_ = w.ProcessTick(context.Background())
	if w.Ticks() != 3 || w.Failures() != 1 || inner.ticks != 3 {
		t.Errorf("ticks=%d failures=%d inner=%d", w.Ticks(), w.Failures(), inner.ticks)
	}
	if got := SampleOf(w); got != (telemetry.Sample{Row: 2, Col: 6, Energy: 42, Rocks: 5}) {
		t.Errorf("SampleOf = %+v", got)
	}
}

func TestRunnerStopsWhenChannelClosed(t *testing.T) {
	ch := telemetry.NewChannel(4)
	rt := &stubRuntime{}
	r := &Runner{Runtime: rt, Channel: ch, Delay: time.Millisecond}

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	// Wait for a few samples, then tear the consumer down.
	deadline := time.After(2 * time.Second)
	for ch.Len() < 3 {
		select {
		case <-deadline:
			t.Fatal("runner produced no samples")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	ch.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after channel close")
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ch := telemetry.NewChannel(0)
	rt := &stubRuntime{err: errors.New("tick failed")}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{Runtime: rt, Channel: ch, Delay: time.Millisecond}

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}

	// Failing ticks still publish; samples arrive in tick order.
	first, ok := ch.TryReceive()
	if !ok || first.Col != 0 {
		t.Fatalf("first sample = %+v, %v; want initial state", first, ok)
	}
	prev := first.Col
	for s, ok := ch.TryReceive(); ok; s, ok = ch.TryReceive() {
		if s.Col != prev+1 {
			t.Fatalf("sample col %d follows %d", s.Col, prev)
		}
		prev = s.Col
	}
}

func TestRunnerClosedBeforeStart(t *testing.T) {
	ch := telemetry.NewChannel(1)
	ch.Close()
	rt := &stubRuntime{}
	r := &Runner{Runtime: rt, Channel: ch}
	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run = %v", err)
	}
	if rt.ticks != 0 {
		t.Errorf("runtime ticked %d times with a closed channel", rt.ticks)
	}
}
