package agent

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/holycrab/minerview/internal/telemetry"
	"github.com/holycrab/minerview/internal/world"
)

// Miner tuning.
const (
	DefaultMaxEnergy = 1000.0
	BridgeCost       = 3
	restGain         = 40.0
	pickCost         = 5.0
	bridgeCost       = 30.0
)

// ErrNoFooting is returned when a miner cannot be placed on the map.
var ErrNoFooting = errors.New("agent: no walkable tile to start on")

var moveCost = [world.TerrainCount]float64{
	world.ShallowWater: 6,
	world.Grass:        2,
	world.Hill:         8,
	world.Sand:         4,
	world.Snow:         8,
	world.Street:       1,
}

// Walkable reports whether the miner can step onto t.
func Walkable(t world.Terrain) bool {
	switch t {
	case world.DeepWater, world.Lava, world.Mountain:
		return false
	}
	return t.Valid()
}

// MinerConfig tunes a Miner.
type MinerConfig struct {
	MaxEnergy float64
	Seed      uint64
}

// Miner is the built-in demo runtime. It walks to the nearest rock pile,
// picks it up, and spends rocks bridging deep water it stands next to. It
// owns its own copy of the world; nothing else reads it.
type Miner struct {
	world     *world.Map
	pos       telemetry.Position
	energy    float64
	maxEnergy float64
	rocks     int
	rng       *rand.Rand
}

// NewMiner places a miner on the first walkable tile of m, scanning row by
// row. m becomes owned by the miner.
func NewMiner(m *world.Map, cfg MinerConfig) (*Miner, error) {
	if cfg.MaxEnergy <= 0 {
		cfg.MaxEnergy = DefaultMaxEnergy
	}
	mn := &Miner{
		world:     m,
		energy:    cfg.MaxEnergy,
		maxEnergy: cfg.MaxEnergy,
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			if Walkable(m.At(r, c).Terrain) {
				mn.pos = telemetry.Position{Row: r, Col: c}
				return mn, nil
			}
		}
	}
	return nil, ErrNoFooting
}

func (mn *Miner) Coordinate() (row, col int) { return mn.pos.Row, mn.pos.Col }
func (mn *Miner) EnergyLevel() float64       { return mn.energy }
func (mn *Miner) Rocks() int                 { return mn.rocks }

// ProcessTick performs one action: pick up, bridge, step, or rest.
func (mn *Miner) ProcessTick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	here := mn.world.At(mn.pos.Row, mn.pos.Col)
	if here.Content.IsRock() && here.Content.Quantity > 0 {
		if !mn.spend(pickCost) {
			return nil
		}
		here.Content = world.None
		mn.world.Set(mn.pos.Row, mn.pos.Col, here)
		mn.rocks++
		return nil
	}

	if mn.rocks >= BridgeCost {
		if water, ok := mn.adjacent(func(t world.Tile) bool { return t.Terrain == world.DeepWater }); ok {
			if !mn.spend(bridgeCost) {
				return nil
			}
			mn.world.Set(water.Row, water.Col, world.Tile{Terrain: world.Street, Content: mn.world.At(water.Row, water.Col).Content})
			mn.rocks -= BridgeCost
			mn.pos = water
			return nil
		}
	}

	next, ok := mn.route(func(p telemetry.Position) bool {
		c := mn.world.At(p.Row, p.Col).Content
		return c.IsRock() && c.Quantity > 0
	})
	if !ok && mn.rocks >= BridgeCost {
		next, ok = mn.route(func(p telemetry.Position) bool {
			_, near := mn.adjacentTo(p, func(t world.Tile) bool { return t.Terrain == world.DeepWater })
			return near
		})
	}
	if !ok {
		mn.rest()
		return nil
	}
	if !mn.spend(moveCost[mn.world.At(next.Row, next.Col).Terrain]) {
		return nil
	}
	mn.pos = next
	return nil
}

// spend deducts cost, resting instead when energy is short.
func (mn *Miner) spend(cost float64) bool {
	if mn.energy < cost {
		mn.rest()
		return false
	}
	mn.energy -= cost
	return true
}

func (mn *Miner) rest() {
	mn.energy = min(mn.energy+restGain, mn.maxEnergy)
}

var steps = [4]telemetry.Position{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}}

func (mn *Miner) adjacent(match func(world.Tile) bool) (telemetry.Position, bool) {
	return mn.adjacentTo(mn.pos, match)
}

func (mn *Miner) adjacentTo(p telemetry.Position, match func(world.Tile) bool) (telemetry.Position, bool) {
	for _, d := range steps {
		n := telemetry.Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
		if mn.world.InBounds(n.Row, n.Col) && match(mn.world.At(n.Row, n.Col)) {
			return n, true
		}
	}
	return telemetry.Position{}, false
}

// route runs a breadth-first search over walkable tiles from the miner's
// position to the nearest tile satisfying goal, and returns the first step
// of that path. Neighbour order is shuffled so ties break differently run
// to run. A goal under the miner's feet yields no step.
func (mn *Miner) route(goal func(telemetry.Position) bool) (telemetry.Position, bool) {
	if goal(mn.pos) {
		return telemetry.Position{}, false
	}
	rows, cols := mn.world.Rows(), mn.world.Cols()
	parent := make([]int, rows*cols)
	for i := range parent {
		parent[i] = -1
	}
	start := mn.pos.Row*cols + mn.pos.Col
	parent[start] = start

	order := steps
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		p := telemetry.Position{Row: cur / cols, Col: cur % cols}
		if cur != start && goal(p) {
			for parent[cur] != start {
				cur = parent[cur]
			}
			return telemetry.Position{Row: cur / cols, Col: cur % cols}, true
		}
		mn.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, d := range order {
			n := telemetry.Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
			if !mn.world.InBounds(n.Row, n.Col) || !Walkable(mn.world.At(n.Row, n.Col).Terrain) {
				continue
			}
			idx := n.Row*cols + n.Col
			if parent[idx] != -1 {
				continue
			}
			parent[idx] = cur
			queue = append(queue, idx)
		}
	}
	return telemetry.Position{}, false
}
