package gui

import (
	"errors"
	"fmt"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/holycrab/minerview/internal/world"
)

// ErrMissingAsset is returned when a sprite has no table entry or no file.
var ErrMissingAsset = errors.New("missing asset")

// terrainAssets maps every terrain to its sprite, relative to the asset
// directory. Several terrains share the grass tile.
var terrainAssets = [world.TerrainCount]string{
	world.DeepWater:    "tiles/Map_tile_37.png",
	world.ShallowWater: "tiles/Map_tile_01.png",
	world.Grass:        "tiles/Map_tile_23.png",
	world.Hill:         "tiles/hill1.png",
	world.Sand:         "tiles/sand.png",
	world.Lava:         "tiles/Map_tile_110.png",
	world.Snow:         "tiles/Map_tile_23.png",
	world.Mountain:     "tiles/Map_tile_23.png",
	world.Street:       "tiles/Map_tile_23.png",
}

const (
	rockAsset        = "objects/prova_rock.png"
	agentMovingAsset = "objects/elf.png"
	agentIdleAsset   = "objects/elf_idle.png"
)

// AssetPaths lists every file the window renderer loads, terrains first.
func AssetPaths() ([]string, error) {
	paths := make([]string, 0, len(terrainAssets)+3)
	for t, p := range terrainAssets {
		if p == "" {
			return nil, fmt.Errorf("%w: no sprite for terrain %v", ErrMissingAsset, world.Terrain(t))
		}
		paths = append(paths, p)
	}
	return append(paths, rockAsset, agentMovingAsset, agentIdleAsset), nil
}

// CheckAssets verifies that every sprite exists under dir.
func CheckAssets(dir string) error {
	paths, err := AssetPaths()
	if err != nil {
		return err
	}
	for _, p := range paths {
		full := filepath.Join(dir, p)
		info, err := os.Stat(full)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMissingAsset, full, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrMissingAsset, full)
		}
	}
	return nil
}

// Sprites holds the decoded images.
type Sprites struct {
	Terrain     [world.TerrainCount]*ebiten.Image
	Rock        *ebiten.Image
	AgentMoving *ebiten.Image
	AgentIdle   *ebiten.Image
}

// LoadSprites checks and decodes every sprite under dir. Shared files are
// decoded once.
func LoadSprites(dir string) (*Sprites, error) {
	if err := CheckAssets(dir); err != nil {
		return nil, err
	}
	cache := make(map[string]*ebiten.Image)
	load := func(p string) (*ebiten.Image, error) {
		if img, ok := cache[p]; ok {
			return img, nil
		}
		img, _, err := ebitenutil.NewImageFromFile(filepath.Join(dir, p))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		cache[p] = img
		return img, nil
	}

	s := &Sprites{}
	var err error
	for t, p := range terrainAssets {
		if s.Terrain[t], err = load(p); err != nil {
			return nil, err
		}
	}
	if s.Rock, err = load(rockAsset); err != nil {
		return nil, err
	}
	if s.AgentMoving, err = load(agentMovingAsset); err != nil {
		return nil, err
	}
	if s.AgentIdle, err = load(agentIdleAsset); err != nil {
		return nil, err
	}
	return s, nil
}
