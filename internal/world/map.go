package world

import "errors"

var (
	ErrEmptyMap       = errors.New("world: map has no tiles")
	ErrRaggedMap      = errors.New("world: rows differ in length")
	ErrUnknownTerrain = errors.New("world: unknown terrain glyph")
)

// Map is a fixed-size row-major grid of tiles. Its dimensions never change
// after construction.
type Map struct {
	rows, cols int
	tiles      []Tile
}

// NewMap creates a rows x cols map filled with fill.
func NewMap(rows, cols int, fill Tile) (*Map, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmptyMap
	}
	tiles := make([]Tile, rows*cols)
	for i := range tiles {
		tiles[i] = fill
	}
	return &Map{rows: rows, cols: cols, tiles: tiles}, nil
}

// FromTiles builds a map from a 2D slice, which must be non-empty and
// rectangular. The tiles are copied.
func FromTiles(grid [][]Tile) (*Map, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, ErrEmptyMap
	}
	cols := len(grid[0])
	m := &Map{rows: len(grid), cols: cols, tiles: make([]Tile, 0, len(grid)*cols)}
	for _, row := range grid {
		if len(row) != cols {
			return nil, ErrRaggedMap
		}
		m.tiles = append(m.tiles, row...)
	}
	return m, nil
}

func (m *Map) Rows() int { return m.rows }
func (m *Map) Cols() int { return m.cols }

// InBounds reports whether (row, col) indexes a tile.
func (m *Map) InBounds(row, col int) bool {
	return row >= 0 && row < m.rows && col >= 0 && col < m.cols
}

// At returns the tile at (row, col). It panics when out of bounds; callers
// check InBounds first.
func (m *Map) At(row, col int) Tile {
	return m.tiles[m.index(row, col)]
}

// Set replaces the tile at (row, col).
func (m *Map) Set(row, col int, t Tile) {
	m.tiles[m.index(row, col)] = t
}

func (m *Map) index(row, col int) int {
	if !m.InBounds(row, col) {
		panic("world: tile index out of range")
	}
	return row*m.cols + col
}

// Clone returns an independent copy of m.
func (m *Map) Clone() *Map {
	tiles := make([]Tile, len(m.tiles))
	copy(tiles, m.tiles)
	return &Map{rows: m.rows, cols: m.cols, tiles: tiles}
}

// Counts summarises the map's terrain and rocks.
type Counts struct {
	Terrain   [TerrainCount]int
	RockTiles int
	Rocks     int
}

// Counts tallies tiles per terrain and the rocks lying on the map.
func (m *Map) Counts() Counts {
	var c Counts
	for _, t := range m.tiles {
		if t.Terrain.Valid() {
			c.Terrain[t.Terrain]++
		}
		if t.Content.IsRock() && t.Content.Quantity > 0 {
			c.RockTiles++
			c.Rocks += t.Content.Quantity
		}
	}
	return c
}
