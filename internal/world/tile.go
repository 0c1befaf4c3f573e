// Package world defines the tile grid the agent explores and loads it from a
// pre-generated world artifact.
package world

// Terrain is the ground type of a tile.
type Terrain int

const (
	DeepWater Terrain = iota
	ShallowWater
	Grass
	Hill
	Sand
	Lava
	Snow
	Mountain
	Street
	TerrainCount // sentinel, not a terrain
)

var terrainNames = [TerrainCount]string{
	DeepWater:    "DeepWater",
	ShallowWater: "ShallowWater",
	Grass:        "Grass",
	Hill:         "Hill",
	Sand:         "Sand",
	Lava:         "Lava",
	Snow:         "Snow",
	Mountain:     "Mountain",
	Street:       "Street",
}

// Glyphs used by the world artifact, one per terrain.
var terrainGlyphs = [TerrainCount]rune{
	DeepWater:    '~',
	ShallowWater: '-',
	Grass:        '.',
	Hill:         'h',
	Sand:         's',
	Lava:         'l',
	Snow:         '*',
	Mountain:     '^',
	Street:       '=',
}

func (t Terrain) String() string {
	if !t.Valid() {
		return "?"
	}
	return terrainNames[t]
}

// Valid reports whether t is one of the defined terrains.
func (t Terrain) Valid() bool {
	return t >= 0 && t < TerrainCount
}

// Glyph returns the artifact glyph for t.
func (t Terrain) Glyph() rune {
	if !t.Valid() {
		return '?'
	}
	return terrainGlyphs[t]
}

// TerrainFromGlyph maps an artifact glyph back to its terrain.
func TerrainFromGlyph(r rune) (Terrain, bool) {
	for t, g := range terrainGlyphs {
		if g == r {
			return Terrain(t), true
		}
	}
	return 0, false
}

// Terrains returns every terrain in declaration order.
func Terrains() []Terrain {
	out := make([]Terrain, 0, TerrainCount)
	for t := Terrain(0); t < TerrainCount; t++ {
		out = append(out, t)
	}
	return out
}

// ContentKind is what lies on top of a tile.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentRock
)

// Content is a tile's content. Quantity is only meaningful for rocks.
type Content struct {
	Kind     ContentKind
	Quantity int
}

// None is the empty content.
var None = Content{}

// Rock returns rock content of the given quantity.
func Rock(quantity int) Content {
	return Content{Kind: ContentRock, Quantity: quantity}
}

// IsRock reports whether c is a rock pile, of any quantity.
func (c Content) IsRock() bool {
	return c.Kind == ContentRock
}

// Tile is one cell of the map.
type Tile struct {
	Terrain Terrain
	Content Content
}
