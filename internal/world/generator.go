package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Generator produces the initial map.
type Generator interface {
	Generate() (*Map, error)
}

// artifact is the on-disk world layout. JSON artifacts decode too, since
// JSON is a subset of YAML.
type artifact struct {
	Rows  []string      `yaml:"rows"`
	Rocks []rockPlacing `yaml:"rocks"`
}

type rockPlacing struct {
	Row      int `yaml:"row"`
	Col      int `yaml:"col"`
	Quantity int `yaml:"quantity"`
}

// FileGenerator reads a pre-generated world artifact from Path.
type FileGenerator struct {
	Path string
}

// Generate reads and decodes the artifact.
func (g FileGenerator) Generate() (*Map, error) {
	data, err := os.ReadFile(g.Path)
	if err != nil {
		return nil, fmt.Errorf("read world %s: %w", g.Path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse world %s: %w", g.Path, err)
	}
	return m, nil
}

// Parse decodes a world artifact.
func Parse(data []byte) (*Map, error) {
	var a artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if len(a.Rows) == 0 {
		return nil, ErrEmptyMap
	}

	grid := make([][]Tile, len(a.Rows))
	for r, line := range a.Rows {
		glyphs := []rune(line)
		row := make([]Tile, len(glyphs))
		for c, g := range glyphs {
			t, ok := TerrainFromGlyph(g)
			if !ok {
				return nil, fmt.Errorf("row %d col %d %q: %w", r, c, g, ErrUnknownTerrain)
			}
			row[c] = Tile{Terrain: t}
		}
		grid[r] = row
	}

	m, err := FromTiles(grid)
	if err != nil {
		return nil, err
	}

	for i, p := range a.Rocks {
		if !m.InBounds(p.Row, p.Col) {
			return nil, fmt.Errorf("rock %d at (%d,%d) outside %dx%d map", i, p.Row, p.Col, m.rows, m.cols)
		}
		if p.Quantity <= 0 {
			return nil, fmt.Errorf("rock %d at (%d,%d) has quantity %d", i, p.Row, p.Col, p.Quantity)
		}
		t := m.At(p.Row, p.Col)
		t.Content = Rock(p.Quantity)
		m.Set(p.Row, p.Col, t)
	}
	return m, nil
}

// Encode renders m back into artifact form.
func Encode(m *Map) ([]byte, error) {
	a := artifact{Rows: make([]string, m.rows)}
	for r := 0; r < m.rows; r++ {
		line := make([]rune, m.cols)
		for c := 0; c < m.cols; c++ {
			t := m.At(r, c)
			line[c] = t.Terrain.Glyph()
			if t.Content.IsRock() && t.Content.Quantity > 0 {
				a.Rocks = append(a.Rocks, rockPlacing{Row: r, Col: c, Quantity: t.Content.Quantity})
			}
		}
		a.Rows[r] = string(line)
	}
	return yaml.Marshal(a)
}
