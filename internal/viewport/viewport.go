// Package viewport implements the camera transform between grid and screen
// coordinates.
//
// Scale is screen units per tile; pan is the tile coordinate of the window's
// top-left corner. After every mutation the visible window
// [pan, pan+screen/scale] stays inside [0, mapSize] on both axes.
package viewport

import (
	"errors"
	"math"
)

var (
	ErrBadFactor = errors.New("viewport: zoom factor must be positive")
	ErrBadSize   = errors.New("viewport: screen and map sizes must be positive")
)

// Viewport is owned by the render loop and is not safe for concurrent use.
type Viewport struct {
	scaleX, scaleY   float64
	panX, panY       float64 // columns, rows
	screenW, screenH float64
	rows, cols       float64
}

// New returns a viewport showing the whole rows x cols map on a screen of
// the given size.
func New(screenW, screenH float64, rows, cols int) (*Viewport, error) {
	if !(screenW > 0) || !(screenH > 0) || rows <= 0 || cols <= 0 {
		return nil, ErrBadSize
	}
	v := &Viewport{
		screenW: screenW,
		screenH: screenH,
		rows:    float64(rows),
		cols:    float64(cols),
	}
	v.scaleX, v.scaleY = v.MinScale()
	return v, nil
}

// MinScale is the fully zoomed-out scale, where the window covers the map
// exactly.
func (v *Viewport) MinScale() (x, y float64) {
	return v.screenW / v.cols, v.screenH / v.rows
}

// Scale returns the current scale per axis.
func (v *Viewport) Scale() (x, y float64) {
	return v.scaleX, v.scaleY
}

// Offset returns the pan offset in tiles.
func (v *Viewport) Offset() (x, y float64) {
	return v.panX, v.panY
}

// ScreenSize returns the screen size in screen units.
func (v *Viewport) ScreenSize() (w, h float64) {
	return v.screenW, v.screenH
}

// Zoom multiplies both scale axes by factor. A zoom-out past the map
// bounds snaps to the minimum scale; the pan is then re-clamped against the
// new scale.
func (v *Viewport) Zoom(factor float64) error {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return ErrBadFactor
	}
	v.scaleX *= factor
	v.scaleY *= factor
	v.clamp()
	return nil
}

// Pan moves the window by dRow rows and dCol columns. Movement past an edge
// is absorbed at the edge.
func (v *Viewport) Pan(dRow, dCol float64) {
	v.panY += dRow
	v.panX += dCol
	v.clamp()
}

// Resize changes the screen size, keeping the current scale where the
// bounds allow it.
func (v *Viewport) Resize(screenW, screenH float64) error {
	if !(screenW > 0) || !(screenH > 0) {
		return ErrBadSize
	}
	v.screenW, v.screenH = screenW, screenH
	v.clamp()
	return nil
}

// clamp restores the window invariant. Scale must be settled first because
// the pan range depends on it.
func (v *Viewport) clamp() {
	minX, minY := v.MinScale()
	if !(v.scaleX >= minX) {
		v.scaleX = minX
	}
	if !(v.scaleY >= minY) {
		v.scaleY = minY
	}
	v.panX = clampRange(v.panX, v.cols-v.screenW/v.scaleX)
	v.panY = clampRange(v.panY, v.rows-v.screenH/v.scaleY)
}

func clampRange(p, hi float64) float64 {
	if hi < 0 {
		hi = 0
	}
	if !(p >= 0) {
		return 0
	}
	if p > hi {
		return hi
	}
	return p
}

// Window returns the visible region in tile coordinates, as the top-left
// (row0, col0) and bottom-right (row1, col1) corners.
func (v *Viewport) Window() (row0, col0, row1, col1 float64) {
	return v.panY, v.panX, v.panY + v.screenH/v.scaleY, v.panX + v.screenW/v.scaleX
}

// VisibleTiles returns the half-open index range of tiles that intersect the
// window, clipped to the map.
func (v *Viewport) VisibleTiles() (row0, col0, row1, col1 int) {
	r0, c0, r1, c1 := v.Window()
	row0 = int(math.Floor(r0))
	col0 = int(math.Floor(c0))
	row1 = min(int(math.Ceil(r1)), int(v.rows))
	col1 = min(int(math.Ceil(c1)), int(v.cols))
	return max(row0, 0), max(col0, 0), row1, col1
}

// TileToScreen maps a grid coordinate to screen coordinates.
func (v *Viewport) TileToScreen(row, col float64) (x, y float64) {
	return (col - v.panX) * v.scaleX, (row - v.panY) * v.scaleY
}

// ScreenToTile is the inverse of TileToScreen.
func (v *Viewport) ScreenToTile(x, y float64) (row, col float64) {
	return y/v.scaleY + v.panY, x/v.scaleX + v.panX
}
