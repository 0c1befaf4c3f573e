// Package input turns key presses into viewport changes, at most one per
// rendered frame.
package input

import "github.com/holycrab/minerview/internal/viewport"

// Action is a viewport command bound to a key.
type Action int

const (
	None Action = iota
	ZoomIn
	ZoomOut
	PanUp
	PanDown
	PanLeft
	PanRight
)

// Actions lists every bindable action in the order Poll checks them.
var Actions = []Action{ZoomIn, ZoomOut, PanUp, PanDown, PanLeft, PanRight}

func (a Action) String() string {
	switch a {
	case ZoomIn:
		return "zoom in"
	case ZoomOut:
		return "zoom out"
	case PanUp:
		return "pan up"
	case PanDown:
		return "pan down"
	case PanLeft:
		return "pan left"
	case PanRight:
		return "pan right"
	}
	return "none"
}

// Controller rate-limits viewport changes. Once an action has been applied
// it ignores further input until BeginFrame, so a held key moves the view
// once per frame however often it is reported.
type Controller struct {
	zoomStep float64
	panStep  float64
	handled  bool
}

// NewController returns a controller zooming by zoomStep and panning by
// panStep tiles.
func NewController(zoomStep, panStep float64) *Controller {
	return &Controller{zoomStep: zoomStep, panStep: panStep}
}

// BeginFrame re-arms the controller for a new frame.
func (c *Controller) BeginFrame() {
	c.handled = false
}

// Handled reports whether an action was applied this frame.
func (c *Controller) Handled() bool {
	return c.handled
}

// Apply performs a on v unless an action was already applied this frame.
// It reports whether the action was applied.
func (c *Controller) Apply(a Action, v *viewport.Viewport) bool {
	if c.handled || a == None {
		return false
	}
	switch a {
	case ZoomIn:
		if err := v.Zoom(c.zoomStep); err != nil {
			return false
		}
	case ZoomOut:
		if err := v.Zoom(1 / c.zoomStep); err != nil {
			return false
		}
	case PanUp:
		v.Pan(-c.panStep, 0)
	case PanDown:
		v.Pan(c.panStep, 0)
	case PanLeft:
		v.Pan(0, -c.panStep)
	case PanRight:
		v.Pan(0, c.panStep)
	default:
		return false
	}
	c.handled = true
	return true
}

// Poll asks held about each action in Actions order and applies the first
// one currently held.
func (c *Controller) Poll(held func(Action) bool, v *viewport.Viewport) Action {
	if c.handled {
		return None
	}
	for _, a := range Actions {
		if held(a) && c.Apply(a, v) {
			return a
		}
	}
	return None
}
