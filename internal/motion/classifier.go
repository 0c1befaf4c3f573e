// Package motion classifies the agent as moving or idle from its position
// stream.
package motion

import (
	"time"

	"github.com/holycrab/minerview/internal/telemetry"
)

// DefaultIdleThreshold is how long the position must stay put before the
// agent is shown as idle.
const DefaultIdleThreshold = 3 * time.Second

// State is the classifier output.
type State int

const (
	Unknown State = iota
	Moving
	Idle
)

func (s State) String() string {
	switch s {
	case Moving:
		return "moving"
	case Idle:
		return "idle"
	}
	return "unknown"
}

// Classifier turns positions into a Moving/Idle state with time-based
// hysteresis: the agent goes idle only after its position has been unchanged
// for at least the threshold, and becomes moving again on the first change.
// The comparison uses wall time, not sample counts, so irregular sampling
// does not skew it.
type Classifier struct {
	threshold time.Duration

	last       telemetry.Position
	hasLast    bool
	lastChange time.Time // zero until the first change is seen
	state      State
}

// NewClassifier returns a classifier. A non-positive threshold selects
// DefaultIdleThreshold.
func NewClassifier(threshold time.Duration) *Classifier {
	if threshold <= 0 {
		threshold = DefaultIdleThreshold
	}
	return &Classifier{threshold: threshold}
}

// Observe feeds one position seen at now and returns the new state.
func (c *Classifier) Observe(p telemetry.Position, now time.Time) State {
	switch {
	case !c.hasLast || p != c.last:
		c.last = p
		c.hasLast = true
		c.lastChange = now
		c.state = Moving
	case c.lastChange.IsZero():
		c.lastChange = now
		c.state = Moving
	case now.Sub(c.lastChange) >= c.threshold:
		c.state = Idle
	}
	return c.state
}

// State returns the current classification.
func (c *Classifier) State() State {
	return c.state
}

// Position returns the last observed position and whether one exists.
func (c *Classifier) Position() (telemetry.Position, bool) {
	return c.last, c.hasLast
}

// Threshold returns the idle threshold in use.
func (c *Classifier) Threshold() time.Duration {
	return c.threshold
}
