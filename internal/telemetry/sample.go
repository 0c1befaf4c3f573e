// Package telemetry carries agent samples from the simulation goroutine to
// the render loop.
package telemetry

import "fmt"

// Sample is one telemetry snapshot taken after a simulation tick. It is a
// plain value: once sent, the producer keeps no reference to it.
type Sample struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Energy float64 `json:"energy"`
	Rocks  int     `json:"rocks"`
}

// Position returns the sample's grid coordinate.
func (s Sample) Position() Position {
	return Position{Row: s.Row, Col: s.Col}
}

func (s Sample) String() string {
	return fmt.Sprintf("(%d,%d) energy=%.0f rocks=%d", s.Row, s.Col, s.Energy, s.Rocks)
}

// Position is a row/col grid coordinate.
type Position struct {
	Row, Col int
}
