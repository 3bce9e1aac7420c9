// Package cursor maps normalized fingertip positions to smoothed screen coordinates.
package cursor

// Default tuning values.
const (
	DefaultSensitivity = 1.5
	DefaultSmoothing   = 0.7
)

// Point is a position in screen pixels, or in normalized frame
// coordinates when passed to Map as the fingertip.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Screen is the size of the target display in pixels.
type Screen struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the middle of the screen.
func (s Screen) Center() Point {
	return Point{X: 0.5 * float64(s.Width), Y: 0.5 * float64(s.Height)}
}

// Mapper converts fingertip positions into cursor positions.
//
// Each axis of the [0,1] frame is stretched onto
// [-(dim*(Sensitivity-1)), dim*Sensitivity], so small movements near the frame
// edges still reach the screen edges, and the result is passed through a
// one-pole low-pass filter with coefficient Smoothing.
type Mapper struct {
	Screen      Screen
	Sensitivity float64
	Smoothing   float64
}

// NewMapper creates a Mapper for the given screen with default tuning.
func NewMapper(screen Screen) *Mapper {
	return &Mapper{
		Screen:      screen,
		Sensitivity: DefaultSensitivity,
		Smoothing:   DefaultSmoothing,
	}
}

// Target returns the unsmoothed screen position for a normalized fingertip.
func (m *Mapper) Target(tip Point) Point {
	return Point{
		X: stretch(tip.X, float64(m.Screen.Width), m.Sensitivity),
		Y: stretch(tip.Y, float64(m.Screen.Height), m.Sensitivity),
	}
}

// Map returns the new smoothed cursor position for a normalized fingertip,
// given the previously emitted position.
func (m *Mapper) Map(tip, prev Point) Point {
	target := m.Target(tip)
	a := m.Smoothing
	return Point{
		X: prev.X*a + target.X*(1-a),
		Y: prev.Y*a + target.Y*(1-a),
	}
}

// stretch linearly interpolates v from [0,1] onto the expanded screen range.
// Values outside [0,1] clamp to the range ends.
func stretch(v, dim, sensitivity float64) float64 {
	lo := -(dim * (sensitivity - 1))
	hi := dim * sensitivity
	switch {
	case v <= 0:
		return lo
	case v >= 1:
		return hi
	}
	return lo + v*(hi-lo)
}
