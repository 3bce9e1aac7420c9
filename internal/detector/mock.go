package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Pose describes a hand shape for building synthetic landmark sets.
// The geometry assumes a mirrored right hand, palm facing the camera,
// so the thumb points toward smaller X when extended.
type Pose struct {
	Index, Middle, Ring, Pinky bool
	ThumbOut                   bool
	// Pinch places the thumb tip next to the index tip; ThumbOut is ignored.
	Pinch bool
}

// PoseLandmarks builds a HandLandmarks for the given pose.
func PoseLandmarks(p Pose) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.85}

	// Knuckles sit on a line across the palm.
	fingers := []struct {
		up                 bool
		x                  float64
		mcp, pip, dip, tip int
	}{
		{p.Index, 0.45, IndexMCP, IndexPIP, IndexDIP, IndexTip},
		{p.Middle, 0.50, MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
		{p.Ring, 0.55, RingMCP, RingPIP, RingDIP, RingTip},
		{p.Pinky, 0.60, PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
	}
	for _, f := range fingers {
		h.Points[f.mcp] = Point3D{X: f.x, Y: 0.60}
		if f.up {
			h.Points[f.pip] = Point3D{X: f.x, Y: 0.50}
			h.Points[f.dip] = Point3D{X: f.x, Y: 0.42}
			h.Points[f.tip] = Point3D{X: f.x, Y: 0.35}
		} else {
			// Curled: the tip folds back below the knuckle.
			h.Points[f.pip] = Point3D{X: f.x, Y: 0.55, Z: -0.05}
			h.Points[f.dip] = Point3D{X: f.x + 0.01, Y: 0.62, Z: -0.04}
			h.Points[f.tip] = Point3D{X: f.x + 0.02, Y: 0.66, Z: -0.02}
		}
	}

	h.Points[ThumbCMC] = Point3D{X: 0.42, Y: 0.78}
	h.Points[ThumbMCP] = Point3D{X: 0.38, Y: 0.70}

	switch {
	case p.Pinch:
		tip := h.Points[IndexTip]
		h.Points[ThumbIP] = Point3D{X: tip.X, Y: tip.Y + 0.06}
		h.Points[ThumbTip] = Point3D{X: tip.X + 0.02, Y: tip.Y + 0.02}
	case p.ThumbOut:
		h.Points[ThumbIP] = Point3D{X: 0.33, Y: 0.65}
		h.Points[ThumbTip] = Point3D{X: 0.28, Y: 0.62}
	default:
		// Tucked across the palm, clear of the curled index tip.
		h.Points[ThumbIP] = Point3D{X: 0.40, Y: 0.74}
		h.Points[ThumbTip] = Point3D{X: 0.40, Y: 0.76}
	}

	return h
}

// WithIndexTip returns a copy of h with the index fingertip moved to (x, y).
func WithIndexTip(h HandLandmarks, x, y float64) HandLandmarks {
	dx := x - h.Points[IndexTip].X
	dy := y - h.Points[IndexTip].Y
	h.Points[IndexTip] = Point3D{X: x, Y: y, Z: h.Points[IndexTip].Z}
	// Keep a pinching thumb attached to the fingertip.
	if Distance2D(h.Points[ThumbTip], Point3D{X: x - dx, Y: y - dy}) < 0.05 {
		h.Points[ThumbTip].X += dx
		h.Points[ThumbTip].Y += dy
	}
	return h
}

// PointingLandmarks returns a hand with only the index finger raised.
func PointingLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Index: true})
}

// TwoFingersLandmarks returns a hand with index and middle fingers raised.
func TwoFingersLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Index: true, Middle: true})
}

// ThreeFingersLandmarks returns a hand with index, middle and ring fingers raised.
func ThreeFingersLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Index: true, Middle: true, Ring: true})
}

// FourFingersLandmarks returns a hand with all four fingers raised and the thumb tucked.
func FourFingersLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Index: true, Middle: true, Ring: true, Pinky: true})
}

// OpenPalmLandmarks returns a hand with every finger and the thumb extended.
func OpenPalmLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Index: true, Middle: true, Ring: true, Pinky: true, ThumbOut: true})
}

// FistLandmarks returns a closed hand with the thumb away from the index tip.
func FistLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{})
}

// PinchLandmarks returns a closed hand with thumb and index tips touching.
func PinchLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Pinch: true})
}

// OKSignLandmarks returns three raised fingers with the thumb pinching the index tip.
func OKSignLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Index: true, Middle: true, Ring: true, Pinch: true})
}
