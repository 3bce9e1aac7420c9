// Package detector provides hand detection interfaces and types for gesture recognition.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FingerTips and FingerMCPs list the tip and knuckle landmarks of the four
// non-thumb fingers, ordered index, middle, ring, pinky.
var (
	FingerTips = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}
	FingerMCPs = [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
)

// Point3D represents a landmark position. X and Y are normalized image
// coordinates in [0,1] with the origin at the top-left corner; Z is the
// estimator's relative depth and is not used by gesture classification.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Distance2D returns the Euclidean distance between two points in the image plane.
func Distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// InFrame reports whether every landmark lies inside the normalized frame.
// MediaPipe may report slightly out-of-range coordinates for partially visible hands.
func (h *HandLandmarks) InFrame() bool {
	if h == nil {
		return false
	}
	for _, p := range h.Points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return false
		}
	}
	return true
}
