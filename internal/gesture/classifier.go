package gesture

import (
	"github.com/ayusman/mudra/internal/detector"
)

// DefaultPinchThreshold is the normalized thumb-to-index distance below which
// the hand counts as pinching.
const DefaultPinchThreshold = 0.07

// Finger positions in Features.Up.
const (
	Index = iota
	Middle
	Ring
	Pinky
)

// Features holds the per-frame measurements the rules are evaluated against.
type Features struct {
	Up            [4]bool `json:"up"` // index, middle, ring, pinky
	Count         int     `json:"count"`
	ThumbExtended bool    `json:"thumb_extended"`
	PinchDistance float64 `json:"pinch_distance"`
	Pinching      bool    `json:"pinching"`
}

// only reports whether exactly the given fingers are raised.
func (f Features) only(fingers ...int) bool {
	var want [4]bool
	for _, i := range fingers {
		want[i] = true
	}
	return f.Up == want
}

// Classifier maps landmark sets to gestures.
type Classifier struct {
	PinchThreshold float64
}

// NewClassifier creates a Classifier with the given pinch threshold.
// Non-positive thresholds fall back to DefaultPinchThreshold.
func NewClassifier(pinchThreshold float64) *Classifier {
	if pinchThreshold <= 0 {
		pinchThreshold = DefaultPinchThreshold
	}
	return &Classifier{PinchThreshold: pinchThreshold}
}

var defaultClassifier = NewClassifier(DefaultPinchThreshold)

// Classify classifies h using the default pinch threshold.
func Classify(h *detector.HandLandmarks) Gesture {
	return defaultClassifier.Classify(h)
}

// Features measures finger extension, thumb direction and pinch distance.
//
// A finger is up when its tip is higher in the frame (smaller y) than its
// knuckle. The frame is mirrored, so an extended thumb has a smaller x than
// its MCP joint.
func (c *Classifier) Features(h *detector.HandLandmarks) Features {
	var f Features
	for i := range detector.FingerTips {
		if h.Points[detector.FingerTips[i]].Y < h.Points[detector.FingerMCPs[i]].Y {
			f.Up[i] = true
			f.Count++
		}
	}

	f.ThumbExtended = h.Points[detector.ThumbTip].X < h.Points[detector.ThumbMCP].X
	f.PinchDistance = detector.Distance2D(h.Points[detector.ThumbTip], h.Points[detector.IndexTip])
	f.Pinching = f.PinchDistance < c.PinchThreshold
	return f
}

// rule is one entry of the classification table.
type rule struct {
	gesture Gesture
	match   func(Features) bool
}

// rules are evaluated top to bottom and the first match wins. Several shapes
// overlap on raw finger count, so the order is significant.
var rules = []rule{
	{OKSign, func(f Features) bool {
		return f.only(Index, Middle, Ring) && !f.ThumbExtended && f.Pinching
	}},
	{OpenPalm, func(f Features) bool { return f.Count == 4 && f.ThumbExtended }},
	{FourFingers, func(f Features) bool { return f.Count == 4 && !f.ThumbExtended }},
	{OneFinger, func(f Features) bool { return f.only(Index) }},
	{TwoFingers, func(f Features) bool { return f.only(Index, Middle) }},
	{ThreeFingers, func(f Features) bool { return f.only(Index, Middle, Ring) }},
	{PinchDrag, func(f Features) bool { return f.Count == 0 && f.Pinching }},
	{Fist, func(f Features) bool { return f.Count == 0 }},
}

// Classify returns the gesture for h. A nil hand yields None; landmark
// configurations that match no rule yield Idle.
func (c *Classifier) Classify(h *detector.HandLandmarks) Gesture {
	if h == nil {
		return None
	}

	return Match(c.Features(h))
}

// Match applies the classification rules to measured features.
func Match(f Features) Gesture {
	for _, r := range rules {
		if r.match(f) {
			return r.gesture
		}
	}
	return Idle
}
