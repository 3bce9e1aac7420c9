// Package gesture classifies a single frame of hand landmarks into one of a
// fixed set of control gestures.
package gesture

// Gesture is the discrete hand pose recognized in one frame.
type Gesture string

const (
	OneFinger    Gesture = "ONE_FINGER"
	TwoFingers   Gesture = "TWO_FINGERS"
	ThreeFingers Gesture = "THREE_FINGERS"
	FourFingers  Gesture = "FOUR_FINGERS"
	OpenPalm     Gesture = "OPEN_PALM"
	PinchDrag    Gesture = "PINCH_DRAG"
	Fist         Gesture = "FIST"
	OKSign       Gesture = "OK_SIGN"
	Idle         Gesture = "IDLE"
	// None marks a frame in which no hand was detected.
	None Gesture = "NONE"
)

// All lists every gesture in classification order, followed by None.
var All = []Gesture{OKSign, OpenPalm, FourFingers, OneFinger, TwoFingers, ThreeFingers, PinchDrag, Fist, Idle, None}

// Label returns the text shown to the user for the gesture.
func (g Gesture) Label() string {
	if g == None {
		return "No Hand Detected"
	}
	return string(g)
}

// Valid reports whether g is one of the known gestures.
func (g Gesture) Valid() bool {
	for _, known := range All {
		if g == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (g Gesture) String() string {
	return string(g)
}
