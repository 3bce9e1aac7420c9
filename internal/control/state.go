package control

import (
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/gesture"
)

// ScrollDirection is the sticky direction of an engaged scroll lock.
type ScrollDirection string

const (
	ScrollNone ScrollDirection = ""
	ScrollUp   ScrollDirection = "UP"
	ScrollDown ScrollDirection = "DOWN"
)

// State is everything the controller remembers between frames. It is owned
// by the control loop and threaded through Step by value.
type State struct {
	// Cursor is the last emitted smoothed cursor position.
	Cursor cursor.Point `json:"cursor"`
	// LastGesture is the gesture of the previous frame, empty before the first frame.
	LastGesture gesture.Gesture `json:"last_gesture"`
	// Dragging is true while the left button is logically held.
	Dragging bool `json:"dragging"`
	// ScrollLock is the engaged scroll direction, if any.
	ScrollLock ScrollDirection `json:"scroll_lock"`
	// ScrollRef is the fingertip y used to measure scroll nudges; nil when unset.
	ScrollRef *float64 `json:"scroll_ref,omitempty"`
}

// NewState returns the initial state with the cursor at the screen center.
func NewState(screen cursor.Screen) State {
	return State{Cursor: screen.Center()}
}

func (s *State) clearScroll() {
	s.ScrollLock = ScrollNone
	s.ScrollRef = nil
}
