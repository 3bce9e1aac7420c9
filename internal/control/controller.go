// Package control turns the per-frame gesture stream into pointer and
// keyboard actions.
package control

import (
	"math"

	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Default tuning values.
const (
	DefaultScrollNudgeThreshold = 0.03
	DefaultScrollSpeed          = 30
)

// Default hotkey combinations.
var (
	DefaultTabSwitchKeys   = []string{"win", "tab"}
	DefaultShowDesktopKeys = []string{"win", "d"}
)

// Config holds controller tuning.
type Config struct {
	ScrollNudgeThreshold float64
	ScrollSpeed          int
	TabSwitchKeys        []string
	ShowDesktopKeys      []string
}

// DefaultConfig returns the default controller tuning.
func DefaultConfig() Config {
	return Config{
		ScrollNudgeThreshold: DefaultScrollNudgeThreshold,
		ScrollSpeed:          DefaultScrollSpeed,
		TabSwitchKeys:        DefaultTabSwitchKeys,
		ShowDesktopKeys:      DefaultShowDesktopKeys,
	}
}

// Controller is the gesture state machine. It holds configuration only;
// all per-frame memory lives in State.
type Controller struct {
	config Config
	mapper *cursor.Mapper
}

// New creates a Controller.
func New(config Config, mapper *cursor.Mapper) *Controller {
	return &Controller{config: config, mapper: mapper}
}

// Mapper returns the cursor mapper used for pointer movement.
func (c *Controller) Mapper() *cursor.Mapper {
	return c.mapper
}

// Step advances the state machine by one frame. hand may be nil when g is
// gesture.None. The returned actions must be executed in order.
func (c *Controller) Step(s State, g gesture.Gesture, hand *detector.HandLandmarks) (State, []Action) {
	var actions []Action

	if hand == nil {
		g = gesture.None
	}

	// The button follows the gesture every frame, before any dispatch.
	if g == gesture.PinchDrag && !s.Dragging {
		actions = append(actions, MouseDown())
		s.Dragging = true
	} else if g != gesture.PinchDrag && s.Dragging {
		actions = append(actions, MouseUp())
		s.Dragging = false
	}

	switch {
	case g == gesture.OneFinger || (g == gesture.PinchDrag && s.Dragging):
		s.clearScroll()
		tip := hand.Points[detector.IndexTip]
		s.Cursor = c.mapper.Map(cursor.Point{X: tip.X, Y: tip.Y}, s.Cursor)
		actions = append(actions, Move(s.Cursor.X, s.Cursor.Y))

	case g == gesture.OpenPalm && s.LastGesture != gesture.OpenPalm:
		s.clearScroll()
		actions = append(actions, Click())

	case g == gesture.TwoFingers:
		actions = c.scroll(&s, hand.Points[detector.IndexTip].Y, actions)

	case g == gesture.ThreeFingers && s.LastGesture != gesture.ThreeFingers:
		s.clearScroll()
		actions = append(actions, Hotkey(c.config.TabSwitchKeys...))

	case g == gesture.FourFingers && s.LastGesture != gesture.FourFingers:
		s.clearScroll()
		actions = append(actions, Hotkey(c.config.ShowDesktopKeys...))

	case g == gesture.Fist || g == gesture.OKSign || g == gesture.Idle || g == gesture.None:
		s.clearScroll()
	}

	s.LastGesture = g
	return s, actions
}

// scroll runs the scroll-lock state machine for a TWO_FINGERS frame.
func (c *Controller) scroll(s *State, y float64, actions []Action) []Action {
	if s.ScrollLock == ScrollNone {
		if s.ScrollRef == nil {
			ref := y
			s.ScrollRef = &ref
		}

		delta := y - *s.ScrollRef
		if math.Abs(delta) > c.config.ScrollNudgeThreshold {
			if delta > 0 {
				s.ScrollLock = ScrollDown
			} else {
				s.ScrollLock = ScrollUp
			}
			ref := y
			s.ScrollRef = &ref
		}
	}

	switch s.ScrollLock {
	case ScrollUp:
		actions = append(actions, Scroll(c.config.ScrollSpeed))
	case ScrollDown:
		actions = append(actions, Scroll(-c.config.ScrollSpeed))
	}
	return actions
}

// Release returns the actions needed to leave the pointer in a neutral state
// at shutdown.
func (c *Controller) Release(s State) (State, []Action) {
	if !s.Dragging {
		return s, nil
	}
	s.Dragging = false
	return s, []Action{MouseUp()}
}
