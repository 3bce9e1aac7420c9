package control

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

var testScreen = cursor.Screen{Width: 1000, Height: 1000}

func newTestController() *Controller {
	return New(DefaultConfig(), cursor.NewMapper(testScreen))
}

// frame pairs a gesture with the landmarks it was classified from.
type frame struct {
	g    gesture.Gesture
	hand *detector.HandLandmarks
}

func handFor(g gesture.Gesture) *detector.HandLandmarks {
	var h detector.HandLandmarks
	switch g {
	case gesture.OneFinger:
		h = detector.PointingLandmarks()
	case gesture.TwoFingers:
		h = detector.TwoFingersLandmarks()
	case gesture.ThreeFingers:
		h = detector.ThreeFingersLandmarks()
	case gesture.FourFingers:
		h = detector.FourFingersLandmarks()
	case gesture.OpenPalm:
		h = detector.OpenPalmLandmarks()
	case gesture.PinchDrag:
		h = detector.PinchLandmarks()
	case gesture.Fist:
		h = detector.FistLandmarks()
	case gesture.OKSign:
		h = detector.OKSignLandmarks()
	case gesture.None:
		return nil
	default:
		h = detector.PoseLandmarks(detector.Pose{Middle: true})
	}
	return &h
}

func framesOf(gs ...gesture.Gesture) []frame {
	frames := make([]frame, len(gs))
	for i, g := range gs {
		frames[i] = frame{g: g, hand: handFor(g)}
	}
	return frames
}

// twoFingersAt returns a TWO_FINGERS frame with the index tip at height y.
func twoFingersAt(y float64) frame {
	h := detector.WithIndexTip(detector.TwoFingersLandmarks(), 0.45, y)
	return frame{g: gesture.TwoFingers, hand: &h}
}

// run feeds frames through the controller and returns the per-frame actions.
func run(c *Controller, s State, frames []frame) (State, [][]Action) {
	out := make([][]Action, len(frames))
	for i, f := range frames {
		s, out[i] = c.Step(s, f.g, f.hand)
	}
	return s, out
}

func count(actions [][]Action, kind ActionKind) int {
	n := 0
	for _, frame := range actions {
		for _, a := range frame {
			if a.Kind == kind {
				n++
			}
		}
	}
	return n
}

func TestNewState(t *testing.T) {
	s := NewState(cursor.Screen{Width: 1920, Height: 1080})
	if s.Cursor != (cursor.Point{X: 960, Y: 540}) {
		t.Errorf("initial cursor = %v, want screen center", s.Cursor)
	}
	if s.Dragging || s.ScrollLock != ScrollNone || s.ScrollRef != nil || s.LastGesture != "" {
		t.Errorf("initial state not neutral: %+v", s)
	}
}

func TestStep_ClickFiresOncePerHold(t *testing.T) {
	c := newTestController()

	_, actions := run(c, NewState(testScreen), framesOf(
		gesture.OpenPalm, gesture.OpenPalm, gesture.OpenPalm, gesture.OpenPalm,
		gesture.Fist,
		gesture.OpenPalm, gesture.OpenPalm,
	))

	if got := count(actions, ActionClick); got != 2 {
		t.Fatalf("clicks = %d, want 2", got)
	}
	for _, i := range []int{0, 5} {
		if len(actions[i]) != 1 || actions[i][0].Kind != ActionClick {
			t.Errorf("frame %d actions = %v, want a single click", i, actions[i])
		}
	}
}

func TestStep_TabSwitchScenario(t *testing.T) {
	c := newTestController()

	_, actions := run(c, NewState(testScreen), framesOf(
		gesture.Idle, gesture.ThreeFingers, gesture.ThreeFingers, gesture.Idle, gesture.ThreeFingers,
	))

	if got := count(actions, ActionHotkey); got != 2 {
		t.Fatalf("hotkeys = %d, want 2", got)
	}
	for i, frame := range actions {
		fired := len(frame) == 1 && frame[0].Kind == ActionHotkey
		want := i == 1 || i == 4
		if fired != want {
			t.Errorf("frame %d: hotkey fired = %v, want %v (actions %v)", i+1, fired, want, frame)
		}
	}
	if !reflect.DeepEqual(actions[1][0].Keys, DefaultTabSwitchKeys) {
		t.Errorf("keys = %v, want %v", actions[1][0].Keys, DefaultTabSwitchKeys)
	}
}

func TestStep_ShowDesktopFiresOncePerHold(t *testing.T) {
	c := newTestController()

	_, actions := run(c, NewState(testScreen), framesOf(
		gesture.FourFingers, gesture.FourFingers, gesture.ThreeFingers, gesture.FourFingers,
	))

	var desktop int
	for _, frame := range actions {
		for _, a := range frame {
			if a.Kind == ActionHotkey && reflect.DeepEqual(a.Keys, DefaultShowDesktopKeys) {
				desktop++
			}
		}
	}
	if desktop != 2 {
		t.Errorf("show-desktop hotkeys = %d, want 2", desktop)
	}
	// Switching straight from FOUR to THREE still fires the tab switch.
	if len(actions[2]) != 1 || !reflect.DeepEqual(actions[2][0].Keys, DefaultTabSwitchKeys) {
		t.Errorf("frame 3 actions = %v, want tab switch", actions[2])
	}
}

func TestStep_PointerMovesCursor(t *testing.T) {
	c := newTestController()
	s := NewState(testScreen)

	h := detector.WithIndexTip(detector.PointingLandmarks(), 0.5, 0.5)
	s, actions := c.Step(s, gesture.OneFinger, &h)

	want := []Action{Move(500, 500)}
	if !reflect.DeepEqual(actions, want) {
		t.Errorf("actions = %v, want %v", actions, want)
	}
	if s.Cursor != (cursor.Point{X: 500, Y: 500}) {
		t.Errorf("cursor = %v, want (500, 500)", s.Cursor)
	}

	h = detector.WithIndexTip(detector.PointingLandmarks(), 0.25, 0.25)
	s, actions = c.Step(s, gesture.OneFinger, &h)
	// Target (0, 0), smoothed 500*0.7.
	if math.Abs(s.Cursor.X-350) > 1e-9 || math.Abs(s.Cursor.Y-350) > 1e-9 {
		t.Errorf("cursor = %v, want (350, 350)", s.Cursor)
	}
	if len(actions) != 1 || actions[0].X != s.Cursor.X || actions[0].Y != s.Cursor.Y {
		t.Errorf("move action %v does not match persisted cursor %v", actions, s.Cursor)
	}
}

func TestStep_CursorPersistsAcrossOtherGestures(t *testing.T) {
	c := newTestController()
	s := NewState(testScreen)

	h := detector.WithIndexTip(detector.PointingLandmarks(), 0.25, 0.25)
	s, _ = c.Step(s, gesture.OneFinger, &h)
	moved := s.Cursor

	s, _ = run(c, s, framesOf(gesture.Fist, gesture.None, gesture.OpenPalm))
	if s.Cursor != moved {
		t.Errorf("cursor changed to %v without a pointing gesture, want %v", s.Cursor, moved)
	}
}

func TestStep_DragLifecycle(t *testing.T) {
	c := newTestController()
	s := NewState(testScreen)

	pinch := detector.PinchLandmarks()
	s, actions := c.Step(s, gesture.PinchDrag, &pinch)
	if !s.Dragging {
		t.Fatal("expected dragging after PINCH_DRAG")
	}
	if len(actions) != 2 || actions[0].Kind != ActionMouseDown || actions[1].Kind != ActionMove {
		t.Fatalf("first drag frame actions = %v, want [mouse-down move]", actions)
	}

	s, actions = c.Step(s, gesture.PinchDrag, &pinch)
	if len(actions) != 1 || actions[0].Kind != ActionMove {
		t.Errorf("held drag actions = %v, want [move]", actions)
	}

	fist := detector.FistLandmarks()
	s, actions = c.Step(s, gesture.Fist, &fist)
	if s.Dragging {
		t.Error("expected drag released after FIST")
	}
	if !reflect.DeepEqual(actions, []Action{MouseUp()}) {
		t.Errorf("release actions = %v, want [mouse-up]", actions)
	}
}

func TestStep_DragToPointerReleasesBeforeMove(t *testing.T) {
	c := newTestController()

	_, actions := run(c, NewState(testScreen), framesOf(gesture.PinchDrag, gesture.PinchDrag, gesture.OneFinger))

	last := actions[2]
	if len(last) != 2 {
		t.Fatalf("transition frame actions = %v, want [mouse-up move]", last)
	}
	if last[0].Kind != ActionMouseUp || last[1].Kind != ActionMove {
		t.Errorf("transition frame actions = %v, want mouse-up before move", last)
	}
	if got := count(actions, ActionMouseUp); got != 1 {
		t.Errorf("mouse-up count = %d, want 1", got)
	}
}

func TestStep_DragInvariant(t *testing.T) {
	c := newTestController()
	s := NewState(testScreen)

	seq := framesOf(
		gesture.PinchDrag, gesture.OneFinger, gesture.PinchDrag, gesture.None,
		gesture.PinchDrag, gesture.OpenPalm, gesture.PinchDrag, gesture.TwoFingers,
		gesture.PinchDrag, gesture.PinchDrag, gesture.OKSign,
	)
	downs, ups := 0, 0
	for i, f := range seq {
		var actions []Action
		s, actions = c.Step(s, f.g, f.hand)
		if s.Dragging != (f.g == gesture.PinchDrag) {
			t.Fatalf("frame %d (%s): dragging = %v", i, f.g, s.Dragging)
		}
		for _, a := range actions {
			switch a.Kind {
			case ActionMouseDown:
				downs++
			case ActionMouseUp:
				ups++
			}
		}
	}
	if downs != ups {
		t.Errorf("mouse-down %d != mouse-up %d at the end of the sequence", downs, ups)
	}
}

func TestStep_NoHandReleasesDragOnly(t *testing.T) {
	c := newTestController()
	s := NewState(testScreen)

	pinch := detector.PinchLandmarks()
	s, _ = c.Step(s, gesture.PinchDrag, &pinch)

	s, actions := c.Step(s, gesture.None, nil)
	if !reflect.DeepEqual(actions, []Action{MouseUp()}) {
		t.Errorf("actions = %v, want [mouse-up]", actions)
	}
	if s.Dragging {
		t.Error("expected drag released on no-hand frame")
	}
	if s.LastGesture != gesture.None {
		t.Errorf("LastGesture = %s, want NONE", s.LastGesture)
	}

	s, actions = c.Step(s, gesture.None, nil)
	if len(actions) != 0 {
		t.Errorf("second no-hand frame actions = %v, want none", actions)
	}
}

func TestStep_NoHandFiresNoHotkey(t *testing.T) {
	c := newTestController()

	_, actions := run(c, NewState(testScreen), framesOf(
		gesture.ThreeFingers, gesture.None, gesture.None, gesture.FourFingers, gesture.None,
	))

	if got := count(actions, ActionHotkey); got != 2 {
		t.Errorf("hotkeys = %d, want 2 (one per gesture entry)", got)
	}
	for _, i := range []int{1, 2, 4} {
		if len(actions[i]) != 0 {
			t.Errorf("no-hand frame %d emitted %v", i, actions[i])
		}
	}
}

func TestStep_ScrollLockUp(t *testing.T) {
	c := newTestController()
	s := NewState(testScreen)

	frames := []frame{
		twoFingersAt(0.40), // anchors the reference
		twoFingersAt(0.39), // inside the nudge threshold
		twoFingersAt(0.35), // nudged up by 0.05, engages
		twoFingersAt(0.35),
		twoFingersAt(0.45), // drifts back down past the original anchor
		twoFingersAt(0.50),
	}
	s, actions := run(c, s, frames)

	if len(actions[0]) != 0 || len(actions[1]) != 0 {
		t.Errorf("scrolled before the lock engaged: %v, %v", actions[0], actions[1])
	}
	for i := 2; i < len(actions); i++ {
		if !reflect.DeepEqual(actions[i], []Action{Scroll(30)}) {
			t.Errorf("frame %d actions = %v, want [scroll(+30)]", i, actions[i])
		}
	}
	if s.ScrollLock != ScrollUp {
		t.Errorf("ScrollLock = %q, want UP", s.ScrollLock)
	}
}

func TestStep_ScrollLockDown(t *testing.T) {
	c := newTestController()

	s, actions := run(c, NewState(testScreen), []frame{
		twoFingersAt(0.40),
		twoFingersAt(0.44),
		twoFingersAt(0.30),
	})

	if !reflect.DeepEqual(actions[1], []Action{Scroll(-30)}) {
		t.Errorf("engage frame actions = %v, want [scroll(-30)]", actions[1])
	}
	if !reflect.DeepEqual(actions[2], []Action{Scroll(-30)}) {
		t.Errorf("locked frame actions = %v, want [scroll(-30)]", actions[2])
	}
	if s.ScrollLock != ScrollDown {
		t.Errorf("ScrollLock = %q, want DOWN", s.ScrollLock)
	}
	if s.ScrollRef == nil || math.Abs(*s.ScrollRef-0.44) > 1e-9 {
		t.Errorf("ScrollRef = %v, want reset to 0.44 on engage", s.ScrollRef)
	}
}

func TestStep_ScrollNudgeIsStrict(t *testing.T) {
	c := New(Config{ScrollNudgeThreshold: 0.25, ScrollSpeed: 30}, cursor.NewMapper(testScreen))

	// 0.5 - 0.25 is exact in binary floating point.
	s, actions := run(c, NewState(testScreen), []frame{twoFingersAt(0.5), twoFingersAt(0.25)})
	if s.ScrollLock != ScrollNone || len(actions[1]) != 0 {
		t.Errorf("delta equal to the threshold engaged the lock: %q %v", s.ScrollLock, actions[1])
	}
}

func TestStep_ScrollLockClearedByOtherGestures(t *testing.T) {
	clearing := []gesture.Gesture{
		gesture.OneFinger, gesture.OpenPalm, gesture.ThreeFingers, gesture.FourFingers,
		gesture.Fist, gesture.OKSign, gesture.Idle, gesture.None, gesture.PinchDrag,
	}

	for _, g := range clearing {
		t.Run(string(g), func(t *testing.T) {
			c := newTestController()
			s, _ := run(c, NewState(testScreen), []frame{twoFingersAt(0.40), twoFingersAt(0.30)})
			if s.ScrollLock != ScrollUp {
				t.Fatalf("lock not engaged: %q", s.ScrollLock)
			}

			s, _ = c.Step(s, g, handFor(g))
			if s.ScrollLock != ScrollNone || s.ScrollRef != nil {
				t.Errorf("after %s: ScrollLock = %q, ScrollRef = %v, want cleared", g, s.ScrollLock, s.ScrollRef)
			}

			// Coming back to TWO_FINGERS re-anchors without scrolling.
			s, actions := c.Step(s, gesture.TwoFingers, twoFingersAt(0.30).hand)
			if n := count([][]Action{actions}, ActionScroll); n != 0 {
				t.Errorf("re-entry scrolled: %v", actions)
			}
			if s.ScrollRef == nil || math.Abs(*s.ScrollRef-0.30) > 1e-9 {
				t.Errorf("re-entry ScrollRef = %v, want 0.30", s.ScrollRef)
			}
		})
	}
}

func TestStep_HeldEdgeGestureKeepsScrollState(t *testing.T) {
	c := newTestController()
	s := NewState(testScreen)

	// A held OPEN_PALM after the click frame dispatches nothing at all.
	s, _ = run(c, s, framesOf(gesture.OpenPalm))
	ref := 0.4
	s.ScrollRef = &ref
	s, actions := c.Step(s, gesture.OpenPalm, handFor(gesture.OpenPalm))
	if len(actions) != 0 {
		t.Errorf("held palm actions = %v, want none", actions)
	}
	if s.ScrollRef == nil {
		t.Error("held palm frame should not touch scroll state")
	}
}

func TestStep_DoesNotMutateInputState(t *testing.T) {
	c := newTestController()
	s, _ := run(c, NewState(testScreen), []frame{twoFingersAt(0.40)})
	before := *s.ScrollRef

	c.Step(s, gesture.TwoFingers, twoFingersAt(0.30).hand)
	if *s.ScrollRef != before {
		t.Errorf("caller's ScrollRef changed from %f to %f", before, *s.ScrollRef)
	}
}

func TestStep_NilHandTreatedAsNone(t *testing.T) {
	c := newTestController()
	s, actions := c.Step(NewState(testScreen), gesture.OneFinger, nil)
	if len(actions) != 0 {
		t.Errorf("actions = %v, want none", actions)
	}
	if s.LastGesture != gesture.None {
		t.Errorf("LastGesture = %s, want NONE", s.LastGesture)
	}
}

func TestRelease(t *testing.T) {
	c := newTestController()

	s, actions := c.Release(NewState(testScreen))
	if len(actions) != 0 || s.Dragging {
		t.Errorf("idle release = %v, %+v", actions, s)
	}

	s, _ = run(c, NewState(testScreen), framesOf(gesture.PinchDrag))
	s, actions = c.Release(s)
	if !reflect.DeepEqual(actions, []Action{MouseUp()}) {
		t.Errorf("release actions = %v, want [mouse-up]", actions)
	}
	if s.Dragging {
		t.Error("expected dragging cleared after Release")
	}
}

type recordingSink struct {
	calls  []string
	failOn ActionKind
}

var errAbort = errors.New("abort")

func (r *recordingSink) record(kind ActionKind) error {
	r.calls = append(r.calls, string(kind))
	if kind == r.failOn {
		return errAbort
	}
	return nil
}

func (r *recordingSink) MoveTo(x, y float64) error   { return r.record(ActionMove) }
func (r *recordingSink) MouseDown() error            { return r.record(ActionMouseDown) }
func (r *recordingSink) MouseUp() error              { return r.record(ActionMouseUp) }
func (r *recordingSink) Click() error                { return r.record(ActionClick) }
func (r *recordingSink) Scroll(amount int) error     { return r.record(ActionScroll) }
func (r *recordingSink) Hotkey(keys ...string) error { return r.record(ActionHotkey) }

func TestDispatch(t *testing.T) {
	t.Run("executes in order", func(t *testing.T) {
		sink := &recordingSink{}
		err := Dispatch(sink, []Action{MouseUp(), Move(1, 2), Click(), Scroll(3), Hotkey("win", "d"), MouseDown()})
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		want := []string{"mouse-up", "move", "click", "scroll", "hotkey", "mouse-down"}
		if !reflect.DeepEqual(sink.calls, want) {
			t.Errorf("calls = %v, want %v", sink.calls, want)
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		sink := &recordingSink{failOn: ActionMouseUp}
		err := Dispatch(sink, []Action{MouseUp(), Move(1, 2)})
		if !errors.Is(err, errAbort) {
			t.Fatalf("Dispatch() error = %v, want wrapped errAbort", err)
		}
		if len(sink.calls) != 1 {
			t.Errorf("calls after failure = %v, want only mouse-up", sink.calls)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if err := Dispatch(&recordingSink{}, []Action{{Kind: "wiggle"}}); err == nil {
			t.Error("expected error for unknown action kind")
		}
	})
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{Move(10.4, 20.6), "move(10, 21)"},
		{Scroll(30), "scroll(+30)"},
		{Scroll(-30), "scroll(-30)"},
		{Hotkey("win", "tab"), "hotkey(win+tab)"},
		{Click(), "click"},
	}
	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
