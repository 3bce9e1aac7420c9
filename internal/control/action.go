package control

import (
	"fmt"
	"strings"
)

// ActionKind identifies a pointer or keyboard action.
type ActionKind string

const (
	ActionMove      ActionKind = "move"
	ActionMouseDown ActionKind = "mouse-down"
	ActionMouseUp   ActionKind = "mouse-up"
	ActionClick     ActionKind = "click"
	ActionScroll    ActionKind = "scroll"
	ActionHotkey    ActionKind = "hotkey"
)

// Action is one side effect requested by the controller.
type Action struct {
	Kind   ActionKind `json:"kind"`
	X      float64    `json:"x,omitempty"`
	Y      float64    `json:"y,omitempty"`
	Amount int        `json:"amount,omitempty"` // scroll: positive is up
	Keys   []string   `json:"keys,omitempty"`
}

// Move returns a cursor move to (x, y).
func Move(x, y float64) Action { return Action{Kind: ActionMove, X: x, Y: y} }

// MouseDown returns a left-button press.
func MouseDown() Action { return Action{Kind: ActionMouseDown} }

// MouseUp returns a left-button release.
func MouseUp() Action { return Action{Kind: ActionMouseUp} }

// Click returns a single left click.
func Click() Action { return Action{Kind: ActionClick} }

// Scroll returns a vertical scroll; positive amounts scroll up.
func Scroll(amount int) Action { return Action{Kind: ActionScroll, Amount: amount} }

// Hotkey returns a key combination press.
func Hotkey(keys ...string) Action { return Action{Kind: ActionHotkey, Keys: keys} }

func (a Action) String() string {
	switch a.Kind {
	case ActionMove:
		return fmt.Sprintf("move(%.0f, %.0f)", a.X, a.Y)
	case ActionScroll:
		return fmt.Sprintf("scroll(%+d)", a.Amount)
	case ActionHotkey:
		return "hotkey(" + strings.Join(a.Keys, "+") + ")"
	default:
		return string(a.Kind)
	}
}

// Sink executes actions against the operating system.
type Sink interface {
	MoveTo(x, y float64) error
	MouseDown() error
	MouseUp() error
	Click() error
	Scroll(amount int) error
	Hotkey(keys ...string) error
}

// Dispatch executes actions in order and stops at the first error, which is
// returned wrapped with the failing action.
func Dispatch(sink Sink, actions []Action) error {
	for _, a := range actions {
		if err := apply(sink, a); err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
	}
	return nil
}

func apply(sink Sink, a Action) error {
	switch a.Kind {
	case ActionMove:
		return sink.MoveTo(a.X, a.Y)
	case ActionMouseDown:
		return sink.MouseDown()
	case ActionMouseUp:
		return sink.MouseUp()
	case ActionClick:
		return sink.Click()
	case ActionScroll:
		return sink.Scroll(a.Amount)
	case ActionHotkey:
		return sink.Hotkey(a.Keys...)
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}
