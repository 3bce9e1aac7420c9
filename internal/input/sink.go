// Package input injects pointer and keyboard events into the operating system.
package input

import (
	"errors"

	"github.com/ayusman/mudra/internal/control"
)

// ErrFailSafe is returned when the physical pointer sits in the fail-safe
// corner before an action. It aborts the control loop.
var ErrFailSafe = errors.New("fail-safe triggered: pointer in top-left corner")

// Sink receives the actions produced by the controller.
type Sink = control.Sink

// Nop is a Sink that accepts and drops every action.
type Nop struct{}

func (Nop) MoveTo(x, y float64) error   { return nil }
func (Nop) MouseDown() error            { return nil }
func (Nop) MouseUp() error              { return nil }
func (Nop) Click() error                { return nil }
func (Nop) Scroll(amount int) error     { return nil }
func (Nop) Hotkey(keys ...string) error { return nil }
