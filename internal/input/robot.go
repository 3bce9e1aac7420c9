package input

import (
	"log/slog"
	"math"

	"github.com/go-vgo/robotgo"

	"github.com/ayusman/mudra/internal/cursor"
)

// driver is the slice of robotgo the Robot uses.
type driver interface {
	Location() (int, int)
	ScreenSize() (int, int)
	Move(x, y int)
	Toggle(button, direction string) error
	Click(button string)
	ScrollDir(amount int, direction string)
	KeyTap(key string, modifiers ...interface{}) error
}

type robotgoDriver struct{}

func (robotgoDriver) Location() (int, int)   { return robotgo.Location() }
func (robotgoDriver) ScreenSize() (int, int) { return robotgo.GetScreenSize() }
func (robotgoDriver) Move(x, y int)          { robotgo.Move(x, y) }
func (robotgoDriver) Click(button string)    { robotgo.Click(button) }

func (robotgoDriver) Toggle(button, direction string) error {
	return robotgo.Toggle(button, direction)
}

func (robotgoDriver) ScrollDir(amount int, direction string) {
	robotgo.ScrollDir(amount, direction)
}

func (robotgoDriver) KeyTap(key string, modifiers ...interface{}) error {
	return robotgo.KeyTap(key, modifiers...)
}

// keyNames maps portable key names to robotgo names.
var keyNames = map[string]string{
	"win":     "cmd",
	"super":   "cmd",
	"command": "cmd",
	"ctrl":    "ctrl",
	"control": "ctrl",
	"option":  "alt",
	"return":  "enter",
	"esc":     "escape",
}

// Robot drives the real mouse and keyboard through robotgo.
type Robot struct {
	drv      driver
	failSafe bool
	logger   *slog.Logger
}

// NewRobot creates a Robot. With failSafe set, every action first checks
// the physical pointer and returns ErrFailSafe if it is at (0, 0).
func NewRobot(failSafe bool, logger *slog.Logger) *Robot {
	return &Robot{drv: robotgoDriver{}, failSafe: failSafe, logger: logger}
}

// ScreenSize returns the primary display size.
func (r *Robot) ScreenSize() cursor.Screen {
	w, h := r.drv.ScreenSize()
	return cursor.Screen{Width: w, Height: h}
}

func (r *Robot) check() error {
	if !r.failSafe {
		return nil
	}
	if x, y := r.drv.Location(); x == 0 && y == 0 {
		return ErrFailSafe
	}
	return nil
}

func (r *Robot) MoveTo(x, y float64) error {
	if err := r.check(); err != nil {
		return err
	}
	r.drv.Move(int(math.Round(x)), int(math.Round(y)))
	return nil
}

func (r *Robot) MouseDown() error {
	if err := r.check(); err != nil {
		return err
	}
	return r.drv.Toggle("left", "down")
}

func (r *Robot) MouseUp() error {
	if err := r.check(); err != nil {
		return err
	}
	return r.drv.Toggle("left", "up")
}

func (r *Robot) Click() error {
	if err := r.check(); err != nil {
		return err
	}
	r.drv.Click("left")
	return nil
}

// Scroll scrolls vertically; positive amounts scroll up.
func (r *Robot) Scroll(amount int) error {
	if err := r.check(); err != nil {
		return err
	}
	switch {
	case amount > 0:
		r.drv.ScrollDir(amount, "up")
	case amount < 0:
		r.drv.ScrollDir(-amount, "down")
	}
	return nil
}

// Hotkey taps the last key while holding the others.
func (r *Robot) Hotkey(keys ...string) error {
	if err := r.check(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = robotKey(k)
	}
	mods := make([]interface{}, 0, len(names)-1)
	for _, m := range names[:len(names)-1] {
		mods = append(mods, m)
	}
	return r.drv.KeyTap(names[len(names)-1], mods...)
}

// ForceRelease releases the left button without the fail-safe check. It is
// used on shutdown so an abort never leaves the button held.
func (r *Robot) ForceRelease() error {
	if err := r.drv.Toggle("left", "up"); err != nil {
		r.logger.Warn("failed to release mouse button", "error", err)
		return err
	}
	return nil
}

func robotKey(k string) string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return k
}
