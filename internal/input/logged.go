package input

import (
	"log/slog"

	"github.com/ayusman/mudra/internal/control"
)

// Logged wraps a Sink and logs every action at debug level. Moves are
// logged too, so expect one line per pointing frame.
type Logged struct {
	next   Sink
	logger *slog.Logger
}

// NewLogged wraps next.
func NewLogged(next Sink, logger *slog.Logger) *Logged {
	return &Logged{next: next, logger: logger}
}

func (l *Logged) log(a control.Action, err error) error {
	if err != nil {
		l.logger.Warn("action failed", "action", a.String(), "error", err)
		return err
	}
	l.logger.Debug("action", "action", a.String())
	return nil
}

func (l *Logged) MoveTo(x, y float64) error {
	return l.log(control.Move(x, y), l.next.MoveTo(x, y))
}

func (l *Logged) MouseDown() error {
	return l.log(control.MouseDown(), l.next.MouseDown())
}

func (l *Logged) MouseUp() error {
	return l.log(control.MouseUp(), l.next.MouseUp())
}

func (l *Logged) Click() error {
	return l.log(control.Click(), l.next.Click())
}

func (l *Logged) Scroll(amount int) error {
	return l.log(control.Scroll(amount), l.next.Scroll(amount))
}

func (l *Logged) Hotkey(keys ...string) error {
	return l.log(control.Hotkey(keys...), l.next.Hotkey(keys...))
}
