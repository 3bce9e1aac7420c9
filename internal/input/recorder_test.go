package input

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/control"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	actions := []control.Action{
		control.MouseDown(),
		control.Move(1, 2),
		control.MouseUp(),
		control.Click(),
		control.Scroll(-30),
		control.Hotkey("win", "tab"),
	}
	if err := control.Dispatch(r, actions); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if got := r.Actions(); !reflect.DeepEqual(got, actions) {
		t.Errorf("Actions() = %v, want %v", got, actions)
	}
	if r.Count(control.ActionMouseUp) != 1 {
		t.Errorf("Count(mouse-up) = %d", r.Count(control.ActionMouseUp))
	}

	r.Reset()
	if len(r.Actions()) != 0 {
		t.Error("Reset() did not clear actions")
	}
}

func TestRecorder_FailOn(t *testing.T) {
	r := NewRecorder()
	r.FailOn(control.ActionClick, ErrFailSafe)

	err := control.Dispatch(r, []control.Action{control.Move(1, 1), control.Click(), control.Move(2, 2)})
	if !errors.Is(err, ErrFailSafe) {
		t.Fatalf("expected ErrFailSafe, got %v", err)
	}
	if got := r.Actions(); len(got) != 1 || got[0].Kind != control.ActionMove {
		t.Errorf("Actions() = %v, want only the first move", got)
	}
}

func TestLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rec := NewRecorder()
	sink := NewLogged(rec, logger)

	if err := control.Dispatch(sink, []control.Action{control.Hotkey("win", "d"), control.Scroll(30)}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(rec.Actions()) != 2 {
		t.Errorf("wrapped sink got %d actions, want 2", len(rec.Actions()))
	}
	out := buf.String()
	if !strings.Contains(out, "hotkey(win+d)") || !strings.Contains(out, "scroll(+30)") {
		t.Errorf("log output missing actions:\n%s", out)
	}

	rec.FailOn(control.ActionClick, ErrFailSafe)
	if err := sink.Click(); !errors.Is(err, ErrFailSafe) {
		t.Errorf("expected wrapped error to pass through, got %v", err)
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Error("expected a warning for the failed action")
	}
}

func TestNop(t *testing.T) {
	actions := []control.Action{
		control.MouseDown(), control.Move(10, 20), control.MouseUp(),
		control.Click(), control.Scroll(-30), control.Hotkey("win", "tab"),
	}
	if err := control.Dispatch(Nop{}, actions); err != nil {
		t.Errorf("Dispatch() error = %v", err)
	}
}
