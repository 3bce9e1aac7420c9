package input

import (
	"sync"

	"github.com/ayusman/mudra/internal/control"
)

// Recorder is a Sink that records every call instead of touching the OS.
// It backs the dry-run backend and tests.
type Recorder struct {
	mu      sync.Mutex
	actions []control.Action
	failOn  control.ActionKind
	err     error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailOn makes every later call of the given kind return err without
// being recorded.
func (r *Recorder) FailOn(kind control.ActionKind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn = kind
	r.err = err
}

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []control.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]control.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Count returns how many actions of the given kind were recorded.
func (r *Recorder) Count(kind control.ActionKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Reset clears the recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
}

func (r *Recorder) record(a control.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil && a.Kind == r.failOn {
		return r.err
	}
	r.actions = append(r.actions, a)
	return nil
}

func (r *Recorder) MoveTo(x, y float64) error   { return r.record(control.Move(x, y)) }
func (r *Recorder) MouseDown() error            { return r.record(control.MouseDown()) }
func (r *Recorder) MouseUp() error              { return r.record(control.MouseUp()) }
func (r *Recorder) Click() error                { return r.record(control.Click()) }
func (r *Recorder) Scroll(amount int) error     { return r.record(control.Scroll(amount)) }
func (r *Recorder) Hotkey(keys ...string) error { return r.record(control.Hotkey(keys...)) }
