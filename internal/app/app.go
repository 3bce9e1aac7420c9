// Package app runs the per-frame control loop of the mudra controller:
// observe, classify, step the controller, dispatch, publish.
package app

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/source"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/telemetry"
)

// Session exit reasons.
const (
	ExitStopped       = "stopped"
	ExitEndOfInput    = "end_of_input"
	ExitCaptureFailed = "capture_failed"
	ExitFailSafe      = "fail_safe"
)

// Releaser releases the mouse button without any safety checks.
type Releaser interface {
	ForceRelease() error
}

// Config holds the collaborators of the control loop. Source, Controller
// and Sink are required; everything else is optional.
type Config struct {
	Source     source.Source
	Classifier *gesture.Classifier
	Controller *control.Controller
	Sink       control.Sink
	// Releaser is used on exit so a held drag is released even when the
	// Sink refuses to act.
	Releaser Releaser

	// Store receives the session journal.
	Store *store.Store

	Publisher  telemetry.Publisher
	ImageSinks []telemetry.ImageSink

	Logger *slog.Logger
}

// App owns the control state and drives one session.
type App struct {
	config     Config
	logger     *slog.Logger
	classifier *gesture.Classifier
	paused     atomic.Bool

	mu      sync.Mutex
	session string
	frames  int64
}

// New creates an App.
func New(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	classifier := config.Classifier
	if classifier == nil {
		classifier = gesture.NewClassifier(gesture.DefaultPinchThreshold)
	}
	return &App{
		config:     config,
		logger:     logger,
		classifier: classifier,
	}
}

// SetPaused suspends or resumes dispatching. A held drag is released on
// the next frame after pausing.
func (a *App) SetPaused(paused bool) {
	if a.paused.Swap(paused) != paused {
		a.logger.Info("pointer control", "paused", paused)
	}
}

// Paused reports whether dispatching is suspended.
func (a *App) Paused() bool {
	return a.paused.Load()
}

// StartSession opens the journal session. Run calls it when it has not
// been called yet; calling it earlier makes the id available to the
// dashboard before the first frame.
func (a *App) StartSession() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != "" || a.config.Store == nil {
		return a.session, nil
	}

	screen := a.screen()
	sess := &store.Session{ScreenWidth: screen.Width, ScreenHeight: screen.Height}
	if err := a.config.Store.Sessions().Start(sess); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	a.session = sess.ID
	a.logger.Info("session started", "session", sess.ID)
	return sess.ID, nil
}

// SessionID returns the journal session id, empty before StartSession or
// without a store.
func (a *App) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Frames returns the number of frames processed so far.
func (a *App) Frames() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

func (a *App) screen() cursor.Screen {
	return a.config.Controller.Mapper().Screen
}

func (a *App) endSession(reason string) {
	a.mu.Lock()
	id, frames := a.session, a.frames
	a.mu.Unlock()

	if id == "" {
		return
	}
	if err := a.config.Store.Sessions().End(id, reason, frames); err != nil {
		a.logger.Warn("failed to end session", "session", id, "error", err)
		return
	}
	a.logger.Info("session ended", "session", id, "reason", reason, "frames", frames)
}
