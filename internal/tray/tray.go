// Package tray provides the system tray menu of the mudra controller.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/telemetry"
)

// Tray represents the system tray application. It implements
// telemetry.Publisher to show the current gesture.
type Tray struct {
	onPause     func(paused bool)
	onDashboard func()
	onQuit      func()
	paused      bool
	gesture     gesture.Gesture
	ready       bool
	quitPending bool
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuGesture *systray.MenuItem
}

// New creates a new Tray in the running (not paused) state.
func New() *Tray {
	return &Tray{}
}

// OnPause sets the callback called when the pause item is toggled.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnDashboard sets the callback called when "Open Dashboard" is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback called when "Quit" is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It must be called from the main
// goroutine and blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return. Calling it before the
// menu is ready makes Run return as soon as it is.
func (t *Tray) Quit() {
	t.mu.Lock()
	if !t.ready {
		t.quitPending = true
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	systray.Quit()
}

// onReady sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand-gesture pointer")

	t.mu.Lock()
	t.menuGesture = systray.AddMenuItem(gestureTitle(t.gesture), "Current gesture")
	t.menuGesture.Disable()
	systray.AddSeparator()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.paused), "Pause or resume pointer control")
	t.ready = true
	quit := t.quitPending
	t.mu.Unlock()

	menuDashboard := systray.AddMenuItem("Open Dashboard", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()

	if quit {
		systray.Quit()
	}
}

func gestureTitle(g gesture.Gesture) string {
	if g == "" {
		g = gesture.None
	}
	return "Gesture: " + g.Label()
}

func toggleTitle(paused bool) string {
	if paused {
		return "○ Paused"
	}
	return "● Active"
}

// handleToggle flips the pause state and notifies the callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.paused = !t.paused
	paused := t.paused
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(paused))
	}
	callback := t.onPause
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Publish implements telemetry.Publisher. The menu is only touched when
// the gesture or the pause state changes.
func (t *Tray) Publish(f telemetry.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if f.Gesture != t.gesture {
		t.gesture = f.Gesture
		if t.menuGesture != nil {
			t.menuGesture.SetTitle(gestureTitle(f.Gesture))
		}
	}
	if f.Paused != t.paused {
		t.paused = f.Paused
		if t.menuToggle != nil {
			t.menuToggle.SetTitle(toggleTitle(f.Paused))
		}
	}
}

// Gesture returns the last published gesture.
func (t *Tray) Gesture() gesture.Gesture {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gesture
}

// IsPaused returns the current pause state.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}
