package capture

import "time"

// Activity defaults.
const (
	DefaultIdleFPS     = 5
	DefaultIdleTimeout = 2 * time.Second
)

// Activity picks the capture rate from scene activity: the active rate
// while there is motion or a hand in view, the idle rate once neither has
// been seen for IdleTimeout.
type Activity struct {
	ActiveFPS   int
	IdleFPS     int
	IdleTimeout time.Duration

	active       bool
	lastActivity time.Time
}

// NewActivity creates an Activity that starts in active mode at now.
func NewActivity(activeFPS, idleFPS int, idleTimeout time.Duration, now time.Time) *Activity {
	return &Activity{
		ActiveFPS:    activeFPS,
		IdleFPS:      idleFPS,
		IdleTimeout:  idleTimeout,
		active:       true,
		lastActivity: now,
	}
}

// Update records one frame's observations and returns the rate to capture
// at and whether it changed with this frame.
func (a *Activity) Update(motion, hand bool, now time.Time) (fps int, changed bool) {
	if motion || hand {
		a.lastActivity = now
		if !a.active {
			a.active = true
			return a.ActiveFPS, true
		}
		return a.ActiveFPS, false
	}

	if a.active && now.Sub(a.lastActivity) > a.IdleTimeout {
		a.active = false
		return a.IdleFPS, true
	}
	return a.FPS(), false
}

// Active reports whether the tracker is in active mode.
func (a *Activity) Active() bool {
	return a.active
}

// FPS returns the rate for the current mode.
func (a *Activity) FPS() int {
	if a.active {
		return a.ActiveFPS
	}
	return a.IdleFPS
}
