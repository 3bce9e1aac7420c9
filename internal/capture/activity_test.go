package capture

import (
	"testing"
	"time"
)

func TestActivity(t *testing.T) {
	start := time.Unix(1000, 0)
	at := func(ms int) time.Time { return start.Add(time.Duration(ms) * time.Millisecond) }

	a := NewActivity(30, 5, 2*time.Second, start)
	if !a.Active() || a.FPS() != 30 {
		t.Fatalf("new tracker: active=%v fps=%d", a.Active(), a.FPS())
	}

	steps := []struct {
		name        string
		motion      bool
		hand        bool
		ms          int
		wantFPS     int
		wantChanged bool
	}{
		{"quiet within timeout", false, false, 1500, 30, false},
		{"hand keeps active", false, true, 1900, 30, false},
		{"quiet just at timeout", false, false, 3900, 30, false},
		{"quiet past timeout", false, false, 3901, 5, true},
		{"stays idle", false, false, 6000, 5, false},
		{"motion wakes", true, false, 6100, 30, true},
		{"motion again", true, false, 6200, 30, false},
		{"hand without motion", false, true, 9000, 30, false},
		{"idle again", false, false, 11001, 5, true},
		{"hand wakes", false, true, 11100, 30, true},
	}

	for _, s := range steps {
		fps, changed := a.Update(s.motion, s.hand, at(s.ms))
		if fps != s.wantFPS || changed != s.wantChanged {
			t.Errorf("%s: Update() = (%d, %v), want (%d, %v)", s.name, fps, changed, s.wantFPS, s.wantChanged)
		}
	}
}
