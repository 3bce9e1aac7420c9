package gesture

import (
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

func TestClassify_Fixtures(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want Gesture
	}{
		{"pointing", detector.PointingLandmarks(), OneFinger},
		{"two fingers", detector.TwoFingersLandmarks(), TwoFingers},
		{"three fingers", detector.ThreeFingersLandmarks(), ThreeFingers},
		{"four fingers", detector.FourFingersLandmarks(), FourFingers},
		{"open palm", detector.OpenPalmLandmarks(), OpenPalm},
		{"fist", detector.FistLandmarks(), Fist},
		{"pinch", detector.PinchLandmarks(), PinchDrag},
		{"ok sign", detector.OKSignLandmarks(), OKSign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(&tt.hand); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassify_NilHand(t *testing.T) {
	if got := Classify(nil); got != None {
		t.Errorf("Classify(nil) = %s, want %s", got, None)
	}
}

func TestClassify_Unmatched(t *testing.T) {
	tests := []struct {
		name string
		pose detector.Pose
	}{
		{"middle only", detector.Pose{Middle: true}},
		{"pinky only", detector.Pose{Pinky: true}},
		{"index and pinky", detector.Pose{Index: true, Pinky: true}},
		{"middle ring pinky", detector.Pose{Middle: true, Ring: true, Pinky: true}},
		{"ring and pinky with thumb out", detector.Pose{Ring: true, Pinky: true, ThumbOut: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := detector.PoseLandmarks(tt.pose)
			if got := Classify(&h); got != Idle {
				t.Errorf("Classify() = %s, want %s", got, Idle)
			}
		})
	}
}

func TestClassify_OneFingerIgnoresThumbAndPinchOnlyMattersForOK(t *testing.T) {
	// A single raised index finger stays ONE_FINGER whatever the thumb does.
	for _, pose := range []detector.Pose{
		{Index: true},
		{Index: true, ThumbOut: true},
		{Index: true, Pinch: true},
	} {
		h := detector.PoseLandmarks(pose)
		if got := Classify(&h); got != OneFinger {
			t.Errorf("pose %+v: Classify() = %s, want %s", pose, got, OneFinger)
		}
	}
}

func TestClassify_Precedence(t *testing.T) {
	t.Run("pinch with three fingers is OK sign, not three fingers", func(t *testing.T) {
		h := detector.OKSignLandmarks()
		f := defaultClassifier.Features(&h)
		if f.Count != 3 || !f.Pinching {
			t.Fatalf("fixture features = %+v, want 3 fingers up and pinching", f)
		}
		if got := Classify(&h); got != OKSign {
			t.Errorf("Classify() = %s, want %s", got, OKSign)
		}
	})

	t.Run("three fingers with extended thumb is not OK sign", func(t *testing.T) {
		h := detector.PoseLandmarks(detector.Pose{Index: true, Middle: true, Ring: true, ThumbOut: true})
		if got := Classify(&h); got != ThreeFingers {
			t.Errorf("Classify() = %s, want %s", got, ThreeFingers)
		}
	})

	t.Run("four fingers split on thumb", func(t *testing.T) {
		palm := detector.OpenPalmLandmarks()
		four := detector.FourFingersLandmarks()
		if got := Classify(&palm); got != OpenPalm {
			t.Errorf("thumb out: Classify() = %s, want %s", got, OpenPalm)
		}
		if got := Classify(&four); got != FourFingers {
			t.Errorf("thumb in: Classify() = %s, want %s", got, FourFingers)
		}
	})

	t.Run("four fingers with pinch is still four fingers", func(t *testing.T) {
		h := detector.PoseLandmarks(detector.Pose{Index: true, Middle: true, Ring: true, Pinky: true, Pinch: true})
		if got := Classify(&h); got != FourFingers {
			t.Errorf("Classify() = %s, want %s", got, FourFingers)
		}
	})
}

func TestClassify_PinchThreshold(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     Gesture
	}{
		{"well inside", 0.01, PinchDrag},
		{"just inside", 0.069, PinchDrag},
		{"at threshold", 0.07, Fist},
		{"outside", 0.2, Fist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := detector.FistLandmarks()
			// Lay thumb and index tips on one horizontal line so the
			// distance is exactly the X offset.
			h.Points[detector.IndexTip] = detector.Point3D{X: 0, Y: 0.66}
			h.Points[detector.ThumbTip] = detector.Point3D{X: tt.distance, Y: 0.66}
			if got := Classify(&h); got != tt.want {
				t.Errorf("distance %f: Classify() = %s, want %s", tt.distance, got, tt.want)
			}
		})
	}
}

func TestClassifier_CustomThreshold(t *testing.T) {
	h := detector.FistLandmarks()
	indexTip := h.Points[detector.IndexTip]
	h.Points[detector.ThumbTip] = detector.Point3D{X: indexTip.X, Y: indexTip.Y + 0.1}

	if got := NewClassifier(0.15).Classify(&h); got != PinchDrag {
		t.Errorf("threshold 0.15: Classify() = %s, want %s", got, PinchDrag)
	}
	if got := NewClassifier(0).PinchThreshold; got != DefaultPinchThreshold {
		t.Errorf("NewClassifier(0).PinchThreshold = %f, want %f", got, DefaultPinchThreshold)
	}
}

func TestClassify_FingerUpIsStrict(t *testing.T) {
	h := detector.PointingLandmarks()
	// Tip level with the knuckle does not count as raised.
	h.Points[detector.IndexTip].Y = h.Points[detector.IndexMCP].Y
	f := defaultClassifier.Features(&h)
	if f.Up[Index] {
		t.Error("index tip level with MCP should not count as up")
	}
	if got := Classify(&h); got != Fist {
		t.Errorf("Classify() = %s, want %s", got, Fist)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	hands := []detector.HandLandmarks{
		detector.PointingLandmarks(),
		detector.OKSignLandmarks(),
		detector.PinchLandmarks(),
		detector.OpenPalmLandmarks(),
	}

	for _, h := range hands {
		original := h
		first := Classify(&h)
		for i := 0; i < 10; i++ {
			if got := Classify(&h); got != first {
				t.Fatalf("call %d: Classify() = %s, first call returned %s", i, got, first)
			}
		}
		if h != original {
			t.Error("Classify must not modify its input")
		}
	}
}

func TestFeatures(t *testing.T) {
	h := detector.TwoFingersLandmarks()
	f := defaultClassifier.Features(&h)

	want := [4]bool{true, true, false, false}
	if f.Up != want {
		t.Errorf("Up = %v, want %v", f.Up, want)
	}
	if f.Count != 2 {
		t.Errorf("Count = %d, want 2", f.Count)
	}
	if f.ThumbExtended {
		t.Error("ThumbExtended = true, want false")
	}
	if f.Pinching {
		t.Errorf("Pinching = true (distance %f), want false", f.PinchDistance)
	}
}

func TestGesture_Label(t *testing.T) {
	if got := None.Label(); got != "No Hand Detected" {
		t.Errorf("None.Label() = %q", got)
	}
	if got := OpenPalm.Label(); got != "OPEN_PALM" {
		t.Errorf("OpenPalm.Label() = %q", got)
	}
}

func TestGesture_Valid(t *testing.T) {
	for _, g := range All {
		if !g.Valid() {
			t.Errorf("%s should be valid", g)
		}
	}
	if Gesture("WAVE").Valid() {
		t.Error("unknown gesture should not be valid")
	}
}

func TestMatch_AgreesWithClassify(t *testing.T) {
	for _, h := range []detector.HandLandmarks{
		detector.PointingLandmarks(),
		detector.OpenPalmLandmarks(),
		detector.PinchLandmarks(),
		detector.OKSignLandmarks(),
	} {
		if got, want := Match(defaultClassifier.Features(&h)), Classify(&h); got != want {
			t.Errorf("Match() = %s, Classify() = %s", got, want)
		}
	}

	if got := Match(Features{}); got != Fist {
		t.Errorf("Match(no fingers) = %s, want %s", got, Fist)
	}
	if got := Match(Features{Pinching: true}); got != PinchDrag {
		t.Errorf("Match(pinching) = %s, want %s", got, PinchDrag)
	}
}
