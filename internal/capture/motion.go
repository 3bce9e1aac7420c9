package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection tuning.
const (
	// MotionWidth is the width frames are shrunk to before differencing.
	MotionWidth = 160
	// GaussianBlurSize is the blur kernel applied to the shrunk frame.
	GaussianBlurSize = 7
	// DiffThreshold is the per-pixel intensity change counted as motion.
	DiffThreshold = 25
	// DefaultMotionThreshold is the default share of changed pixels, in percent.
	DefaultMotionThreshold = 1.0
)

// MotionDetector reports whether consecutive frames differ. It compares a
// shrunk, blurred grayscale copy of each frame with the previous one.
type MotionDetector struct {
	threshold   float64
	prev        gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a MotionDetector. threshold is the percentage of
// pixels that must change; values <= 0 use DefaultMotionThreshold.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect compares frame with the previous one and returns whether motion
// was seen and the changed-pixel percentage. The first frame after
// construction or Reset only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	small := shrink(frame)
	defer small.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if small.Channels() > 1 {
		gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)
	} else {
		small.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(GaussianBlurSize, GaussianBlurSize), 0, 0, gocv.BorderDefault)

	if !m.initialized || m.prev.Rows() != gray.Rows() || m.prev.Cols() != gray.Cols() {
		gray.CopyTo(&m.prev)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, m.prev, &diff)
	gocv.Threshold(diff, &diff, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	gray.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// shrink returns a copy of frame scaled to MotionWidth, keeping the aspect.
func shrink(frame *gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	if frame.Cols() <= MotionWidth {
		frame.CopyTo(&out)
		return out
	}
	h := frame.Rows() * MotionWidth / frame.Cols()
	gocv.Resize(*frame, &out, image.Pt(MotionWidth, h), 0, 0, gocv.InterpolationArea)
	return out
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline frame. The detector stays usable.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold changes the changed-pixel percentage. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}
