// Package telemetry carries per-frame controller results to observers
// such as the dashboard, the tray and the preview window. Observers never
// feed back into the control loop.
package telemetry

import (
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Frame is the outcome of one control loop iteration.
type Frame struct {
	Seq      uint64            `json:"seq"`
	Time     time.Time         `json:"time"`
	Gesture  gesture.Gesture   `json:"gesture"`
	Label    string            `json:"label"`
	Features *gesture.Features `json:"features,omitempty"`
	// Hand is the observed hand, nil when none was detected.
	Hand    *detector.HandLandmarks `json:"hand,omitempty"`
	State   control.State           `json:"state"`
	Actions []control.Action        `json:"actions,omitempty"`
	Paused  bool                    `json:"paused"`
}

// Publisher receives every Frame. Publish is called on the control loop
// and must not block.
type Publisher interface {
	Publish(f Frame)
}

// ImageSink receives the camera image with its Frame. The Mat is only
// valid for the duration of the call.
type ImageSink interface {
	PublishImage(img *gocv.Mat, f Frame)
}

// Fanout publishes to several publishers in order.
type Fanout []Publisher

func (fo Fanout) Publish(f Frame) {
	for _, p := range fo {
		p.Publish(f)
	}
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Frame)

func (fn PublisherFunc) Publish(f Frame) { fn(f) }

// Latest keeps the most recent Frame.
type Latest struct {
	mu    sync.RWMutex
	frame Frame
	ok    bool
}

func (l *Latest) Publish(f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame = f
	l.ok = true
}

// Get returns the most recent Frame and whether one was published yet.
func (l *Latest) Get() (Frame, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frame, l.ok
}
