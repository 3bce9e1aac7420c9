// Package source produces one hand observation per captured frame.
package source

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrCaptureFailed wraps fatal frame acquisition errors. Detection failures
// are never reported this way; they become empty observations.
var ErrCaptureFailed = errors.New("capture failed")

// Observation is the result for one frame: a hand, or Hand == nil when
// none was detected.
type Observation struct {
	Seq  uint64                  `json:"seq"`
	Time time.Time               `json:"time"`
	Hand *detector.HandLandmarks `json:"hand"`

	// Frame is the mirrored camera image, or nil for sources without
	// images. It is only valid until the next call to Next.
	Frame *gocv.Mat `json:"-"`
}

// Source yields observations. Next blocks until the next frame is
// available and returns an error only on a fatal capture failure
// (wrapping ErrCaptureFailed), when the source is exhausted (io.EOF) or
// when ctx is done.
type Source interface {
	Next(ctx context.Context) (Observation, error)
	Close() error
}
