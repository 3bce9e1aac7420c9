package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

// CameraConfig controls the live camera source.
type CameraConfig struct {
	// Mirror flips frames horizontally before detection so moving the hand
	// right moves the cursor right.
	Mirror bool
	// ActiveFPS and IdleFPS are the capture rates with and without scene
	// activity. IdleFPS <= 0 disables idle throttling.
	ActiveFPS   int
	IdleFPS     int
	IdleTimeout time.Duration
	// MotionThreshold is the changed-pixel percentage counted as motion.
	MotionThreshold float64
}

// DefaultCameraConfig returns mirroring at 30 fps, dropping to 5 fps after
// two quiet seconds.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Mirror:          true,
		ActiveFPS:       capture.DefaultFPS,
		IdleFPS:         capture.DefaultIdleFPS,
		IdleTimeout:     capture.DefaultIdleTimeout,
		MotionThreshold: capture.DefaultMotionThreshold,
	}
}

// Camera combines a capture.Camera and a detector.Detector into a Source.
type Camera struct {
	config   CameraConfig
	camera   capture.Camera
	detector detector.Detector
	motion   *capture.MotionDetector
	activity *capture.Activity
	logger   *slog.Logger

	seq      uint64
	frame    *gocv.Mat
	lastRead time.Time
	now      func() time.Time
}

// NewCamera opens camera and returns a Source reading from it. The Source
// owns both camera and detector and closes them in Close.
func NewCamera(config CameraConfig, camera capture.Camera, det detector.Detector, logger *slog.Logger) (*Camera, error) {
	if err := camera.Open(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = capture.DefaultFPS
	}
	camera.SetFPS(config.ActiveFPS)

	c := &Camera{
		config:   config,
		camera:   camera,
		detector: det,
		logger:   logger,
		now:      time.Now,
	}
	if config.IdleFPS > 0 {
		c.motion = capture.NewMotionDetector(config.MotionThreshold)
		c.activity = capture.NewActivity(config.ActiveFPS, config.IdleFPS, config.IdleTimeout, c.now())
	}
	return c, nil
}

// Next reads, mirrors and analyzes one frame.
func (c *Camera) Next(ctx context.Context) (Observation, error) {
	if err := c.pace(ctx); err != nil {
		return Observation{}, err
	}
	c.releaseFrame()

	frame, err := c.camera.ReadFrame()
	if err != nil {
		return Observation{}, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	c.lastRead = c.now()
	if c.config.Mirror {
		gocv.Flip(*frame, frame, 1)
	}
	c.frame = frame
	c.seq++

	obs := Observation{Seq: c.seq, Time: c.lastRead, Frame: frame}

	hands, err := c.detector.Detect(frame)
	if err != nil {
		c.logger.Warn("hand detection failed", "seq", c.seq, "error", err)
	} else if len(hands) > 0 {
		hand := hands[0]
		obs.Hand = &hand
	}

	c.track(frame, obs.Hand != nil)
	return obs, nil
}

// pace waits out the rest of the current frame interval.
func (c *Camera) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.lastRead.IsZero() {
		return nil
	}

	wait := time.Second/time.Duration(c.fps()) - c.now().Sub(c.lastRead)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Camera) fps() int {
	if c.activity != nil {
		return c.activity.FPS()
	}
	return c.config.ActiveFPS
}

// track updates the idle/active mode from this frame.
func (c *Camera) track(frame *gocv.Mat, hand bool) {
	if c.activity == nil {
		return
	}
	motion, _ := c.motion.Detect(frame)
	fps, changed := c.activity.Update(motion, hand, c.now())
	if !changed {
		return
	}
	c.camera.SetFPS(fps)
	if c.activity.Active() {
		c.logger.Info("switched to active mode", "fps", fps)
	} else {
		c.logger.Info("switched to idle mode", "fps", fps)
	}
}

// Active reports whether the source is capturing at the active rate.
func (c *Camera) Active() bool {
	return c.activity == nil || c.activity.Active()
}

func (c *Camera) releaseFrame() {
	if c.frame != nil {
		c.frame.Close()
		c.frame = nil
	}
}

// Close releases the last frame, the camera and the detector.
func (c *Camera) Close() error {
	c.releaseFrame()
	if c.motion != nil {
		c.motion.Close()
	}
	derr := c.detector.Close()
	if err := c.camera.Close(); err != nil {
		return err
	}
	return derr
}
