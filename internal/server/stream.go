package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/telemetry"
)

// DefaultStreamInterval limits the MJPEG stream to about 15 FPS.
const DefaultStreamInterval = 66 * time.Millisecond

// Preview keeps the latest annotated camera frame as JPEG and serves it as
// an MJPEG stream. It implements telemetry.ImageSink.
type Preview struct {
	logger   *slog.Logger
	interval time.Duration
	viewers  atomic.Int32

	mu    sync.Mutex
	jpeg  []byte
	ready chan struct{}
}

// NewPreview creates a Preview that sends at most one frame per interval
// to each viewer.
func NewPreview(logger *slog.Logger, interval time.Duration) *Preview {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	return &Preview{
		logger:   logger,
		interval: interval,
		ready:    make(chan struct{}),
	}
}

// PublishImage encodes img when at least one viewer is connected.
func (p *Preview) PublishImage(img *gocv.Mat, _ telemetry.Frame) {
	if p.viewers.Load() == 0 || img == nil || img.Empty() {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *img)
	if err != nil {
		p.logger.Debug("preview encode failed", "error", err)
		return
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	p.Update(data)
}

// Update replaces the current JPEG frame and wakes waiting viewers.
func (p *Preview) Update(jpeg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jpeg = jpeg
	close(p.ready)
	p.ready = make(chan struct{})
}

// current returns the latest frame and a channel closed on the next update.
func (p *Preview) current() ([]byte, <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.ready
}

// Viewers returns the number of connected stream clients.
func (p *Preview) Viewers() int {
	return int(p.viewers.Load())
}

// ServeHTTP streams MJPEG frames to the client until it disconnects.
func (p *Preview) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p.viewers.Add(1)
	defer p.viewers.Add(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for {
		frame, next := p.current()
		if frame != nil {
			if err := writePart(w, frame); err != nil {
				return
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-next:
		}

		select {
		case <-r.Context().Done():
			return
		case <-time.After(p.interval):
		}
	}
}

func writePart(w http.ResponseWriter, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
