package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Replay plays back observations recorded as JSON lines, one Observation
// per line. Blank lines are skipped.
type Replay struct {
	scanner  *bufio.Scanner
	closer   io.Closer
	interval time.Duration
	line     int
	seq      uint64
}

// NewReplay reads observations from r. A positive interval spaces the
// observations out in time; zero replays as fast as the caller reads.
func NewReplay(r io.Reader, interval time.Duration) *Replay {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	rp := &Replay{scanner: scanner, interval: interval}
	if c, ok := r.(io.Closer); ok {
		rp.closer = c
	}
	return rp
}

// OpenReplay opens a recording file.
func OpenReplay(path string, interval time.Duration) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	return NewReplay(f, interval), nil
}

// Next returns the next recorded observation, or io.EOF at the end.
// Sequence numbers are renumbered from 1.
func (r *Replay) Next(ctx context.Context) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}
	if r.interval > 0 && r.seq > 0 {
		timer := time.NewTimer(r.interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Observation{}, ctx.Err()
		case <-timer.C:
		}
	}

	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var obs Observation
		if err := json.Unmarshal(line, &obs); err != nil {
			return Observation{}, fmt.Errorf("replay line %d: %w", r.line, err)
		}
		r.seq++
		obs.Seq = r.seq
		if obs.Time.IsZero() {
			obs.Time = time.Now()
		}
		return obs, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Observation{}, fmt.Errorf("replay: %w", err)
	}
	return Observation{}, io.EOF
}

func (r *Replay) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
