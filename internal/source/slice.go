package source

import (
	"context"
	"io"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Slice yields a fixed sequence of hands, then io.EOF. A nil entry is a
// frame without a hand.
type Slice struct {
	hands []*detector.HandLandmarks
	next  int
	start time.Time
	step  time.Duration
}

// NewSlice creates a Slice over hands with timestamps 33ms apart.
func NewSlice(hands ...*detector.HandLandmarks) *Slice {
	return &Slice{hands: hands, start: time.Now(), step: 33 * time.Millisecond}
}

func (s *Slice) Next(ctx context.Context) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}
	if s.next >= len(s.hands) {
		return Observation{}, io.EOF
	}
	i := s.next
	s.next++
	return Observation{
		Seq:  uint64(i + 1),
		Time: s.start.Add(time.Duration(i) * s.step),
		Hand: s.hands[i],
	}, nil
}

// Remaining returns how many observations are left.
func (s *Slice) Remaining() int {
	return len(s.hands) - s.next
}

func (s *Slice) Close() error { return nil }
