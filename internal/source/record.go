package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Recording wraps a Source and writes every observation it yields as one
// JSON line, in the format Replay reads.
type Recording struct {
	src Source
	enc *json.Encoder
	w   io.Writer
}

// Record wraps src, writing observations to w.
func Record(src Source, w io.Writer) *Recording {
	return &Recording{src: src, enc: json.NewEncoder(w), w: w}
}

func (r *Recording) Next(ctx context.Context) (Observation, error) {
	obs, err := r.src.Next(ctx)
	if err != nil {
		return obs, err
	}
	if err := r.enc.Encode(obs); err != nil {
		return obs, fmt.Errorf("record observation %d: %w", obs.Seq, err)
	}
	return obs, nil
}

// Close closes the wrapped source, then w if it is a Closer.
func (r *Recording) Close() error {
	err := r.src.Close()
	if c, ok := r.w.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
