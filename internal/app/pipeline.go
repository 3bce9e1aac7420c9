package app

import (
	"context"
	"errors"
	"io"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/display"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/source"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/telemetry"
)

// Run processes frames until ctx is done, the source is exhausted, capture
// fails or the sink aborts. Cancellation and exhaustion return nil; the
// other two return the error. A held drag is released on every exit path.
//
// Run must only be called once per App.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.StartSession(); err != nil {
		return err
	}

	state := control.NewState(a.screen())
	reason := ExitStopped
	defer func() {
		a.release(state)
		a.endSession(reason)
	}()

	for {
		obs, err := a.config.Source.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			reason = ExitEndOfInput
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			reason = ExitCaptureFailed
			a.logger.Error("capture failed", "error", err)
			return err
		}

		var dispatchErr error
		state, dispatchErr = a.step(state, obs)
		if errors.Is(dispatchErr, input.ErrFailSafe) {
			reason = ExitFailSafe
			a.logger.Error("fail-safe triggered, stopping", "seq", obs.Seq)
			return dispatchErr
		}
	}
}

// step runs one frame through the pipeline and returns the new state.
// Only a fail-safe abort is returned as an error; other sink failures are
// logged.
func (a *App) step(prev control.State, obs source.Observation) (control.State, error) {
	g := gesture.None
	var features *gesture.Features
	if obs.Hand != nil {
		f := a.classifier.Features(obs.Hand)
		features = &f
		g = gesture.Match(f)
	}

	var (
		state   control.State
		actions []control.Action
		err     error
	)
	paused := a.Paused()
	if paused {
		state, actions = a.config.Controller.Release(prev)
		state.ScrollLock, state.ScrollRef = control.ScrollNone, nil
		state.LastGesture = g
	} else {
		state, actions = a.config.Controller.Step(prev, g, obs.Hand)
	}

	if len(actions) > 0 {
		err = control.Dispatch(a.config.Sink, actions)
		if err != nil && !errors.Is(err, input.ErrFailSafe) {
			a.logger.Warn("dispatch failed", "seq", obs.Seq, "gesture", g, "error", err)
		}
	}

	a.journal(obs.Seq, prev, state, g, actions)

	a.mu.Lock()
	a.frames++
	a.mu.Unlock()

	a.publish(obs, telemetry.Frame{
		Seq:      obs.Seq,
		Time:     obs.Time,
		Gesture:  g,
		Label:    g.Label(),
		Features: features,
		Hand:     obs.Hand,
		State:    state,
		Actions:  actions,
		Paused:   paused,
	})

	return state, err
}

func (a *App) publish(obs source.Observation, f telemetry.Frame) {
	if a.config.Publisher != nil {
		a.config.Publisher.Publish(f)
	}
	if obs.Frame == nil || len(a.config.ImageSinks) == 0 {
		return
	}
	display.Annotate(obs.Frame, f)
	for _, s := range a.config.ImageSinks {
		s.PublishImage(obs.Frame, f)
	}
}

// journal records gesture transitions, discrete actions and scroll-lock
// engagements of one frame.
func (a *App) journal(seq uint64, prev, state control.State, g gesture.Gesture, actions []control.Action) {
	session := a.SessionID()
	if session == "" {
		return
	}

	var events []*store.Event
	if g != prev.LastGesture {
		events = append(events, &store.Event{SessionID: session, Seq: seq, Kind: store.EventGesture, Gesture: string(g)})
	}
	for _, act := range actions {
		if act.Kind == control.ActionMove || act.Kind == control.ActionScroll {
			continue
		}
		events = append(events, &store.Event{SessionID: session, Seq: seq, Kind: store.EventAction, Gesture: string(g), Detail: act.String()})
	}
	if state.ScrollLock != control.ScrollNone && state.ScrollLock != prev.ScrollLock {
		events = append(events, &store.Event{SessionID: session, Seq: seq, Kind: store.EventScrollLock, Gesture: string(g), Detail: string(state.ScrollLock)})
	}
	if len(events) == 0 {
		return
	}

	if err := a.config.Store.Events().Add(events...); err != nil {
		a.logger.Warn("failed to journal events", "seq", seq, "error", err)
	}
}

// release lets go of a held drag. The Releaser is preferred since the
// Sink may be the one refusing to act.
func (a *App) release(state control.State) {
	_, actions := a.config.Controller.Release(state)
	if len(actions) == 0 {
		return
	}

	if a.config.Releaser != nil {
		if err := a.config.Releaser.ForceRelease(); err != nil {
			a.logger.Warn("failed to release drag", "error", err)
		}
		return
	}
	if err := control.Dispatch(a.config.Sink, actions); err != nil {
		a.logger.Warn("failed to release drag", "error", err)
	}
}
