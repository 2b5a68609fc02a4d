package stepper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

var (
	// ErrNotExecuting is returned when Play is given a state that is not in playback
	ErrNotExecuting = errors.New("session is not executing")
	// ErrAbandoned is returned when the session leaves playback before it is finalized
	ErrAbandoned = errors.New("playback abandoned")
)

// Pacing controls the delays the stepper inserts around playback
type Pacing struct {
	// Initial is the delay before the first step is shown
	Initial time.Duration
	// Step is the delay between consecutive steps
	Step time.Duration
	// Settle is the delay after the last step before the run is evaluated
	Settle time.Duration
}

// DefaultPacing returns the cadence used by the game client
func DefaultPacing() Pacing {
	return Pacing{
		Initial: 300 * time.Millisecond,
		Step:    800 * time.Millisecond,
		Settle:  1000 * time.Millisecond,
	}
}

// Dispatcher applies an intent to a session and returns the resulting state
type Dispatcher interface {
	Dispatch(ctx context.Context, intent engine.Intent) (engine.SessionState, error)
}

// DispatcherFunc adapts a function to the Dispatcher interface
type DispatcherFunc func(ctx context.Context, intent engine.Intent) (engine.SessionState, error)

// Dispatch calls f
func (f DispatcherFunc) Dispatch(ctx context.Context, intent engine.Intent) (engine.SessionState, error) {
	return f(ctx, intent)
}

// Stepper drives playback of an executing session by issuing AdvanceStep
// intents at a fixed cadence and FinalizeExecution once the trace is exhausted.
type Stepper struct {
	pacing Pacing
	onStep func(engine.SessionState)
}

// Option configures a Stepper
type Option func(*Stepper)

// WithOnStep registers a callback invoked with the state after every dispatched intent
func WithOnStep(fn func(engine.SessionState)) Option {
	return func(s *Stepper) {
		s.onStep = fn
	}
}

// New creates a stepper with the given pacing
func New(pacing Pacing, opts ...Option) *Stepper {
	s := &Stepper{pacing: pacing}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Play advances state to the end of its trace and finalizes it. state must be
// the session's state right after Run. Play stops early with ErrAbandoned
// when another intent moves the session out of playback, and with ctx.Err()
// when ctx is cancelled. On success it returns the finalized state.
func (s *Stepper) Play(ctx context.Context, d Dispatcher, state engine.SessionState) (engine.SessionState, error) {
	if state.PlaySubPhase != engine.SubPhaseExecuting {
		return state, ErrNotExecuting
	}

	if err := s.wait(ctx, s.pacing.Initial); err != nil {
		return state, err
	}

	for i := 0; state.Cursor+1 < len(state.Trace); i++ {
		if i > 0 {
			if err := s.wait(ctx, s.pacing.Step); err != nil {
				return state, err
			}
		}

		next, err := d.Dispatch(ctx, engine.AdvanceStep{})
		if err != nil {
			return state, fmt.Errorf("advance step %d: %w", state.Cursor+1, err)
		}
		if next.PlaySubPhase != engine.SubPhaseExecuting || next.Cursor <= state.Cursor {
			return next, ErrAbandoned
		}
		state = next
		s.notify(state)
	}

	if err := s.wait(ctx, s.pacing.Settle); err != nil {
		return state, err
	}

	final, err := d.Dispatch(ctx, engine.FinalizeExecution{})
	if err != nil {
		return state, fmt.Errorf("finalize: %w", err)
	}
	if final.PlaySubPhase != engine.SubPhaseDone {
		return final, ErrAbandoned
	}
	s.notify(final)
	return final, nil
}

func (s *Stepper) notify(state engine.SessionState) {
	if s.onStep != nil {
		s.onStep(state)
	}
}

func (s *Stepper) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// EngineDispatcher dispatches intents to a local GameEngine. It is used by
// the CLI, which plays a single session in-process.
type EngineDispatcher struct {
	Engine *engine.GameEngine
}

// Dispatch applies intent to the wrapped engine
func (e EngineDispatcher) Dispatch(ctx context.Context, intent engine.Intent) (engine.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return e.Engine.GetState(), err
	}
	state, _ := e.Engine.Dispatch(intent)
	return state, nil
}
