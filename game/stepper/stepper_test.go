package stepper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

// recordingDispatcher applies intents to an engine and records their kinds
type recordingDispatcher struct {
	mu      sync.Mutex
	eng     *engine.GameEngine
	kinds   []engine.IntentKind
	before  func(n int, eng *engine.GameEngine)
	failOn  engine.IntentKind
	counter int
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, intent engine.Intent) (engine.SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if intent.Kind() == r.failOn {
		return r.eng.GetState(), errors.New("dispatch failed")
	}
	if r.before != nil {
		r.before(r.counter, r.eng)
	}
	r.counter++
	r.kinds = append(r.kinds, intent.Kind())
	state, _ := r.eng.Dispatch(intent)
	return state, nil
}

func runningEngine(t *testing.T, cmds ...engine.Command) *engine.GameEngine {
	t.Helper()
	eng := engine.NewEngineWithDefaults()
	eng.StartLevel(0)
	for _, c := range cmds {
		eng.AddCommand(c)
	}
	state := eng.Run()
	require.Equal(t, engine.SubPhaseExecuting, state.PlaySubPhase)
	return eng
}

func TestDefaultPacing(t *testing.T) {
	p := DefaultPacing()
	assert.Equal(t, 300*time.Millisecond, p.Initial)
	assert.Equal(t, 800*time.Millisecond, p.Step)
	assert.Equal(t, time.Second, p.Settle)
}

func TestPlay_AdvancesThenFinalizes(t *testing.T) {
	eng := runningEngine(t, engine.CmdAdvance, engine.CmdAdvance)
	d := &recordingDispatcher{eng: eng}

	var seen []int
	st := New(Pacing{}, WithOnStep(func(s engine.SessionState) {
		seen = append(seen, s.Cursor)
	}))

	final, err := st.Play(context.Background(), d, eng.GetState())
	require.NoError(t, err)

	assert.Equal(t, []engine.IntentKind{
		engine.KindAdvanceStep, engine.KindAdvanceStep, engine.KindFinalizeExecution,
	}, d.kinds)
	assert.Equal(t, []int{0, 1, 1}, seen)
	assert.Equal(t, engine.PhaseSuccess, final.ScreenPhase)
	assert.Equal(t, engine.SubPhaseDone, final.PlaySubPhase)
}

func TestPlay_EmptyTraceFinalizesImmediately(t *testing.T) {
	eng := runningEngine(t)
	d := &recordingDispatcher{eng: eng}

	final, err := New(Pacing{}).Play(context.Background(), d, eng.GetState())
	require.NoError(t, err)
	assert.Equal(t, []engine.IntentKind{engine.KindFinalizeExecution}, d.kinds)
	assert.Equal(t, engine.PhaseFailure, final.ScreenPhase)
}

func TestPlay_RequiresExecuting(t *testing.T) {
	eng := engine.NewEngineWithDefaults()
	d := &recordingDispatcher{eng: eng}

	_, err := New(Pacing{}).Play(context.Background(), d, eng.GetState())
	assert.ErrorIs(t, err, ErrNotExecuting)
	assert.Empty(t, d.kinds)
}

func TestPlay_AbandonedByRetry(t *testing.T) {
	eng := runningEngine(t, engine.CmdAdvance, engine.CmdAdvance, engine.CmdAdvance)
	d := &recordingDispatcher{eng: eng}
	d.before = func(n int, eng *engine.GameEngine) {
		if n == 1 {
			eng.Retry()
		}
	}

	state, err := New(Pacing{}).Play(context.Background(), d, eng.GetState())
	assert.ErrorIs(t, err, ErrAbandoned)
	assert.Equal(t, engine.SubPhaseProgramming, state.PlaySubPhase)
	assert.NotContains(t, d.kinds, engine.KindFinalizeExecution)
}

func TestPlay_DispatchError(t *testing.T) {
	eng := runningEngine(t, engine.CmdAdvance)
	d := &recordingDispatcher{eng: eng, failOn: engine.KindFinalizeExecution}

	_, err := New(Pacing{}).Play(context.Background(), d, eng.GetState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finalize")
}

func TestPlay_ContextCancelled(t *testing.T) {
	eng := runningEngine(t, engine.CmdAdvance, engine.CmdAdvance)
	d := &recordingDispatcher{eng: eng}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Pacing{}).Play(ctx, d, eng.GetState())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.kinds)
}

func TestPlay_CancelDuringStepDelay(t *testing.T) {
	eng := runningEngine(t, engine.CmdAdvance, engine.CmdAdvance)
	d := &recordingDispatcher{eng: eng}

	ctx, cancel := context.WithCancel(context.Background())
	st := New(Pacing{Step: time.Hour}, WithOnStep(func(engine.SessionState) { cancel() }))

	done := make(chan error, 1)
	go func() {
		_, err := st.Play(ctx, d, eng.GetState())
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not stop after cancellation")
	}
	assert.Equal(t, []engine.IntentKind{engine.KindAdvanceStep}, d.kinds)
	assert.Equal(t, engine.SubPhaseExecuting, eng.GetState().PlaySubPhase)
}

func TestPlay_WaitsBetweenSteps(t *testing.T) {
	eng := runningEngine(t, engine.CmdAdvance, engine.CmdAdvance)
	d := &recordingDispatcher{eng: eng}
	pacing := Pacing{Initial: 5 * time.Millisecond, Step: 10 * time.Millisecond, Settle: 5 * time.Millisecond}

	start := time.Now()
	_, err := New(pacing).Play(context.Background(), d, eng.GetState())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestEngineDispatcher(t *testing.T) {
	eng := runningEngine(t, engine.CmdAdvance, engine.CmdAdvance)
	final, err := New(Pacing{}).Play(context.Background(), EngineDispatcher{Engine: eng}, eng.GetState())
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseSuccess, final.ScreenPhase)
	assert.Equal(t, final, eng.GetState())
}

func TestDispatcherFunc(t *testing.T) {
	called := false
	var d Dispatcher = DispatcherFunc(func(ctx context.Context, intent engine.Intent) (engine.SessionState, error) {
		called = true
		return engine.SessionState{}, nil
	})
	_, err := d.Dispatch(context.Background(), engine.Run{})
	require.NoError(t, err)
	assert.True(t, called)
}
