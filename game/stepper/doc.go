// Package stepper paces the playback of an executed command queue.
//
// Once a session has run its queue, the engine holds the full execution
// trace but shows none of it. The Stepper reveals the trace one step at a
// time by dispatching AdvanceStep intents, waiting between them according to
// its Pacing, and finally dispatches FinalizeExecution so the session moves
// to the success or failure screen.
//
// The stepper never touches session state directly. It talks to a
// Dispatcher, so the same playback loop serves the in-process CLI (through
// EngineDispatcher) and the game service, where other intents may arrive
// while playback is running. If one of those intents takes the session out
// of playback, the next dispatched step reports it and Play returns
// ErrAbandoned.
//
// Usage:
//
//	st := stepper.New(stepper.DefaultPacing(), stepper.WithOnStep(func(s engine.SessionState) {
//		hub.BroadcastState(id, s)
//	}))
//	final, err := st.Play(ctx, dispatcher, stateAfterRun)
package stepper
