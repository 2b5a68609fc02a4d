// Package engine provides the core game logic for the Train Program Game.
//
// A player assembles a short queue of commands for a train on a small grid,
// runs it, and watches whether the train stops on the goal cell. The engine
// package implements:
//   - Direction and position primitives (turning, advancing, bounds checks)
//   - Level and catalog definitions with validation
//   - The command executor that turns a queue into an execution trace
//   - The session state machine that sequences screens and playback
//
// Core Types:
//
// Execute is a pure function from a command queue and a Level to a trace of
// ExecutionStep values. SessionState holds everything a session can change,
// and Transition is the only function that produces new states from it. The
// Intent interface is a closed set of request types, one per user action.
// GameEngine wraps a SessionState and a Catalog for callers that prefer a
// stateful object.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultCatalog())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.StartLevel(0)
//	eng.AddCommand(engine.CmdAdvance)
//	eng.AddCommand(engine.CmdAdvance)
//	eng.Run()
//
//	// A stepper paces these calls; tests can call them directly.
//	for eng.GetState().Cursor+1 < len(eng.GetState().Trace) {
//		eng.AdvanceStep()
//	}
//	state := eng.FinalizeExecution()
//
// Rules:
//
// Every transition is total. An intent whose precondition fails (adding to a
// full queue, advancing past the end of the trace) leaves the state unchanged
// instead of returning an error. Timing belongs to the caller: the engine
// never sleeps, spawns goroutines or reads the clock.
package engine
