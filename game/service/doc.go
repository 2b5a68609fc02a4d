// Package service provides the business logic layer for the train programming game.
//
// The service package implements:
//   - Multi-session game management
//   - Intent dispatch against each session's engine
//   - Background playback of executed programs
//   - Level catalog listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// CatalogManager loads and stores level catalogs.
// Notifier receives state changes produced by background playback.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Every intent, whether sent by a client or produced by the
// playback stepper, is applied under one lock, so a session never sees two
// intents interleave. A user intent that changes the session cancels its
// playback; selecting a vehicle skin does not.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	catalogMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, catalogMgr,
//		service.WithNotifier(hub),
//		service.WithMetrics(metrics.NewRecorder()),
//	)
//	defer gameService.Close()
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameService.Dispatch(ctx, info.ID, engine.StartLevel{Index: 0})
//	gameService.Dispatch(ctx, info.ID, engine.AddCommand{Command: engine.CmdAdvance})
//	gameService.Play(ctx, info.ID)
//
// Sessions are identified by 4-character IDs and hold independent state in
// memory. They are dropped when idle for longer than the configured maximum age.
package service
