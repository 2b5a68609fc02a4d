// Package websocket provides WebSocket transport for the train programming game.
//
// The websocket package implements:
//   - Per-session state broadcasting
//   - Intents sent by clients over the same connection
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Only the hub loop touches the client map; clients,
// broadcasts and error replies reach it through channels. Each connection has
// a read goroutine and a write goroutine.
//
// Message Protocol:
//
// Outgoing messages are JSON objects:
//
//	{"session_id": "ab12", "event": "state_update", "state": {...}}
//	{"session_id": "ab12", "event": "error", "error": "unknown intent: \"fly\""}
//	{"session_id": "ab12", "event": "signal", "data": {"step": 1, "position": {"x": 2, "y": 2}}}
//	{"session_id": "ab12", "event": "playback_finished", "data": {"level_id": 1, "outcome": "success"}}
//
// Incoming text frames are intent envelopes, the same form the REST API
// accepts on /api/sessions/{id}/intents:
//
//	{"type": "add_command", "command": "advance"}
//	{"type": "start_level", "index": 2}
//
// Envelopes are decoded and passed to the hub's IntentHandler. The handler is
// expected to broadcast the resulting state, so every viewer of the session
// sees the change, including the sender.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	go hub.Run(ctx)
//
//	svc := service.NewGameService(sessions, catalogs, service.WithNotifier(hub))
//	hub.SetIntentHandler(handler)
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
