// Package api provides HTTP REST API handlers for the train programming game.
//
// The api package implements:
//   - Session management endpoints
//   - One endpoint per game intent, plus a generic intent endpoint
//   - Background playback
//   - Catalog listing, inspection and upload
//   - WebSocket upgrade handling
//   - Prometheus metrics
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"catalog_id": "classic"})
//   - GET /api/sessions - List sessions (sort=created|accessed, order=asc|desc, limit=n)
//   - GET /api/sessions/unified - Sessions for the multi-session view (sessionIds=a,b or catalogId=x)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game:
//   - GET /api/sessions/{id}/state - Current state view
//   - POST /api/sessions/{id}/intents - Any intent as an envelope
//   - POST /api/sessions/{id}/title - Go to the title screen
//   - POST /api/sessions/{id}/level-select - Go to level select
//   - POST /api/sessions/{id}/levels/{index}/start - Start a level
//   - POST /api/sessions/{id}/commands - Append a command ({"command": "advance"})
//   - DELETE /api/sessions/{id}/commands/{index} - Remove a queued command
//   - DELETE /api/sessions/{id}/commands - Clear the queue
//   - POST /api/sessions/{id}/run - Execute the queue; steps are revealed with /step
//   - POST /api/sessions/{id}/step - Reveal the next step
//   - POST /api/sessions/{id}/finalize - Evaluate the run
//   - POST /api/sessions/{id}/play - Execute the queue and play it back in the background
//   - POST /api/sessions/{id}/retry - Program the level again
//   - POST /api/sessions/{id}/next-level - Move on to the next level
//   - PUT /api/sessions/{id}/skin - Select a vehicle skin ({"skin": "komachi"})
//
// Catalogs:
//   - GET /api/catalogs - List available catalogs
//   - POST /api/catalogs - Save a catalog, named by its "name" field
//   - POST /api/catalogs/reload - Re-read catalog files from disk
//   - GET /api/catalogs/{name} - Get a catalog
//   - GET /api/catalogs/{name}/levels - Level summaries
//
// Other:
//   - GET /ws?session={id} - WebSocket state updates and intents
//   - GET /metrics - Prometheus metrics, when a recorder is configured
//   - GET /health - Liveness
//
// Intent envelopes:
//
//	{"type": "start_level", "index": 0}
//	{"type": "add_command", "command": "turn_right"}
//	{"type": "select_vehicle_skin", "skin": "hayabusa"}
//	{"type": "play"}
//
// Intent endpoints answer 200 with {"applied": bool, "state": {...}} whether
// or not the intent was applied; an intent whose precondition does not hold
// leaves the state unchanged and reports applied=false. Every applied or
// rejected intent is broadcast to the session's WebSocket clients.
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status code: 404 for unknown
// sessions and catalogs, 400 for malformed intents and invalid catalogs,
// 500 otherwise.
//
//	{"error": "session \"zz99\": session not found"}
package api
