// Package mcp provides a Model Context Protocol server for the train programming game.
//
// The server is a thin client of the REST API: every tool call becomes one or
// more HTTP requests against /api, and the JSON answers are rendered as text
// an agent can read, including an ASCII drawing of the grid.
//
// MCP Tools:
//   - create_session, list_sessions, get_state, list_catalogs
//   - go_to_title, go_to_level_select, start_level
//   - add_command, remove_command, clear_queue
//   - run, advance_step, finalize_execution
//   - play: run with server-side playback, optionally waiting for the outcome
//   - retry, next_level, select_skin
//   - game_instructions
//
// Tool arguments are decoded with mapstructure, so numbers sent as JSON
// floats and booleans sent as strings are accepted.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the main server forwards POST /mcp bodies to HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
