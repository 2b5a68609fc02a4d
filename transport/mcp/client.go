package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/wricardo/mcp-training/trainprogram/game/engine"
	"github.com/wricardo/mcp-training/trainprogram/game/service"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultPlayTimeout  = 30 * time.Second
)

var errMissingSession = errors.New("session_id is required")

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL      string
	httpClient   *http.Client
	mcpServer    *server.MCPServer
	pollInterval time.Duration
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		pollInterval: defaultPollInterval,
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Train Program Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Train Program Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Program a train on a small grid. Queue up to 12 commands, run them, and the
train must stop on the goal cell.

TYPICAL FLOW:
create_session -> go_to_level_select -> start_level -> add_command ... -> play (wait=true)
On success use next_level; on failure use retry.

AVAILABLE TOOLS:
- create_session, list_sessions, get_state, list_catalogs
- go_to_title, go_to_level_select, start_level
- add_command, remove_command, clear_queue
- run, advance_step, finalize_execution: step through a run by hand
- play: run and let the server animate the playback
- retry, next_level, select_skin
- game_instructions: rules, grid legend and command reference`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionProperty(),
		},
		Required: []string{"session_id"},
	}
}

func commandNames() []string {
	names := []string{}
	for _, cmd := range engine.AllCommands() {
		names = append(names, string(cmd))
	}
	return names
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session, optionally choosing a level catalog",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"catalog_id": map[string]interface{}{
					"type":        "string",
					"description": "Catalog to play (optional, see list_catalogs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_state",
		Description: "Get the current screen, level, vehicle pose, queue and run of a session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_catalogs",
		Description: "List available level catalogs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListCatalogs)

	// Navigation
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "go_to_title",
		Description: "Return to the title screen",
		InputSchema: sessionOnlySchema(),
	}, c.intentHandler("go_to_title", http.MethodPost, "/title"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "go_to_level_select",
		Description: "Show the level select screen",
		InputSchema: sessionOnlySchema(),
	}, c.intentHandler("go_to_level_select", http.MethodPost, "/level-select"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_level",
		Description: "Start a level from the level select screen (index is 0-based)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "0-based level index",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleStartLevel)

	// Programming
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "add_command",
		Description: "Append one or more commands to the queue (max 12 queued)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"command": map[string]interface{}{
					"type":        "string",
					"enum":        commandNames(),
					"description": "Command to append",
				},
				"commands": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": commandNames(),
					},
					"description": "Commands to append in order",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAddCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_command",
		Description: "Remove the queued command at index (0-based)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "0-based queue position",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleRemoveCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_queue",
		Description: "Remove every queued command",
		InputSchema: sessionOnlySchema(),
	}, c.intentHandler("clear_queue", http.MethodDelete, "/commands"))

	// Execution
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run",
		Description: "Execute the queue. Steps are then revealed one at a time with advance_step",
		InputSchema: sessionOnlySchema(),
	}, c.intentHandler("run", http.MethodPost, "/run"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance_step",
		Description: "Reveal the next step of the current run",
		InputSchema: sessionOnlySchema(),
	}, c.intentHandler("advance_step", http.MethodPost, "/step"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "finalize_execution",
		Description: "Finish the current run and check whether the train reached the goal",
		InputSchema: sessionOnlySchema(),
	}, c.intentHandler("finalize_execution", http.MethodPost, "/finalize"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "play",
		Description: "Execute the queue and let the server play it back. With wait=true the tool returns the outcome",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"wait": map[string]interface{}{
					"type":        "boolean",
					"description": "Wait until playback finishes (default true)",
				},
				"timeout_seconds": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum time to wait (default 30)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handlePlay)

	// Outcome
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "retry",
		Description: "Program the current level again after a run",
		InputSchema: sessionOnlySchema(),
	}, c.intentHandler("retry", http.MethodPost, "/retry"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_level",
		Description: "Move on to the next level after clearing one",
		InputSchema: sessionOnlySchema(),
	}, c.intentHandler("next_level", http.MethodPost, "/next-level"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_skin",
		Description: "Choose how the train is drawn",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"skin": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"nozomi", "komachi", "hayabusa", "kagayaki"},
					"description": "Vehicle skin",
				},
			},
			Required: []string{"session_id", "skin"},
		},
	}, c.handleSelectSkin)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules, grid legend and command reference",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool arguments

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
}

type createSessionArgs struct {
	CatalogID string `mapstructure:"catalog_id"`
}

type indexArgs struct {
	SessionID string `mapstructure:"session_id"`
	Index     *int   `mapstructure:"index"`
}

type addCommandArgs struct {
	SessionID string   `mapstructure:"session_id"`
	Command   string   `mapstructure:"command"`
	Commands  []string `mapstructure:"commands"`
}

type playArgs struct {
	SessionID      string `mapstructure:"session_id"`
	Wait           *bool  `mapstructure:"wait"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type skinArgs struct {
	SessionID string `mapstructure:"session_id"`
	Skin      string `mapstructure:"skin"`
}

// decodeArgs decodes the tool call arguments into target. Numbers arrive as
// float64 and booleans sometimes as strings, so decoding is weakly typed.
func decodeArgs(request mcp.CallToolRequest, target interface{}) error {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func decodeSession(request mcp.CallToolRequest) (string, error) {
	var args sessionArgs
	if err := decodeArgs(request, &args); err != nil {
		return "", err
	}
	if args.SessionID == "" {
		return "", errMissingSession
	}
	return args.SessionID, nil
}

func decodeIndex(request mcp.CallToolRequest) (string, int, error) {
	var args indexArgs
	if err := decodeArgs(request, &args); err != nil {
		return "", 0, err
	}
	if args.SessionID == "" {
		return "", 0, errMissingSession
	}
	if args.Index == nil {
		return "", 0, errors.New("index is required")
	}
	return args.SessionID, *args.Index, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createSessionArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]string{}
	if args.CatalogID != "" {
		body["catalog_id"] = args.CatalogID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nCatalog: %s\n", session.ID, session.CatalogID)
	if session.State != nil {
		result += fmt.Sprintf("Levels: %d\n\n%s", session.State.LevelCount, formatState(session.State))
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionList(response.Count, response.Sessions)), nil
}

func (c *Client) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := decodeSession(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var view service.StateView
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatState(&view)), nil
}

func (c *Client) handleListCatalogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var catalogs []service.CatalogInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/catalogs", nil, &catalogs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCatalogList(catalogs)), nil
}

// intentHandler builds the handler of a tool whose only argument is the session
func (c *Client) intentHandler(name, method, suffix string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := decodeSession(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var result service.IntentResult
		if err := c.apiCall(ctx, method, sessionPath(sessionID, suffix), nil, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(formatIntentResult(name, &result)), nil
	}
}

func (c *Client) handleStartLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, index, err := decodeIndex(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.IntentResult
	path := sessionPath(sessionID, fmt.Sprintf("/levels/%d/start", index))
	if err := c.apiCall(ctx, http.MethodPost, path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatIntentResult("start_level", &result)), nil
}

func (c *Client) handleAddCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args addCommandArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.SessionID == "" {
		return mcp.NewToolResultError(errMissingSession.Error()), nil
	}

	commands := args.Commands
	if args.Command != "" {
		commands = append([]string{args.Command}, commands...)
	}
	if len(commands) == 0 {
		return mcp.NewToolResultError("command or commands is required"), nil
	}
	for _, name := range commands {
		if _, err := engine.ParseCommand(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	var result service.IntentResult
	added := 0
	for _, name := range commands {
		body := map[string]string{"command": name}
		if err := c.apiCall(ctx, http.MethodPost, sessionPath(args.SessionID, "/commands"), body, &result); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("added %d of %d commands: %v", added, len(commands), err)), nil
		}
		if !result.Applied {
			break
		}
		added++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Added %d of %d commands.\n", added, len(commands))
	if added < len(commands) {
		b.WriteString("The queue is full or the level is not being programmed; the rest were not added.\n")
	}
	b.WriteString("\n")
	b.WriteString(formatState(result.State))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleRemoveCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, index, err := decodeIndex(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.IntentResult
	path := sessionPath(sessionID, fmt.Sprintf("/commands/%d", index))
	if err := c.apiCall(ctx, http.MethodDelete, path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatIntentResult("remove_command", &result)), nil
}

func (c *Client) handlePlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args playArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.SessionID == "" {
		return mcp.NewToolResultError(errMissingSession.Error()), nil
	}

	var result service.IntentResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(args.SessionID, "/play"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !result.Applied || (args.Wait != nil && !*args.Wait) {
		return mcp.NewToolResultText(formatIntentResult("play", &result)), nil
	}

	timeout := defaultPlayTimeout
	if args.TimeoutSeconds > 0 {
		timeout = time.Duration(args.TimeoutSeconds) * time.Second
	}

	view, err := c.waitForPlayback(ctx, args.SessionID, timeout)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatState(view)), nil
}

// waitForPlayback polls the session state until background playback ends
func (c *Client) waitForPlayback(ctx context.Context, sessionID string, timeout time.Duration) (*service.StateView, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var view service.StateView
		if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &view); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("playback still running after %s", timeout)
			}
			return nil, err
		}
		if !view.PlaybackActive {
			return &view, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("playback still running after %s", timeout)
		case <-ticker.C:
		}
	}
}

func (c *Client) handleSelectSkin(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args skinArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.SessionID == "" {
		return mcp.NewToolResultError(errMissingSession.Error()), nil
	}

	var result service.IntentResult
	body := map[string]string{"skin": args.Skin}
	if err := c.apiCall(ctx, http.MethodPut, sessionPath(args.SessionID, "/skin"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatIntentResult("select_skin", &result)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `TRAIN PROGRAM GAME

GOAL:
Each level is a square grid with a train, a start cell and a goal cell.
Build a program of up to 12 commands, run it, and the train must end its run
exactly on the goal cell. Passing over the goal is not enough.

COORDINATES:
(0,0) is the top-left cell. x grows to the right, y grows downwards.
Facing north means moving towards y-1.

COMMANDS:
- advance: move one cell forward. At the edge of the grid the move is
  refused, the train stays put and the step is marked as blocked.
- turn_left / turn_right: rotate 90 degrees in place.
- signal: sound the horn. No effect on the position.
- toggle_light: switch the headlight on or off. No effect on the position.
Each level lists the commands it allows.

SCREENS:
title -> level_select -> playing -> success or failure
- From success: next_level, retry, go_to_level_select or go_to_title
- From failure: retry, go_to_level_select or go_to_title

PLAYING A LEVEL:
1. go_to_level_select, then start_level with a 0-based index
2. add_command (one command, or several with "commands")
3. play with wait=true to run and see the outcome
   or run, then advance_step until the last step, then finalize_execution
4. remove_command and clear_queue edit the program while programming

GRID LEGEND:
^ > v <  train facing north, east, south, west
G        goal
*        decorated cell (station, crossing, park...)
.        empty cell

TIPS:
- Count the cells between start and goal on each axis before programming.
- Turning does not move the train; plan the facing before each advance.
- A blocked step means the program tried to leave the grid.`
