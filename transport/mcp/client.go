package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/retro-snake/game/engine"
	"github.com/wricardo/retro-snake/game/service"
)

// Board legend used by game_state and describe_cell
const (
	headChar  = "@"
	bodyChar  = "o"
	foodChar  = "*"
	emptyChar = "."
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Retro Snake",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Retro Snake - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Steer the snake (@) to the food (*). Each food adds one point and one cell of
length. The round ends when the head leaves the board or bites the body.

The game only moves when you call advance (or when a clock is started), so
you can think between ticks.

AVAILABLE TOOLS:
- create_session: Start a new game session
- list_sessions / get_session: Inspect sessions
- game_state: Board, score and safe moves
- steer: Queue a turn (up/down/left/right) or restart/quit after game over
- advance: Run one or more ticks
- restart_game: Start a new round
- list_configs: List presets
- describe_cell: What occupies a given cell
- game_instructions: Full rules

NOTE: The 'intent' parameter on steer/advance serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, e.g. classic (optional)",
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
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the board, score and safe moves of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "steer",
		Description: "Send one input event. Turns take effect on the next tick; a turn straight back is ignored. restart and quit only work after game over.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"event": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right", "restart", "quit"},
					"description": "Input event",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this input (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "event"},
		},
	}, c.handleSteer)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance",
		Description: fmt.Sprintf("Advance the game by a number of ticks (default 1, at most %d). Stops early at game over.", engine.MaxTickBatch),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"steps": map[string]interface{}{
					"type":        "integer",
					"description": "Number of ticks to run",
				},
				"turn": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Turn to queue before the first tick (optional)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind these ticks (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAdvance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Start a new round in a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get what occupies a specific cell (head, body, food, empty or outside the board)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column) of the cell to describe (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row) of the cell to describe (0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
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

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatSnapshot(session.Snapshot))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score, phase := 0, engine.PhaseRunning
		if s.Snapshot != nil {
			score, phase = s.Snapshot.Score, s.Snapshot.Phase
		}
		fmt.Fprintf(&result, "- %s (Config: %s, Score: %d, Phase: %s, Created: %s)\n",
			s.ID, s.ConfigName, score, phase, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

func (c *Client) handleSteer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	event, _ := args["event"].(string)

	intent, _ := args["intent"].(string)
	log.Debug().Str("session", sessionID).Str("event", event).Str("intent", intent).Msg("steer")

	var result service.InputResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/input", sessionID), map[string]string{"event": event}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatInputResult(&result)), nil
}

func (c *Client) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	turn, _ := args["turn"].(string)
	intent, _ := args["intent"].(string)

	steps := 1
	if v, ok := args["steps"].(float64); ok {
		steps = int(v)
	}
	log.Debug().Str("session", sessionID).Str("turn", turn).Int("steps", steps).Str("intent", intent).Msg("advance")

	var prefix string
	if turn != "" {
		var input service.InputResult
		if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/input", sessionID), map[string]string{"event": turn}, &input); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !input.Accepted {
			prefix = fmt.Sprintf("Turn %q ignored (%s)\n", turn, input.Message)
		}
	}

	var result service.TickResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/tick", sessionID), map[string]int{"steps": steps}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(prefix + formatTickResult(sessionID, &result)), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message  string           `json:"message"`
		Snapshot *engine.Snapshot `json:"snapshot"`
	}

	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/restart", sessionID), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatSnapshot(response.Snapshot))), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&result, "• %s (%s)\n  %s\n  Speed: %d ticks/s", config.ConfigID, config.Name, config.Description, config.TickRate)
		if config.StrictTailCollision {
			result.WriteString(", strict tail collision")
		}
		result.WriteString("\n\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`Retro Snake - Complete Instructions

GAME OBJECTIVE:
Eat as much food as possible. Every food is worth one point and makes the
snake one cell longer.

BOARD:
• The board is %dx%d cells; (0,0) is the top-left corner
• x grows to the right, y grows downward
• A round starts with a one-cell snake in the centre heading right

GRID LEGEND:
• %s = snake head
• %s = snake body
• %s = food
• %s = empty cell

RULES:
• The snake moves one cell per tick in its current heading
• A turn is queued and takes effect on the next tick
• Turning straight back is ignored
• Only the last turn queued before a tick counts
• Leaving the board or running into the body ends the round
• The cell the tail leaves is free on that same tick (except in strict presets)

MOVEMENT COMMANDS:
• steer event=up|down|left|right queues a turn
• advance steps=N runs up to %d ticks and stops at game over
• advance turn=left steps=3 queues a turn and runs three ticks

AFTER GAME OVER:
• steer event=restart starts a new round
• steer event=quit closes the session
• restart_game starts a new round at any time

TIPS:
• game_state lists the safe moves for the next tick
• Plan a route to the food before advancing several ticks at once
• Leave yourself an exit when the snake gets long

Good luck!`, engine.GridWidth, engine.GridHeight, headChar, bodyChar, foodChar, emptyChar, engine.MaxTickBatch)

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	xf, okX := args["x"].(float64)
	yf, okY := args["y"].(float64)
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(describeCell(&snap, engine.Cell{X: int(xf), Y: int(yf)})), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nClock running: %v\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.ClockRunning,
		formatSnapshot(session.Snapshot))
}

func formatSnapshot(snap *engine.Snapshot) string {
	if snap == nil || len(snap.Snake) == 0 {
		return "No game state available"
	}

	var result strings.Builder
	head := snap.Snake[0]

	fmt.Fprintf(&result, "Head: (%d,%d) | Heading: %s | Length: %d | Score: %d | Tick: %d\n",
		head.X, head.Y, snap.Direction, snap.Length(), snap.Score, snap.Ticks)
	fmt.Fprintf(&result, "Food: (%d,%d) | Distance: %d\n",
		snap.Food.X, snap.Food.Y, engine.ManhattanDistance(head, snap.Food))

	if !snap.GameOver {
		safe := engine.SafeDirections(*snap)
		names := make([]string, len(safe))
		for i, d := range safe {
			names[i] = string(d)
		}
		if len(names) == 0 {
			result.WriteString("Safe moves: none\n")
		} else {
			fmt.Fprintf(&result, "Safe moves: %s\n", strings.Join(names, ", "))
		}
	}
	result.WriteString("\n")
	result.WriteString(renderBoard(snap))

	if snap.GameOver {
		if snap.Victory {
			result.WriteString("\n🎉 VICTORY!")
		} else {
			fmt.Fprintf(&result, "\n💀 GAME OVER (%s)", snap.Cause)
		}
	}

	if snap.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", snap.Message)
	}

	return result.String()
}

// renderBoard draws the board inside a border, one character per cell
func renderBoard(snap *engine.Snapshot) string {
	grid := make([][]string, snap.Height)
	for y := range grid {
		grid[y] = make([]string, snap.Width)
		for x := range grid[y] {
			grid[y][x] = emptyChar
		}
	}
	set := func(c engine.Cell, ch string) {
		if c.Y >= 0 && c.Y < snap.Height && c.X >= 0 && c.X < snap.Width {
			grid[c.Y][c.X] = ch
		}
	}

	set(snap.Food, foodChar)
	for i := len(snap.Snake) - 1; i >= 1; i-- {
		set(snap.Snake[i], bodyChar)
	}
	set(snap.Snake[0], headChar)

	var b strings.Builder
	border := "+" + strings.Repeat("-", snap.Width) + "+\n"
	b.WriteString(border)
	for _, row := range grid {
		b.WriteString("|")
		b.WriteString(strings.Join(row, ""))
		b.WriteString("|\n")
	}
	b.WriteString(border)
	return b.String()
}

func formatInputResult(result *service.InputResult) string {
	var b strings.Builder
	if result.Accepted {
		fmt.Fprintf(&b, "✓ %s accepted\n", result.Event)
	} else {
		fmt.Fprintf(&b, "✗ %s ignored\n", result.Event)
	}
	if result.Closed {
		b.WriteString("Session closed. Create a new session to play again.\n")
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(formatSnapshot(result.Snapshot))
	return b.String()
}

func formatTickResult(sessionID string, result *service.TickResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session %s: ran %d of %d ticks", sessionID, result.StepsExecuted, result.StepsRequested)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, ", stopped: %s", result.StoppedReason)
	}
	fmt.Fprintf(&b, "\nScore delta: %+d\n", result.ScoreDelta)

	for _, ev := range result.Events {
		switch ev.Type {
		case service.EventFood:
			if ev.Cell != nil {
				fmt.Fprintf(&b, "  tick %d: ate food at (%d,%d), score %d\n", ev.Tick, ev.Cell.X, ev.Cell.Y, ev.Score)
			} else {
				fmt.Fprintf(&b, "  tick %d: ate food, score %d\n", ev.Tick, ev.Score)
			}
		case service.EventGameOver:
			fmt.Fprintf(&b, "  tick %d: game over (%s)\n", ev.Tick, ev.Cause)
		default:
			fmt.Fprintf(&b, "  tick %d: %s\n", ev.Tick, ev.Type)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatSnapshot(result.Snapshot))
	return b.String()
}

// describeCell reports what occupies c in the snapshot
func describeCell(snap *engine.Snapshot, c engine.Cell) string {
	if c.X < 0 || c.X >= snap.Width || c.Y < 0 || c.Y >= snap.Height {
		return fmt.Sprintf("Cell (%d,%d): outside the board (%dx%d). Moving here ends the round.", c.X, c.Y, snap.Width, snap.Height)
	}

	for i, part := range snap.Snake {
		if part != c {
			continue
		}
		switch {
		case i == 0:
			return fmt.Sprintf("Cell (%d,%d): '%s' snake head", c.X, c.Y, headChar)
		case i == len(snap.Snake)-1:
			return fmt.Sprintf("Cell (%d,%d): '%s' snake tail (segment %d). It moves away on the next tick unless food is eaten.", c.X, c.Y, bodyChar, i)
		default:
			return fmt.Sprintf("Cell (%d,%d): '%s' snake body (segment %d). Moving here ends the round.", c.X, c.Y, bodyChar, i)
		}
	}

	if c == snap.Food {
		return fmt.Sprintf("Cell (%d,%d): '%s' food, %d moves from the head", c.X, c.Y, foodChar, engine.ManhattanDistance(snap.Snake[0], c))
	}
	return fmt.Sprintf("Cell (%d,%d): '%s' empty", c.X, c.Y, emptyChar)
}
