package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/retro-snake/api"
	"github.com/wricardo/retro-snake/game/config"
	"github.com/wricardo/retro-snake/game/engine"
	"github.com/wricardo/retro-snake/game/service"
	"github.com/wricardo/retro-snake/game/session"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

// newBackedClient points a client at a real REST API with one preset
func newBackedClient(t *testing.T) *Client {
	t.Helper()

	dir := t.TempDir()
	preset := `{"name": "Classic", "description": "test", "tick_rate": 10, "seed": 3,
		"messages": {"score": "Score: %d", "game_over": "GAME OVER"}}`
	if err := os.WriteFile(filepath.Join(dir, "classic.json"), []byte(preset), 0644); err != nil {
		t.Fatalf("Failed to write preset: %v", err)
	}
	configs, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}

	svc := service.NewGameService(session.NewManager(), configs, nil)
	t.Cleanup(svc.Shutdown)

	server := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(server.Close)

	return NewClient(server.URL)
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12", "score": 5})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("plain error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got %v", err)
		}
	})

	t.Run("json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || err.Error() != "session not found" {
			t.Errorf("Expected 'session not found', got %v", err)
		}
	})
}

func TestClient_createSession_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["config_id"] != "neon" {
			t.Errorf("Expected config_id neon, got %q", body["config_id"])
		}

		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:         "ab12",
			ConfigName: "neon",
			Snapshot: &engine.Snapshot{
				Width: 10, Height: 10,
				Snake:     []engine.Cell{{X: 5, Y: 5}},
				Food:      engine.Cell{X: 1, Y: 1},
				Direction: engine.Right,
				Phase:     engine.PhaseRunning,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callTool("create_session", map[string]interface{}{"config_id": "neon"}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "ab12") {
		t.Errorf("Expected session ID in result, got: %s", text)
	}
}

func TestFormatSnapshot(t *testing.T) {
	snap := &engine.Snapshot{
		Width:     6,
		Height:    4,
		Snake:     []engine.Cell{{X: 3, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 1}},
		Food:      engine.Cell{X: 5, Y: 3},
		Direction: engine.Right,
		Score:     2,
		Ticks:     9,
		Phase:     engine.PhaseRunning,
		Message:   "Score: 2",
	}

	result := formatSnapshot(snap)

	expected := []string{
		"Head: (3,1)",
		"Heading: right",
		"Length: 3",
		"Score: 2",
		"Food: (5,3) | Distance: 4",
		"Safe moves: up, down, right",
		"+------+",
		"|.oo@..|",
		"|.....*|",
		"Message: Score: 2",
	}
	for _, field := range expected {
		if !strings.Contains(result, field) {
			t.Errorf("Expected %q in formatted output, got:\n%s", field, result)
		}
	}
}

func TestFormatSnapshot_GameOver(t *testing.T) {
	snap := &engine.Snapshot{
		Width: 5, Height: 5,
		Snake:    []engine.Cell{{X: 4, Y: 2}},
		GameOver: true,
		Phase:    engine.PhaseGameOver,
		Cause:    engine.CauseWall,
	}

	result := formatSnapshot(snap)
	if !strings.Contains(result, "💀 GAME OVER (wall)") {
		t.Errorf("Expected game over line, got: %s", result)
	}
	if strings.Contains(result, "Safe moves") {
		t.Error("Safe moves are meaningless after game over")
	}

	snap.Victory = true
	if !strings.Contains(formatSnapshot(snap), "🎉 VICTORY!") {
		t.Error("Expected victory line")
	}

	if formatSnapshot(nil) != "No game state available" {
		t.Error("Expected placeholder for nil snapshot")
	}
}

func TestDescribeCell(t *testing.T) {
	snap := &engine.Snapshot{
		Width: 8, Height: 8,
		Snake: []engine.Cell{{X: 3, Y: 3}, {X: 2, Y: 3}, {X: 1, Y: 3}},
		Food:  engine.Cell{X: 6, Y: 3},
	}

	tests := []struct {
		cell     engine.Cell
		contains string
	}{
		{engine.Cell{X: 3, Y: 3}, "snake head"},
		{engine.Cell{X: 2, Y: 3}, "snake body"},
		{engine.Cell{X: 1, Y: 3}, "snake tail"},
		{engine.Cell{X: 6, Y: 3}, "food, 3 moves"},
		{engine.Cell{X: 0, Y: 0}, "empty"},
		{engine.Cell{X: 8, Y: 0}, "outside the board"},
		{engine.Cell{X: 0, Y: -1}, "outside the board"},
	}

	for _, tt := range tests {
		got := describeCell(snap, tt.cell)
		if !strings.Contains(got, tt.contains) {
			t.Errorf("describeCell(%v): expected %q, got %q", tt.cell, tt.contains, got)
		}
	}
}

func TestFormatTickResult(t *testing.T) {
	result := &service.TickResult{
		StepsRequested: 80,
		StepsExecuted:  12,
		Truncated:      true,
		Limit:          engine.MaxTickBatch,
		StoppedReason:  service.EventGameOver,
		ScoreDelta:     1,
		Events: []service.GameEvent{
			{Type: service.EventFood, Tick: 4, Score: 1, Cell: &engine.Cell{X: 7, Y: 2}},
			{Type: service.EventGameOver, Tick: 12, Cause: engine.CauseSelf},
		},
		Snapshot: &engine.Snapshot{Width: 10, Height: 10, Snake: []engine.Cell{{X: 1, Y: 1}}, GameOver: true, Cause: engine.CauseSelf},
	}

	text := formatTickResult("ab12", result)
	for _, want := range []string{
		"ran 12 of 80 ticks",
		"truncated to 50",
		"stopped: game_over",
		"Score delta: +1",
		"tick 4: ate food at (7,2), score 1",
		"tick 12: game over (self)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, text)
		}
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callTool("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{
		"Retro Snake - Complete Instructions",
		"GAME OBJECTIVE:",
		"GRID LEGEND:",
		"RULES:",
		"MOVEMENT COMMANDS:",
		"AFTER GAME OVER:",
		"32x24",
	} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

func TestClient_PlayThroughAPI(t *testing.T) {
	client := newBackedClient(t)
	ctx := context.Background()

	result, _ := client.handleCreateSession(ctx, callTool("create_session", map[string]interface{}{}))
	if result.IsError {
		t.Fatalf("create_session failed: %s", resultText(t, result))
	}

	var sessions struct {
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := client.apiCall(ctx, "GET", "/api/sessions", nil, &sessions); err != nil || len(sessions.Sessions) != 1 {
		t.Fatalf("Expected one session, got %v (%v)", sessions.Sessions, err)
	}
	id := sessions.Sessions[0].ID

	result, _ = client.handleGameState(ctx, callTool("game_state", map[string]interface{}{"session_id": id}))
	if text := resultText(t, result); !strings.Contains(text, "Head: (16,12)") {
		t.Errorf("Expected the snake in the centre, got:\n%s", text)
	}

	result, _ = client.handleSteer(ctx, callTool("steer", map[string]interface{}{"session_id": id, "event": "left", "intent": "reverse"}))
	if text := resultText(t, result); !strings.Contains(text, "✗ left ignored") {
		t.Errorf("Expected reversal to be ignored, got:\n%s", text)
	}

	result, _ = client.handleAdvance(ctx, callTool("advance", map[string]interface{}{"session_id": id, "turn": "up", "steps": float64(2)}))
	text := resultText(t, result)
	if !strings.Contains(text, "ran 2 of 2 ticks") || !strings.Contains(text, "Head: (16,10)") {
		t.Errorf("Expected two ticks upward, got:\n%s", text)
	}

	result, _ = client.handleDescribeCell(ctx, callTool("describe_cell", map[string]interface{}{"session_id": id, "x": float64(16), "y": float64(10)}))
	if text := resultText(t, result); !strings.Contains(text, "snake head") {
		t.Errorf("Expected head at (16,10), got: %s", text)
	}

	result, _ = client.handleAdvance(ctx, callTool("advance", map[string]interface{}{"session_id": id, "steps": float64(50)}))
	if text := resultText(t, result); !strings.Contains(text, "GAME OVER (wall)") {
		t.Errorf("Expected the snake to hit the top wall, got:\n%s", text)
	}

	result, _ = client.handleRestart(ctx, callTool("restart_game", map[string]interface{}{"session_id": id}))
	if text := resultText(t, result); !strings.Contains(text, "Game restarted") || !strings.Contains(text, "Tick: 0") {
		t.Errorf("Expected a fresh round, got:\n%s", text)
	}

	result, _ = client.handleListConfigs(ctx, callTool("list_configs", map[string]interface{}{}))
	if text := resultText(t, result); !strings.Contains(text, "classic (Classic)") {
		t.Errorf("Expected the classic preset, got:\n%s", text)
	}

	result, _ = client.handleGetSession(ctx, callTool("get_session", map[string]interface{}{"session_id": "nope"}))
	if !result.IsError {
		t.Error("Expected an error result for an unknown session")
	}
}

// lockedBuffer collects log output written from handler goroutines
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestClient_LogsIntent(t *testing.T) {
	client := newBackedClient(t)
	ctx := context.Background()

	var buf lockedBuffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var session service.SessionInfo
	if err := client.apiCall(ctx, "POST", "/api/sessions", map[string]string{}, &session); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	client.handleSteer(ctx, callTool("steer", map[string]interface{}{"session_id": session.ID, "event": "up", "intent": "head for the food"}))
	client.handleAdvance(ctx, callTool("advance", map[string]interface{}{"session_id": session.ID, "steps": float64(1), "intent": "one step"}))

	out := buf.String()
	for _, want := range []string{`"intent":"head for the food"`, `"intent":"one step"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %s, got:\n%s", want, out)
		}
	}
}
