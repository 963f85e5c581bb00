package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/retro-snake/game/engine"
)

func testSnapshot() *engine.Snapshot {
	return &engine.Snapshot{
		Width:     32,
		Height:    24,
		Snake:     []engine.Cell{{X: 5, Y: 3}, {X: 4, Y: 3}},
		Food:      engine.Cell{X: 10, Y: 10},
		Score:     1,
		Direction: engine.Right,
		Phase:     engine.PhaseRunning,
	}
}

func newTestServer(t *testing.T, hub *Hub, initial *engine.Snapshot) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			sessionID = "default"
		}
		hub.ServeWS(w, r, sessionID, initial)
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return message
}

// waitForClients polls until the session has want clients
func waitForClients(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(sessionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients in %s, got %d", want, sessionID, hub.ClientCount(sessionID))
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels must be initialized")
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := &Client{hub: hub, sessionID: sessionID, send: make(chan []byte, sendBuffer)}
	client2 := &Client{hub: hub, sessionID: sessionID, send: make(chan []byte, sendBuffer)}

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.sessions[sessionID]) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", len(hub.sessions[sessionID]))
	}

	hub.unregisterClient(client1)
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}

	hub.unregisterClient(client2)
	if _, exists := hub.sessions[sessionID]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	// Send channels are closed on unregister
	if _, ok := <-client1.send; ok {
		t.Error("Expected client1 send channel to be closed")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, sessionID: "broadcast-test", send: make(chan []byte, sendBuffer)}
	other := &Client{hub: hub, sessionID: "other", send: make(chan []byte, sendBuffer)}
	hub.registerClient(client)
	hub.registerClient(other)

	hub.broadcastMessage(snapshotMessage("broadcast-test", testSnapshot()))

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != "state_update" {
			t.Errorf("Expected event 'state_update', got %s", message.Event)
		}
		if message.Snapshot == nil || message.Snapshot.Snake[0] != (engine.Cell{X: 5, Y: 3}) {
			t.Error("Snapshot not correctly transmitted")
		}
	default:
		t.Error("No message queued for the session's client")
	}

	if len(other.send) != 0 {
		t.Error("Clients of other sessions must not receive the message")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(snapshotMessage("slow", testSnapshot()))

	if _, exists := hub.sessions["slow"]; exists {
		t.Error("Expected the blocked client to be dropped")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" {
			t.Errorf("Expected sessionID 'event-test', got %s", message.SessionID)
		}
		if message.Event != "custom-event" {
			t.Errorf("Expected event 'custom-event', got %s", message.Event)
		}
		if message.Data != "test-data" {
			t.Errorf("Expected data 'test-data', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message received within timeout")
	}
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	server := newTestServer(t, hub, nil)

	conn := dial(t, server, "ws-test")
	waitForClients(t, hub, "ws-test", 1)

	conn.Close()
	waitForClients(t, hub, "ws-test", 0)
}

func TestWebSocketInitialAndBroadcastSnapshots(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	initial := testSnapshot()
	server := newTestServer(t, hub, initial)

	conn := dial(t, server, "msg-test")

	first := readMessage(t, conn)
	if first.Snapshot == nil || first.Snapshot.Score != 1 {
		t.Fatalf("Expected the initial snapshot first, got %+v", first)
	}

	waitForClients(t, hub, "msg-test", 1)

	next := testSnapshot()
	next.Score = 7
	next.GameOver = true
	next.Phase = engine.PhaseGameOver
	next.Cause = engine.CauseSelf
	hub.BroadcastSnapshot("msg-test", next)

	message := readMessage(t, conn)
	if message.SessionID != "msg-test" {
		t.Errorf("Expected sessionID 'msg-test', got %s", message.SessionID)
	}
	if message.Snapshot.Score != 7 || !message.Snapshot.GameOver {
		t.Errorf("Expected score 7 and game over, got %+v", message.Snapshot)
	}
	if message.Snapshot.Cause != engine.CauseSelf {
		t.Errorf("Expected cause self, got %s", message.Snapshot.Cause)
	}
}

func TestWebSocketInboundSteering(t *testing.T) {
	type input struct{ session, event string }
	received := make(chan input, 4)

	hub := NewHub()
	hub.SetInputHandler(func(sessionID, event string) {
		received <- input{sessionID, event}
	})
	go hub.Run()
	server := newTestServer(t, hub, nil)

	conn := dial(t, server, "steer")

	conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
	if err := conn.WriteJSON(InboundMessage{Event: "left"}); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}

	select {
	case in := <-received:
		if in.session != "steer" || in.event != "left" {
			t.Errorf("Expected (steer, left), got %+v", in)
		}
	case <-time.After(time.Second):
		t.Fatal("Input handler was not called")
	}
}
