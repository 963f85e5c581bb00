// Package websocket provides the live WebSocket transport for Retro Snake.
//
// A central Hub tracks the clients of every session and pushes a
// state_update frame each time the session's snapshot changes. The Hub
// implements service.Notifier, so ticks from a background clock, REST calls
// and MCP tools all reach connected browsers the same way.
//
// Message Protocol:
//
//   - Outgoing: {"session_id": "ab12", "event": "state_update", "snapshot": {...}}
//     or {"session_id": "ab12", "event": "game_over", "data": {...}}
//   - Incoming: {"event": "left"} steers the session, as do "up", "down",
//     "right", "restart" and "quit"
//
// Clients connect to /ws?session=<id>. Each connection runs a read pump and
// a write pump; the write pump also sends pings so idle connections survive
// proxies. A client whose buffer fills up is dropped.
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.SetInputHandler(func(id, event string) {
//		gameService.Input(context.Background(), id, event)
//	})
//	go hub.Run()
package websocket
