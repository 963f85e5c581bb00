// Package api provides the HTTP REST API for Retro Snake.
//
// Every endpoint speaks JSON and operates on server-side sessions, each of
// which owns one game engine. Responses carry the session's snapshot so a
// client can render the board without a second request.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "classic"}, body optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed|score&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session and stop its clock
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - POST /api/sessions/{id}/input - Apply one event ({"event": "up|down|left|right|restart|quit"})
//   - POST /api/sessions/{id}/tick - Advance the game ({"steps": N}, at most 50 per call)
//   - POST /api/sessions/{id}/restart - Start a new round from any phase
//   - POST /api/sessions/{id}/clock/start - Tick the session in real time at its preset's rate
//   - POST /api/sessions/{id}/clock/stop - Stop the real-time clock
//
// Configuration:
//   - GET /api/configs - List presets
//   - GET /api/configs/{name} - Get a preset
//   - POST /api/configs - Save a preset (?id=name, defaults to a slug of the preset name)
//
// Other:
//   - GET /health - Liveness check
//   - GET /ws?session={id} - WebSocket stream of snapshots, see package websocket
//
// Tick Response:
//
//	{
//	  "steps_requested": 80, "steps_executed": 16,
//	  "truncated": true, "limit": 50,
//	  "stopped_reason": "game_over", "score_delta": 1,
//	  "events": [{"type": "food", ...}, {"type": "game_over", "cause": "wall", ...}],
//	  "snapshot": {...}
//	}
//
// Error Handling:
//
// Errors are returned as {"error": "message"} with 404 for unknown sessions
// and presets, 400 for malformed requests and 500 for everything else.
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
package api
