// Package mcp exposes Retro Snake to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, so an agent sees exactly the sessions a browser or the autopilot
// sees. Board state is rendered as text with a border:
//
//	+--------+
//	|........|
//	|..ooo@..|
//	|.....*..|
//	+--------+
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state: board, score, heading and the safe moves for the next tick
//   - steer: one input event (up, down, left, right, restart, quit)
//   - advance: run up to 50 ticks, optionally queuing a turn first
//   - restart_game, list_configs, describe_cell, game_instructions
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer()) for local MCP hosts
//   - HTTP: the /mcp endpoint hands each JSON-RPC body to HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
