// Package service provides the business logic layer for Retro Snake.
//
// The service package implements:
//   - Multi-session game management
//   - Input and tick operations scoped to a session
//   - Background clocks that tick a session at its preset rate
//   - Preset listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface used by the REST API and the
// MCP tools. SessionManager stores sessions, ConfigManager loads presets and
// Notifier receives every snapshot produced by a state change (the WebSocket
// hub implements it).
//
// Architecture:
//
// The service layer sits between the transports (HTTP/WebSocket/MCP) and the
// game engine. Each session owns its own engine. The engine is not safe for
// concurrent use, so one service-wide lock serializes every engine call,
// whether it comes from a handler, a WebSocket frame or a clock goroutine.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, hub)
//	defer gameService.Shutdown()
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		return err
//	}
//
//	gameService.Input(ctx, info.ID, "up")
//	result, err := gameService.Tick(ctx, info.ID, 5)
//
// Quitting:
//
// A quit accepted on the game-over screen closes the session: its clock
// stops, it is deleted and a session_closed event is published.
package service
