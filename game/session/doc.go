// Package session keeps Retro Snake game sessions in memory.
//
// Each session owns its own engine, so any number of games run side by side
// behind the REST, WebSocket and MCP surfaces. Sessions use short
// 4-character hex IDs generated from crypto/rand; callers may pick their own
// ID instead. Lookups are case-insensitive.
//
// Nothing is written to disk: a session lives until it is deleted, its player
// quits from the game-over screen, or it expires through
// CleanupExpiredSessions.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		return err
//	}
//
//	sess, err = manager.Get(sess.ID)
package session
