// Package engine provides the core game logic for Retro Snake.
//
// The engine package implements the game mechanics including:
//   - Grid-based movement with a committed and a pending direction
//   - Reversal prevention for directional input
//   - Food placement on cells the snake does not occupy
//   - Wall and self collision detection
//   - Game state management, snapshots and explicit reset
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds the mutable round state,
// Snapshot is the copy handed to renderers, and GameConfig carries the
// preset (tick rate, seed, palette, messages) loaded from JSON files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.HandleInput(engine.EventUp)
//	gameEngine.Tick()
//	snap := gameEngine.Snapshot()
//
// Game Rules:
//
// The snake starts as a single cell in the middle of the board moving right.
// Each tick the head advances one cell. Eating food grows the snake by one
// and scores a point; leaving the board or running into the body ends the
// round. After the round ends only restart and quit are accepted.
//
// The engine is not safe for concurrent use. Callers that share an engine
// between goroutines must serialize access themselves.
package engine
