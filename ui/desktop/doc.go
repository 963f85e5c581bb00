// Package desktop opens an ebiten window for a local game.
//
// The window is the board at 20 pixels per cell (640x480 for the fixed
// 32x24 grid). Update runs 60 times a second and ticks the engine at the
// preset's rate, so input is sampled far more often than the snake moves.
// Arrow keys or WASD steer, R restarts and Q or Escape quits from the
// game-over screen. Closing the window always exits.
package desktop
