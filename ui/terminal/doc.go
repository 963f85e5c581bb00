// Package terminal renders a local game with tcell.
//
// Every board cell takes two terminal columns inside a line-drawn box, with
// the score on the row above. Arrow keys or WASD steer, R restarts and Q or
// Escape quits once the round is over. Ctrl-C exits at any time.
//
// Usage:
//
//	screen, _ := tcell.NewScreen()
//	score, err := terminal.New(screen, eng).Run(ctx)
package terminal
