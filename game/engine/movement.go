package engine

import "fmt"

// step applies one tick to a running game.
//
// The order matters: the pending heading is committed first, the head is
// prepended, the tail is dropped unless food was eaten, and only then is the
// new head checked for collisions.
func (gs *GameState) step(config *GameConfig, placeFood func(*GameState) (Cell, bool)) TickResult {
	if gs.Pending != "" {
		gs.Direction = gs.Pending
		gs.Pending = ""
	}

	dx, dy := gs.Direction.Delta()
	newHead := gs.Head().Add(dx, dy)
	vacated := gs.Snake[len(gs.Snake)-1]

	gs.Snake = append([]Cell{newHead}, gs.Snake...)
	gs.Ticks++

	result := TickResult{Moved: true}

	if newHead == gs.Food {
		gs.Score++
		result.Ate = true
		gs.Message = fmt.Sprintf(config.Messages.Score, gs.Score)

		if food, ok := placeFood(gs); ok {
			gs.Food = food
		} else {
			gs.Victory = true
			gs.endRound(CauseBoardFilled, config.Messages.BoardFilled)
		}
	} else {
		gs.Snake = gs.Snake[:len(gs.Snake)-1]
	}

	if !gs.GameOver {
		switch {
		case !gs.InBounds(newHead):
			gs.endRound(CauseWall, config.Messages.HitWall)
		case gs.BodyContains(newHead):
			gs.endRound(CauseSelf, config.Messages.HitSelf)
		case config.StrictTailCollision && !result.Ate && newHead == vacated:
			// Strict mode treats the tail cell as occupied until the tick ends
			gs.endRound(CauseSelf, config.Messages.HitSelf)
		}
	}

	result.GameOver = gs.GameOver
	result.Cause = gs.Cause
	result.Score = gs.Score
	result.Length = len(gs.Snake)
	return result
}

// endRound freezes the state in the game-over phase
func (gs *GameState) endRound(cause Cause, message string) {
	gs.GameOver = true
	gs.Phase = PhaseGameOver
	gs.Cause = cause
	gs.Pending = ""
	if message != "" {
		gs.Message = message
	}
}

// InBounds reports whether c lies on the board
func (gs *GameState) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < gs.Width && c.Y >= 0 && c.Y < gs.Height
}

// BodyContains reports whether c equals any snake cell except the head
func (gs *GameState) BodyContains(c Cell) bool {
	if len(gs.Snake) < 2 {
		return false
	}
	return Contains(gs.Snake[1:], c)
}

// placeFood picks a free cell uniformly at random.
// It returns false only when the snake covers the whole board.
func (e *GameEngine) placeFood(gs *GameState) (Cell, bool) {
	occupied := make(map[Cell]bool, len(gs.Snake))
	for _, c := range gs.Snake {
		occupied[c] = true
	}

	for i := 0; i < FoodPlacementAttempts; i++ {
		c := Cell{X: e.rng.Intn(gs.Width), Y: e.rng.Intn(gs.Height)}
		if !occupied[c] {
			return c, true
		}
	}

	free := FreeCells(gs.Width, gs.Height, occupied)
	if len(free) == 0 {
		return Cell{}, false
	}
	return free[e.rng.Intn(len(free))], true
}
