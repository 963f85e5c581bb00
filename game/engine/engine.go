package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Input and simulation
	HandleInput(event Event) bool
	Tick() TickResult
	Snapshot() Snapshot

	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	GetScore() int
	QuitRequested() bool

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    *rand.Rand
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{
		config: config,
		rng:    newRand(config.Seed),
	}
	engine.state = engine.initState()

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the classic preset
func NewEngineWithDefaults() *GameEngine {
	engine, err := NewEngine(DefaultGameConfig())
	if err != nil {
		// DefaultGameConfig is always valid
		panic(err)
	}
	return engine
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(uint64(seed)))
}

// initState builds a fresh round: one centred cell heading right
func (e *GameEngine) initState() *GameState {
	w, h := e.config.Dimensions()
	state := &GameState{
		RoundID:    uuid.NewString(),
		ConfigName: e.config.Name,
		Width:      w,
		Height:     h,
		Snake:      []Cell{{X: w / 2, Y: h / 2}},
		Direction:  Right,
		Phase:      PhaseRunning,
		Message:    e.config.Messages.Welcome,
	}
	if food, ok := e.placeFood(state); ok {
		state.Food = food
	}
	return state
}

// HandleInput applies a single input event and reports whether it changed anything
func (e *GameEngine) HandleInput(event Event) bool {
	if e.state.GameOver {
		switch event {
		case EventRestart:
			e.Reset()
			return true
		case EventQuit:
			e.state.QuitRequested = true
			return true
		}
		return false
	}

	dir, ok := event.Direction()
	if !ok {
		return false
	}
	// Compare against the committed heading, not the pending one
	if dir == e.state.Direction.Opposite() {
		return false
	}
	e.state.Pending = dir
	return true
}

// Tick advances the game by one step; it does nothing once the game is over
func (e *GameEngine) Tick() TickResult {
	if e.state.GameOver {
		return TickResult{
			GameOver: true,
			Cause:    e.state.Cause,
			Score:    e.state.Score,
			Length:   len(e.state.Snake),
		}
	}
	return e.state.step(e.config, e.placeFood)
}

// Snapshot returns a copy of the renderable state
func (e *GameEngine) Snapshot() Snapshot {
	gs := e.state
	snake := make([]Cell, len(gs.Snake))
	copy(snake, gs.Snake)

	return Snapshot{
		RoundID:    gs.RoundID,
		ConfigName: gs.ConfigName,
		Width:      gs.Width,
		Height:     gs.Height,
		Snake:      snake,
		Food:       gs.Food,
		Score:      gs.Score,
		Direction:  gs.Direction,
		Phase:      gs.Phase,
		GameOver:   gs.GameOver,
		Victory:    gs.Victory,
		Cause:      gs.Cause,
		Message:    gs.Message,
		Ticks:      gs.Ticks,
		StrictTail: e.config.StrictTailCollision,
	}
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the game state
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if len(state.Snake) == 0 {
		return fmt.Errorf("state must contain at least one snake cell")
	}
	if state.Width == 0 || state.Height == 0 {
		state.Width, state.Height = e.config.Dimensions()
	}
	if state.Direction == "" {
		state.Direction = Right
	}
	if state.Phase == "" {
		state.Phase = PhaseRunning
		if state.GameOver {
			state.Phase = PhaseGameOver
		}
	}
	e.state = state
	return nil
}

// Reset starts a new round from the current configuration
func (e *GameEngine) Reset() *GameState {
	e.state = e.initState()
	return e.state
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// QuitRequested reports whether a quit event was accepted
func (e *GameEngine) QuitRequested() bool {
	return e.state.QuitRequested
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and resets the game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.rng = newRand(config.Seed)
	e.state = e.initState()
	return nil
}
