package engine

import "strings"

const (
	// Board defaults: a 640x480 window split into 20px cells
	GridWidth  = 32
	GridHeight = 24
	CellSize   = 20

	// Validation constants
	MinGridSize     = 5
	MaxGridSize     = 64
	DefaultTickRate = 10
	MinTickRate     = 1
	MaxTickRate     = 60
	MaxTickBatch    = 50

	// FoodPlacementAttempts bounds random retries before falling back to a
	// scan of the free cells.
	FoodPlacementAttempts = 100
)

// Cell is a grid position addressed by column (X) and row (Y)
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the cell offset by dx, dy
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// Direction is one of the four cardinal headings
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every valid direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// Delta returns the unit vector for the direction. Rows grow downwards.
func (d Direction) Delta() (int, int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Opposite returns the reverse heading, or "" for an invalid direction
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return ""
}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	dx, dy := d.Delta()
	return dx != 0 || dy != 0
}

// Event is a discrete input delivered to the state machine
type Event string

const (
	EventUp      Event = "up"
	EventDown    Event = "down"
	EventLeft    Event = "left"
	EventRight   Event = "right"
	EventRestart Event = "restart"
	EventQuit    Event = "quit"
)

// ParseEvent maps a name such as "Left" or "restart" to an Event.
// The second result is false for anything else.
func ParseEvent(name string) (Event, bool) {
	switch ev := Event(strings.ToLower(strings.TrimSpace(name))); ev {
	case EventUp, EventDown, EventLeft, EventRight, EventRestart, EventQuit:
		return ev, true
	}
	return "", false
}

// Direction returns the heading carried by a directional event
func (e Event) Direction() (Direction, bool) {
	d := Direction(e)
	return d, d.Valid()
}

// Phase is the state machine state
type Phase string

const (
	PhaseRunning  Phase = "running"
	PhaseGameOver Phase = "game_over"
)

// Cause explains why a round ended
type Cause string

const (
	CauseNone        Cause = ""
	CauseWall        Cause = "wall"
	CauseSelf        Cause = "self"
	CauseBoardFilled Cause = "board_filled"
)

// GameState represents the complete game state
type GameState struct {
	RoundID       string    `json:"round_id"`
	ConfigName    string    `json:"config_name"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Snake         []Cell    `json:"snake"`
	Direction     Direction `json:"direction"`
	Pending       Direction `json:"pending,omitempty"`
	Food          Cell      `json:"food"`
	Score         int       `json:"score"`
	Phase         Phase     `json:"phase"`
	GameOver      bool      `json:"game_over"`
	Victory       bool      `json:"victory"`
	Cause         Cause     `json:"cause,omitempty"`
	Message       string    `json:"message"`
	Ticks         int       `json:"ticks"`
	QuitRequested bool      `json:"quit_requested,omitempty"`
}

// Head returns the first snake cell
func (gs *GameState) Head() Cell {
	return gs.Snake[0]
}

// Snapshot is the read-only view handed to renderers and remote clients
type Snapshot struct {
	RoundID    string    `json:"round_id"`
	ConfigName string    `json:"config_name"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Snake      []Cell    `json:"snake"`
	Food       Cell      `json:"food"`
	Score      int       `json:"score"`
	Direction  Direction `json:"direction"`
	Phase      Phase     `json:"phase"`
	GameOver   bool      `json:"game_over"`
	Victory    bool      `json:"victory"`
	Cause      Cause     `json:"cause,omitempty"`
	Message    string    `json:"message"`
	Ticks      int       `json:"ticks"`
	// StrictTail is set when the tail cell counts as occupied during a move
	StrictTail bool `json:"strict_tail_collision,omitempty"`
}

// Length returns the number of snake cells
func (s Snapshot) Length() int {
	return len(s.Snake)
}

// TickResult summarizes one call to Tick
type TickResult struct {
	Moved    bool  `json:"moved"`
	Ate      bool  `json:"ate"`
	GameOver bool  `json:"game_over"`
	Cause    Cause `json:"cause,omitempty"`
	Score    int   `json:"score"`
	Length   int   `json:"length"`
}
