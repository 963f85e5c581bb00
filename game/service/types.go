package service

import (
	"time"

	"github.com/wricardo/retro-snake/game/engine"
)

// Event types reported by Input and Tick
const (
	EventFood          = "food"
	EventGameOver      = "game_over"
	EventRestart       = "restart"
	EventSessionClosed = "session_closed"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	ClockRunning   bool               `json:"clock_running"`
	Snapshot       *engine.Snapshot   `json:"snapshot"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// InputResult contains the result of a single input event
type InputResult struct {
	Event    string           `json:"event"`
	Accepted bool             `json:"accepted"`
	Closed   bool             `json:"closed,omitempty"`
	Message  string           `json:"message,omitempty"`
	Events   []GameEvent      `json:"events,omitempty"`
	Snapshot *engine.Snapshot `json:"snapshot"`
}

// TickResult contains the result of advancing a session
type TickResult struct {
	StepsRequested int              `json:"steps_requested"`
	StepsExecuted  int              `json:"steps_executed"`
	Truncated      bool             `json:"truncated,omitempty"`
	Limit          int              `json:"limit,omitempty"`
	StoppedReason  string           `json:"stopped_reason,omitempty"`
	ScoreDelta     int              `json:"score_delta"`
	Events         []GameEvent      `json:"events"`
	Snapshot       *engine.Snapshot `json:"snapshot"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"` // "food", "game_over", "restart", "session_closed"
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Tick      int          `json:"tick"`
	Score     int          `json:"score"`
	Cause     engine.Cause `json:"cause,omitempty"`
	Cell      *engine.Cell `json:"cell,omitempty"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename            string `json:"filename"`
	ConfigID            string `json:"config_id"` // The identifier to use for session creation
	Name                string `json:"name"`      // Display name
	Description         string `json:"description"`
	TickRate            int    `json:"tick_rate"`
	StrictTailCollision bool   `json:"strict_tail_collision,omitempty"`
}
