package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Messages holds the player-facing text for a preset
type Messages struct {
	Welcome     string `json:"welcome"`
	Score       string `json:"score"`
	GameOver    string `json:"game_over"`
	HitWall     string `json:"hit_wall"`
	HitSelf     string `json:"hit_self"`
	BoardFilled string `json:"board_filled"`
}

// GameConfig represents the game configuration from JSON.
//
// Width and Height are not read from JSON: the board size is fixed for every
// preset and only code (tests, embedders) may construct smaller boards.
type GameConfig struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	TickRate            int      `json:"tick_rate"`
	Seed                int64    `json:"seed,omitempty"`
	StrictTailCollision bool     `json:"strict_tail_collision,omitempty"`
	Palette             Palette  `json:"palette"`
	Messages            Messages `json:"messages"`

	Width  int `json:"-"`
	Height int `json:"-"`
}

// DefaultGameConfig returns the classic preset
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "The original retro snake: 32x24 board, 10 ticks per second",
		TickRate:    DefaultTickRate,
		Palette:     DefaultPalette(),
		Messages: Messages{
			Welcome:     "Eat the red squares. Don't bite yourself.",
			Score:       "Score: %d",
			GameOver:    "GAME OVER! Press R to Restart or Q to Quit",
			HitWall:     "You hit the wall!",
			HitSelf:     "You bit yourself!",
			BoardFilled: "The board is full. You win!",
		},
		Width:  GridWidth,
		Height: GridHeight,
	}
}

// Dimensions returns the board size, falling back to the fixed grid
func (c *GameConfig) Dimensions() (int, int) {
	w, h := c.Width, c.Height
	if w == 0 {
		w = GridWidth
	}
	if h == 0 {
		h = GridHeight
	}
	return w, h
}

// Copy returns a deep copy of the configuration
func (c *GameConfig) Copy() *GameConfig {
	cp := *c
	return &cp
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.TickRate < MinTickRate || config.TickRate > MaxTickRate {
		return fmt.Errorf("config validation: tick_rate must be between %d and %d, got %d", MinTickRate, MaxTickRate, config.TickRate)
	}

	w, h := config.Dimensions()
	if w < MinGridSize || w > MaxGridSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinGridSize, MaxGridSize, w)
	}
	if h < MinGridSize || h > MaxGridSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinGridSize, MaxGridSize, h)
	}

	// Validate messages
	if err := ValidateScoreMessage(config.Messages.Score); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if config.Messages.GameOver == "" {
		return fmt.Errorf("config validation: messages.game_over is required")
	}

	if err := config.Palette.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	return nil
}

// ValidateScoreMessage checks that a score template formats exactly one %d
// and nothing else, so rendering it never prints %!verb(MISSING)
func ValidateScoreMessage(score string) error {
	switch {
	case score == "":
		return fmt.Errorf("messages.score is required")
	case strings.Count(score, "%d") != 1:
		return fmt.Errorf("messages.score must contain exactly one %%d, got %q", score)
	case strings.Contains(fmt.Sprintf(score, 0), "%!"):
		return fmt.Errorf("messages.score has a formatting verb other than %%d: %q", score)
	}
	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	return ParseGameConfig(data)
}

// ParseGameConfig decodes a JSON preset, fills unset defaults and validates it
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills optional fields left empty by a preset file
func (c *GameConfig) applyDefaults() {
	def := DefaultGameConfig()
	if c.Width == 0 {
		c.Width = def.Width
	}
	if c.Height == 0 {
		c.Height = def.Height
	}
	c.Palette = c.Palette.withDefaults(def.Palette)
	if c.Messages.HitWall == "" {
		c.Messages.HitWall = def.Messages.HitWall
	}
	if c.Messages.HitSelf == "" {
		c.Messages.HitSelf = def.Messages.HitSelf
	}
	if c.Messages.BoardFilled == "" {
		c.Messages.BoardFilled = def.Messages.BoardFilled
	}
}
