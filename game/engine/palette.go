package engine

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Palette holds the hex colours a front end uses to draw a preset
type Palette struct {
	Background string `json:"background"`
	Grid       string `json:"grid"`
	Snake      string `json:"snake"`
	Head       string `json:"head,omitempty"`
	Food       string `json:"food"`
	Text       string `json:"text"`
}

// DefaultPalette is black, green, red and white with dim grid lines
func DefaultPalette() Palette {
	return Palette{
		Background: "#000000",
		Grid:       "#282828",
		Snake:      "#00ff00",
		Food:       "#ff0000",
		Text:       "#ffffff",
	}
}

// Validate checks that every set colour parses
func (p Palette) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"background", p.Background},
		{"grid", p.Grid},
		{"snake", p.Snake},
		{"head", p.Head},
		{"food", p.Food},
		{"text", p.Text},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if _, err := ParseHexColor(f.value); err != nil {
			return fmt.Errorf("palette.%s: %w", f.name, err)
		}
	}
	return nil
}

// HeadColor returns the head colour, which defaults to the body colour
func (p Palette) HeadColor() string {
	if p.Head == "" {
		return p.Snake
	}
	return p.Head
}

func (p Palette) withDefaults(def Palette) Palette {
	if p.Background == "" {
		p.Background = def.Background
	}
	if p.Grid == "" {
		p.Grid = def.Grid
	}
	if p.Snake == "" {
		p.Snake = def.Snake
	}
	if p.Food == "" {
		p.Food = def.Food
	}
	if p.Text == "" {
		p.Text = def.Text
	}
	return p
}

// ParseHexColor parses "#rrggbb" or "#rgb" into an opaque colour
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %v", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// MustColor parses a colour known to be valid, returning black otherwise
func MustColor(s string) color.RGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return c
}
