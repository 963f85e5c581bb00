// Command validate checks every preset JSON file in a directory (default
// ../configs) and prints one report per file. Unlike loading a preset, which
// stops at the first problem, it collects all of them:
//   - JSON structure and unknown keys
//   - Required fields and the tick rate range
//   - Message templates (score must format exactly one %d)
//   - Palette colours, and that snake, food and background are distinguishable
//
// A file with no problems is also loaded through the engine to confirm a round
// can start from it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/retro-snake/game/engine"
)

// knownKeys are the top-level preset keys the engine reads
var knownKeys = map[string]bool{
	"name":                  true,
	"description":           true,
	"tick_rate":             true,
	"seed":                  true,
	"strict_tail_collision": true,
	"palette":               true,
	"messages":              true,
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	var unknown []string
	for k := range keys {
		if !knownKeys[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		if k == "width" || k == "height" {
			result.fail("%s is not configurable: the board is always %dx%d", k, engine.GridWidth, engine.GridHeight)
			continue
		}
		result.fail("Unknown key: %s", k)
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid field type: %v", err)
		return result
	}

	if config.Name == "" {
		result.fail("name is required")
	}
	if config.Description == "" {
		result.fail("description is required")
	}
	if config.TickRate < engine.MinTickRate || config.TickRate > engine.MaxTickRate {
		result.fail("tick_rate must be between %d and %d, got %d", engine.MinTickRate, engine.MaxTickRate, config.TickRate)
	}

	validateMessages(&result, config.Messages)
	validatePalette(&result, config.Palette)

	if !result.Valid {
		return result
	}

	// Everything checked out field by field; the engine must agree
	cfg, err := engine.ParseGameConfig(data)
	if err != nil {
		result.fail("Engine rejected preset: %v", err)
		return result
	}
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		result.fail("Engine could not start a round: %v", err)
		return result
	}
	snap := eng.Snapshot()

	result.info("Name: %s", cfg.Name)
	result.info("Board: %dx%d, snake length %d heading %s", snap.Width, snap.Height, snap.Length(), snap.Direction)
	result.info("Tick rate: %d/s", cfg.TickRate)
	if cfg.StrictTailCollision {
		result.info("Tail collision: strict")
	} else {
		result.info("Tail collision: tail cell is free")
	}
	if cfg.Seed != 0 {
		result.info("Seed: %d (food sequence is reproducible)", cfg.Seed)
	}
	return result
}

func validateMessages(result *ValidationResult, m engine.Messages) {
	if m.Score == "" {
		result.fail("Missing required message: score")
	} else if err := engine.ValidateScoreMessage(m.Score); err != nil {
		result.fail("%v", err)
	}

	if m.GameOver == "" {
		result.fail("Missing required message: game_over")
	}

	optional := []struct {
		name, value string
	}{
		{"welcome", m.Welcome},
		{"hit_wall", m.HitWall},
		{"hit_self", m.HitSelf},
		{"board_filled", m.BoardFilled},
	}
	for _, o := range optional {
		if o.value == "" {
			result.info("messages.%s not set, using the default", o.name)
		}
	}
}

func validatePalette(result *ValidationResult, p engine.Palette) {
	full := p
	def := engine.DefaultPalette()
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"background", &full.Background, def.Background},
		{"grid", &full.Grid, def.Grid},
		{"snake", &full.Snake, def.Snake},
		{"head", &full.Head, ""},
		{"food", &full.Food, def.Food},
		{"text", &full.Text, def.Text},
	}

	ok := true
	for _, f := range fields {
		if *f.value == "" {
			*f.value = f.def
			continue
		}
		if _, err := engine.ParseHexColor(*f.value); err != nil {
			result.fail("palette.%s: %v", f.name, err)
			ok = false
		}
	}
	if !ok {
		return
	}

	bg := engine.MustColor(full.Background)
	pairs := []struct {
		name string
		c    string
	}{
		{"snake", full.Snake},
		{"head", full.HeadColor()},
		{"food", full.Food},
		{"text", full.Text},
	}
	for _, pr := range pairs {
		if engine.MustColor(pr.c) == bg {
			result.fail("palette.%s is the same colour as the background", pr.name)
		}
	}
	if engine.MustColor(full.Snake) == engine.MustColor(full.Food) {
		result.fail("palette.snake and palette.food are the same colour")
	}
}

func validateDir(dir string) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("finding preset files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no preset files in %s", dir)
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateConfig(file))
	}
	return results, nil
}

func printReport(results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All presets are valid!")
	} else {
		fmt.Println("❌ Some presets have errors")
	}
	return allValid
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "check Retro Snake preset files",
		ArgsUsage: "[dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "../configs"
			}
			results, err := validateDir(dir)
			if err != nil {
				return err
			}
			if !printReport(results) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}
