// Package config provides preset management for Retro Snake.
//
// The config package handles:
//   - Loading presets from JSON files
//   - Caching and listing the presets of a directory
//   - Resolving the default preset
//   - Saving validated presets back to disk
//
// Preset Format:
//
// Presets are stored as JSON files in the configs directory. Each preset
// defines the tick rate, an optional RNG seed, the palette used by the front
// ends and the player-facing messages. The board is always 32x24.
//
// Shipped Presets:
//   - classic: 10 ticks per second, green snake on black
//   - relaxed: 6 ticks per second
//   - neon: 15 ticks per second with a brighter palette
//   - strict: classic speed, the vacated tail cell also kills
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		return err
//	}
//
//	preset, err := manager.LoadConfig("relaxed")
//	if errors.Is(err, config.ErrConfigNotFound) {
//		preset = manager.GetDefault()
//	}
package config
