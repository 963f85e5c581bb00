package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/retro-snake/game/engine"
)

func createValidConfig() *engine.GameConfig {
	config := engine.DefaultGameConfig()
	config.Name = "Test Config"
	config.Description = "Test configuration"
	return config
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	m := &Manager{configDir: dir, configs: make(map[string]*engine.GameConfig)}
	if err := m.SaveConfig(name, config); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()

		classic := createValidConfig()
		classic.Name = "Classic"
		writeConfigFile(t, dir, "classic", classic)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Classic" {
			t.Errorf("Expected default 'Classic', got '%s'", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed even without config files, got error: %v", err)
		}

		defaultConfig := manager.GetDefault()
		if defaultConfig == nil {
			t.Fatal("Expected default config to be available")
		}
		if defaultConfig.Name != "classic" {
			t.Errorf("Expected built-in classic preset, got '%s'", defaultConfig.Name)
		}
	})

	t.Run("falls back to first valid preset", func(t *testing.T) {
		dir := t.TempDir()

		os.WriteFile(filepath.Join(dir, "aaa.json"), []byte(`{"name": ""}`), 0644)
		relaxed := createValidConfig()
		relaxed.Name = "Relaxed"
		relaxed.TickRate = 6
		writeConfigFile(t, dir, "relaxed", relaxed)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Relaxed" {
			t.Errorf("Expected default 'Relaxed', got '%s'", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, "classic", createValidConfig())

	relaxed := createValidConfig()
	relaxed.Name = "Relaxed"
	relaxed.TickRate = 6
	writeConfigFile(t, dir, "relaxed", relaxed)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		config, err := manager.LoadConfig("relaxed")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Relaxed" {
			t.Errorf("Expected config name 'Relaxed', got '%s'", config.Name)
		}
		if config.TickRate != 6 {
			t.Errorf("Expected tick rate 6, got %d", config.TickRate)
		}
		if config.Width != engine.GridWidth || config.Height != engine.GridHeight {
			t.Errorf("Expected fixed board size, got %dx%d", config.Width, config.Height)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		config, err := manager.LoadConfig("relaxed.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Relaxed" {
			t.Errorf("Expected config name 'Relaxed', got '%s'", config.Name)
		}
	})

	t.Run("loaded configs are copies", func(t *testing.T) {
		config1, _ := manager.LoadConfig("relaxed")
		config1.TickRate = 42

		config2, err := manager.LoadConfig("relaxed")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config2.TickRate != 6 {
			t.Errorf("Expected cached config to be unchanged, got tick rate %d", config2.TickRate)
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if err != ErrConfigNotFound {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		invalidData := []byte(`{"name": ""}`)
		if err := os.WriteFile(filepath.Join(dir, "invalid.json"), invalidData, 0644); err != nil {
			t.Fatalf("Failed to write invalid config: %v", err)
		}

		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		malformedData := []byte(`{"name": "Malformed", invalid json}`)
		if err := os.WriteFile(filepath.Join(dir, "malformed.json"), malformedData, 0644); err != nil {
			t.Fatalf("Failed to write malformed config: %v", err)
		}

		_, err := manager.LoadConfig("malformed")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("reject path traversal", func(t *testing.T) {
		for _, name := range []string{"../classic", "sub/classic", ""} {
			if _, err := manager.LoadConfig(name); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig for %q, got %v", name, err)
			}
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()

	configs := []struct {
		filename string
		name     string
		tickRate int
	}{
		{"relaxed", "Relaxed", 6},
		{"classic", "Classic", 10},
		{"neon", "Neon", 15},
		{"strict", "Strict", 10},
	}

	for _, cfg := range configs {
		config := createValidConfig()
		config.Name = cfg.name
		config.TickRate = cfg.tickRate
		writeConfigFile(t, dir, cfg.filename, config)
	}

	// Ignored: not JSON, and invalid JSON preset
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644)
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configList, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(configList) != 4 {
		t.Fatalf("Expected 4 configs, got %d", len(configList))
	}

	expectedOrder := []string{"classic", "neon", "relaxed", "strict"}
	for i, info := range configList {
		if info.ConfigID != expectedOrder[i] {
			t.Errorf("Expected config %d to be '%s', got '%s'", i, expectedOrder[i], info.ConfigID)
		}
		if info.Filename != info.ConfigID+".json" {
			t.Errorf("Expected filename %s.json, got %s", info.ConfigID, info.Filename)
		}
	}

	if configList[1].TickRate != 15 {
		t.Errorf("Expected neon tick rate 15, got %d", configList[1].TickRate)
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, "classic", createValidConfig())
	neon := createValidConfig()
	neon.Name = "Neon"
	writeConfigFile(t, dir, "neon", neon)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("neon"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if manager.GetDefault().Name != "Neon" {
		t.Errorf("Expected default 'Neon', got '%s'", manager.GetDefault().Name)
	}

	if err := manager.SetDefault("missing"); err != ErrConfigNotFound {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()

	config := createValidConfig()
	config.TickRate = 10
	writeConfigFile(t, dir, "classic", config)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	// Change the file behind the manager's back
	data := []byte(`{"name": "Classic", "description": "Edited", "tick_rate": 20,
		"messages": {"score": "Score: %d", "game_over": "Over"}}`)
	if err := os.WriteFile(filepath.Join(dir, "classic.json"), data, 0644); err != nil {
		t.Fatalf("Failed to rewrite config: %v", err)
	}

	cached, _ := manager.LoadConfig("classic")
	if cached.TickRate != 10 {
		t.Errorf("Expected cached tick rate 10, got %d", cached.TickRate)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh cache: %v", err)
	}

	reloaded, _ := manager.LoadConfig("classic")
	if reloaded.TickRate != 20 {
		t.Errorf("Expected reloaded tick rate 20, got %d", reloaded.TickRate)
	}
	if manager.GetDefault().Description != "Edited" {
		t.Errorf("Expected default to be reloaded, got '%s'", manager.GetDefault().Description)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("valid config", func(t *testing.T) {
		config := createValidConfig()
		config.Name = "Saved"
		config.Seed = 7

		if err := manager.SaveConfig("saved", config); err != nil {
			t.Fatalf("Failed to save config: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
			t.Errorf("Expected saved.json on disk: %v", err)
		}

		manager.RefreshCache()
		loaded, err := manager.LoadConfig("saved")
		if err != nil {
			t.Fatalf("Failed to load saved config: %v", err)
		}
		if loaded.Seed != 7 {
			t.Errorf("Expected seed 7, got %d", loaded.Seed)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		config := createValidConfig()
		config.TickRate = 0

		err := manager.SaveConfig("bad", config)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(dir, "bad.json")); !os.IsNotExist(statErr) {
			t.Error("Expected invalid config not to be written")
		}
	})
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, "classic", createValidConfig())
	for i := 1; i <= 5; i++ {
		config := createValidConfig()
		config.Name = fmt.Sprintf("Config%d", i)
		writeConfigFile(t, dir, fmt.Sprintf("config%d", i), config)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	manager.RefreshCache()

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := manager.LoadConfig(fmt.Sprintf("config%d", (id%5)+1)); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}

	manager.mu.RLock()
	cached := len(manager.configs)
	manager.mu.RUnlock()
	if cached != 6 {
		t.Errorf("Expected 6 configs in cache, got %d", cached)
	}
}
