package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Hardware.Brightness != 20 {
		t.Errorf("Expected brightness 20, got %d", cfg.Hardware.Brightness)
	}

	if !cfg.Gameplay.ValidateBoardState {
		t.Error("Board validation should default to on")
	}

	if cfg.Gameplay.StrictTouchMove {
		t.Error("Strict touch move should default to off")
	}

	if cfg.Gameplay.Variant != "chess" {
		t.Errorf("Expected variant chess, got %s", cfg.Gameplay.Variant)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()

	// Valid config should pass
	if err := cfg.Validate(); err != nil {
		t.Errorf("Valid config failed validation: %v", err)
	}

	// Test invalid brightness
	cfg.Hardware.Brightness = 150
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for invalid brightness")
	}
	cfg.Hardware.Brightness = 20

	// Test unknown power profile
	cfg.Hardware.PowerProfile = 3.0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown power profile")
	}
	cfg.Hardware.PowerProfile = 1.5

	// Test invalid variant
	cfg.Gameplay.Variant = "go"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown variant")
	}
	cfg.Gameplay.Variant = "checkers"

	// Test invalid skill level
	cfg.Gameplay.SkillLevel = 21
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for invalid skill level")
	}
	cfg.Gameplay.SkillLevel = 10

	// Test invalid threads
	cfg.Gameplay.Threads = 8
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for invalid thread count")
	}
}

func TestPowerProfileCapsBrightness(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Hardware.PowerProfile = 0.5
	if max := cfg.MaxBrightness(); max != 20 {
		t.Errorf("0.5A profile should cap at 20%%, got %d", max)
	}

	cfg.Hardware.Brightness = 80
	if got := cfg.EffectiveBrightness(); got != 20 {
		t.Errorf("Expected brightness clamped to 20, got %d", got)
	}

	cfg.Hardware.PowerProfile = 2.5
	if got := cfg.EffectiveBrightness(); got != 80 {
		t.Errorf("2.5A profile should allow 80, got %d", got)
	}

	// Unknown profile falls back to the standard cap.
	cfg.Hardware.PowerProfile = 9.9
	if max := cfg.MaxBrightness(); max != 60 {
		t.Errorf("Unknown profile should cap at 60, got %d", max)
	}
}

func TestConfigSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	// Create and save config
	cfg := DefaultConfig()
	cfg.Gameplay.Variant = "checkers"
	cfg.Gameplay.PlayVsComputer = true

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Check file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	// Load config
	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Gameplay.Variant != "checkers" {
		t.Errorf("Expected variant checkers, got %s", loaded.Gameplay.Variant)
	}
	if !loaded.Gameplay.PlayVsComputer {
		t.Error("PlayVsComputer flag lost in round trip")
	}
}

func TestLoadOrDefault(t *testing.T) {
	// Test with non-existent file
	cfg := LoadOrDefault("nonexistent.json")
	if cfg == nil {
		t.Fatal("LoadOrDefault returned nil")
	}

	if cfg.Hardware.Brightness != 20 {
		t.Error("LoadOrDefault did not return default config")
	}

	// Test with existing file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	testCfg := DefaultConfig()
	testCfg.Hardware.Brightness = 42
	testCfg.Save(configPath)

	loaded := LoadOrDefault(configPath)
	if loaded.Hardware.Brightness != 42 {
		t.Error("LoadOrDefault did not load existing config")
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Debug.LogPath = filepath.Join(tmpDir, "logs", "squire.log")
	cfg.Debug.JournalPath = filepath.Join(tmpDir, "data", "games.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("Failed to ensure directories: %v", err)
	}

	for _, dir := range []string{
		filepath.Join(tmpDir, "logs"),
		filepath.Join(tmpDir, "data"),
	} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("Directory was not created: %s", dir)
		}
	}
}
