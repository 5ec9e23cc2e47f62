// Package config holds the persisted application settings: a JSON file with
// hardware, gameplay and debug sections. Brightness and validation toggles
// are consulted live each loop cycle; the rest is read at startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Hardware HardwareConfig `json:"hardware"`
	Gameplay GameplayConfig `json:"gameplay"`
	Debug    DebugConfig    `json:"debug"`
}

// HardwareConfig contains sensor and LED settings
type HardwareConfig struct {
	// Brightness is the LED brightness percentage (0-100), capped by the
	// power profile.
	Brightness int `json:"brightness"`

	// PowerProfile is the supply current limit in amperes; one of 0.5,
	// 1.0, 1.5, 2.0, 2.5.
	PowerProfile float64 `json:"power_profile"`

	// SPIDevice is the spidev path driving the LED strip.
	SPIDevice string `json:"spi_device"`

	// Simulate replaces the sensor chain and LED strip with in-memory
	// fakes for desk use.
	Simulate bool `json:"simulate"`
}

// GameplayConfig contains game and opponent settings
type GameplayConfig struct {
	// Variant is "chess" or "checkers".
	Variant string `json:"variant"`

	PlayVsComputer     bool `json:"play_vs_computer"`
	StrictTouchMove    bool `json:"strict_touch_move"`
	ValidateBoardState bool `json:"validate_board_state"`

	// Chess engine settings.
	EnginePath      string `json:"engine_path"`
	SkillLevel      int    `json:"stockfish_skill_level"` // 0-20
	ThinkTimeMillis int    `json:"stockfish_think_time"`  // 500-5000
	Depth           int    `json:"stockfish_depth"`       // 5-25
	Threads         int    `json:"stockfish_threads"`     // 1-4

	// CheckersDifficulty is the heuristic engine level (1-10).
	CheckersDifficulty int `json:"checkers_difficulty"`
}

// DebugConfig contains logging and diagnostics settings
type DebugConfig struct {
	LogLevel     string `json:"log_level"`
	LogPath      string `json:"log_path"`
	DebugSensors bool   `json:"debug_sensors"`

	// JournalPath is the bbolt database recording finished games.
	JournalPath string `json:"journal_path"`

	// WebAddr serves the status page when non-empty, e.g. ":8080".
	WebAddr string `json:"web_addr"`
}

// powerProfiles maps a supply current limit to the maximum brightness
// percentage it can sustain (measured calibration, not a formula).
var powerProfiles = map[float64]int{
	0.5: 20,
	1.0: 40,
	1.5: 60,
	2.0: 80,
	2.5: 100,
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		Hardware: HardwareConfig{
			Brightness:   20,
			PowerProfile: 1.5,
			SPIDevice:    "/dev/spidev0.0",
		},
		Gameplay: GameplayConfig{
			Variant:            "chess",
			ValidateBoardState: true,
			SkillLevel:         10,
			ThinkTimeMillis:    1000,
			Depth:              15,
			Threads:            1,
			CheckersDifficulty: 5,
		},
		Debug: DebugConfig{
			LogLevel:    "info",
			LogPath:     "logs/squire.log",
			JournalPath: "data/games.db",
		},
	}
}

// MaxBrightness returns the brightness percentage cap imposed by the power
// profile. Unknown profiles fall back to the standard 60%.
func (c *Config) MaxBrightness() int {
	if max, ok := powerProfiles[c.Hardware.PowerProfile]; ok {
		return max
	}
	return 60
}

// EffectiveBrightness is the configured brightness clamped to the profile
// cap.
func (c *Config) EffectiveBrightness() int {
	b := c.Hardware.Brightness
	if max := c.MaxBrightness(); b > max {
		return max
	}
	return b
}

// Validate checks the configuration for out-of-range values
func (c *Config) Validate() error {
	if c.Hardware.Brightness < 0 || c.Hardware.Brightness > 100 {
		return fmt.Errorf("brightness %d out of range 0-100", c.Hardware.Brightness)
	}
	if _, ok := powerProfiles[c.Hardware.PowerProfile]; !ok {
		return fmt.Errorf("unknown power profile %.1fA", c.Hardware.PowerProfile)
	}
	if c.Gameplay.Variant != "chess" && c.Gameplay.Variant != "checkers" {
		return fmt.Errorf("unknown variant %q", c.Gameplay.Variant)
	}
	if c.Gameplay.SkillLevel < 0 || c.Gameplay.SkillLevel > 20 {
		return fmt.Errorf("skill level %d out of range 0-20", c.Gameplay.SkillLevel)
	}
	if c.Gameplay.Depth < 5 || c.Gameplay.Depth > 25 {
		return fmt.Errorf("depth %d out of range 5-25", c.Gameplay.Depth)
	}
	if c.Gameplay.Threads < 1 || c.Gameplay.Threads > 4 {
		return fmt.Errorf("threads %d out of range 1-4", c.Gameplay.Threads)
	}
	if c.Gameplay.CheckersDifficulty < 1 || c.Gameplay.CheckersDifficulty > 10 {
		return fmt.Errorf("checkers difficulty %d out of range 1-10", c.Gameplay.CheckersDifficulty)
	}
	return nil
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadOrDefault loads the file or falls back to defaults when it is missing
// or unreadable
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// EnsureDirectories creates the directories for the log and journal paths
func (c *Config) EnsureDirectories() error {
	for _, p := range []string{c.Debug.LogPath, c.Debug.JournalPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
	}
	return nil
}
