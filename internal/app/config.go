// Package app holds the front-end around the emulation core: configuration,
// save slots and the frame-paced driver that feeds the video and audio
// backends.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nescore/internal/logger"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Scale      int    `json:"scale"` // NES resolution multiplier
	Fullscreen bool   `json:"fullscreen"`
	VSync      bool   `json:"vsync"`
	Filter     string `json:"filter"` // "nearest" or "linear"
}

// AudioConfig contains audio configuration
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sample_rate"`
	Volume     float32 `json:"volume"`
	BufferSize int     `json:"buffer_size"` // samples held by the player ring
}

// InputConfig contains key mappings for both controllers
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping maps NES controller buttons to ebiten key names
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	FrameRate    int    `json:"frame_rate"`
	EmulateSound bool   `json:"emulate_sound"`
	Region       string `json:"region"` // only "NTSC"
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	LogLevel      string `json:"log_level"` // "debug", "info", "warn", "error"
	Statsview     bool   `json:"statsview"`
	StatsviewAddr string `json:"statsview_addr"`
	ShowFPS       bool   `json:"show_fps"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	SaveStates  string `json:"save_states"`
	Screenshots string `json:"screenshots"`
	BatteryRAM  string `json:"battery_ram"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  768,
			Height: 720,
			Scale:  3,
			VSync:  true,
			Filter: "nearest",
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Volume:     0.8,
			BufferSize: 4096,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up:     "W",
				Down:   "S",
				Left:   "A",
				Right:  "D",
				A:      "J",
				B:      "K",
				Start:  "Enter",
				Select: "Space",
			},
			Player2Keys: KeyMapping{
				Up:     "ArrowUp",
				Down:   "ArrowDown",
				Left:   "ArrowLeft",
				Right:  "ArrowRight",
				A:      "N",
				B:      "M",
				Start:  "ShiftRight",
				Select: "ControlRight",
			},
		},
		Emulation: EmulationConfig{
			FrameRate:    60,
			EmulateSound: true,
			Region:       "NTSC",
		},
		Debug: DebugConfig{
			LogLevel:      "info",
			StatsviewAddr: "localhost:18066",
		},
		Paths: PathsConfig{
			SaveStates:  "./states",
			Screenshots: "./screenshots",
			BatteryRAM:  "./saves",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := c.validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the file it was loaded from
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

var errOutOfRange = errors.New("out of range")

// validate rejects values the emulator cannot run with and fills in
// harmless omissions.
func (c *Config) validate() error {
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		c.Window.Width, c.Window.Height = c.WindowResolution()
	}
	switch c.Window.Filter {
	case "":
		c.Window.Filter = "nearest"
	case "nearest", "linear":
	default:
		return &ConfigError{Field: "window.filter", Value: c.Window.Filter, Err: errOutOfRange}
	}

	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return &ConfigError{Field: "audio.sample_rate", Value: c.Audio.SampleRate, Err: errOutOfRange}
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return &ConfigError{Field: "audio.volume", Value: c.Audio.Volume, Err: errOutOfRange}
	}
	if c.Audio.BufferSize <= 0 {
		c.Audio.BufferSize = 4096
	}

	if c.Emulation.FrameRate <= 0 || c.Emulation.FrameRate > 240 {
		return &ConfigError{Field: "emulation.frame_rate", Value: c.Emulation.FrameRate, Err: errOutOfRange}
	}
	if c.Emulation.Region == "" {
		c.Emulation.Region = "NTSC"
	}
	if !strings.EqualFold(c.Emulation.Region, "NTSC") {
		return &ConfigError{Field: "emulation.region", Value: c.Emulation.Region, Err: errors.New("only NTSC is emulated")}
	}

	if _, err := logger.ParseLevel(c.Debug.LogLevel); err != nil {
		return &ConfigError{Field: "debug.log_level", Value: c.Debug.LogLevel, Err: err}
	}

	for name, keys := range map[string]KeyMapping{"input.player1_keys": c.Input.Player1Keys, "input.player2_keys": c.Input.Player2Keys} {
		for _, k := range keys.Keys() {
			if k == "" {
				return &ConfigError{Field: name, Value: keys, Err: errors.New("unmapped button")}
			}
		}
	}

	return nil
}

// Keys lists the mapping in controller bit order: A, B, Select, Start,
// Up, Down, Left, Right.
func (k KeyMapping) Keys() [8]string {
	return [8]string{k.A, k.B, k.Select, k.Start, k.Up, k.Down, k.Left, k.Right}
}

// LogLevel returns the configured level, or Info if it does not parse.
func (c *Config) LogLevel() logger.Level {
	level, err := logger.ParseLevel(c.Debug.LogLevel)
	if err != nil {
		return logger.Info
	}
	return level
}

// WindowResolution returns the window size based on scale
func (c *Config) WindowResolution() (int, int) {
	return 256 * c.Window.Scale, 240 * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// ConfigPath returns the path to the config file
func (c *Config) ConfigPath() string {
	return c.configPath
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	return "./config/nescore.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
