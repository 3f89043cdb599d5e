// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// AppName is used for config and data directory names.
const AppName = "ringd"

// Backend selectors shared by the audio and vibration sections.
const (
	BackendAuto     = "auto"
	BackendBeep     = "beep"
	BackendCommand  = "command"
	BackendUsensord = "usensord"
	BackendNone     = "none"
)

// Ringer mode names. The ringer package owns the typed values.
const (
	RingerNormal  = "normal"
	RingerVibrate = "vibrate"
	RingerSilent  = "silent"
)

// Default configuration values.
const (
	DefaultTheme        = "freedesktop"
	DefaultVolume       = 80
	DefaultVibrateOn    = 1000 * time.Millisecond
	DefaultVibrateOff   = 1000 * time.Millisecond
	DefaultRingerMode   = RingerNormal
	DefaultAudioBackend = BackendAuto
)

// Config is the configuration for ringd.
// Loaded from ~/.config/ringd/ringd.toml
type Config struct {
	Ringtone  RingtoneConfig  `toml:"ringtone"`
	Audio     AudioConfig     `toml:"audio"`
	Vibration VibrationConfig `toml:"vibration"`
	Ringer    RingerConfig    `toml:"ringer"`
	Screen    ScreenConfig    `toml:"screen"`
}

// RingtoneConfig controls where ringtones are looked up.
type RingtoneConfig struct {
	BundleDir     string   `toml:"bundle_dir"`     // Extra bundled ringtones, overlays the built-in set
	Theme         string   `toml:"theme"`          // freedesktop sound theme name
	SystemDefault string   `toml:"system_default"` // Overrides the theme's phone-incoming-call sound
	SoundDirs     []string `toml:"sound_dirs"`     // Extra directories listed as system ringtones
}

// AudioConfig contains playback settings.
type AudioConfig struct {
	Enabled bool   `toml:"enabled"`
	Backend string `toml:"backend"` // "auto", "beep", "command"
	Volume  int    `toml:"volume"`  // 0-100
}

// VibrationConfig contains vibration settings.
type VibrationConfig struct {
	Enabled bool     `toml:"enabled"`
	Backend string   `toml:"backend"` // "auto", "usensord", "none"
	On      Duration `toml:"on"`      // e.g. "1s" or 1000
	Off     Duration `toml:"off"`
}

// RingerConfig contains the fallback ringer mode used when no state file exists.
type RingerConfig struct {
	Mode string `toml:"mode"` // "normal", "vibrate", "silent"
}

// ScreenConfig controls the screen-off listener.
type ScreenConfig struct {
	AutoStop bool `toml:"auto_stop"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Ringtone: RingtoneConfig{
			Theme: DefaultTheme,
		},
		Audio: AudioConfig{
			Enabled: true,
			Backend: DefaultAudioBackend,
			Volume:  DefaultVolume,
		},
		Vibration: VibrationConfig{
			Enabled: true,
			Backend: BackendAuto,
			On:      Duration(DefaultVibrateOn),
			Off:     Duration(DefaultVibrateOff),
		},
		Ringer: RingerConfig{
			Mode: DefaultRingerMode,
		},
		Screen: ScreenConfig{
			AutoStop: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, AppName, AppName+".toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName)
}

// StatePath returns the path to the persisted ringer state file.
func StatePath() string {
	return filepath.Join(DataPath(), "state.json")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains([]string{BackendAuto, BackendBeep, BackendCommand}, c.Audio.Backend) {
		return fmt.Errorf("invalid audio backend %q", c.Audio.Backend)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	if !slices.Contains([]string{BackendAuto, BackendUsensord, BackendNone}, c.Vibration.Backend) {
		return fmt.Errorf("invalid vibration backend %q", c.Vibration.Backend)
	}
	if err := c.Vibration.On.check(); err != nil {
		return fmt.Errorf("vibration on time %w", err)
	}
	if err := c.Vibration.Off.check(); err != nil {
		return fmt.Errorf("vibration off time %w", err)
	}
	if c.Vibration.Enabled && c.Vibration.On <= 0 {
		return fmt.Errorf("vibration on time must be positive, got %s", c.Vibration.On.Duration())
	}

	if !slices.Contains([]string{RingerNormal, RingerVibrate, RingerSilent}, c.Ringer.Mode) {
		return fmt.Errorf("invalid ringer mode %q, must be one of: normal, vibrate, silent", c.Ringer.Mode)
	}

	if c.Ringtone.Theme == "" {
		return errors.New("ringtone theme cannot be empty")
	}

	return nil
}

// VolumeFraction returns the configured volume in the 0.0-1.0 range.
func (c *Config) VolumeFraction() float64 {
	return float64(c.Audio.Volume) / 100.0
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
