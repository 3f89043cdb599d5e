// Package ringer tracks the ringer mode (normal, vibrate or silent) that
// decides whether an incoming call rings, vibrates, or stays quiet.
package ringer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmylchreest/ringd/internal/config"
)

// Mode is the system ringer policy.
type Mode int

const (
	// ModeNormal rings and vibrates.
	ModeNormal Mode = iota
	// ModeVibrate vibrates without sound.
	ModeVibrate
	// ModeSilent neither rings nor vibrates.
	ModeSilent
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return config.RingerNormal
	case ModeVibrate:
		return config.RingerVibrate
	case ModeSilent:
		return config.RingerSilent
	default:
		return "unknown"
	}
}

// AllowsSound reports whether a ringtone may be heard in this mode.
func (m Mode) AllowsSound() bool {
	return m == ModeNormal
}

// AllowsVibration reports whether a vibration waveform may be issued.
func (m Mode) AllowsVibration() bool {
	return m != ModeSilent
}

// ParseMode parses a mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case config.RingerNormal:
		return ModeNormal, nil
	case config.RingerVibrate:
		return ModeVibrate, nil
	case config.RingerSilent:
		return ModeSilent, nil
	default:
		return ModeNormal, fmt.Errorf("invalid ringer mode %q", s)
	}
}

// Source reports the current ringer mode.
type Source interface {
	Mode() Mode
}

// Static is a Source with a fixed mode.
type Static Mode

// Mode implements Source.
func (s Static) Mode() Mode {
	return Mode(s)
}

// StateSource reads the persisted ringer state on every query and falls back
// to a configured mode when no state has been saved.
type StateSource struct {
	path     string
	fallback Mode
	logger   *slog.Logger
}

// NewStateSource creates a StateSource backed by the state file at path.
func NewStateSource(path string, fallback Mode, logger *slog.Logger) *StateSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateSource{path: path, fallback: fallback, logger: logger}
}

// Mode implements Source.
func (s *StateSource) Mode() Mode {
	state, err := LoadState(s.path)
	if err != nil {
		s.logger.Warn("failed to load ringer state, using configured mode", "path", s.path, "error", err)
		return s.fallback
	}
	if state.Mode == "" {
		return s.fallback
	}
	mode, err := ParseMode(state.Mode)
	if err != nil {
		s.logger.Warn("ignoring invalid ringer state", "path", s.path, "error", err)
		return s.fallback
	}
	return mode
}
