package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmylchreest/ringd/internal/config"
	"github.com/jmylchreest/ringd/internal/ringtone"
)

// ErrUnsupportedFormat is returned for files the backend cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Opener opens the resource behind a ringtone URI.
type Opener interface {
	Open(uri ringtone.URI) (io.ReadCloser, error)
}

// Ringtone is a prepared ringtone ready to start.
type Ringtone interface {
	// Play starts playback. loop is ignored by backends that cannot loop.
	Play(loop bool) error
	// Stop halts playback. It is safe to call more than once.
	Stop()
}

// Backend creates ringtones for URIs.
type Backend interface {
	Open(uri ringtone.URI) (Ringtone, error)
	// SupportsLooping reports whether Play(true) repeats the ringtone.
	SupportsLooping() bool
	SetVolume(volume float64)
	Close()
}

// PlaybackError describes a failure to prepare or start a ringtone.
type PlaybackError struct {
	URI ringtone.URI
	Op  string
	Err error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URI, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// NewBackend selects a playback backend from the audio configuration.
// "auto" prefers beep and falls back to external players when beep is not
// compiled in.
func NewBackend(cfg config.AudioConfig, opener Opener, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var backend Backend
	switch cfg.Backend {
	case config.BackendBeep:
		b, err := NewBeepBackend(opener, logger)
		if err != nil {
			return nil, err
		}
		backend = b
	case config.BackendCommand:
		backend = NewCommandBackend(opener, logger)
	case config.BackendAuto, "":
		b, err := NewBeepBackend(opener, logger)
		if err != nil {
			logger.Info("beep playback unavailable, using external player", "error", err)
			backend = NewCommandBackend(opener, logger)
		} else {
			backend = b
		}
	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
	}

	backend.SetVolume(float64(cfg.Volume) / 100.0)
	return backend, nil
}

// clampVolume limits volume to the 0.0-1.0 range.
func clampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}
