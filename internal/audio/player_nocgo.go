//go:build !cgo

package audio

import (
	"errors"
	"log/slog"
)

// errBeepUnavailable is returned when the speaker cannot be built.
var errBeepUnavailable = errors.New("beep playback not available: built without CGO support (Linux requires CGO for ALSA)")

// BeepBackend is unavailable without CGO.
type BeepBackend struct {
	Backend
}

// NewBeepBackend always fails without CGO.
func NewBeepBackend(Opener, *slog.Logger) (*BeepBackend, error) {
	return nil, errBeepUnavailable
}
