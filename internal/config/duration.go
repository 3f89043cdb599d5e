package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration is a vibration segment length. The haptic service takes whole
// milliseconds as a uint32, so values are held to that range and precision.
// In TOML it is written as "750ms", "1s" or a bare millisecond count.
type Duration time.Duration

// MaxDuration is the longest segment the haptic service can express.
const MaxDuration = Duration(math.MaxUint32 * time.Millisecond)

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	var v time.Duration
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		v = time.Duration(ms) * time.Millisecond
	} else {
		v, err = time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: want e.g. \"750ms\", \"1s\" or 1000", s)
		}
	}

	parsed := Duration(v)
	if err := parsed.check(); err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// check reports whether d fits a haptic segment.
func (d Duration) check() error {
	switch {
	case d < 0:
		return fmt.Errorf("must not be negative")
	case d > MaxDuration:
		return fmt.Errorf("must be at most %s", time.Duration(MaxDuration))
	case time.Duration(d)%time.Millisecond != 0:
		return fmt.Errorf("must be a whole number of milliseconds")
	}
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
