// Package model defines the core data structures shared by ringd components.
package model

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/oklog/ulid/v2"
)

// Parameter keys understood by the ringer.
const (
	// KeyRingtonePath names the ringtone to play. Empty selects the default chain.
	KeyRingtonePath = "ringtonePath"
	// KeyCallerName is informational only and is carried into log lines.
	KeyCallerName = "callerName"
)

// EventScreenOff is the system event delivered when the screen turns off.
const EventScreenOff = "screen-off"

// SystemDefaultSentinel requests the system default ringtone, bypassing any
// bundled default.
const SystemDefaultSentinel = "system_ringtone_default"

// Params is the key/value bag a host passes when it starts ringing.
// It is read-only input and is never retained after Play returns.
type Params map[string]any

// String returns the string value for key, or def when the key is missing
// or holds a non-string value.
func (p Params) String(key, def string) string {
	if p == nil {
		return def
	}
	v, ok := p[key]
	if !ok {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case dbus.Variant:
		if str, ok := s.Value().(string); ok {
			return str
		}
	case fmt.Stringer:
		return s.String()
	}
	return def
}

// Int returns the integer value for key, or def when missing or not numeric.
func (p Params) Int(key string, def int) int {
	if p == nil {
		return def
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint32:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	case dbus.Variant:
		return Params{key: v.Value()}.Int(key, def)
	}
	return def
}

// RingtonePath returns the requested ringtone name with surrounding space trimmed.
func (p Params) RingtonePath() string {
	return strings.TrimSpace(p.String(KeyRingtonePath, ""))
}

// WantsSystemDefault reports whether the request carries the system default sentinel.
func (p Params) WantsSystemDefault() bool {
	return IsSystemDefault(p.RingtonePath())
}

// IsSystemDefault reports whether name is the system default sentinel.
// The comparison ignores case.
func IsSystemDefault(name string) bool {
	return strings.EqualFold(name, SystemDefaultSentinel)
}

// ParamsFromVariants converts a D-Bus a{sv} dictionary into Params.
func ParamsFromVariants(v map[string]dbus.Variant) Params {
	p := make(Params, len(v))
	for k, val := range v {
		p[k] = val.Value()
	}
	return p
}

// Variants converts Params into a D-Bus a{sv} dictionary. Nil values have
// no D-Bus signature and are left out.
func (p Params) Variants() map[string]dbus.Variant {
	out := make(map[string]dbus.Variant, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		out[k] = dbus.MakeVariant(v)
	}
	return out
}

// NewSessionID returns a ULID identifying one ringing session.
func NewSessionID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}
