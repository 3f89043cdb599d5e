package dbus

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// usensord haptic service, which lives on the session bus.
const (
	HapticBusName   = "com.canonical.usensord"
	HapticPath      = "/com/canonical/usensord/haptic"
	HapticInterface = "com.canonical.usensord.haptic"
)

// hapticCallTimeout bounds every call to the haptic service so a hung
// usensord cannot stall a ringing session.
const hapticCallTimeout = 2 * time.Second

// busObject is the subset of dbus.BusObject used by the clients.
type busObject interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

func callHaptic(obj busObject, method string, args ...any) *dbus.Call {
	ctx, cancel := context.WithTimeout(context.Background(), hapticCallTimeout)
	defer cancel()
	return obj.CallWithContext(ctx, method, 0, args...)
}

// UsensordPattern drives usensord with whole patterns.
//
// usensord has no call to stop a pattern, so UsensordPattern is not a
// haptic.Stopper. After Cancel the motor finishes the segment in progress,
// at most one "on" duration.
type UsensordPattern struct {
	obj busObject
}

// VibratePattern implements haptic.PatternDevice.
func (h *UsensordPattern) VibratePattern(pattern []time.Duration) error {
	ms := make([]uint32, len(pattern))
	for i, d := range pattern {
		ms[i] = uint32(d.Milliseconds())
	}
	if err := callHaptic(h.obj, HapticInterface+".VibratePattern", ms, uint32(1)).Err; err != nil {
		return fmt.Errorf("VibratePattern: %w", err)
	}
	return nil
}

// UsensordPulse drives usensord one pulse at a time, for services without
// pattern support.
type UsensordPulse struct {
	obj busObject
}

// VibrateFor implements haptic.PulseDevice.
func (h *UsensordPulse) VibrateFor(d time.Duration) error {
	if err := callHaptic(h.obj, HapticInterface+".Vibrate", uint32(d.Milliseconds())).Err; err != nil {
		return fmt.Errorf("Vibrate: %w", err)
	}
	return nil
}

// ProbeHaptic inspects the session bus for the usensord haptic service and
// returns a device for the richest method it offers, or nil if there is none.
func ProbeHaptic(conn *dbus.Conn, logger *slog.Logger) any {
	if logger == nil {
		logger = slog.Default()
	}

	return probeHaptic(conn.BusObject(), conn.Object(HapticBusName, HapticPath), logger)
}

func probeHaptic(bus, obj busObject, logger *slog.Logger) any {
	var hasOwner bool
	err := callHaptic(bus, "org.freedesktop.DBus.NameHasOwner", HapticBusName).Store(&hasOwner)
	if err != nil {
		logger.Debug("failed to query haptic service owner", "error", err)
		return nil
	}
	if !hasOwner {
		logger.Debug("haptic service not running", "name", HapticBusName)
		return nil
	}

	node, err := introspectHaptic(obj)
	if err != nil {
		logger.Debug("failed to introspect haptic service, assuming pulses only", "error", err)
		return &UsensordPulse{obj: obj}
	}

	return deviceForNode(node, obj)
}

// introspectHaptic is introspect.Call with a deadline.
func introspectHaptic(obj busObject) (*introspect.Node, error) {
	var data string
	if err := callHaptic(obj, "org.freedesktop.DBus.Introspectable.Introspect").Store(&data); err != nil {
		return nil, err
	}
	var node introspect.Node
	if err := xml.Unmarshal([]byte(data), &node); err != nil {
		return nil, fmt.Errorf("invalid introspection data: %w", err)
	}
	return &node, nil
}

// deviceForNode selects the device variant from introspection data.
func deviceForNode(node *introspect.Node, obj busObject) any {
	var pattern, pulse bool
	for _, iface := range node.Interfaces {
		if iface.Name != HapticInterface {
			continue
		}
		for _, m := range iface.Methods {
			switch {
			case strings.EqualFold(m.Name, "VibratePattern"):
				pattern = true
			case strings.EqualFold(m.Name, "Vibrate"):
				pulse = true
			}
		}
	}

	switch {
	case pattern:
		return &UsensordPattern{obj: obj}
	case pulse:
		return &UsensordPulse{obj: obj}
	default:
		return nil
	}
}
