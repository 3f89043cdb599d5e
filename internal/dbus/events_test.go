package dbus

import (
	"sync/atomic"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ringd/internal/model"
)

func screenSaverSignal(iface string, active bool) *dbus.Signal {
	return &dbus.Signal{
		Name: iface + ".ActiveChanged",
		Body: []any{active},
	}
}

func TestEventBus_DeliversScreenOff(t *testing.T) {
	bus := NewEventBus(nil)

	var calls atomic.Int32
	id, err := bus.Subscribe(model.EventScreenOff, func() { calls.Add(1) })
	require.NoError(t, err)
	assert.Equal(t, 1, bus.Subscribers(model.EventScreenOff))

	bus.Dispatch(screenSaverSignal("org.freedesktop.ScreenSaver", true))
	bus.Dispatch(screenSaverSignal("org.gnome.ScreenSaver", true))
	assert.Equal(t, int32(2), calls.Load())

	require.NoError(t, bus.Unsubscribe(id))
	assert.Equal(t, 0, bus.Subscribers(model.EventScreenOff))

	bus.Dispatch(screenSaverSignal("org.freedesktop.ScreenSaver", true))
	assert.Equal(t, int32(2), calls.Load())
}

func TestEventBus_IgnoresUnrelatedSignals(t *testing.T) {
	bus := NewEventBus(nil)

	var calls atomic.Int32
	_, err := bus.Subscribe(model.EventScreenOff, func() { calls.Add(1) })
	require.NoError(t, err)

	bus.Dispatch(nil)
	bus.Dispatch(screenSaverSignal("org.freedesktop.ScreenSaver", false))
	bus.Dispatch(&dbus.Signal{Name: "org.freedesktop.ScreenSaver.ActiveChanged"})
	bus.Dispatch(&dbus.Signal{Name: "org.freedesktop.ScreenSaver.ActiveChanged", Body: []any{"yes"}})
	bus.Dispatch(&dbus.Signal{Name: "org.freedesktop.Notifications.NotificationClosed", Body: []any{true}})

	assert.Equal(t, int32(0), calls.Load())
}

func TestEventBus_UnsubscribeUnknown(t *testing.T) {
	bus := NewEventBus(nil)

	assert.ErrorIs(t, bus.Unsubscribe(42), ErrNotRegistered)

	id, err := bus.Subscribe(model.EventScreenOff, func() {})
	require.NoError(t, err)
	require.NoError(t, bus.Unsubscribe(id))
	assert.ErrorIs(t, bus.Unsubscribe(id), ErrNotRegistered)
}

func TestEventBus_SubscribeValidation(t *testing.T) {
	bus := NewEventBus(nil)

	_, err := bus.Subscribe("lid-closed", func() {})
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = bus.Subscribe(model.EventScreenOff, nil)
	assert.Error(t, err)
}

func TestEventBus_CallbackMayUnsubscribe(t *testing.T) {
	bus := NewEventBus(nil)

	var id uint64
	var calls atomic.Int32
	id, err := bus.Subscribe(model.EventScreenOff, func() {
		calls.Add(1)
		_ = bus.Unsubscribe(id)
	})
	require.NoError(t, err)

	bus.Dispatch(screenSaverSignal("org.freedesktop.ScreenSaver", true))
	bus.Dispatch(screenSaverSignal("org.freedesktop.ScreenSaver", true))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, bus.Subscribers(model.EventScreenOff))
}

func TestEventBus_StopWithoutStart(t *testing.T) {
	bus := NewEventBus(nil)
	assert.NotPanics(t, bus.Stop)
}
