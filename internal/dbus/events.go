package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/ringd/internal/model"
)

var (
	// ErrNotRegistered is returned when unsubscribing an unknown subscription.
	ErrNotRegistered = errors.New("subscription not registered")
	// ErrUnknownEvent is returned when subscribing to an unmapped event name.
	ErrUnknownEvent = errors.New("unknown system event")
)

// signalRule maps a D-Bus signal to a named system event.
type signalRule struct {
	iface  string
	member string
	match  func(body []any) bool
}

// name returns the fully qualified signal name.
func (r signalRule) name() string {
	return r.iface + "." + r.member
}

// firstArgTrue matches signals whose first argument is boolean true.
func firstArgTrue(body []any) bool {
	if len(body) == 0 {
		return false
	}
	b, ok := body[0].(bool)
	return ok && b
}

// eventRules lists the signals that deliver each system event.
var eventRules = map[string][]signalRule{
	model.EventScreenOff: {
		{iface: "org.freedesktop.ScreenSaver", member: "ActiveChanged", match: firstArgTrue},
		{iface: "org.gnome.ScreenSaver", member: "ActiveChanged", match: firstArgTrue},
	},
}

// EventBus delivers named system events to subscribed callbacks.
// Callbacks run on the signal delivery goroutine.
type EventBus struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	logger *slog.Logger

	nextID   uint64
	handlers map[string]map[uint64]func()
	events   map[uint64]string

	signals chan *dbus.Signal
	done    chan struct{}
}

// NewEventBus creates an EventBus. Call Start to receive signals from the
// session bus; without it, events are only delivered through Dispatch.
func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		logger:   logger,
		handlers: make(map[string]map[uint64]func()),
		events:   make(map[uint64]string),
	}
}

// Start connects to the session bus and begins delivering signals.
func (b *EventBus) Start() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return b.StartWithConn(conn)
}

// StartWithConn begins delivering signals received on conn.
func (b *EventBus) StartWithConn(conn *dbus.Conn) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return errors.New("event bus already started")
	}
	b.conn = conn
	b.signals = make(chan *dbus.Signal, 16)
	b.done = make(chan struct{})
	conn.Signal(b.signals)

	// Events subscribed before Start still need their match rules
	for event := range b.handlers {
		if err := b.addMatch(event); err != nil {
			b.logger.Warn("failed to add signal match", "event", event, "error", err)
		}
	}

	go b.processSignals(b.signals, b.done)

	b.logger.Debug("event bus started")
	return nil
}

// Stop stops signal delivery. The shared session connection stays open.
func (b *EventBus) Stop() {
	b.mu.Lock()
	conn, ch, done := b.conn, b.signals, b.done
	b.conn, b.signals, b.done = nil, nil, nil
	b.mu.Unlock()

	if conn == nil {
		return
	}
	conn.RemoveSignal(ch)
	close(ch)
	<-done
	b.logger.Debug("event bus stopped")
}

// Subscribe registers fn for the named event and returns a subscription id.
func (b *EventBus) Subscribe(event string, fn func()) (uint64, error) {
	if _, ok := eventRules[event]; !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	if fn == nil {
		return 0, errors.New("nil event callback")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.handlers[event]) == 0 && b.conn != nil {
		if err := b.addMatch(event); err != nil {
			return 0, err
		}
	}

	b.nextID++
	id := b.nextID
	if b.handlers[event] == nil {
		b.handlers[event] = make(map[uint64]func())
	}
	b.handlers[event][id] = fn
	b.events[id] = event

	b.logger.Debug("subscribed to system event", "event", event, "subscription", id)
	return id, nil
}

// Unsubscribe removes a subscription. Returns ErrNotRegistered if the id is
// unknown or was already removed.
func (b *EventBus) Unsubscribe(id uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	event, ok := b.events[id]
	if !ok {
		return ErrNotRegistered
	}
	delete(b.events, id)
	delete(b.handlers[event], id)

	if len(b.handlers[event]) == 0 {
		delete(b.handlers, event)
		if b.conn != nil {
			b.removeMatch(event)
		}
	}

	b.logger.Debug("unsubscribed from system event", "event", event, "subscription", id)
	return nil
}

// Subscribers returns the number of callbacks registered for event.
func (b *EventBus) Subscribers(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[event])
}

// addMatch installs the match rules for event. Caller holds b.mu.
func (b *EventBus) addMatch(event string) error {
	for _, rule := range eventRules[event] {
		err := b.conn.AddMatchSignal(
			dbus.WithMatchInterface(rule.iface),
			dbus.WithMatchMember(rule.member),
		)
		if err != nil {
			return fmt.Errorf("failed to add match for %s: %w", rule.name(), err)
		}
	}
	return nil
}

// removeMatch removes the match rules for event. Caller holds b.mu.
func (b *EventBus) removeMatch(event string) {
	for _, rule := range eventRules[event] {
		err := b.conn.RemoveMatchSignal(
			dbus.WithMatchInterface(rule.iface),
			dbus.WithMatchMember(rule.member),
		)
		if err != nil {
			b.logger.Debug("failed to remove signal match", "signal", rule.name(), "error", err)
		}
	}
}

// processSignals reads signals until the channel is closed.
func (b *EventBus) processSignals(ch <-chan *dbus.Signal, done chan<- struct{}) {
	defer close(done)
	for sig := range ch {
		b.Dispatch(sig)
	}
}

// Dispatch delivers sig to the subscribers of every event it matches.
func (b *EventBus) Dispatch(sig *dbus.Signal) {
	if sig == nil {
		return
	}

	for event, rules := range eventRules {
		for _, rule := range rules {
			if sig.Name != rule.name() || !rule.match(sig.Body) {
				continue
			}

			b.mu.Lock()
			callbacks := make([]func(), 0, len(b.handlers[event]))
			for _, fn := range b.handlers[event] {
				callbacks = append(callbacks, fn)
			}
			b.mu.Unlock()

			b.logger.Debug("system event received", "event", event, "signal", sig.Name, "subscribers", len(callbacks))

			// Callbacks may unsubscribe, so they run without the lock held
			for _, fn := range callbacks {
				fn()
			}
			break
		}
	}
}
