package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/ringd/internal/model"
)

const (
	// DBusInterface is the ringer control interface name.
	DBusInterface = "io.github.jmylchreest.Ringd"
	// DBusPath is the ringer control object path.
	DBusPath = "/io/github/jmylchreest/Ringd"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.Ringd"
)

// PlayHandler is called when a host asks to start ringing.
type PlayHandler func(params model.Params)

// StopHandler is called when a host asks to stop ringing.
type StopHandler func()

// StatusHandler reports whether a ringing session is active.
type StatusHandler func() bool

// RingerServer implements the io.github.jmylchreest.Ringd D-Bus interface.
type RingerServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	// Handlers
	playHandler   PlayHandler
	stopHandler   StopHandler
	statusHandler StatusHandler

	mu      sync.RWMutex
	running bool
}

// NewRingerServer creates a new RingerServer.
func NewRingerServer(logger *slog.Logger) *RingerServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RingerServer{logger: logger}
}

// SetPlayHandler sets the handler called by Play.
func (s *RingerServer) SetPlayHandler(handler PlayHandler) {
	s.playHandler = handler
}

// SetStopHandler sets the handler called by Stop.
func (s *RingerServer) SetStopHandler(handler StopHandler) {
	s.stopHandler = handler
}

// SetStatusHandler sets the handler called by Playing.
func (s *RingerServer) SetStatusHandler(handler StatusHandler) {
	s.statusHandler = handler
}

// Start connects to the session bus and exports the ringer service.
func (s *RingerServer) Start() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return s.StartWithConn(conn)
}

// StartWithConn exports the ringer service on conn.
func (s *RingerServer) StartWithConn(conn *dbus.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}
	s.conn = conn

	// The Go Stop method manages the server lifecycle, so the D-Bus Stop
	// method is backed by StopRinging.
	mapping := map[string]string{"StopRinging": "Stop"}
	if err := conn.ExportWithMap(s, mapping, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: ringerMethods(),
				Signals: ringerSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.running = true
	s.logger.Info("D-Bus ringer server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *RingerServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus ringer server stopped")
	return nil
}

// Play starts ringing with the given parameters.
// D-Bus method: Play(a{sv}) -> nothing
func (s *RingerServer) Play(params map[string]dbus.Variant) *dbus.Error {
	p := model.ParamsFromVariants(params)
	s.logger.Debug("Play called", "ringtone", p.RingtonePath())

	if s.playHandler != nil {
		s.playHandler(p)
	}
	return nil
}

// StopRinging stops the active ringing session.
// D-Bus method: Stop() -> nothing
func (s *RingerServer) StopRinging() *dbus.Error {
	s.logger.Debug("Stop called")

	if s.stopHandler != nil {
		s.stopHandler()
	}
	return nil
}

// Playing reports whether a ringing session is active.
// D-Bus method: Playing() -> b
func (s *RingerServer) Playing() (bool, *dbus.Error) {
	if s.statusHandler == nil {
		return false, nil
	}
	return s.statusHandler(), nil
}

// ringerMethods returns the D-Bus method introspection data.
func ringerMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Play",
			Args: []introspect.Arg{
				{Name: "params", Type: "a{sv}", Direction: "in"},
			},
		},
		{
			Name: "Stop",
		},
		{
			Name: "Playing",
			Args: []introspect.Arg{
				{Name: "playing", Type: "b", Direction: "out"},
			},
		},
	}
}

// ringerSignals returns the D-Bus signal introspection data.
func ringerSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "Stopped",
			Args: []introspect.Arg{
				{Name: "reason", Type: "s"},
			},
		},
	}
}
