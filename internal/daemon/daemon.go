package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/ringd/internal/audio"
	"github.com/jmylchreest/ringd/internal/config"
	"github.com/jmylchreest/ringd/internal/dbus"
	"github.com/jmylchreest/ringd/internal/haptic"
	"github.com/jmylchreest/ringd/internal/ringer"
	"github.com/jmylchreest/ringd/internal/ringtone"
)

// Options locate the files the daemon reads.
type Options struct {
	ConfigPath string
	StatePath  string
}

// Daemon wires the ringer session controller to the session bus.
type Daemon struct {
	mu     sync.RWMutex
	logger *slog.Logger
	opts   Options
	cfg    *config.Config

	catalog *ringtone.Catalog
	manager *audio.Manager
	events  *dbus.EventBus
	server  *dbus.RingerServer
	conn    *godbus.Conn

	configWatcher *ConfigWatcher
	stateWatcher  *StateWatcher
}

// New builds a daemon from cfg. Nothing touches the session bus until Run.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Daemon{
		logger: logger,
		opts:   opts,
		cfg:    cfg,
		events: dbus.NewEventBus(logger),
		server: dbus.NewRingerServer(logger),
	}

	d.catalog = ringtone.NewCatalog(cfg.Ringtone, logger)

	backend, err := audio.NewBackend(cfg.Audio, d.catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio backend: %w", err)
	}

	d.manager = audio.NewManager(cfg, audio.Deps{
		Resolver:  d.catalog,
		Backend:   backend,
		Vibrators: d.vibrator,
		Ringer:    &modeSource{d: d},
		Events:    d.events,
	}, logger)

	return d, nil
}

// Manager returns the session controller.
func (d *Daemon) Manager() *audio.Manager {
	return d.manager
}

func (d *Daemon) config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// vibrator resolves the haptic capability for a new session.
func (d *Daemon) vibrator() haptic.Vibrator {
	cfg := d.config()
	if cfg.Vibration.Backend == config.BackendNone {
		return haptic.Noop{}
	}

	d.mu.RLock()
	conn := d.conn
	d.mu.RUnlock()
	if conn == nil {
		return haptic.Noop{}
	}

	dev := dbus.ProbeHaptic(conn, d.logger)
	d.logger.Debug("haptic capability resolved", "capability", haptic.CapabilityOf(dev))
	return haptic.NewVibrator(dev, d.logger)
}

// modeSource reads the persisted ringer mode, falling back to the mode in
// the current config.
type modeSource struct {
	d *Daemon
}

// Mode implements ringer.Source.
func (s *modeSource) Mode() ringer.Mode {
	fallback, err := ringer.ParseMode(s.d.config().Ringer.Mode)
	if err != nil {
		fallback = ringer.ModeNormal
	}
	return ringer.NewStateSource(s.d.opts.StatePath, fallback, s.d.logger).Mode()
}

// applyConfig applies a reloaded config to the next session.
func (d *Daemon) applyConfig(newConfig *config.Config) {
	d.mu.Lock()
	old := d.cfg
	d.cfg = newConfig
	d.mu.Unlock()

	if old.Audio.Backend != newConfig.Audio.Backend {
		d.logger.Warn("audio backend change takes effect after restart",
			"current", old.Audio.Backend, "configured", newConfig.Audio.Backend)
	}

	d.catalog.Reload(newConfig.Ringtone)
	d.manager.UpdateConfig(newConfig)
}

// Run connects to the session bus, serves requests until ctx is cancelled
// and then shuts everything down.
func (d *Daemon) Run(ctx context.Context) error {
	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer func() { _ = conn.Close() }()

	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()

	if err := d.events.StartWithConn(conn); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	defer d.events.Stop()

	d.server.SetPlayHandler(d.manager.Play)
	d.server.SetStopHandler(d.manager.Stop)
	d.server.SetStatusHandler(d.manager.Playing)

	d.manager.SetStopHandler(func(reason audio.StopReason) {
		if err := d.server.EmitStopped(string(reason)); err != nil {
			d.logger.Debug("failed to emit stopped signal", "reason", reason, "error", err)
		}
	})

	if err := d.server.StartWithConn(conn); err != nil {
		return err
	}
	defer func() {
		if err := d.server.Stop(); err != nil {
			d.logger.Warn("error stopping D-Bus server", "error", err)
		}
	}()

	if err := d.manager.Start(ctx); err != nil {
		d.logger.Warn("failed to start ringer manager", "error", err)
	}
	// Destroy runs before the server releases its name so the final
	// Stopped signal can still be emitted.
	defer d.manager.Destroy()

	d.startWatchers(ctx)
	defer d.stopWatchers()

	d.logger.Info("ringd ready", "dbus_interface", dbus.DBusInterface)

	<-ctx.Done()
	d.logger.Info("shutting down")
	return nil
}

func (d *Daemon) startWatchers(ctx context.Context) {
	if d.opts.ConfigPath != "" {
		d.configWatcher = NewConfigWatcher(d.opts.ConfigPath, d.logger)
		d.configWatcher.SetReloadCallback(d.applyConfig)
		d.configWatcher.SetErrorCallback(func(err error) {
			d.logger.Warn("keeping previous config", "error", err)
		})
		if err := d.configWatcher.Start(ctx, d.config()); err != nil {
			d.logger.Warn("failed to start config watcher", "error", err)
			d.configWatcher = nil
		}
	}

	if d.opts.StatePath != "" {
		d.stateWatcher = NewStateWatcher(d.opts.StatePath, &modeSource{d: d}, d.logger)
		if err := d.stateWatcher.Start(ctx); err != nil {
			d.logger.Warn("failed to start state watcher", "error", err)
			d.stateWatcher = nil
		}
	}
}

func (d *Daemon) stopWatchers() {
	if d.configWatcher != nil {
		d.configWatcher.Stop()
	}
	if d.stateWatcher != nil {
		d.stateWatcher.Stop()
	}
}
