package audio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/ringd/internal/config"
	"github.com/jmylchreest/ringd/internal/haptic"
	"github.com/jmylchreest/ringd/internal/model"
	"github.com/jmylchreest/ringd/internal/ringer"
	"github.com/jmylchreest/ringd/internal/ringtone"
)

// StopReason says why a ringing session ended.
type StopReason string

const (
	StopReasonStopped   StopReason = "stopped"
	StopReasonDestroyed StopReason = "destroyed"
	StopReasonScreenOff StopReason = "screen-off"
	StopReasonReplaced  StopReason = "replaced"
)

// Resolver maps a requested ringtone name to a playable URI.
type Resolver interface {
	Resolve(name string) ringtone.Resolution
}

// EventSource delivers named system events.
type EventSource interface {
	Subscribe(event string, fn func()) (uint64, error)
	Unsubscribe(id uint64) error
}

// preloader is implemented by backends that cache decoded audio.
type preloader interface {
	Preload(uri ringtone.URI) error
}

// starter is implemented by backends with background work.
type starter interface {
	Start(ctx context.Context) error
}

// Deps are the collaborators of a Manager. Any of them may be nil, which
// disables the matching part of a session.
type Deps struct {
	Resolver Resolver
	Backend  Backend
	// Vibrators returns the vibration driver for a new session.
	Vibrators func() haptic.Vibrator
	Ringer    ringer.Source
	Events    EventSource
}

// session holds the handles of one ringing call.
type session struct {
	id       string
	uri      ringtone.URI
	ringtone Ringtone
	vibrator haptic.Vibrator

	listener   uint64
	subscribed bool
}

// Manager controls the single ringing session: ringtone, vibration and the
// screen-off listener.
type Manager struct {
	mu     sync.Mutex
	logger *slog.Logger
	deps   Deps
	config *config.Config

	current *session
	onStop  func(StopReason)
	closed  bool
}

// NewManager creates a session controller.
func NewManager(cfg *config.Config, deps Deps, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.Ringer == nil {
		deps.Ringer = ringer.Static(ringer.ModeNormal)
	}
	if deps.Backend != nil {
		deps.Backend.SetVolume(cfg.VolumeFraction())
	}

	return &Manager{
		logger: logger,
		deps:   deps,
		config: cfg,
	}
}

// Start starts backend background work and preloads the default ringtone.
func (m *Manager) Start(ctx context.Context) error {
	if s, ok := m.deps.Backend.(starter); ok {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}

	if p, ok := m.deps.Backend.(preloader); ok && m.deps.Resolver != nil {
		res := m.deps.Resolver.Resolve("")
		if res.Found() {
			if err := p.Preload(res.URI); err != nil {
				m.logger.Warn("failed to preload default ringtone", "uri", res.URI, "error", err)
			}
		}
	}

	m.logger.Debug("ringer manager started")
	return nil
}

// SetStopHandler registers fn to run after a session is torn down.
// fn is called without the manager lock held.
func (m *Manager) SetStopHandler(fn func(StopReason)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStop = fn
}

// UpdateConfig applies a reloaded configuration to the next session.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	if m.deps.Backend != nil {
		m.deps.Backend.SetVolume(cfg.VolumeFraction())
	}
	m.logger.Debug("ringer config updated")
}

// Playing reports whether a session is active.
func (m *Manager) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Play starts ringing for a call, replacing any session already active.
// Failures are logged; Play never fails.
func (m *Manager) Play(params model.Params) {
	m.mu.Lock()
	closed := m.closed
	cfg := m.config
	m.mu.Unlock()
	if closed {
		m.logger.Warn("ignoring play request after destroy")
		return
	}

	// Reading the ringer mode and probing the haptic service can block on
	// the bus, so both happen before the session lock is taken.
	mode := m.deps.Ringer.Mode()
	var vibrator haptic.Vibrator
	if cfg.Vibration.Enabled && mode.AllowsVibration() && m.deps.Vibrators != nil {
		vibrator = m.deps.Vibrators()
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.logger.Warn("ignoring play request after destroy")
		return
	}

	prev := m.current
	if prev != nil {
		m.teardown(prev)
		m.current = nil
	}

	m.current = m.start(params, cfg, mode, vibrator)
	handler := m.onStop
	m.mu.Unlock()

	if prev != nil && handler != nil {
		handler(StopReasonReplaced)
	}
}

// Stop ends the active session. Stopping with no session does nothing.
func (m *Manager) Stop() {
	m.stop(StopReasonStopped)
}

// Destroy ends the active session and releases the playback backend.
// The manager ignores Play afterwards.
func (m *Manager) Destroy() {
	m.stop(StopReasonDestroyed)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	if m.deps.Backend != nil {
		m.deps.Backend.Close()
	}
	m.logger.Debug("ringer manager destroyed")
}

func (m *Manager) stop(reason StopReason) {
	m.mu.Lock()
	s := m.current
	if s == nil {
		m.mu.Unlock()
		return
	}
	m.teardown(s)
	m.current = nil
	handler := m.onStop
	m.mu.Unlock()

	if handler != nil {
		handler(reason)
	}
}

// onScreenOff stops s if it is still the active session.
func (m *Manager) onScreenOff(s *session) {
	m.mu.Lock()
	if m.current != s {
		m.mu.Unlock()
		return
	}
	m.logger.Info("screen turned off, stopping ringtone", "session_id", s.id)
	m.teardown(s)
	m.current = nil
	handler := m.onStop
	m.mu.Unlock()

	if handler != nil {
		handler(StopReasonScreenOff)
	}
}

// start begins a session with a vibrator resolved by the caller, which may
// be nil. Caller holds m.mu.
func (m *Manager) start(params model.Params, cfg *config.Config, mode ringer.Mode, vibrator haptic.Vibrator) *session {
	id, err := model.NewSessionID()
	if err != nil {
		m.logger.Debug("failed to generate session id", "error", err)
	}
	s := &session{id: id}
	logger := m.logger.With("session_id", s.id)

	logger.Info("ringing",
		"caller", params.String(model.KeyCallerName, ""),
		"ringtone", params.RingtonePath(),
		"mode", mode,
	)

	if cfg.Audio.Enabled && mode.AllowsSound() {
		m.startRingtone(logger, s, params)
	} else {
		logger.Debug("ringtone muted", "audio_enabled", cfg.Audio.Enabled, "mode", mode)
	}

	if vibrator != nil {
		s.vibrator = vibrator
		waveform := haptic.IncomingCall(cfg.Vibration.On.Duration(), cfg.Vibration.Off.Duration())
		if err := s.vibrator.Vibrate(waveform); err != nil {
			logger.Warn("failed to start vibration", "error", err)
		}
	}

	if cfg.Screen.AutoStop && m.deps.Events != nil {
		listener, err := m.deps.Events.Subscribe(model.EventScreenOff, func() { m.onScreenOff(s) })
		if err != nil {
			logger.Warn("failed to listen for screen-off", "error", err)
		} else {
			s.listener = listener
			s.subscribed = true
		}
	}

	return s
}

func (m *Manager) startRingtone(logger *slog.Logger, s *session, params model.Params) {
	if m.deps.Resolver == nil || m.deps.Backend == nil {
		return
	}

	res := m.deps.Resolver.Resolve(params.RingtonePath())
	if !res.Found() {
		logger.Warn("no ringtone available, ringing silently")
		return
	}

	rt, err := m.deps.Backend.Open(res.URI)
	if err != nil {
		logger.Warn("failed to open ringtone", "uri", res.URI, "error", err)
		return
	}
	if err := rt.Play(true); err != nil {
		logger.Warn("failed to play ringtone", "uri", res.URI, "error", err)
		return
	}
	if !m.deps.Backend.SupportsLooping() {
		logger.Debug("backend cannot loop, ringtone plays once", "uri", res.URI)
	}

	s.uri = res.URI
	s.ringtone = rt
	logger.Debug("ringtone started", "uri", res.URI, "source", res.Source)
}

// teardown releases every handle of s. Caller holds m.mu.
func (m *Manager) teardown(s *session) {
	if s.ringtone != nil {
		s.ringtone.Stop()
		s.ringtone = nil
	}
	if s.vibrator != nil {
		s.vibrator.Cancel()
		s.vibrator = nil
	}
	if s.subscribed {
		if err := m.deps.Events.Unsubscribe(s.listener); err != nil {
			m.logger.Debug("screen-off listener already removed", "session_id", s.id, "error", err)
		}
		s.subscribed = false
	}
	m.logger.Debug("ringing session torn down", "session_id", s.id)
}
