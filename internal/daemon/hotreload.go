package daemon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/ringd/internal/config"
	"github.com/jmylchreest/ringd/internal/ringer"
)

// ConfigWatcher watches the config file for changes and validates new configs.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	files  *FileWatcher

	configPath string

	// Current valid config
	currentConfig *config.Config

	onReloadCallback func(newConfig *config.Config)
	onErrorCallback  func(err error)
}

// NewConfigWatcher creates a ConfigWatcher for the config file at configPath.
func NewConfigWatcher(configPath string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &ConfigWatcher{
		logger:     logger,
		configPath: configPath,
		files:      NewFileWatcher(configPath, logger),
	}
	w.files.SetChangeCallback(w.reload)
	return w
}

// SetReloadCallback sets the callback to invoke when config is successfully reloaded.
func (w *ConfigWatcher) SetReloadCallback(callback func(newConfig *config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReloadCallback = callback
}

// SetErrorCallback sets the callback to invoke when config reload fails validation.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = callback
}

// Start begins watching the config file for changes.
func (w *ConfigWatcher) Start(ctx context.Context, initialConfig *config.Config) error {
	w.mu.Lock()
	w.currentConfig = initialConfig
	w.mu.Unlock()

	return w.files.Start(ctx)
}

// Stop stops watching the config file.
func (w *ConfigWatcher) Stop() {
	if err := w.files.Stop(); err != nil {
		w.logger.Debug("failed to close config watcher", "error", err)
	}
}

// GetCurrentConfig returns the current valid configuration.
func (w *ConfigWatcher) GetCurrentConfig() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentConfig
}

// reload loads and validates the config file. Invalid configs are reported
// and the current config is kept.
func (w *ConfigWatcher) reload() {
	w.mu.RLock()
	reloadCallback := w.onReloadCallback
	errorCallback := w.onErrorCallback
	w.mu.RUnlock()

	newConfig, err := config.LoadConfig(w.configPath)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "path", w.configPath, "error", err)
		if errorCallback != nil {
			errorCallback(err)
		}
		return
	}

	w.mu.Lock()
	w.currentConfig = newConfig
	w.mu.Unlock()

	w.logger.Info("config reloaded successfully", "path", w.configPath)
	if reloadCallback != nil {
		reloadCallback(newConfig)
	}
}

// StateWatcher watches the persisted ringer state written by ringctl mode.
type StateWatcher struct {
	mu     sync.Mutex
	logger *slog.Logger
	files  *FileWatcher
	source ringer.Source

	lastMode ringer.Mode
	onChange func(mode ringer.Mode)
}

// NewStateWatcher creates a StateWatcher for the state file at statePath.
// source reports the effective mode after each change.
func NewStateWatcher(statePath string, source ringer.Source, logger *slog.Logger) *StateWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &StateWatcher{
		logger: logger,
		files:  NewFileWatcher(statePath, logger),
		source: source,
	}
	w.files.SetChangeCallback(w.check)
	return w
}

// SetChangeCallback sets the callback to invoke when the ringer mode changes.
func (w *StateWatcher) SetChangeCallback(callback func(mode ringer.Mode)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Start begins watching the state file.
func (w *StateWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	w.lastMode = w.source.Mode()
	w.mu.Unlock()

	return w.files.Start(ctx)
}

// Stop stops watching the state file.
func (w *StateWatcher) Stop() {
	if err := w.files.Stop(); err != nil {
		w.logger.Debug("failed to close state watcher", "error", err)
	}
}

// check reports a mode change, ignoring writes that leave the mode as is.
func (w *StateWatcher) check() {
	mode := w.source.Mode()

	w.mu.Lock()
	changed := mode != w.lastMode
	w.lastMode = mode
	callback := w.onChange
	w.mu.Unlock()

	if !changed {
		return
	}
	w.logger.Info("ringer mode changed", "mode", mode)
	if callback != nil {
		callback(mode)
	}
}
