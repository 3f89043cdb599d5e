package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/ringd/internal/ringtone"
)

// cacheInvalidator drops decoded audio for a URI.
type cacheInvalidator interface {
	InvalidateCache(uri ringtone.URI)
}

// Watcher polls ringtone files for changes and invalidates decoded buffers.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	cache  cacheInvalidator

	// URIs to watch with their last modification times
	watched map[ringtone.URI]time.Time

	pollInterval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a new ringtone file watcher.
func NewWatcher(cache cacheInvalidator, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		cache:        cache,
		watched:      make(map[ringtone.URI]time.Time),
		pollInterval: 2 * time.Second,
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// Watch adds a file URI to the watch list. Bundled URIs never change.
func (w *Watcher) Watch(uri ringtone.URI) {
	if !uri.IsFile() {
		return
	}

	var modTime time.Time
	if info, err := os.Stat(uri.Path()); err == nil {
		modTime = info.ModTime()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.watched[uri] = modTime
}

// Unwatch removes a URI from the watch list.
func (w *Watcher) Unwatch(uri ringtone.URI) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.watched, uri)
}

// Watching reports whether uri is on the watch list.
func (w *Watcher) Watching(uri ringtone.URI) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.watched[uri]
	return ok
}

// Start begins polling. Calling Start on a running watcher does nothing.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval, w.stopCh, w.doneCh)

	w.logger.Debug("ringtone watcher started", "interval", interval)
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.logger.Debug("ringtone watcher stopped")
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges invalidates every watched file whose mtime moved forward.
func (w *Watcher) checkForChanges() {
	w.mu.RLock()
	snapshot := make(map[ringtone.URI]time.Time, len(w.watched))
	maps.Copy(snapshot, w.watched)
	w.mu.RUnlock()

	for uri, lastModTime := range snapshot {
		info, err := os.Stat(uri.Path())
		if err != nil {
			continue
		}

		modTime := info.ModTime()
		if !modTime.After(lastModTime) {
			continue
		}

		w.logger.Debug("ringtone file changed, invalidating cache", "uri", uri)

		w.mu.Lock()
		w.watched[uri] = modTime
		w.mu.Unlock()

		if w.cache != nil {
			w.cache.InvalidateCache(uri)
		}
	}
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
