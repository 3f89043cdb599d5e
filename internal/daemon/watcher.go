package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a single file and invokes a callback once a burst of
// writes to it settles.
type FileWatcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	filePath string
	debounce time.Duration
	onChange func()

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
	running bool
}

// NewFileWatcher creates a watcher for filePath.
func NewFileWatcher(filePath string, logger *slog.Logger) *FileWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{
		logger:   logger,
		filePath: filePath,
		debounce: 100 * time.Millisecond,
	}
}

// SetDebounce sets how long the file must be quiet before the callback runs.
func (fw *FileWatcher) SetDebounce(d time.Duration) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.debounce = d
}

// SetChangeCallback sets the callback to invoke when the file changes.
func (fw *FileWatcher) SetChangeCallback(callback func()) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.onChange = callback
}

// Start begins watching. The parent directory is watched rather than the
// file so atomic replacements are seen.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return nil
	}

	dir := filepath.Dir(fw.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	fw.watcher = watcher
	fw.done = make(chan struct{})
	fw.stopped = make(chan struct{})
	fw.running = true

	go fw.watch(ctx, watcher, fw.done, fw.stopped, fw.debounce)

	fw.logger.Debug("file watcher started", "path", fw.filePath)
	return nil
}

// watch is the main watch loop.
func (fw *FileWatcher) watch(ctx context.Context, watcher *fsnotify.Watcher, done <-chan struct{}, stopped chan<- struct{}, debounce time.Duration) {
	defer close(stopped)

	filename := filepath.Base(fw.filePath)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Only care about our file
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			fw.mu.Lock()
			callback := fw.onChange
			fw.mu.Unlock()

			fw.logger.Debug("watched file changed", "path", fw.filePath)
			if callback != nil {
				callback()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "path", fw.filePath, "error", err)

		case <-ctx.Done():
			return

		case <-done:
			return
		}
	}
}

// Stop stops the file watcher and waits for its loop to exit.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	close(fw.done)
	watcher, stopped := fw.watcher, fw.stopped
	fw.mu.Unlock()

	<-stopped
	fw.logger.Debug("file watcher stopped", "path", fw.filePath)
	return watcher.Close()
}
