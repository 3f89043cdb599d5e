package audio

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ringd/internal/ringtone"
)

type recordingCache struct {
	mu          sync.Mutex
	invalidated []ringtone.URI
}

func (c *recordingCache) InvalidateCache(uri ringtone.URI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, uri)
}

func (c *recordingCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.invalidated)
}

func TestWatcher_IgnoresBundledURIs(t *testing.T) {
	w := NewWatcher(&recordingCache{}, nil)

	w.Watch(ringtone.BundledURI("ringtone_default.wav"))

	assert.False(t, w.Watching(ringtone.BundledURI("ringtone_default.wav")))
}

func TestWatcher_InvalidatesChangedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.wav")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))
	uri := ringtone.FileURI(path)

	cache := &recordingCache{}
	w := NewWatcher(cache, nil)
	w.Watch(uri)
	require.True(t, w.Watching(uri))

	w.checkForChanges()
	assert.Zero(t, cache.count())

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	w.checkForChanges()
	assert.Equal(t, []ringtone.URI{uri}, cache.invalidated)

	w.checkForChanges()
	assert.Equal(t, 1, cache.count())

	w.Unwatch(uri)
	assert.False(t, w.Watching(uri))
}

func TestWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.wav")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))
	uri := ringtone.FileURI(path)

	cache := &recordingCache{}
	w := NewWatcher(cache, nil)
	w.SetPollInterval(10 * time.Millisecond)
	w.Watch(uri)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	assert.Eventually(t, func() bool { return cache.count() == 1 }, time.Second, 10*time.Millisecond)

	w.Stop()
	w.Stop()
	assert.False(t, w.IsRunning())
}
