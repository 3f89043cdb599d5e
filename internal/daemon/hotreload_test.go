package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ringd/internal/config"
	"github.com/jmylchreest/ringd/internal/ringer"
)

func TestConfigWatcher_ReloadsValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringd", "ringd.toml")

	var mu sync.Mutex
	var reloaded *config.Config
	w := NewConfigWatcher(path, nil)
	w.files.SetDebounce(10 * time.Millisecond)
	w.SetReloadCallback(func(c *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		reloaded = c
	})

	initial := config.DefaultConfig()
	require.NoError(t, w.Start(context.Background(), initial))
	t.Cleanup(w.Stop)
	assert.Same(t, initial, w.GetCurrentConfig())

	require.NoError(t, os.WriteFile(path, []byte("[audio]\nvolume = 25\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloaded != nil && reloaded.Audio.Volume == 25
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 25, w.GetCurrentConfig().Audio.Volume)
}

func TestConfigWatcher_KeepsConfigOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringd.toml")

	errs := make(chan error, 1)
	w := NewConfigWatcher(path, nil)
	w.files.SetDebounce(10 * time.Millisecond)
	w.SetReloadCallback(func(*config.Config) { t.Error("invalid config must not be applied") })
	w.SetErrorCallback(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	initial := config.DefaultConfig()
	require.NoError(t, w.Start(context.Background(), initial))
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(path, []byte("[audio]\nvolume = 500\n"), 0o644))

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a validation error")
	}
	assert.Same(t, initial, w.GetCurrentConfig())
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ringd.toml")

	var mu sync.Mutex
	calls := 0
	fw := NewFileWatcher(path, nil)
	fw.SetDebounce(10 * time.Millisecond)
	fw.SetChangeCallback(func() {
		mu.Lock()
		defer mu.Unlock()
		calls++
	})

	require.NoError(t, fw.Start(context.Background()))
	require.NoError(t, fw.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Zero(t, calls)
	mu.Unlock()

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, fw.Stop())
	require.NoError(t, fw.Stop())
}

func TestStateWatcher_ReportsModeChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	source := ringer.NewStateSource(path, ringer.ModeNormal, nil)

	modes := make(chan ringer.Mode, 4)
	w := NewStateWatcher(path, source, nil)
	w.files.SetDebounce(10 * time.Millisecond)
	w.SetChangeCallback(func(m ringer.Mode) { modes <- m })

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	state := ringer.DefaultState()
	state.SetMode(ringer.ModeSilent, "test")
	require.NoError(t, ringer.SaveState(path, state))

	select {
	case m := <-modes:
		assert.Equal(t, ringer.ModeSilent, m)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a mode change")
	}
}
