package ringtone

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ringd/internal/config"
)

func TestCatalog_ResolveAndReload(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_DATA_DIRS", t.TempDir())

	c := NewCatalog(config.RingtoneConfig{Theme: config.DefaultTheme}, nil)

	res := c.Resolve("")
	assert.Equal(t, SourceBundledDefault, res.Source)
	assert.Equal(t, BundledURI("ringtone_default.wav"), res.URI)

	rc, err := c.Open(res.URI)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bell.ogg"), []byte("OggS"), 0o644))
	c.Reload(config.RingtoneConfig{Theme: config.DefaultTheme, BundleDir: dir})

	res = c.Resolve("bell")
	assert.Equal(t, SourceBundled, res.Source)
	assert.Equal(t, FileURI(filepath.Join(dir, "bell.ogg")), res.URI)
}

func TestCatalog_Entries(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	t.Setenv("XDG_DATA_DIRS", t.TempDir())

	stereo := filepath.Join(data, "sounds", "freedesktop", "stereo")
	require.NoError(t, os.MkdirAll(stereo, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stereo, "phone-incoming-call.oga"), []byte("12345"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(stereo, "bell.oga"), []byte("1"), 0o644))

	c := NewCatalog(config.RingtoneConfig{Theme: config.DefaultTheme}, nil)

	entries, err := c.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, DefaultName, entries[0].Name)
	assert.Equal(t, "bundled", entries[0].Source)
	assert.Positive(t, entries[0].Size)

	assert.Equal(t, "system-list", entries[1].Source)
	assert.Equal(t, filepath.Join(stereo, "bell.oga"), entries[1].Name)

	assert.Equal(t, "system-default", entries[2].Source)
	assert.Equal(t, int64(5), entries[2].Size)
}
