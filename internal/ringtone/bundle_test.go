package ringtone

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDefaultRingtone(t *testing.T) {
	b := NewBundle("")

	uri, err := b.Lookup(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, BundledURI("ringtone_default.wav"), uri)

	rc, err := b.Open(uri)
	require.NoError(t, err)
	defer rc.Close()

	header := make([]byte, 4)
	_, err = io.ReadFull(rc, header)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(header))

	assert.Contains(t, b.Names(), DefaultName)
}

func TestBundle_Lookup(t *testing.T) {
	fsys := fstest.MapFS{
		"bell.ogg":   {Data: []byte("ogg")},
		"chime.mp3":  {Data: []byte("mp3")},
		"readme.txt": {Data: []byte("not audio")},
	}
	b := newBundleFS(fsys, "")

	tests := []struct {
		name     string
		expected URI
		wantErr  bool
	}{
		{"bell", BundledURI("bell.ogg"), false},
		{"bell.ogg", BundledURI("bell.ogg"), false},
		{"chime", BundledURI("chime.mp3"), false},
		{"readme", "", true},
		{"missing", "", true},
		{"", "", true},
		{"../bell", "", true},
		{"sub/bell", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := b.Lookup(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, uri)
		})
	}
}

func TestBundle_UserDirOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ringtone_default.ogg")
	require.NoError(t, os.WriteFile(path, []byte("custom"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "office.wav"), []byte("wav"), 0644))

	b := NewBundle(dir)

	uri, err := b.Lookup(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, FileURI(path), uri)

	rc, err := b.Open(uri)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "custom", string(data))

	assert.Equal(t, []string{"office", "ringtone_default"}, b.Names())
}

func TestBundle_MissingUserDirFallsBackToEmbedded(t *testing.T) {
	b := NewBundle(filepath.Join(t.TempDir(), "does-not-exist"))

	uri, err := b.Lookup(DefaultName)
	require.NoError(t, err)
	assert.True(t, uri.IsBundled())
}

func TestBundle_Open(t *testing.T) {
	b := NewBundle("")

	_, err := b.Open(BundledURI("nope.wav"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = b.Open(FileURI("/definitely/not/here.ogg"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = b.Open(URI("content://media/1"))
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestURI(t *testing.T) {
	b := BundledURI("bell.OGG")
	assert.True(t, b.IsBundled())
	assert.False(t, b.IsFile())
	assert.Equal(t, "bell.OGG", b.Path())
	assert.Equal(t, ".ogg", b.Ext())
	assert.NoError(t, b.Validate())

	f := FileURI("/a/../b/c.wav")
	assert.True(t, f.IsFile())
	assert.Equal(t, "/b/c.wav", f.Path())
	assert.Equal(t, "file:///b/c.wav", f.String())

	assert.Error(t, URI("bundled:").Validate())
	assert.Error(t, URI("http://example.com/a.wav").Validate())
}
