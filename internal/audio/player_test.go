//go:build cgo

package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ringd/internal/ringtone"
)

func TestBeepBackend_DecodesBundledDefault(t *testing.T) {
	bundle := ringtone.NewBundle("")
	uri, err := bundle.Lookup(ringtone.DefaultName)
	require.NoError(t, err)

	b, err := NewBeepBackend(bundle, nil)
	require.NoError(t, err)
	assert.True(t, b.SupportsLooping())

	require.NoError(t, b.Preload(uri))
	assert.True(t, b.cached(uri))

	rt, err := b.Open(uri)
	require.NoError(t, err)
	assert.NotNil(t, rt)

	b.InvalidateCache(uri)
	assert.False(t, b.cached(uri))
}

func TestBeepBackend_UnsupportedFormat(t *testing.T) {
	b, err := NewBeepBackend(memOpener{"bundled:ring.flac": "fLaC"}, nil)
	require.NoError(t, err)

	_, err = b.Open(ringtone.BundledURI("ring.flac"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestBeepBackend_Volume(t *testing.T) {
	b, err := NewBeepBackend(memOpener{}, nil)
	require.NoError(t, err)

	b.SetVolume(1.5)
	assert.Equal(t, 1.0, b.GetVolume())
	b.SetVolume(-1)
	assert.Equal(t, 0.0, b.GetVolume())
	assert.Equal(t, -1.0, volumeToExponent(0.5))
}
