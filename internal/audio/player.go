//go:build cgo

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/jmylchreest/ringd/internal/ringtone"
)

// BeepBackend plays ringtones through the beep speaker.
type BeepBackend struct {
	mu     sync.Mutex
	logger *slog.Logger
	opener Opener

	// Volume control (0.0 to 1.0)
	volume float64

	// Whether speaker has been initialized
	initialized bool

	// Sample rate for the speaker
	sampleRate beep.SampleRate

	// Decoded ringtone cache
	cache      map[ringtone.URI]*beep.Buffer
	cacheMutex sync.RWMutex

	watcher *Watcher
}

// NewBeepBackend creates a new beep playback backend.
func NewBeepBackend(opener Opener, logger *slog.Logger) (*BeepBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opener == nil {
		return nil, fmt.Errorf("beep backend needs an opener")
	}

	b := &BeepBackend{
		logger:     logger,
		opener:     opener,
		volume:     1.0,
		sampleRate: beep.SampleRate(44100),
		cache:      make(map[ringtone.URI]*beep.Buffer),
	}
	b.watcher = NewWatcher(b, logger)
	return b, nil
}

// Start begins watching cached ringtone files for changes.
func (b *BeepBackend) Start(ctx context.Context) error {
	return b.watcher.Start(ctx)
}

// SupportsLooping implements Backend.
func (b *BeepBackend) SupportsLooping() bool {
	return true
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (b *BeepBackend) SetVolume(volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = clampVolume(volume)
	b.logger.Debug("volume set", "volume", b.volume)
}

// GetVolume returns the current volume.
func (b *BeepBackend) GetVolume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

// Open implements Backend. The ringtone is decoded, or taken from the cache.
func (b *BeepBackend) Open(uri ringtone.URI) (Ringtone, error) {
	buffer, err := b.buffer(uri)
	if err != nil {
		return nil, &PlaybackError{URI: uri, Op: "open", Err: err}
	}
	return &beepRingtone{backend: b, uri: uri, buffer: buffer}, nil
}

// Preload decodes a ringtone into the cache for faster playback.
func (b *BeepBackend) Preload(uri ringtone.URI) error {
	_, err := b.buffer(uri)
	if err == nil {
		b.logger.Debug("preloaded ringtone", "uri", uri)
	}
	return err
}

// buffer returns the cached buffer for uri, decoding it on a miss.
func (b *BeepBackend) buffer(uri ringtone.URI) (*beep.Buffer, error) {
	b.cacheMutex.RLock()
	cached, ok := b.cache[uri]
	b.cacheMutex.RUnlock()
	if ok {
		return cached, nil
	}

	buffer, err := b.decode(uri)
	if err != nil {
		return nil, err
	}

	b.cacheMutex.Lock()
	b.cache[uri] = buffer
	b.cacheMutex.Unlock()

	if uri.IsFile() {
		b.watcher.Watch(uri)
	}
	return buffer, nil
}

// decode loads and decodes a ringtone into a buffer.
func (b *BeepBackend) decode(uri ringtone.URI) (*beep.Buffer, error) {
	rc, err := b.opener.Open(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open ringtone: %w", err)
	}
	defer func() { _ = rc.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch uri.Ext() {
	case ".wav":
		streamer, format, err = wav.Decode(rc)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(rc)
	case ".mp3":
		streamer, format, err = mp3.Decode(rc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, uri.Ext())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode ringtone: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}

// ensureInitialized initializes the speaker if not already done.
func (b *BeepBackend) ensureInitialized(sampleRate beep.SampleRate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	// Use a reasonable buffer size for low latency
	bufferSize := sampleRate.N(time.Millisecond * 100)

	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	b.sampleRate = sampleRate
	b.initialized = true
	b.logger.Debug("speaker initialized", "sample_rate", sampleRate)
	return nil
}

// InvalidateCache removes a ringtone from the cache.
func (b *BeepBackend) InvalidateCache(uri ringtone.URI) {
	b.cacheMutex.Lock()
	defer b.cacheMutex.Unlock()
	delete(b.cache, uri)
}

// ClearCache clears the ringtone cache.
func (b *BeepBackend) ClearCache() {
	b.cacheMutex.Lock()
	defer b.cacheMutex.Unlock()
	b.cache = make(map[ringtone.URI]*beep.Buffer)
	b.logger.Debug("ringtone cache cleared")
}

// cached reports whether uri is in the cache.
func (b *BeepBackend) cached(uri ringtone.URI) bool {
	b.cacheMutex.RLock()
	defer b.cacheMutex.RUnlock()
	_, ok := b.cache[uri]
	return ok
}

// Close stops all playback and releases the speaker.
func (b *BeepBackend) Close() {
	b.watcher.Stop()

	b.mu.Lock()
	if b.initialized {
		speaker.Clear()
		speaker.Close()
		b.initialized = false
	}
	b.mu.Unlock()

	b.ClearCache()
	b.logger.Debug("beep backend closed")
}

// beepRingtone is one playing instance of a decoded buffer.
type beepRingtone struct {
	backend *BeepBackend
	uri     ringtone.URI
	buffer  *beep.Buffer

	mu   sync.Mutex
	ctrl *beep.Ctrl
}

// Play implements Ringtone.
func (r *beepRingtone) Play(loop bool) error {
	if err := r.backend.ensureInitialized(r.buffer.Format().SampleRate); err != nil {
		return &PlaybackError{URI: r.uri, Op: "play", Err: err}
	}

	r.backend.mu.Lock()
	volume := r.backend.volume
	sampleRate := r.backend.sampleRate
	r.backend.mu.Unlock()

	var streamer beep.Streamer = r.buffer.Streamer(0, r.buffer.Len())
	if loop {
		looped, err := beep.Loop2(r.buffer.Streamer(0, r.buffer.Len()))
		if err != nil {
			return &PlaybackError{URI: r.uri, Op: "loop", Err: err}
		}
		streamer = looped
	}

	if r.buffer.Format().SampleRate != sampleRate {
		streamer = beep.Resample(4, r.buffer.Format().SampleRate, sampleRate, streamer)
	}

	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   volumeToExponent(volume),
			Silent:   volume == 0,
		}
	}

	ctrl := &beep.Ctrl{Streamer: streamer}

	r.mu.Lock()
	r.ctrl = ctrl
	r.mu.Unlock()

	speaker.Play(ctrl)
	r.backend.logger.Debug("ringtone playing", "uri", r.uri, "loop", loop)
	return nil
}

// Stop implements Ringtone. A drained Ctrl is dropped by the speaker mixer.
func (r *beepRingtone) Stop() {
	r.mu.Lock()
	ctrl := r.ctrl
	r.ctrl = nil
	r.mu.Unlock()

	if ctrl == nil {
		return
	}
	speaker.Lock()
	ctrl.Streamer = nil
	speaker.Unlock()
}

// volumeToExponent converts a linear volume (0-1) to a base 2 exponent for
// effects.Volume.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log2(volume)
}
