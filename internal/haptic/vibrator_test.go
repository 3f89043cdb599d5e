package haptic

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePatternDevice struct {
	mu       sync.Mutex
	patterns [][]time.Duration
	stops    int
	err      error
}

func (f *fakePatternDevice) VibratePattern(p []time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, p)
	return f.err
}

func (f *fakePatternDevice) StopVibration() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakePatternDevice) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.patterns)
}

type fakePulseDevice struct {
	mu     sync.Mutex
	pulses []time.Duration
}

func (f *fakePulseDevice) VibrateFor(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulses = append(f.pulses, d)
	return nil
}

func (f *fakePulseDevice) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pulses)
}

func TestIncomingCallWaveform(t *testing.T) {
	assert.Equal(t, []time.Duration{0, time.Second, time.Second}, IncomingCallWaveform.Timings)
	assert.Equal(t, 0, IncomingCallWaveform.Repeat)
	assert.NoError(t, IncomingCallWaveform.Validate())
}

func TestWaveform_Validate(t *testing.T) {
	tests := []struct {
		name    string
		w       Waveform
		wantErr bool
	}{
		{"incoming call", IncomingCall(10*time.Millisecond, 10*time.Millisecond), false},
		{"play once", Waveform{Timings: []time.Duration{0, time.Second}, Repeat: NoRepeat}, false},
		{"empty", Waveform{}, true},
		{"negative timing", Waveform{Timings: []time.Duration{-1, time.Second}, Repeat: NoRepeat}, true},
		{"repeat out of range", Waveform{Timings: []time.Duration{0, time.Second}, Repeat: 2}, true},
		{"repeat below once", Waveform{Timings: []time.Duration{0, time.Second}, Repeat: -2}, true},
		{"zero length loop", Waveform{Timings: []time.Duration{time.Second, 0, 0}, Repeat: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCapabilityResolution(t *testing.T) {
	assert.Equal(t, CapabilityPattern, CapabilityOf(&fakePatternDevice{}))
	assert.Equal(t, CapabilityPulse, CapabilityOf(&fakePulseDevice{}))
	assert.Equal(t, CapabilityNone, CapabilityOf(nil))
	assert.Equal(t, CapabilityNone, CapabilityOf("speaker"))

	assert.IsType(t, Noop{}, NewVibrator(nil, nil))
	assert.IsType(t, &driver{}, NewVibrator(&fakePulseDevice{}, nil))
}

func TestPatternVibrator_RepeatsUntilCancelled(t *testing.T) {
	dev := &fakePatternDevice{}
	v := NewVibrator(dev, nil)

	require.NoError(t, v.Vibrate(IncomingCall(5*time.Millisecond, 5*time.Millisecond)))
	require.Eventually(t, func() bool { return dev.calls() >= 3 }, time.Second, time.Millisecond)

	v.Cancel()
	n := dev.calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, dev.calls(), "no patterns after cancel")

	dev.mu.Lock()
	defer dev.mu.Unlock()
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, dev.patterns[0])
	assert.Equal(t, 1, dev.stops)
}

func TestPatternVibrator_MergesAdjacentSegments(t *testing.T) {
	dev := &fakePatternDevice{}
	v := NewVibrator(dev, nil)

	w := Waveform{
		Timings: []time.Duration{time.Millisecond, 2 * time.Millisecond, 0, 3 * time.Millisecond, 4 * time.Millisecond},
		Repeat:  NoRepeat,
	}
	require.NoError(t, v.Vibrate(w))
	require.Eventually(t, func() bool { return dev.calls() == 1 }, time.Second, time.Millisecond)
	v.Cancel()

	dev.mu.Lock()
	defer dev.mu.Unlock()
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 4 * time.Millisecond}, dev.patterns[0])
}

func TestPulseVibrator(t *testing.T) {
	dev := &fakePulseDevice{}
	v := NewVibrator(dev, nil)

	require.NoError(t, v.Vibrate(IncomingCall(5*time.Millisecond, 5*time.Millisecond)))
	require.Eventually(t, func() bool { return dev.calls() >= 2 }, time.Second, time.Millisecond)
	v.Cancel()

	dev.mu.Lock()
	defer dev.mu.Unlock()
	for _, p := range dev.pulses {
		assert.Equal(t, 5*time.Millisecond, p)
	}
}

func TestVibrator_ReplacesRunningWaveform(t *testing.T) {
	dev := &fakePatternDevice{}
	v := NewVibrator(dev, nil)

	require.NoError(t, v.Vibrate(IncomingCall(time.Hour, time.Hour)))
	require.Eventually(t, func() bool { return dev.calls() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, v.Vibrate(IncomingCall(5*time.Millisecond, 5*time.Millisecond)))
	require.Eventually(t, func() bool { return dev.calls() >= 3 }, time.Second, time.Millisecond)
	v.Cancel()

	dev.mu.Lock()
	defer dev.mu.Unlock()
	assert.Equal(t, []time.Duration{time.Hour, time.Hour}, dev.patterns[0])
	assert.Equal(t, 2, dev.stops)
}

func TestVibrator_StopsOnDeviceError(t *testing.T) {
	dev := &fakePatternDevice{err: errors.New("haptic service gone")}
	v := NewVibrator(dev, nil)

	require.NoError(t, v.Vibrate(IncomingCall(time.Millisecond, time.Millisecond)))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, dev.calls())
	v.Cancel()
}

func TestVibrator_InvalidWaveform(t *testing.T) {
	v := NewVibrator(&fakePulseDevice{}, nil)
	assert.Error(t, v.Vibrate(Waveform{}))
}

func TestVibrator_CancelIdempotent(t *testing.T) {
	v := NewVibrator(&fakePulseDevice{}, nil)
	assert.NotPanics(t, func() {
		v.Cancel()
		v.Cancel()
	})

	var n Noop
	assert.NoError(t, n.Vibrate(IncomingCallWaveform))
	n.Cancel()
}
