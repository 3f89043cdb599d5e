// Package haptic drives vibration waveforms on a haptic device.
//
// A Waveform alternates off and on segments starting with an off segment,
// so {0, 1s, 1s} means: no delay, vibrate one second, pause one second.
// Repeat is the index the waveform loops back to, or -1 to play once.
package haptic

import (
	"errors"
	"fmt"
	"time"
)

// NoRepeat plays a waveform a single time.
const NoRepeat = -1

// Waveform is a vibration timing pattern.
type Waveform struct {
	Timings []time.Duration
	Repeat  int
}

// IncomingCall returns the ringing waveform: vibrate for on, pause for off,
// repeating from the start until cancelled.
func IncomingCall(on, off time.Duration) Waveform {
	return Waveform{
		Timings: []time.Duration{0, on, off},
		Repeat:  0,
	}
}

// IncomingCallWaveform is the default ringing waveform.
var IncomingCallWaveform = IncomingCall(1000*time.Millisecond, 1000*time.Millisecond)

var errEmptyWaveform = errors.New("waveform has no timings")

// Validate checks the waveform can be driven without spinning.
func (w Waveform) Validate() error {
	if len(w.Timings) == 0 {
		return errEmptyWaveform
	}
	for i, d := range w.Timings {
		if d < 0 {
			return fmt.Errorf("waveform timing %d is negative: %s", i, d)
		}
	}
	if w.Repeat < NoRepeat || w.Repeat >= len(w.Timings) {
		return fmt.Errorf("waveform repeat index %d out of range", w.Repeat)
	}
	if w.Repeat != NoRepeat && w.cycleLength(w.Repeat) == 0 {
		return errors.New("repeating section of waveform has zero length")
	}
	return nil
}

// isOn reports whether the segment at index i vibrates.
func isOn(i int) bool {
	return i%2 == 1
}

// cycleLength returns the total duration from index start to the end.
func (w Waveform) cycleLength(start int) time.Duration {
	var total time.Duration
	for _, d := range w.Timings[start:] {
		total += d
	}
	return total
}

// segment is one contiguous run of the waveform.
type segment struct {
	on bool
	d  time.Duration
}

// segments returns the non-empty segments from index start to the end.
func (w Waveform) segments(start int) []segment {
	var out []segment
	for i := start; i < len(w.Timings); i++ {
		if w.Timings[i] == 0 {
			continue
		}
		out = append(out, segment{on: isOn(i), d: w.Timings[i]})
	}
	return out
}
