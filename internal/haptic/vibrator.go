package haptic

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PatternDevice plays an on/off pattern in one request. The pattern starts
// with an on segment.
type PatternDevice interface {
	VibratePattern(pattern []time.Duration) error
}

// PulseDevice vibrates for a single duration per request.
type PulseDevice interface {
	VibrateFor(d time.Duration) error
}

// Stopper is implemented by devices that can halt an ongoing vibration.
type Stopper interface {
	StopVibration() error
}

// Vibrator plays a waveform until cancelled.
type Vibrator interface {
	// Vibrate starts the waveform, replacing any waveform already playing.
	Vibrate(w Waveform) error
	// Cancel stops vibrating. It is safe to call when idle.
	Cancel()
}

// Capability names the variant chosen for a device.
type Capability string

const (
	CapabilityPattern Capability = "pattern"
	CapabilityPulse   Capability = "pulse"
	CapabilityNone    Capability = "none"
)

// CapabilityOf returns the variant NewVibrator selects for dev.
func CapabilityOf(dev any) Capability {
	switch dev.(type) {
	case PatternDevice:
		return CapabilityPattern
	case PulseDevice:
		return CapabilityPulse
	default:
		return CapabilityNone
	}
}

// NewVibrator selects a driver for the capabilities dev supports.
// Pattern support is preferred over single pulses; anything else yields a
// vibrator that does nothing.
func NewVibrator(dev any, logger *slog.Logger) Vibrator {
	if logger == nil {
		logger = slog.Default()
	}

	d := &driver{logger: logger, capability: CapabilityOf(dev)}
	switch v := dev.(type) {
	case PatternDevice:
		d.play = patternPlayer(v)
	case PulseDevice:
		d.play = pulsePlayer(v)
	default:
		return Noop{}
	}
	if s, ok := dev.(Stopper); ok {
		d.stopper = s
	}
	return d
}

// Noop is a Vibrator for hosts without a haptic device.
type Noop struct{}

// Vibrate implements Vibrator.
func (Noop) Vibrate(Waveform) error { return nil }

// Cancel implements Vibrator.
func (Noop) Cancel() {}

// playFunc plays the segments of one pass through the waveform.
type playFunc func(ctx context.Context, segs []segment) error

// driver runs a waveform on its own goroutine.
type driver struct {
	mu         sync.Mutex
	logger     *slog.Logger
	capability Capability
	play       playFunc
	stopper    Stopper

	cancel context.CancelFunc
	done   chan struct{}
}

// Vibrate implements Vibrator.
func (d *driver) Vibrate(w Waveform) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("invalid waveform: %w", err)
	}

	d.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	d.mu.Lock()
	d.cancel = cancel
	d.done = done
	d.mu.Unlock()

	go d.run(ctx, w, done)

	d.logger.Debug("vibration started", "capability", d.capability, "timings", w.Timings, "repeat", w.Repeat)
	return nil
}

// Cancel implements Vibrator.
func (d *driver) Cancel() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if d.stopper != nil {
		if err := d.stopper.StopVibration(); err != nil {
			d.logger.Debug("failed to stop device vibration", "error", err)
		}
	}
	d.logger.Debug("vibration cancelled")
}

// run plays the waveform once from the start, then loops from the repeat index.
func (d *driver) run(ctx context.Context, w Waveform, done chan struct{}) {
	defer close(done)

	start := 0
	for {
		if err := d.play(ctx, w.segments(start)); err != nil {
			if ctx.Err() == nil {
				d.logger.Warn("vibration stopped after device error", "error", err)
			}
			return
		}
		if w.Repeat == NoRepeat {
			return
		}
		start = w.Repeat
	}
}

// patternPlayer sleeps through leading pauses, then hands the rest of the
// pass to the device as one pattern.
func patternPlayer(dev PatternDevice) playFunc {
	return func(ctx context.Context, segs []segment) error {
		i := 0
		for ; i < len(segs) && !segs[i].on; i++ {
			if err := sleep(ctx, segs[i].d); err != nil {
				return err
			}
		}
		if i == len(segs) {
			return nil
		}

		pattern := make([]time.Duration, 0, len(segs)-i)
		var total time.Duration
		for j, s := range segs[i:] {
			// Merge runs of the same kind so the pattern strictly alternates.
			if j > 0 && s.on == segs[i+j-1].on {
				pattern[len(pattern)-1] += s.d
			} else {
				pattern = append(pattern, s.d)
			}
			total += s.d
		}

		if err := dev.VibratePattern(pattern); err != nil {
			return err
		}
		return sleep(ctx, total)
	}
}

// pulsePlayer requests one pulse per on segment and waits out each segment.
func pulsePlayer(dev PulseDevice) playFunc {
	return func(ctx context.Context, segs []segment) error {
		for _, s := range segs {
			if s.on {
				if err := dev.VibrateFor(s.d); err != nil {
					return err
				}
			}
			if err := sleep(ctx, s.d); err != nil {
				return err
			}
		}
		return nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
