// Package control turns external input into solver inputs: frame deltas,
// pointer force events and queued commands applied between ticks.
package control

import "time"

// FrameClock converts wall-clock timestamps into per-frame dt values.
type FrameClock struct {
	maxDT  float32
	prev   time.Time
	paused bool
}

// NewFrameClock creates a clock that never reports more than maxDT seconds
// per frame. maxDT <= 0 disables the cap.
func NewFrameClock(maxDT float32) *FrameClock {
	return &FrameClock{maxDT: maxDT}
}

// Tick returns the seconds elapsed since the previous Tick. The first tick,
// every tick while paused, and backwards clock jumps report zero.
func (c *FrameClock) Tick(now time.Time) float32 {
	if c.paused {
		return 0
	}
	if c.prev.IsZero() {
		c.prev = now
		return 0
	}
	dt := float32(now.Sub(c.prev).Seconds())
	c.prev = now
	if dt < 0 {
		return 0
	}
	if c.maxDT > 0 && dt > c.maxDT {
		dt = c.maxDT
	}
	return dt
}

// Pause stops the clock; Tick reports zero until Play.
func (c *FrameClock) Pause() {
	c.paused = true
}

// Play resumes the clock from now, so the paused interval is not reported
// as one large frame.
func (c *FrameClock) Play(now time.Time) {
	c.paused = false
	c.prev = now
}

// Toggle flips between paused and playing.
func (c *FrameClock) Toggle(now time.Time) {
	if c.paused {
		c.Play(now)
	} else {
		c.Pause()
	}
}

// Paused reports whether the clock is paused.
func (c *FrameClock) Paused() bool { return c.paused }
