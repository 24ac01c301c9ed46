package control

import (
	"time"

	"github.com/pthm-cable/stablefluid/field"
	"github.com/pthm-cable/stablefluid/fluid"
)

// PointerTracker derives force events from pointer positions in grid space.
// Velocity is the displacement since the previous sample divided by the
// elapsed time.
type PointerTracker struct {
	down     bool
	pos      field.Vec2
	vel      field.Vec2
	lastTime time.Time
}

// Press starts a drag at pos. The first sample of a drag carries no velocity.
func (p *PointerTracker) Press(pos field.Vec2, now time.Time) {
	p.down = true
	p.pos = pos
	p.vel = field.Vec2{}
	p.lastTime = now
}

// Move records a new pointer position. Moves while released only track position.
func (p *PointerTracker) Move(pos field.Vec2, now time.Time) {
	if p.down {
		dt := float32(now.Sub(p.lastTime).Seconds())
		if dt > 0 {
			p.vel = pos.Sub(p.pos).Scale(1 / dt)
		}
	}
	p.pos = pos
	p.lastTime = now
}

// Release ends the drag.
func (p *PointerTracker) Release() {
	p.down = false
	p.vel = field.Vec2{}
}

// Down reports whether a drag is in progress.
func (p *PointerTracker) Down() bool { return p.down }

// Event returns the force event for the current frame.
func (p *PointerTracker) Event() fluid.ForceEvent {
	return fluid.ForceEvent{Position: p.pos, Velocity: p.vel, Active: p.down}
}
