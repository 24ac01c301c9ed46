// Package tracer moves passive marker particles through the solver's
// velocity field so the flow can be seen where there is no dye.
package tracer

import (
	"math/rand"

	"github.com/pthm-cable/stablefluid/field"
	"github.com/pthm-cable/stablefluid/fluid"
)

// TrailLength is the number of past positions kept per particle.
const TrailLength = 8

// spawnRate caps how many particles are created per update.
const spawnRate = 50

// Particle is one tracer in grid coordinates, where cell i spans [i, i+1).
type Particle struct {
	X, Y    float32
	Life    int32
	MaxLife int32
	Opacity float32
	// Trail history (most recent first)
	TrailX   [TrailLength]float32
	TrailY   [TrailLength]float32
	TrailLen uint8
}

// System owns the tracer population. It is a fluid.Sink.
type System struct {
	Particles []Particle
	Enabled   bool

	rng      *rand.Rand
	target   int
	baseLife int32
	w, h     int
}

// New creates a system that keeps about target particles alive, each living
// between baseLife and 1.5*baseLife ticks.
func New(target, baseLife int, seed int64) *System {
	return &System{
		Particles: make([]Particle, 0, target),
		rng:       rand.New(rand.NewSource(seed)),
		target:    target,
		baseLife:  int32(max(baseLife, 1)),
	}
}

// Present advances the tracers with the frame's velocity.
func (s *System) Present(f fluid.Frame) {
	if !s.Enabled {
		return
	}
	s.Update(f.Velocity, f.DT)
}

// Update tops up the population, then moves every particle dt seconds along
// vel with a midpoint step. Particles that expire or leave the grid are
// dropped. A change of grid size discards the whole population.
func (s *System) Update(vel *field.Vector, dt float32) {
	if vel.W != s.w || vel.H != s.h {
		s.Particles = s.Particles[:0]
		s.w, s.h = vel.W, vel.H
	}
	s.spawn()

	w, h := float32(s.w), float32(s.h)
	alive := 0
	for i := range s.Particles {
		p := &s.Particles[i]

		p.Life--
		if p.Life <= 0 {
			continue
		}

		// Shift trail history and add current position
		for j := TrailLength - 1; j > 0; j-- {
			p.TrailX[j] = p.TrailX[j-1]
			p.TrailY[j] = p.TrailY[j-1]
		}
		p.TrailX[0] = p.X
		p.TrailY[0] = p.Y
		if p.TrailLen < TrailLength {
			p.TrailLen++
		}

		v1 := sample(vel, p.X, p.Y)
		v2 := sample(vel, p.X+0.5*dt*v1.X, p.Y+0.5*dt*v1.Y)
		p.X += dt * v2.X
		p.Y += dt * v2.Y

		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			continue
		}

		s.Particles[alive] = s.Particles[i]
		alive++
	}
	s.Particles = s.Particles[:alive]
}

// Clear removes every particle.
func (s *System) Clear() {
	s.Particles = s.Particles[:0]
}

// Count returns the number of live particles.
func (s *System) Count() int {
	return len(s.Particles)
}

func (s *System) spawn() {
	for i := 0; i < spawnRate && len(s.Particles) < s.target; i++ {
		life := s.baseLife + s.rng.Int31n(s.baseLife/2+1)
		s.Particles = append(s.Particles, Particle{
			X:       s.rng.Float32() * float32(s.w),
			Y:       s.rng.Float32() * float32(s.h),
			Life:    life,
			MaxLife: life,
			Opacity: 0.4 + s.rng.Float32()*0.4,
		})
	}
}

// sample reads velocity at a grid position; cell centres sit at i+0.5.
func sample(vel *field.Vector, x, y float32) field.Vec2 {
	return vel.Sample(x-0.5, y-0.5)
}
