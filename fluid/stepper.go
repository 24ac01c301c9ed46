// Package fluid implements a stable-fluids solver on a regular grid.
//
// A Stepper owns a FieldSet and advances it one tick at a time through a fixed
// sequence of stages: advection, diffusion, forcing with vorticity
// confinement, pressure projection and wall boundaries. Each stage reads the
// current fields and writes a scratch buffer which is then swapped in.
package fluid

import (
	"fmt"

	"github.com/pthm-cable/stablefluid/config"
	"github.com/pthm-cable/stablefluid/field"
	"github.com/pthm-cable/stablefluid/telemetry"
)

// FieldKind selects a field for sampling.
type FieldKind int

const (
	KindVelocity FieldKind = iota
	KindDensity
	KindPressure
	KindDivergence
	KindVorticity
)

func (k FieldKind) String() string {
	switch k {
	case KindVelocity:
		return "velocity"
	case KindDensity:
		return "density"
	case KindPressure:
		return "pressure"
	case KindDivergence:
		return "divergence"
	case KindVorticity:
		return "vorticity"
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// Frame is the state handed to sinks after a tick. The grids are the live
// simulation buffers and are only valid until Present returns.
type Frame struct {
	Tick       int32
	DT         float32 // Seconds simulated by this tick
	Velocity   *field.Vector
	Density    *field.Scalar
	Pressure   *field.Scalar
	Divergence *field.Scalar
	Vorticity  *field.Scalar
}

// Sink receives every completed tick.
type Sink interface {
	Present(f Frame)
}

// StageObserver is notified as the stepper moves through its stages.
// telemetry.PerfCollector satisfies it.
type StageObserver interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

type nopObserver struct{}

func (nopObserver) StartTick()        {}
func (nopObserver) StartPhase(string) {}
func (nopObserver) EndTick()          {}

// params holds the solver configuration converted for the hot loops.
type params struct {
	diffusionIters  int
	projectionIters int
	viscosity       float32
	dyeDiffusion    float32
	confinement     float32
	radius          float32
	dyeAmount       float32
}

func newParams(c config.SolverConfig) params {
	return params{
		diffusionIters:  c.DiffusionIterations,
		projectionIters: c.ProjectionIterations,
		viscosity:       float32(c.VelocityDiffusion),
		dyeDiffusion:    float32(c.DyeDiffusion),
		confinement:     float32(c.Vorticity),
		radius:          float32(c.DrawRadius),
		dyeAmount:       float32(c.DyeAmount),
	}
}

// Stepper advances the simulation. It is not safe for concurrent use; callers
// serialize Step, Reset and Configure on one goroutine.
type Stepper struct {
	cfg    config.SolverConfig
	p      params
	fields *FieldSet
	sinks  []Sink
	obs    StageObserver
	seed   int64
	tick   int32
}

// NewStepper validates cfg and allocates a zeroed field set.
func NewStepper(cfg config.SolverConfig) (*Stepper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating stepper: %w", err)
	}
	return &Stepper{
		cfg:    cfg,
		p:      newParams(cfg),
		fields: NewFieldSet(cfg.GridWidth, cfg.GridHeight),
		obs:    nopObserver{},
	}, nil
}

// Config returns the active solver configuration.
func (s *Stepper) Config() config.SolverConfig { return s.cfg }

// Fields exposes the field set for inspection between ticks.
func (s *Stepper) Fields() *FieldSet { return s.fields }

// Tick returns the number of completed steps since the last reset.
func (s *Stepper) Tick() int32 { return s.tick }

// Size returns the grid dimensions.
func (s *Stepper) Size() (int, int) { return s.fields.W, s.fields.H }

// SetObserver installs a stage observer. nil disables observation.
func (s *Stepper) SetObserver(o StageObserver) {
	if o == nil {
		o = nopObserver{}
	}
	s.obs = o
}

// SetSeed sets the seed used by randomized presets.
func (s *Stepper) SetSeed(seed int64) { s.seed = seed }

// AddSink registers a sink that receives every completed tick.
func (s *Stepper) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

// Configure applies a new solver configuration between ticks. Invalid
// configurations are rejected and the previous one stays active. A change of
// grid resolution reallocates the fields, which clears the simulation.
func (s *Stepper) Configure(cfg config.SolverConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuring solver: %w", err)
	}
	if cfg.GridWidth != s.fields.W || cfg.GridHeight != s.fields.H {
		s.fields = NewFieldSet(cfg.GridWidth, cfg.GridHeight)
		s.tick = 0
	}
	s.cfg = cfg
	s.p = newParams(cfg)
	if s.p.confinement <= 0 {
		// Curl is only refreshed while confinement runs; don't leave a stale one.
		s.fields.Vorticity.Fill(0)
	}
	return nil
}

// Sample reads a field at normalized coordinates in [0,1]^2. Scalar fields
// return their value in X.
func (s *Stepper) Sample(kind FieldKind, nx, ny float32) field.Vec2 {
	fs := s.fields
	switch kind {
	case KindVelocity:
		return fs.Velocity.SampleNormalized(nx, ny)
	case KindDensity:
		return field.Vec2{X: fs.Density.SampleNormalized(nx, ny)}
	case KindPressure:
		return field.Vec2{X: fs.Pressure.SampleNormalized(nx, ny)}
	case KindDivergence:
		return field.Vec2{X: fs.Divergence.SampleNormalized(nx, ny)}
	case KindVorticity:
		return field.Vec2{X: fs.Vorticity.SampleNormalized(nx, ny)}
	}
	return field.Vec2{}
}

// Step advances the simulation by dt seconds and presents the result to every
// sink. Negative dt is treated as zero.
func (s *Stepper) Step(dt float32, ev ForceEvent) {
	if dt < 0 {
		dt = 0
	}
	s.obs.StartTick()

	s.obs.StartPhase(telemetry.PhaseAdvect)
	s.advect(dt)

	s.obs.StartPhase(telemetry.PhaseDiffuse)
	s.diffuse(dt)

	s.obs.StartPhase(telemetry.PhaseForces)
	s.applyForces(dt, ev)

	s.obs.StartPhase(telemetry.PhaseProject)
	s.project()

	s.tick++

	s.obs.StartPhase(telemetry.PhasePresent)
	s.present(dt)

	s.obs.EndTick()
}

func (s *Stepper) advect(dt float32) {
	fs := s.fields
	ap := AdvectParams{DT: dt}
	AdvectVector(fs.scratchVec, fs.Velocity, fs.Velocity, ap)
	fs.swapVelocity()
	Advect(fs.scratch, fs.Density, fs.Velocity, ap)
	fs.swapScalar(&fs.Density)
}

func (s *Stepper) diffuse(dt float32) {
	fs := s.fields
	if k := s.p.viscosity * dt; k > 0 {
		jp := DiffusionParams(k)
		for range s.p.diffusionIters {
			JacobiStep(fs.scratchVec.X, fs.Velocity.X, fs.Velocity.X, jp)
			JacobiStep(fs.scratchVec.Y, fs.Velocity.Y, fs.Velocity.Y, jp)
			fs.swapVelocity()
		}
	}
	if k := s.p.dyeDiffusion * dt; k > 0 {
		jp := DiffusionParams(k)
		for range s.p.diffusionIters {
			JacobiStep(fs.scratch, fs.Density, fs.Density, jp)
			fs.swapScalar(&fs.Density)
		}
	}
}

func (s *Stepper) applyForces(dt float32, ev ForceEvent) {
	fs := s.fields
	if s.p.confinement > 0 {
		Curl(fs.scratch, fs.Velocity)
		fs.swapScalar(&fs.Vorticity)
	}
	ApplyForces(fs.scratchVec, fs.Velocity, fs.Vorticity, ForceParams{
		Event:       ev,
		Radius:      s.p.radius,
		Confinement: s.p.confinement,
		DT:          dt,
	})
	fs.swapVelocity()

	InjectDye(fs.scratch, fs.Density, DyeParams{
		Event:  ev,
		Radius: s.p.radius,
		Amount: s.p.dyeAmount,
	})
	fs.swapScalar(&fs.Density)
}

// project removes the divergent part of the velocity field.
func (s *Stepper) project() {
	fs := s.fields
	Divergence(fs.scratch, fs.Velocity)
	fs.swapScalar(&fs.Divergence)

	fs.Pressure.Fill(0)
	pp := PressureParams()
	for range s.p.projectionIters {
		JacobiStep(fs.scratch, fs.Pressure, fs.Divergence, pp)
		fs.swapScalar(&fs.Pressure)
		EnforceBoundary(fs.scratch, fs.Pressure, PressureBoundary)
		fs.swapScalar(&fs.Pressure)
	}

	s.obs.StartPhase(telemetry.PhaseBoundary)
	EnforceBoundaryVector(fs.scratchVec, fs.Velocity, VelocityBoundary)
	fs.swapVelocity()

	s.obs.StartPhase(telemetry.PhaseProject)
	SubtractGradient(fs.scratchVec, fs.Velocity, fs.Pressure)
	fs.swapVelocity()

	// Close the walls again; the gradient pass rewrites border velocities.
	s.obs.StartPhase(telemetry.PhaseBoundary)
	EnforceBoundaryVector(fs.scratchVec, fs.Velocity, VelocityBoundary)
	fs.swapVelocity()
}

func (s *Stepper) present(dt float32) {
	if len(s.sinks) == 0 {
		return
	}
	fs := s.fields
	f := Frame{
		Tick:       s.tick,
		DT:         dt,
		Velocity:   fs.Velocity,
		Density:    fs.Density,
		Pressure:   fs.Pressure,
		Divergence: fs.Divergence,
		Vorticity:  fs.Vorticity,
	}
	for _, sink := range s.sinks {
		sink.Present(f)
	}
}
