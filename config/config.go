// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Solver    SolverConfig    `yaml:"solver"`
	Clock     ClockConfig     `yaml:"clock"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`
	Preset    string          `yaml:"preset"` // Initial field state: zero, noise, vortex, jet

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
// The window is the render resolution; the solver grid is independent of it.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SolverConfig holds the numerical parameters of the fluid solver.
type SolverConfig struct {
	GridWidth            int     `yaml:"grid_width"`
	GridHeight           int     `yaml:"grid_height"`
	DiffusionIterations  int     `yaml:"diffusion_iterations"`  // Jacobi sweeps per diffusion solve
	ProjectionIterations int     `yaml:"projection_iterations"` // Jacobi sweeps for the pressure solve
	VelocityDiffusion    float64 `yaml:"velocity_diffusion"`    // Viscosity; 0 disables velocity diffusion
	DyeDiffusion         float64 `yaml:"dye_diffusion"`         // 0 disables dye diffusion
	Vorticity            float64 `yaml:"vorticity"`             // Confinement strength; 0 disables
	DrawRadius           float64 `yaml:"draw_radius"`           // Gaussian splat radius in cells
	DyeAmount            float64 `yaml:"dye_amount"`            // Peak density injected per step
}

// ClockConfig controls frame timing.
type ClockConfig struct {
	DT    float64 `yaml:"dt"`     // Fixed step used in headless mode
	MaxDT float64 `yaml:"max_dt"` // Upper bound on a measured frame delta
}

// RenderConfig holds presentation settings.
type RenderConfig struct {
	Palette        string  `yaml:"palette"`         // Density gradient name
	DensityScale   float64 `yaml:"density_scale"`   // Density mapped to the top of the palette
	VelocityArrows bool    `yaml:"velocity_arrows"` // Draw the velocity overlay
	ArrowSpacing   int     `yaml:"arrow_spacing"`   // Grid cells between arrows
	ArrowScale     float64 `yaml:"arrow_scale"`     // Screen pixels per cell/second
	Tracers        int     `yaml:"tracers"`         // Passive particles carried by the flow (0 = off)
	TracerLife     int     `yaml:"tracer_life"`     // Base tracer lifetime in ticks
}

// TelemetryConfig holds telemetry and logging parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Seconds of simulated time per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Ticks averaged by the perf collector
}

// ServerConfig holds websocket streaming parameters.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	FrameIntervalMS int    `yaml:"frame_interval_ms"` // Minimum time between broadcast frames
	MaxClients      int    `yaml:"max_clients"`
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	DT32      float32
	MaxDT32   float32
	ScreenW32 float32
	ScreenH32 float32
	GridCells int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Defaults returns the embedded default configuration.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Solver.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		errs = append(errs, invalid("screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height))
	}
	if !(c.Clock.DT > 0) || math.IsInf(c.Clock.DT, 0) {
		errs = append(errs, invalid("clock.dt must be positive and finite, got %v", c.Clock.DT))
	}
	if c.Clock.MaxDT < c.Clock.DT {
		errs = append(errs, invalid("clock.max_dt (%v) must be at least clock.dt (%v)", c.Clock.MaxDT, c.Clock.DT))
	}
	if c.Render.ArrowSpacing < 1 {
		errs = append(errs, invalid("render.arrow_spacing must be at least 1, got %d", c.Render.ArrowSpacing))
	}
	if c.Render.Tracers < 0 || c.Render.TracerLife < 1 {
		errs = append(errs, invalid("render.tracers must be non-negative and render.tracer_life at least 1, got %d and %d", c.Render.Tracers, c.Render.TracerLife))
	}
	if c.Server.FrameIntervalMS < 0 {
		errs = append(errs, invalid("server.frame_interval_ms must be non-negative, got %d", c.Server.FrameIntervalMS))
	}
	return errors.Join(errs...)
}

// MinGridSize is the smallest grid dimension the solver accepts. A border
// cell needs an interior neighbour on every side.
const MinGridSize = 3

// MaxGridSize caps each grid dimension. A solver holds nine float32 planes,
// so 2048x2048 is about 150 MB.
const MaxGridSize = 2048

// Validate rejects out-of-domain solver parameters. Values are never clamped.
func (s SolverConfig) Validate() error {
	var errs []error
	if s.GridWidth < MinGridSize || s.GridHeight < MinGridSize {
		errs = append(errs, invalid("grid resolution must be at least %dx%d, got %dx%d",
			MinGridSize, MinGridSize, s.GridWidth, s.GridHeight))
	}
	if s.GridWidth > MaxGridSize || s.GridHeight > MaxGridSize {
		errs = append(errs, invalid("grid resolution must be at most %dx%d, got %dx%d",
			MaxGridSize, MaxGridSize, s.GridWidth, s.GridHeight))
	}
	if s.DiffusionIterations < 0 {
		errs = append(errs, invalid("diffusion_iterations must be non-negative, got %d", s.DiffusionIterations))
	}
	if s.ProjectionIterations < 0 {
		errs = append(errs, invalid("projection_iterations must be non-negative, got %d", s.ProjectionIterations))
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"velocity_diffusion", s.VelocityDiffusion},
		{"dye_diffusion", s.DyeDiffusion},
		{"vorticity", s.Vorticity},
	} {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v < 0 {
			errs = append(errs, invalid("%s must be finite and non-negative, got %v", p.name, p.v))
		}
	}
	if math.IsNaN(s.DrawRadius) || math.IsInf(s.DrawRadius, 0) || s.DrawRadius <= 0 {
		errs = append(errs, invalid("draw_radius must be finite and positive, got %v", s.DrawRadius))
	}
	if math.IsNaN(s.DyeAmount) || math.IsInf(s.DyeAmount, 0) {
		errs = append(errs, invalid("dye_amount must be finite, got %v", s.DyeAmount))
	}
	return errors.Join(errs...)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Clock.DT)
	c.Derived.MaxDT32 = float32(c.Clock.MaxDT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.GridCells = c.Solver.GridWidth * c.Solver.GridHeight
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.MarshalYAMLBytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// MarshalYAMLBytes encodes the configuration as YAML.
func (c *Config) MarshalYAMLBytes() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// ParseSolver decodes a solver section from YAML or JSON (a YAML subset) on top of base.
// Fields absent from data keep their values from base.
func ParseSolver(base SolverConfig, data []byte) (SolverConfig, error) {
	out := base
	if err := yaml.Unmarshal(data, &out); err != nil {
		return base, fmt.Errorf("parsing solver config: %w", err)
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}
