package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for the solver tick.
const (
	PhaseCommands  = "commands"
	PhaseAdvect    = "advect"
	PhaseDiffuse   = "diffuse"
	PhaseForces    = "forces"
	PhaseProject   = "project"
	PhaseBoundary  = "boundary"
	PhasePresent   = "present"
	PhaseTelemetry = "telemetry"
)

// Phases lists every phase in pipeline order.
var Phases = []string{
	PhaseCommands, PhaseAdvect, PhaseDiffuse, PhaseForces,
	PhaseProject, PhaseBoundary, PhasePresent, PhaseTelemetry,
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector keeps the last windowSize tick samples in a ring and running
// sums over them. It satisfies the stepper's stage observer interface.
type PerfCollector struct {
	samples []PerfSample
	next    int
	filled  int

	tickSum  time.Duration
	phaseSum map[string]time.Duration

	current    map[string]time.Duration
	tickStart  time.Time
	phase      string
	phaseStart time.Time

	// Work timed between ticks, folded into the next tick's sample
	pending map[string]time.Duration

	// Frame timing (graphics mode)
	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks
// (60 when windowSize < 1).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples:  make([]PerfSample, windowSize),
		phaseSum: make(map[string]time.Duration),
		pending:  make(map[string]time.Duration),
	}
}

// StartTick begins timing a new simulation tick. Durations recorded with
// Measure since the previous tick are attributed to this one.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = make(map[string]time.Duration, len(p.pending)+len(Phases))
	for phase, d := range p.pending {
		p.current[phase] = d
	}
	clear(p.pending)
	p.phase = ""
}

// Measure times fn outside of a tick (command draining, telemetry flushes)
// and charges it to phase in the next recorded tick.
func (p *PerfCollector) Measure(phase string, fn func()) {
	start := time.Now()
	fn()
	p.pending[phase] += time.Since(start)
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes the current tick and pushes its sample into the ring,
// evicting the oldest one once the window is full.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = ""

	// Work measured outside the tick still counts toward its cost.
	tick := now.Sub(p.tickStart) + p.current[PhaseCommands] + p.current[PhaseTelemetry]

	if p.filled == len(p.samples) {
		old := p.samples[p.next]
		p.tickSum -= old.TickDuration
		for phase, d := range old.Phases {
			if p.phaseSum[phase] -= d; p.phaseSum[phase] <= 0 {
				delete(p.phaseSum, phase)
			}
		}
	} else {
		p.filled++
	}

	p.samples[p.next] = PerfSample{TickDuration: tick, Phases: p.current}
	p.next = (p.next + 1) % len(p.samples)
	p.tickSum += tick
	for phase, d := range p.current {
		p.phaseSum[phase] += d
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Average duration and share of the average tick per phase
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration, len(p.phaseSum)),
		PhasePct:      make(map[string]float64, len(p.phaseSum)),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		stats.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return stats
	}

	n := time.Duration(p.filled)
	stats.AvgTickDuration = p.tickSum / n
	for phase, sum := range p.phaseSum {
		avg := sum / n
		stats.PhaseAvg[phase] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[phase] = float64(avg) / float64(stats.AvgTickDuration) * 100
		}
	}
	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
	}

	ticks := make([]float64, p.filled)
	for i := range ticks {
		ticks[i] = float64(p.samples[i].TickDuration)
	}
	sort.Float64s(ticks)
	stats.MinTickDuration = time.Duration(ticks[0])
	stats.MaxTickDuration = time.Duration(ticks[len(ticks)-1])
	stats.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))

	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	CommandsPct  float64 `csv:"commands_pct"`
	AdvectPct    float64 `csv:"advect_pct"`
	DiffusePct   float64 `csv:"diffuse_pct"`
	ForcesPct    float64 `csv:"forces_pct"`
	ProjectPct   float64 `csv:"project_pct"`
	BoundaryPct  float64 `csv:"boundary_pct"`
	PresentPct   float64 `csv:"present_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		CommandsPct:  s.PhasePct[PhaseCommands],
		AdvectPct:    s.PhasePct[PhaseAdvect],
		DiffusePct:   s.PhasePct[PhaseDiffuse],
		ForcesPct:    s.PhasePct[PhaseForces],
		ProjectPct:   s.PhasePct[PhaseProject],
		BoundaryPct:  s.PhasePct[PhaseBoundary],
		PresentPct:   s.PhasePct[PhasePresent],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
