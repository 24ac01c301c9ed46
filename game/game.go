// Package game drives the solver: it owns the Stepper, applies queued
// commands between ticks, advances time and flushes telemetry. It has no
// graphics dependency; the window lives in package viewer.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/stablefluid/config"
	"github.com/pthm-cable/stablefluid/control"
	"github.com/pthm-cable/stablefluid/fluid"
	"github.com/pthm-cable/stablefluid/telemetry"
)

// Options configures a Game.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	Seed           int64
	Preset         string // Initial preset; empty uses the config value
	LogStats       bool
	StatsWindowSec float64 // 0 uses the config value
	OutputDir      string  // Empty disables CSV output
	StepsPerUpdate int     // Solver ticks per update call
}

// Game holds the driver state around one solver.
type Game struct {
	cfgMu   sync.Mutex // Guards cfg against ConfigYAML readers on other goroutines
	cfg     *config.Config
	stepper *fluid.Stepper
	queue   *control.Queue
	clock   *control.FrameClock

	// Force received as a command, applied on the next tick only
	pendingForce fluid.ForceEvent

	paused         bool
	preset         string
	stepsPerUpdate int

	// Telemetry
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	perfCollector    *telemetry.PerfCollector
	logStats         bool
	statsCallback    func(telemetry.WindowStats)
	lastStats        telemetry.WindowStats

	resizeListeners []func(w, h int)
}

// NewGameWithOptions creates a game, resets the fields to the initial preset
// and opens the output directory if one is set.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	stepper, err := fluid.NewStepper(cfg.Solver)
	if err != nil {
		return nil, err
	}
	stepper.SetSeed(opts.Seed)

	preset := opts.Preset
	if preset == "" {
		preset = cfg.Preset
	}
	if err := stepper.Reset(preset); err != nil {
		return nil, err
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:              cfg,
		stepper:          stepper,
		queue:            &control.Queue{},
		clock:            control.NewFrameClock(cfg.Derived.MaxDT32),
		preset:           preset,
		stepsPerUpdate:   steps,
		collector:        telemetry.NewCollector(statsWindow, cfg.Derived.DT32),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		logStats:         opts.LogStats,
	}
	stepper.SetObserver(g.perfCollector)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	return g, nil
}

// Queue returns the command queue. It is safe to push from any goroutine.
func (g *Game) Queue() *control.Queue { return g.queue }

// AddSink registers a frame consumer on the stepper.
func (g *Game) AddSink(s fluid.Sink) { g.stepper.AddSink(s) }

// Stepper returns the solver.
func (g *Game) Stepper() *fluid.Stepper { return g.stepper }

// Config returns the active configuration. Solver reflects the last applied Configure.
func (g *Game) Config() *config.Config { return g.cfg }

// ConfigYAML encodes the active configuration. Safe to call from any goroutine.
func (g *Game) ConfigYAML() ([]byte, error) {
	g.cfgMu.Lock()
	defer g.cfgMu.Unlock()
	return g.cfg.MarshalYAMLBytes()
}

// Tick returns the solver tick.
func (g *Game) Tick() int32 { return g.stepper.Tick() }

// Paused reports whether stepping is suspended.
func (g *Game) Paused() bool { return g.paused }

// Preset returns the preset applied by the last reset.
func (g *Game) Preset() string { return g.preset }

// StepsPerUpdate returns the number of ticks per update call.
func (g *Game) StepsPerUpdate() int { return g.stepsPerUpdate }

// SetStepsPerUpdate changes the ticks per update call, clamped to [1, 10].
func (g *Game) SetStepsPerUpdate(n int) { g.stepsPerUpdate = min(max(n, 1), 10) }

// LastStats returns the most recently flushed stats window.
func (g *Game) LastStats() telemetry.WindowStats { return g.lastStats }

// PerfStats returns stage timing over the collector window.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perfCollector.Stats() }

// PerfCollector exposes the collector so a window can record frame times.
func (g *Game) PerfCollector() *telemetry.PerfCollector { return g.perfCollector }

// SetStatsCallback registers a function called with every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) { g.statsCallback = fn }

// OnResize registers a function called after Configure changes the grid size.
func (g *Game) OnResize(fn func(w, h int)) {
	g.resizeListeners = append(g.resizeListeners, fn)
}

// UpdateHeadless applies pending commands and advances StepsPerUpdate ticks of
// the fixed configured dt.
func (g *Game) UpdateHeadless() {
	g.ApplyCommands(time.Now())
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(g.cfg.Derived.DT32, fluid.ForceEvent{})
	}
}

// UpdateRealtime applies pending commands and advances by the wall-clock time
// since the previous call. ev is the local pointer's force; a force received
// as a command is used when ev is inactive.
func (g *Game) UpdateRealtime(now time.Time, ev fluid.ForceEvent) {
	g.ApplyCommands(now)
	dt := g.clock.Tick(now)
	if g.paused {
		return
	}
	// Split the frame so steps-per-update does not speed up simulated time.
	sub := dt / float32(g.stepsPerUpdate)
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(sub, ev)
		ev.Active = false
	}
}

// Run steps in real time every interval until ctx is done or maxTicks is
// reached (0 = unlimited). It is the loop for windowless serving.
func (g *Game) Run(ctx context.Context, interval time.Duration, maxTicks int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			g.UpdateRealtime(now, fluid.ForceEvent{})
			if maxTicks > 0 && int(g.Tick()) >= maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return nil
			}
		}
	}
}

func (g *Game) step(dt float32, ev fluid.ForceEvent) {
	if !ev.Active && g.pendingForce.Active {
		ev = g.pendingForce
	}
	g.pendingForce = fluid.ForceEvent{}

	g.stepper.Step(dt, ev)
	if ev.Active {
		g.collector.RecordForce()
	}
	g.perfCollector.Measure(telemetry.PhaseTelemetry, g.flushTelemetry)
}

// Unload releases resources.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output files", "error", err)
	}
}
