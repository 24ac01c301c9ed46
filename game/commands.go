package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/stablefluid/config"
	"github.com/pthm-cable/stablefluid/control"
	"github.com/pthm-cable/stablefluid/telemetry"
)

// ApplyCommands drains the queue and applies every command in arrival order.
// It runs between ticks so no command observes a half-updated FieldSet.
func (g *Game) ApplyCommands(now time.Time) {
	if g.queue.Len() == 0 {
		return
	}
	g.perfCollector.Measure(telemetry.PhaseCommands, func() {
		for _, cmd := range g.queue.Drain() {
			g.apply(cmd, now)
		}
	})
}

func (g *Game) apply(cmd control.Command, now time.Time) {
	switch c := cmd.(type) {
	case control.ForceCommand:
		g.pendingForce = c.Event

	case control.ResetCommand:
		preset := c.Preset
		if preset == "" {
			preset = g.preset
		}
		if err := g.stepper.Reset(preset); err != nil {
			slog.Warn("reset rejected", "preset", preset, "error", err)
			return
		}
		g.preset = preset
		g.collector.RecordReset(g.Tick())
		slog.Info("fields reset", "preset", g.preset)

	case control.ConfigureCommand:
		g.configure(c.Solver)

	case control.PatchSolverCommand:
		next, err := config.ParseSolver(g.stepper.Config(), c.Data)
		if err != nil {
			slog.Warn("solver patch rejected", "error", err)
			return
		}
		g.configure(next)

	case control.PauseCommand:
		g.paused = true
		g.clock.Pause()

	case control.PlayCommand:
		g.paused = false
		g.clock.Play(now)

	default:
		slog.Warn("unknown command", "type", fmt.Sprintf("%T", cmd))
	}
}

func (g *Game) configure(next config.SolverConfig) {
	prevW, prevH := g.stepper.Size()
	if err := g.stepper.Configure(next); err != nil {
		slog.Warn("solver configuration rejected", "error", err)
		return
	}
	g.cfgMu.Lock()
	g.cfg.Solver = next
	g.cfg.Derived.GridCells = next.GridWidth * next.GridHeight
	g.cfgMu.Unlock()
	g.collector.RecordConfigure()

	w, h := g.stepper.Size()
	if w == prevW && h == prevH {
		return
	}
	// Resizing clears the fields and restarts the tick count.
	g.collector.RecordReset(g.Tick())
	slog.Info("grid resized", "width", w, "height", h)
	for _, fn := range g.resizeListeners {
		fn(w, h)
	}
}
