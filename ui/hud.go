package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluid/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Tick         int32
	GridW, GridH int
	Mode         string
	Preset       string
	FPS          int32
	Paused       bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Grid: %dx%d | Showing: %s | Preset: %s", data.GridW, data.GridH, data.Mode, data.Preset),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | FPS: %d", data.Tick, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// StatsPanel shows the latest window of field statistics.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a field stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel.
func (p *StatsPanel) Draw(s telemetry.WindowStats) {
	r := p.renderer
	padding := r.Theme.Padding
	inner := p.width - padding*2
	r.DrawPanel(p.x, p.y, p.width, r.Theme.LineHeight*9+padding*2)

	x := p.x + padding
	y := r.DrawSectionHeader(x, p.y+padding, "Field Stats")
	y = r.DrawLabelValue(x, y, "Total density", fmt.Sprintf("%.3f", s.TotalDensity))
	y = r.DrawCenteredBar(x, y, "Density drift", float32(s.DensityDrift), 0.05, inner)
	y = r.DrawLabelValue(x, y, "Max divergence", fmt.Sprintf("%.2e", s.MaxDivergence))
	y = r.DrawLabelValue(x, y, "Kinetic energy", fmt.Sprintf("%.3f", s.KineticEnergy))
	y = r.DrawLabelValue(x, y, "Max vorticity", fmt.Sprintf("%.2f", s.MaxVorticity))
	y = r.DrawLabelValue(x, y, "Speed p50/p90", fmt.Sprintf("%.2f / %.2f", s.SpeedP50, s.SpeedP90))
	r.DrawLabelValue(x, y, "Window end", fmt.Sprintf("%d", s.WindowEndTick))
}

// PerfPanel renders the solver stage timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Padding
	r.DrawPanel(p.x, p.y, p.width, int32(len(telemetry.Phases)+2)*(r.Theme.LineHeight+2)+padding*2)

	x := p.x + padding
	y := r.DrawSectionHeader(x, p.y+padding, "Stage Timing")
	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond),
		x, y, r.Theme.FontSize, rl.Yellow)
	y += r.Theme.LineHeight

	for _, phase := range telemetry.Phases {
		y = r.DrawBar(x, y, phase, float32(stats.PhasePct[phase]/100), p.width-padding*2)
	}
}
