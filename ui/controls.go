package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluid/config"
	"github.com/pthm-cable/stablefluid/control"
	"github.com/pthm-cable/stablefluid/fluid"
)

// ControlsState is what the controls panel displays.
type ControlsState struct {
	Solver config.SolverConfig
	Paused bool
	Preset string
}

// sliderSpec binds one slider to a solver parameter.
type sliderSpec struct {
	label    string
	min, max float32
	format   string
	get      func(*config.SolverConfig) float32
	set      func(*config.SolverConfig, float32)
}

var solverSliders = []sliderSpec{
	{"Vorticity", 0, 2, "%.2f",
		func(c *config.SolverConfig) float32 { return float32(c.Vorticity) },
		func(c *config.SolverConfig, v float32) { c.Vorticity = float64(v) }},
	{"Viscosity", 0, 1, "%.3f",
		func(c *config.SolverConfig) float32 { return float32(c.VelocityDiffusion) },
		func(c *config.SolverConfig, v float32) { c.VelocityDiffusion = float64(v) }},
	{"Dye diffusion", 0, 1, "%.3f",
		func(c *config.SolverConfig) float32 { return float32(c.DyeDiffusion) },
		func(c *config.SolverConfig, v float32) { c.DyeDiffusion = float64(v) }},
	{"Draw radius", 1, 32, "%.1f",
		func(c *config.SolverConfig) float32 { return float32(c.DrawRadius) },
		func(c *config.SolverConfig, v float32) { c.DrawRadius = float64(v) }},
	{"Dye amount", 0, 5, "%.2f",
		func(c *config.SolverConfig) float32 { return float32(c.DyeAmount) },
		func(c *config.SolverConfig, v float32) { c.DyeAmount = float64(v) }},
	{"Diffusion iters", 0, 80, "%.0f",
		func(c *config.SolverConfig) float32 { return float32(c.DiffusionIterations) },
		func(c *config.SolverConfig, v float32) { c.DiffusionIterations = int(v + 0.5) }},
	{"Pressure iters", 1, 200, "%.0f",
		func(c *config.SolverConfig) float32 { return float32(c.ProjectionIterations) },
		func(c *config.SolverConfig, v float32) { c.ProjectionIterations = int(v + 0.5) }},
}

// ControlsPanel renders solver sliders, transport buttons and the overlay legend.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool

	legendLines int32 // Overlay rows drawn last frame
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,

		legendLines: 8,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Contains reports whether a screen point is over the panel, so pointer
// input there is not forwarded to the fluid.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x < float32(c.x+c.width) &&
		y >= float32(c.y) && y < float32(c.y+c.height())
}

func (c *ControlsPanel) height() int32 {
	r := c.renderer
	sliders := int32(len(solverSliders)) * 36
	buttons := int32(3 * 36)
	legend := c.legendLines * r.Theme.LineHeight
	return r.Theme.Padding*3 + r.Theme.LineHeight + sliders + buttons + legend
}

// Draw renders the panel and returns the commands produced by the user this frame.
func (c *ControlsPanel) Draw(state ControlsState, overlays *OverlayRegistry) []control.Command {
	if !c.visible {
		return nil
	}

	r := c.renderer
	padding := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, c.height())

	x := float32(c.x + padding)
	y := c.y + padding
	sliderW := float32(c.width - padding*2 - 60)

	rl.DrawText("Solver", c.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	var cmds []control.Command
	next := state.Solver
	changed := false
	for _, s := range solverSliders {
		cur := s.get(&next)
		rl.DrawText(s.label, c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
		y += 14
		v := gui.SliderBar(rl.Rectangle{X: x, Y: float32(y), Width: sliderW, Height: 16}, "", "", cur, s.min, s.max)
		rl.DrawText(fmt.Sprintf(s.format, cur), int32(x+sliderW+8), y+2, r.Theme.FontSize, r.Theme.ValueColor)
		if v != cur {
			s.set(&next, v)
			changed = true
		}
		y += 22
	}
	if changed && next.Validate() == nil {
		cmds = append(cmds, control.ConfigureCommand{Solver: next})
	}

	bw := (float32(c.width) - float32(padding)*3) / 2
	row := func(left, right string) (bool, bool) {
		l := gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: bw, Height: 28}, left)
		rgt := gui.Button(rl.Rectangle{X: x + bw + float32(padding), Y: float32(y), Width: bw, Height: 28}, right)
		y += 36
		return l, rgt
	}

	pauseLabel := "Pause"
	if state.Paused {
		pauseLabel = "Play"
	}
	if reset, pause := row("Reset", pauseLabel); reset || pause {
		if reset {
			cmds = append(cmds, control.ResetCommand{Preset: state.Preset})
		}
		if pause {
			if state.Paused {
				cmds = append(cmds, control.PlayCommand{})
			} else {
				cmds = append(cmds, control.PauseCommand{})
			}
		}
	}

	if _, nextPreset := row("Preset: "+state.Preset, "Next preset"); nextPreset {
		cmds = append(cmds, control.ResetCommand{Preset: NextPreset(state.Preset)})
	}

	if down, up := row("Grid /2", "Grid x2"); down || up {
		cfg := state.Solver
		if down {
			cfg.GridWidth, cfg.GridHeight = cfg.GridWidth/2, cfg.GridHeight/2
		} else {
			cfg.GridWidth, cfg.GridHeight = cfg.GridWidth*2, cfg.GridHeight*2
		}
		if cfg.Validate() == nil {
			cmds = append(cmds, control.ConfigureCommand{Solver: cfg})
		}
	}

	lines := int32(0)
	for _, category := range overlays.Categories() {
		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += r.Theme.LineHeight
			lines++
		}
	}
	c.legendLines = lines + 1

	return cmds
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	nameColor := r.Theme.LabelColor
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
		nameColor = rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// NextPreset returns the preset after name in sorted order, wrapping around.
func NextPreset(name string) string {
	names := fluid.Presets()
	for i, n := range names {
		if n == name {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
