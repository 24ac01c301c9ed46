// Package viewer runs a Game inside a raylib window.
package viewer

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluid/camera"
	"github.com/pthm-cable/stablefluid/colormap"
	"github.com/pthm-cable/stablefluid/control"
	"github.com/pthm-cable/stablefluid/game"
	"github.com/pthm-cable/stablefluid/renderer"
	"github.com/pthm-cable/stablefluid/tracer"
	"github.com/pthm-cable/stablefluid/ui"
)

const controlsLegend = "LMB: stir | Space: pause | R: reset | N: next preset | T: tracers | Wheel: zoom | RMB drag: pan | F11: fullscreen"

// Viewer draws the solver and feeds pointer and keyboard input back into it.
// The raylib window must exist before New is called.
type Viewer struct {
	game    *game.Game
	pointer *control.PointerTracker
	camera  *camera.Camera

	fieldRenderer *renderer.FieldRenderer
	arrows        *renderer.ArrowRenderer
	tracers       *tracer.System
	flow          *renderer.FlowRenderer

	overlays *ui.OverlayRegistry
	hud      *ui.HUD
	controls *ui.ControlsPanel
	stats    *ui.StatsPanel
	perf     *ui.PerfPanel

	screenWidth, screenHeight float32
}

// New attaches a viewer to g, registering its renderers as sinks. seed drives
// tracer placement.
func New(g *game.Game, seed int64) (*Viewer, error) {
	cfg := g.Config()
	palette, err := colormap.NewPalette(cfg.Render.Palette, float32(cfg.Render.DensityScale))
	if err != nil {
		return nil, fmt.Errorf("creating palette: %w", err)
	}

	w, h := g.Stepper().Size()
	sw, sh := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	v := &Viewer{
		game:          g,
		pointer:       &control.PointerTracker{},
		camera:        camera.New(sw, sh, float32(w), float32(h)),
		fieldRenderer: renderer.NewFieldRenderer(palette),
		arrows:        renderer.NewArrowRenderer(cfg.Render.ArrowSpacing, float32(cfg.Render.ArrowScale), cfg.Render.VelocityArrows),
		tracers:       tracer.New(cfg.Render.Tracers, cfg.Render.TracerLife, seed),
		flow:          renderer.NewFlowRenderer(1.5),
		overlays:      ui.NewOverlayRegistry(),
		hud:           ui.NewHUD(),
		controls:      ui.NewControlsPanel(int32(sw)-270, 10, 260),
		stats:         ui.NewStatsPanel(10, 100, 280),
		perf:          ui.NewPerfPanel(10, 270, 280),
		screenWidth:   sw,
		screenHeight:  sh,
	}
	v.fieldRenderer.Init(w, h)
	v.overlays.SetEnabled(ui.OverlayArrows, cfg.Render.VelocityArrows)
	v.overlays.SetEnabled(ui.OverlayControls, true)
	v.controls.SetVisible(true)

	g.AddSink(v.fieldRenderer)
	g.AddSink(v.arrows)
	g.AddSink(v.tracers)
	g.OnResize(func(w, h int) {
		v.camera.SetGrid(float32(w), float32(h))
		v.pointer.Release()
	})
	return v, nil
}

// Update handles input and advances the game by the elapsed wall-clock time.
func (v *Viewer) Update() {
	now := time.Now()
	v.handleInput(now)
	v.game.UpdateRealtime(now, v.pointer.Event())
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	v.game.PerfCollector().RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	v.fieldRenderer.Draw(v.camera)
	v.arrows.Draw(v.camera)
	if v.tracers.Enabled {
		v.flow.Draw(v.camera, v.tracers.Particles)
	}

	w, h := v.game.Stepper().Size()
	v.hud.Draw(ui.HUDData{
		Title:  "Stable Fluids",
		Tick:   v.game.Tick(),
		GridW:  w,
		GridH:  h,
		Mode:   v.fieldRenderer.Mode.String(),
		Preset: v.game.Preset(),
		FPS:    rl.GetFPS(),
		Paused: v.game.Paused(),
	})
	if v.overlays.IsEnabled(ui.OverlayStats) {
		v.stats.Draw(v.game.LastStats())
	}
	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perf.Draw(v.game.PerfStats())
	}
	cmds := v.controls.Draw(ui.ControlsState{
		Solver: v.game.Stepper().Config(),
		Paused: v.game.Paused(),
		Preset: v.game.Preset(),
	}, v.overlays)
	for _, cmd := range cmds {
		v.game.Queue().Push(cmd)
	}
	v.hud.DrawControls(int32(v.screenHeight), controlsLegend)

	rl.EndDrawing()
}

// Unload frees GPU resources.
func (v *Viewer) Unload() {
	v.fieldRenderer.Unload()
}
