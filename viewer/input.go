package viewer

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluid/control"
	"github.com/pthm-cable/stablefluid/field"
	"github.com/pthm-cable/stablefluid/renderer"
	"github.com/pthm-cable/stablefluid/ui"
)

// handleInput processes keyboard and mouse input.
func (v *Viewer) handleInput(now time.Time) {
	// Window resize propagation
	v.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	q := v.game.Queue()
	if rl.IsKeyPressed(rl.KeySpace) {
		if v.game.Paused() {
			q.Push(control.PlayCommand{})
		} else {
			q.Push(control.PauseCommand{})
		}
	}
	if rl.IsKeyPressed(rl.KeyR) || rl.IsKeyPressed(rl.KeyQ) {
		q.Push(control.ResetCommand{})
	}
	if rl.IsKeyPressed(rl.KeyN) {
		q.Push(control.ResetCommand{Preset: ui.NextPreset(v.game.Preset())})
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		v.game.SetStepsPerUpdate(v.game.StepsPerUpdate() - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.game.SetStepsPerUpdate(v.game.StepsPerUpdate() + 1)
	}

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, on, ok := v.overlays.HandleKeyPress(key); ok {
			v.applyOverlay(id, on)
		}
	}

	v.handleCameraInput()
	v.handlePointer(now)
}

func (v *Viewer) applyOverlay(id ui.OverlayID, on bool) {
	switch id {
	case ui.OverlayVelocityColors:
		v.fieldRenderer.Mode = renderer.ShowDensity
		if on {
			v.fieldRenderer.Mode = renderer.ShowVelocity
		}
	case ui.OverlayArrows:
		v.arrows.Enabled = on
	case ui.OverlayTracers:
		v.tracers.Enabled = on
		if !on {
			v.tracers.Clear()
		}
	case ui.OverlayControls:
		v.controls.SetVisible(on)
	}
}

// handlePointer turns the left mouse button into force events in grid space.
func (v *Viewer) handlePointer(now time.Time) {
	mouse := rl.GetMousePosition()
	gx, gy := v.camera.ScreenToGrid(mouse.X, mouse.Y)
	cx, cy := v.camera.ScreenToCell(mouse.X, mouse.Y)
	pos := field.Vec2{X: cx, Y: cy}

	overUI := v.controls.Contains(mouse.X, mouse.Y)
	switch {
	case rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !overUI && v.camera.Contains(gx, gy):
		v.pointer.Press(pos, now)
	case rl.IsMouseButtonDown(rl.MouseButtonLeft) && v.pointer.Down():
		v.pointer.Move(pos, now)
	case rl.IsMouseButtonReleased(rl.MouseButtonLeft):
		v.pointer.Release()
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h
	v.camera.Resize(w, h)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *Viewer) handleCameraInput() {
	// Arrow key panning
	const panSpeed = 8
	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}

	// Right-drag panning
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.camera.Pan(-d.X, -d.Y)
	}

	// Zoom toward the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		v.camera.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
	}
}
