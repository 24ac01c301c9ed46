package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluid/camera"
	"github.com/pthm-cable/stablefluid/field"
	"github.com/pthm-cable/stablefluid/fluid"
)

// Arrow is one velocity sample anchored at a cell centre, in grid coordinates.
type Arrow struct {
	Pos field.Vec2
	Vel field.Vec2
}

// ArrowRenderer is a fluid.Sink that samples velocity on a sparse lattice of
// cell centres and draws one arrow per sample.
type ArrowRenderer struct {
	Enabled bool
	Spacing int     // Cells between arrows
	Scale   float32 // Screen pixels per cell/second

	arrows []Arrow
}

// NewArrowRenderer creates an arrow overlay.
func NewArrowRenderer(spacing int, scale float32, enabled bool) *ArrowRenderer {
	if spacing < 1 {
		spacing = 1
	}
	return &ArrowRenderer{Enabled: enabled, Spacing: spacing, Scale: scale}
}

// Present copies the lattice samples out of the frame.
func (r *ArrowRenderer) Present(f fluid.Frame) {
	if !r.Enabled {
		return
	}
	r.arrows = SampleArrows(r.arrows[:0], f.Velocity, r.Spacing)
}

// SampleArrows appends one Arrow per lattice cell, starting half a spacing
// in from the top-left corner.
func SampleArrows(dst []Arrow, vel *field.Vector, spacing int) []Arrow {
	for y := spacing / 2; y < vel.H; y += spacing {
		for x := spacing / 2; x < vel.W; x += spacing {
			dst = append(dst, Arrow{
				Pos: field.Vec2{X: float32(x) + 0.5, Y: float32(y) + 0.5},
				Vel: vel.At(x, y),
			})
		}
	}
	return dst
}

// Draw renders the arrows through the camera.
func (r *ArrowRenderer) Draw(cam *camera.Camera) {
	if !r.Enabled {
		return
	}
	col := rl.Color{R: 255, G: 255, B: 255, A: 160}
	zoom := cam.Zoom
	for _, a := range r.arrows {
		dx := a.Vel.X * r.Scale * zoom
		dy := a.Vel.Y * r.Scale * zoom
		length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
		if length < 1 {
			continue
		}

		sx, sy := cam.GridToScreen(a.Pos.X, a.Pos.Y)
		start := rl.Vector2{X: sx, Y: sy}
		end := rl.Vector2{X: sx + dx, Y: sy + dy}
		rl.DrawLineEx(start, end, 1, col)

		// Head: two strokes at +-150 degrees from the shaft
		head := min(length*0.3, 6)
		ux, uy := dx/length, dy/length
		const c, s = -0.866, 0.5
		rl.DrawLineEx(end, rl.Vector2{X: end.X + (ux*c-uy*s)*head, Y: end.Y + (ux*s+uy*c)*head}, 1, col)
		rl.DrawLineEx(end, rl.Vector2{X: end.X + (ux*c+uy*s)*head, Y: end.Y + (-ux*s+uy*c)*head}, 1, col)
	}
}
