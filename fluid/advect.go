package fluid

import "github.com/pthm-cable/stablefluid/field"

// AdvectParams configures one semi-Lagrangian transport pass.
type AdvectParams struct {
	DT float32
}

// Advect transports src along vel into out. Each cell traces its center
// backwards by dt*vel and samples src there. out must not alias src.
func Advect(out, src *field.Scalar, vel *field.Vector, p AdvectParams) {
	w := out.W
	parallelRows(w, out.H, func(y int) {
		row := y * w
		for x := 0; x < w; x++ {
			i := row + x
			px := float32(x) - p.DT*vel.X.Data[i]
			py := float32(y) - p.DT*vel.Y.Data[i]
			out.Data[i] = src.Sample(px, py)
		}
	})
}

// AdvectVector transports a vector field along vel. Passing the same field as
// src and vel performs self-advection; out must be a different buffer.
func AdvectVector(out, src, vel *field.Vector, p AdvectParams) {
	w := out.W
	parallelRows(w, out.H, func(y int) {
		row := y * w
		for x := 0; x < w; x++ {
			i := row + x
			px := float32(x) - p.DT*vel.X.Data[i]
			py := float32(y) - p.DT*vel.Y.Data[i]
			out.X.Data[i] = src.X.Sample(px, py)
			out.Y.Data[i] = src.Y.Sample(px, py)
		}
	})
}
