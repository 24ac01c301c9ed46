package fluid

import (
	"math"

	"github.com/pthm-cable/stablefluid/field"
)

// ForceEvent is a pointer interaction in grid space, consumed by one step.
type ForceEvent struct {
	Position field.Vec2 // Grid coordinates of the splat center
	Velocity field.Vec2 // Cells per second added at the center
	Active   bool
}

// ForceParams configures the velocity forcing pass.
type ForceParams struct {
	Event       ForceEvent
	Radius      float32 // Gaussian falloff radius in cells, > 0
	Confinement float32 // Vorticity confinement strength, 0 disables
	DT          float32
}

// DyeParams configures the density injection pass.
type DyeParams struct {
	Event  ForceEvent
	Radius float32
	Amount float32
}

// confinementFloor is the gradient magnitude below which the confinement
// direction is treated as undefined.
const confinementFloor = 1e-5

func gaussian(x, y int, c field.Vec2, invR2 float32) float32 {
	dx := float32(x) - c.X
	dy := float32(y) - c.Y
	return float32(math.Exp(float64(-(dx*dx + dy*dy) * invR2)))
}

// ApplyForces writes vel plus the pointer splat and vorticity confinement into
// out. curl is only read when Confinement > 0. Inactive events still copy vel.
func ApplyForces(out, vel *field.Vector, curl *field.Scalar, p ForceParams) {
	w, h := out.W, out.H
	invR2 := 1 / (p.Radius * p.Radius)
	eps := p.Confinement * p.DT
	ev := p.Event

	parallelRows(w, h, func(y int) {
		row := y * w
		for x := 0; x < w; x++ {
			i := row + x
			fx, fy := vel.X.Data[i], vel.Y.Data[i]

			if ev.Active {
				g := gaussian(x, y, ev.Position, invR2)
				fx += ev.Velocity.X * g
				fy += ev.Velocity.Y * g
			}

			if eps > 0 {
				gx := 0.5 * (abs32(curl.At(x+1, y)) - abs32(curl.At(x-1, y)))
				gy := 0.5 * (abs32(curl.At(x, y+1)) - abs32(curl.At(x, y-1)))
				mag := float32(math.Sqrt(float64(gx*gx + gy*gy)))
				if mag >= confinementFloor {
					// curl is du/dy - dv/dx, the negated z-vorticity, so the
					// N x omega force flips sign here.
					wz := curl.Data[i]
					fx -= eps * (gy / mag) * wz
					fy += eps * (gx / mag) * wz
				}
			}

			out.X.Data[i] = fx
			out.Y.Data[i] = fy
		}
	})
}

// InjectDye writes density plus a gaussian splat of dye into out.
func InjectDye(out, density *field.Scalar, p DyeParams) {
	if !p.Event.Active || p.Amount == 0 {
		out.CopyFrom(density)
		return
	}
	w, h := out.W, out.H
	invR2 := 1 / (p.Radius * p.Radius)
	parallelRows(w, h, func(y int) {
		row := y * w
		for x := 0; x < w; x++ {
			out.Data[row+x] = density.Data[row+x] + p.Amount*gaussian(x, y, p.Event.Position, invR2)
		}
	})
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
