package fluid

import "github.com/pthm-cable/stablefluid/field"

// Divergence writes the central-difference divergence of vel into out:
//
//	div = (vx[x+1] - vx[x-1] + vy[y+1] - vy[y-1]) / 2
func Divergence(out *field.Scalar, vel *field.Vector) {
	w, h := out.W, out.H
	vx, vy := vel.X.Data, vel.Y.Data
	parallelRows(w, h, func(y int) {
		yu := max(y-1, 0) * w
		yd := min(y+1, h-1) * w
		row := y * w
		for x := 0; x < w; x++ {
			xl := max(x-1, 0)
			xr := min(x+1, w-1)
			out.Data[row+x] = 0.5 * (vx[row+xr] - vx[row+xl] + vy[yd+x] - vy[yu+x])
		}
	})
}

// Curl writes the scalar vorticity of vel into out:
//
//	curl = (vx[y+1] - vx[y-1] - vy[x+1] + vy[x-1]) / 2
func Curl(out *field.Scalar, vel *field.Vector) {
	w, h := out.W, out.H
	vx, vy := vel.X.Data, vel.Y.Data
	parallelRows(w, h, func(y int) {
		yu := max(y-1, 0) * w
		yd := min(y+1, h-1) * w
		row := y * w
		for x := 0; x < w; x++ {
			xl := max(x-1, 0)
			xr := min(x+1, w-1)
			out.Data[row+x] = 0.5 * (vx[yd+x] - vx[yu+x] - vy[row+xr] + vy[row+xl])
		}
	})
}

// SubtractGradient writes vel minus the central-difference gradient of p.
func SubtractGradient(out, vel *field.Vector, p *field.Scalar) {
	w, h := out.W, out.H
	pd := p.Data
	parallelRows(w, h, func(y int) {
		yu := max(y-1, 0) * w
		yd := min(y+1, h-1) * w
		row := y * w
		for x := 0; x < w; x++ {
			i := row + x
			xl := max(x-1, 0)
			xr := min(x+1, w-1)
			out.X.Data[i] = vel.X.Data[i] - 0.5*(pd[row+xr]-pd[row+xl])
			out.Y.Data[i] = vel.Y.Data[i] - 0.5*(pd[yd+x]-pd[yu+x])
		}
	})
}
