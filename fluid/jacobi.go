package fluid

import "github.com/pthm-cable/stablefluid/field"

// JacobiParams holds the coefficients of one relaxation sweep:
//
//	out = (xL + xR + xB + xT + Alpha*b) / Beta
type JacobiParams struct {
	Alpha float32
	Beta  float32
}

// DiffusionParams returns the coefficients for implicit diffusion with
// strength*dt = k. k must be positive.
func DiffusionParams(k float32) JacobiParams {
	return JacobiParams{Alpha: 1 / k, Beta: 4 + 1/k}
}

// PressureParams returns the coefficients for the pressure Poisson solve.
func PressureParams() JacobiParams {
	return JacobiParams{Alpha: -1, Beta: 4}
}

// JacobiStep performs one relaxation sweep. Neighbour reads clamp at the
// grid edge. out must not alias x or b.
func JacobiStep(out, x, b *field.Scalar, p JacobiParams) {
	w, h := out.W, out.H
	invBeta := 1 / p.Beta
	parallelRows(w, h, func(y int) {
		yu := max(y-1, 0) * w
		yd := min(y+1, h-1) * w
		row := y * w
		for i := 0; i < w; i++ {
			xl := max(i-1, 0)
			xr := min(i+1, w-1)
			sum := x.Data[row+xl] + x.Data[row+xr] + x.Data[yu+i] + x.Data[yd+i]
			out.Data[row+i] = (sum + p.Alpha*b.Data[row+i]) * invBeta
		}
	})
}

// JacobiResidual writes Alpha*b - (Beta*x - sum of neighbours) into out and
// returns its Euclidean norm. A zero residual means x solves the system.
func JacobiResidual(out, x, b *field.Scalar, p JacobiParams) float32 {
	w, h := out.W, out.H
	parallelRows(w, h, func(y int) {
		yu := max(y-1, 0) * w
		yd := min(y+1, h-1) * w
		row := y * w
		for i := 0; i < w; i++ {
			xl := max(i-1, 0)
			xr := min(i+1, w-1)
			sum := x.Data[row+xl] + x.Data[row+xr] + x.Data[yu+i] + x.Data[yd+i]
			out.Data[row+i] = p.Alpha*b.Data[row+i] - (p.Beta*x.Data[row+i] - sum)
		}
	})
	return out.Norm()
}
