package fluid

import "github.com/pthm-cable/stablefluid/field"

// Boundary coefficients: velocity is reflected (no-slip walls), pressure is
// mirrored (zero normal gradient).
const (
	VelocityBoundary float32 = -1
	PressureBoundary float32 = 1
)

// EnforceBoundary copies every interior cell of in to out and sets each
// border cell to c times its inward neighbour. The inward neighbour of (x, y)
// is (clamp(x,1,W-2), clamp(y,1,H-2)), so edges use the adjacent interior
// cell and corners use the diagonal one. The grid must be at least 3x3.
func EnforceBoundary(out, in *field.Scalar, c float32) {
	w, h := out.W, out.H
	out.CopyFrom(in)
	for x := 0; x < w; x++ {
		ix := min(max(x, 1), w-2)
		out.Data[x] = c * in.Data[w+ix]
		out.Data[(h-1)*w+x] = c * in.Data[(h-2)*w+ix]
	}
	for y := 1; y < h-1; y++ {
		row := y * w
		out.Data[row] = c * in.Data[row+1]
		out.Data[row+w-1] = c * in.Data[row+w-2]
	}
}

// EnforceBoundaryVector applies EnforceBoundary to both components.
func EnforceBoundaryVector(out, in *field.Vector, c float32) {
	EnforceBoundary(out.X, in.X, c)
	EnforceBoundary(out.Y, in.Y, c)
}
