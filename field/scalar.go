// Package field provides dense 2D grids of float32 values with bilinear sampling.
//
// Grids are stored row-major (index = y*W + x). Integer coordinates address cell
// centers; reads outside the grid clamp to the nearest edge cell.
package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// Scalar is a W x H grid of float32 values.
type Scalar struct {
	W, H int
	Data []float32
}

// NewScalar allocates a zeroed scalar grid.
func NewScalar(w, h int) *Scalar {
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("field: invalid grid size %dx%d", w, h))
	}
	return &Scalar{W: w, H: h, Data: make([]float32, w*h)}
}

// Len returns the number of cells.
func (s *Scalar) Len() int { return s.W * s.H }

// Index returns the flat index of (x, y). No bounds check.
func (s *Scalar) Index(x, y int) int { return y*s.W + x }

// At returns the cell value at (x, y) with coordinates clamped into the grid.
func (s *Scalar) At(x, y int) float32 {
	return s.Data[clampInt(y, 0, s.H-1)*s.W+clampInt(x, 0, s.W-1)]
}

// Set writes v into cell (x, y). Out of range coordinates panic.
func (s *Scalar) Set(x, y int, v float32) {
	s.Data[y*s.W+x] = v
}

// Sample bilinearly interpolates the grid at continuous coordinates (x, y).
// The four corner lookups clamp independently, so sampling far outside the
// grid returns the nearest edge value.
func (s *Scalar) Sample(x, y float32) float32 {
	fx := math.Floor(float64(x))
	fy := math.Floor(float64(y))
	tx := x - float32(fx)
	ty := y - float32(fy)

	x0 := clampInt(int(fx), 0, s.W-1)
	y0 := clampInt(int(fy), 0, s.H-1)
	x1 := clampInt(int(fx)+1, 0, s.W-1)
	y1 := clampInt(int(fy)+1, 0, s.H-1)

	r0 := y0 * s.W
	r1 := y1 * s.W
	a := s.Data[r0+x0] + (s.Data[r0+x1]-s.Data[r0+x0])*tx
	b := s.Data[r1+x0] + (s.Data[r1+x1]-s.Data[r1+x0])*tx
	return a + (b-a)*ty
}

// SampleNormalized samples at normalized coordinates in [0,1]^2.
// 0 and 1 map to the outer edges of the grid, so cell i spans
// [i/W, (i+1)/W] and its center sits at (i+0.5)/W.
func (s *Scalar) SampleNormalized(nx, ny float32) float32 {
	return s.Sample(nx*float32(s.W)-0.5, ny*float32(s.H)-0.5)
}

// SameSize reports whether o has the same dimensions as s.
func (s *Scalar) SameSize(o *Scalar) bool {
	return s.W == o.W && s.H == o.H
}

// Fill sets every cell to v.
func (s *Scalar) Fill(v float32) {
	if v == 0 {
		clear(s.Data)
		return
	}
	for i := range s.Data {
		s.Data[i] = v
	}
}

// CopyFrom overwrites s with the contents of src. Sizes must match.
func (s *Scalar) CopyFrom(src *Scalar) {
	mustMatch(s, src)
	blas32.Copy(src.vec(), s.vec())
}

// Scale multiplies every cell by a.
func (s *Scalar) Scale(a float32) {
	blas32.Scal(a, s.vec())
}

// AddScaled performs s += a*x. Sizes must match.
func (s *Scalar) AddScaled(a float32, x *Scalar) {
	mustMatch(s, x)
	blas32.Axpy(a, x.vec(), s.vec())
}

// Sum returns the sum of all cells, accumulated in float64.
func (s *Scalar) Sum() float64 {
	var total float64
	for _, v := range s.Data {
		total += float64(v)
	}
	return total
}

// AbsSum returns the sum of absolute cell values.
func (s *Scalar) AbsSum() float32 {
	return blas32.Asum(s.vec())
}

// Norm returns the Euclidean norm of the grid viewed as a vector.
func (s *Scalar) Norm() float32 {
	return blas32.Nrm2(s.vec())
}

// MaxAbs returns the largest absolute cell value.
func (s *Scalar) MaxAbs() float32 {
	i := blas32.Iamax(s.vec())
	if i < 0 {
		return 0
	}
	return float32(math.Abs(float64(s.Data[i])))
}

func (s *Scalar) vec() blas32.Vector {
	return blas32.Vector{N: len(s.Data), Inc: 1, Data: s.Data}
}

func mustMatch(a, b *Scalar) {
	if !a.SameSize(b) {
		panic(fmt.Sprintf("field: size mismatch %dx%d vs %dx%d", a.W, a.H, b.W, b.H))
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
