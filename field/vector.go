package field

import "math"

// Vec2 is a 2D vector in grid space.
type Vec2 struct {
	X, Y float32
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * a.
func (v Vec2) Scale(a float32) Vec2 { return Vec2{v.X * a, v.Y * a} }

// LenSq returns the squared length of v.
func (v Vec2) LenSq() float32 { return v.X*v.X + v.Y*v.Y }

// Vector is a W x H grid of 2D vectors held as two component planes.
type Vector struct {
	W, H int
	X, Y *Scalar
}

// NewVector allocates a zeroed vector grid.
func NewVector(w, h int) *Vector {
	return &Vector{W: w, H: h, X: NewScalar(w, h), Y: NewScalar(w, h)}
}

// At returns the vector at (x, y) with coordinates clamped into the grid.
func (v *Vector) At(x, y int) Vec2 {
	return Vec2{v.X.At(x, y), v.Y.At(x, y)}
}

// Set writes a vector into cell (x, y).
func (v *Vector) Set(x, y int, val Vec2) {
	i := y*v.W + x
	v.X.Data[i] = val.X
	v.Y.Data[i] = val.Y
}

// Sample bilinearly interpolates both components at (x, y).
func (v *Vector) Sample(x, y float32) Vec2 {
	return Vec2{v.X.Sample(x, y), v.Y.Sample(x, y)}
}

// SampleNormalized samples at normalized coordinates in [0,1]^2.
func (v *Vector) SampleNormalized(nx, ny float32) Vec2 {
	return Vec2{v.X.SampleNormalized(nx, ny), v.Y.SampleNormalized(nx, ny)}
}

// SameSize reports whether o has the same dimensions as v.
func (v *Vector) SameSize(o *Vector) bool {
	return v.W == o.W && v.H == o.H
}

// Fill sets every cell to val.
func (v *Vector) Fill(val Vec2) {
	v.X.Fill(val.X)
	v.Y.Fill(val.Y)
}

// CopyFrom overwrites v with src.
func (v *Vector) CopyFrom(src *Vector) {
	v.X.CopyFrom(src.X)
	v.Y.CopyFrom(src.Y)
}

// KineticEnergy returns 0.5 * sum(|v|^2) over all cells.
func (v *Vector) KineticEnergy() float64 {
	nx := float64(v.X.Norm())
	ny := float64(v.Y.Norm())
	return 0.5 * (nx*nx + ny*ny)
}

// Speeds writes |v| for every cell into dst (resized as needed) and returns it.
func (v *Vector) Speeds(dst []float64) []float64 {
	n := v.X.Len()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := range n {
		x := float64(v.X.Data[i])
		y := float64(v.Y.Data[i])
		dst[i] = math.Sqrt(x*x + y*y)
	}
	return dst
}
