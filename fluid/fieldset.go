package fluid

import "github.com/pthm-cable/stablefluid/field"

// FieldSet owns every grid of the simulation plus one scratch buffer per
// value kind. Stages read named fields and write scratch; the Stepper swaps
// scratch into the named slot afterwards, so a stage never reads what it writes.
type FieldSet struct {
	W, H int

	Velocity   *field.Vector
	Density    *field.Scalar
	Pressure   *field.Scalar
	Divergence *field.Scalar
	Vorticity  *field.Scalar // Only updated while confinement is enabled; zero otherwise

	scratch    *field.Scalar
	scratchVec *field.Vector
}

// NewFieldSet allocates a zeroed field set of the given size.
func NewFieldSet(w, h int) *FieldSet {
	return &FieldSet{
		W:          w,
		H:          h,
		Velocity:   field.NewVector(w, h),
		Density:    field.NewScalar(w, h),
		Pressure:   field.NewScalar(w, h),
		Divergence: field.NewScalar(w, h),
		Vorticity:  field.NewScalar(w, h),
		scratch:    field.NewScalar(w, h),
		scratchVec: field.NewVector(w, h),
	}
}

// Clear zeroes every field including scratch.
func (fs *FieldSet) Clear() {
	fs.Velocity.Fill(field.Vec2{})
	fs.Density.Fill(0)
	fs.Pressure.Fill(0)
	fs.Divergence.Fill(0)
	fs.Vorticity.Fill(0)
	fs.scratch.Fill(0)
	fs.scratchVec.Fill(field.Vec2{})
}

// swapVelocity promotes the vector scratch to the velocity slot.
func (fs *FieldSet) swapVelocity() {
	fs.Velocity, fs.scratchVec = fs.scratchVec, fs.Velocity
}

// swapScalar promotes the scalar scratch into *slot.
func (fs *FieldSet) swapScalar(slot **field.Scalar) {
	*slot, fs.scratch = fs.scratch, *slot
}
