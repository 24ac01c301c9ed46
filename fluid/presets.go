package fluid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ojrac/opensimplex-go"
	"github.com/pthm-cable/stablefluid/field"
)

// ErrUnknownPreset is returned by Reset for names not in Presets.
var ErrUnknownPreset = errors.New("unknown preset")

// PresetZero is the default reset state.
const PresetZero = "zero"

var presets = map[string]func(fs *FieldSet, seed int64){
	PresetZero: func(*FieldSet, int64) {},
	"noise":    presetNoise,
	"vortex":   presetVortex,
	"jet":      presetJet,
}

// Presets returns the names accepted by Reset, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears every field and then applies the named preset. An empty name
// selects PresetZero. Unknown names leave the fields untouched.
func (s *Stepper) Reset(preset string) error {
	if preset == "" {
		preset = PresetZero
	}
	apply, ok := presets[preset]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
	s.fields.Clear()
	apply(s.fields, s.seed)
	s.tick = 0
	return nil
}

// presetNoise fills density with two octaves of simplex noise in [0,1].
func presetNoise(fs *FieldSet, seed int64) {
	noise := opensimplex.NewNormalized(seed)
	scale := 4 / float64(min(fs.W, fs.H))
	d := fs.Density
	for y := 0; y < fs.H; y++ {
		for x := 0; x < fs.W; x++ {
			fx := float64(x) * scale
			fy := float64(y) * scale
			n := 0.67*noise.Eval2(fx, fy) + 0.33*noise.Eval2(fx*2.3+17, fy*2.3+31)
			d.Set(x, y, float32(n))
		}
	}
}

// presetVortex spins a gaussian vortex around the grid center and marks its
// core with dye.
func presetVortex(fs *FieldSet, _ int64) {
	cx := float32(fs.W-1) / 2
	cy := float32(fs.H-1) / 2
	r := float32(min(fs.W, fs.H)) / 4
	invR2 := 1 / (r * r)
	dyeInvR2 := 4 * invR2
	for y := 0; y < fs.H; y++ {
		for x := 0; x < fs.W; x++ {
			dx := float32(x) - cx
			dy := float32(y) - cy
			d2 := dx*dx + dy*dy
			g := float32(math.Exp(float64(-d2 * invR2)))
			fs.Velocity.Set(x, y, field.Vec2{X: -dy * 2 * g, Y: dx * 2 * g})
			fs.Density.Set(x, y, float32(math.Exp(float64(-d2*dyeInvR2))))
		}
	}
}

// presetJet seeds a horizontal band of dyed fluid moving right from the left wall.
func presetJet(fs *FieldSet, _ int64) {
	half := max(fs.H/10, 1)
	cy := fs.H / 2
	speed := float32(fs.W) / 4
	for y := max(cy-half, 1); y <= min(cy+half, fs.H-2); y++ {
		for x := 1; x < max(fs.W/8, 2); x++ {
			fs.Velocity.Set(x, y, field.Vec2{X: speed})
			fs.Density.Set(x, y, 1)
		}
	}
}
