// Package colormap converts simulation fields to RGBA pixels.
package colormap

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/crazy3lf/colorconv"
	"github.com/mazznoer/colorgrad"
	"github.com/pthm-cable/stablefluid/field"
)

// lutSize is the number of entries in a density lookup table.
const lutSize = 256

var gradients = map[string]func() colorgrad.Gradient{
	"viridis": colorgrad.Viridis,
	"inferno": colorgrad.Inferno,
	"magma":   colorgrad.Magma,
	"plasma":  colorgrad.Plasma,
	"turbo":   colorgrad.Turbo,
	"greys":   colorgrad.Greys,
}

// Names returns the palette names accepted by NewPalette.
func Names() []string {
	names := make([]string, 0, len(gradients))
	for n := range gradients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Palette maps density to color through a precomputed gradient table.
type Palette struct {
	name  string
	lut   [lutSize]color.RGBA
	scale float32 // density mapped to the last table entry
}

// NewPalette builds the lookup table for a named gradient. scale is the
// density shown at full intensity and must be positive.
func NewPalette(name string, scale float32) (*Palette, error) {
	mk, ok := gradients[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q", name)
	}
	if !(scale > 0) {
		return nil, fmt.Errorf("palette scale must be positive, got %v", scale)
	}
	p := &Palette{name: name, scale: scale}
	for i, c := range mk().Colors(lutSize) {
		p.lut[i] = color.RGBAModel.Convert(c).(color.RGBA)
		p.lut[i].A = 255
	}
	return p, nil
}

// Name returns the gradient name.
func (p *Palette) Name() string { return p.name }

// Density returns the color for one density value. Values outside
// [0, scale] saturate.
func (p *Palette) Density(v float32) color.RGBA {
	t := v / p.scale
	if !(t > 0) { // also catches NaN
		return p.lut[0]
	}
	if t >= 1 {
		return p.lut[lutSize-1]
	}
	return p.lut[int(t*(lutSize-1)+0.5)]
}

// FillDensity writes one pixel per cell of d into dst, which must hold d.Len() pixels.
func (p *Palette) FillDensity(dst []color.RGBA, d *field.Scalar) {
	for i, v := range d.Data[:len(dst)] {
		dst[i] = p.Density(v)
	}
}

// Velocity maps direction to hue and speed to brightness, saturating at maxSpeed.
func Velocity(v field.Vec2, maxSpeed float32) color.RGBA {
	speed := float32(math.Sqrt(float64(v.LenSq())))
	if speed == 0 || maxSpeed <= 0 {
		return color.RGBA{A: 255}
	}
	hue := math.Atan2(float64(v.Y), float64(v.X)) * 180 / math.Pi
	if hue < 0 {
		hue += 360
	}
	if hue >= 360 {
		hue = 0
	}
	val := float64(min(speed/maxSpeed, 1))
	r, g, b, err := colorconv.HSVToRGB(hue, 1, val)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// FillVelocity writes one velocity pixel per cell into dst.
func FillVelocity(dst []color.RGBA, vel *field.Vector, maxSpeed float32) {
	for i := range dst {
		dst[i] = Velocity(field.Vec2{X: vel.X.Data[i], Y: vel.Y.Data[i]}, maxSpeed)
	}
}

// Pack flattens pixels into RGBA bytes, reusing buf when large enough.
func Pack(buf []byte, px []color.RGBA) []byte {
	n := len(px) * 4
	if cap(buf) < n {
		buf = make([]byte, n)
	}
	buf = buf[:n]
	for i, c := range px {
		buf[i*4] = c.R
		buf[i*4+1] = c.G
		buf[i*4+2] = c.B
		buf[i*4+3] = c.A
	}
	return buf
}
