// Package renderer draws solver frames with raylib.
package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluid/camera"
	"github.com/pthm-cable/stablefluid/colormap"
	"github.com/pthm-cable/stablefluid/fluid"
)

// Mode selects which field the texture shows.
type Mode int

const (
	ShowDensity Mode = iota
	ShowVelocity
)

func (m Mode) String() string {
	if m == ShowVelocity {
		return "velocity"
	}
	return "density"
}

// FieldRenderer is a fluid.Sink that colours the latest frame into a texture
// stretched over the grid's screen rectangle. Present only touches CPU
// memory; the upload happens in Draw.
type FieldRenderer struct {
	Mode    Mode
	palette *colormap.Palette

	tex        rl.Texture2D
	texW, texH int
	pixels     []color.RGBA
	dirty      bool

	initialized bool
}

// NewFieldRenderer creates a renderer using the given density palette.
func NewFieldRenderer(palette *colormap.Palette) *FieldRenderer {
	return &FieldRenderer{palette: palette}
}

// Init allocates the texture (must be called after the raylib window is
// created). Calling it with a new size replaces the texture.
func (r *FieldRenderer) Init(gridW, gridH int) {
	if r.initialized && r.texW == gridW && r.texH == gridH {
		return
	}
	if r.initialized {
		rl.UnloadTexture(r.tex)
	}

	r.texW = gridW
	r.texH = gridH
	r.pixels = make([]color.RGBA, gridW*gridH)

	img := rl.GenImageColor(gridW, gridH, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterBilinear)
	rl.SetTextureWrap(r.tex, rl.WrapClamp)
	rl.UnloadImage(img)

	r.initialized = true
}

// SetPalette swaps the density palette.
func (r *FieldRenderer) SetPalette(p *colormap.Palette) {
	r.palette = p
}

// Present colours the frame into the pixel buffer.
func (r *FieldRenderer) Present(f fluid.Frame) {
	w, h := f.Density.W, f.Density.H
	if !r.initialized || w != r.texW || h != r.texH {
		r.Init(w, h)
	}

	switch r.Mode {
	case ShowVelocity:
		colormap.FillVelocity(r.pixels, f.Velocity, maxSpeed(f))
	default:
		r.palette.FillDensity(r.pixels, f.Density)
	}
	r.dirty = true
}

// maxSpeed bounds the speed in the frame from the component maxima.
func maxSpeed(f fluid.Frame) float32 {
	mx, my := f.Velocity.X.MaxAbs(), f.Velocity.Y.MaxAbs()
	return float32(math.Sqrt(float64(mx*mx + my*my)))
}

// Draw uploads pending pixels and draws the grid through the camera.
func (r *FieldRenderer) Draw(cam *camera.Camera) {
	if !r.initialized {
		return
	}
	if r.dirty {
		rl.UpdateTexture(r.tex, r.pixels)
		r.dirty = false
	}

	x, y, w, h := cam.GridRect()
	srcRect := rl.Rectangle{X: 0, Y: 0, Width: float32(r.texW), Height: float32(r.texH)}
	dstRect := rl.Rectangle{X: x, Y: y, Width: w, Height: h}
	rl.DrawTexturePro(r.tex, srcRect, dstRect, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *FieldRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
