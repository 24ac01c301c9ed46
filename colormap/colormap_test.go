package colormap

import (
	"image/color"
	"math"
	"testing"

	"github.com/pthm-cable/stablefluid/field"
)

func TestNewPalette(t *testing.T) {
	for _, name := range Names() {
		if _, err := NewPalette(name, 1); err != nil {
			t.Errorf("NewPalette(%q): %v", name, err)
		}
	}
	if _, err := NewPalette("sepia", 1); err == nil {
		t.Error("expected error for unknown palette")
	}
	if _, err := NewPalette("viridis", 0); err == nil {
		t.Error("expected error for zero scale")
	}
}

func TestDensitySaturates(t *testing.T) {
	p, err := NewPalette("greys", 2)
	if err != nil {
		t.Fatal(err)
	}
	lo := p.Density(-1)
	if lo != p.Density(0) {
		t.Error("negative density should map to the first entry")
	}
	if p.Density(float32(math.NaN())) != lo {
		t.Error("NaN should map to the first entry")
	}
	hi := p.Density(2)
	if p.Density(50) != hi {
		t.Error("density above scale should saturate")
	}
	// Greys runs light to dark or dark to light; the ends must differ.
	if lo == hi {
		t.Error("expected distinct colors at both ends")
	}
	if lo.A != 255 || hi.A != 255 {
		t.Error("palette colors must be opaque")
	}
}

func TestFillDensity(t *testing.T) {
	p, _ := NewPalette("viridis", 1)
	d := field.NewScalar(3, 2)
	d.Set(2, 1, 1)
	px := make([]color.RGBA, d.Len())
	p.FillDensity(px, d)
	if px[5] != p.Density(1) || px[0] != p.Density(0) {
		t.Error("pixels do not match per-cell colors")
	}
}

func TestVelocityColor(t *testing.T) {
	if c := Velocity(field.Vec2{}, 1); c != (color.RGBA{A: 255}) {
		t.Errorf("still fluid = %v, want black", c)
	}
	// +X is hue 0 (red) at full speed.
	if c := Velocity(field.Vec2{X: 5}, 1); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("+x = %v, want red", c)
	}
	half := Velocity(field.Vec2{X: 0.5}, 1)
	if half.R == 0 || half.R >= 255 {
		t.Errorf("half speed = %v, want dimmed red", half)
	}
}

func TestPack(t *testing.T) {
	px := []color.RGBA{{1, 2, 3, 4}, {5, 6, 7, 8}}
	buf := Pack(nil, px)
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if string(buf) != string(want) {
		t.Errorf("Pack = %v, want %v", buf, want)
	}
	again := Pack(buf, px[:1])
	if len(again) != 4 || &again[0] != &buf[0] {
		t.Error("Pack should reuse the buffer")
	}
}
