package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 0.01 }

func TestNew(t *testing.T) {
	cam := New(960, 600, 320, 200)

	if cam.X != 160 || cam.Y != 100 {
		t.Errorf("expected camera at (160, 100), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
	if cam.Scale() != 3 {
		t.Errorf("expected 3 px per cell, got %f", cam.Scale())
	}
}

func TestGridToScreenCentered(t *testing.T) {
	cam := New(960, 600, 320, 200)

	sx, sy := cam.GridToScreen(160, 100)
	if !near(sx, 480) || !near(sy, 300) {
		t.Errorf("expected screen center (480, 300), got (%f, %f)", sx, sy)
	}
}

func TestScreenToGridRoundtrip(t *testing.T) {
	cam := New(960, 600, 320, 200)
	cam.SetZoom(2.5)
	cam.Pan(40, -25)

	testCases := []struct{ sx, sy float32 }{
		{480, 300}, // center
		{10, 10},   // top-left
		{900, 580}, // near bottom-right
	}

	for _, tc := range testCases {
		gx, gy := cam.ScreenToGrid(tc.sx, tc.sy)
		sx, sy := cam.GridToScreen(gx, gy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, gx, gy, sx, sy)
		}
	}
}

func TestLetterbox(t *testing.T) {
	// Wider viewport than grid aspect: height limits the fit.
	cam := New(1000, 600, 320, 200)

	x, y, w, h := cam.GridRect()
	if !near(x, 20) || !near(y, 0) || !near(w, 960) || !near(h, 600) {
		t.Errorf("grid rect = (%f, %f, %f, %f), want (20, 0, 960, 600)", x, y, w, h)
	}

	gx, _ := cam.ScreenToGrid(10, 300)
	if cam.Contains(gx, 100) {
		t.Errorf("letterbox column mapped onto the grid at x=%f", gx)
	}
}

func TestScreenToCellCentresCells(t *testing.T) {
	cam := New(960, 600, 320, 200)

	tests := []struct {
		name           string
		sx, sy         float32
		wantCX, wantCY float32
	}{
		{"first cell centre", 1.5, 1.5, 0, 0},
		{"last cell centre", 958.5, 598.5, 319, 199},
		{"top-left corner", 0, 0, -0.5, -0.5},
		{"screen centre", 480, 300, 159.5, 99.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cx, cy := cam.ScreenToCell(tt.sx, tt.sy)
			if !near(cx, tt.wantCX) || !near(cy, tt.wantCY) {
				t.Errorf("ScreenToCell(%v, %v) = (%f, %f), want (%v, %v)", tt.sx, tt.sy, cx, cy, tt.wantCX, tt.wantCY)
			}
		})
	}
}

func TestPanClampsToGrid(t *testing.T) {
	cam := New(960, 600, 320, 200)

	// Fully zoomed out there is nothing to pan to.
	cam.Pan(-500, 300)
	if cam.X != 160 || cam.Y != 100 {
		t.Errorf("expected fitted view to stay centred, got (%f, %f)", cam.X, cam.Y)
	}

	cam.SetZoom(2)
	cam.Pan(-10000, -10000)
	minX, minY, _, _ := cam.VisibleGridBounds()
	if !near(minX, 0) || !near(minY, 0) {
		t.Errorf("expected view pinned to top-left, got min (%f, %f)", minX, minY)
	}
	if !near(cam.X, 80) || !near(cam.Y, 50) {
		t.Errorf("expected centre (80, 50), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(960, 600, 320, 200)

	cam.SetZoom(0.1)
	if cam.Zoom != 1 {
		t.Errorf("expected zoom clamped to 1, got %f", cam.Zoom)
	}

	cam.SetZoom(100)
	if cam.Zoom != 8 {
		t.Errorf("expected zoom clamped to 8, got %f", cam.Zoom)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := New(960, 600, 320, 200)

	gx0, gy0 := cam.ScreenToGrid(600, 350)
	cam.ZoomAt(600, 350, 2)
	gx1, gy1 := cam.ScreenToGrid(600, 350)
	if !near(gx0, gx1) || !near(gy0, gy1) {
		t.Errorf("point under cursor moved: (%f,%f) -> (%f,%f)", gx0, gy0, gx1, gy1)
	}
}

func TestContains(t *testing.T) {
	cam := New(960, 600, 320, 200)

	tests := []struct {
		gx, gy float32
		want   bool
	}{
		{0, 0, true},
		{319.9, 199.9, true},
		{320, 100, false},
		{-0.1, 100, false},
		{100, 200, false},
	}
	for _, tt := range tests {
		if got := cam.Contains(tt.gx, tt.gy); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.gx, tt.gy, got, tt.want)
		}
	}
}

func TestSetGridResets(t *testing.T) {
	cam := New(960, 600, 320, 200)
	cam.SetZoom(3)
	cam.Pan(100, 100)

	cam.SetGrid(64, 40)

	if cam.X != 32 || cam.Y != 20 || cam.Zoom != 1 {
		t.Errorf("expected reset view on new grid, got (%f, %f) zoom %f", cam.X, cam.Y, cam.Zoom)
	}
	if cam.Scale() != 15 {
		t.Errorf("expected 15 px per cell, got %f", cam.Scale())
	}
}

func TestReset(t *testing.T) {
	cam := New(960, 600, 320, 200)
	cam.X = 50
	cam.Y = 50
	cam.Zoom = 2.5

	cam.Reset()

	if cam.X != 160 || cam.Y != 100 {
		t.Errorf("expected position (160, 100), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}
