// Package camera maps between solver grid coordinates and screen pixels.
package camera

// Camera controls the viewport onto the solver grid.
// At zoom 1 the whole grid is fitted and centred in the viewport; zooming in
// magnifies around the camera centre, which is kept inside the grid.
type Camera struct {
	// Position is the camera center in grid coordinates
	X, Y float32

	// Zoom level relative to the fitted view (1.0 = whole grid visible)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Grid dimensions in cells
	GridW, GridH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera showing the whole grid.
func New(viewportW, viewportH, gridW, gridH float32) *Camera {
	return &Camera{
		X:         gridW / 2,
		Y:         gridH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		GridW:     gridW,
		GridH:     gridH,
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
}

// Scale returns screen pixels per grid cell.
func (c *Camera) Scale() float32 {
	fit := c.ViewportW / c.GridW
	if fy := c.ViewportH / c.GridH; fy < fit {
		fit = fy
	}
	return fit * c.Zoom
}

// GridToScreen converts grid coordinates to screen coordinates.
func (c *Camera) GridToScreen(gx, gy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (gx-c.X)*s
	sy = c.ViewportH/2 + (gy-c.Y)*s
	return sx, sy
}

// ScreenToGrid converts screen coordinates to grid coordinates. Points off
// the grid map outside [0,GridW]x[0,GridH]; see Contains.
func (c *Camera) ScreenToGrid(sx, sy float32) (gx, gy float32) {
	s := c.Scale()
	gx = c.X + (sx-c.ViewportW/2)/s
	gy = c.Y + (sy-c.ViewportH/2)/s
	return gx, gy
}

// ScreenToCell converts screen coordinates to solver cell coordinates, where
// cell (i, j) is centred on (i, j) rather than spanning [i, i+1).
func (c *Camera) ScreenToCell(sx, sy float32) (cx, cy float32) {
	gx, gy := c.ScreenToGrid(sx, sy)
	return gx - 0.5, gy - 0.5
}

// Contains reports whether a grid coordinate lies on the grid.
func (c *Camera) Contains(gx, gy float32) bool {
	return gx >= 0 && gy >= 0 && gx < c.GridW && gy < c.GridH
}

// GridRect returns the screen rectangle covered by the whole grid.
func (c *Camera) GridRect() (x, y, w, h float32) {
	x, y = c.GridToScreen(0, 0)
	s := c.Scale()
	return x, y, c.GridW * s, c.GridH * s
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.clampCenter()
}

// SetGrid changes the grid dimensions after a solver resize and resets the view.
func (c *Camera) SetGrid(gridW, gridH float32) {
	c.GridW = gridW
	c.GridH = gridH
	c.Reset()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X += dx / s
	c.Y += dy / s
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor keeping the grid point under (sx, sy) fixed on
// screen, as far as the centre clamp allows.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	gx, gy := c.ScreenToGrid(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	s := c.Scale()
	c.X = gx - (sx-c.ViewportW/2)/s
	c.Y = gy - (sy-c.ViewportH/2)/s
	c.clampCenter()
}

// Reset returns the camera to the fitted view.
func (c *Camera) Reset() {
	c.X = c.GridW / 2
	c.Y = c.GridH / 2
	c.Zoom = 1.0
}

// VisibleGridBounds returns the grid-coordinate bounds of the visible area,
// clipped to the grid.
func (c *Camera) VisibleGridBounds() (minX, minY, maxX, maxY float32) {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)

	minX = clamp(c.X-halfW, 0, c.GridW)
	maxX = clamp(c.X+halfW, 0, c.GridW)
	minY = clamp(c.Y-halfH, 0, c.GridH)
	maxY = clamp(c.Y+halfH, 0, c.GridH)
	return
}

// clampCenter keeps the view on the grid. An axis narrower than the
// viewport stays centred.
func (c *Camera) clampCenter() {
	s := c.Scale()
	c.X = clampAxis(c.X, c.ViewportW/(2*s), c.GridW)
	c.Y = clampAxis(c.Y, c.ViewportH/(2*s), c.GridH)
}

func clampAxis(center, half, size float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(center, half, size-half)
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
