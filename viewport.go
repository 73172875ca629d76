package stagehand

// Viewport is the pixel surface coordinates are computed against.
// Width and Height are the renderable size in pixels.
type Viewport struct {
	Width, Height float64
}

// PixelsAtPercent converts a normalized screen fraction (0.0–1.0 per axis)
// to pixel coordinates. The conversion is linear: 0.0 maps to 0 and 1.0
// maps to the full axis extent. Fractions outside [0, 1] extrapolate and
// land off-screen.
func (v Viewport) PixelsAtPercent(fx, fy float64) Vec2 {
	return Vec2{X: fx * v.Width, Y: fy * v.Height}
}

// Center returns the pixel coordinates of the viewport center.
func (v Viewport) Center() Vec2 {
	return v.PixelsAtPercent(0.5, 0.5)
}

// Rect returns the viewport as a screen-space rectangle anchored at the origin.
func (v Viewport) Rect() Rect {
	return Rect{Width: v.Width, Height: v.Height}
}
