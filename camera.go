package traceview

// Viewport is the screen-space rectangle a camera projects into, in logical
// points. Multiply by the device pixel ratio to obtain physical pixels.
type Viewport struct {
	Width, Height float64
}

// Camera is the view transform between world space (sample index on X,
// sample amplitude on Y) and screen space (pixels).
//
// Scale.X is the number of samples per physical pixel column. Scale.Y is a
// multiplicative gain applied to amplitudes: vertical zoom behaves like an
// amplifier, not a sample-density divisor. Shift is the world-space position
// of the viewport center.
//
// Camera is a pure value type: transforms have no side effects, and two
// cameras are equal iff their fixed-point fields are bit-identical.
type Camera struct {
	Scale Vec2
	Shift Vec2
}

// NewCamera returns a camera showing 1000 samples per pixel at unit gain,
// centered on sample 0.
func NewCamera() Camera {
	return Camera{
		Scale: Vec2{X: FixedFromInt(1000), Y: FixedOne},
	}
}

// WorldToScreenX maps a world X position (sample index) to a screen X
// coordinate in logical points.
func (c Camera) WorldToScreenX(vp Viewport, pixelRatio float64, x Fixed) float64 {
	return vp.Width/2 + (x-c.Shift.X).Div(c.Scale.X).Float()/pixelRatio
}

// ScreenToWorldX maps a screen X coordinate in logical points back to a
// world X position. Exact inverse of WorldToScreenX up to one fixed-point
// unit.
func (c Camera) ScreenToWorldX(vp Viewport, pixelRatio float64, screenX float64) Fixed {
	return c.Scale.X.Mul(FixedFromFloat((screenX-vp.Width/2)*pixelRatio)) + c.Shift.X
}

// WorldToScreenY maps an amplitude to a screen Y coordinate in logical
// points. Screen Y grows downward, so positive amplitudes map above the
// viewport center.
func (c Camera) WorldToScreenY(vp Viewport, pixelRatio float64, amplitude float64) float64 {
	return vp.Height/2 - (FixedFromFloat(amplitude)+c.Shift.Y).Mul(c.Scale.Y).Float()/pixelRatio
}

// ScreenToWorldY maps a screen Y coordinate in logical points back to an
// amplitude. Exact inverse of WorldToScreenY up to one fixed-point unit.
func (c Camera) ScreenToWorldY(vp Viewport, pixelRatio float64, screenY float64) float64 {
	return (FixedFromFloat((vp.Height/2 - screenY) * pixelRatio).Div(c.Scale.Y) - c.Shift.Y).Float()
}

// ZoomX multiplies the horizontal scale by factor around the given screen X
// position, so the sample under the cursor stays under the cursor. The scale
// is clamped to [FixedOne, MaxScaleX()]: below one sample per pixel the
// density rendering degenerates, and above the limit a single tile would
// exceed the renderer's chunk capacity.
func (c *Camera) ZoomX(vp Viewport, pixelRatio, factor, screenX float64) {
	s1 := c.Scale.X
	s2 := s1.MulFloat(factor).Clamp(FixedOne, MaxScaleX())
	k := FixedFromFloat((screenX - vp.Width/2) * pixelRatio)
	c.Shift.X = s1.Mul(k) + c.Shift.X - s2.Mul(k)
	c.Scale.X = s2
}

// ZoomY multiplies the vertical gain by factor. The gain is kept strictly
// positive.
func (c *Camera) ZoomY(factor float64) {
	c.Scale.Y = c.Scale.Y.MulFloat(factor).Max(FixedFromFloat(0.001))
}

// Pan shifts the camera by a screen-space delta in logical points.
func (c *Camera) Pan(pixelRatio, dx, dy float64) {
	if dx != 0 {
		c.Shift.X -= FixedFromFloat(dx * pixelRatio).Mul(c.Scale.X)
	}
	if dy != 0 {
		c.Shift.Y -= FixedFromFloat(dy * pixelRatio).Div(c.Scale.Y)
	}
}

// Autoscale sets scale and shift so the whole trace fits the viewport, with
// the amplitude range [lo, hi] occupying three quarters of its height.
func (c *Camera) Autoscale(vp Viewport, pixelRatio float64, traceLen int, lo, hi float32) {
	length := FixedFromInt(traceLen)
	c.Scale.X = length.Div(FixedFromFloat(vp.Width * pixelRatio)).Clamp(FixedOne, MaxScaleX())
	c.Shift.X = length / 2
	span := float64(hi - lo)
	if span > 0 {
		c.Scale.Y = FixedFromFloat(vp.Height * pixelRatio * 0.75 / span)
	} else {
		c.Scale.Y = FixedOne
	}
	c.Shift.Y = -FixedFromFloat(float64(lo+hi) / 2)
}

// MaxScaleX returns the largest horizontal scale (samples per pixel) a
// renderer backend can serve at the default tile width: one tile at this
// scale spans just under the maximum chunk capacity. Viewers using a
// different tile width re-clamp against MaxScaleXFor before requesting
// tiles.
func MaxScaleX() Fixed {
	return MaxScaleXFor(DefaultTileWidth)
}

// MaxScaleXFor returns the largest horizontal scale a renderer backend
// can serve with the given tile width. Wider tiles span more samples per
// pixel column budget, so their scale ceiling is proportionally lower.
func MaxScaleXFor(tileWidth int) Fixed {
	if tileWidth < 1 {
		tileWidth = DefaultTileWidth
	}
	return FixedFromInt((MaxChunkSamples - 1) / tileWidth)
}
