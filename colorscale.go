package traceview

import (
	"image/color"
	"math"
)

// ColorScale defines how a density count is turned into a displayable color.
// Min is the intensity floor for any non-zero density, Power bends the
// response curve, Opacity is a linear gain. The Gradient maps the resulting
// intensity in [0, 1] to a color.
type ColorScale struct {
	Min     float64
	Power   float64
	Opacity float64

	Gradient Gradient
}

// DefaultColorScale returns the scale used when none is configured:
// linear response, white single-color gradient.
func DefaultColorScale() ColorScale {
	return ColorScale{
		Min:      0.1,
		Power:    1.0,
		Opacity:  10.0,
		Gradient: SingleColor{End: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
	}
}

// Gradient maps a normalized density intensity in [0, 1] to a color.
type Gradient interface {
	// At returns the color for intensity t, 0.0 to 1.0.
	At(t float64) color.NRGBA

	// Name returns a short human-readable gradient name.
	Name() string
}

// SingleColor renders every density in one color, fading it in through the
// alpha channel. This is the classic oscilloscope phosphor look.
type SingleColor struct {
	End color.NRGBA
}

// At implements Gradient.
func (g SingleColor) At(t float64) color.NRGBA {
	c := g.End
	c.A = uint8(t * 255)
	return c
}

// Name implements Gradient.
func (g SingleColor) Name() string { return "Single color" }

// BiColor interpolates between two colors as density grows.
type BiColor struct {
	Start, End color.NRGBA
}

// At implements Gradient.
func (g BiColor) At(t float64) color.NRGBA {
	return lerpColor(g.Start, g.End, t)
}

// Name implements Gradient.
func (g BiColor) Name() string { return "Gradient" }

// Rainbow sweeps the hue circle from blue (cold, sparse) to red (hot,
// dense).
type Rainbow struct{}

// At implements Gradient.
func (g Rainbow) At(t float64) color.NRGBA {
	// Hue 240 (blue) down to 0 (red).
	return hsv(240*(1-t), 1, 1)
}

// Name implements Gradient.
func (g Rainbow) Name() string { return "Rainbow" }

// Stops is a gradient built from an ordered list of color stops, in the
// style of vector-graphics linear gradients. Offsets outside the stop range
// clamp to the edge colors.
type Stops []ColorStop

// ColorStop represents a color at a specific position in a gradient.
type ColorStop struct {
	Offset float64 // Position in gradient, 0.0 to 1.0
	Color  color.NRGBA
}

// At implements Gradient.
func (g Stops) At(t float64) color.NRGBA {
	if len(g) == 0 {
		return color.NRGBA{}
	}
	if t <= g[0].Offset {
		return g[0].Color
	}
	for i := 1; i < len(g); i++ {
		if t <= g[i].Offset {
			span := g[i].Offset - g[i-1].Offset
			if span <= 0 {
				return g[i].Color
			}
			return lerpColor(g[i-1].Color, g[i].Color, (t-g[i-1].Offset)/span)
		}
	}
	return g[len(g)-1].Color
}

// Name implements Gradient.
func (g Stops) Name() string { return "Stops" }

// lerpColor performs linear interpolation between two colors.
func lerpColor(c1, c2 color.NRGBA, t float64) color.NRGBA {
	t = clamp01(t)
	return color.NRGBA{
		R: uint8(float64(c1.R) + (float64(c2.R)-float64(c1.R))*t),
		G: uint8(float64(c1.G) + (float64(c2.G)-float64(c1.G))*t),
		B: uint8(float64(c1.B) + (float64(c2.B)-float64(c1.B))*t),
		A: uint8(float64(c1.A) + (float64(c2.A)-float64(c1.A))*t),
	}
}

// hsv converts hue [0,360), saturation and value in [0,1] to NRGBA.
func hsv(h, s, v float64) color.NRGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.NRGBA{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
		A: 255,
	}
}

// clamp01 clamps a value to [0, 1] range.
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// pow is math.Pow with a fast path for the common linear scale.
func pow(x, p float64) float64 {
	if p == 1 {
		return x
	}
	return math.Pow(x, p)
}
