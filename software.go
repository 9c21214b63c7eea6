package traceview

// SoftwareRenderer is the pure Go density rasterizer: a direct loop over
// consecutive sample pairs. It is the reference implementation the GPU
// compute backend must agree with bit-for-bit, and the fallback used when no
// compute device is available.
//
// The zero value is ready to use.
type SoftwareRenderer struct{}

// NewSoftwareRenderer creates a software renderer.
func NewSoftwareRenderer() *SoftwareRenderer {
	return &SoftwareRenderer{}
}

// Render implements Renderer.
func (r *SoftwareRenderer) Render(chunkSamples uint32, samples []float32, width, height uint32, offset, scaleY float32) []uint32 {
	checkRenderLimits(len(samples), width, height)

	result := make([]uint32, width*height)
	if len(samples) < 2 || chunkSamples == 0 {
		return result
	}

	h := int32(height)
	for i := 0; i+1 < len(samples); i++ {
		x := uint32(i) * width / chunkSamples
		if x > width-1 {
			x = width - 1
		}
		p0 := samples[i] + offset
		p1 := samples[i+1] + offset
		y0 := h/2 + truncRow(p0*scaleY)
		y1 := h/2 + truncRow(p1*scaleY)
		if y0 > y1 {
			y0, y1 = y1, y0
		}
		// Clamp the span to the grid instead of skipping it entirely, so
		// a segment crossing the viewport still contributes to the rows
		// it passes through.
		if y0 < 0 {
			y0 = 0
		}
		if y1 > h-1 {
			y1 = h - 1
		}
		col := result[x*height : x*height+height]
		for y := y0; y <= y1; y++ {
			col[y]++
		}
	}
	return result
}

// truncRow converts a scaled amplitude to a row delta, truncating toward
// zero. Values beyond the grid are pinned to a sentinel far outside any
// valid tile height so the span clamp handles them; Go leaves the direct
// conversion of out-of-range floats unspecified, and the GPU shader must
// land on the same rows.
func truncRow(v float32) int32 {
	const limit = 1 << 30
	if v != v {
		return 0
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return int32(v)
}
