package traceview

import (
	"math"
	"testing"
)

func TestCameraRoundTripX(t *testing.T) {
	vp := Viewport{Width: 1280, Height: 720}
	cam := NewCamera()
	cam.Scale.X = FixedFromInt(250)
	cam.Shift.X = FixedFromInt(1_000_000)

	for _, screenX := range []float64{0, 1, 320, 640, 639.5, 1279} {
		world := cam.ScreenToWorldX(vp, 2, screenX)
		back := cam.WorldToScreenX(vp, 2, world)
		if math.Abs(back-screenX) > 0.01 {
			t.Errorf("screen %v -> world %v -> screen %v", screenX, world.Float(), back)
		}
	}
}

func TestCameraRoundTripY(t *testing.T) {
	vp := Viewport{Width: 1280, Height: 720}
	cam := NewCamera()
	cam.Scale.Y = FixedFromFloat(2.5)
	cam.Shift.Y = FixedFromFloat(-0.25)

	for _, amplitude := range []float64{0, 1, -1, 0.125, 100} {
		screen := cam.WorldToScreenY(vp, 1, amplitude)
		back := cam.ScreenToWorldY(vp, 1, screen)
		if math.Abs(back-amplitude) > 1e-4 {
			t.Errorf("amplitude %v -> screen %v -> %v", amplitude, screen, back)
		}
	}
}

func TestCameraZoomXAnchorsCursor(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 500}
	cam := NewCamera()
	cam.Scale.X = FixedFromInt(1000)
	cam.Shift.X = FixedFromInt(5_000_000)

	const screenX = 700.0
	before := cam.ScreenToWorldX(vp, 1, screenX)
	cam.ZoomX(vp, 1, 0.5, screenX)
	after := cam.ScreenToWorldX(vp, 1, screenX)

	if diff := after - before; diff < -2 || diff > 2 {
		t.Errorf("sample under cursor moved by %d fixed units", diff)
	}
	if cam.Scale.X != FixedFromInt(500) {
		t.Errorf("Scale.X = %v, want 500", cam.Scale.X.Float())
	}
}

func TestCameraZoomXClamp(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 500}
	cam := NewCamera()

	cam.ZoomX(vp, 1, 1e-9, 500)
	if cam.Scale.X != FixedOne {
		t.Errorf("zoom in clamp: Scale.X = %v, want 1", cam.Scale.X.Float())
	}

	cam.ZoomX(vp, 1, 1e6, 500)
	if cam.Scale.X != MaxScaleX() {
		t.Errorf("zoom out clamp: Scale.X = %v, want %v", cam.Scale.X.Float(), MaxScaleX().Float())
	}
}

func TestCameraZoomYStaysPositive(t *testing.T) {
	cam := NewCamera()
	for i := 0; i < 100; i++ {
		cam.ZoomY(0.01)
	}
	if cam.Scale.Y <= 0 {
		t.Errorf("Scale.Y = %v, want > 0", cam.Scale.Y.Float())
	}
}

func TestCameraPan(t *testing.T) {
	cam := NewCamera()
	cam.Scale.X = FixedFromInt(100)
	cam.Scale.Y = FixedOne

	cam.Pan(1, 10, 0)
	if cam.Shift.X != FixedFromInt(-1000) {
		t.Errorf("Shift.X = %v, want -1000", cam.Shift.X.Float())
	}

	cam.Pan(1, 0, 4)
	if cam.Shift.Y != FixedFromInt(-4) {
		t.Errorf("Shift.Y = %v, want -4", cam.Shift.Y.Float())
	}
}

func TestCameraAutoscale(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 800}
	cam := NewCamera()
	cam.Autoscale(vp, 1, 500_000, -2, 2)

	if cam.Scale.X != FixedFromInt(500) {
		t.Errorf("Scale.X = %v, want 500", cam.Scale.X.Float())
	}
	if cam.Shift.X != FixedFromInt(250_000) {
		t.Errorf("Shift.X = %v, want 250000", cam.Shift.X.Float())
	}
	// Amplitude span of 4 over three quarters of 800 pixels.
	if want := FixedFromFloat(800 * 0.75 / 4); cam.Scale.Y != want {
		t.Errorf("Scale.Y = %v, want %v", cam.Scale.Y.Float(), want.Float())
	}
	if cam.Shift.Y != FixedFromFloat(0) {
		t.Errorf("Shift.Y = %v, want 0", cam.Shift.Y.Float())
	}
}

func TestCameraAutoscaleShortTrace(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 800}
	cam := NewCamera()
	cam.Autoscale(vp, 1, 100, 1, 1)

	if cam.Scale.X != FixedOne {
		t.Errorf("Scale.X = %v, want clamp to 1", cam.Scale.X.Float())
	}
	if cam.Scale.Y != FixedOne {
		t.Errorf("flat trace Scale.Y = %v, want 1", cam.Scale.Y.Float())
	}
}

func TestZoomXLargeFactorClampsToMax(t *testing.T) {
	vp := Viewport{Width: 1280, Height: 720}
	c := NewCamera()
	c.Scale.X = FixedFromInt(10)

	// An absurd zoom-out factor overflows the intermediate product; it
	// must land on the maximum scale, never wrap around to the minimum.
	c.ZoomX(vp, 1, 1e12, 640)
	if c.Scale.X != MaxScaleX() {
		t.Errorf("Scale.X = %v, want MaxScaleX %v", c.Scale.X.Float(), MaxScaleX().Float())
	}

	c.Scale.X = FixedFromInt(10)
	c.ZoomX(vp, 1, 1e-12, 640)
	if c.Scale.X != FixedOne {
		t.Errorf("Scale.X = %v, want FixedOne after extreme zoom in", c.Scale.X.Float())
	}
}

func TestPanHugeDeltaSaturates(t *testing.T) {
	c := NewCamera()
	c.Pan(1, 1e12, 0)

	// Panning right moves the shift left; a delta past the fixed-point
	// range saturates with the correct sign instead of wrapping.
	if c.Shift.X != -Fixed(math.MaxInt64) {
		t.Errorf("Shift.X = %d, want saturation at -MaxInt64", c.Shift.X)
	}
}

func TestMaxScaleXFor(t *testing.T) {
	if MaxScaleXFor(DefaultTileWidth) != MaxScaleX() {
		t.Error("MaxScaleXFor at the default tile width disagrees with MaxScaleX")
	}
	if MaxScaleXFor(0) != MaxScaleX() {
		t.Error("MaxScaleXFor(0) must fall back to the default tile width")
	}
	for _, w := range []int{32, 64, 128, 500} {
		span := MaxScaleXFor(w).MulInt(w).Floor()
		if span > MaxChunkSamples {
			t.Errorf("tile width %d at max scale spans %d samples, over capacity %d", w, span, MaxChunkSamples)
		}
	}
	if MaxScaleXFor(128) >= MaxScaleXFor(64) {
		t.Error("wider tiles must have a lower scale ceiling")
	}
}
