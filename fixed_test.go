package traceview

import (
	"math"
	"testing"
)

func TestFixedFromFloatNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("FixedFromFloat(%v) did not panic", v)
				}
			}()
			FixedFromFloat(v)
		}()
	}
}

func TestFixedMul(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"integers", 2, 3, 6},
		{"halves", 0.5, 0.5, 0.25},
		{"mixed", 1.5, 2, 3},
		{"negative", -1.5, 2, -3},
		{"both negative", -1.5, -2, 3},
		{"large", 1 << 30, 2, 1 << 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixedFromFloat(tt.a).Mul(FixedFromFloat(tt.b))
			if got != FixedFromFloat(tt.want) {
				t.Errorf("%v * %v = %v, want %v", tt.a, tt.b, got.Float(), tt.want)
			}
		})
	}
}

func TestFixedMulLargePrecision(t *testing.T) {
	// 2^20 * 2^10 overflows a plain int64 multiply of the raw
	// representations; the 128-bit intermediate must keep it exact.
	a := FixedFromInt(1 << 20)
	b := FixedFromInt(1 << 10)
	want := FixedFromInt(1 << 30)
	if got := a.Mul(b); got != want {
		t.Errorf("Mul = %v, want %v", got, want)
	}
}

func TestFixedDiv(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"integers", 6, 3, 2},
		{"fraction", 1, 4, 0.25},
		{"negative", -6, 3, -2},
		{"both negative", -6, -3, 2},
		{"identity", 123456, 1, 123456},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixedFromFloat(tt.a).Div(FixedFromFloat(tt.b))
			if got != FixedFromFloat(tt.want) {
				t.Errorf("%v / %v = %v, want %v", tt.a, tt.b, got.Float(), tt.want)
			}
		})
	}
}

func TestFixedDivLargeNumerator(t *testing.T) {
	// The raw numerator shifted by FixedShift exceeds 64 bits; the
	// 128-bit intermediate keeps full precision.
	a := FixedFromInt(MaxChunkSamples)
	got := a.Div(FixedFromInt(2))
	if got != FixedFromInt(MaxChunkSamples/2) {
		t.Errorf("Div = %v, want %v", got.Float(), MaxChunkSamples/2)
	}
}

func TestFixedMulDivRoundTrip(t *testing.T) {
	for _, v := range []float64{1, 3, 1000.25, 99999.5} {
		x := FixedFromFloat(v)
		y := FixedFromFloat(7.5)
		back := x.Mul(y).Div(y)
		if diff := back - x; diff < -2 || diff > 2 {
			t.Errorf("round trip of %v drifted by %d units", v, diff)
		}
	}
}

func TestFixedFloorCeil(t *testing.T) {
	tests := []struct {
		v          float64
		floor, cei int
	}{
		{0, 0, 0},
		{1.5, 1, 2},
		{2, 2, 2},
		{-1.5, -2, -1},
		{-2, -2, -2},
		{0.001, 0, 1},
	}
	for _, tt := range tests {
		x := FixedFromFloat(tt.v)
		if got := x.Floor(); got != tt.floor {
			t.Errorf("Floor(%v) = %d, want %d", tt.v, got, tt.floor)
		}
		if got := x.Ceil(); got != tt.cei {
			t.Errorf("Ceil(%v) = %d, want %d", tt.v, got, tt.cei)
		}
	}
}

func TestFixedClamp(t *testing.T) {
	lo, hi := FixedFromInt(1), FixedFromInt(10)
	if got := FixedFromInt(0).Clamp(lo, hi); got != lo {
		t.Errorf("Clamp below = %v", got.Float())
	}
	if got := FixedFromInt(20).Clamp(lo, hi); got != hi {
		t.Errorf("Clamp above = %v", got.Float())
	}
	if got := FixedFromInt(5).Clamp(lo, hi); got != FixedFromInt(5) {
		t.Errorf("Clamp inside = %v", got.Float())
	}
}

func TestFixedFromFloatSaturates(t *testing.T) {
	if got := FixedFromFloat(1e300); got != Fixed(math.MaxInt64) {
		t.Errorf("huge positive value = %d, want saturation at MaxInt64", got)
	}
	if got := FixedFromFloat(-1e300); got != Fixed(math.MinInt64) {
		t.Errorf("huge negative value = %d, want saturation at MinInt64", got)
	}
	// Just inside the range still converts exactly.
	if got := FixedFromInt(1 << 30); got.Floor() != 1<<30 {
		t.Errorf("in-range value = %d, want %d", got.Floor(), 1<<30)
	}
}

func TestMulSaturates(t *testing.T) {
	big := Fixed(math.MaxInt64)
	if got := big.Mul(FixedFromInt(1000)); got != Fixed(math.MaxInt64) {
		t.Errorf("overflowing Mul = %d, want saturation at MaxInt64", got)
	}
	if got := big.Mul(FixedFromInt(-1000)); got != Fixed(math.MinInt64) {
		t.Errorf("overflowing negative Mul = %d, want saturation at MinInt64", got)
	}
}

func TestDivSaturates(t *testing.T) {
	big := Fixed(math.MaxInt64)
	if got := big.Div(FixedFromFloat(0.001)); got != Fixed(math.MaxInt64) {
		t.Errorf("overflowing Div = %d, want saturation at MaxInt64", got)
	}
	if got := big.Div(FixedFromFloat(-0.001)); got != Fixed(math.MinInt64) {
		t.Errorf("overflowing negative Div = %d, want saturation at MinInt64", got)
	}
}

func TestDivByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("division by zero did not panic")
		}
	}()
	FixedOne.Div(0)
}
