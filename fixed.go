package traceview

// Fixed-point number type for view parameters.
//
// Camera scale and shift values become part of tile cache keys, so they must
// be bit-exact, hashable, and reproducible. float32/float64 fail both
// requirements: relative precision varies across the zoom range (1 sample per
// pixel up to hundreds of thousands), causing jitter and unstable keys.
// A scaled int64 with a fixed number of fractional bits has neither problem.

import (
	"math"
	"math/bits"
)

// Fixed is a signed fixed-point number with 24 fractional bits,
// backed by int64.
//
// Range: approximately ±549 billion with 1/16777216 precision, which covers
// sample indices for any trace that fits in memory while keeping sub-pixel
// zoom factors exact.
type Fixed int64

const (
	// FixedShift is the number of fractional bits in Fixed.
	FixedShift = 24

	// FixedOne is 1.0 in Fixed representation.
	FixedOne Fixed = 1 << FixedShift
)

// FixedFromInt converts an integer to Fixed.
func FixedFromInt(n int) Fixed {
	return Fixed(n) << FixedShift
}

// FixedFromFloat converts a float64 to Fixed, truncating toward zero.
// Finite values beyond the representable range saturate to the nearest
// extreme; Go's float-to-int conversion is unspecified out of range and
// must never wrap a view parameter into a garbage cache key.
// Panics if f is NaN or infinite: non-finite view parameters are a
// programming error, and letting one into a cache key would poison the tile
// cache.
func FixedFromFloat(f float64) Fixed {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic("traceview: non-finite value converted to Fixed")
	}
	v := f * float64(FixedOne)
	if v >= float64(math.MaxInt64) {
		return Fixed(math.MaxInt64)
	}
	if v <= float64(math.MinInt64) {
		return Fixed(math.MinInt64)
	}
	return Fixed(v)
}

// Float returns the value as a float64.
func (x Fixed) Float() float64 {
	return float64(x) / float64(FixedOne)
}

// Float32 returns the value as a float32.
func (x Fixed) Float32() float32 {
	return float32(x.Float())
}

// Floor returns the largest integer value less than or equal to x.
func (x Fixed) Floor() int {
	return int(x >> FixedShift)
}

// Ceil returns the smallest integer value greater than or equal to x.
func (x Fixed) Ceil() int {
	return int((x + FixedOne - 1) >> FixedShift)
}

// Mul returns x*y with full 128-bit intermediate precision. Results
// beyond the representable range saturate to the nearest extreme.
func (x Fixed) Mul(y Fixed) Fixed {
	neg := false
	a, b := x, y
	if a < 0 {
		a, neg = -a, !neg
	}
	if b < 0 {
		b, neg = -b, !neg
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi>>(FixedShift-1) != 0 {
		return saturated(neg)
	}
	r := Fixed(hi<<(64-FixedShift) | lo>>FixedShift)
	if neg {
		return -r
	}
	return r
}

// Div returns x/y with full 128-bit intermediate precision. Results
// beyond the representable range saturate to the nearest extreme.
// Panics if y is zero.
func (x Fixed) Div(y Fixed) Fixed {
	if y == 0 {
		panic("traceview: fixed-point division by zero")
	}
	neg := false
	a, b := x, y
	if a < 0 {
		a, neg = -a, !neg
	}
	if b < 0 {
		b, neg = -b, !neg
	}
	hi := uint64(a) >> (64 - FixedShift)
	lo := uint64(a) << FixedShift
	if hi >= uint64(b) {
		return saturated(neg)
	}
	q, _ := bits.Div64(hi, lo, uint64(b))
	if q > math.MaxInt64 {
		return saturated(neg)
	}
	r := Fixed(q)
	if neg {
		return -r
	}
	return r
}

// saturated returns the extreme Fixed value with the given sign.
func saturated(neg bool) Fixed {
	if neg {
		return Fixed(math.MinInt64)
	}
	return Fixed(math.MaxInt64)
}

// MulInt returns x*n.
func (x Fixed) MulInt(n int) Fixed {
	return x * Fixed(n)
}

// MulFloat returns x*f as Fixed. The result is rounded to the nearest
// representable value, so it is only used for interactive adjustments
// (zoom factors), never to derive one cache key from another.
func (x Fixed) MulFloat(f float64) Fixed {
	return FixedFromFloat(x.Float() * f)
}

// Min returns the smaller of x and y.
func (x Fixed) Min(y Fixed) Fixed {
	if x < y {
		return x
	}
	return y
}

// Max returns the larger of x and y.
func (x Fixed) Max(y Fixed) Fixed {
	if x > y {
		return x
	}
	return y
}

// Clamp limits x to the range [lo, hi].
func (x Fixed) Clamp(lo, hi Fixed) Fixed {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Vec2 is a pair of Fixed values. It is comparable and therefore usable
// inside tile cache keys.
type Vec2 struct {
	X, Y Fixed
}
