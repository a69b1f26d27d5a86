// Package fixedpoint implements the Q16.16 and Q48.16 signed fixed-point
// scalar types used throughout the world field sampling engine. All field
// values, ratios, thresholds, slopes and radii in the core are Q16.16;
// world positions that need more range use Q48.16. Arithmetic is exact
// integer arithmetic; there is no rounding error to accumulate across
// queries, which is what makes the engine's determinism guarantee possible.
package fixedpoint

import "math"

// Shift is the number of fractional bits in a Q16.16 value.
const Shift = 16

// One is the Q16.16 representation of 1.0.
const One Q16 = 1 << Shift

// Unknown is the reserved sentinel value meaning "field not evaluated".
// It is never a valid in-range sample value: every declared field range
// excludes math.MinInt32.
const Unknown Q16 = Q16(math.MinInt32)

// Q16 is a signed Q16.16 fixed-point scalar: value = raw / 2^16.
type Q16 int32

// Q48 is a signed Q48.16 fixed-point scalar, used for high-precision world
// positions where Q16.16's ~32,767 unit range is insufficient.
type Q48 int64

// IsUnknown reports whether v is the UNKNOWN_Q16 sentinel.
func (v Q16) IsUnknown() bool { return v == Unknown }

// FromFloat converts a float64 to Q16.16. It exists only at test and
// fixture boundaries — never on a hot path.
func FromFloat(f float64) Q16 {
	return Q16(math.Round(f * float64(One)))
}

// Float converts a Q16.16 value to float64, for diagnostics/export only.
// Calling Float on Unknown returns math.NaN, never a false zero.
func (v Q16) Float() float64 {
	if v.IsUnknown() {
		return math.NaN()
	}
	return float64(v) / float64(One)
}

// FromInt converts a whole number to Q16.16 exactly.
func FromInt(i int32) Q16 { return Q16(int64(i) << Shift) }

// Int rounds toward negative infinity (floor) to a whole number.
func (v Q16) Int() int32 { return int32(v >> Shift) }

// Add returns v+w. Overflow wraps per Go int32 semantics, matching the
// source engine's behavior; callers operating near the sentinel's extreme
// range are expected to clamp inputs upstream (see Clamp).
func (v Q16) Add(w Q16) Q16 { return v + w }

// Sub returns v-w.
func (v Q16) Sub(w Q16) Q16 { return v - w }

// Neg returns -v.
func (v Q16) Neg() Q16 { return -v }

// Mul returns v*w using a 64-bit intermediate to avoid premature overflow,
// then rescales by 2^16.
func (v Q16) Mul(w Q16) Q16 {
	return Q16((int64(v) * int64(w)) >> Shift)
}

// MulWide returns v*w as Q48.16 rather than narrowing back to Q16.16,
// for callers accumulating several products (e.g. a sum of squares for a
// 3D magnitude) where an intermediate Q16.16 narrow could overflow even
// though the final result, after Sqrt and Q48.Q16, fits.
func (v Q16) MulWide(w Q16) Q48 {
	return Q48((int64(v) * int64(w)) >> Shift)
}

// Div returns v/w using a 64-bit intermediate. Div by zero returns Unknown
// rather than panicking, since a zero divisor in this engine's formulas
// (e.g. a zero period or zero shape scale) signals a misconfigured
// descriptor, not an arithmetic result that should propagate as data.
func (v Q16) Div(w Q16) Q16 {
	if w == 0 {
		return Unknown
	}
	return Q16((int64(v) << Shift) / int64(w))
}

// Abs returns the absolute value of v.
func (v Q16) Abs() Q16 {
	if v < 0 {
		return -v
	}
	return v
}

// Clamp restricts v to [lo,hi]. Clamp never alters an Unknown value, to
// respect the "never silently clamped when the source was unknown"
// invariant (spec.md §3).
func (v Q16) Clamp(lo, hi Q16) Q16 {
	if v.IsUnknown() {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp returns a linearly-interpolated value between a and b at ratio t,
// where t is expected to be in [0, One] but is not required to be.
// Lerp never propagates Unknown silently — if a, b, or t is Unknown the
// result is Unknown.
func Lerp(a, b, t Q16) Q16 {
	if a.IsUnknown() || b.IsUnknown() || t.IsUnknown() {
		return Unknown
	}
	return a + (b-a).Mul(t)
}

// Min returns the smaller of a and b, ignoring Unknown-ness (callers are
// expected to have already branched on unknown fields before reaching a
// Min/Max comparison).
func Min(a, b Q16) Q16 {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Q16) Q16 {
	if a > b {
		return a
	}
	return b
}

// Sqrt computes an integer-exact Q16.16 square root via a binary digit-by-
// digit algorithm (no floating point). Sqrt of a negative value returns
// Unknown.
func (v Q16) Sqrt() Q16 {
	if v.IsUnknown() || v < 0 {
		return Unknown
	}
	// Operate on the value scaled up by one more factor of 2^16 so the
	// result, after a final integer sqrt, is back in Q16.16.
	op := uint64(v) << Shift
	var res uint64
	bit := uint64(1) << 62
	for bit > op {
		bit >>= 2
	}
	for bit != 0 {
		if op >= res+bit {
			op -= res + bit
			res = res/2 + bit
		} else {
			res /= 2
		}
		bit >>= 2
	}
	return Q16(res)
}

// FloorDiv performs Q16.16-floor-division of v by cellSize, returning the
// integer cell index. This is how world points are mapped onto the
// integer lattice that value noise operates on (spec.md §4.1): there is no
// interpolation, so floor-division (not truncation) must be exact and
// consistent for negative coordinates too.
func (v Q16) FloorDiv(cellSize Q16) int32 {
	if cellSize == 0 {
		return 0
	}
	n := int64(v) / int64(cellSize)
	rem := int64(v) - n*int64(cellSize)
	if rem != 0 && ((rem < 0) != (int64(cellSize) < 0)) {
		n--
	}
	return int32(n)
}

// RoundToGrid implements the resolution ladder's banker's-style midpoint
// rounding for nearest-sample lookup (spec.md §4.2): given a coordinate
// offset `rem` within a cell of size `step`, round up iff rem*2 >= step.
func RoundToGrid(rem, step Q16) bool {
	return int64(rem)*2 >= int64(step)
}

// Q48FromQ16 widens a Q16.16 value to Q48.16 without loss.
func Q48FromQ16(v Q16) Q48 { return Q48(v) }

// Add returns v+w for Q48.16 values.
func (v Q48) Add(w Q48) Q48 { return v + w }

// Sub returns v-w for Q48.16 values.
func (v Q48) Sub(w Q48) Q48 { return v - w }

// Sqrt computes an integer-exact Q48.16 square root via the same
// digit-by-digit algorithm as Q16.Sqrt, for magnitudes (e.g. a 3D distance
// built from a sum of squares) that would overflow Q16.16 as an
// intermediate but whose final square root fits comfortably. Sqrt of a
// negative value returns the widened Unknown sentinel, which Q48.Q16
// narrows back to Unknown.
func (v Q48) Sqrt() Q48 {
	if v < 0 {
		return Q48(Unknown)
	}
	op := uint64(v) << Shift
	var res uint64
	bit := uint64(1) << 62
	for bit > op {
		bit >>= 2
	}
	for bit != 0 {
		if op >= res+bit {
			op -= res + bit
			res = res/2 + bit
		} else {
			res /= 2
		}
		bit >>= 2
	}
	return Q48(res)
}

// Q16 narrows a Q48.16 value to Q16.16, saturating at the int32 range
// rather than wrapping, since Q48.16 is used precisely to hold positions
// that may briefly exceed the Q16.16 range during computation. The widened
// Unknown sentinel narrows back to Unknown; any other value below the
// int32 range saturates to one above Unknown.
func (v Q48) Q16() Q16 {
	const maxQ16 = int64(math.MaxInt32)
	const minQ16 = int64(math.MinInt32 + 1) // keep one value clear of Unknown
	iv := int64(v)
	if iv == int64(Unknown) {
		return Unknown
	}
	if iv > maxQ16 {
		return Q16(maxQ16)
	}
	if iv < minQ16 {
		return Q16(minQ16)
	}
	return Q16(iv)
}
