// Package floatx implements the narrow floating-point formats that have no
// native Go representation: IEEE 754 half precision, bfloat16, the draft
// IEEE binary8 formats, and the OCP microscaling (MX) 8-bit family.
//
// All narrowing conversions round to nearest with ties to even. The sub-byte
// formats narrow through a 16-bit IEEE intermediate, so results are
// approximations of arbitrary-precision rounding, not bit-exact replicas.
package floatx

import "math"

// From16 converts an IEEE 754 half-precision bit pattern to float64.
func From16(u uint16) float64 {
	sign := 1.0
	if u&0x8000 != 0 {
		sign = -1.0
	}
	exp := int(u>>10) & 0x1F
	frac := int(u & 0x3FF)

	switch {
	case exp == 0x1F:
		if frac != 0 {
			return math.NaN()
		}

		return sign * math.Inf(1)
	case exp == 0:
		// Subnormal: frac * 2^-24.
		return sign * math.Ldexp(float64(frac), -24)
	default:
		// (1 + frac/1024) * 2^(exp-15).
		return sign * math.Ldexp(float64(frac+1024), exp-25)
	}
}

// To16 converts a float64 to the nearest IEEE 754 half-precision bit
// pattern, rounding to nearest with ties to even. Values beyond the half
// range become infinities.
func To16(f float64) uint16 {
	var sign uint16
	if math.Signbit(f) {
		sign = 0x8000
	}

	switch {
	case math.IsNaN(f):
		return sign | 0x7E00
	case math.IsInf(f, 0):
		return sign | 0x7C00
	case f == 0:
		return sign
	}

	m, e := math.Frexp(math.Abs(f)) // abs(f) = m * 2^e, 0.5 <= m < 1
	be := e - 1 + 15                // biased half exponent

	if be >= 31 {
		return sign | 0x7C00
	}

	if be <= 0 {
		// Subnormal range: count units of 2^-24. A result of 1024 is the
		// smallest normal and its encoding (0x0400) falls out naturally.
		sig := uint16(math.RoundToEven(math.Ldexp(m, e+24))) //nolint:gosec // bounded by 1024
		return sign | sig
	}

	// 11-bit significand including the hidden bit.
	sig := uint64(math.RoundToEven(math.Ldexp(m, 11)))
	if sig == 2048 {
		sig = 1024
		be++
		if be >= 31 {
			return sign | 0x7C00
		}
	}

	return sign | uint16(be)<<10 | uint16(sig&0x3FF) //nolint:gosec // be in [1,30]
}

// FromBfloat16 converts a bfloat16 bit pattern to float64.
func FromBfloat16(u uint16) float64 {
	return float64(math.Float32frombits(uint32(u) << 16))
}

// ToBfloat16 converts a float64 to bfloat16.
//
// bfloat16 is defined as a truncated float32: the value is first converted
// to single precision (rounding to nearest even) and the low 16 mantissa
// bits are then dropped. No second rounding takes place, matching the
// format's definition rather than a two-step nearest conversion.
func ToBfloat16(f float64) uint16 {
	b := math.Float32bits(float32(f))
	u := uint16(b >> 16) //nolint:gosec // intentional truncation

	if math.IsNaN(f) && u&0x7F == 0 {
		// Keep NaN quiet when all its payload lived in the dropped bits.
		u |= 0x40
	}

	return u
}
