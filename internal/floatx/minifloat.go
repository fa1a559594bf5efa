package floatx

import "math"

// OverflowPolicy selects what an out-of-range encode produces for the MX
// formats that reserve special bit patterns (E5M2 and E4M3).
type OverflowPolicy uint8

const (
	// Saturate clamps out-of-range values to the maximum finite magnitude.
	Saturate OverflowPolicy = iota
	// Overflow produces the format's infinity (E5M2) or NaN (E4M3).
	Overflow
)

// decodeMag computes the value of a positive minifloat magnitude code
// (exponent and mantissa fields only, no sign bit).
func decodeMag(mag, mantBits, bias int) float64 {
	e := mag >> mantBits
	m := mag & (1<<mantBits - 1)

	if e == 0 {
		// Subnormal: m * 2^(1-bias-mantBits).
		return math.Ldexp(float64(m), 1-bias-mantBits)
	}

	// (1 + m/2^mantBits) * 2^(e-bias).
	return math.Ldexp(float64(m+1<<mantBits), e-bias-mantBits)
}

// nearestMag returns the magnitude code in [0, maxMag] whose value is
// nearest to a, resolving exact ties toward the even code. Values are
// assumed monotonically increasing in the code, which holds for every
// sign-magnitude minifloat in this package.
//
// The caller must ensure 0 <= a <= val(maxMag).
func nearestMag(a float64, maxMag int, val func(int) float64) int {
	lo, hi := 0, maxMag
	for lo < hi {
		// Largest code whose value does not exceed a.
		mid := (lo + hi + 1) / 2
		if val(mid) <= a {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	if lo == maxMag {
		return lo
	}

	below := a - val(lo)
	above := val(lo+1) - a
	switch {
	case below < above:
		return lo
	case above < below:
		return lo + 1
	case lo%2 == 0:
		return lo
	default:
		return lo + 1
	}
}

// roundThrough16 narrows a value through the 16-bit IEEE intermediate that
// all sub-byte encodes share.
func roundThrough16(f float64) float64 {
	return From16(To16(f))
}
