package floatx

import (
	"errors"
	"math"
)

// ErrNoNaN is returned when NaN is encoded into a format with no NaN code.
var ErrNoNaN = errors.New("format cannot represent NaN")

// specialKind classifies how an MX format spends its all-ones exponent.
type specialKind uint8

const (
	specialNone   specialKind = iota // full range is finite (E3M2, E2M3, E2M1)
	specialInfNaN                    // exp all-ones: mant 0 is inf, rest NaN (E5M2)
	specialNaN                       // exp and mant all-ones is NaN, no inf (E4M3)
)

// MXFormat describes one signed member of the OCP microscaling family.
// Width is 1 + ExpBits + MantBits and ranges from 4 (E2M1) to 8 bits.
type MXFormat struct {
	Name     string
	ExpBits  int
	MantBits int
	bias     int
	special  specialKind
}

var (
	E5M2 = &MXFormat{Name: "e5m2mxfp", ExpBits: 5, MantBits: 2, bias: 15, special: specialInfNaN}
	E4M3 = &MXFormat{Name: "e4m3mxfp", ExpBits: 4, MantBits: 3, bias: 7, special: specialNaN}
	E3M2 = &MXFormat{Name: "e3m2mxfp", ExpBits: 3, MantBits: 2, bias: 3, special: specialNone}
	E2M3 = &MXFormat{Name: "e2m3mxfp", ExpBits: 2, MantBits: 3, bias: 1, special: specialNone}
	E2M1 = &MXFormat{Name: "e2m1mxfp", ExpBits: 2, MantBits: 1, bias: 1, special: specialNone}
)

// Width returns the format's total bit width including the sign bit.
func (f *MXFormat) Width() int {
	return 1 + f.ExpBits + f.MantBits
}

func (f *MXFormat) signMask() uint8 {
	return 1 << (f.Width() - 1) //nolint:gosec // width <= 8
}

func (f *MXFormat) magMask() uint8 {
	return f.signMask() - 1
}

// maxFiniteMag is the largest magnitude code with a finite value.
func (f *MXFormat) maxFiniteMag() int {
	switch f.special {
	case specialInfNaN:
		// Exponent all-ones is inf/NaN; stop one exponent short.
		return int(f.magMask()) - (1 << f.MantBits)
	case specialNaN:
		// Only the all-ones code is NaN.
		return int(f.magMask()) - 1
	default:
		return int(f.magMask())
	}
}

// MaxFinite returns the largest finite magnitude the format represents.
func (f *MXFormat) MaxFinite() float64 {
	return decodeMag(f.maxFiniteMag(), f.MantBits, f.bias)
}

// Decode returns the value of code u. Codes wider than the format width
// must be masked by the caller.
func (f *MXFormat) Decode(u uint8) float64 {
	neg := u&f.signMask() != 0
	mag := int(u & f.magMask())

	expAllOnes := 1<<f.ExpBits - 1
	e := mag >> f.MantBits
	m := mag & (1<<f.MantBits - 1)

	switch f.special {
	case specialInfNaN:
		if e == expAllOnes {
			if m != 0 {
				return math.NaN()
			}
			if neg {
				return math.Inf(-1)
			}

			return math.Inf(1)
		}
	case specialNaN:
		if e == expAllOnes && m == 1<<f.MantBits-1 {
			return math.NaN()
		}
	}

	v := decodeMag(mag, f.MantBits, f.bias)
	if neg {
		return -v
	}

	return v
}

func (f *MXFormat) infCode() uint8 {
	// Exponent all-ones, mantissa zero.
	return (f.magMask() >> f.MantBits) << f.MantBits
}

func (f *MXFormat) nanCode() uint8 {
	switch f.special {
	case specialInfNaN:
		return f.infCode() | 1
	case specialNaN:
		return f.magMask()
	default:
		return 0
	}
}

// Encode returns the code nearest to v after narrowing through float16,
// resolving ties to even.
//
// Out-of-range magnitudes follow the overflow policy on formats with
// special codes (E5M2 saturates or overflows to infinity, E4M3 to NaN);
// the fully-finite formats always saturate. Encoding NaN into a format
// with no NaN code returns ErrNoNaN.
func (f *MXFormat) Encode(v float64, policy OverflowPolicy) (uint8, error) {
	if math.IsNaN(v) {
		if f.special == specialNone {
			return 0, ErrNoNaN
		}

		return f.nanCode(), nil
	}

	var sign uint8
	if math.Signbit(v) {
		sign = f.signMask()
	}

	a := math.Abs(roundThrough16(v))
	if a > f.MaxFinite() {
		if policy == Overflow {
			switch f.special {
			case specialInfNaN:
				return sign | f.infCode(), nil
			case specialNaN:
				return sign | f.nanCode(), nil
			}
		}

		return sign | uint8(f.maxFiniteMag()), nil //nolint:gosec
	}

	mag := nearestMag(a, f.maxFiniteMag(), func(m int) float64 { return decodeMag(m, f.MantBits, f.bias) })

	return sign | uint8(mag), nil //nolint:gosec // mag <= magMask
}

// DecodeE8M0 returns the value of an E8M0 code: an unsigned power-of-two
// exponent with bias 127. Code 0xFF is NaN.
func DecodeE8M0(u uint8) float64 {
	if u == 0xFF {
		return math.NaN()
	}

	return math.Ldexp(1, int(u)-127)
}

// ErrNotPowerOfTwo is returned when an E8M0 encode receives a value that is
// not an exact representable power of two.
var ErrNotPowerOfTwo = errors.New("value is not a representable power of two")

// EncodeE8M0 encodes an exact power of two in [2^-127, 2^127] or NaN.
//
// E8M0 values are scale factors and must be specified exactly: no rounding
// of any kind is performed, and any other input is rejected.
func EncodeE8M0(v float64) (uint8, error) {
	if math.IsNaN(v) {
		return 0xFF, nil
	}
	if v <= 0 || math.IsInf(v, 0) {
		return 0, ErrNotPowerOfTwo
	}

	m, e := math.Frexp(v) // v = m * 2^e with 0.5 <= m < 1
	if m != 0.5 {
		return 0, ErrNotPowerOfTwo
	}

	k := e - 1 // v == 2^k
	if k < -127 || k > 127 {
		return 0, ErrNotPowerOfTwo
	}

	return uint8(k + 127), nil //nolint:gosec // bounded above
}

// DecodeMXInt8 returns the value of an MXINT8 code: an 8-bit two's
// complement mantissa implicitly scaled by 2^-6.
func DecodeMXInt8(u uint8) float64 {
	return float64(int8(u)) / 64
}

// EncodeMXInt8 encodes v as MXINT8, rounding to nearest even and
// saturating to the representable range [-2, 127/64].
func EncodeMXInt8(v float64) (uint8, error) {
	if math.IsNaN(v) {
		return 0, ErrNoNaN
	}

	r := math.RoundToEven(v * 64)
	switch {
	case r < -128:
		r = -128
	case r > 127:
		r = 127
	}

	return uint8(int8(r)), nil
}
