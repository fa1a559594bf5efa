package floatx

import (
	"math"
	"sync"
)

// Binary8 describes one of the draft IEEE 8-bit binary formats.
//
// The formats are sign-magnitude with no negative zero: code 0x00 is the
// only zero, 0x80 is the single NaN, and 0x7F/0xFF are the infinities.
// Everything else follows the usual subnormal/normal minifloat rules.
type Binary8 struct {
	Name     string
	mantBits int
	bias     int

	once  sync.Once
	table [256]float64
}

var (
	// P4Binary8 is the 1+4+3 draft binary8 format (precision 4, bias 8).
	P4Binary8 = &Binary8{Name: "p4binary8", mantBits: 3, bias: 8}
	// P3Binary8 is the 1+5+2 draft binary8 format (precision 3, bias 16).
	P3Binary8 = &Binary8{Name: "p3binary8", mantBits: 2, bias: 16}
)

func (f *Binary8) decode(u uint8) float64 {
	switch u {
	case 0x00:
		return 0
	case 0x80:
		return math.NaN()
	case 0x7F:
		return math.Inf(1)
	case 0xFF:
		return math.Inf(-1)
	}

	v := decodeMag(int(u&0x7F), f.mantBits, f.bias)
	if u&0x80 != 0 {
		return -v
	}

	return v
}

// Decode returns the value of the 8-bit code u.
func (f *Binary8) Decode(u uint8) float64 {
	f.once.Do(func() {
		for i := range 256 {
			f.table[i] = f.decode(uint8(i)) //nolint:gosec
		}
	})

	return f.table[u]
}

// MaxFinite returns the largest finite magnitude the format represents.
func (f *Binary8) MaxFinite() float64 {
	return decodeMag(0x7E, f.mantBits, f.bias)
}

// Encode returns the code nearest to v after narrowing through float16.
// Out-of-range magnitudes saturate to the signed infinity; NaN encodes as
// the single NaN code.
func (f *Binary8) Encode(v float64) uint8 {
	if math.IsNaN(v) {
		return 0x80
	}

	var sign uint8
	if math.Signbit(v) {
		sign = 0x80
	}

	a := math.Abs(roundThrough16(v))
	if a > f.MaxFinite() {
		return sign | 0x7F
	}
	if a == 0 {
		// No negative zero in this format.
		return 0
	}

	mag := nearestMag(a, 0x7E, func(m int) float64 { return decodeMag(m, f.mantBits, f.bias) })
	if mag == 0 {
		return 0
	}

	return sign | uint8(mag) //nolint:gosec // mag <= 0x7E
}
