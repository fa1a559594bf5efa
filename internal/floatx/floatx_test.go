package floatx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat16_RoundTrip(t *testing.T) {
	// Every finite half value must survive a decode/encode cycle exactly.
	for u := range 65536 {
		bits := uint16(u)
		v := From16(bits)
		if math.IsNaN(v) {
			continue
		}
		got := To16(v)
		if v == 0 {
			// +0 and -0 both round-trip to their own encodings.
			require.Equal(t, bits, got, "zero bits %#04x", bits)
			continue
		}
		require.Equal(t, bits, got, "bits %#04x value %g", bits, v)
	}
}

func TestFloat16_KnownValues(t *testing.T) {
	tests := []struct {
		bits uint16
		want float64
	}{
		{0x0000, 0},
		{0x3C00, 1},
		{0xC000, -2},
		{0x7BFF, 65504}, // max finite
		{0x0001, math.Ldexp(1, -24)}, // min subnormal
		{0x3555, 0.333251953125},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, From16(tt.bits), "bits %#04x", tt.bits)
	}
}

func TestFloat16_Rounding(t *testing.T) {
	// 2049 sits exactly between 2048 and 2050; ties go to even (2048).
	require.Equal(t, 2048.0, From16(To16(2049)))
	// 2051 sits between 2050 and 2052; nearest-ties-even picks 2052.
	require.Equal(t, 2052.0, From16(To16(2051)))
}

func TestFloat16_Overflow(t *testing.T) {
	require.Equal(t, uint16(0x7C00), To16(1e30))
	require.Equal(t, uint16(0xFC00), To16(-1e30))
	require.Equal(t, uint16(0x7C00), To16(65520), "first value that rounds past max")
	require.Equal(t, uint16(0x7BFF), To16(65519))
	require.True(t, math.IsNaN(From16(To16(math.NaN()))))
}

func TestBfloat16_Truncation(t *testing.T) {
	// bfloat16 drops the low 16 float32 bits without re-rounding.
	got := FromBfloat16(ToBfloat16(4.5e23))
	require.Equal(t, 4.486248158726163e+23, got)
}

func TestBfloat16_RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, -1, 0.5, 3.140625, 1e20, -2.5e-10} {
		enc := ToBfloat16(v)
		dec := FromBfloat16(enc)
		require.Equal(t, enc, ToBfloat16(dec), "value %g must be a fixed point", v)
	}

	require.True(t, math.IsInf(FromBfloat16(ToBfloat16(math.Inf(1))), 1))
	require.True(t, math.IsNaN(FromBfloat16(ToBfloat16(math.NaN()))))
}

func TestBinary8_Specials(t *testing.T) {
	for _, f := range []*Binary8{P4Binary8, P3Binary8} {
		require.Equal(t, 0.0, f.Decode(0x00), f.Name)
		require.True(t, math.IsNaN(f.Decode(0x80)), f.Name)
		require.True(t, math.IsInf(f.Decode(0x7F), 1), f.Name)
		require.True(t, math.IsInf(f.Decode(0xFF), -1), f.Name)
	}
}

func TestBinary8_KnownValues(t *testing.T) {
	require.Equal(t, 224.0, P4Binary8.MaxFinite())
	require.Equal(t, 49152.0, P3Binary8.MaxFinite())
	require.Equal(t, 1.0, P4Binary8.Decode(P4Binary8.Encode(1.0)))
	require.Equal(t, -1.5, P4Binary8.Decode(P4Binary8.Encode(-1.5)))
}

func TestBinary8_RoundTrip(t *testing.T) {
	for _, f := range []*Binary8{P4Binary8, P3Binary8} {
		for u := range 256 {
			code := uint8(u)
			v := f.Decode(code)
			if math.IsNaN(v) {
				continue
			}
			if v == 0 {
				require.Equal(t, uint8(0), f.Encode(v), "%s zero", f.Name)
				continue
			}
			require.Equal(t, code, f.Encode(v), "%s code %#02x value %g", f.Name, code, v)
		}
	}
}

func TestBinary8_Saturation(t *testing.T) {
	// Out-of-range magnitudes saturate to the signed infinity.
	require.Equal(t, uint8(0x7F), P4Binary8.Encode(1e6))
	require.Equal(t, uint8(0xFF), P4Binary8.Encode(-1e6))
	require.Equal(t, uint8(0x80), P4Binary8.Encode(math.NaN()))
}

func TestMXFormat_Widths(t *testing.T) {
	require.Equal(t, 8, E5M2.Width())
	require.Equal(t, 8, E4M3.Width())
	require.Equal(t, 6, E3M2.Width())
	require.Equal(t, 6, E2M3.Width())
	require.Equal(t, 4, E2M1.Width())
}

func TestMXFormat_MaxFinite(t *testing.T) {
	require.Equal(t, 57344.0, E5M2.MaxFinite())
	require.Equal(t, 448.0, E4M3.MaxFinite())
	require.Equal(t, 28.0, E3M2.MaxFinite())
	require.Equal(t, 7.5, E2M3.MaxFinite())
	require.Equal(t, 6.0, E2M1.MaxFinite())
}

func TestMXFormat_RoundTrip(t *testing.T) {
	for _, f := range []*MXFormat{E5M2, E4M3, E3M2, E2M3, E2M1} {
		max := 1 << f.Width()
		for u := range max {
			code := uint8(u)
			v := f.Decode(code)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			got, err := f.Encode(v, Saturate)
			require.NoError(t, err, f.Name)
			if v == 0 {
				// +0 and -0 each keep their sign bit.
				require.Equal(t, code, got, "%s zero code %#02x", f.Name, code)
				continue
			}
			require.Equal(t, code, got, "%s code %#02x value %g", f.Name, code, v)
		}
	}
}

func TestMXFormat_OverflowPolicy(t *testing.T) {
	// E5M2 saturates to the max finite value or overflows to infinity.
	sat, err := E5M2.Encode(1e9, Saturate)
	require.NoError(t, err)
	require.Equal(t, 57344.0, E5M2.Decode(sat))

	ovf, err := E5M2.Encode(1e9, Overflow)
	require.NoError(t, err)
	require.True(t, math.IsInf(E5M2.Decode(ovf), 1))

	// E4M3 has no infinity; overflow produces NaN.
	sat, err = E4M3.Encode(-1e9, Saturate)
	require.NoError(t, err)
	require.Equal(t, -448.0, E4M3.Decode(sat))

	ovf, err = E4M3.Encode(-1e9, Overflow)
	require.NoError(t, err)
	require.True(t, math.IsNaN(E4M3.Decode(ovf)))

	// Fully-finite formats saturate regardless of policy.
	got, err := E2M1.Encode(1e9, Overflow)
	require.NoError(t, err)
	require.Equal(t, 6.0, E2M1.Decode(got))
}

func TestMXFormat_NaN(t *testing.T) {
	code, err := E5M2.Encode(math.NaN(), Saturate)
	require.NoError(t, err)
	require.True(t, math.IsNaN(E5M2.Decode(code)))

	_, err = E3M2.Encode(math.NaN(), Saturate)
	require.ErrorIs(t, err, ErrNoNaN)
}

func TestE8M0(t *testing.T) {
	code, err := EncodeE8M0(math.Ldexp(1, 10))
	require.NoError(t, err)
	require.Equal(t, uint8(137), code)
	require.Equal(t, 1024.0, DecodeE8M0(code))

	_, err = EncodeE8M0(3.0)
	require.ErrorIs(t, err, ErrNotPowerOfTwo)
	_, err = EncodeE8M0(-4.0)
	require.ErrorIs(t, err, ErrNotPowerOfTwo)
	_, err = EncodeE8M0(0)
	require.ErrorIs(t, err, ErrNotPowerOfTwo)
	_, err = EncodeE8M0(math.Ldexp(1, 200))
	require.ErrorIs(t, err, ErrNotPowerOfTwo)

	nan, err := EncodeE8M0(math.NaN())
	require.NoError(t, err)
	require.Equal(t, uint8(0xFF), nan)
	require.True(t, math.IsNaN(DecodeE8M0(nan)))

	// Full round trip over the representable exponents.
	for k := -127; k <= 127; k++ {
		v := math.Ldexp(1, k)
		code, err := EncodeE8M0(v)
		require.NoError(t, err, "2^%d", k)
		assert.Equal(t, v, DecodeE8M0(code), "2^%d", k)
	}
}

func TestMXInt8(t *testing.T) {
	for i := -128; i <= 127; i++ {
		v := float64(i) / 64
		code, err := EncodeMXInt8(v)
		require.NoError(t, err)
		require.Equal(t, uint8(int8(i)), code)
		require.Equal(t, v, DecodeMXInt8(code))
	}

	// Saturation at both ends.
	lo, _ := EncodeMXInt8(-100)
	require.Equal(t, -2.0, DecodeMXInt8(lo))
	hi, _ := EncodeMXInt8(100)
	require.Equal(t, 127.0/64, DecodeMXInt8(hi))

	_, err := EncodeMXInt8(math.NaN())
	require.ErrorIs(t, err, ErrNoNaN)
}
