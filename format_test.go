package bitseq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		numFields int
	}{
		{"single token", "uint8", 1},
		{"several tokens", "uint8, int16, bool", 3},
		{"token multiplier", "3*uint4", 3},
		{"group multiplier", "uint8, 2*(bool, pad:7)", 5},
		{"nested groups", "2*(uint4, 2*(bool))", 6},
		{"trailing comma", "uint8, uint8,", 2},
		{"empty format", "", 0},
		{"zero multiplier", "0*uint8", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.format)
			require.NoError(t, err)
			require.Equal(t, tt.numFields, p.NumFields())
		})
	}

	t.Run("errors", func(t *testing.T) {
		for _, f := range []string{"uint8, , uint8", "2*(uint8", "uint8)", "nosuchtype8"} {
			_, err := Compile(f)
			require.ErrorIs(t, err, ErrCreation, f)
		}
	})

	t.Run("one unbounded field only", func(t *testing.T) {
		_, err := Compile("uint8, bin")
		require.NoError(t, err)

		_, err = Compile("bin, uint8")
		require.NoError(t, err)

		_, err = Compile("bin, hex")
		require.ErrorIs(t, err, ErrCreation)
	})

	t.Run("self-delimiting after unbounded", func(t *testing.T) {
		_, err := Compile("bin, ue")
		require.ErrorIs(t, err, ErrCreation)
	})

	t.Run("length keyword", func(t *testing.T) {
		p, err := Compile("uint:n, pad:m", WithParam("n", 12), WithParam("m", 4))
		require.NoError(t, err)

		b, err := p.Pack(uint64(352))
		require.NoError(t, err)
		require.Equal(t, "0001011000000000", b.Bin())

		_, err = Compile("uint:n")
		require.ErrorIs(t, err, ErrCreation)
	})
}

func TestPack(t *testing.T) {
	t.Run("positional values", func(t *testing.T) {
		b, err := Pack("uint8, int8, bool, pad:7", 5, -2, true)
		require.NoError(t, err)
		require.Equal(t, "00000101"+"11111110"+"1"+"0000000", b.Bin())
	})

	t.Run("literal and positional mix", func(t *testing.T) {
		b, err := Pack("uint8=5, uint8", 7)
		require.NoError(t, err)
		require.Equal(t, []byte{5, 7}, b.ToBytes())
	})

	t.Run("value fixes unbounded width", func(t *testing.T) {
		b, err := Pack("uint8, bin, uint8", 1, "0b111", 2)
		require.NoError(t, err)
		require.Equal(t, 19, b.Len())
		require.Equal(t, "00000001"+"111"+"00000010", b.Bin())
	})

	t.Run("not enough values", func(t *testing.T) {
		_, err := Pack("uint8, uint8", 1)
		require.ErrorIs(t, err, ErrCreation)
	})

	t.Run("too many values", func(t *testing.T) {
		_, err := Pack("uint8", 1, 2)
		require.ErrorIs(t, err, ErrCreation)
	})

	t.Run("value out of range", func(t *testing.T) {
		_, err := Pack("uint4", 16)
		require.ErrorIs(t, err, ErrCreation)
		_, err = Pack("int4", -9)
		require.ErrorIs(t, err, ErrCreation)
	})

	t.Run("unbounded with no intrinsic length", func(t *testing.T) {
		_, err := Pack("uint", 3)
		require.ErrorIs(t, err, ErrCreation)
	})
}

func TestNew_Literals(t *testing.T) {
	tests := []struct {
		format string
		bin    string
	}{
		{"0x12", "00010010"},
		{"0o7", "111"},
		{"0b1011", "1011"},
		{"0x12, 0b001", "00010010001"},
		{"0x_12_34", "0001001000110100"},
		{"hex=ff", "11111111"},
		{"bin=0b101", "101"},
		{"bytes=ab", "0110000101100010"},
		{"uint12=352", "000101100000"},
		{"int8=-1", "11111111"},
		{"bool=true, bool=0", "10"},
		{"ue=4", "00101"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			b, err := New(tt.format)
			require.NoError(t, err)
			require.Equal(t, tt.bin, b.Bin())
		})
	}

	t.Run("bad literals", func(t *testing.T) {
		for _, f := range []string{"0xg1", "uint8=abc", "float32=x", "bool=maybe"} {
			_, err := New(f)
			require.ErrorIs(t, err, ErrCreation, f)
		}
	})

	t.Run("must new panics", func(t *testing.T) {
		require.Panics(t, func() { MustNew("uint8=999") })
	})
}

func TestStructTokens(t *testing.T) {
	t.Run("big endian", func(t *testing.T) {
		b, err := Pack(">HH", 1, 2)
		require.NoError(t, err)
		require.Equal(t, []byte{0x00, 0x01, 0x00, 0x02}, b.ToBytes())
	})

	t.Run("little endian", func(t *testing.T) {
		b, err := Pack("<h", -2)
		require.NoError(t, err)
		require.Equal(t, []byte{0xfe, 0xff}, b.ToBytes())
	})

	t.Run("repeat count", func(t *testing.T) {
		p, err := Compile(">3B")
		require.NoError(t, err)
		require.Equal(t, 3, p.NumFields())
	})

	t.Run("floats", func(t *testing.T) {
		b, err := Pack(">f", 1.5)
		require.NoError(t, err)
		f, err := b.Float()
		require.NoError(t, err)
		require.InDelta(t, 1.5, f, 0)
	})

	t.Run("errors", func(t *testing.T) {
		for _, f := range []string{">", ">x", ">2", ">0B"} {
			_, err := Compile(f)
			require.ErrorIs(t, err, ErrCreation, f)
		}
	})
}

func TestByteOrderFamilies(t *testing.T) {
	le := MustNew("uintle16=1")
	require.Equal(t, []byte{0x01, 0x00}, le.ToBytes())

	be := MustNew("uintbe16=1")
	require.Equal(t, []byte{0x00, 0x01}, be.ToBytes())

	v, err := le.Value("uintle16")
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)

	v, err = MustNew("intle16=-2").Value("intle16")
	require.NoError(t, err)
	require.Equal(t, int64(-2), v)

	t.Run("whole bytes required", func(t *testing.T) {
		_, err := New("uintle12=0")
		require.ErrorIs(t, err, ErrByteAlign)
	})

	t.Run("little endian float", func(t *testing.T) {
		b := MustNew("floatle32=1.5")
		require.Equal(t, []byte{0x00, 0x00, 0xc0, 0x3f}, b.ToBytes())
	})
}

func TestValue(t *testing.T) {
	b := MustNew("uint12=352")

	v, err := b.Value("uint12")
	require.NoError(t, err)
	require.Equal(t, uint64(352), v)

	v, err = b.Value("uint")
	require.NoError(t, err)
	require.Equal(t, uint64(352), v)

	v, err = b.Value("hex")
	require.NoError(t, err)
	require.Equal(t, "160", v)

	t.Run("length mismatch", func(t *testing.T) {
		_, err := b.Value("uint16")
		require.ErrorIs(t, err, ErrInterpret)
	})

	t.Run("value token rejected", func(t *testing.T) {
		_, err := b.Value("uint12=1")
		require.ErrorIs(t, err, ErrCreation)
	})
}

// Twelve bits admit more than one reading: one 12-bit integer, or two
// 6-bit ones.
func TestReinterpretation(t *testing.T) {
	b := MustNew("uint12=352")

	v, err := b.Value("uint12")
	require.NoError(t, err)
	require.Equal(t, uint64(352), v)

	vals, err := NewReader(b).ReadList("uint6, uint6")
	require.NoError(t, err)
	require.Equal(t, []any{uint64(5), uint64(32)}, vals)
}

func TestBfloat(t *testing.T) {
	// bfloat truncates the float32 form, so a value that is not exactly
	// representable comes back as the nearest truncation, not the input.
	b := MustNew("bfloat=4.5e23")
	require.Equal(t, 16, b.Len())

	v, err := b.Value("bfloat")
	require.NoError(t, err)
	require.InDelta(t, 4.486248158726163e+23, v.(float64), 0)

	t.Run("exact values survive", func(t *testing.T) {
		for _, f := range []float64{0, 1, -2, 0.5, 1.984375} {
			got, err := Pack("bfloat", f)
			require.NoError(t, err)
			v, err := got.Value("bfloat")
			require.NoError(t, err)
			require.InDelta(t, f, v.(float64), 0)
		}

		got, err := Pack("bfloat", math.Inf(1))
		require.NoError(t, err)
		v, err := got.Value("bfloat")
		require.NoError(t, err)
		require.Equal(t, math.Inf(1), v)
	})
}

func TestE8M0(t *testing.T) {
	_, err := New("e8m0mxfp=3.0")
	require.ErrorIs(t, err, ErrCreation)

	b := MustNew("e8m0mxfp=1024.0")
	require.Equal(t, 8, b.Len())

	v, err := b.Value("e8m0mxfp")
	require.NoError(t, err)
	require.InDelta(t, 1024.0, v.(float64), 0)
}

func TestMXDtypes(t *testing.T) {
	tests := []struct {
		name  string
		nbits int
		max   float64
	}{
		{"e5m2mxfp", 8, 57344},
		{"e4m3mxfp", 8, 448},
		{"e3m2mxfp", 6, 28},
		{"e2m3mxfp", 6, 7.5},
		{"e2m1mxfp", 4, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Pack(tt.name, tt.max)
			require.NoError(t, err)
			require.Equal(t, tt.nbits, b.Len())

			v, err := b.Value(tt.name)
			require.NoError(t, err)
			require.InDelta(t, tt.max, v.(float64), 0)
		})
	}

	t.Run("saturation is the default", func(t *testing.T) {
		b, err := Pack("e2m1mxfp", 100.0)
		require.NoError(t, err)
		v, err := b.Value("e2m1mxfp")
		require.NoError(t, err)
		require.InDelta(t, 6.0, v.(float64), 0)
	})

	t.Run("mxint8", func(t *testing.T) {
		b, err := Pack("mxint8", 1.5)
		require.NoError(t, err)
		v, err := b.Value("mxint8")
		require.NoError(t, err)
		require.InDelta(t, 1.5, v.(float64), 0)
	})
}

func TestBinary8Dtypes(t *testing.T) {
	for _, tt := range []struct {
		name string
		max  float64
	}{
		{"p3binary8", 49152},
		{"p4binary8", 224},
	} {
		b, err := Pack(tt.name, tt.max)
		require.NoError(t, err)
		require.Equal(t, 8, b.Len())

		v, err := b.Value(tt.name)
		require.NoError(t, err)
		require.InDelta(t, tt.max, v.(float64), 0, tt.name)
	}
}

func TestAutoScale(t *testing.T) {
	s, err := AutoScale("e4m3mxfp", []float64{0, 1, 448})
	require.NoError(t, err)
	require.InDelta(t, 1.0, s, 0)

	s, err = AutoScale("e4m3mxfp", []float64{-900})
	require.NoError(t, err)
	require.InDelta(t, 4.0, s, 0)

	// Small magnitudes pick a fractional scale that fills the range.
	s, err = AutoScale("e2m1mxfp", []float64{0.01})
	require.NoError(t, err)
	require.InDelta(t, math.Ldexp(1, -9), s, 0)
	require.LessOrEqual(t, 0.01/s, 6.0)
	require.Greater(t, 0.01/(s/2), 6.0)

	s, err = AutoScale("e2m1mxfp", nil)
	require.NoError(t, err)
	require.InDelta(t, 1.0, s, 0)

	_, err = AutoScale("uint", nil)
	require.ErrorIs(t, err, ErrCreation)
}

func TestDtype_WithScale(t *testing.T) {
	d, err := LookupDtype("e2m1mxfp")
	require.NoError(t, err)

	scaled, err := d.WithScale(2)
	require.NoError(t, err)

	b, err := scaled.Encode(12.0, 4)
	require.NoError(t, err)

	v, err := scaled.Decode(b)
	require.NoError(t, err)
	require.InDelta(t, 12.0, v.(float64), 0)

	// The unscaled reading sees the raw code.
	raw, err := d.Decode(b)
	require.NoError(t, err)
	require.InDelta(t, 6.0, raw.(float64), 0)

	_, err = d.WithScale(0)
	require.ErrorIs(t, err, ErrCreation)

	u, err := LookupDtype("uint")
	require.NoError(t, err)
	_, err = u.WithScale(2)
	require.ErrorIs(t, err, ErrCreation)
}

func TestGolombDtypes(t *testing.T) {
	tests := []struct {
		token string
		bin   string
	}{
		{"ue=0", "1"},
		{"ue=4", "00101"},
		{"ue=18", "000010011"},
		{"se=-9", "000010011"},
		{"se=-2", "00101"},
		{"uie=5", "01001"},
		{"sie=-1", "0011"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			b, err := New(tt.token)
			require.NoError(t, err)
			require.Equal(t, tt.bin, b.Bin())
		})
	}

	t.Run("round trip via value", func(t *testing.T) {
		b := MustNew("se=-9")
		v, err := b.Value("se")
		require.NoError(t, err)
		require.Equal(t, int64(-9), v)
	})

	t.Run("trailing bits rejected", func(t *testing.T) {
		b := MustNew("ue=4, 0b0")
		_, err := b.Value("ue")
		require.ErrorIs(t, err, ErrInterpret)
	})

	t.Run("no length allowed", func(t *testing.T) {
		_, err := Compile("ue8")
		require.ErrorIs(t, err, ErrCreation)
	})
}
