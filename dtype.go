package bitseq

import (
	"math"

	"github.com/arloliu/bitseq/endian"
	"github.com/arloliu/bitseq/internal/bitstore"
	"github.com/arloliu/bitseq/internal/floatx"
	"github.com/arloliu/bitseq/internal/golomb"
)

// Dtype describes one named field format: how long it is, whether it is
// signed, and how values are encoded to and decoded from a bit region.
//
// Dtypes are interned: LookupDtype returns the same instance for the same
// name, and instances are immutable. WithScale returns a scaled copy.
type Dtype struct {
	name        string
	fixedLen    int  // > 0 when the name alone fixes the length
	bitsPerItem int  // token lengths are multiplied by this (8 for bytes)
	signed      bool
	variable    bool // self-delimiting; length is a function of the value
	stretchy    bool // may serve as the single unbounded field of a plan
	noValue     bool // consumes bits but yields no value (pad)
	scale       float64
	maxFinite   float64 // 0 when the format has no finite ceiling to scale against

	checkLen func(n int) error
	decode   func(d *Dtype, s *bitstore.Store) (any, error)
	encode   func(d *Dtype, bld *bitstore.Builder, nbits int, v any) error
	parseLit func(raw string) (any, error)

	// Variable-length families only.
	decodeScan func(d *Dtype, s *bitstore.Store, pos int) (any, int, error)
	encodeVar  func(d *Dtype, bld *bitstore.Builder, v any) error
}

// Name returns the canonical dtype name.
func (d *Dtype) Name() string {
	return d.name
}

// BitLen returns the bit length implied by the name alone, or 0 when the
// length comes from the token or the value.
func (d *Dtype) BitLen() int {
	return d.fixedLen
}

// Signed reports whether the dtype holds signed values.
func (d *Dtype) Signed() bool {
	return d.signed
}

// Variable reports whether the dtype is self-delimiting: its length is
// discovered by scanning forward from a known start position.
func (d *Dtype) Variable() bool {
	return d.variable
}

// WithScale returns a copy of the dtype whose decoded values are multiplied
// by scale and whose inputs are divided by it before encoding. Only the
// minifloat families accept a scale.
func (d *Dtype) WithScale(scale float64) (*Dtype, error) {
	if d.maxFinite == 0 {
		return nil, creationf("dtype %s does not accept a scale", d.name)
	}
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, creationf("invalid scale %v", scale)
	}

	c := *d
	c.scale = scale

	return &c, nil
}

func (d *Dtype) effScale() float64 {
	if d.scale == 0 {
		return 1
	}

	return d.scale
}

// Decode interprets the whole of b as one value of this dtype.
//
// For the self-delimiting families the sequence must contain exactly one
// code; trailing bits are an interpretation error.
func (d *Dtype) Decode(b *Bits) (any, error) {
	if d.variable {
		v, n, err := d.decodeScan(d, b.store, 0)
		if err != nil {
			return nil, interpretf("%s: %v", d.name, err)
		}
		if n != b.store.Len() {
			return nil, interpretf("%s: %d bits after the code", d.name, b.store.Len()-n)
		}

		return v, nil
	}

	if err := d.validLen(b.store.Len()); err != nil {
		return nil, err
	}

	return d.decode(d, b.store)
}

// Encode builds a new sequence holding v. For fixed-length dtypes, nbits
// gives the field width; the self-delimiting families ignore it.
func (d *Dtype) Encode(v any, nbits int) (*Bits, error) {
	bld := bitstore.NewBuilder(64)
	if err := d.encodeTo(bld, nbits, v); err != nil {
		return nil, err
	}

	return newBits(bld.Store()), nil
}

func (d *Dtype) encodeTo(bld *bitstore.Builder, nbits int, v any) error {
	if d.variable {
		return d.encodeVar(d, bld, v)
	}
	if err := d.validLen(nbits); err != nil {
		return err
	}

	return d.encode(d, bld, nbits, v)
}

func (d *Dtype) validLen(n int) error {
	if d.fixedLen > 0 && n != d.fixedLen {
		return interpretf("%s requires exactly %d bits, got %d", d.name, d.fixedLen, n)
	}
	if d.checkLen != nil {
		return d.checkLen(n)
	}
	if d.fixedLen == 0 && n <= 0 {
		return interpretf("%s requires a positive length", d.name)
	}

	return nil
}

// registry maps canonical names and aliases to interned dtypes.
var registry = map[string]*Dtype{}

var dtypeAliases = map[string]string{
	"u": "uint",
	"i": "int",
	"f": "float",
	"b": "bin",
	"h": "hex",
	"o": "oct",
}

// LookupDtype resolves a dtype by canonical name or single-letter alias.
func LookupDtype(name string) (*Dtype, error) {
	if canon, ok := dtypeAliases[name]; ok {
		name = canon
	}
	d, ok := registry[name]
	if !ok {
		return nil, creationf("unknown dtype %q", name)
	}

	return d, nil
}

func register(d *Dtype) *Dtype {
	if d.bitsPerItem == 0 {
		d.bitsPerItem = 1
	}
	registry[d.name] = d

	return d
}

func wholeByteLen(n int) error {
	if n%8 != 0 || n == 0 {
		return alignf("length %d is not a whole number of bytes", n)
	}

	return nil
}

func multipleLen(m int, what string) func(int) error {
	return func(n int) error {
		if n%m != 0 {
			return interpretf("%s length %d is not a multiple of %d", what, n, m)
		}

		return nil
	}
}

func registerIntFamily(name string, signed bool) {
	d := &Dtype{name: name, signed: signed, stretchy: true}
	if signed {
		d.decode = func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeIntField(s), nil }
		d.encode = func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			return encodeIntField(bld, nbits, v)
		}
		d.parseLit = parseIntLiteral
	} else {
		d.decode = func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeUintField(s), nil }
		d.encode = func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			return encodeUintField(bld, nbits, v)
		}
		d.parseLit = parseUintLiteral
	}
	register(d)
}

func engineFor(suffix string) func() endian.EndianEngine {
	switch suffix {
	case "le":
		return endian.GetLittleEndianEngine
	case "ne":
		// Resolved at encode/decode time, per the host running the call.
		return endian.Native
	default:
		return endian.GetBigEndianEngine
	}
}

func registerIntBytesFamily(name string, signed bool, suffix string) {
	eng := engineFor(suffix)
	d := &Dtype{name: name, signed: signed, checkLen: wholeByteLen}
	if signed {
		d.decode = func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeIntBytes(s, eng()) }
		d.encode = func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			return encodeIntBytes(bld, nbits, v, eng())
		}
		d.parseLit = parseIntLiteral
	} else {
		d.decode = func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeUintBytes(s, eng()) }
		d.encode = func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			return encodeUintBytes(bld, nbits, v, eng())
		}
		d.parseLit = parseUintLiteral
	}
	register(d)
}

func registerFloatFamily(name, suffix string) {
	eng := engineFor(suffix)
	register(&Dtype{
		name:   name,
		signed: true,
		checkLen: func(n int) error {
			if n != 16 && n != 32 && n != 64 {
				return interpretf("float length must be 16, 32 or 64 bits, got %d", n)
			}
			return nil
		},
		decode: func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeFloatField(s, eng()) },
		encode: func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			return encodeFloatField(bld, nbits, v, eng())
		},
		parseLit: parseFloatLiteral,
	})
}

func registerBfloatFamily(name, suffix string) {
	eng := engineFor(suffix)
	register(&Dtype{
		name:     name,
		fixedLen: 16,
		signed:   true,
		decode:   func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeBfloatField(s, eng()) },
		encode: func(_ *Dtype, bld *bitstore.Builder, _ int, v any) error {
			return encodeBfloatField(bld, v, eng())
		},
		parseLit: parseFloatLiteral,
	})
}

func registerBinary8(f *floatx.Binary8) {
	register(&Dtype{
		name:      f.Name,
		fixedLen:  8,
		signed:    true,
		maxFinite: f.MaxFinite(),
		decode: func(d *Dtype, s *bitstore.Store) (any, error) {
			return decodeBinary8Field(s, f, d.effScale())
		},
		encode: func(d *Dtype, bld *bitstore.Builder, _ int, v any) error {
			return encodeBinary8Field(bld, v, f, d.effScale())
		},
		parseLit: parseFloatLiteral,
	})
}

func registerMX(f *floatx.MXFormat) {
	register(&Dtype{
		name:      f.Name,
		fixedLen:  f.Width(),
		signed:    true,
		maxFinite: f.MaxFinite(),
		decode: func(d *Dtype, s *bitstore.Store) (any, error) {
			return decodeMXField(s, f, d.effScale())
		},
		encode: func(d *Dtype, bld *bitstore.Builder, _ int, v any) error {
			return encodeMXField(bld, v, f, d.effScale())
		},
		parseLit: parseFloatLiteral,
	})
}

func registerGolomb(name string, signed bool) {
	d := &Dtype{name: name, signed: signed, variable: true}
	switch name {
	case "ue":
		d.decodeScan = func(_ *Dtype, s *bitstore.Store, pos int) (any, int, error) {
			return scanGolombU(golomb.DecodeUE, s, pos)
		}
		d.encodeVar = func(_ *Dtype, bld *bitstore.Builder, v any) error {
			return appendGolombU(golomb.AppendUE, bld, v)
		}
		d.parseLit = parseUintLiteral
	case "uie":
		d.decodeScan = func(_ *Dtype, s *bitstore.Store, pos int) (any, int, error) {
			return scanGolombU(golomb.DecodeUIE, s, pos)
		}
		d.encodeVar = func(_ *Dtype, bld *bitstore.Builder, v any) error {
			return appendGolombU(golomb.AppendUIE, bld, v)
		}
		d.parseLit = parseUintLiteral
	case "se":
		d.decodeScan = func(_ *Dtype, s *bitstore.Store, pos int) (any, int, error) {
			return scanGolombS(golomb.DecodeSE, s, pos)
		}
		d.encodeVar = func(_ *Dtype, bld *bitstore.Builder, v any) error {
			return appendGolombS(golomb.AppendSE, bld, v)
		}
		d.parseLit = parseIntLiteral
	case "sie":
		d.decodeScan = func(_ *Dtype, s *bitstore.Store, pos int) (any, int, error) {
			return scanGolombS(golomb.DecodeSIE, s, pos)
		}
		d.encodeVar = func(_ *Dtype, bld *bitstore.Builder, v any) error {
			return appendGolombS(golomb.AppendSIE, bld, v)
		}
		d.parseLit = parseIntLiteral
	}
	register(d)
}

func scanGolombU(dec func(*bitstore.Store, int) (uint64, int, error), s *bitstore.Store, pos int) (any, int, error) {
	if Config().LSB0 {
		return nil, 0, interpretf("exponential-Golomb codes are unsupported in LSB0 mode")
	}
	v, n, err := dec(s, pos)
	if err != nil {
		return nil, 0, err
	}

	return v, n, nil
}

func scanGolombS(dec func(*bitstore.Store, int) (int64, int, error), s *bitstore.Store, pos int) (any, int, error) {
	if Config().LSB0 {
		return nil, 0, interpretf("exponential-Golomb codes are unsupported in LSB0 mode")
	}
	v, n, err := dec(s, pos)
	if err != nil {
		return nil, 0, err
	}

	return v, n, nil
}

func appendGolombU(app func(*bitstore.Builder, uint64) error, bld *bitstore.Builder, v any) error {
	if Config().LSB0 {
		return creationf("exponential-Golomb codes are unsupported in LSB0 mode")
	}
	u, bigv, err := coerceUint(v)
	if err != nil {
		return err
	}
	if bigv != nil {
		return creationf("%s exceeds the exponential-Golomb range", bigv)
	}
	if err := app(bld, u); err != nil {
		return creationf("%v", err)
	}

	return nil
}

func appendGolombS(app func(*bitstore.Builder, int64) error, bld *bitstore.Builder, v any) error {
	if Config().LSB0 {
		return creationf("exponential-Golomb codes are unsupported in LSB0 mode")
	}
	i, bigv, err := coerceInt(v)
	if err != nil {
		return err
	}
	if bigv != nil {
		return creationf("%s exceeds the exponential-Golomb range", bigv)
	}
	if err := app(bld, i); err != nil {
		return creationf("%v", err)
	}

	return nil
}

func init() {
	registerIntFamily("uint", false)
	registerIntFamily("int", true)
	for _, suffix := range []string{"be", "le", "ne"} {
		registerIntBytesFamily("uint"+suffix, false, suffix)
		registerIntBytesFamily("int"+suffix, true, suffix)
		registerFloatFamily("float"+suffix, suffix)
		registerBfloatFamily("bfloat"+suffix, suffix)
	}
	registerFloatFamily("float", "be")
	registerBfloatFamily("bfloat", "be")

	register(&Dtype{
		name:     "hex",
		stretchy: true,
		checkLen: multipleLen(4, "hex"),
		decode:   func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeHexField(s) },
		encode: func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			return encodeHexField(bld, nbits, v)
		},
		parseLit: parseStringLiteral,
	})
	register(&Dtype{
		name:     "oct",
		stretchy: true,
		checkLen: multipleLen(3, "octal"),
		decode:   func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeOctField(s) },
		encode: func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			return encodeOctField(bld, nbits, v)
		},
		parseLit: parseStringLiteral,
	})
	register(&Dtype{
		name:     "bin",
		stretchy: true,
		decode:   func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeBinField(s) },
		encode: func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			return encodeBinField(bld, nbits, v)
		},
		parseLit: parseStringLiteral,
	})
	register(&Dtype{
		name:        "bytes",
		bitsPerItem: 8,
		stretchy:    true,
		checkLen:    multipleLen(8, "bytes"),
		decode:      func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeBytesField(s) },
		encode: func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			return encodeBytesField(bld, nbits, v)
		},
		parseLit: parseStringLiteral,
	})
	register(&Dtype{
		name:     "bits",
		stretchy: true,
		decode: func(_ *Dtype, s *bitstore.Store) (any, error) {
			return newBits(s.Clone()), nil
		},
		encode: func(_ *Dtype, bld *bitstore.Builder, nbits int, v any) error {
			x, ok := v.(*Bits)
			if !ok {
				return creationf("cannot encode %T as bits", v)
			}
			if x.store.Len() != nbits {
				return creationf("bits value is %d bits but the field is %d", x.store.Len(), nbits)
			}
			bld.WriteStore(x.store)

			return nil
		},
		parseLit: parseStringLiteral,
	})
	register(&Dtype{
		name:     "bool",
		fixedLen: 1,
		decode: func(_ *Dtype, s *bitstore.Store) (any, error) {
			return s.Bit(0), nil
		},
		encode: func(_ *Dtype, bld *bitstore.Builder, _ int, v any) error {
			x, ok := v.(bool)
			if !ok {
				return creationf("cannot encode %T as bool", v)
			}
			bld.WriteBool(x)

			return nil
		},
		parseLit: parseBoolLiteral,
	})
	register(&Dtype{
		name:    "pad",
		noValue: true,
		decode: func(_ *Dtype, _ *bitstore.Store) (any, error) {
			return nil, nil
		},
		encode: func(_ *Dtype, bld *bitstore.Builder, nbits int, _ any) error {
			bld.WriteBits(0, min(nbits, 64))
			for rest := nbits - 64; rest > 0; rest -= 64 {
				bld.WriteBits(0, min(rest, 64))
			}

			return nil
		},
	})

	registerBinary8(floatx.P4Binary8)
	registerBinary8(floatx.P3Binary8)
	for _, f := range []*floatx.MXFormat{floatx.E5M2, floatx.E4M3, floatx.E3M2, floatx.E2M3, floatx.E2M1} {
		registerMX(f)
	}
	register(&Dtype{
		name:     "e8m0mxfp",
		fixedLen: 8,
		decode:   func(_ *Dtype, s *bitstore.Store) (any, error) { return decodeE8M0Field(s) },
		encode: func(_ *Dtype, bld *bitstore.Builder, _ int, v any) error {
			return encodeE8M0Field(bld, v)
		},
		parseLit: parseFloatLiteral,
	})
	register(&Dtype{
		name:      "mxint",
		fixedLen:  8,
		signed:    true,
		maxFinite: 127.0 / 64,
		decode: func(d *Dtype, s *bitstore.Store) (any, error) {
			return decodeMXIntField(s, d.effScale())
		},
		encode: func(d *Dtype, bld *bitstore.Builder, _ int, v any) error {
			return encodeMXIntField(bld, v, d.effScale())
		},
		parseLit: parseFloatLiteral,
	})

	registerGolomb("ue", false)
	registerGolomb("se", true)
	registerGolomb("uie", false)
	registerGolomb("sie", true)
}

// Value interprets the whole sequence as a single value of the named dtype.
// The token may carry a length, which must then match the sequence length
// exactly (for example "uint12" on a 12-bit sequence).
func (b *Bits) Value(token string) (any, error) {
	d, nbits, err := parseScalarToken(token)
	if err != nil {
		return nil, err
	}
	if nbits > 0 && nbits != b.store.Len() {
		return nil, interpretf("token %q is %d bits but the sequence is %d", token, nbits, b.store.Len())
	}

	return d.Decode(b)
}

// AutoScale returns the scale to use when encoding values with the named
// minifloat dtype: the power of two that maps the largest input magnitude
// as close as possible to the format's finite ceiling without exceeding
// it. All-zero input selects scale 1.
func AutoScale(name string, values []float64) (float64, error) {
	d, err := LookupDtype(name)
	if err != nil {
		return 0, err
	}
	if d.maxFinite == 0 {
		return 0, creationf("dtype %s does not accept a scale", name)
	}

	maxAbs := 0.0
	for _, v := range values {
		if a := math.Abs(v); a > maxAbs && !math.IsInf(a, 0) && !math.IsNaN(a) {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return 1, nil
	}

	// Smallest power of two with maxAbs/scale <= maxFinite.
	e := math.Ceil(math.Log2(maxAbs / d.maxFinite))
	scale := math.Ldexp(1, int(e))
	for maxAbs/scale > d.maxFinite {
		scale *= 2
	}
	for maxAbs/(scale/2) <= d.maxFinite {
		scale /= 2
	}

	return scale, nil
}
