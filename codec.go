package bitseq

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/arloliu/bitseq/endian"
	"github.com/arloliu/bitseq/internal/bitstore"
	"github.com/arloliu/bitseq/internal/floatx"
	"github.com/arloliu/bitseq/internal/pool"
)

// Value coercion. Encode paths accept the obvious native types for each
// family and reject everything else with a creation error.

func coerceUint(v any) (uint64, *big.Int, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil, nil
	case uint:
		return uint64(x), nil, nil
	case uint32:
		return uint64(x), nil, nil
	case int:
		if x < 0 {
			return 0, nil, creationf("negative value %d for an unsigned field", x)
		}
		return uint64(x), nil, nil
	case int64:
		if x < 0 {
			return 0, nil, creationf("negative value %d for an unsigned field", x)
		}
		return uint64(x), nil, nil
	case *big.Int:
		if x.Sign() < 0 {
			return 0, nil, creationf("negative value %s for an unsigned field", x)
		}
		if x.IsUint64() {
			return x.Uint64(), nil, nil
		}
		return 0, x, nil
	default:
		return 0, nil, creationf("cannot encode %T as an unsigned integer", v)
	}
}

func coerceInt(v any) (int64, *big.Int, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil, nil
	case int64:
		return x, nil, nil
	case int32:
		return int64(x), nil, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, nil, creationf("value %d overflows a signed field", x)
		}
		return int64(x), nil, nil //nolint:gosec
	case *big.Int:
		if x.IsInt64() {
			return x.Int64(), nil, nil
		}
		return 0, x, nil
	default:
		return 0, nil, creationf("cannot encode %T as a signed integer", v)
	}
}

func coerceFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	default:
		return 0, creationf("cannot encode %T as a float", v)
	}
}

// Plain bit-level unsigned integers, most significant bit first.

func decodeUintField(s *bitstore.Store) any {
	n := s.Len()
	if n <= 64 {
		return s.Uint64(0, n)
	}

	v, _ := newBits(s).UintBig()

	return v
}

func decodeIntField(s *bitstore.Store) any {
	n := s.Len()
	if n <= 64 {
		return signExtend(s.Uint64(0, n), n)
	}

	v, _ := newBits(s).IntBig()

	return v
}

func encodeUintField(bld *bitstore.Builder, nbits int, v any) error {
	u, bigv, err := coerceUint(v)
	if err != nil {
		return err
	}

	if bigv != nil {
		if bigv.BitLen() > nbits {
			return creationf("%s does not fit in %d bits", bigv, nbits)
		}
		writeBig(bld, nbits, bigv)

		return nil
	}

	if nbits < 64 && u >= 1<<nbits {
		return creationf("%d does not fit in %d bits", u, nbits)
	}
	writeUintBits(bld, nbits, u)

	return nil
}

func encodeIntField(bld *bitstore.Builder, nbits int, v any) error {
	i, bigv, err := coerceInt(v)
	if err != nil {
		return err
	}
	if bigv == nil && nbits > 64 {
		// Wide fields sign-extend through the arbitrary-precision path.
		bigv = big.NewInt(i)
	}

	if bigv != nil {
		// Two's complement width check: BitLen ignores the sign, so a
		// negative value of magnitude 2^(n-1) still fits n bits.
		limit := new(big.Int).Lsh(big.NewInt(1), uint(nbits-1)) //nolint:gosec
		low := new(big.Int).Neg(limit)
		if bigv.Cmp(low) < 0 || bigv.Cmp(limit) >= 0 {
			return creationf("%s does not fit in %d signed bits", bigv, nbits)
		}

		u := new(big.Int).Set(bigv)
		if u.Sign() < 0 {
			u.Add(u, new(big.Int).Lsh(big.NewInt(1), uint(nbits))) //nolint:gosec
		}
		writeBig(bld, nbits, u)

		return nil
	}

	if nbits < 64 {
		lo := int64(-1) << (nbits - 1)
		hi := int64(1)<<(nbits-1) - 1
		if i < lo || i > hi {
			return creationf("%d does not fit in %d signed bits", i, nbits)
		}
	}
	writeUintBits(bld, nbits, uint64(i)) //nolint:gosec // two's complement wrap intended

	return nil
}

// writeUintBits writes v as an nbits-wide big-endian field, zero-extending
// when the field is wider than 64 bits.
func writeUintBits(bld *bitstore.Builder, nbits int, v uint64) {
	for nbits > 64 {
		chunk := min(nbits-64, 64)
		bld.WriteBits(0, chunk)
		nbits -= chunk
	}
	bld.WriteBits(v, nbits)
}

// writeBig writes a non-negative big integer as an nbits-wide field,
// most significant chunk first.
func writeBig(bld *bitstore.Builder, nbits int, v *big.Int) {
	pos := nbits
	for pos > 0 {
		width := pos % 64
		if width == 0 {
			width = 64
		}
		pos -= width
		bld.WriteBits(bigWord(v, pos, width), width)
	}
}

func bigWord(v *big.Int, lowBit, width int) uint64 {
	var u uint64
	for k := width - 1; k >= 0; k-- {
		u <<= 1
		u |= uint64(v.Bit(lowBit + k))
	}

	return u
}

// Byte-oriented integer variants. The field must be a whole number of
// bytes; the little-endian flavors reverse byte order before interpreting.

func decodeUintBytes(s *bitstore.Store, eng endian.EndianEngine) (any, error) {
	n := s.Len()
	if n%8 != 0 || n == 0 {
		return nil, alignf("byte-oriented integer needs a whole-byte length, got %d bits", n)
	}

	data := s.Bytes()
	if endian.IsLittleEndian(eng) {
		bb := pool.GetByteBuffer()
		defer pool.PutByteBuffer(bb)
		data = reverseBytesInto(bb, data)
	}

	if n <= 64 {
		var u uint64
		for _, c := range data {
			u = u<<8 | uint64(c)
		}
		return u, nil
	}

	// SetBytes copies, so the scratch can go back to the pool.
	return new(big.Int).SetBytes(data), nil
}

func decodeIntBytes(s *bitstore.Store, eng endian.EndianEngine) (any, error) {
	v, err := decodeUintBytes(s, eng)
	if err != nil {
		return nil, err
	}

	n := s.Len()
	switch u := v.(type) {
	case uint64:
		return signExtend(u, n), nil
	case *big.Int:
		if u.Bit(n-1) == 1 {
			u.Sub(u, new(big.Int).Lsh(big.NewInt(1), uint(n))) //nolint:gosec
		}
		return u, nil
	default:
		return nil, nil
	}
}

func encodeUintBytes(bld *bitstore.Builder, nbits int, v any, eng endian.EndianEngine) error {
	if nbits%8 != 0 || nbits == 0 {
		return alignf("byte-oriented integer needs a whole-byte length, got %d bits", nbits)
	}

	tmp := bitstore.NewBuilder(nbits)
	if err := encodeUintField(tmp, nbits, v); err != nil {
		return err
	}

	data := tmp.Store().Bytes()
	if endian.IsLittleEndian(eng) {
		bb := pool.GetByteBuffer()
		defer pool.PutByteBuffer(bb)
		data = reverseBytesInto(bb, data)
	}
	bld.WriteBytes(data)

	return nil
}

func encodeIntBytes(bld *bitstore.Builder, nbits int, v any, eng endian.EndianEngine) error {
	if nbits%8 != 0 || nbits == 0 {
		return alignf("byte-oriented integer needs a whole-byte length, got %d bits", nbits)
	}

	tmp := bitstore.NewBuilder(nbits)
	if err := encodeIntField(tmp, nbits, v); err != nil {
		return err
	}

	data := tmp.Store().Bytes()
	if endian.IsLittleEndian(eng) {
		bb := pool.GetByteBuffer()
		defer pool.PutByteBuffer(bb)
		data = reverseBytesInto(bb, data)
	}
	bld.WriteBytes(data)

	return nil
}

// reverseBytesInto writes p in reverse byte order into the pooled scratch
// and returns the scratch content, valid until the buffer is put back.
func reverseBytesInto(bb *pool.ByteBuffer, p []byte) []byte {
	bb.SetLength(len(p))
	out := bb.Bytes()
	for i, c := range p {
		out[len(p)-1-i] = c
	}

	return out
}

// IEEE floats, 16/32/64 bits, plus the bfloat16 truncated-float32 format.

func decodeFloatField(s *bitstore.Store, eng endian.EndianEngine) (any, error) {
	data := s.Bytes()
	switch s.Len() {
	case 16:
		return floatx.From16(eng.Uint16(data)), nil
	case 32:
		return float64(math.Float32frombits(eng.Uint32(data))), nil
	case 64:
		return math.Float64frombits(eng.Uint64(data)), nil
	default:
		return nil, interpretf("float length must be 16, 32 or 64 bits, got %d", s.Len())
	}
}

func encodeFloatField(bld *bitstore.Builder, nbits int, v any, eng endian.EndianEngine) error {
	f, err := coerceFloat(v)
	if err != nil {
		return err
	}

	switch nbits {
	case 16:
		bld.WriteBytes(eng.AppendUint16(nil, floatx.To16(f)))
	case 32:
		bld.WriteBytes(eng.AppendUint32(nil, math.Float32bits(float32(f))))
	case 64:
		bld.WriteBytes(eng.AppendUint64(nil, math.Float64bits(f)))
	default:
		return creationf("float length must be 16, 32 or 64 bits, got %d", nbits)
	}

	return nil
}

func decodeBfloatField(s *bitstore.Store, eng endian.EndianEngine) (any, error) {
	if s.Len() != 16 {
		return nil, interpretf("bfloat length must be 16 bits, got %d", s.Len())
	}

	return floatx.FromBfloat16(eng.Uint16(s.Bytes())), nil
}

func encodeBfloatField(bld *bitstore.Builder, v any, eng endian.EndianEngine) error {
	f, err := coerceFloat(v)
	if err != nil {
		return err
	}

	bld.WriteBytes(eng.AppendUint16(nil, floatx.ToBfloat16(f)))

	return nil
}

// Textual and raw families.

func decodeHexField(s *bitstore.Store) (any, error) {
	return newBits(s).Hex()
}

func decodeOctField(s *bitstore.Store) (any, error) {
	return newBits(s).Oct()
}

func decodeBinField(s *bitstore.Store) (any, error) {
	return newBits(s).Bin(), nil
}

func decodeBytesField(s *bitstore.Store) (any, error) {
	if s.Len()%8 != 0 {
		return nil, interpretf("bytes field needs a whole-byte length, got %d bits", s.Len())
	}

	return s.Bytes(), nil
}

func encodeHexField(bld *bitstore.Builder, nbits int, v any) error {
	raw, ok := v.(string)
	if !ok {
		return creationf("cannot encode %T as hex", v)
	}
	raw = strings.TrimPrefix(strings.ToLower(raw), "0x")
	if len(raw)*4 != nbits {
		return creationf("hex value %q is %d bits but the field is %d", raw, len(raw)*4, nbits)
	}

	for _, c := range raw {
		d := hexDigitValue(byte(c))
		if d < 0 {
			return creationf("invalid hex digit %q", c)
		}
		bld.WriteBits(uint64(d), 4)
	}

	return nil
}

func hexDigitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}

func encodeOctField(bld *bitstore.Builder, nbits int, v any) error {
	raw, ok := v.(string)
	if !ok {
		return creationf("cannot encode %T as octal", v)
	}
	raw = strings.TrimPrefix(raw, "0o")
	if len(raw)*3 != nbits {
		return creationf("octal value %q is %d bits but the field is %d", raw, len(raw)*3, nbits)
	}

	for _, c := range raw {
		if c < '0' || c > '7' {
			return creationf("invalid octal digit %q", c)
		}
		bld.WriteBits(uint64(c-'0'), 3)
	}

	return nil
}

func encodeBinField(bld *bitstore.Builder, nbits int, v any) error {
	raw, ok := v.(string)
	if !ok {
		return creationf("cannot encode %T as binary", v)
	}
	raw = strings.TrimPrefix(raw, "0b")
	if len(raw) != nbits {
		return creationf("binary value %q is %d bits but the field is %d", raw, len(raw), nbits)
	}

	for _, c := range raw {
		switch c {
		case '0':
			bld.WriteBool(false)
		case '1':
			bld.WriteBool(true)
		default:
			return creationf("invalid binary digit %q", c)
		}
	}

	return nil
}

func encodeBytesField(bld *bitstore.Builder, nbits int, v any) error {
	var data []byte
	switch x := v.(type) {
	case []byte:
		data = x
	case string:
		data = []byte(x)
	default:
		return creationf("cannot encode %T as bytes", v)
	}
	if len(data)*8 != nbits {
		return creationf("bytes value is %d bits but the field is %d", len(data)*8, nbits)
	}
	bld.WriteBytes(data)

	return nil
}

// Minifloat families: IEEE-draft binary8 and the MX formats. A dtype-level
// scale multiplies decoded values and divides values before encode.

func decodeBinary8Field(s *bitstore.Store, f *floatx.Binary8, scale float64) (any, error) {
	if s.Len() != 8 {
		return nil, interpretf("%s length must be 8 bits, got %d", f.Name, s.Len())
	}

	return f.Decode(uint8(s.Uint64(0, 8))) * scale, nil //nolint:gosec
}

func encodeBinary8Field(bld *bitstore.Builder, v any, f *floatx.Binary8, scale float64) error {
	x, err := coerceFloat(v)
	if err != nil {
		return err
	}
	bld.WriteBits(uint64(f.Encode(x/scale)), 8)

	return nil
}

func decodeMXField(s *bitstore.Store, f *floatx.MXFormat, scale float64) (any, error) {
	if s.Len() != f.Width() {
		return nil, interpretf("%s length must be %d bits, got %d", f.Name, f.Width(), s.Len())
	}

	return f.Decode(uint8(s.Uint64(0, f.Width()))) * scale, nil //nolint:gosec
}

func encodeMXField(bld *bitstore.Builder, v any, f *floatx.MXFormat, scale float64) error {
	x, err := coerceFloat(v)
	if err != nil {
		return err
	}

	code, err := f.Encode(x/scale, Config().MXOverflow.internal())
	if err != nil {
		return creationf("%s: %v", f.Name, err)
	}
	bld.WriteBits(uint64(code), f.Width())

	return nil
}

func decodeE8M0Field(s *bitstore.Store) (any, error) {
	if s.Len() != 8 {
		return nil, interpretf("e8m0mxfp length must be 8 bits, got %d", s.Len())
	}

	return floatx.DecodeE8M0(uint8(s.Uint64(0, 8))), nil //nolint:gosec
}

func encodeE8M0Field(bld *bitstore.Builder, v any) error {
	x, err := coerceFloat(v)
	if err != nil {
		return err
	}

	code, err := floatx.EncodeE8M0(x)
	if err != nil {
		return creationf("e8m0mxfp: %v", err)
	}
	bld.WriteBits(uint64(code), 8)

	return nil
}

func decodeMXIntField(s *bitstore.Store, scale float64) (any, error) {
	if s.Len() != 8 {
		return nil, interpretf("mxint length must be 8 bits, got %d", s.Len())
	}

	return floatx.DecodeMXInt8(uint8(s.Uint64(0, 8))) * scale, nil //nolint:gosec
}

func encodeMXIntField(bld *bitstore.Builder, v any, scale float64) error {
	x, err := coerceFloat(v)
	if err != nil {
		return err
	}

	code, err := floatx.EncodeMXInt8(x / scale)
	if err != nil {
		return creationf("mxint: %v", err)
	}
	bld.WriteBits(uint64(code), 8)

	return nil
}

// Literal value parsing for the "name:len=value" token form.

func parseUintLiteral(raw string) (any, error) {
	if u, err := strconv.ParseUint(raw, 0, 64); err == nil {
		return u, nil
	}
	if v, ok := new(big.Int).SetString(raw, 0); ok {
		return v, nil
	}

	return nil, creationf("invalid unsigned integer literal %q", raw)
}

func parseIntLiteral(raw string) (any, error) {
	if i, err := strconv.ParseInt(raw, 0, 64); err == nil {
		return i, nil
	}
	if v, ok := new(big.Int).SetString(raw, 0); ok {
		return v, nil
	}

	return nil, creationf("invalid integer literal %q", raw)
}

func parseFloatLiteral(raw string) (any, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, creationf("invalid float literal %q", raw)
	}

	return f, nil
}

func parseBoolLiteral(raw string) (any, error) {
	switch raw {
	case "true", "True", "1":
		return true, nil
	case "false", "False", "0":
		return false, nil
	default:
		return nil, creationf("invalid bool literal %q", raw)
	}
}

func parseStringLiteral(raw string) (any, error) {
	return raw, nil
}
