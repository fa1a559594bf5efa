package bitseq

import (
	"io"
	"math"
	"math/big"
	"os"
	"strings"

	"github.com/arloliu/bitseq/internal/floatx"
)

const hexDigits = "0123456789abcdef"

// Hex returns the sequence as lowercase hex digits. The length must be a
// multiple of four bits; no padding is ever added to make it fit.
func (b *Bits) Hex() (string, error) {
	n := b.store.Len()
	if n%4 != 0 {
		return "", interpretf("cannot convert %d bits to hex: not a multiple of 4", n)
	}

	var sb strings.Builder
	sb.Grow(n / 4)
	for pos := 0; pos < n; pos += 4 {
		sb.WriteByte(hexDigits[b.store.Uint64(pos, 4)])
	}

	return sb.String(), nil
}

// Oct returns the sequence as octal digits. The length must be a multiple
// of three bits.
func (b *Bits) Oct() (string, error) {
	n := b.store.Len()
	if n%3 != 0 {
		return "", interpretf("cannot convert %d bits to octal: not a multiple of 3", n)
	}

	var sb strings.Builder
	sb.Grow(n / 3)
	for pos := 0; pos < n; pos += 3 {
		sb.WriteByte(byte('0' + b.store.Uint64(pos, 3)))
	}

	return sb.String(), nil
}

// ToBytes returns the sequence as a byte slice, padding with zero bits at
// the end (never the start) up to the next byte boundary.
func (b *Bits) ToBytes() []byte {
	return b.store.Bytes()
}

// BytesStrict returns the underlying bytes only when the length is a whole
// number of bytes.
func (b *Bits) BytesStrict() ([]byte, error) {
	if b.store.Len()%8 != 0 {
		return nil, interpretf("cannot convert %d bits to bytes: not a multiple of 8", b.store.Len())
	}

	return b.store.Bytes(), nil
}

// WriteTo writes the sequence to w with the same end padding as ToBytes.
// It implements io.WriterTo.
func (b *Bits) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.store.Bytes())

	return int64(n), err
}

// ToFile writes the sequence to the named file, end-padded to a whole
// number of bytes.
func (b *Bits) ToFile(path string) error {
	return os.WriteFile(path, b.store.Bytes(), 0o644)
}

// Uint interprets the whole sequence as an unsigned big-endian integer of
// up to 64 bits. Use UintBig for longer sequences.
func (b *Bits) Uint() (uint64, error) {
	n := b.store.Len()
	if n == 0 {
		return 0, interpretf("cannot interpret an empty sequence as an integer")
	}
	if n > 64 {
		return 0, interpretf("sequence of %d bits does not fit a uint64", n)
	}

	return b.store.Uint64(0, n), nil
}

// Int interprets the whole sequence as a two's complement big-endian
// integer of up to 64 bits.
func (b *Bits) Int() (int64, error) {
	u, err := b.Uint()
	if err != nil {
		return 0, err
	}

	return signExtend(u, b.store.Len()), nil
}

// signExtend widens an n-bit two's complement value to int64.
func signExtend(u uint64, n int) int64 {
	if n == 64 {
		return int64(u) //nolint:gosec
	}
	if u&(1<<(n-1)) != 0 {
		u |= ^uint64(0) << n
	}

	return int64(u) //nolint:gosec
}

// UintBig interprets the whole sequence, of any length, as an unsigned
// big-endian integer.
func (b *Bits) UintBig() (*big.Int, error) {
	n := b.store.Len()
	if n == 0 {
		return nil, interpretf("cannot interpret an empty sequence as an integer")
	}

	// Bytes are end-padded, so shift the padding back out.
	v := new(big.Int).SetBytes(b.store.Bytes())
	if pad := (8 - n&7) & 7; pad != 0 {
		v.Rsh(v, uint(pad)) //nolint:gosec
	}

	return v, nil
}

// IntBig interprets the whole sequence, of any length, as a two's
// complement big-endian integer.
func (b *Bits) IntBig() (*big.Int, error) {
	v, err := b.UintBig()
	if err != nil {
		return nil, err
	}

	n := b.store.Len()
	if b.store.Bit(0) {
		// Negative: subtract 2^n.
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(n))) //nolint:gosec
	}

	return v, nil
}

// Float interprets the whole sequence as a big-endian IEEE float. The
// length must be exactly 16, 32 or 64 bits.
func (b *Bits) Float() (float64, error) {
	switch b.store.Len() {
	case 16:
		return floatx.From16(uint16(b.store.Uint64(0, 16))), nil //nolint:gosec
	case 32:
		return float64(math.Float32frombits(uint32(b.store.Uint64(0, 32)))), nil //nolint:gosec
	case 64:
		return math.Float64frombits(b.store.Uint64(0, 64)), nil
	default:
		return 0, interpretf("cannot interpret %d bits as a float: length must be 16, 32 or 64", b.store.Len())
	}
}
