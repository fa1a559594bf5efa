// Package golomb implements exponential-Golomb codes over bitstore views.
//
// The codes are self-delimiting: a decode scans forward bit-by-bit from a
// known start position to discover its own length, so a code can never be
// read backwards or framed by a fixed length. Two flavors are provided:
// the standard prefix form (ue/se) used by H.264-style bitstreams, and the
// interleaved form (uie/sie) where each data bit is preceded by a
// continuation flag.
package golomb

import (
	"errors"
	"math"
	"math/bits"

	"github.com/arloliu/bitseq/internal/bitstore"
)

var (
	// ErrTruncated is returned when a code runs past the end of the view.
	ErrTruncated = errors.New("bitstream ends before the code completes")
	// ErrRange is returned when a value cannot be represented.
	ErrRange = errors.New("value out of range for exponential-Golomb coding")
)

// AppendUE appends the standard unsigned code for v: n zero bits, a one
// bit, then the low n bits of v+1, where n = bitlen(v+1)-1.
func AppendUE(b *bitstore.Builder, v uint64) error {
	if v == math.MaxUint64 {
		return ErrRange
	}

	m := v + 1
	n := bits.Len64(m) - 1

	b.WriteBits(0, n)
	b.WriteBits(m, n+1)

	return nil
}

// DecodeUE decodes one unsigned code starting at pos.
// It returns the value and the number of bits the code occupies.
func DecodeUE(s *bitstore.Store, pos int) (uint64, int, error) {
	n := 0
	for {
		if pos+n >= s.Len() {
			return 0, 0, ErrTruncated
		}
		if s.Bit(pos + n) {
			break
		}
		n++
		if n > 63 {
			return 0, 0, ErrRange
		}
	}

	if pos+2*n+1 > s.Len() {
		return 0, 0, ErrTruncated
	}

	m := s.Uint64(pos+n, n+1) // leading one plus n data bits

	return m - 1, 2*n + 1, nil
}

// AppendSE appends the standard signed code for v using the zigzag
// mapping: positive v maps to 2v-1, non-positive v maps to -2v.
func AppendSE(b *bitstore.Builder, v int64) error {
	if v == math.MinInt64 {
		return ErrRange
	}

	var u uint64
	if v > 0 {
		u = 2*uint64(v) - 1
	} else {
		u = 2 * uint64(-v) //nolint:gosec // v > MinInt64, magnitude fits
	}

	return AppendUE(b, u)
}

// DecodeSE decodes one signed code starting at pos.
func DecodeSE(s *bitstore.Store, pos int) (int64, int, error) {
	u, n, err := DecodeUE(s, pos)
	if err != nil {
		return 0, 0, err
	}

	if u%2 == 1 {
		return int64((u + 1) / 2), n, nil //nolint:gosec
	}

	return -int64(u / 2), n, nil //nolint:gosec
}

// AppendUIE appends the interleaved unsigned code for v: the bits of v+1
// after its leading one, each preceded by a zero flag, then a one flag.
func AppendUIE(b *bitstore.Builder, v uint64) error {
	if v == math.MaxUint64 {
		return ErrRange
	}

	m := v + 1
	for i := bits.Len64(m) - 2; i >= 0; i-- {
		b.WriteBits(0, 1)
		b.WriteBits(m>>i, 1)
	}
	b.WriteBits(1, 1)

	return nil
}

// DecodeUIE decodes one interleaved unsigned code starting at pos.
func DecodeUIE(s *bitstore.Store, pos int) (uint64, int, error) {
	m := uint64(1)
	read := 0
	for {
		if pos+read >= s.Len() {
			return 0, 0, ErrTruncated
		}
		if s.Bit(pos + read) {
			read++
			break
		}
		read++

		if pos+read >= s.Len() {
			return 0, 0, ErrTruncated
		}
		if m >= 1<<63 {
			return 0, 0, ErrRange
		}
		m <<= 1
		if s.Bit(pos + read) {
			m |= 1
		}
		read++
	}

	return m - 1, read, nil
}

// AppendSIE appends the interleaved signed code: the unsigned code of the
// magnitude followed by one sign bit (set for negative) when v is nonzero.
func AppendSIE(b *bitstore.Builder, v int64) error {
	var mag uint64
	if v < 0 {
		mag = uint64(-v) //nolint:gosec
	} else {
		mag = uint64(v)
	}

	if err := AppendUIE(b, mag); err != nil {
		return err
	}
	if v != 0 {
		if v < 0 {
			b.WriteBits(1, 1)
		} else {
			b.WriteBits(0, 1)
		}
	}

	return nil
}

// DecodeSIE decodes one interleaved signed code starting at pos.
func DecodeSIE(s *bitstore.Store, pos int) (int64, int, error) {
	mag, n, err := DecodeUIE(s, pos)
	if err != nil {
		return 0, 0, err
	}
	if mag == 0 {
		return 0, n, nil
	}

	if pos+n >= s.Len() {
		return 0, 0, ErrTruncated
	}
	neg := s.Bit(pos + n)
	n++

	if neg {
		if mag > 1<<63 {
			return 0, 0, ErrRange
		}

		return -int64(mag), n, nil //nolint:gosec // mag <= 2^63, negation fits
	}
	if mag > math.MaxInt64 {
		return 0, 0, ErrRange
	}

	return int64(mag), n, nil
}
