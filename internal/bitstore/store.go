// Package bitstore implements the bit-addressed storage primitives that the
// public sequence types build on.
//
// A Store is a view over a byte buffer: a bit offset locates the first used
// bit and a bit length bounds the view. Slicing produces a new view over the
// same buffer without copying, which is what allows many immutable sequences
// (including slices of memory-mapped files) to share one allocation. Bits
// are numbered MSB-first within each byte, matching the wire order used by
// every codec in this module.
//
// The package performs no ownership policing: mutating methods assume the
// caller holds an exclusively-owned buffer. The public layer enforces that
// discipline (mutable sequences always clone on construction).
package bitstore

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Store is a bit-addressed view over a byte buffer.
type Store struct {
	data []byte
	off  int // absolute bit offset of view bit 0 within data
	n    int // view length in bits
}

// New creates a Store of nbits zero bits backed by a freshly allocated,
// exclusively-owned buffer.
func New(nbits int) *Store {
	if nbits < 0 {
		panic(fmt.Sprintf("bitstore: negative length %d", nbits))
	}

	return &Store{
		data: make([]byte, (nbits+7)/8),
		n:    nbits,
	}
}

// FromBytes creates a view over data starting at bit offset off and spanning
// nbits bits. The buffer is shared, not copied.
func FromBytes(data []byte, off, nbits int) *Store {
	if off < 0 || nbits < 0 || off+nbits > len(data)*8 {
		panic(fmt.Sprintf("bitstore: view [%d, %d+%d) exceeds %d bits", off, off, nbits, len(data)*8))
	}

	return &Store{data: data, off: off, n: nbits}
}

// Len returns the view length in bits.
func (s *Store) Len() int {
	return s.n
}

// Offset returns the absolute bit offset of the view within its buffer.
// (Offset % 8) tells whether view positions are byte-aligned in memory.
func (s *Store) Offset() int {
	return s.off
}

// Raw exposes the backing buffer and the view's absolute bit offset.
// Used by the byte-aligned search fast path; callers must not mutate
// the returned slice unless they own it.
func (s *Store) Raw() ([]byte, int) {
	return s.data, s.off
}

// Bit returns the bit at view position i.
func (s *Store) Bit(i int) bool {
	abs := s.off + i
	return s.data[abs>>3]&(0x80>>(abs&7)) != 0
}

// SetBit sets the bit at view position i to v.
func (s *Store) SetBit(i int, v bool) {
	abs := s.off + i
	mask := byte(0x80 >> (abs & 7))
	if v {
		s.data[abs>>3] |= mask
	} else {
		s.data[abs>>3] &^= mask
	}
}

// Uint64 reads nbits bits (0..64) starting at view position pos and returns
// them MSB-first in the low bits of the result.
func (s *Store) Uint64(pos, nbits int) uint64 {
	if nbits == 0 {
		return 0
	}

	abs := s.off + pos

	// Fast path: byte-aligned reads of exact byte widths.
	if abs&7 == 0 {
		idx := abs >> 3
		switch nbits {
		case 8:
			return uint64(s.data[idx])
		case 16:
			return uint64(binary.BigEndian.Uint16(s.data[idx:]))
		case 32:
			return uint64(binary.BigEndian.Uint32(s.data[idx:]))
		case 64:
			return binary.BigEndian.Uint64(s.data[idx:])
		}
	}

	var v uint64
	remaining := nbits
	for remaining > 0 {
		bitInByte := abs & 7
		take := 8 - bitInByte
		if take > remaining {
			take = remaining
		}
		chunk := (s.data[abs>>3] >> (8 - bitInByte - take)) & byte((1<<take)-1)
		v = v<<take | uint64(chunk)
		abs += take
		remaining -= take
	}

	return v
}

// PutUint64 writes the low nbits bits (0..64) of v at view position pos,
// MSB-first.
func (s *Store) PutUint64(pos, nbits int, v uint64) {
	if nbits == 0 {
		return
	}

	abs := s.off + pos

	if abs&7 == 0 {
		idx := abs >> 3
		switch nbits {
		case 8:
			s.data[idx] = byte(v)
			return
		case 16:
			binary.BigEndian.PutUint16(s.data[idx:], uint16(v)) //nolint:gosec
			return
		case 32:
			binary.BigEndian.PutUint32(s.data[idx:], uint32(v)) //nolint:gosec
			return
		case 64:
			binary.BigEndian.PutUint64(s.data[idx:], v)
			return
		}
	}

	remaining := nbits
	for remaining > 0 {
		bitInByte := abs & 7
		take := 8 - bitInByte
		if take > remaining {
			take = remaining
		}
		shift := 8 - bitInByte - take
		chunk := byte(v>>(remaining-take)) & byte((1<<take)-1)
		mask := byte((1<<take)-1) << shift
		idx := abs >> 3
		s.data[idx] = (s.data[idx] &^ mask) | chunk<<shift
		abs += take
		remaining -= take
	}
}

// Slice returns a zero-copy view of [a, b).
func (s *Store) Slice(a, b int) *Store {
	if a < 0 || b < a || b > s.n {
		panic(fmt.Sprintf("bitstore: slice [%d, %d) out of range [0, %d]", a, b, s.n))
	}

	return &Store{data: s.data, off: s.off + a, n: b - a}
}

// Clone returns a compact owned copy of the view (offset 0).
func (s *Store) Clone() *Store {
	c := New(s.n)
	c.CopyFrom(0, s)

	return c
}

// Bytes returns a copy of the view as whole bytes, padded with zero bits at
// the end to the next byte boundary.
func (s *Store) Bytes() []byte {
	nb := (s.n + 7) / 8
	out := make([]byte, nb)

	if s.off&7 == 0 {
		copy(out, s.data[s.off>>3:s.off>>3+nb])
	} else {
		for pos, i := 0, 0; pos < s.n; pos, i = pos+8, i+1 {
			k := s.n - pos
			if k > 8 {
				k = 8
			}
			out[i] = byte(s.Uint64(pos, k) << (8 - k))
		}
	}

	// Zero the padding bits of the final byte.
	if tail := s.n & 7; tail != 0 {
		out[nb-1] &= 0xFF << (8 - tail)
	}

	return out
}

// CopyFrom overwrites nbits of the view starting at pos with the contents of
// src. The source must not alias the destination range.
func (s *Store) CopyFrom(pos int, src *Store) {
	for p := 0; p < src.n; p += 64 {
		k := src.n - p
		if k > 64 {
			k = 64
		}
		s.PutUint64(pos+p, k, src.Uint64(p, k))
	}
}

// EqualRange reports whether s[i:i+nbits] equals o[j:j+nbits].
func (s *Store) EqualRange(i int, o *Store, j, nbits int) bool {
	for p := 0; p < nbits; p += 64 {
		k := nbits - p
		if k > 64 {
			k = 64
		}
		if s.Uint64(i+p, k) != o.Uint64(j+p, k) {
			return false
		}
	}

	return true
}

// Equal reports whether two views have identical length and contents.
func (s *Store) Equal(o *Store) bool {
	if s.n != o.n {
		return false
	}

	return s.EqualRange(0, o, 0, s.n)
}

// Count returns the number of bits in the view equal to v.
func (s *Store) Count(v bool) int {
	ones := 0
	pos := 0

	// Whole-byte fast path once aligned.
	if lead := (8 - (s.off+pos)&7) & 7; lead > 0 && lead <= s.n {
		ones += bits.OnesCount64(s.Uint64(0, lead))
		pos = lead
	}
	for ; pos+8 <= s.n; pos += 8 {
		ones += bits.OnesCount8(s.data[(s.off+pos)>>3])
	}
	if pos < s.n {
		ones += bits.OnesCount64(s.Uint64(pos, s.n-pos))
	}

	if v {
		return ones
	}

	return s.n - ones
}

// Invert toggles every bit in [a, b).
func (s *Store) Invert(a, b int) {
	pos := a

	// Leading partial byte.
	for pos < b && (s.off+pos)&7 != 0 {
		s.SetBit(pos, !s.Bit(pos))
		pos++
	}
	for ; pos+8 <= b; pos += 8 {
		s.data[(s.off+pos)>>3] ^= 0xFF
	}
	for ; pos < b; pos++ {
		s.SetBit(pos, !s.Bit(pos))
	}
}

// Fill sets every bit in [a, b) to v.
func (s *Store) Fill(a, b int, v bool) {
	var fill byte
	if v {
		fill = 0xFF
	}

	pos := a
	for pos < b && (s.off+pos)&7 != 0 {
		s.SetBit(pos, v)
		pos++
	}
	for ; pos+8 <= b; pos += 8 {
		s.data[(s.off+pos)>>3] = fill
	}
	for ; pos < b; pos++ {
		s.SetBit(pos, v)
	}
}

// Reverse reverses the bit order of [a, b) in place.
func (s *Store) Reverse(a, b int) {
	for i, j := a, b-1; i < j; i, j = i+1, j-1 {
		bi, bj := s.Bit(i), s.Bit(j)
		s.SetBit(i, bj)
		s.SetBit(j, bi)
	}
}
