package bitstore

import "encoding/binary"

// Builder accumulates bits MSB-first and produces an owned Store.
//
// Bits are staged in a 64-bit accumulator and flushed to the byte buffer in
// 8-byte chunks, so the per-bit cost stays close to a shift and an or. The
// final partial chunk is flushed by Store.
type Builder struct {
	buf      []byte
	bitBuf   uint64 // accumulator, bits fill from the low end
	bitCount int    // valid bits in bitBuf
	n        int    // total bits written
}

// NewBuilder creates a Builder pre-sized for capBits bits.
func NewBuilder(capBits int) *Builder {
	if capBits < 0 {
		capBits = 0
	}

	return &Builder{buf: make([]byte, 0, (capBits+7)/8+8)}
}

// Len returns the number of bits written so far.
func (b *Builder) Len() int {
	return b.n
}

// WriteBool appends a single bit.
func (b *Builder) WriteBool(v bool) {
	var bit uint64
	if v {
		bit = 1
	}
	b.bitBuf = b.bitBuf<<1 | bit
	b.bitCount++
	b.n++

	if b.bitCount == 64 {
		b.flush()
	}
}

// WriteBits appends the low nbits bits (0..64) of v, MSB-first.
func (b *Builder) WriteBits(v uint64, nbits int) {
	if nbits == 0 {
		return
	}
	if nbits < 64 {
		v &= (1 << nbits) - 1
	}
	b.n += nbits

	available := 64 - b.bitCount
	if nbits <= available {
		b.bitBuf = b.bitBuf<<nbits | v
		b.bitCount += nbits
		if b.bitCount == 64 {
			b.flush()
		}

		return
	}

	// Split across the accumulator boundary.
	high := nbits - available
	b.bitBuf = b.bitBuf<<available | v>>high
	b.bitCount = 64
	b.flush()

	b.bitBuf = v & ((1 << high) - 1)
	b.bitCount = high
}

// WriteBytes appends whole bytes.
func (b *Builder) WriteBytes(p []byte) {
	for _, c := range p {
		b.WriteBits(uint64(c), 8)
	}
}

// WriteStore appends the full contents of s.
func (b *Builder) WriteStore(s *Store) {
	for pos := 0; pos < s.n; pos += 64 {
		k := s.n - pos
		if k > 64 {
			k = 64
		}
		b.WriteBits(s.Uint64(pos, k), k)
	}
}

// WriteStoreRange appends s[from:to].
func (b *Builder) WriteStoreRange(s *Store, from, to int) {
	for pos := from; pos < to; pos += 64 {
		k := to - pos
		if k > 64 {
			k = 64
		}
		b.WriteBits(s.Uint64(pos, k), k)
	}
}

// flush drains a full 64-bit accumulator into the byte buffer.
func (b *Builder) flush() {
	b.buf = binary.BigEndian.AppendUint64(b.buf, b.bitBuf)
	b.bitBuf = 0
	b.bitCount = 0
}

// Store finalizes and returns the accumulated bits as an owned Store.
// The Builder must not be used afterwards.
func (b *Builder) Store() *Store {
	if b.bitCount > 0 {
		// Left-align the partial accumulator and emit its bytes.
		aligned := b.bitBuf << (64 - b.bitCount)
		for nb := (b.bitCount + 7) / 8; nb > 0; nb-- {
			b.buf = append(b.buf, byte(aligned>>56))
			aligned <<= 8
		}
		b.bitBuf = 0
		b.bitCount = 0
	}

	return &Store{data: b.buf, n: b.n}
}
