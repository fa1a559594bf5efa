package bitseq

import (
	"fmt"
	"strings"

	"github.com/arloliu/bitseq/internal/bitstore"
	"github.com/arloliu/bitseq/internal/hash"
	"github.com/arloliu/bitseq/internal/mmapfile"
)

// Bits is an immutable sequence of bits.
//
// A Bits value references a byte buffer, a bit offset and a bit length.
// Slicing produces a new Bits sharing the same buffer without copying, so
// many views (including views over one memory-mapped file) can coexist
// cheaply. All operations that appear to modify a Bits return a new value.
//
// Bit positions are numbered from the first stored bit by default. When
// Config().LSB0 is set, positions are numbered from the last stored bit
// instead and indexing, slicing and searching advance from that end. Whole
// sequence numeric interpretation is unaffected by the numbering mode.
type Bits struct {
	store *bitstore.Store
	mm    *mmapfile.Region // non-nil when backed by a mapped file
}

func newBits(s *bitstore.Store) *Bits {
	return &Bits{store: s}
}

// Len returns the length of the sequence in bits.
func (b *Bits) Len() int {
	return b.store.Len()
}

// index resolves a public bit position: negative values count from the end,
// and LSB0 numbering reverses the direction.
func (b *Bits) index(i int) (int, error) {
	n := b.store.Len()
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return 0, fmt.Errorf("bit position %d out of range for length %d", i, n)
	}
	if Config().LSB0 {
		j = n - 1 - j
	}

	return j, nil
}

// sliceRange resolves a public [start, end) range to storage coordinates.
func (b *Bits) sliceRange(start, end int) (int, int, error) {
	n := b.store.Len()
	a, e := start, end
	if a < 0 {
		a += n
	}
	if e < 0 {
		e += n
	}
	if a < 0 || e > n || a > e {
		return 0, 0, fmt.Errorf("slice [%d:%d] out of range for length %d", start, end, n)
	}
	if Config().LSB0 {
		a, e = n-e, n-a
	}

	return a, e, nil
}

// Bit returns the bit at position i. Negative positions count from the end.
func (b *Bits) Bit(i int) (bool, error) {
	j, err := b.index(i)
	if err != nil {
		return false, err
	}

	return b.store.Bit(j), nil
}

// Slice returns the zero-copy sub-sequence [start, end). Negative bounds
// count from the end of the sequence.
func (b *Bits) Slice(start, end int) (*Bits, error) {
	a, e, err := b.sliceRange(start, end)
	if err != nil {
		return nil, err
	}

	return &Bits{store: b.store.Slice(a, e), mm: b.mm}, nil
}

// MustSlice is Slice for bounds the caller knows are valid; it panics on a
// bad range.
func (b *Bits) MustSlice(start, end int) *Bits {
	s, err := b.Slice(start, end)
	if err != nil {
		panic(err)
	}

	return s
}

// Count returns the number of bits equal to v.
func (b *Bits) Count(v bool) int {
	return b.store.Count(v)
}

// All reports whether every bit equals v. An empty sequence satisfies All.
func (b *Bits) All(v bool) bool {
	return b.store.Count(v) == b.store.Len()
}

// Any reports whether at least one bit equals v.
func (b *Bits) Any(v bool) bool {
	return b.store.Count(v) > 0
}

// Equal reports whether b and o hold the same bits in the same order.
func (b *Bits) Equal(o *Bits) bool {
	return b.store.Equal(o.store)
}

// Hash returns a 64-bit content hash of the sequence. Equal sequences hash
// equal regardless of their offset or backing buffer.
func (b *Bits) Hash() uint64 {
	return hash.Digest(b.store.Len(), b.store.Bytes())
}

// Copy returns an independent copy backed by a freshly allocated buffer.
func (b *Bits) Copy() *Bits {
	return newBits(b.store.Clone())
}

// Concat returns the concatenation of b followed by each of the others.
func (b *Bits) Concat(others ...*Bits) *Bits {
	total := b.store.Len()
	for _, o := range others {
		total += o.store.Len()
	}

	bld := bitstore.NewBuilder(total)
	bld.WriteStore(b.store)
	for _, o := range others {
		bld.WriteStore(o.store)
	}

	return newBits(bld.Store())
}

// Join concatenates the items with b between each pair. The separator must
// be non-empty; use Concat to concatenate without one.
func (b *Bits) Join(items []*Bits) (*Bits, error) {
	if b.store.Len() == 0 {
		return nil, fmt.Errorf("cannot join with an empty separator")
	}
	if len(items) == 0 {
		return newBits(bitstore.New(0)), nil
	}

	total := 0
	for _, it := range items {
		total += it.store.Len()
	}
	total += (len(items) - 1) * b.store.Len()

	bld := bitstore.NewBuilder(total)
	for i, it := range items {
		if i > 0 {
			bld.WriteStore(b.store)
		}
		bld.WriteStore(it.store)
	}

	return newBits(bld.Store()), nil
}

// And returns the bitwise AND of two equal-length sequences.
func (b *Bits) And(o *Bits) (*Bits, error) {
	return b.bitwise(o, func(x, y uint64) uint64 { return x & y })
}

// Or returns the bitwise OR of two equal-length sequences.
func (b *Bits) Or(o *Bits) (*Bits, error) {
	return b.bitwise(o, func(x, y uint64) uint64 { return x | y })
}

// Xor returns the bitwise XOR of two equal-length sequences.
func (b *Bits) Xor(o *Bits) (*Bits, error) {
	return b.bitwise(o, func(x, y uint64) uint64 { return x ^ y })
}

func (b *Bits) bitwise(o *Bits, op func(x, y uint64) uint64) (*Bits, error) {
	n := b.store.Len()
	if o.store.Len() != n {
		return nil, fmt.Errorf("bitwise operand length mismatch: %d vs %d bits", n, o.store.Len())
	}

	bld := bitstore.NewBuilder(n)
	for pos := 0; pos < n; pos += 64 {
		chunk := min(64, n-pos)
		bld.WriteBits(op(b.store.Uint64(pos, chunk), o.store.Uint64(pos, chunk)), chunk)
	}

	return newBits(bld.Store()), nil
}

// Not returns the bitwise complement of the sequence.
func (b *Bits) Not() *Bits {
	out := b.store.Clone()
	out.Invert(0, out.Len())

	return newBits(out)
}

// StartsWith reports whether the sequence begins with prefix.
func (b *Bits) StartsWith(prefix *Bits) bool {
	if prefix.store.Len() > b.store.Len() {
		return false
	}

	return b.store.EqualRange(0, prefix.store, 0, prefix.store.Len())
}

// EndsWith reports whether the sequence ends with suffix.
func (b *Bits) EndsWith(suffix *Bits) bool {
	n := suffix.store.Len()
	if n > b.store.Len() {
		return false
	}

	return b.store.EqualRange(b.store.Len()-n, suffix.store, 0, n)
}

// Close releases the memory mapping backing a file-sourced sequence. It is
// a no-op for in-memory sequences and is safe to call more than once.
//
// The mapping is shared by every view sliced from the same file-backed
// sequence; after Close, none of those views may be read again.
func (b *Bits) Close() error {
	if b.mm == nil {
		return nil
	}

	return b.mm.Close()
}

// String renders the sequence as a hex literal when its length is a
// multiple of four bits, or a binary literal otherwise. The empty sequence
// renders as the empty string.
func (b *Bits) String() string {
	n := b.store.Len()
	if n == 0 {
		return ""
	}
	if n%4 == 0 {
		h, _ := b.Hex()
		return "0x" + h
	}

	return "0b" + b.Bin()
}

// Bin returns the sequence as a string of '0' and '1' characters in storage
// order, most significant bit first.
//
// Like every interpretation property, the string is computed on each call
// and never cached: for a large mapped file it can be far bigger than the
// sequence's own backing memory.
func (b *Bits) Bin() string {
	n := b.store.Len()
	var sb strings.Builder
	sb.Grow(n)
	for i := range n {
		if b.store.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	return sb.String()
}
