package bitseq

import (
	"fmt"

	"github.com/arloliu/bitseq/internal/bitstore"
)

// MutableBits is a bit sequence that exclusively owns its backing buffer
// and supports in-place mutation alongside every immutable operation.
//
// A MutableBits is never backed by a shared mapping: every constructor
// copies, so mutating one sequence can never corrupt another view.
type MutableBits struct {
	Bits
}

// NewMutable builds a mutable sequence from a format string, like New.
func NewMutable(format string) (*MutableBits, error) {
	b, err := New(format)
	if err != nil {
		return nil, err
	}

	return &MutableBits{Bits{store: b.store}}, nil
}

// Mutable returns a mutable copy of the sequence backed by a freshly
// allocated, exclusively-owned buffer.
func (b *Bits) Mutable() *MutableBits {
	return &MutableBits{Bits{store: b.store.Clone()}}
}

// Immutable returns an immutable snapshot of the current contents.
func (m *MutableBits) Immutable() *Bits {
	return newBits(m.store.Clone())
}

// Slice returns an immutable copy of the sub-sequence [start, end).
//
// Unlike Bits.Slice this copies: a zero-copy view into a mutable buffer
// would stop being immutable on the next mutation.
func (m *MutableBits) Slice(start, end int) (*Bits, error) {
	v, err := m.Bits.Slice(start, end)
	if err != nil {
		return nil, err
	}

	return newBits(v.store.Clone()), nil
}

// insertPoint resolves a public insertion position, which may equal the
// length. LSB0 numbering reverses it.
func (b *Bits) insertPoint(pos int) (int, error) {
	n := b.store.Len()
	p := pos
	if p < 0 {
		p += n
	}
	if p < 0 || p > n {
		return 0, fmt.Errorf("position %d out of range for length %d", pos, n)
	}
	if Config().LSB0 {
		p = n - p
	}

	return p, nil
}

// Set sets the bit at position i to v.
func (m *MutableBits) Set(i int, v bool) error {
	j, err := m.index(i)
	if err != nil {
		return err
	}
	m.store.SetBit(j, v)

	return nil
}

// SetAll sets every bit to v.
func (m *MutableBits) SetAll(v bool) {
	m.store.Fill(0, m.store.Len(), v)
}

// SetBits sets the bit at each listed position to v.
func (m *MutableBits) SetBits(positions []int, v bool) error {
	for _, i := range positions {
		if err := m.Set(i, v); err != nil {
			return err
		}
	}

	return nil
}

// SetRange sets every bit in [start, end) to v.
func (m *MutableBits) SetRange(start, end int, v bool) error {
	a, e, err := m.sliceRange(start, end)
	if err != nil {
		return err
	}
	m.store.Fill(a, e, v)

	return nil
}

// Invert flips the listed bits, or every bit when no positions are given.
func (m *MutableBits) Invert(positions ...int) error {
	if len(positions) == 0 {
		m.store.Invert(0, m.store.Len())
		return nil
	}

	for _, i := range positions {
		j, err := m.index(i)
		if err != nil {
			return err
		}
		m.store.SetBit(j, !m.store.Bit(j))
	}

	return nil
}

// InvertRange flips every bit in [start, end).
func (m *MutableBits) InvertRange(start, end int) error {
	a, e, err := m.sliceRange(start, end)
	if err != nil {
		return err
	}
	m.store.Invert(a, e)

	return nil
}

// Reverse reverses the order of all bits.
func (m *MutableBits) Reverse() {
	m.store.Reverse(0, m.store.Len())
}

// ReverseRange reverses the order of the bits in [start, end).
func (m *MutableBits) ReverseRange(start, end int) error {
	a, e, err := m.sliceRange(start, end)
	if err != nil {
		return err
	}
	m.store.Reverse(a, e)

	return nil
}

// RotateLeft rotates all bits n places toward lower positions. The count
// must be non-negative; rotate the other way instead of negating it.
func (m *MutableBits) RotateLeft(n int) error {
	return m.RotateLeftRange(n, 0, m.store.Len())
}

// RotateRight rotates all bits n places toward higher positions.
func (m *MutableBits) RotateRight(n int) error {
	return m.RotateRightRange(n, 0, m.store.Len())
}

// RotateLeftRange rotates the bits of [start, end) n places toward the
// start of the range.
func (m *MutableBits) RotateLeftRange(n, start, end int) error {
	if n < 0 {
		return fmt.Errorf("negative rotation %d", n)
	}
	a, e, err := m.sliceRange(start, end)
	if err != nil {
		return err
	}

	m.rotate(a, e, n)

	return nil
}

// RotateRightRange rotates the bits of [start, end) n places toward the
// end of the range.
func (m *MutableBits) RotateRightRange(n, start, end int) error {
	if n < 0 {
		return fmt.Errorf("negative rotation %d", n)
	}
	a, e, err := m.sliceRange(start, end)
	if err != nil {
		return err
	}

	if width := e - a; width > 0 {
		m.rotate(a, e, width-n%width)
	}

	return nil
}

func (m *MutableBits) rotate(a, e, n int) {
	width := e - a
	if width == 0 {
		return
	}
	n %= width
	if n == 0 {
		return
	}

	tmp := m.store.Slice(a, e).Clone()
	for i := range width {
		m.store.SetBit(a+i, tmp.Bit((i+n)%width))
	}
}

// ByteSwap reverses byte order within [start, end) according to groups, a
// pattern of byte-group sizes. Each group of k bytes has its bytes
// reversed in place. With repeat, the pattern is applied again until too
// few bytes remain for another pass. A nil or empty pattern reverses as
// many whole bytes as the range holds, as a single group.
//
// Only the whole-byte prefix of the range is touched; trailing bits that
// do not make up a full byte are left as they are. The return value is
// the number of complete pattern applications.
func (m *MutableBits) ByteSwap(groups []int, start, end int, repeat bool) (int, error) {
	a, e, err := m.sliceRange(start, end)
	if err != nil {
		return 0, err
	}

	totalBytes := (e - a) / 8
	if len(groups) == 0 {
		groups = []int{totalBytes}
		repeat = false
	}

	patternBytes := 0
	for _, g := range groups {
		if g < 0 {
			return 0, fmt.Errorf("negative byte group size %d", g)
		}
		patternBytes += g
	}
	if patternBytes == 0 {
		return 0, nil
	}

	swaps := 0
	pos := a
	limit := a + totalBytes*8
	for pos+patternBytes*8 <= limit {
		for _, g := range groups {
			m.reverseBytes(pos, g)
			pos += g * 8
		}
		swaps++
		if !repeat {
			break
		}
	}

	return swaps, nil
}

// reverseBytes reverses the order of n 8-bit chunks starting at bit pos.
func (m *MutableBits) reverseBytes(pos, n int) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		bi := m.store.Uint64(pos+i*8, 8)
		bj := m.store.Uint64(pos+j*8, 8)
		m.store.PutUint64(pos+i*8, 8, bj)
		m.store.PutUint64(pos+j*8, 8, bi)
	}
}

// Insert inserts x at position pos, shifting later bits toward the end.
func (m *MutableBits) Insert(pos int, x *Bits) error {
	p, err := m.insertPoint(pos)
	if err != nil {
		return err
	}

	m.splice(p, p, x.store)

	return nil
}

// Overwrite replaces the bits starting at pos with x, which must fit
// within the current length. The affected range is [pos, pos+x.Len()) in
// public numbering, the same range SetSlice would touch.
func (m *MutableBits) Overwrite(pos int, x *Bits) error {
	n := m.store.Len()
	p := pos
	if p < 0 {
		p += n
	}
	if p < 0 || p+x.store.Len() > n {
		return fmt.Errorf("overwrite of %d bits at %d exceeds length %d", x.store.Len(), pos, n)
	}
	if Config().LSB0 {
		p = n - p - x.store.Len()
	}

	src := x.store
	if sameBuffer(m.store, src) {
		src = src.Clone()
	}
	m.store.CopyFrom(p, src)

	return nil
}

// Delete removes the bits in [start, end).
func (m *MutableBits) Delete(start, end int) error {
	a, e, err := m.sliceRange(start, end)
	if err != nil {
		return err
	}

	m.splice(a, e, bitstore.New(0))

	return nil
}

// SetSlice replaces the bits in [start, end) with x, which may have a
// different length.
func (m *MutableBits) SetSlice(start, end int, x *Bits) error {
	a, e, err := m.sliceRange(start, end)
	if err != nil {
		return err
	}

	m.splice(a, e, x.store)

	return nil
}

// AppendBits appends x at the end of the sequence.
func (m *MutableBits) AppendBits(x *Bits) {
	m.splice(m.store.Len(), m.store.Len(), x.store)
}

// Prepend inserts x at the start of the sequence.
func (m *MutableBits) Prepend(x *Bits) {
	m.splice(0, 0, x.store)
}

// splice replaces storage range [a, e) with src, rebuilding the buffer.
func (m *MutableBits) splice(a, e int, src *bitstore.Store) {
	bld := bitstore.NewBuilder(m.store.Len() - (e - a) + src.Len())
	bld.WriteStoreRange(m.store, 0, a)
	bld.WriteStore(src)
	bld.WriteStoreRange(m.store, e, m.store.Len())
	m.store = bld.Store()
}

func sameBuffer(a, b *bitstore.Store) bool {
	ra, _ := a.Raw()
	rb, _ := b.Raw()

	return len(ra) > 0 && len(rb) > 0 && &ra[0] == &rb[0]
}
