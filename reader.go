package bitseq

import (
	"errors"

	"github.com/arloliu/bitseq/internal/golomb"
	"github.com/arloliu/bitseq/internal/options"
)

// Reader is a stream cursor over a bit sequence: a position in
// [0, Len()] plus read, peek and alignment operations. The position is not
// part of the underlying sequence's identity; two readers over equal
// sequences are interchangeable regardless of where each has read to.
//
// Failed reads never move the position. Reading past the end produces a
// read error, distinct from requesting a zero-length field, which succeeds
// and returns empty data.
type Reader struct {
	b   *Bits
	pos int
}

// NewReader returns a cursor positioned at the start of b.
func NewReader(b *Bits) *Reader {
	return &Reader{b: b}
}

// Reader returns a new cursor positioned at the start of the sequence.
func (b *Bits) Reader() *Reader {
	return NewReader(b)
}

// Bits returns the sequence the reader cursors over.
func (r *Reader) Bits() *Bits {
	return r.b
}

// Pos returns the current bit position.
func (r *Reader) Pos() int {
	return r.pos
}

// SetPos moves the cursor to position p, which must be in [0, Len()].
func (r *Reader) SetPos(p int) error {
	if p < 0 || p > r.b.Len() {
		return readf("position %d out of range [0, %d]", p, r.b.Len())
	}
	r.pos = p

	return nil
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return r.b.Len() - r.pos
}

// ReadBits consumes n bits and returns them as a zero-copy sub-sequence.
func (r *Reader) ReadBits(n int) (*Bits, error) {
	s, err := r.sliceAhead(n)
	if err != nil {
		return nil, err
	}
	r.pos += n

	return s, nil
}

// PeekBits returns the next n bits without moving the cursor.
func (r *Reader) PeekBits(n int) (*Bits, error) {
	return r.sliceAhead(n)
}

func (r *Reader) sliceAhead(n int) (*Bits, error) {
	if n < 0 {
		return nil, readf("negative read of %d bits", n)
	}
	if n == 0 {
		z, _ := Zeros(0)
		return z, nil
	}
	if r.pos >= r.b.Len() {
		return nil, readf("end of stream at position %d", r.pos)
	}
	if n > r.Remaining() {
		return nil, readf("need %d bits at position %d but only %d remain", n, r.pos, r.Remaining())
	}

	return r.b.Slice(r.pos, r.pos+n)
}

// Read consumes one field described by a single dtype token, such as
// "uint12", "float32", "ue" or "bool", and returns the decoded value. A
// token with no length consumes everything that remains.
func (r *Reader) Read(token string) (any, error) {
	d, nbits, err := parseScalarToken(token)
	if err != nil {
		return nil, err
	}

	stretch := nbits == 0 && d.fixedLen == 0 && !d.variable
	v, consumed, err := r.readField(d, nbits, stretch)
	if err != nil {
		return nil, err
	}
	r.pos += consumed

	return v, nil
}

// Peek decodes one token like Read but restores the position afterward,
// even when the decode fails.
func (r *Reader) Peek(token string) (any, error) {
	d, nbits, err := parseScalarToken(token)
	if err != nil {
		return nil, err
	}

	stretch := nbits == 0 && d.fixedLen == 0 && !d.variable
	v, _, err := r.readField(d, nbits, stretch)

	return v, err
}

// readField decodes one field at the cursor without moving it, returning
// the value and the number of bits it spans. With stretch set, the field
// takes every remaining bit.
func (r *Reader) readField(d *Dtype, nbits int, stretch bool) (any, int, error) {
	if d.variable {
		if r.pos >= r.b.Len() {
			return nil, 0, readf("end of stream at position %d", r.pos)
		}
		v, n, err := d.decodeScan(d, r.b.store, r.pos)
		if err != nil {
			if errors.Is(err, golomb.ErrTruncated) {
				return nil, 0, readf("%s at position %d: %v", d.name, r.pos, err)
			}
			return nil, 0, interpretf("%s at position %d: %v", d.name, r.pos, err)
		}

		return v, n, nil
	}

	width := nbits
	if stretch {
		width = r.Remaining()
		if width == 0 {
			return nil, 0, readf("end of stream at position %d", r.pos)
		}
		if err := d.validLen(width); err != nil {
			return nil, 0, err
		}
	}

	s, err := r.sliceAhead(width)
	if err != nil {
		return nil, 0, err
	}
	if d.noValue {
		return nil, width, nil
	}

	v, err := d.decode(d, s.store)
	if err != nil {
		return nil, 0, err
	}

	return v, width, nil
}

// ReadList consumes every field of a format string in order and returns
// the decoded values. Padding fields consume bits but contribute no value.
// One field may be stretchy; it takes whatever the fields after it leave.
// On any failure the position is left where the call found it.
func (r *Reader) ReadList(format string, opts ...FormatOption) ([]any, error) {
	plan, err := Compile(format, opts...)
	if err != nil {
		return nil, err
	}

	return r.ReadPlan(plan)
}

// ReadPlan is ReadList over a precompiled plan.
func (r *Reader) ReadPlan(plan *Plan) ([]any, error) {
	saved := r.pos
	values, err := r.readPlan(plan)
	if err != nil {
		r.pos = saved
		return nil, err
	}

	return values, nil
}

// PeekList decodes like ReadList but always restores the position.
func (r *Reader) PeekList(format string, opts ...FormatOption) ([]any, error) {
	saved := r.pos
	values, err := r.ReadList(format, opts...)
	r.pos = saved

	return values, err
}

func (r *Reader) readPlan(plan *Plan) ([]any, error) {
	values := make([]any, 0, len(plan.fields))
	for i, f := range plan.fields {
		nbits := f.nbits
		if f.stretchy {
			tail := 0
			for _, g := range plan.fields[i+1:] {
				tail += g.nbits
			}
			nbits = r.Remaining() - tail
			if nbits < 0 {
				return nil, readf("need %d more bits for the fields after the unbounded one", -nbits)
			}
			if err := f.dtype.validLen(nbits); err != nil {
				return nil, err
			}
		}

		v, consumed, err := r.readField(f.dtype, nbits, false)
		if err != nil {
			return nil, err
		}
		r.pos += consumed
		if !f.dtype.noValue {
			values = append(values, v)
		}
	}

	return values, nil
}

// ReadTo advances the cursor just past the next occurrence of delim and
// returns everything consumed, delimiter included. A missing delimiter is
// a read error and leaves the position unchanged.
func (r *Reader) ReadTo(delim *Bits, opts ...SearchOption) (*Bits, error) {
	searchOpts := append([]SearchOption{}, opts...)
	searchOpts = append(searchOpts, withDefaultRange(r.pos, r.b.Len()))

	p, found, err := r.b.Find(delim, searchOpts...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, readf("delimiter not found after position %d", r.pos)
	}

	end := p + delim.Len()
	out, err := r.b.Slice(r.pos, end)
	if err != nil {
		return nil, err
	}
	r.pos = end

	return out, nil
}

// withDefaultRange restricts the search range only when the caller gave
// none of its own.
func withDefaultRange(start, end int) SearchOption {
	return options.NoError(func(c *searchConfig) {
		if !c.hasRange {
			c.start, c.end, c.hasRange = start, end, true
		}
	})
}

// ByteAlign advances the cursor to the next multiple of eight bits and
// returns the number of bits skipped. Already-aligned positions are left
// alone.
func (r *Reader) ByteAlign() (int, error) {
	skip := (8 - r.pos%8) % 8
	if skip > r.Remaining() {
		return 0, readf("cannot byte-align: %d bits needed but only %d remain", skip, r.Remaining())
	}
	r.pos += skip

	return skip, nil
}

// BytePos returns the cursor position in bytes. A position that is not on
// a byte boundary is a byte alignment error.
func (r *Reader) BytePos() (int, error) {
	if r.pos%8 != 0 {
		return 0, alignf("position %d is not on a byte boundary", r.pos)
	}

	return r.pos / 8, nil
}
