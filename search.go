package bitseq

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/arloliu/bitseq/internal/bitstore"
	"github.com/arloliu/bitseq/internal/options"
	"github.com/arloliu/bitseq/internal/pool"
)

// searchConfig carries the options shared by the search family.
type searchConfig struct {
	start    int
	end      int
	hasRange bool
	aligned  *bool
	count    int // 0 means unlimited
}

// SearchOption configures Find, RFind, FindAll, Split, Replace and ReadTo.
// This is a type alias for the generic Option interface specialized for the
// search configuration.
type SearchOption = options.Option[*searchConfig]

// WithSearchRange restricts the search to positions within [start, end).
func WithSearchRange(start, end int) SearchOption {
	return options.NoError(func(c *searchConfig) {
		c.start, c.end, c.hasRange = start, end, true
	})
}

// WithByteAligned restricts candidate positions to multiples of eight,
// overriding the Config().ByteAligned default for this call.
func WithByteAligned(v bool) SearchOption {
	return options.NoError(func(c *searchConfig) {
		c.aligned = &v
	})
}

// WithCount bounds the number of matches, pieces or replacements.
func WithCount(n int) SearchOption {
	return options.New(func(c *searchConfig) error {
		if n < 0 {
			return fmt.Errorf("negative count %d", n)
		}
		c.count = n

		return nil
	})
}

// resolvedSearch is a search request translated to storage coordinates.
type resolvedSearch struct {
	a, e    int // storage range
	aligned bool
	count   int
	lsb0    bool
}

func (b *Bits) resolveSearch(needle *Bits, opts []SearchOption) (*resolvedSearch, error) {
	if needle.store.Len() == 0 {
		return nil, fmt.Errorf("cannot search for an empty sequence")
	}

	cfg := &searchConfig{end: b.store.Len()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if !cfg.hasRange {
		cfg.start, cfg.end = 0, b.store.Len()
	}

	a, e, err := b.sliceRange(cfg.start, cfg.end)
	if err != nil {
		return nil, err
	}

	aligned := Config().ByteAligned
	if cfg.aligned != nil {
		aligned = *cfg.aligned
	}

	return &resolvedSearch{a: a, e: e, aligned: aligned, count: cfg.count, lsb0: Config().LSB0}, nil
}

// pubPos translates a storage match position back to public numbering.
func (rs *resolvedSearch) pubPos(total, p, m int) int {
	if rs.lsb0 {
		return total - p - m
	}

	return p
}

// okCandidate applies the byte-alignment filter in public coordinates.
func (rs *resolvedSearch) okCandidate(total, p, m int) bool {
	return !rs.aligned || rs.pubPos(total, p, m)%8 == 0
}

// Find returns the position of the first occurrence of needle. The second
// return value distinguishes "not found" from a match at position zero.
func (b *Bits) Find(needle *Bits, opts ...SearchOption) (int, bool, error) {
	rs, err := b.resolveSearch(needle, opts)
	if err != nil {
		return 0, false, err
	}

	// The first public match scans backward through storage in LSB0 mode.
	p, ok := b.scan(needle.store, rs, rs.lsb0)
	if !ok {
		return 0, false, nil
	}

	return rs.pubPos(b.store.Len(), p, needle.store.Len()), true, nil
}

// RFind returns the position of the last occurrence of needle: it starts
// scanning at the end of the range and proceeds toward the start.
func (b *Bits) RFind(needle *Bits, opts ...SearchOption) (int, bool, error) {
	rs, err := b.resolveSearch(needle, opts)
	if err != nil {
		return 0, false, err
	}

	p, ok := b.scan(needle.store, rs, !rs.lsb0)
	if !ok {
		return 0, false, nil
	}

	return rs.pubPos(b.store.Len(), p, needle.store.Len()), true, nil
}

// scan locates one match within the resolved range, forward or backward in
// storage order. Byte-aligned searches over byte-aligned buffers compare
// whole bytes in bulk; everything else walks candidates bit by bit.
func (b *Bits) scan(nd *bitstore.Store, rs *resolvedSearch, fromEnd bool) (int, bool) {
	m := nd.Len()
	if m > rs.e-rs.a {
		return 0, false
	}

	if rs.aligned && !rs.lsb0 {
		if raw, off := b.store.Raw(); off%8 == 0 && m >= 8 {
			return scanBytes(raw[off/8:], b.store, nd, rs.a, rs.e, fromEnd)
		}
	}

	if !fromEnd {
		for p := rs.a; p+m <= rs.e; p++ {
			if rs.okCandidate(b.store.Len(), p, m) && b.store.EqualRange(p, nd, 0, m) {
				return p, true
			}
		}

		return 0, false
	}

	for p := rs.e - m; p >= rs.a; p-- {
		if rs.okCandidate(b.store.Len(), p, m) && b.store.EqualRange(p, nd, 0, m) {
			return p, true
		}
	}

	return 0, false
}

// scanBytes is the byte-aligned fast path: data holds the store's bytes
// starting at its first bit, and candidates are byte positions within the
// storage range [a, e).
func scanBytes(data []byte, hay, nd *bitstore.Store, a, e int, fromEnd bool) (int, bool) {
	m := nd.Len()
	full := m / 8
	ndBytes := nd.Bytes()[:full]

	lo := (a + 7) / 8 // first whole-byte candidate
	hi := (e - m) / 8 // last candidate byte position
	if hi < lo {
		return 0, false
	}

	if !fromEnd {
		for cur := lo; cur <= hi; {
			idx := bytes.Index(data[cur:hi+full], ndBytes)
			if idx < 0 {
				return 0, false
			}
			p := (cur + idx) * 8
			if p+m <= e && hay.EqualRange(p+full*8, nd, full*8, m-full*8) {
				return p, true
			}
			cur += idx + 1
		}

		return 0, false
	}

	for limit := hi + full; limit >= lo+full; {
		idx := bytes.LastIndex(data[lo:limit], ndBytes)
		if idx < 0 {
			return 0, false
		}
		p := (lo + idx) * 8
		if p+m <= e && hay.EqualRange(p+full*8, nd, full*8, m-full*8) {
			return p, true
		}
		limit = lo + idx + full - 1
	}

	return 0, false
}

// FindAll returns a lazy, restartable sequence of every (possibly
// overlapping) match position, in ascending public order, bounded by any
// WithCount option.
func (b *Bits) FindAll(needle *Bits, opts ...SearchOption) (iter.Seq[int], error) {
	rs, err := b.resolveSearch(needle, opts)
	if err != nil {
		return nil, err
	}

	m := needle.store.Len()
	total := b.store.Len()

	return func(yield func(int) bool) {
		found := 0
		sub := *rs
		for sub.e-sub.a >= m {
			p, ok := b.scan(needle.store, &sub, rs.lsb0)
			if !ok {
				return
			}
			if !yield(rs.pubPos(total, p, m)) {
				return
			}
			found++
			if rs.count > 0 && found >= rs.count {
				return
			}
			// Overlapping matches: advance one position past the start.
			if rs.lsb0 {
				sub.e = p + m - 1
			} else {
				sub.a = p + 1
			}
		}
	}, nil
}

// Split returns a lazy sequence of pieces cut at each occurrence of delim.
// The region before the first occurrence is always yielded, even when
// empty; each further piece starts with the delimiter. WithCount bounds
// the number of pieces.
func (b *Bits) Split(delim *Bits, opts ...SearchOption) (iter.Seq[*Bits], error) {
	rs, err := b.resolveSearch(delim, opts)
	if err != nil {
		return nil, err
	}

	total := b.store.Len()

	// Work in public coordinates so slicing honors the numbering mode.
	start, end := rs.a, rs.e
	if rs.lsb0 {
		start, end = total-rs.e, total-rs.a
	}

	// The match stream must not inherit any count bound: for Split, the
	// count limits yielded pieces, not delimiter occurrences.
	findOpts := []SearchOption{
		WithSearchRange(start, end),
		WithByteAligned(rs.aligned),
	}

	return func(yield func(*Bits) bool) {
		matches, _ := b.FindAll(delim, findOpts...)
		pieces := 0
		emit := func(from, to int) bool {
			if rs.count > 0 && pieces >= rs.count {
				return false
			}
			piece, sliceErr := b.Slice(from, to)
			if sliceErr != nil {
				return false
			}
			pieces++

			return yield(piece)
		}

		prev := start
		for p := range matches {
			if !emit(prev, p) {
				return
			}
			prev = p
		}
		emit(prev, end)
	}, nil
}

// Replace substitutes every non-overlapping occurrence of old with new in
// one left-to-right pass and returns the number of replacements made.
// WithCount bounds the replacements.
func (m *MutableBits) Replace(old, repl *Bits, opts ...SearchOption) (int, error) {
	rs, err := m.resolveSearch(old, opts)
	if err != nil {
		return 0, err
	}

	nd := old.store.Len()
	positions, release := pool.GetIntSlice(8)
	defer release()

	// Non-overlapping storage-order matches.
	sub := *rs
	for sub.e-sub.a >= nd {
		p, ok := m.scan(old.store, &sub, false)
		if !ok {
			break
		}
		positions = append(positions, p)
		if rs.count > 0 && len(positions) >= rs.count {
			break
		}
		sub.a = p + nd
	}
	if len(positions) == 0 {
		return 0, nil
	}

	src := repl.store
	if sameBuffer(m.store, src) {
		src = src.Clone()
	}

	bld := bitstore.NewBuilder(m.store.Len() + len(positions)*(src.Len()-nd))
	prev := 0
	for _, p := range positions {
		bld.WriteStoreRange(m.store, prev, p)
		bld.WriteStore(src)
		prev = p + nd
	}
	bld.WriteStoreRange(m.store, prev, m.store.Len())
	m.store = bld.Store()

	return len(positions), nil
}
