package bitseq

import (
	"os"

	"github.com/arloliu/bitseq/internal/bitstore"
	"github.com/arloliu/bitseq/internal/mmapfile"
	"github.com/arloliu/bitseq/internal/options"
)

// bytesConfig carries the optional bit offset and length for FromBytes.
type bytesConfig struct {
	offset int
	length int // -1 means "to the end of the data"
}

// BytesOption configures FromBytes and FromFile.
// This is a type alias for the generic Option interface specialized for the
// byte-source configuration.
type BytesOption = options.Option[*bytesConfig]

// WithOffset skips the first n bits of the source data.
func WithOffset(n int) BytesOption {
	return options.New(func(c *bytesConfig) error {
		if n < 0 {
			return creationf("negative bit offset %d", n)
		}
		c.offset = n

		return nil
	})
}

// WithLength truncates the sequence to n bits, counted after any offset.
func WithLength(n int) BytesOption {
	return options.New(func(c *bytesConfig) error {
		if n < 0 {
			return creationf("negative bit length %d", n)
		}
		c.length = n

		return nil
	})
}

func resolveByteWindow(totalBits int, opts []BytesOption) (*bytesConfig, error) {
	cfg := &bytesConfig{length: -1}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.offset > totalBits {
		return nil, creationf("bit offset %d exceeds data length %d bits", cfg.offset, totalBits)
	}
	if cfg.length < 0 {
		cfg.length = totalBits - cfg.offset
	}
	if cfg.offset+cfg.length > totalBits {
		return nil, creationf("offset %d + length %d exceeds data length %d bits", cfg.offset, cfg.length, totalBits)
	}

	return cfg, nil
}

// FromBytes creates an immutable sequence from a copy of data. The optional
// offset and length select a bit window within the data.
func FromBytes(data []byte, opts ...BytesOption) (*Bits, error) {
	cfg, err := resolveByteWindow(len(data)*8, opts)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	return newBits(bitstore.FromBytes(buf, cfg.offset, cfg.length)), nil
}

// Zeros returns a sequence of n zero bits.
func Zeros(n int) (*Bits, error) {
	if n < 0 {
		return nil, creationf("negative bit count %d", n)
	}

	return newBits(bitstore.New(n)), nil
}

// Ones returns a sequence of n one bits.
func Ones(n int) (*Bits, error) {
	if n < 0 {
		return nil, creationf("negative bit count %d", n)
	}

	s := bitstore.New(n)
	s.Fill(0, n, true)

	return newBits(s), nil
}

// FromBools creates a sequence with one bit per element of vals.
func FromBools(vals []bool) *Bits {
	bld := bitstore.NewBuilder(len(vals))
	for _, v := range vals {
		bld.WriteBool(v)
	}

	return newBits(bld.Store())
}

// FromUint creates a sequence holding v as an unsigned big-endian integer
// of exactly nbits bits.
func FromUint(v uint64, nbits int) (*Bits, error) {
	if nbits < 1 || nbits > 64 {
		return nil, creationf("uint length must be in [1, 64], got %d", nbits)
	}
	if nbits < 64 && v >= 1<<nbits {
		return nil, creationf("%d does not fit in %d bits", v, nbits)
	}

	bld := bitstore.NewBuilder(nbits)
	bld.WriteBits(v, nbits)

	return newBits(bld.Store()), nil
}

// FromInt creates a sequence holding v as a two's complement big-endian
// integer of exactly nbits bits.
func FromInt(v int64, nbits int) (*Bits, error) {
	if nbits < 1 || nbits > 64 {
		return nil, creationf("int length must be in [1, 64], got %d", nbits)
	}
	if nbits < 64 {
		lo := int64(-1) << (nbits - 1)
		hi := int64(1)<<(nbits-1) - 1
		if v < lo || v > hi {
			return nil, creationf("%d does not fit in %d signed bits", v, nbits)
		}
	}

	bld := bitstore.NewBuilder(nbits)
	bld.WriteBits(uint64(v), nbits) //nolint:gosec // range checked above

	return newBits(bld.Store()), nil
}

// FromFile memory-maps the named file and returns an immutable sequence
// over its contents without copying. The optional offset and length select
// a bit window within the file.
//
// The mapping stays open until Close is called on the sequence (or any
// slice of it); on some platforms it blocks external writers until then.
func FromFile(path string, opts ...BytesOption) (*Bits, error) {
	region, err := mmapfile.Open(path)
	if err != nil {
		return nil, creationf("open %s: %v", path, err)
	}

	cfg, err := resolveByteWindow(len(region.Bytes())*8, opts)
	if err != nil {
		region.Close()
		return nil, err
	}

	return &Bits{
		store: bitstore.FromBytes(region.Bytes(), cfg.offset, cfg.length),
		mm:    region,
	}, nil
}

// FromFileMutable reads the named file eagerly into an exclusively-owned
// buffer and returns a mutable sequence. Mutation is incompatible with a
// shared read-only mapping, so the whole file is always copied.
func FromFileMutable(path string, opts ...BytesOption) (*MutableBits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, creationf("read %s: %v", path, err)
	}

	cfg, err := resolveByteWindow(len(data)*8, opts)
	if err != nil {
		return nil, err
	}

	return &MutableBits{Bits{store: bitstore.FromBytes(data, cfg.offset, cfg.length).Clone()}}, nil
}
