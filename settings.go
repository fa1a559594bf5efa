package bitseq

import "github.com/arloliu/bitseq/internal/floatx"

// OverflowPolicy selects what an out-of-range E5M2 or E4M3 encode produces.
type OverflowPolicy uint8

const (
	// Saturate clamps out-of-range values to the maximum finite magnitude.
	// This is the default policy.
	Saturate OverflowPolicy = iota
	// Overflow produces the format's infinity (E5M2) or NaN (E4M3) instead.
	Overflow
)

func (p OverflowPolicy) internal() floatx.OverflowPolicy {
	if p == Overflow {
		return floatx.Overflow
	}

	return floatx.Saturate
}

// Settings holds the process-wide configuration flags. Obtain the live
// instance with Config; field writes take effect on the next operation
// that consults them.
//
// The settings are plain fields with no synchronization. They are meant to
// be set once near startup; toggling them concurrently with other package
// operations is a data race.
type Settings struct {
	// LSB0 renumbers bit positions so that bit 0 is the last stored bit
	// and indexing, slicing and searching advance from that end. Whole
	// sequence integer and float interpretation is unchanged: the most
	// significant bit is always the first stored bit.
	//
	// Changing LSB0 while any Reader holds a non-zero position leaves that
	// reader's future results undefined. Callers must reposition or
	// discard live readers themselves; the package does not detect the
	// switch.
	LSB0 bool

	// ByteAligned makes byte alignment the default for the search family
	// (Find, RFind, FindAll, Split, Replace, ReadTo) when no explicit
	// option is given.
	ByteAligned bool

	// MXOverflow governs out-of-range E5M2/E4M3 encodes.
	MXOverflow OverflowPolicy

	// NoColor disables ANSI color in any presentational output layered on
	// this package. The core never emits color itself; the flag is stored
	// here so display collaborators share one switch.
	NoColor bool
}

var settings Settings

// Config returns the process-wide settings instance.
func Config() *Settings {
	return &settings
}
