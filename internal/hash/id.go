// Package hash computes content digests for bit sequences.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Digest computes the xxHash64 identity of a bit sequence from its bit
// length and its zero-padded byte rendering.
//
// The length participates in the digest so that sequences that share padded
// bytes but differ in bit count (e.g. 0b1010 and 0b10100) hash differently.
func Digest(bitLen int, data []byte) uint64 {
	d := xxhash.New()

	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(bitLen)) //nolint:gosec // bit lengths are non-negative
	_, _ = d.Write(hdr[:])
	_, _ = d.Write(data)

	return d.Sum64()
}
