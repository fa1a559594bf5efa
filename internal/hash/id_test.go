package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_Deterministic(t *testing.T) {
	d1 := Digest(12, []byte{0x12, 0x30})
	d2 := Digest(12, []byte{0x12, 0x30})
	require.Equal(t, d1, d2, "same input must produce the same digest")
}

func TestDigest_LengthSensitive(t *testing.T) {
	// 0b1010 padded and 0b10100 padded share the byte 0xA0.
	short := Digest(4, []byte{0xA0})
	long := Digest(5, []byte{0xA0})
	assert.NotEqual(t, short, long, "digest must distinguish bit lengths over identical padded bytes")
}

func TestDigest_ContentSensitive(t *testing.T) {
	a := Digest(16, []byte{0x12, 0x34})
	b := Digest(16, []byte{0x12, 0x35})
	assert.NotEqual(t, a, b)
}

func TestDigest_Empty(t *testing.T) {
	// Only requirement is determinism; the concrete value is unspecified.
	require.Equal(t, Digest(0, nil), Digest(0, []byte{}))
}
