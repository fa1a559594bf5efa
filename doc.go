// Package bitseq provides bit-addressable containers for binary data:
// creation, slicing, searching, mutation and interpretation of sequences
// whose lengths need not fall on byte boundaries.
//
// The package mirrors the two-type split common to binary containers: Bits
// is immutable and shares storage freely (slicing is zero-copy), while
// MutableBits owns its buffer exclusively and supports in-place edits,
// insertion, deletion and replacement.
//
// # Construction
//
// Sequences are built from raw bytes, integers, booleans, files, or a
// format string whose tokens carry literal values:
//
//	b, _ := bitseq.New("uint12=352, bool=1, pad:3")
//	b, _ = bitseq.FromBytes([]byte{0x12, 0x34})
//	b, _ = bitseq.Pack("uint8, float32", 7, 1.5)
//
// Format strings accept dtype tokens ("uint12", "floatle32", "ue"),
// hex/oct/bin literals ("0x1234", "0b101"), repetition ("3*uint8",
// "2*(bool, pad:7)"), struct-style shorthand (">HH", "<3q") and keyword
// lengths resolved through WithParam. Compile turns a format into a
// reusable Plan.
//
// # Interpretation
//
// Any sequence can be read back under a different dtype: integers of any
// length and byte order, IEEE 754 floats, bfloat16, the IEEE-draft binary8
// formats, the OCP MX 8-bit family including the E8M0 power-of-two scale
// format, exponential-Golomb codes, hex/octal/binary strings, raw bytes
// and booleans.
//
//	v, _ := b.Value("uint12")           // 352
//	vals, _ := r.ReadList("uint6, uint6") // the same bits, reread
//
// # Streaming
//
// Reader is a cursor over a sequence: sequential Read/Peek of dtype
// tokens, bulk ReadBits, delimiter scans with ReadTo and byte alignment
// helpers. Failed reads never move the cursor.
//
// # Searching
//
// Find, RFind, FindAll, Split and Replace locate bit patterns at any
// offset; WithByteAligned restricts candidates to byte boundaries and
// WithSearchRange bounds the scan. FindAll and Split return lazy,
// restartable iterators.
//
// # Configuration
//
// Config exposes the process-wide settings: LSB0 bit numbering, the
// byte-aligned search default and the MX overflow policy. See Settings for
// the caveats on changing them mid-stream.
package bitseq
