package pool

import "sync"

// ByteBuffer is a reusable byte scratch area for transient work such as
// byte-order reversal. Buffers come from a process-wide pool; callers must
// not retain the backing slice after putting the buffer back.
type ByteBuffer struct {
	buf []byte
}

// NewByteBuffer creates a byte buffer with the given initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{buf: make([]byte, 0, defaultSize)}
}

// Bytes returns the buffer content.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.buf
}

// Reset empties the buffer, keeping its capacity.
func (bb *ByteBuffer) Reset() {
	bb.buf = bb.buf[:0]
}

// Len returns the current length in bytes.
func (bb *ByteBuffer) Len() int {
	return len(bb.buf)
}

// SetLength resizes the buffer to n bytes, reallocating when the backing
// array is too small. Newly exposed bytes hold unspecified content.
func (bb *ByteBuffer) SetLength(n int) {
	if cap(bb.buf) < n {
		bb.buf = make([]byte, n)

		return
	}
	bb.buf = bb.buf[:n]
}

var byteBufferPool = sync.Pool{
	New: func() any { return NewByteBuffer(64) },
}

// GetByteBuffer retrieves an empty byte buffer from the pool.
func GetByteBuffer() *ByteBuffer {
	bb, _ := byteBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutByteBuffer returns a buffer to the pool for reuse.
func PutByteBuffer(bb *ByteBuffer) {
	byteBufferPool.Put(bb)
}
