package pool

import "sync"

// Slice pool for efficient reuse of position slices.
// Replace and the byte-aligned search fast path collect candidate match
// positions into these slices before rewriting the target sequence.
var intSlicePool = sync.Pool{
	New: func() any { return &[]int{} },
}

// GetIntSlice retrieves an empty int slice with at least the given capacity
// from the pool.
//
// The caller must call the returned cleanup function to return the slice to
// the pool (typically with defer). The slice must not be used after cleanup.
func GetIntSlice(capacity int) ([]int, func()) {
	ptr, _ := intSlicePool.Get().(*[]int)
	slice := (*ptr)[:0]

	if cap(slice) < capacity {
		slice = make([]int, 0, capacity)
		*ptr = slice
	}

	return slice, func() { intSlicePool.Put(ptr) }
}
