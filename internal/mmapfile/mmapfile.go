// Package mmapfile provides read-only memory-mapped file regions.
//
// A mapped region backs immutable bit sequences created from files: the
// file contents are never copied into the Go heap, and the mapping stays
// valid until the region is closed. Callers must not read a region's bytes
// after Close.
package mmapfile

import (
	"fmt"
	"os"
	"syscall"
)

// Region is a read-only mapping of an entire file.
type Region struct {
	path string
	data []byte
}

// Open maps the file at path read-only and returns the region.
//
// Empty files map to an empty region without a kernel mapping, since
// mmap rejects zero-length requests.
func Open(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := info.Size()
	if size == 0 {
		return &Region{path: path}, nil
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("mmapfile: %s: file too large to map", path)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmapfile: mmap %s: %w", path, err)
	}

	return &Region{path: path, data: data}, nil
}

// Path returns the path the region was opened from.
func (r *Region) Path() string {
	return r.path
}

// Bytes returns the mapped contents. The slice aliases the mapping and
// must not be used after Close.
func (r *Region) Bytes() []byte {
	return r.data
}

// Close unmaps the region. It is safe to call more than once.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}

	data := r.data
	r.data = nil
	if err := syscall.Munmap(data); err != nil {
		return fmt.Errorf("mmapfile: munmap %s: %w", r.path, err)
	}

	return nil
}
