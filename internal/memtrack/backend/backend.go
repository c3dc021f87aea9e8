// Package backend supplies the raw blocks underneath the tracking
// allocator.
//
// The tracker never talks to the heap directly; it asks a Backend for a
// guard-padded block and hands the block back when the allocation dies.
// Keeping this behind an interface lets tests interpose counting and
// exhaustion fakes, and lets the mmap backend take real memory out of the
// Go heap entirely.
package backend

import "fmt"

// Backend is the real underlying allocation primitive.
type Backend interface {
	// Allocate returns a zeroed block of exactly size bytes. An error
	// means exhaustion; it is the only recoverable failure the tracking
	// allocator knows.
	Allocate(size int) ([]byte, error)

	// Release gives a block obtained from Allocate back. The slice must
	// be the one Allocate returned, not a re-slice of it.
	Release(block []byte) error
}

// Heap allocates from the Go heap. Release is a no-op; the collector
// reclaims the block once the registry drops its record.
type Heap struct{}

// Allocate returns a fresh zeroed slice of size bytes.
func (Heap) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("backend: invalid block size %d", size)
	}
	return make([]byte, size), nil
}

// Release is a no-op for heap blocks.
func (Heap) Release([]byte) error {
	return nil
}

// ForName resolves a configured backend name.
func ForName(name string) (Backend, error) {
	switch name {
	case "heap":
		return Heap{}, nil
	case "mmap":
		return Mmap{}, nil
	default:
		return nil, fmt.Errorf("backend: unknown backend %q", name)
	}
}
