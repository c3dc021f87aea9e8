//go:build linux

package backend

import "golang.org/x/sys/unix"

// Mmap allocates blocks with anonymous private memory mappings, keeping
// tracked allocations out of the Go heap. Mapping failure surfaces as
// exhaustion, so this backend also exercises the recoverable failure path
// for real.
type Mmap struct{}

// Allocate maps a fresh anonymous region of size bytes. The kernel rounds
// the mapping up to whole pages and zeroes it.
func (Mmap) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, unix.EINVAL
	}
	return unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
}

// Release unmaps a block returned by Allocate.
func (Mmap) Release(block []byte) error {
	if len(block) == 0 {
		return unix.EINVAL
	}
	return unix.Munmap(block)
}
