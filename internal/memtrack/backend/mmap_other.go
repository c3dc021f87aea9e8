//go:build !linux

package backend

// Mmap falls back to the heap backend on platforms without the anonymous
// mmap path.
type Mmap struct {
	Heap
}
