// Package guard implements the guard-byte codec used by the tracking
// allocator.
//
// Every real allocation is padded with two guard regions of equal size, one
// before and one after the caller's bytes:
//
//	[ lead guard | user bytes | trail guard ]
//
// Both guards are filled with a known sentinel when the block is handed out
// and re-checked whenever the block is freed, resized, or scanned at the end
// of the run. Any byte that no longer matches the sentinel means the caller
// wrote outside its requested bounds.
//
// The codec is pure: it mutates or inspects the block it is given and
// nothing else. Reporting and locking belong to the tracker.
package guard

import "unsafe"

// Sentinel is the fill pattern written into both guard regions.
//
// The value alternates bits (10100101) so that common off-by-one writes of
// 0x00 or 0xff are always caught.
const Sentinel byte = 0xa5

// Capacity returns the real block size needed to hold userSize caller bytes
// plus both guard regions.
func Capacity(userSize, guardSize int) int {
	return userSize + 2*guardSize
}

// Layout locates the user region inside a real block. It replaces ad-hoc
// pointer offset math with a single value computed by Place.
type Layout struct {
	// Real is the base address of the real block, the registry key.
	Real uintptr

	// Off is the byte offset of the user region (the lead guard size).
	Off int

	// UserSize is the number of bytes the caller asked for.
	UserSize int
}

// Place computes the Layout of a userSize-byte user region inside block.
// block must have been sized with Capacity(userSize, guardSize).
func Place(block []byte, userSize, guardSize int) Layout {
	return Layout{
		Real:     uintptr(unsafe.Pointer(&block[0])),
		Off:      guardSize,
		UserSize: userSize,
	}
}

// User returns the user sub-slice of block described by the layout. The
// returned slice is what callers of the tracking allocator receive; its
// capacity deliberately stops short of the trail guard's end so that the
// guard bytes stay out of append's reach.
func (l Layout) User(block []byte) []byte {
	return block[l.Off : l.Off+l.UserSize : l.Off+l.UserSize]
}

// UserAddr returns the address handed to the caller.
func (l Layout) UserAddr() uintptr {
	return l.Real + uintptr(l.Off)
}

// RealAddr maps a user address back to the real block base address. This is
// the inverse of Layout.UserAddr and the only place the user-pointer →
// real-block mapping is computed.
func RealAddr(userAddr uintptr, guardSize int) uintptr {
	return userAddr - uintptr(guardSize)
}

// Stamp fills both guard regions of block with the sentinel. The user region
// in between is left untouched. No-op when guardSize is zero.
func Stamp(block []byte, userSize, guardSize int) {
	if guardSize == 0 {
		return
	}
	for i := 0; i < guardSize; i++ {
		block[i] = Sentinel
	}
	for i := guardSize + userSize; i < guardSize+userSize+guardSize; i++ {
		block[i] = Sentinel
	}
}

// Check scans both guard regions of block and returns the offset of the
// first byte that no longer matches the sentinel, or ok=true if both guards
// are intact. Check never writes; cost is O(guardSize) regardless of the
// user region size.
func Check(block []byte, userSize, guardSize int) (offset int, ok bool) {
	for i := 0; i < guardSize; i++ {
		if block[i] != Sentinel {
			return i, false
		}
	}
	for i := guardSize + userSize; i < guardSize+userSize+guardSize; i++ {
		if block[i] != Sentinel {
			return i, false
		}
	}
	return 0, true
}
