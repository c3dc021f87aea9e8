// Package registry keeps the set of live tracked allocations.
//
// Each outstanding allocation is one Record, keyed by the base address of
// the real (guard-padded) block. The original design used a fixed array of
// 64K singly-linked buckets indexed by a slice of the pointer's bits; here
// the table is a plain Go map with the old bucket count kept as the initial
// capacity hint. The invariants are unchanged: no two live records share a
// real address, and enumerating the table yields exactly the live set.
//
// The table does no locking of its own. The tracker serializes every
// operation under a single mutex, which also covers the real allocation
// call, so the table never needs finer-grained protection.
package registry

import "fmt"

// initialCapacity sizes the table up front. It matches the bucket count of
// the original fixed-size hash table.
const initialCapacity = 1 << 16

// Site identifies the call that created an allocation, for diagnostics.
// The zero value means the call site is unknown.
type Site struct {
	File string
	Line int
}

// Known reports whether the site carries any location information.
func (s Site) Known() bool {
	return s.File != "" || s.Line != 0
}

// String renders the site as "file:line".
func (s Site) String() string {
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

// Record is one outstanding tracked allocation.
type Record struct {
	// Real is the base address of the real block, unique among live
	// records. It doubles as the table key.
	Real uintptr

	// Size is the number of bytes the caller requested, excluding guards.
	Size int

	// Site is where the allocation was made; may be the zero value.
	Site Site

	// Block is the whole guard-padded real block. Keeping the slice here
	// pins the memory for the record's lifetime (so Real stays valid) and
	// gives the guard codec its input on free, resize and leak scans.
	Block []byte
}

// Table maps real block addresses to their records.
type Table struct {
	recs map[uintptr]*Record
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{recs: make(map[uintptr]*Record, initialCapacity)}
}

// Insert adds a record. The caller guarantees rec.Real is not already
// present; real addresses returned by the backend are unique while live, so
// the tracking allocator satisfies this by construction.
func (t *Table) Insert(rec *Record) {
	t.recs[rec.Real] = rec
}

// Remove unlinks and returns the record keyed by real. The second result is
// false when no such record exists, which upstream is always a caller error:
// freeing or resizing an address the table never tracked.
func (t *Table) Remove(real uintptr) (*Record, bool) {
	rec, ok := t.recs[real]
	if ok {
		delete(t.recs, real)
	}
	return rec, ok
}

// ForEach visits every live record. Enumeration order is unspecified. The
// visitor must not mutate the table; draining after a report pass is what
// Drain is for.
func (t *Table) ForEach(fn func(*Record)) {
	for _, rec := range t.recs {
		fn(rec)
	}
}

// Len returns the number of live records.
func (t *Table) Len() int {
	return len(t.recs)
}

// Drain visits every record and empties the table. Used by the end-of-run
// scan to release blocks after they have been reported.
func (t *Table) Drain(fn func(*Record)) {
	for real, rec := range t.recs {
		delete(t.recs, real)
		fn(rec)
	}
}
