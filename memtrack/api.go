package memtrack

import (
	"runtime"
	"sync"

	"github.com/tracklabs/memtrack/internal/memtrack/registry"
	"github.com/tracklabs/memtrack/internal/memtrack/tracker"
)

// Site identifies an allocation call site in reports.
type Site = registry.Site

// Global tracker state.
//
// The first tracking call from any goroutine creates the tracker exactly
// once; concurrent first callers cannot double-initialize or observe a
// half-built instance. Configuration is fixed from that point on.
var (
	initOnce sync.Once
	global   *tracker.Tracker
)

// def returns the process-wide tracker, creating it on first use from the
// MEMTRACK_CONFIG environment variable.
func def() *tracker.Tracker {
	initOnce.Do(func() {
		global = tracker.FromEnv()
	})
	return global
}

// here captures the call site of the exported function's caller. It is the
// Go stand-in for the __FILE__/__LINE__ macro pair of C-style allocation
// wrappers.
func here() Site {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return Site{}
	}
	return Site{File: file, Line: line}
}

// Malloc allocates size bytes and returns the tracked user slice. A zero
// size returns nil without consulting the real allocator; nil is also the
// exhaustion result.
func Malloc(size int) []byte {
	return def().Alloc(size, here())
}

// Calloc allocates count*elemSize bytes, zero-filled.
func Calloc(count, elemSize int) []byte {
	return def().Calloc(count, elemSize, here())
}

// Realloc resizes p to size bytes, preserving min(old, new) payload bytes.
// A nil p behaves as Malloc. p must be a slice previously returned by this
// package and not yet freed; anything else is fatal.
func Realloc(p []byte, size int) []byte {
	return def().Realloc(p, size, here())
}

// Free releases p. A nil p is a silent no-op. Freeing anything this package
// did not hand out — including a second Free of the same slice — is fatal.
func Free(p []byte) {
	def().Free(p, here())
}

// Strdup returns a tracked copy of s. A nil source is fatal.
func Strdup(s []byte) []byte {
	return def().Strdup(s, here())
}

// Strndup returns a tracked copy of at most n bytes of s.
func Strndup(s []byte, n int) []byte {
	return def().Strndup(s, n, here())
}

// Msgf writes a free-form MSG line to the report output, tagged with the
// caller's location. Usable independent of any allocation.
func Msgf(format string, args ...any) {
	def().Msgf(here(), format, args...)
}

// Fini runs the end-of-run scan: every still-tracked allocation is reported
// as a leak (with its guards re-validated) and a clean run is acknowledged
// with the terminal OK line. Defer it from main; Go has no exit hook, so
// this is the process-exit pass.
func Fini() {
	def().Check()
}
