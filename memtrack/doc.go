// Package memtrack is a drop-in tracking layer over dynamic allocation for
// finding two classes of heap bugs: writes just outside a live allocation's
// bounds, and allocations never released before the end of the run.
//
// The package-level functions mirror the standard allocation surface and
// route through one process-wide tracker, lazily initialized from the
// MEMTRACK_CONFIG environment variable on first use:
//
//	func main() {
//		defer memtrack.Fini()
//
//		buf := memtrack.Malloc(64)
//		// ... use buf ...
//		memtrack.Free(buf)
//	}
//
// Every allocation is padded with sentinel-filled guard regions on both
// sides; the guards are re-checked on Free, Realloc, and the final scan run
// by Fini, and any mismatch is reported as corruption together with the
// call site that created the block. Anything still registered when Fini
// runs is reported as a leak. A clean run ends with a single
// "OK no leaks or corruption detected" line; that line's absence is the
// failure signal for scripted checks.
//
// Call sites are captured automatically with runtime.Caller, so reports
// point at the caller of Malloc, not at this package.
//
// Configuration is a ";"-separated list of NAME=VALUE pairs in
// MEMTRACK_CONFIG:
//
//	GUARD=N        guard region size in bytes per side (default 1024)
//	FILE=path      redirect report output to a file (default stderr)
//	BACKEND=name   raw block source, "heap" (default) or "mmap"
//	STRICT=1       treat a failed real allocation as fatal
//
// Freeing or resizing a pointer the tracker never handed out is treated as
// unrecoverable corruption: a FATAL line is emitted and the call panics
// with a *tracker.ViolationError rather than returning. Backend exhaustion
// is the only failure reported as a plain nil result.
//
// For isolated instances (tests, embedding), use the tracker package
// directly; this package only manages the process-wide default.
package memtrack
