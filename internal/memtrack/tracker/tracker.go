// Package tracker implements the tracking allocator.
//
// A Tracker wraps a raw block backend with guard-byte corruption detection,
// a registry of live allocations, and an end-of-run leak scan. Its
// operations mirror the standard allocation surface: Alloc, Calloc, Realloc,
// Free, Strdup and Strndup, each taking an optional call site for
// diagnostics.
//
// Concurrency: a single mutex serializes every operation, covering both the
// backend call and the registry mutation, so no goroutine ever observes a
// registry state inconsistent with the backing memory. Contention is
// dominated by the backend call itself, not the table work, so one lock is
// enough.
//
// Failure contract: backend exhaustion is the only recoverable failure and
// surfaces as a nil result. Freeing or resizing an address the registry
// never tracked, duplicating a nil source, and malformed configuration are
// protocol violations — the tracker emits a FATAL line and panics with a
// *ViolationError, because the registry can no longer vouch for heap
// consistency past such an event. Guard corruption is the opposite: it is
// reported, marks the run dirty, and the operation still completes its
// bookkeeping so one corrupted block cannot hide the others.
package tracker

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"unsafe"

	"github.com/tracklabs/memtrack/internal/memtrack/backend"
	"github.com/tracklabs/memtrack/internal/memtrack/config"
	"github.com/tracklabs/memtrack/internal/memtrack/guard"
	"github.com/tracklabs/memtrack/internal/memtrack/registry"
	"github.com/tracklabs/memtrack/internal/memtrack/report"
)

// ViolationError is the panic value carried by the fail-fast paths. It is a
// distinct type so tests and supervising code can tell an invariant
// violation apart from any other panic; it must not be swallowed and
// converted into a recoverable error.
type ViolationError struct {
	msg string
}

// Error returns the diagnostic the violation was reported with.
func (e *ViolationError) Error() string {
	return e.msg
}

// Options configures a Tracker.
type Options struct {
	// GuardSize is the size in bytes of each guard region. Zero disables
	// guard checking entirely.
	GuardSize int

	// Output receives report lines; defaults to os.Stderr.
	Output io.Writer

	// Backend supplies raw blocks; defaults to backend.Heap.
	Backend backend.Backend

	// Strict makes backend exhaustion fatal instead of returning nil.
	Strict bool
}

// Tracker is one tracking allocator instance. Instances are independent;
// the package-level drop-in API keeps a single lazily-created one.
type Tracker struct {
	mu        sync.Mutex
	guardSize int
	strict    bool
	be        backend.Backend
	table     *registry.Table
	rep       *report.Reporter

	// clean stays true until the first corruption or leak report.
	clean bool

	// file is the owned FILE redirect, closed by Close; nil when output
	// goes to a caller-provided writer.
	file *os.File
}

// New creates a tracker from opts, filling in defaults for zero fields.
func New(opts Options) *Tracker {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Backend == nil {
		opts.Backend = backend.Heap{}
	}
	if opts.GuardSize < 0 {
		opts.GuardSize = 0
	}
	return &Tracker{
		guardSize: opts.GuardSize,
		strict:    opts.Strict,
		be:        opts.Backend,
		table:     registry.NewTable(),
		rep:       report.New(opts.Output),
		clean:     true,
	}
}

// FromEnv builds a tracker from the MEMTRACK_CONFIG environment variable.
// Unknown parameter names produce non-fatal WARNING lines on stderr; a
// malformed value, an unknown backend name, or an unopenable FILE redirect
// is fatal.
func FromEnv() *Tracker {
	stderr := report.New(os.Stderr)

	cfg, warnings, err := config.Parse(os.Getenv(config.EnvVar))
	if err != nil {
		fatal(stderr, "%v", err)
	}
	for _, w := range warnings {
		stderr.Event(report.EventWarning, registry.Site{}, "%s", w)
	}

	be, err := backend.ForName(cfg.Backend)
	if err != nil {
		fatal(stderr, "%v", err)
	}

	var out io.Writer = os.Stderr
	var file *os.File
	if cfg.FilePath != "" {
		file, err = os.Create(cfg.FilePath)
		if err != nil {
			fatal(stderr, "can't open %q for writing: %v", cfg.FilePath, err)
		}
		out = file
	}

	t := New(Options{
		GuardSize: cfg.GuardSize,
		Output:    out,
		Backend:   be,
		Strict:    cfg.Strict,
	})
	t.file = file
	return t
}

// fatal reports a FATAL event and panics; used before a tracker exists.
func fatal(rep *report.Reporter, format string, args ...any) {
	rep.Event(report.EventFatal, registry.Site{}, format, args...)
	panic(&ViolationError{msg: fmt.Sprintf(format, args...)})
}

// fatalf reports a FATAL event on the tracker's output and panics.
func (t *Tracker) fatalf(site registry.Site, format string, args ...any) {
	t.rep.Event(report.EventFatal, site, format, args...)
	panic(&ViolationError{msg: fmt.Sprintf(format, args...)})
}

// Alloc allocates size bytes and returns the user slice, or nil when size
// is zero or the backend is exhausted. A zero size never reaches the
// backend and never creates a registry entry.
func (t *Tracker) Alloc(size int, site registry.Site) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.alloc(size, site)
}

// alloc is the guts of every allocating operation. Caller holds t.mu.
func (t *Tracker) alloc(size int, site registry.Site) []byte {
	if size <= 0 {
		return nil
	}

	block, err := t.be.Allocate(guard.Capacity(size, t.guardSize))
	if err != nil {
		if t.strict {
			t.fatalf(site, "allocation of %d bytes failed: %v", size, err)
		}
		return nil
	}

	guard.Stamp(block, size, t.guardSize)
	lay := guard.Place(block, size, t.guardSize)
	t.table.Insert(&registry.Record{
		Real:  lay.Real,
		Size:  size,
		Site:  site,
		Block: block,
	})
	return lay.User(block)
}

// Calloc allocates count*elemSize bytes with the user region zero-filled.
// The zero fill covers exactly the user region and never touches guard
// bytes. A zero or overflowing product is the no-allocation result.
func (t *Tracker) Calloc(count, elemSize int, site registry.Site) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if count <= 0 || elemSize <= 0 {
		return nil
	}
	if count > math.MaxInt/elemSize {
		// Treated as exhaustion: no real allocator could satisfy it.
		if t.strict {
			t.fatalf(site, "allocation of %d*%d bytes overflows", count, elemSize)
		}
		return nil
	}

	buf := t.alloc(count*elemSize, site)
	if buf != nil {
		clear(buf)
	}
	return buf
}

// Realloc resizes old to size bytes, preserving min(old, new) payload bytes.
// A nil old behaves as Alloc. A zero size returns nil and leaves old
// registered and untouched. Resizing an address the registry never tracked
// is fatal: a dangling or foreign pointer here means the caller's heap view
// is already wrong.
func (t *Tracker) Realloc(old []byte, size int, site registry.Site) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if size <= 0 {
		return nil
	}

	buf := t.alloc(size, site)
	if buf == nil || len(old) == 0 {
		// Exhaustion leaves the old allocation registered and valid,
		// mirroring the realloc contract.
		return buf
	}

	userAddr := uintptr(unsafe.Pointer(&old[0]))
	rec, ok := t.table.Remove(guard.RealAddr(userAddr, t.guardSize))
	if !ok {
		t.fatalf(site, "realloc of untracked pointer 0x%x", userAddr)
	}

	// Validate the old guards before the copy length is computed, so a
	// shrinking copy can never be conflated with trail-guard corruption
	// that predates the resize.
	t.checkGuards(rec)

	n := min(rec.Size, size)
	copy(buf, rec.Block[t.guardSize:t.guardSize+n])
	t.release(rec)
	return buf
}

// Free releases a tracked allocation. A nil or empty buf is a silent no-op,
// matching conventional free semantics. Freeing an address the registry
// never tracked — including a second free of the same slice — is fatal:
// it is the strongest corruption signal the tracker has.
func (t *Tracker) Free(buf []byte, site registry.Site) {
	if len(buf) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	userAddr := uintptr(unsafe.Pointer(&buf[0]))
	rec, ok := t.table.Remove(guard.RealAddr(userAddr, t.guardSize))
	if !ok {
		t.fatalf(site, "free of untracked pointer 0x%x", userAddr)
	}
	t.checkGuards(rec)
	t.release(rec)
}

// Strdup returns a tracked copy of s. A nil source is a fatal precondition
// violation. An empty source goes through the zero-size path and returns
// nil with no registry entry.
func (t *Tracker) Strdup(s []byte, site registry.Site) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s == nil {
		t.fatalf(site, "strdup of nil source")
	}
	buf := t.alloc(len(s), site)
	copy(buf, s)
	return buf
}

// Strndup returns a tracked copy of at most n bytes of s. A negative n, or
// a nil source with n > 0, is fatal.
func (t *Tracker) Strndup(s []byte, n int, site registry.Site) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n < 0 {
		t.fatalf(site, "strndup with negative bound %d", n)
	}
	if s == nil && n > 0 {
		t.fatalf(site, "strndup of nil source with bound %d", n)
	}
	if n > len(s) {
		n = len(s)
	}
	buf := t.alloc(n, site)
	copy(buf, s[:n])
	return buf
}

// Msgf emits a free-form MSG diagnostic line, independent of any
// allocation.
func (t *Tracker) Msgf(site registry.Site, format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rep.Event(report.EventMsg, site, format, args...)
}

// Check is the end-of-run scan: every record still registered is reported
// as a leak, its guards re-validated, and the table is drained afterwards.
// The terminal OK summary is emitted only when the whole run produced no
// corruption and no leak.
func (t *Tracker) Check() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.table.ForEach(func(rec *registry.Record) {
		t.checkGuards(rec)
		t.clean = false
		t.rep.Event(report.EventLeak, rec.Site, "%d bytes at 0x%x never freed",
			rec.Size, rec.Real+uintptr(t.guardSize))
	})
	t.table.Drain(t.release)

	if t.clean {
		t.rep.Summary()
	}
}

// Close runs the end-of-run scan and closes the FILE redirect if the
// tracker owns one.
func (t *Tracker) Close() error {
	t.Check()
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}

// Live returns the number of currently registered allocations.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.table.Len()
}

// checkGuards validates rec's guard regions, reporting the first corrupted
// byte. Corruption is a report, not a control-flow error: the caller's
// bookkeeping continues either way.
func (t *Tracker) checkGuards(rec *registry.Record) {
	off, ok := guard.Check(rec.Block, rec.Size, t.guardSize)
	if ok {
		return
	}
	t.clean = false
	t.rep.Event(report.EventCorruption, rec.Site,
		"guard byte at 0x%x overwritten (block of %d bytes)",
		rec.Real+uintptr(off), rec.Size)
}

// release returns rec's block to the backend. A release failure cannot
// invalidate the registry, so it is only warned about.
func (t *Tracker) release(rec *registry.Record) {
	if err := t.be.Release(rec.Block); err != nil {
		t.rep.Event(report.EventWarning, rec.Site,
			"release of block at 0x%x failed: %v", rec.Real, err)
	}
}
