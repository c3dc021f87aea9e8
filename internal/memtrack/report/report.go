// Package report writes the tracker's diagnostic lines.
//
// The output is a fixed line-oriented format consumed by scripted checks,
// one event per line:
//
//	<EVENT> [<file>:<line>] <detail>
//
// with the bracket omitted when the call site is unknown, plus a single
// terminal summary line emitted only when a run finished with no leaks and
// no corruption. The presence or absence of that summary line is the
// pass/fail signal for automated checks, so the format is a compatibility
// contract and is produced directly rather than through a logging layer.
package report

import (
	"fmt"
	"io"

	"github.com/tracklabs/memtrack/internal/memtrack/registry"
)

// Event names.
const (
	EventCorruption = "CORRUPTION"
	EventLeak       = "LEAK"
	EventFatal      = "FATAL"
	EventWarning    = "WARNING"
	EventMsg        = "MSG"
)

// summaryLine is the terminal pass marker.
const summaryLine = "OK no leaks or corruption detected"

// Reporter formats events onto a writer. It carries no lock of its own; the
// tracker serializes all callers.
type Reporter struct {
	w io.Writer
}

// New returns a reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Event writes one diagnostic line.
func (r *Reporter) Event(name string, site registry.Site, format string, args ...any) {
	detail := fmt.Sprintf(format, args...)
	if site.Known() {
		fmt.Fprintf(r.w, "%s [%s] %s\n", name, site, detail)
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", name, detail)
}

// Summary writes the terminal pass line. Called only for clean runs; on
// failing runs the itemized reports are the only output.
func (r *Reporter) Summary() {
	fmt.Fprintf(r.w, "%s\n", summaryLine)
}
