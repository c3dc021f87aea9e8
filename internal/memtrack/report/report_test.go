package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracklabs/memtrack/internal/memtrack/registry"
)

func TestEventWithSite(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Event(EventLeak, registry.Site{File: "main.go", Line: 42}, "%d bytes at 0x%x never freed", 64, 0x1000)
	assert.Equal(t, "LEAK [main.go:42] 64 bytes at 0x1000 never freed\n", buf.String())
}

func TestEventWithoutSite(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Event(EventWarning, registry.Site{}, "unknown parameter %q; ignored", "COLOR")
	assert.Equal(t, "WARNING unknown parameter \"COLOR\"; ignored\n", buf.String())
}

func TestSummaryLine(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Summary()

	// Scripted checks grep for this exact line; it is a compatibility
	// contract.
	assert.Equal(t, "OK no leaks or corruption detected\n", buf.String())
}

func TestEventsAreOnePerLine(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Event(EventCorruption, registry.Site{File: "a.go", Line: 1}, "first")
	r.Event(EventMsg, registry.Site{}, "second")

	assert.Equal(t, "CORRUPTION [a.go:1] first\nMSG second\n", buf.String())
}
