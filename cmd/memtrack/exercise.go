package main

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tracklabs/memtrack/internal/memtrack/backend"
	"github.com/tracklabs/memtrack/internal/memtrack/config"
	"github.com/tracklabs/memtrack/internal/memtrack/registry"
	"github.com/tracklabs/memtrack/internal/memtrack/tracker"
)

type exerciseOptions struct {
	count       int
	guard       int
	output      string
	backendName string
	leakAll     bool
}

func newExerciseCmd() *cobra.Command {
	var opts exerciseOptions

	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Allocate, corrupt and leak blocks, then run the scan",
		Long: `exercise allocates a run of blocks of increasing size, writes one byte
just before the user region of block count/3 and one byte just past the
user region of block 2*count/3, frees everything except two designated
blocks, and runs the end-of-run scan.

A correct tracker reports exactly two corruption lines and two leak lines
and does not emit the terminal OK summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExercise(opts, newLogger())
		},
	}

	cmd.Flags().IntVar(&opts.count, "count", 100000, "number of blocks to allocate")
	cmd.Flags().IntVar(&opts.guard, "guard", config.DefaultGuardSize, "guard region size in bytes per side")
	cmd.Flags().StringVar(&opts.output, "output", "", "write tracker reports to this file instead of stderr")
	cmd.Flags().StringVar(&opts.backendName, "backend", "heap", "raw block source (heap or mmap)")
	cmd.Flags().BoolVar(&opts.leakAll, "leak-all", false, "skip all frees and leak every block")
	return cmd
}

func runExercise(opts exerciseOptions, logger zerolog.Logger) error {
	if opts.count < 3 {
		return fmt.Errorf("--count must be at least 3, got %d", opts.count)
	}
	be, err := backend.ForName(opts.backendName)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stderr)
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	tr := tracker.New(tracker.Options{
		GuardSize: opts.guard,
		Output:    out,
		Backend:   be,
	})

	logger.Info().
		Int("count", opts.count).
		Int("guard", opts.guard).
		Str("backend", opts.backendName).
		Msg("allocating blocks")

	bufs := make([][]byte, opts.count)
	for i := range bufs {
		bufs[i] = tr.Alloc(10+2*i, blockSite(i))
	}

	// One underrun and one overrun, same as the original driver: the
	// writes land in the lead guard of one block and the trail guard of
	// another.
	fault1 := opts.count / 3
	fault2 := 2 * opts.count / 3
	if opts.guard > 0 {
		corruptBefore(bufs[fault1])
		corruptAfter(bufs[fault2])
		logger.Info().
			Int("underrun_block", fault1).
			Int("overrun_block", fault2).
			Msg("corrupted one guard byte on each side")
	}

	freed := 0
	for i, buf := range bufs {
		if opts.leakAll || i == fault1+1 || i == fault2 {
			continue
		}
		tr.Free(buf, blockSite(i))
		freed++
	}

	logger.Info().
		Int("freed", freed).
		Int("live", tr.Live()).
		Msg("running end-of-run scan")
	tr.Check()
	return nil
}

// blockSite labels a block by its index so reports identify which block
// leaked or was corrupted.
func blockSite(i int) registry.Site {
	return registry.Site{File: "exercise", Line: i}
}

// corruptBefore writes one byte immediately before the user region, into
// the lead guard. The write stays inside the real block, so this is safe
// for any guard size greater than zero.
func corruptBefore(buf []byte) {
	*(*byte)(unsafe.Add(unsafe.Pointer(&buf[0]), -1)) = 0xff
}

// corruptAfter writes one byte immediately past the user region, into the
// trail guard.
func corruptAfter(buf []byte) {
	*(*byte)(unsafe.Add(unsafe.Pointer(&buf[0]), len(buf))) = 0x00
}
