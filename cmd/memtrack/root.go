package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "memtrack",
	Short: "Driver for the memtrack tracking allocator",
	Long: `memtrack drives the tracking allocator from the command line.

The tracker pads every allocation with sentinel guard bytes, registers it
by real address, and reports out-of-bounds writes and unreleased
allocations at the end of the run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newExerciseCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// newLogger builds the driver's own progress logger. It writes to stderr in
// console form and is distinct from the tracker's report stream.
func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
}
