// Package main implements the memtrack CLI.
//
// The CLI is a driver around the tracking allocator, mainly the "exercise"
// scenario: a large run of allocations with a couple of deliberate guard
// corruptions and leaks, useful for eyeballing report output and for
// checking a build end to end.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
