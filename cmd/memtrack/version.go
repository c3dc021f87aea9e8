package main

import (
	"github.com/spf13/cobra"

	"github.com/tracklabs/memtrack/memtrack"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("memtrack version %s\n", memtrack.Version)
		},
	}
}
