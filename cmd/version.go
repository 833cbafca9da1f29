package main

import (
	"fmt"
	"runtime"

	"github.com/brettbedarf/simfs"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		// skip config loading
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simfs version %s (%s)\n", simfs.Version, runtime.Version())
		},
	}
}
