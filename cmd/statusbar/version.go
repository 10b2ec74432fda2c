package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axondata/go-statusbar"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := statusbar.GetVersion()
			fmt.Fprintf(cmd.OutOrStdout(), "statusbar %s (protocol %d, producer %s)\n", info.Version, info.Protocol, info.Producer)
		},
	}
}
