package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vanderheijden86/readmit/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "readmit %s\n", version.String())
		},
	}
}
