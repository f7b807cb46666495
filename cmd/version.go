package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the bizadmin version, commit hash, and build date.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			if short, _ := cmd.Flags().GetBool("short"); short {
				fmt.Fprintln(w, opts.build.Version)
				return
			}
			fmt.Fprintf(w, "bizadmin %s\n", opts.build.Version)
			fmt.Fprintf(w, "Commit: %s\n", opts.build.Commit)
			fmt.Fprintf(w, "Built: %s\n", opts.build.Date)
		},
	}
	cmd.Flags().BoolP("short", "s", false, "Show only version number")
	return cmd
}
