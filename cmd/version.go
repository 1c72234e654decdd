package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/egoavara/shellconf/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "shellconf %s\n", version.Version)
		if version.GitCommit != "" {
			fmt.Fprintf(out, "  commit: %s\n", version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Fprintf(out, "  built:  %s\n", version.BuildDate)
		}
		if app != nil && app.opts.ShellVersion != "" {
			fmt.Fprintf(out, "  shell:  %s\n", app.opts.ShellVersion)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
