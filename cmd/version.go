package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version and commit can be set at build time with -ldflags -X.
var (
	version = "unknown"
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, the commit and the Go runtime it was built with",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionLine())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionLine() string {
	line := fmt.Sprintf("%s version: %s", app, version)
	if commit != "" {
		line += fmt.Sprintf(" (commit %s)", commit)
	}
	return line + ", " + runtime.Version()
}
