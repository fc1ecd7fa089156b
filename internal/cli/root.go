// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion records the build information printed by "dagmatch version".
// main sets it from values injected with -ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the dagmatch CLI with the process arguments.
func Execute() error {
	return newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background())
}

// newRootCmd builds the command tree writing results to stdout and logs to stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "dagmatch",
		Short:         "dagmatch compares rooted DAGs of shape skeletons",
		Long:          `dagmatch finds a node correspondence between two rooted, attributed DAGs and scores their similarity with a bounded solution-set search.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(versionString() + "\n")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newMatchCmd())
	root.AddCommand(newRankCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func versionString() string {
	s := "dagmatch " + version
	if commit != "" {
		s += "\ncommit: " + commit
	}
	if date != "" {
		s += "\nbuilt: " + date
	}
	return s
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}
