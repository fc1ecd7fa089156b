// SPDX-License-Identifier: MIT

// Command dagmatch matches rooted, attributed DAGs from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/katalvlaran/dagmatch/internal/cli"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
