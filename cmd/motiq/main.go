// Command motiq is the command-line entry point for the distributed motif
// search engine.
package main

import (
	"fmt"
	"os"

	"github.com/motiq/motiq/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
