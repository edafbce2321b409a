// Package main provides the synth CLI entrypoint.
//
// Exit codes:
//   - 0: success
//   - 1: scenario failures or non-deterministic replay
//   - 2: command error
package main

import (
	"fmt"
	"os"

	"github.com/roach88/synth/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "synth: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
