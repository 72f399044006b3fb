// Command kjudge is the process entrypoint: it loads configuration, opens
// the store, builds the sandbox backend, worker pool and grading
// coordinator, and serves the HTTP front door. Grounded on the pack's cobra
// usage (spf13/cobra), since the teacher itself is started from a single
// main without subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kjudge",
		Short: "A sandboxed competitive-programming judge",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "kjudge.toml", "path to the TOML configuration file")
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDoctorCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
