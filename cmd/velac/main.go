// Command velac is the Vela semantic front-end's CLI driver: an ambient
// wrapper around internal/checker that loads configuration, wires a scope
// provider, runs the checker, and renders diagnostics. None of this is part
// of the checker's own scope (spec §1 names the CLI driver as an external
// collaborator) — it exists so the checker is reachable at all.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vela-lang/velac/internal/config"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "velac",
		Short: "semantic front-end for Vela programs",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newCheckCmd(&configPath))
	root.AddCommand(newExplainCmd(&configPath))
	root.AddCommand(newTraceCmd(&configPath))
	root.AddCommand(newExploreCmd(&configPath))
	return root
}

// runID tags one CLI invocation for correlating a diagnostic batch in
// logs. It never touches checker state — the checker itself stays
// deterministic (SPEC_FULL §6).
func runID() string { return uuid.New().String() }

func loadConfig(path string) *config.Options {
	opts, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "velac: loading config:", err)
		return config.Default()
	}
	return opts
}
