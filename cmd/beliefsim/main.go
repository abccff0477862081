package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "beliefsim",
		Short: "Misinformation belief propagation on small-world networks",
		Long: `beliefsim simulates how beliefs about a piece of misinformation spread
through a population of agents connected by a Watts-Strogatz small-world
network.

Each step, agents with a strong enough belief broadcast either a correction
or misinformation to their neighbors, and every agent blends what it hears
into its belief according to its trust. Runs can schedule a correction-boost
intervention, and sweeps repeat the experiment across trust levels.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.beliefsim/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newGraphCmd(),
		newReportCmd(),
		newServeCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}
