package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "mad-dla/internal/sims/dla"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dla:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dla",
		Short: "Diffusion-limited aggregation on a 3-D lattice",
		Long: `dla grows fractal clusters by releasing random walkers on a cubic
lattice until they stick to the aggregate.

Runs are deterministic for a given seed. Records are appended as CSV
streams; sweeps run grids of sticking probabilities and target counts
on a worker pool.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "YAML run file")
	rootCmd.PersistentFlags().String("log-level", "", "log level: error, warn, info, debug, trace")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newParamsCmd(),
		newListCmd(),
		newVersionCmd(),
	)
	return rootCmd
}
