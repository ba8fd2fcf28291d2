package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"mad-dla/internal/batch"
	"mad-dla/internal/logging"
	"mad-dla/internal/sims/dla"

	"github.com/spf13/cobra"
)

type sweepOptions struct {
	sim       string
	overrides []string
	probs     []float64
	targets   []int
	repeats   int
	workers   int
	maxSteps  uint64
	results   string
	summary   string
}

func newSweepCmd() *cobra.Command {
	var opts sweepOptions
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a grid of sticking probabilities and target counts",
		Long: `Run every combination of sticking probability and target count,
repeated with independent seeds derived from the base seed.

Per-run rows and per-cell summaries are written as CSV.

Examples:
  dla sweep --probs 1,0.5,0.1 --targets 1000,5000 --repeats 5
  dla sweep --config sweep.yaml --workers 8
  dla sweep --sim dla-drift --probs 1 --targets 2000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return runSweep(cmd, s, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sim, "sim", "", "simulation variant to sweep (see 'dla list')")
	cmd.Flags().StringArrayVar(&opts.overrides, "set", nil, "base parameter override in key=value form (repeatable)")
	cmd.Flags().Float64SliceVar(&opts.probs, "probs", nil, "sticking probabilities to sweep")
	cmd.Flags().IntSliceVar(&opts.targets, "targets", nil, "target counts to sweep")
	cmd.Flags().IntVar(&opts.repeats, "repeats", 0, "runs per grid cell")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "worker goroutines (default: number of CPUs)")
	cmd.Flags().Uint64Var(&opts.maxSteps, "max-steps", 0, "cap on steps per run (0 for none)")
	cmd.Flags().StringVar(&opts.results, "out", "", "per-run CSV file")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "per-cell summary CSV file")
	return cmd
}

func runSweep(cmd *cobra.Command, s *settings, opts sweepOptions) error {
	cfg := s.cfg
	params, err := simulationParams(cfg, opts.overrides)
	if err != nil {
		return err
	}
	sim := firstNonEmpty(opts.sim, cfg.Simulation.Name)
	base, err := dla.ConfigFor(sim, params)
	if err != nil {
		return err
	}

	grid := batch.Grid{
		Base:          base,
		Probabilities: pick(opts.probs, cfg.Sweep.Probabilities),
		Targets:       pick(opts.targets, cfg.Sweep.Targets),
		Repeats:       cfg.Sweep.Repeats,
		MaxSteps:      cfg.Sweep.MaxSteps,
		FitMinIndex:   cfg.Sweep.FitMinIndex,
	}
	if opts.repeats > 0 {
		grid.Repeats = opts.repeats
	}
	if opts.maxSteps > 0 {
		grid.MaxSteps = opts.maxSteps
	}
	workers := cfg.Sweep.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}

	resultsPath := cfg.Output.Path(firstNonEmpty(opts.results, cfg.Sweep.Results))
	summaryPath := cfg.Output.Path(firstNonEmpty(opts.summary, cfg.Sweep.Summary))

	var resultsFile, summaryFile io.Writer
	if resultsPath != "" {
		f, err := createFile(resultsPath)
		if err != nil {
			return err
		}
		defer f.Close()
		resultsFile = f
	}
	if summaryPath != "" {
		f, err := createFile(summaryPath)
		if err != nil {
			return err
		}
		defer f.Close()
		summaryFile = f
	}
	w := batch.NewCSVWriter(resultsFile, summaryFile)
	if err := w.WriteHeaders(); err != nil {
		return err
	}

	var journal *logging.Journal
	if cfg.Output.Journal {
		if journal, err = logging.OpenJournal(cfg.Output.Dir); err != nil {
			return err
		}
		defer journal.Close()
	}

	var writeErr error
	runner := batch.NewRunner(
		batch.WithWorkers(workers),
		batch.WithLogger(s.log),
		batch.WithJournal(journal),
		batch.WithProgress(func(r batch.Result) {
			if err := w.WriteResult(r); err != nil && writeErr == nil {
				writeErr = err
			}
		}),
	)

	results, runErr := runner.Run(cmd.Context(), grid)
	if writeErr != nil {
		return fmt.Errorf("writing results: %w", writeErr)
	}
	summaries := batch.Summarize(results)
	if err := w.WriteSummaries(summaries); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := printSummaries(cmd.OutOrStdout(), summaries, jsonOutput(cmd)); err != nil {
		return err
	}
	return runErr
}

func printSummaries(w io.Writer, summaries []batch.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROB\tTARGET\tRUNS\tRADIUS\tDIMENSION\tBOUNDARY")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%g\t%d\t%d\t%.3f±%.3f\t%.4f±%.4f (%d)\t%d\n",
			s.Probability, s.Target, s.Runs,
			s.RadiusMean, s.RadiusStdDev,
			s.DimensionMean, s.DimensionStdDev, s.Fitted,
			s.BoundaryStops)
	}
	return tw.Flush()
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

func pick[T any](flag, file []T) []T {
	if len(flag) > 0 {
		return flag
	}
	return file
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
