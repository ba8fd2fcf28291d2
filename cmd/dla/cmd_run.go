package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"mad-dla/internal/analysis"
	"mad-dla/internal/config"
	"mad-dla/internal/core"
	"mad-dla/internal/logging"
	"mad-dla/internal/records"
	"mad-dla/internal/render"
	"mad-dla/internal/sims/dla"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	// unpacedChunk is how many steps run between context checks when no
	// rate is set.
	unpacedChunk = 4096
	// tickInterval is the driver cadence when a rate is set.
	tickInterval = time.Second / 60
)

// Image windows for --image-fit.
const (
	fitView  = "view"
	fitSpawn = "spawn"
)

type runOptions struct {
	sim       string
	overrides []string
	changes   []string
	maxSteps  uint64
	tps       int
	sticks    string
	summary   string
	plot      string
	image     string
	imageFit  string
	scale     int
	header    bool
	sync      bool
	verify    bool
}

// runReport is the final state of a run.
type runReport struct {
	RunID            string    `json:"run_id"`
	Sim              string    `json:"sim"`
	Seed             int64     `json:"seed"`
	Particles        int       `json:"particles"`
	ClusterRadius    float64   `json:"cluster_radius"`
	StickProbability float64   `json:"stick_probability"`
	SpawnRadius      float64   `json:"spawn_radius"`
	KillRadius       float64   `json:"kill_radius"`
	View             float64   `json:"view"`
	Finish           string    `json:"finish"`
	Stats            dla.Stats `json:"stats"`
	Dimension        *float64  `json:"fit_dimension,omitempty"`
	Elapsed          string    `json:"elapsed"`
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Grow one cluster",
		Long: `Grow one cluster until the target count is reached or the kill sphere
nears the lattice edge.

Examples:
  dla run --set target=5000 --csv sticks.csv
  dla run --sim dla-drift --set drift=0.2 --plot growth.png
  dla run --config run.yaml --tps 2000
  dla run --set target=3000 --change stick_probability=0.2@500000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			opts.applyDefaults(s.cfg)
			report, err := runSimulation(cmd.Context(), s, opts)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, jsonOutput(cmd))
		},
	}

	cmd.Flags().StringVar(&opts.sim, "sim", "", "simulation to run (see 'dla list')")
	cmd.Flags().StringArrayVar(&opts.overrides, "set", nil, "parameter override in key=value form (repeatable)")
	cmd.Flags().StringArrayVar(&opts.changes, "change", nil, "live parameter change in key=value@step form (repeatable)")
	cmd.Flags().Uint64Var(&opts.maxSteps, "steps", 0, "stop after this many steps (0 runs to completion)")
	cmd.Flags().IntVar(&opts.tps, "tps", 0, "steps per second (0 runs unpaced)")
	cmd.Flags().StringVar(&opts.sticks, "csv", "", "append one CSV row per stuck particle to this file")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "append a size line every 100 particles to this file")
	cmd.Flags().StringVar(&opts.plot, "plot", "", "write a log-log growth plot (png, svg, pdf)")
	cmd.Flags().StringVar(&opts.image, "image", "", "write a PNG of the cluster seen down the z axis")
	cmd.Flags().StringVar(&opts.imageFit, "image-fit", fitView, "image window: view (follows the kill sphere) or spawn (the spawn sphere)")
	cmd.Flags().IntVar(&opts.scale, "image-scale", 4, "pixels per lattice cell in --image")
	cmd.Flags().BoolVar(&opts.header, "header", false, "write a header row when starting a new CSV file")
	cmd.Flags().BoolVar(&opts.sync, "sync", false, "write records on the stepping goroutine")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "check lattice and particle invariants after the run")
	return cmd
}

// applyDefaults fills unset flags from the run file.
func (o *runOptions) applyDefaults(cfg *config.Config) {
	if o.sim == "" {
		o.sim = cfg.Simulation.Name
	}
	if o.sticks == "" {
		o.sticks = cfg.Output.Path(cfg.Output.Sticks)
	}
	if o.summary == "" {
		o.summary = cfg.Output.Path(cfg.Output.Summary)
	}
	if o.plot == "" {
		o.plot = cfg.Output.Path(cfg.Output.Plot)
	}
	if o.image == "" {
		o.image = cfg.Output.Path(cfg.Output.Image)
	}
	o.header = o.header || cfg.Output.Header
}

func runSimulation(ctx context.Context, s *settings, opts runOptions) (report runReport, err error) {
	params, err := simulationParams(s.cfg, opts.overrides)
	if err != nil {
		return report, err
	}
	changes, err := parseChanges(opts.changes)
	if err != nil {
		return report, err
	}
	if opts.imageFit != fitView && opts.imageFit != fitSpawn {
		return report, fmt.Errorf("invalid --image-fit %q (valid: %s, %s)", opts.imageFit, fitView, fitSpawn)
	}

	out, err := openOutputs(opts, s.log)
	if err != nil {
		return report, err
	}
	defer func() {
		if cerr := out.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	view := dla.NewViewTracker()
	engine, err := dla.Build(opts.sim, params,
		dla.WithSink(out.sink),
		dla.WithLogger(s.log.With("sim", opts.sim)),
		dla.WithGrowthObserver(view),
	)
	if err != nil {
		return report, err
	}

	var journal *logging.Journal
	if s.cfg.Output.Journal {
		if journal, err = logging.OpenJournal(s.cfg.Output.Dir); err != nil {
			return report, err
		}
		defer journal.Close()
	}

	runID := uuid.New()
	cfg := engine.Config()
	s.log.Info("run starting",
		"run_id", runID.String(),
		"sim", engine.Name(),
		"extent", cfg.Extent,
		"target", cfg.Target,
		"stick_probability", cfg.StickProbability,
		"seed", cfg.Seed)
	journal.Log(map[string]any{
		"event": "run_started", "run_id": runID.String(), "sim": engine.Name(),
		"seed": cfg.Seed, "target": cfg.Target, "stick_probability": cfg.StickProbability,
	})

	start := time.Now()
	stepErr := drive(ctx, engine, core.NewPacer(opts.tps, unpacedChunk), opts.maxSteps, changes)

	status := engine.Status()
	growth := engine.Growth()
	if opts.imageFit == fitSpawn {
		view.FitSpawn(growth)
	}
	report = runReport{
		RunID:            runID.String(),
		Sim:              engine.Name(),
		Seed:             cfg.Seed,
		Particles:        status.Particles,
		ClusterRadius:    status.ClusterRadius,
		StickProbability: status.StickProbability,
		SpawnRadius:      growth.SpawnRadius,
		KillRadius:       growth.KillRadius,
		View:             view.View(),
		Finish:           engine.FinishReason().String(),
		Stats:            engine.Stats(),
		Elapsed:          time.Since(start).Round(time.Millisecond).String(),
	}

	events := out.recorder.Events()
	if fit, ferr := analysis.FitDimension(events, s.cfg.Sweep.FitMinIndex); ferr == nil {
		report.Dimension = &fit.Dimension
		if opts.plot != "" {
			if perr := analysis.SaveGrowthPlot(opts.plot, engine.Name(), events, &fit); perr != nil {
				return report, fmt.Errorf("writing plot: %w", perr)
			}
		}
	} else if opts.plot != "" {
		s.log.Warn("growth plot skipped", "reason", ferr)
	}

	if opts.image != "" {
		proj := render.Project(clusterPositions(engine), view.View(), render.DepthPalette)
		if ierr := proj.SavePNG(opts.image, render.DepthPalette, opts.scale); ierr != nil {
			return report, fmt.Errorf("writing image: %w", ierr)
		}
	}

	journal.Log(map[string]any{
		"event": "run_finished", "run_id": runID.String(), "particles": report.Particles,
		"cluster_radius": report.ClusterRadius, "steps": report.Stats.Steps, "finish": report.Finish,
	})
	s.log.Info("run finished",
		"run_id", runID.String(),
		"particles", report.Particles,
		"cluster_radius", report.ClusterRadius,
		"steps", report.Stats.Steps,
		"finish", report.Finish)

	if stepErr != nil {
		return report, stepErr
	}
	if opts.verify {
		if verr := engine.Verify(); verr != nil {
			return report, fmt.Errorf("verification failed: %w", verr)
		}
	}
	return report, nil
}

// clusterPositions returns the frozen particles, leaving out a walker still
// in flight.
func clusterPositions(e *dla.Engine) []dla.Position {
	positions := e.Positions()
	if e.InFlight() {
		positions = positions[:len(positions)-1]
	}
	return positions
}

// liveChange sets a parameter once the run has taken At steps.
type liveChange struct {
	At    uint64
	Key   string
	Value string
}

// parseChanges reads key=value@step flags, ordered by step.
func parseChanges(specs []string) ([]liveChange, error) {
	changes := make([]liveChange, 0, len(specs))
	for _, spec := range specs {
		i := strings.LastIndex(spec, "@")
		if i < 0 {
			return nil, fmt.Errorf("change %q is not in key=value@step form", spec)
		}
		key, value, ok := strings.Cut(spec[:i], "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("change %q is not in key=value@step form", spec)
		}
		at, err := strconv.ParseUint(strings.TrimSpace(spec[i+1:]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("change %q: step: %w", spec, err)
		}
		changes = append(changes, liveChange{At: at, Key: key, Value: value})
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].At < changes[j].At })
	return changes, nil
}

// applyChange hands c to the sim's parameter setters, integer first.
func applyChange(sim core.Sim, c liveChange) error {
	if n, err := strconv.Atoi(c.Value); err == nil {
		if s, ok := sim.(core.IntParameterSetter); ok && s.SetIntParameter(c.Key, n) {
			return nil
		}
	}
	if f, err := strconv.ParseFloat(c.Value, 64); err == nil {
		if s, ok := sim.(core.FloatParameterSetter); ok && s.SetFloatParameter(c.Key, f) {
			return nil
		}
	}
	return fmt.Errorf("cannot set %s=%s on a running sim", c.Key, c.Value)
}

// drive steps sim until it finishes, maxSteps is reached or ctx is done,
// applying each change once its step count is reached. A paced run hands
// out the pacer's budget once per tick.
func drive(ctx context.Context, sim core.Sim, pacer *core.Pacer, maxSteps uint64, changes []liveChange) error {
	var steps uint64
	applyDue := func() error {
		for len(changes) > 0 && changes[0].At <= steps {
			if err := applyChange(sim, changes[0]); err != nil {
				return err
			}
			changes = changes[1:]
		}
		return nil
	}
	runBudget := func(n int) (bool, error) {
		for ; n > 0; n-- {
			if sim.Step() == core.Finished {
				return true, nil
			}
			steps++
			if err := applyDue(); err != nil {
				return true, err
			}
			if maxSteps > 0 && steps >= maxSteps {
				return true, nil
			}
		}
		return false, nil
	}

	if err := applyDue(); err != nil {
		return err
	}
	if !pacer.Paced() {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			if done, err := runBudget(pacer.Budget()); done {
				return err
			}
		}
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		if done, err := runBudget(pacer.Budget()); done {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// outputs holds the record sinks of a run.
type outputs struct {
	sink     dla.Sink
	async    *records.AsyncSink
	sticks   *records.StickCSV
	summary  *records.Summary
	recorder *records.Recorder
}

func openOutputs(opts runOptions, log *slog.Logger) (*outputs, error) {
	out := &outputs{}
	var files []dla.Sink
	if opts.sticks != "" {
		s, err := records.OpenStickCSV(opts.sticks, opts.header)
		if err != nil {
			return nil, err
		}
		out.sticks = s
		files = append(files, s)
	}
	if opts.summary != "" {
		s, err := records.OpenSummary(opts.summary, records.DefaultSummaryEvery)
		if err != nil {
			out.close()
			return nil, err
		}
		out.summary = s
		files = append(files, s)
	}

	var fileSink dla.Sink
	if len(files) > 0 {
		fileSink = records.Tee(files...)
		if !opts.sync {
			out.async = records.NewAsyncSink(fileSink, 0, log)
			fileSink = out.async
		}
	}
	out.recorder = &records.Recorder{}
	out.sink = records.Tee(fileSink, out.recorder)
	return out, nil
}

func (o *outputs) close() error {
	if o.async != nil {
		o.async.Close()
	}
	var errs []error
	if o.sticks != nil {
		errs = append(errs, o.sticks.Close())
	}
	if o.summary != nil {
		errs = append(errs, o.summary.Close())
	}
	return errors.Join(errs...)
}

func printReport(w io.Writer, r runReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	fmt.Fprintf(w, "%s run %s (seed %d)\n", r.Sim, r.RunID, r.Seed)
	fmt.Fprintf(w, "  particles:         %d\n", r.Particles)
	fmt.Fprintf(w, "  cluster radius:    %.3f\n", r.ClusterRadius)
	fmt.Fprintf(w, "  stick probability: %g\n", r.StickProbability)
	fmt.Fprintf(w, "  spawn/kill radius: %.3f / %.3f\n", r.SpawnRadius, r.KillRadius)
	if r.Dimension != nil {
		fmt.Fprintf(w, "  fitted dimension:  %.4f\n", *r.Dimension)
	}
	fmt.Fprintf(w, "  steps:             %d (%d spawned, %d abandoned)\n", r.Stats.Steps, r.Stats.Spawned, r.Stats.Abandoned)
	if n := r.Stats.SpawnCollisions + r.Stats.RejectedHops + r.Stats.InvariantViolations; n > 0 {
		fmt.Fprintf(w, "  diagnostics:       %d spawn collisions, %d rejected hops, %d invariant violations\n",
			r.Stats.SpawnCollisions, r.Stats.RejectedHops, r.Stats.InvariantViolations)
	}
	fmt.Fprintf(w, "  finish:            %s after %s\n", r.Finish, r.Elapsed)
	return nil
}
