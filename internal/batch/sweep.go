// Package batch runs grids of aggregation runs on a worker pool.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"mad-dla/internal/analysis"
	"mad-dla/internal/core"
	"mad-dla/internal/logging"
	"mad-dla/internal/records"
	"mad-dla/internal/sims/dla"

	"github.com/google/uuid"
)

// cancelCheckInterval is how many engine steps run between context checks.
const cancelCheckInterval = 4096

// Grid describes a sweep: every probability is paired with every target and
// each pair is repeated with its own derived seed.
type Grid struct {
	Base          dla.Config
	Probabilities []float64
	Targets       []int
	Repeats       int
	// MaxSteps caps each run; zero means no cap.
	MaxSteps uint64
	// FitMinIndex skips early particles in the dimension fit.
	FitMinIndex int
}

// Job is one run of a grid.
type Job struct {
	Seq         int
	Probability float64
	Target      int
	Repeat      int
	Seed        int64
}

func (j Job) String() string {
	return fmt.Sprintf("p=%.3f target=%d repeat=%d seed=%d", j.Probability, j.Target, j.Repeat, j.Seed)
}

// Result is the outcome of a finished job.
type Result struct {
	RunID uuid.UUID
	Job
	// Particles excludes the seed particle.
	Particles     int
	ClusterRadius float64
	// Estimate is the last point estimate ln(N)/ln(R), when defined.
	Estimate   float64
	EstimateOK bool
	// Fit is the least-squares dimension; FitOK is false when there were
	// too few samples.
	Fit     analysis.Fit
	FitOK   bool
	Steps   uint64
	Stats   dla.Stats
	Finish  dla.FinishReason
	Elapsed time.Duration
}

// Runner executes grids.
type Runner struct {
	workers  int
	log      *slog.Logger
	journal  *logging.Journal
	progress func(Result)
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the pool size. n <= 0 selects runtime.NumCPU().
func WithWorkers(n int) Option { return func(r *Runner) { r.workers = n } }

// WithLogger routes sweep logging. Engines stay silent.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithJournal records a JSONL line per finished run.
func WithJournal(j *logging.Journal) Option { return func(r *Runner) { r.journal = j } }

// WithProgress is called from the collecting goroutine for every result as
// it arrives.
func WithProgress(fn func(Result)) Option { return func(r *Runner) { r.progress = fn } }

// NewRunner builds a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{log: logging.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers <= 0 {
		r.workers = runtime.NumCPU()
	}
	return r
}

// Jobs expands the grid in probability, target, repeat order. Empty axes
// fall back to the base config.
func (g Grid) Jobs() []Job {
	probs := g.Probabilities
	if len(probs) == 0 {
		probs = []float64{g.Base.StickProbability}
	}
	targets := g.Targets
	if len(targets) == 0 {
		targets = []int{g.Base.Target}
	}
	repeats := max(g.Repeats, 1)

	jobs := make([]Job, 0, len(probs)*len(targets)*repeats)
	for _, p := range probs {
		for _, n := range targets {
			for rep := 0; rep < repeats; rep++ {
				seq := len(jobs)
				jobs = append(jobs, Job{
					Seq:         seq,
					Probability: p,
					Target:      n,
					Repeat:      rep,
					Seed:        DeriveSeed(g.Base.Seed, seq),
				})
			}
		}
	}
	return jobs
}

// Config returns the engine config for job.
func (g Grid) Config(job Job) dla.Config {
	cfg := g.Base
	cfg.StickProbability = job.Probability
	cfg.Target = job.Target
	cfg.Seed = job.Seed
	return cfg
}

// DeriveSeed mixes base and seq into an independent seed (splitmix64).
func DeriveSeed(base int64, seq int) int64 {
	z := uint64(base) + uint64(seq+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// Run executes every job of g. Results are returned in job order. When ctx
// is cancelled the finished results are returned with ctx.Err(); runs cut
// short are discarded.
func (r *Runner) Run(ctx context.Context, g Grid) ([]Result, error) {
	jobs := g.Jobs()
	for _, job := range jobs {
		if err := g.Config(job).Validate(); err != nil {
			return nil, fmt.Errorf("batch: %s: %w", job, err)
		}
	}

	r.log.Info("sweep starting", "runs", len(jobs), "workers", r.workers)
	start := time.Now()

	jobCh := make(chan Job)
	resultCh := make(chan Result)
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				res, err := RunJob(ctx, g, job)
				if err != nil {
					continue
				}
				resultCh <- res
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	all := make([]Result, 0, len(jobs))
	for res := range resultCh {
		all = append(all, res)
		r.journal.Log(journalEntry(res))
		r.log.Debug("run finished", "job", res.Job.String(), "particles", res.Particles,
			"radius", res.ClusterRadius, "finish", res.Finish.String())
		if r.progress != nil {
			r.progress(res)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })

	r.log.Info("sweep finished", "runs", len(all), "elapsed", time.Since(start).Round(time.Millisecond))
	if err := ctx.Err(); err != nil {
		return all, err
	}
	return all, nil
}

// RunJob executes one job to completion, to MaxSteps, or until ctx is done.
func RunJob(ctx context.Context, g Grid, job Job) (Result, error) {
	rec := &records.Recorder{}
	e, err := dla.NewWithConfig(g.Config(job), dla.WithSink(rec))
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	var steps uint64
	for e.Step() != core.Finished {
		steps++
		if g.MaxSteps > 0 && steps >= g.MaxSteps {
			break
		}
		if steps%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
	}

	events := rec.Events()
	report := e.Status()
	res := Result{
		RunID:         uuid.New(),
		Job:           job,
		Particles:     report.Particles,
		ClusterRadius: report.ClusterRadius,
		Steps:         e.Stats().Steps,
		Stats:         e.Stats(),
		Finish:        e.FinishReason(),
		Elapsed:       time.Since(start),
	}
	res.Estimate, res.EstimateOK = analysis.LastEstimate(events)
	if fit, err := analysis.FitDimension(events, g.FitMinIndex); err == nil {
		res.Fit, res.FitOK = fit, true
	}
	return res, nil
}

func journalEntry(res Result) map[string]any {
	entry := map[string]any{
		"event":          "run_finished",
		"run_id":         res.RunID.String(),
		"seq":            res.Seq,
		"probability":    res.Probability,
		"target":         res.Target,
		"repeat":         res.Repeat,
		"seed":           res.Seed,
		"particles":      res.Particles,
		"cluster_radius": res.ClusterRadius,
		"steps":          res.Steps,
		"finish":         res.Finish.String(),
	}
	if res.FitOK {
		entry["fit_dimension"] = res.Fit.Dimension
	}
	return entry
}
