package dla

import (
	"context"
	"log/slog"
	"math"

	"mad-dla/internal/core"
	pcore "mad-dla/pkg/core"
)

const (
	// stickDenominator is the resolution of a sticking trial: each trial
	// draws an integer in [1, stickDenominator].
	stickDenominator = 1000
)

// RandomSource supplies the draws an engine consumes.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
	Seed(seed int64)
}

// Option customises an Engine at construction.
type Option func(*Engine)

// WithSink routes stick events to s.
func WithSink(s Sink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// WithLogger routes diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRandomSource replaces the default PCG source. The source is reseeded
// with the configured seed.
func WithRandomSource(r RandomSource) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithGrowthObserver registers o to hear about spawn sphere growth.
func WithGrowthObserver(o GrowthObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// WithName overrides the simulation identifier.
func WithName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.name = name
		}
	}
}

// Engine runs diffusion-limited aggregation one transition per Step. It owns
// the lattice, the particle store and the growth state, and is not safe for
// concurrent use.
type Engine struct {
	cfg  Config
	name string

	lattice   *core.Lattice
	particles *ParticleStore
	boundary  *BoundaryPolicy
	observer  GrowthObserver

	rng  RandomSource
	sink Sink
	log  *slog.Logger

	inFlight bool
	stopped  bool

	stats Stats
	last  Diagnostic
}

// New returns an engine with default ratios for the given extent, target and
// sticking probability.
func New(extent, target int, stickProbability float64, opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	cfg.Extent = extent
	cfg.Target = target
	cfg.StickProbability = stickProbability
	return NewWithConfig(cfg, opts...)
}

// NewWithConfig validates cfg and returns an engine holding the seed particle
// at the origin.
func NewWithConfig(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:  cfg,
		name: "dla",
		sink: discardSink{},
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = pcore.NewRNG(cfg.Seed)
	} else {
		e.rng.Seed(cfg.Seed)
	}
	e.lattice = core.NewLattice(cfg.Extent)
	e.particles = NewParticleStore(cfg.Target)
	e.boundary = NewBoundaryPolicy(cfg, e.observer)
	e.Reset()

	e.log.Debug("engine created",
		"extent", cfg.Extent,
		"target", cfg.Target,
		"stick_probability", cfg.StickProbability,
		"seed", cfg.Seed)
	return e, nil
}

// Name returns the simulation identifier.
func (e *Engine) Name() string { return e.name }

// Config returns the configuration the engine is running with.
func (e *Engine) Config() Config { return e.cfg }

// Reset clears the lattice, empties the particle store, restores the growth
// state and places the seed particle at the origin. The random source is not
// reseeded.
func (e *Engine) Reset() {
	e.lattice.Clear()
	e.particles.Reset()
	e.boundary.Reset()
	if v, ok := e.observer.(interface{ Reset() }); ok {
		v.Reset()
	}
	e.inFlight = false
	e.stopped = false
	e.stats = Stats{}
	e.last = Diagnostic{}

	e.particles.Add(Origin)
	e.lattice.Set(Origin.X, Origin.Y, Origin.Z, true)
}

// SetSeed reseeds the random source. State is left as is.
func (e *Engine) SetSeed(seed int64) {
	e.cfg.Seed = seed
	e.rng.Seed(seed)
}

// SetTargetCount changes the particle count at which the run finishes.
func (e *Engine) SetTargetCount(n int) {
	if n < 1 {
		n = 1
	}
	e.cfg.Target = n
}

// ParticleCount returns the number of particles held, seed and in-flight
// walker included.
func (e *Engine) ParticleCount() int { return e.particles.Len() }

// ClusterRadius returns the largest origin distance among frozen particles.
func (e *Engine) ClusterRadius() float64 { return e.boundary.State().ClusterRadius }

// StickProbability returns the per-neighbour sticking chance.
func (e *Engine) StickProbability() float64 { return e.cfg.StickProbability }

// TargetCount returns the particle count at which the run finishes.
func (e *Engine) TargetCount() int { return e.cfg.Target }

// Growth returns the current radii.
func (e *Engine) Growth() GrowthState { return e.boundary.State() }

// InFlight reports whether a walker is currently mobile.
func (e *Engine) InFlight() bool { return e.inFlight }

// Walker returns the in-flight particle's position.
func (e *Engine) Walker() (Position, bool) {
	if !e.inFlight {
		return Position{}, false
	}
	return e.particles.Last(), true
}

// Positions returns a copy of every particle position in insertion order.
func (e *Engine) Positions() []Position { return e.particles.Positions() }

// Occupied reports whether p is taken. Positions outside the lattice are
// reported empty.
func (e *Engine) Occupied(p Position) bool {
	if !e.lattice.Contains(p.X, p.Y, p.Z) {
		return false
	}
	return e.lattice.Occupied(p.X, p.Y, p.Z)
}

// Stats returns the step counters since the last reset.
func (e *Engine) Stats() Stats { return e.stats }

// LastDiagnostic returns the most recent anomaly, if any.
func (e *Engine) LastDiagnostic() Diagnostic { return e.last }

// FinishReason explains why the run is finished, or FinishNone.
func (e *Engine) FinishReason() FinishReason {
	switch {
	case e.stopped:
		return FinishBoundary
	case !e.inFlight && e.particles.Len() >= e.cfg.Target:
		return FinishTarget
	default:
		return FinishNone
	}
}

// Done reports whether the next Step would return core.Finished.
func (e *Engine) Done() bool { return e.FinishReason() != FinishNone }

// Step performs exactly one transition: a hop of the in-flight walker, a
// spawn attempt, or nothing when the run is finished.
func (e *Engine) Step() core.Status {
	if e.stopped {
		return core.Finished
	}
	switch {
	case e.inFlight:
		e.stats.Steps++
		e.moveWalker()
	case e.particles.Len() < e.cfg.Target:
		e.stats.Steps++
		e.spawn()
	default:
		return core.Finished
	}
	if e.stopped {
		return core.Finished
	}
	return core.Continuing
}

// spawn places a new walker on the spawn sphere. An occupied spawn cell
// leaves the state untouched so the next step tries again.
func (e *Engine) spawn() {
	r := e.boundary.State().SpawnRadius
	theta := e.rng.Float64() * 2 * math.Pi
	phi := e.rng.Float64() * math.Pi
	p := Position{
		X: roundOutward(r * math.Cos(theta)),
		Y: roundOutward(r * math.Sin(theta)),
		Z: roundOutward(r * math.Sin(phi)),
	}
	if !e.lattice.Contains(p.X, p.Y, p.Z) {
		e.violation(p, "spawn cell outside lattice")
		return
	}
	if e.lattice.Occupied(p.X, p.Y, p.Z) {
		e.stats.SpawnCollisions++
		e.note(DiagnosticSpawnCollision, p, "spawn cell occupied", slog.LevelDebug)
		return
	}
	e.particles.Add(p)
	e.lattice.Set(p.X, p.Y, p.Z, true)
	e.inFlight = true
	e.stats.Spawned++
}

// moveWalker hops the in-flight particle once and applies the kill,
// occupancy and sticking rules.
func (e *Engine) moveWalker() {
	cur := e.particles.Last()
	next := cur.Neighbor(e.hopDirection(cur))

	if next.Distance() > e.boundary.State().KillRadius {
		e.lattice.Set(cur.X, cur.Y, cur.Z, false)
		e.particles.RemoveLast()
		e.inFlight = false
		e.stats.Abandoned++
		return
	}
	if !e.lattice.Contains(next.X, next.Y, next.Z) {
		e.violation(next, "hop target outside lattice")
		return
	}
	if e.lattice.Occupied(next.X, next.Y, next.Z) {
		e.stats.RejectedHops++
		if e.cfg.StickProbability >= 1 {
			e.violation(next, "hop onto occupied cell under certain sticking")
			return
		}
		e.note(DiagnosticRejectedHop, next, "hop onto occupied cell", slog.LevelDebug)
		return
	}

	e.lattice.Set(cur.X, cur.Y, cur.Z, false)
	e.particles.SetLast(next)
	e.lattice.Set(next.X, next.Y, next.Z, true)
	e.stats.Hops++

	if !e.sticks(next) {
		return
	}
	e.inFlight = false
	e.stats.Stuck++
	if _, stop := e.boundary.Update(next); stop {
		e.stopped = true
		e.log.Info("kill sphere reached lattice margin, stopping",
			"particles", e.particles.Len(),
			"kill_radius", e.boundary.State().KillRadius,
			"extent", e.cfg.Extent)
	}
	e.sink.Stick(StickEvent{
		Index:            e.particles.Len() - 1,
		Position:         next,
		ClusterRadius:    e.boundary.State().ClusterRadius,
		StickProbability: e.cfg.StickProbability,
		Count:            e.particles.Len(),
	})
}

// hopDirection draws one of the six axis directions. With drift enabled, a
// second draw may pull the hop toward the origin along the chosen axis.
func (e *Engine) hopDirection(cur Position) int {
	d := e.rng.IntN(len(directions))
	if e.cfg.Drift <= 0 {
		return d
	}
	axis := d / 2
	if e.rng.Float64() >= e.cfg.Drift {
		return d
	}
	switch c := cur.axis(axis); {
	case c > 0:
		return axis*2 + 1
	case c < 0:
		return axis * 2
	}
	return d
}

// sticks runs one trial per occupied neighbour of p. Every occupied
// neighbour draws, even after an earlier success, which makes the effective
// sticking chance grow with the neighbour count.
func (e *Engine) sticks(p Position) bool {
	stuck := false
	for i := range directions {
		n := p.Neighbor(i)
		if !e.lattice.Contains(n.X, n.Y, n.Z) {
			e.violation(n, "neighbour outside lattice")
			continue
		}
		if !e.lattice.Occupied(n.X, n.Y, n.Z) {
			continue
		}
		roll := e.rng.IntN(stickDenominator) + 1
		if e.cfg.StickProbability >= 1 || float64(roll)/stickDenominator < e.cfg.StickProbability {
			stuck = true
		}
	}
	return stuck
}

func (e *Engine) violation(p Position, detail string) {
	e.stats.InvariantViolations++
	e.note(DiagnosticInvariant, p, detail, slog.LevelWarn)
}

func (e *Engine) note(kind DiagnosticKind, p Position, detail string, level slog.Level) {
	e.last = Diagnostic{Kind: kind, Pos: p, Step: e.stats.Steps, Detail: detail}
	e.log.Log(context.Background(), level, detail,
		"kind", kind.String(),
		"step", e.stats.Steps,
		"x", p.X, "y", p.Y, "z", p.Z)
}

// Report summarises a run the way an operator reads it: particles excluding
// the seed, cluster radius and sticking probability.
type Report struct {
	Particles        int
	ClusterRadius    float64
	StickProbability float64
}

// Status returns the current run report.
func (e *Engine) Status() Report {
	return Report{
		Particles:        e.particles.Len() - 1,
		ClusterRadius:    e.ClusterRadius(),
		StickProbability: e.cfg.StickProbability,
	}
}
