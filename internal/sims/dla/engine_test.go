package dla

import (
	"bytes"
	"log/slog"
	"testing"

	"mad-dla/internal/core"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetOfOneFinishesImmediately(t *testing.T) {
	e, err := New(400, 1, 1.0)
	require.NoError(t, err)

	assert.True(t, e.Done())
	assert.Equal(t, FinishTarget, e.FinishReason())
	assert.Equal(t, core.Finished, e.Step())
	assert.Equal(t, 1, e.ParticleCount())
	assert.Zero(t, e.ClusterRadius())
	assert.Zero(t, e.Stats().Steps, "a finished step performs no transition")
}

func TestResetIsIdempotent(t *testing.T) {
	e, err := NewWithConfig(smallConfig())
	require.NoError(t, err)
	runUntil(e, 20000, nil)

	e.Reset()
	firstPositions := e.Positions()
	firstGrowth := e.Growth()
	firstStats := e.Stats()

	e.Reset()
	assert.Equal(t, firstPositions, e.Positions())
	assert.Equal(t, firstGrowth, e.Growth())
	assert.Equal(t, firstStats, e.Stats())

	assert.Equal(t, []Position{Origin}, e.Positions())
	assert.Equal(t, GrowthState{ClusterRadius: 0, SpawnRadius: 10, KillRadius: 20}, e.Growth())
	assert.False(t, e.InFlight())
	require.NoError(t, e.Verify())
}

func TestIdenticalSeedsProduceIdenticalEvents(t *testing.T) {
	cfg := smallConfig()
	cfg.Seed = 42

	run := func() []StickEvent {
		rec := &recorder{}
		e, err := NewWithConfig(cfg, WithSink(rec))
		require.NoError(t, err)
		runUntil(e, 5_000_000, nil)
		return rec.events
	}

	a := run()
	b := run()
	require.NotEmpty(t, a)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("stick events differ between identical runs (-first +second):\n%s", diff)
	}
}

func TestSetSeedAndResetReplaysRun(t *testing.T) {
	cfg := smallConfig()
	cfg.Target = 10
	rec := &recorder{}
	e, err := NewWithConfig(cfg, WithSink(rec))
	require.NoError(t, err)

	runUntil(e, 5_000_000, nil)
	first := append([]StickEvent(nil), rec.events...)
	require.NotEmpty(t, first)

	rec.events = nil
	e.SetSeed(cfg.Seed)
	e.Reset()
	runUntil(e, 5_000_000, nil)

	assert.Empty(t, cmp.Diff(first, rec.events))
}

func TestCertainStickingWithOneNeighbour(t *testing.T) {
	cfg := smallConfig()
	cfg.Target = 2
	// Hop -x onto (1,0,0), then roll the worst possible trial value.
	src := &scriptedSource{ints: []int{1, 999}}
	e, rec := newScriptedEngine(t, cfg, src)
	launch(t, e, Position{X: 2})

	assert.Equal(t, core.Continuing, e.Step())

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, 1, ev.Index)
	assert.Equal(t, Position{X: 1}, ev.Position)
	assert.Equal(t, 1.0, ev.ClusterRadius)
	assert.Equal(t, 1.0, ev.StickProbability)
	assert.Equal(t, 2, ev.Count)

	assert.False(t, e.InFlight())
	assert.Equal(t, 2, src.intCalls, "one hop draw and one trial")
	assert.True(t, e.Occupied(Position{X: 1}))
	assert.False(t, e.Occupied(Position{X: 2}))
	assert.Equal(t, FinishTarget, e.FinishReason())
	assert.Equal(t, core.Finished, e.Step())
	require.NoError(t, e.Verify())
}

func TestLeavingKillSphereDiscardsWalker(t *testing.T) {
	src := &scriptedSource{ints: []int{0}}
	e, rec := newScriptedEngine(t, smallConfig(), src)
	launch(t, e, Position{X: 20})
	before := e.ParticleCount()

	assert.Equal(t, core.Continuing, e.Step())

	assert.Equal(t, before-1, e.ParticleCount())
	assert.False(t, e.Occupied(Position{X: 20}))
	assert.False(t, e.InFlight())
	assert.Empty(t, rec.events)
	assert.EqualValues(t, 1, e.Stats().Abandoned)
	require.NoError(t, e.Verify())
}

func TestBoundaryStopEndsRunBeforeTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extent = 60
	cfg.Target = 1000
	src := &scriptedSource{ints: []int{1, 0}}
	e, rec := newScriptedEngine(t, cfg, src)
	freeze(t, e, Position{X: 11})
	launch(t, e, Position{X: 13})

	assert.Equal(t, core.Finished, e.Step())

	require.Len(t, rec.events, 1)
	g := e.Growth()
	assert.Equal(t, 12.0, g.ClusterRadius)
	assert.Equal(t, 17.0, g.SpawnRadius)
	assert.InDelta(t, 28.9, g.KillRadius, 1e-9)
	assert.Equal(t, FinishBoundary, e.FinishReason())

	e.SetTargetCount(5000)
	assert.Equal(t, core.Finished, e.Step())

	e.Reset()
	assert.Equal(t, FinishNone, e.FinishReason())
	assert.Equal(t, core.Continuing, e.Step())
}

func TestSpawnCollisionRetriesNextStep(t *testing.T) {
	src := &scriptedSource{floats: []float64{0, 0, 0.5, 0.5}}
	e, _ := newScriptedEngine(t, smallConfig(), src)
	freeze(t, e, Position{X: 10})
	before := e.Positions()

	assert.Equal(t, core.Continuing, e.Step())
	assert.Equal(t, before, e.Positions())
	assert.False(t, e.InFlight())
	assert.EqualValues(t, 1, e.Stats().SpawnCollisions)
	assert.Equal(t, DiagnosticSpawnCollision, e.LastDiagnostic().Kind)
	assert.Equal(t, Position{X: 10}, e.LastDiagnostic().Pos)

	assert.Equal(t, core.Continuing, e.Step())
	walker, ok := e.Walker()
	require.True(t, ok)
	assert.Equal(t, Position{X: -10, Y: 1, Z: 10}, walker)
	assert.EqualValues(t, 1, e.Stats().Spawned)
}

func TestHopOntoOccupiedCellUnderCertainStickingIsViolation(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	src := &scriptedSource{ints: []int{1}}
	e, _ := newScriptedEngine(t, smallConfig(), src, WithLogger(logger))
	launch(t, e, Position{X: 1})

	assert.Equal(t, core.Continuing, e.Step())

	walker, ok := e.Walker()
	require.True(t, ok)
	assert.Equal(t, Position{X: 1}, walker)
	assert.EqualValues(t, 1, e.Stats().InvariantViolations)
	assert.Equal(t, DiagnosticInvariant, e.LastDiagnostic().Kind)
	assert.Contains(t, logs.String(), "invariant_violation")

	assert.Equal(t, core.Continuing, e.Step(), "engine stays steppable")
	require.NoError(t, e.Verify())
}

func TestHopOntoOccupiedCellWithPartialStickingIsRejected(t *testing.T) {
	cfg := smallConfig()
	cfg.StickProbability = 0.5
	src := &scriptedSource{ints: []int{1}}
	e, _ := newScriptedEngine(t, cfg, src)
	launch(t, e, Position{X: 1})

	e.Step()

	assert.EqualValues(t, 1, e.Stats().RejectedHops)
	assert.Zero(t, e.Stats().InvariantViolations)
	assert.Equal(t, DiagnosticRejectedHop, e.LastDiagnostic().Kind)
}

func TestEveryOccupiedNeighbourDrawsATrial(t *testing.T) {
	cases := []struct {
		name   string
		rolls  []int
		sticks bool
	}{
		{name: "second trial succeeds", rolls: []int{899, 99}, sticks: true},
		{name: "first trial succeeds and second still draws", rolls: []int{99, 899}, sticks: true},
		{name: "both trials fail", rolls: []int{899, 899}, sticks: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := smallConfig()
			cfg.StickProbability = 0.5
			// Hop -z from (1,0,1) onto (1,0,0), next to the origin and (1,1,0).
			src := &scriptedSource{ints: append([]int{5}, tc.rolls...)}
			e, rec := newScriptedEngine(t, cfg, src)
			freeze(t, e, Position{X: 1, Y: 1})
			launch(t, e, Position{X: 1, Z: 1})

			e.Step()

			assert.Equal(t, 3, src.intCalls)
			assert.Equal(t, tc.sticks, !e.InFlight())
			if tc.sticks {
				require.Len(t, rec.events, 1)
				assert.Equal(t, Position{X: 1}, rec.events[0].Position)
			} else {
				assert.Empty(t, rec.events)
			}
		})
	}
}

func TestDriftPullsHopTowardOrigin(t *testing.T) {
	cfg := smallConfig()
	cfg.Drift = 1
	src := &scriptedSource{ints: []int{0, 3}, floats: []float64{0, 0}}
	e, _ := newScriptedEngine(t, cfg, src)
	launch(t, e, Position{X: 5, Y: -4})

	e.Step()
	walker, _ := e.Walker()
	assert.Equal(t, Position{X: 4, Y: -4}, walker, "+x hop reversed toward origin")

	e.Step()
	walker, _ = e.Walker()
	assert.Equal(t, Position{X: 4, Y: -3}, walker, "-y hop reversed toward origin")
}

func TestDriftOffDrawsNoExtraFloats(t *testing.T) {
	src := &scriptedSource{ints: []int{0, 2, 4}}
	e, _ := newScriptedEngine(t, smallConfig(), src)
	launch(t, e, Position{X: 5})

	e.Step()
	e.Step()
	e.Step()
	assert.Zero(t, src.floatCalls)
}

func TestRunKeepsInvariants(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extent = 60
	cfg.Target = 40
	cfg.Seed = 3
	e, err := NewWithConfig(cfg)
	require.NoError(t, err)

	lastRadius := 0.0
	lastStuck := uint64(0)
	runUntil(e, 5_000_000, func(step int) {
		if e.ClusterRadius() < lastRadius {
			t.Fatalf("step %d: cluster radius shrank from %v to %v", step, lastRadius, e.ClusterRadius())
		}
		lastRadius = e.ClusterRadius()

		if s := e.Stats().Stuck; s != lastStuck {
			lastStuck = s
			g := e.Growth()
			require.GreaterOrEqual(t, g.SpawnRadius, g.ClusterRadius*cfg.AddRatio-1e-9)
			require.GreaterOrEqual(t, g.SpawnRadius, g.ClusterRadius+5-1e-9)
			if g.SpawnRadius > cfg.SpawnRadius {
				require.InDelta(t, cfg.KillRatio*g.SpawnRadius, g.KillRadius, 1e-9)
			}
			require.NoError(t, e.Verify(), "step %d", step)
		}
	})

	assert.True(t, e.Done())
	assert.NotZero(t, e.Stats().Stuck)
	assert.Zero(t, e.Stats().InvariantViolations)
	require.NoError(t, e.Verify())
}

func TestNewWithConfigRejectsTinyLattice(t *testing.T) {
	_, err := New(44, 10, 1.0)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = New(50, 10, 1.0)
	require.NoError(t, err)
}

func TestWithRandomSourceIsSeededOnce(t *testing.T) {
	src := &scriptedSource{}
	cfg := smallConfig()
	cfg.Seed = 77
	e, _ := newScriptedEngine(t, cfg, src)
	for i := 0; i < 100; i++ {
		e.Step()
	}
	assert.Equal(t, []int64{77}, src.seeds)

	e.SetSeed(5)
	assert.Equal(t, []int64{77, 5}, src.seeds)
}

func TestStatusExcludesSeedParticle(t *testing.T) {
	cfg := smallConfig()
	cfg.StickProbability = 0.25
	e, err := NewWithConfig(cfg)
	require.NoError(t, err)
	freeze(t, e, Position{X: 1})

	r := e.Status()
	assert.Equal(t, 1, r.Particles)
	assert.Equal(t, 0.25, r.StickProbability)
}
