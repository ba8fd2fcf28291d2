package dla

import (
	"testing"

	"mad-dla/internal/core"

	"github.com/stretchr/testify/require"
)

// scriptedSource replays fixed draws. Once a queue runs dry it returns 0.
type scriptedSource struct {
	ints   []int
	floats []float64

	intCalls   int
	floatCalls int
	seeds      []int64
}

func (s *scriptedSource) IntN(n int) int {
	s.intCalls++
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

func (s *scriptedSource) Float64() float64 {
	s.floatCalls++
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedSource) Seed(seed int64) { s.seeds = append(s.seeds, seed) }

// recorder collects stick events in memory.
type recorder struct {
	events []StickEvent
}

func (r *recorder) Stick(ev StickEvent) { r.events = append(r.events, ev) }

func newScriptedEngine(t *testing.T, cfg Config, src *scriptedSource, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithRandomSource(src), WithSink(rec)}, opts...)
	e, err := NewWithConfig(cfg, opts...)
	require.NoError(t, err)
	return e, rec
}

// freeze places a frozen particle directly, bypassing the walk.
func freeze(t *testing.T, e *Engine, p Position) {
	t.Helper()
	require.False(t, e.inFlight, "cannot freeze while a walker is in flight")
	require.False(t, e.Occupied(p), "cell %v already occupied", p)
	e.particles.Add(p)
	e.lattice.Set(p.X, p.Y, p.Z, true)
}

// launch places an in-flight walker directly.
func launch(t *testing.T, e *Engine, p Position) {
	t.Helper()
	freeze(t, e, p)
	e.inFlight = true
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Extent = 100
	cfg.Target = 50
	return cfg
}

// runUntil steps until the engine finishes or maxSteps is hit, calling check
// after every step when it is non-nil.
func runUntil(e *Engine, maxSteps int, check func(step int)) int {
	for i := 0; i < maxSteps; i++ {
		status := e.Step()
		if check != nil {
			check(i)
		}
		if status == core.Finished {
			return i + 1
		}
	}
	return maxSteps
}
