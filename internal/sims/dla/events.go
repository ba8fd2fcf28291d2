package dla

import "math"

// StickEvent describes a particle freezing onto the cluster.
type StickEvent struct {
	// Index is the stuck particle's sequence index; the seed particle is 0.
	Index int
	Position
	// ClusterRadius is the radius after this particle was folded in.
	ClusterRadius    float64
	StickProbability float64
	// Count is the number of particles held after the stick, seed included.
	Count int
}

// FractalDimension estimates ln(Index)/ln(ClusterRadius). It is undefined,
// and ok is false, when either the index or the radius is at most 1.
func (e StickEvent) FractalDimension() (dim float64, ok bool) {
	if e.ClusterRadius <= 1 || e.Index <= 1 {
		return 0, false
	}
	return math.Log(float64(e.Index)) / math.Log(e.ClusterRadius), true
}

// Sink receives stick events. Stick is called from inside Engine.Step and
// must not block; wrap slow writers in records.AsyncSink.
type Sink interface {
	Stick(StickEvent)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(StickEvent)

// Stick calls f(ev).
func (f SinkFunc) Stick(ev StickEvent) { f(ev) }

type discardSink struct{}

func (discardSink) Stick(StickEvent) {}
