package core

import "sort"

// Status reports the outcome of a single simulation step.
type Status int

const (
	// Continuing means the run has more work to do.
	Continuing Status = iota
	// Finished means the run reached a terminal state. Further steps are
	// no-ops until the simulation is reset.
	Finished
)

func (s Status) String() string {
	if s == Finished {
		return "finished"
	}
	return "continuing"
}

// Sim defines the control surface a driver needs to run an aggregation
// simulation step by step.
type Sim interface {
	Name() string
	Reset()
	SetSeed(seed int64)
	Step() Status
	ParticleCount() int
	ClusterRadius() float64
}

// Factory constructs a Sim using an optional configuration map.
type Factory func(cfg map[string]string) (Sim, error)

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Sims exposes the registry of available simulation factories.
func Sims() map[string]Factory {
	return sims
}

// SimNames returns the registered simulation names in sorted order.
func SimNames() []string {
	names := make([]string, 0, len(sims))
	for name := range sims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
