package dla

import "math"

// minSpawnMargin is the least gap kept between cluster and spawn sphere.
const minSpawnMargin = 5

// GrowthState holds the adaptive radii of a run.
type GrowthState struct {
	ClusterRadius float64
	SpawnRadius   float64
	KillRadius    float64
}

// GrowthObserver is told when the spawn sphere grows, so view sizing can
// follow the cluster. Implementations must return quickly.
type GrowthObserver interface {
	SpawnGrew(GrowthState)
}

// BoundaryPolicy derives the spawn and kill radii from the cluster radius
// and decides when the kill sphere is about to leave the lattice.
type BoundaryPolicy struct {
	addRatio  float64
	killRatio float64
	extent    int

	initial GrowthState
	state   GrowthState

	observer GrowthObserver
}

// NewBoundaryPolicy builds a policy from the run config. observer may be nil.
func NewBoundaryPolicy(cfg Config, observer GrowthObserver) *BoundaryPolicy {
	b := &BoundaryPolicy{
		addRatio:  cfg.AddRatio,
		killRatio: cfg.KillRatio,
		extent:    cfg.Extent,
		initial:   GrowthState{SpawnRadius: cfg.SpawnRadius, KillRadius: cfg.KillRadius},
		observer:  observer,
	}
	b.Reset()
	return b
}

// State returns the current radii.
func (b *BoundaryPolicy) State() GrowthState { return b.state }

// Reset restores the initial radii with an empty cluster.
func (b *BoundaryPolicy) Reset() { b.state = b.initial }

// DesiredSpawnRadius is how large the spawn sphere should be for the current
// cluster: AddRatio times the cluster radius, or at least the fixed margin
// beyond it.
func (b *BoundaryPolicy) DesiredSpawnRadius() float64 {
	r := b.state.ClusterRadius
	return math.Max(r*b.addRatio, r+minSpawnMargin)
}

// Update folds a newly frozen particle into the cluster radius. grew reports
// whether the cluster radius increased; stop reports that the run must end
// because the kill sphere is nearing the lattice edge.
func (b *BoundaryPolicy) Update(p Position) (grew, stop bool) {
	d := p.Distance()
	if d <= b.state.ClusterRadius {
		return false, false
	}
	b.state.ClusterRadius = d
	if want := b.DesiredSpawnRadius(); want > b.state.SpawnRadius {
		b.state.SpawnRadius = want
		b.state.KillRadius = b.killRatio * want
		if b.observer != nil {
			b.observer.SpawnGrew(b.state)
		}
	}
	return true, b.CheckStop()
}

// CheckStop reports whether the kill sphere plus a two-cell margin reaches
// half the lattice extent.
func (b *BoundaryPolicy) CheckStop() bool {
	return stopReached(b.state.KillRadius, b.extent)
}

func stopReached(killRadius float64, extent int) bool {
	return killRadius+2 >= float64(extent/2)
}
