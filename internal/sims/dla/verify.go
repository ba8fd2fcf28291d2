package dla

import (
	"errors"
	"fmt"
)

// Verify checks the occupancy invariant: every particle sits on its own
// occupied cell and no other cell is occupied. It also checks the growth
// invariants. It scans the whole lattice, so call it at run boundaries or in
// tests, not per step.
func (e *Engine) Verify() error {
	var errs []error

	seen := make(map[Position]int, e.particles.Len())
	for i := 0; i < e.particles.Len(); i++ {
		p := e.particles.At(i)
		if j, dup := seen[p]; dup {
			errs = append(errs, fmt.Errorf("particles %d and %d share cell (%d,%d,%d)", j, i, p.X, p.Y, p.Z))
			continue
		}
		seen[p] = i
		if !e.lattice.Contains(p.X, p.Y, p.Z) {
			errs = append(errs, fmt.Errorf("particle %d outside lattice at (%d,%d,%d)", i, p.X, p.Y, p.Z))
			continue
		}
		if !e.lattice.Occupied(p.X, p.Y, p.Z) {
			errs = append(errs, fmt.Errorf("particle %d cell (%d,%d,%d) not marked occupied", i, p.X, p.Y, p.Z))
		}
	}
	if got, want := e.lattice.Count(), len(seen); got != want {
		errs = append(errs, fmt.Errorf("lattice holds %d occupied cells for %d particles", got, want))
	}

	g := e.boundary.State()
	if g.ClusterRadius > 0 {
		const eps = 1e-9
		if g.SpawnRadius < g.ClusterRadius*e.cfg.AddRatio-eps || g.SpawnRadius < g.ClusterRadius+minSpawnMargin-eps {
			errs = append(errs, fmt.Errorf("spawn radius %v too small for cluster radius %v", g.SpawnRadius, g.ClusterRadius))
		}
	}
	for i := 0; i < e.frozenCount(); i++ {
		if d := e.particles.At(i).Distance(); d > g.ClusterRadius+1e-9 {
			errs = append(errs, fmt.Errorf("frozen particle %d at distance %v beyond cluster radius %v", i, d, g.ClusterRadius))
			break
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) frozenCount() int {
	if e.inFlight {
		return e.particles.Len() - 1
	}
	return e.particles.Len()
}
