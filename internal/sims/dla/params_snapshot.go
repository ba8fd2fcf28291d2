package dla

import (
	"mad-dla/internal/core"
)

// Parameters reports the run configuration and live growth state.
func (e *Engine) Parameters() core.ParameterSnapshot {
	cfg := e.cfg
	g := e.boundary.State()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Lattice",
			Params: []core.Parameter{
				core.IntParam(KeyExtent, "Extent", cfg.Extent),
				core.Int64Param(KeySeed, "Seed", cfg.Seed),
			},
		},
		{
			Name: "Aggregation",
			Params: []core.Parameter{
				core.IntParam(KeyTarget, "Target count", cfg.Target),
				core.FloatParam(KeyStickProbability, "Stick probability", cfg.StickProbability),
				core.FloatParam(KeyDrift, "Drift", cfg.Drift),
			},
		},
		{
			Name: "Boundary",
			Params: []core.Parameter{
				core.FloatParam(KeyAddRatio, "Add ratio", cfg.AddRatio),
				core.FloatParam(KeyKillRatio, "Kill ratio", cfg.KillRatio),
				core.FloatParam(KeySpawnRadius, "Initial spawn radius", cfg.SpawnRadius),
				core.FloatParam(KeyKillRadius, "Initial kill radius", cfg.KillRadius),
			},
		},
		{
			Name: "Growth",
			Params: []core.Parameter{
				core.IntParam("particles", "Particles", e.particles.Len()),
				core.FloatParam("cluster_radius", "Cluster radius", g.ClusterRadius),
				core.FloatParam("spawn_radius_now", "Spawn radius", g.SpawnRadius),
				core.FloatParam("kill_radius_now", "Kill radius", g.KillRadius),
			},
		},
	}}
}

// SetIntParameter adjusts the target count of a live engine.
func (e *Engine) SetIntParameter(key string, value int) bool {
	switch key {
	case KeyTarget:
		e.SetTargetCount(value)
		return true
	}
	return false
}

// SetFloatParameter adjusts the sticking probability or drift of a live
// engine. Values are clamped to their valid ranges.
func (e *Engine) SetFloatParameter(key string, value float64) bool {
	switch key {
	case KeyStickProbability:
		if value > 1 {
			value = 1
		}
		if !(value > 0) {
			return false
		}
		e.cfg.StickProbability = value
		return true
	case KeyDrift:
		if value > 1 {
			value = 1
		}
		if !(value >= 0) {
			value = 0
		}
		e.cfg.Drift = value
		return true
	}
	return false
}
