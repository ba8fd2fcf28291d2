package config

import (
	"os"
	"path/filepath"
	"testing"

	"mad-dla/internal/sims/dla"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultMatchesEngineDefaults(t *testing.T) {
	cfg := Default()
	if diff := cmp.Diff(dla.DefaultConfig(), cfg.Simulation.DLA()); diff != "" {
		t.Fatalf("default simulation differs (-engine +config):\n%s", diff)
	}
	assert.Equal(t, "dla", cfg.Simulation.Name)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1, cfg.Sweep.Repeats)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, `
simulation:
  name: dla-drift
  extent: 200
  target: 500
  stick_probability: 0.1
  drift: 0.25

output:
  dir: out
  sticks: sticks.csv
  header: true
  journal: true

logging:
  level: debug
  format: json

sweep:
  probabilities: [1, 0.5, 0.1]
  targets: [100, 200]
  repeats: 3
  workers: 2
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "dla-drift", cfg.Simulation.Name)
	assert.Equal(t, 200, cfg.Simulation.Extent)
	assert.Equal(t, 0.1, cfg.Simulation.StickProbability)
	assert.Equal(t, 1.7, cfg.Simulation.KillRatio, "unset keys keep defaults")
	assert.Equal(t, 0.25, cfg.Simulation.Drift)

	assert.Equal(t, filepath.Join("out", "sticks.csv"), cfg.Output.Path(cfg.Output.Sticks))
	assert.Empty(t, cfg.Output.Path(cfg.Output.Summary))
	assert.True(t, cfg.Output.Header)
	assert.True(t, cfg.Output.Journal)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []float64{1, 0.5, 0.1}, cfg.Sweep.Probabilities)
	assert.Equal(t, []int{100, 200}, cfg.Sweep.Targets)
	assert.Equal(t, 3, cfg.Sweep.Repeats)
	assert.Equal(t, "sweep_results.csv", cfg.Sweep.Results)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileEmpty(t *testing.T) {
	cfg, err := LoadFromFile(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFileRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromFile(writeFile(t, "simulation:\n  gravity: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gravity")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DLA_SEED", "99")
	t.Setenv("DLA_LOG_LEVEL", "trace")
	t.Setenv("DLA_OUTPUT_DIR", "/tmp/dla")
	t.Setenv("DLA_WORKERS", "3")

	cfg, err := Load(writeFile(t, "simulation:\n  seed: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Simulation.Seed)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "/tmp/dla", cfg.Output.Dir)
	assert.Equal(t, 3, cfg.Sweep.Workers)
}

func TestEnvOverrideMalformed(t *testing.T) {
	t.Setenv("DLA_SEED", "six")
	_, err := Load("")
	assert.ErrorContains(t, err, "DLA_SEED")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no name":        func(c *Config) { c.Simulation.Name = "" },
		"tiny lattice":   func(c *Config) { c.Simulation.Extent = 30 },
		"bad level":      func(c *Config) { c.Logging.Level = "loud" },
		"bad format":     func(c *Config) { c.Logging.Format = "xml" },
		"negative runs":  func(c *Config) { c.Sweep.Repeats = -1 },
		"negative pool":  func(c *Config) { c.Sweep.Workers = -2 },
		"zero stickness": func(c *Config) { c.Simulation.StickProbability = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Simulation.Extent = 30
	assert.ErrorIs(t, cfg.Validate(), dla.ErrConfiguration)
}

func TestParamsRoundTripThroughFromMap(t *testing.T) {
	sim := Default().Simulation
	sim.StickProbability = 0.125
	sim.Seed = -3

	got, err := dla.FromMap(sim.Params())
	require.NoError(t, err)
	assert.Equal(t, sim.DLA(), got)
	assert.NotContains(t, sim.Params(), dla.KeyDrift)

	sim.Drift = 0.3
	assert.Equal(t, "0.3", sim.Params()[dla.KeyDrift])
}
