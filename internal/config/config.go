// Package config loads run files for the dla command.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mad-dla/internal/sims/dla"

	"gopkg.in/yaml.v3"
)

// Config contains every setting of a run file.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Sweep      SweepConfig      `yaml:"sweep"`
}

// SimulationConfig selects a registered simulation and its parameters.
type SimulationConfig struct {
	// Name is a registered simulation: "dla" or "dla-drift".
	Name             string  `yaml:"name"`
	Extent           int     `yaml:"extent"`
	Target           int     `yaml:"target"`
	StickProbability float64 `yaml:"stick_probability"`
	AddRatio         float64 `yaml:"add_ratio"`
	KillRatio        float64 `yaml:"kill_ratio"`
	Seed             int64   `yaml:"seed"`
	SpawnRadius      float64 `yaml:"spawn_radius"`
	KillRadius       float64 `yaml:"kill_radius"`
	// Drift of zero leaves the variant's own default in place.
	Drift float64 `yaml:"drift,omitempty"`
}

// OutputConfig names the record files of a run. Empty names disable the
// corresponding output. Relative names are resolved against Dir.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Sticks  string `yaml:"sticks"`
	Summary string `yaml:"summary"`
	Plot    string `yaml:"plot"`
	Image   string `yaml:"image"`
	// Header writes a column header at the top of a new sticks file.
	Header bool `yaml:"header"`
	// Journal appends run lifecycle events to Dir/runs.jsonl.
	Journal bool `yaml:"journal"`
}

// LoggingConfig configures operational logging.
type LoggingConfig struct {
	// Level is "error", "warn", "info" (default), "debug" or "trace".
	Level string `yaml:"level"`
	// Format is "text" (default) or "json".
	Format string `yaml:"format"`
}

// SweepConfig describes a batch grid.
type SweepConfig struct {
	Probabilities []float64 `yaml:"probabilities"`
	Targets       []int     `yaml:"targets"`
	Repeats       int       `yaml:"repeats"`
	Workers       int       `yaml:"workers"`
	MaxSteps      uint64    `yaml:"max_steps"`
	FitMinIndex   int       `yaml:"fit_min_index"`
	Results       string    `yaml:"results"`
	Summary       string    `yaml:"summary"`
}

// Default returns a Config with the standard engine parameters.
func Default() *Config {
	d := dla.DefaultConfig()
	return &Config{
		Simulation: SimulationConfig{
			Name:             "dla",
			Extent:           d.Extent,
			Target:           d.Target,
			StickProbability: d.StickProbability,
			AddRatio:         d.AddRatio,
			KillRatio:        d.KillRatio,
			Seed:             d.Seed,
			SpawnRadius:      d.SpawnRadius,
			KillRadius:       d.KillRadius,
			Drift:            d.Drift,
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Sweep: SweepConfig{
			Repeats:     1,
			FitMinIndex: 10,
			Results:     "sweep_results.csv",
			Summary:     "sweep_summary.csv",
		},
	}
}

// Load reads path on top of the defaults and applies environment
// overrides. An empty path yields the defaults plus overrides.
// Order: defaults -> path -> environment variables
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file. Unknown fields are an
// error.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Simulation.Name == "" {
		return fmt.Errorf("simulation name must be set")
	}
	if err := c.Simulation.DLA().Validate(); err != nil {
		return err
	}

	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace)", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	if c.Sweep.Repeats < 0 {
		return fmt.Errorf("sweep repeats must be non-negative, got %d", c.Sweep.Repeats)
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep workers must be non-negative, got %d", c.Sweep.Workers)
	}
	return nil
}

// DLA returns the engine config described by the simulation section.
func (s SimulationConfig) DLA() dla.Config {
	return dla.Config{
		Extent:           s.Extent,
		Target:           s.Target,
		StickProbability: s.StickProbability,
		AddRatio:         s.AddRatio,
		KillRatio:        s.KillRatio,
		Seed:             s.Seed,
		SpawnRadius:      s.SpawnRadius,
		KillRadius:       s.KillRadius,
		Drift:            s.Drift,
	}
}

// Params renders the section as the key/value map accepted by registered
// simulation factories.
func (s SimulationConfig) Params() map[string]string {
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	m := map[string]string{
		dla.KeyExtent:           strconv.Itoa(s.Extent),
		dla.KeyTarget:           strconv.Itoa(s.Target),
		dla.KeyStickProbability: ff(s.StickProbability),
		dla.KeyAddRatio:         ff(s.AddRatio),
		dla.KeyKillRatio:        ff(s.KillRatio),
		dla.KeySeed:             strconv.FormatInt(s.Seed, 10),
		dla.KeySpawnRadius:      ff(s.SpawnRadius),
		dla.KeyKillRadius:       ff(s.KillRadius),
	}
	if s.Drift != 0 {
		m[dla.KeyDrift] = ff(s.Drift)
	}
	return m
}

// Path resolves an output name against Dir. Empty names stay empty.
func (o OutputConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.Dir, name)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DLA_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("DLA_SEED: %w", err)
		}
		cfg.Simulation.Seed = seed
	}
	if v := os.Getenv("DLA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DLA_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DLA_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("DLA_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DLA_WORKERS: %w", err)
		}
		cfg.Sweep.Workers = n
	}
	return nil
}
