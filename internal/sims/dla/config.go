package dla

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrConfiguration reports construction parameters that cannot produce a
// valid run, such as a lattice too small for the initial kill sphere.
var ErrConfiguration = errors.New("dla: invalid configuration")

// Config controls an aggregation run.
type Config struct {
	// Extent is the side length G of the cubic lattice.
	Extent int
	// Target is the particle count, seed particle included, at which the run
	// finishes.
	Target int
	// StickProbability is the per-neighbour sticking chance in (0, 1].
	StickProbability float64
	// AddRatio scales the cluster radius into the desired spawn radius.
	AddRatio float64
	// KillRatio scales the spawn radius into the kill radius.
	KillRatio float64
	// Seed feeds the random source once at construction.
	Seed int64

	// SpawnRadius and KillRadius are the radii restored on every reset.
	SpawnRadius float64
	KillRadius  float64

	// Drift is the chance that a hop is pulled toward the origin along its
	// chosen axis. Zero gives the unbiased walk.
	Drift float64
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Extent:           400,
		Target:           1000,
		StickProbability: 1.0,
		AddRatio:         1.2,
		KillRatio:        1.7,
		Seed:             6,
		SpawnRadius:      10,
		KillRadius:       20,
	}
}

// Validate checks the configuration against the lattice bounds.
func (c Config) Validate() error {
	switch {
	case c.Extent <= 0:
		return fmt.Errorf("%w: extent %d must be positive", ErrConfiguration, c.Extent)
	case c.Target < 1:
		return fmt.Errorf("%w: target %d must be at least 1", ErrConfiguration, c.Target)
	case math.IsNaN(c.StickProbability) || c.StickProbability <= 0 || c.StickProbability > 1:
		return fmt.Errorf("%w: stick probability %v outside (0, 1]", ErrConfiguration, c.StickProbability)
	case !(c.AddRatio >= 1):
		return fmt.Errorf("%w: add ratio %v must be at least 1", ErrConfiguration, c.AddRatio)
	case !(c.KillRatio > 1):
		return fmt.Errorf("%w: kill ratio %v must exceed 1", ErrConfiguration, c.KillRatio)
	case !(c.SpawnRadius > 0):
		return fmt.Errorf("%w: spawn radius %v must be positive", ErrConfiguration, c.SpawnRadius)
	case !(c.KillRadius > c.SpawnRadius):
		return fmt.Errorf("%w: kill radius %v must exceed spawn radius %v", ErrConfiguration, c.KillRadius, c.SpawnRadius)
	case math.IsNaN(c.Drift) || c.Drift < 0 || c.Drift > 1:
		return fmt.Errorf("%w: drift %v outside [0, 1]", ErrConfiguration, c.Drift)
	}
	if stopReached(c.KillRadius, c.Extent) {
		return fmt.Errorf("%w: extent %d too small for kill radius %v (need kill+2 < %d)",
			ErrConfiguration, c.Extent, c.KillRadius, c.Extent/2)
	}
	return nil
}

// Keys accepted by FromMap and Apply.
const (
	KeyExtent           = "extent"
	KeyTarget           = "target"
	KeyStickProbability = "stick_probability"
	KeyAddRatio         = "add_ratio"
	KeyKillRatio        = "kill_ratio"
	KeySeed             = "seed"
	KeySpawnRadius      = "spawn_radius"
	KeyKillRadius       = "kill_radius"
	KeyDrift            = "drift"
)

// FromMap populates the config from a string map (flag-style key/value
// pairs) on top of the defaults.
func FromMap(cfg map[string]string) (Config, error) {
	c := DefaultConfig()
	if err := c.Apply(cfg); err != nil {
		return c, err
	}
	return c, nil
}

// Apply overrides fields from key/value pairs. Unknown keys and malformed
// values are reported together; well-formed pairs are still applied.
func (c *Config) Apply(kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := c.set(k, strings.TrimSpace(kv[k])); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case KeyExtent:
		c.Extent, err = strconv.Atoi(value)
	case KeyTarget:
		c.Target, err = strconv.Atoi(value)
	case KeyStickProbability:
		c.StickProbability, err = strconv.ParseFloat(value, 64)
	case KeyAddRatio:
		c.AddRatio, err = strconv.ParseFloat(value, 64)
	case KeyKillRatio:
		c.KillRatio, err = strconv.ParseFloat(value, 64)
	case KeySeed:
		c.Seed, err = strconv.ParseInt(value, 10, 64)
	case KeySpawnRadius:
		c.SpawnRadius, err = strconv.ParseFloat(value, 64)
	case KeyKillRadius:
		c.KillRadius, err = strconv.ParseFloat(value, 64)
	case KeyDrift:
		c.Drift, err = strconv.ParseFloat(value, 64)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, value, err)
	}
	return nil
}
