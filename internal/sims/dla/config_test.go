package dla

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 400, cfg.Extent)
	assert.Equal(t, 10.0, cfg.SpawnRadius)
	assert.Equal(t, 20.0, cfg.KillRadius)
	assert.Equal(t, 1.2, cfg.AddRatio)
	assert.Equal(t, 1.7, cfg.KillRatio)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"zero extent":           func(c *Config) { c.Extent = 0 },
		"extent below margin":   func(c *Config) { c.Extent = 44 },
		"zero target":           func(c *Config) { c.Target = 0 },
		"zero probability":      func(c *Config) { c.StickProbability = 0 },
		"probability above one": func(c *Config) { c.StickProbability = 1.01 },
		"NaN probability":       func(c *Config) { c.StickProbability = math.NaN() },
		"add ratio below one":   func(c *Config) { c.AddRatio = 0.9 },
		"kill ratio of one":     func(c *Config) { c.KillRatio = 1 },
		"kill inside spawn":     func(c *Config) { c.KillRadius = 8 },
		"negative drift":        func(c *Config) { c.Drift = -0.1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
		})
	}
}

func TestFromMapAppliesOverrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		KeyExtent:           "120",
		KeyTarget:           "300",
		KeyStickProbability: "0.25",
		KeySeed:             "-9",
		KeyDrift:            " 0.1 ",
	})
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Extent)
	assert.Equal(t, 300, cfg.Target)
	assert.Equal(t, 0.25, cfg.StickProbability)
	assert.Equal(t, int64(-9), cfg.Seed)
	assert.Equal(t, 0.1, cfg.Drift)
	assert.Equal(t, 1.2, cfg.AddRatio, "untouched keys keep defaults")
}

func TestFromMapReportsBadPairs(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		KeyTarget: "lots",
		"colour":  "blue",
		KeyExtent: "90",
	})
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), `unknown key "colour"`)
	assert.Contains(t, err.Error(), "target")
	assert.Equal(t, 90, cfg.Extent, "well-formed pairs still apply")
}

func TestFromMapNil(t *testing.T) {
	cfg, err := FromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
