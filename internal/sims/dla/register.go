package dla

import (
	"fmt"
	"sort"

	"mad-dla/internal/core"
)

// DefaultDrift is the drift applied by the "dla-drift" variant unless the
// configuration map overrides it.
const DefaultDrift = 0.1

// variants maps a simulation name to its base configuration. Parameters
// are applied on top.
var variants = map[string]func() Config{
	"dla": DefaultConfig,
	"dla-drift": func() Config {
		c := DefaultConfig()
		c.Drift = DefaultDrift
		return c
	},
}

// Variants returns the names of the built-in simulations in sorted order.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigFor resolves the named variant's configuration with params applied.
func ConfigFor(name string, params map[string]string) (Config, error) {
	base, ok := variants[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown simulation %q", ErrConfiguration, name)
	}
	c := base()
	if err := c.Apply(params); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Build constructs the named variant from key/value parameters.
func Build(name string, params map[string]string, opts ...Option) (*Engine, error) {
	c, err := ConfigFor(name, params)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(c, append([]Option{WithName(name)}, opts...)...)
}

func init() {
	for _, name := range Variants() {
		core.Register(name, func(cfg map[string]string) (core.Sim, error) {
			e, err := Build(name, cfg)
			if err != nil {
				return nil, err
			}
			return e, nil
		})
	}
}
