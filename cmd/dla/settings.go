package main

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"mad-dla/internal/config"
	"mad-dla/internal/logging"

	"github.com/spf13/cobra"
)

// settings is the resolved configuration of one command invocation.
type settings struct {
	cfg *config.Config
	log *slog.Logger
}

// loadSettings resolves defaults, the --config file, environment overrides
// and the global logging flags, in that order.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &settings{
		cfg: cfg,
		log: logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr()),
	}, nil
}

// parseOverrides splits repeated key=value flags into a map. Later pairs win.
func parseOverrides(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("override %q is not in key=value form", kv)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// simulationParams merges overrides over the run file's simulation section.
func simulationParams(cfg *config.Config, pairs []string) (map[string]string, error) {
	over, err := parseOverrides(pairs)
	if err != nil {
		return nil, err
	}
	params := cfg.Simulation.Params()
	maps.Copy(params, over)
	return params, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
