package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"mad-dla/internal/core"

	"github.com/spf13/cobra"
)

func newParamsCmd() *cobra.Command {
	var (
		sim       string
		overrides []string
	)
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the resolved parameters of a simulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if sim == "" {
				sim = s.cfg.Simulation.Name
			}
			factory, ok := core.Sims()[sim]
			if !ok {
				return fmt.Errorf("unknown sim %q (available: %v)", sim, core.SimNames())
			}
			params, err := simulationParams(s.cfg, overrides)
			if err != nil {
				return err
			}
			instance, err := factory(params)
			if err != nil {
				return err
			}
			provider, ok := instance.(core.ParameterProvider)
			if !ok {
				return fmt.Errorf("sim %q exposes no parameters", sim)
			}
			snap := provider.Parameters()

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, g := range snap.Groups {
				fmt.Fprintf(tw, "[%s]\n", g.Name)
				for _, p := range g.Params {
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Key, p.Value, p.Label)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&sim, "sim", "", "simulation to describe")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "parameter override in key=value form (repeatable)")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered simulations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := core.SimNames()
			if jsonOutput(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(names)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				json.NewEncoder(out).Encode(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
				return
			}
			fmt.Fprintf(out, "dla version %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
