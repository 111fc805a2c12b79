package main

import (
	"encoding/json"
	"fmt"

	"github.com/daniacca/crnsim/internal/crn"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a network definition and run configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			networkPath, _ := cmd.Flags().GetString("network")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if _, err := loadRunConfig(cmd); err != nil {
				return err
			}
			netCfg, err := crn.LoadNetworkFile(networkPath)
			if err != nil {
				return err
			}
			m, err := crn.BuildModelFromConfig(netCfg)
			if err != nil {
				return fmt.Errorf("invalid network %s: %w", networkPath, err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"valid":        true,
					"name":         m.Name,
					"species":      len(m.Species()),
					"compartments": m.Compartments(),
					"events":       len(m.Events()),
					"fast_events":  len(m.FastEvents()),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: network %q is valid (%d species, %d compartments, %d events, %d fast)\n",
				networkPath, m.Name, len(m.Species()), m.Compartments(), len(m.Events()), len(m.FastEvents()))
			return nil
		},
	}
	cmd.Flags().String("network", "", "Network definition file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("network")
	return cmd
}
