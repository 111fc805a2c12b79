package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/daniacca/crnsim/internal/crn"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one trajectory of a network",
		Long: `Simulate one trajectory of a network up to the configured horizon and
print a summary of the final state.

Examples:
  crnsim run --network examples/networks/birth_death.yaml --horizon 50
  crnsim run --network lattice.yaml --method chv --seed 7 --out traj.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}
			networkPath, _ := cmd.Flags().GetString("network")
			outPath, _ := cmd.Flags().GetString("out")
			jsonOut, _ := cmd.Flags().GetBool("json")

			logger := newLogger(cfg, cmd.ErrOrStderr())
			m, err := loadModel(networkPath, cfg.Seed)
			if err != nil {
				return err
			}
			method, _ := cfg.SimulationMethod()

			sim, closeNotifiers, err := newSimulator(cfg, logger)
			if err != nil {
				return err
			}
			tr, runErr := sim.Run(m, cfg.Horizon, method, cfg.Params())
			if err := closeNotifiers(); err != nil {
				logger.Warn("closing notifiers", "error", err)
			}
			if tr == nil {
				return runErr
			}

			if outPath != "" {
				if err := writeTrajectory(outPath, crn.NewTrajectoryRecord(m, tr)); err != nil {
					return err
				}
				logger.Info("trajectory written", "path", outPath, "samples", tr.Len())
			}

			sum := crn.Summarize(m, cfg.Horizon, method, tr, runErr)
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(sum); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), sum)
			}
			return runErr
		},
	}
	addRunFlags(cmd)
	cmd.Flags().String("out", "", "Write the full trajectory as JSON to this file")
	return cmd
}

func writeTrajectory(path string, rec crn.TrajectoryRecord) error {
	data, err := crn.EncodeTrajectoryJSON(rec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trajectory: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, sum crn.RunSummary) {
	fmt.Fprintf(w, "Run:        %s\n", sum.ID)
	fmt.Fprintf(w, "Model:      %s\n", sum.Model)
	fmt.Fprintf(w, "Method:     %s\n", sum.Method)
	fmt.Fprintf(w, "Seed:       %d\n", sum.Seed)
	fmt.Fprintf(w, "Steps:      %d\n", sum.Steps)
	fmt.Fprintf(w, "Final time: %g\n", sum.FinalTime)
	if sum.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", sum.Error)
	}

	names := make([]string, 0, len(sum.Totals))
	for name := range sum.Totals {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SPECIES\tTOTAL")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%g\n", name, sum.Totals[name])
	}
	tw.Flush()
}
