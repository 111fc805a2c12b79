package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/daniacca/crnsim/internal/config"
	"github.com/daniacca/crnsim/internal/crn"
	"github.com/daniacca/crnsim/internal/crn/notifiers"
	"github.com/daniacca/crnsim/internal/logging"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crnsim",
		Short: "Stochastic simulation of compartmentalised reaction networks",
		Long: `crnsim simulates chemical reaction networks on a 1-D lattice of
compartments with exact jump methods (next reaction, Gillespie) and
hybrid jump/ODE methods (CHV, Strang splitting, threshold-adaptive).`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Run configuration file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newEnsembleCmd(),
		newValidateCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "crnsim version %s\n", version)
			}
		},
	}
}

// addRunFlags registers the flags that override the run configuration.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("network", "", "Network definition file (YAML or JSON)")
	cmd.Flags().String("method", "", "Simulation method (next_reaction, gillespie, chv, strang_split, gillespie_hybrid, tau_leaping)")
	cmd.Flags().Float64("horizon", 0, "Simulated end time")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 seeds from the clock)")
	_ = cmd.MarkFlagRequired("network")
}

// loadRunConfig merges defaults, the --config file, environment variables
// and explicitly set flags, in that order, and validates the result.
func loadRunConfig(cmd *cobra.Command) (*config.RunConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method, _ = flags.GetString("method")
	}
	if flags.Changed("horizon") {
		cfg.Horizon, _ = flags.GetFloat64("horizon")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Lookup("trajectories") != nil && flags.Changed("trajectories") {
		cfg.Ensemble.Trajectories, _ = flags.GetInt("trajectories")
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Ensemble.Workers, _ = flags.GetInt("workers")
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.RunConfig, w io.Writer) *slog.Logger {
	if cfg.Logging.Format == "json" {
		return logging.NewJSONLogger(cfg.Logging.Level, w)
	}
	return logging.NewLogger(cfg.Logging.Level, w)
}

// loadModel reads, validates and builds the network at path.
func loadModel(path string, seed uint64) (*crn.Model, error) {
	netCfg, err := crn.LoadNetworkFile(path)
	if err != nil {
		return nil, err
	}
	m, err := crn.BuildModelFromConfig(netCfg)
	if err != nil {
		return nil, fmt.Errorf("invalid network %s: %w", path, err)
	}
	if seed != 0 {
		m.WithSeed(seed)
	}
	return m, nil
}

// newSimulator configures a simulator from cfg. The returned close function
// flushes any configured notifiers.
func newSimulator(cfg *config.RunConfig, logger *slog.Logger) (*crn.Simulator, func() error, error) {
	sim := crn.NewSimulator()
	sim.SetCapacity(cfg.Capacity)
	adapter := logging.NewAdapter(logger)
	sim.SetLogger(adapter)

	if cfg.Notify.WebhookURL == "" {
		return sim, func() error { return nil }, nil
	}
	mgr := crn.NewNotificationManager()
	mgr.SetLogger(adapter)
	if err := mgr.RegisterNotifier(notifiers.NewWebhookNotifier("webhook", cfg.Notify.WebhookURL)); err != nil {
		mgr.Close()
		return nil, nil, err
	}
	sim.SetNotificationManager(mgr, "webhook")
	return sim, mgr.Close, nil
}
