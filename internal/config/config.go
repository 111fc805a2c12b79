// Package config loads run configuration for crnsim from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/daniacca/crnsim/internal/crn"
	"github.com/daniacca/crnsim/internal/crn/ode"
	"gopkg.in/yaml.v3"
)

// RunConfig contains every setting of a crnsim run.
type RunConfig struct {
	// Method names the simulation driver, e.g. "gillespie" or "chv".
	Method string `json:"method" yaml:"method"`

	// Horizon is the simulated end time T.
	Horizon float64 `json:"horizon" yaml:"horizon"`

	// Capacity bounds the number of recorded samples per trajectory.
	Capacity int `json:"capacity" yaml:"capacity"`

	// Seed seeds the random stream. 0 seeds from the clock.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Integrator IntegratorConfig   `json:"integrator" yaml:"integrator"`
	CHV        CHVConfig          `json:"chv" yaml:"chv"`
	Strang     StrangConfig       `json:"strang" yaml:"strang"`
	Hybrid     HybridConfig       `json:"hybrid" yaml:"hybrid"`
	Ensemble   EnsembleConfig     `json:"ensemble" yaml:"ensemble"`
	Logging    LoggingConfig      `json:"logging" yaml:"logging"`
	Server     ServerConfig       `json:"server" yaml:"server"`
	Notify     NotificationConfig `json:"notifications" yaml:"notifications"`
}

// IntegratorConfig selects the ODE method used by the hybrid drivers.
type IntegratorConfig struct {
	// Method is one of ode.Methods(): "dopri5", "rk45" or "bs32".
	Method string `json:"method" yaml:"method"`
	// Tolerance is applied as both absolute and relative error bound.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
}

type CHVConfig struct {
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate"`
}

type StrangConfig struct {
	MacroStep float64 `json:"macro_step" yaml:"macro_step"`
}

type HybridConfig struct {
	Window float64 `json:"window" yaml:"window"`
}

type EnsembleConfig struct {
	Trajectories int `json:"trajectories" yaml:"trajectories"`
	// Workers bounds concurrent trajectories; 0 uses every CPU.
	Workers int `json:"workers" yaml:"workers"`
}

// LoggingConfig configures crnsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "error", "warn", "info" (default),
	// "debug" or "trace".
	Level string `json:"level" yaml:"level"`
	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// NotificationConfig lists the sinks that receive recorded samples.
type NotificationConfig struct {
	// WebhookURL, if set, receives every sample as a JSON POST.
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
}

// Default returns a RunConfig with sensible defaults.
func Default() *RunConfig {
	p := crn.DefaultParams()
	return &RunConfig{
		Method:   string(crn.MethodGillespie),
		Horizon:  10,
		Capacity: crn.DefaultCapacity,
		Integrator: IntegratorConfig{
			Method:    p.Integrator,
			Tolerance: p.Tolerance,
		},
		CHV:    CHVConfig{SamplingRate: p.SamplingRate},
		Strang: StrangConfig{MacroStep: p.MacroStep},
		Hybrid: HybridConfig{Window: p.Window},
		Ensemble: EnsembleConfig{
			Trajectories: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load returns the defaults, overlaid with path when it is non-empty, then
// with environment variables.
func Load(path string) (*RunConfig, error) {
	config := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Unset keys
// keep their defaults.
func LoadFromFile(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	config.Notify.WebhookURL = expandEnvVars(config.Notify.WebhookURL)
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *RunConfig) Validate() error {
	if _, err := crn.ParseMethod(c.Method); err != nil {
		return fmt.Errorf("invalid method: %s (valid: %s)", c.Method, methodList())
	}
	if !(c.Horizon > 0) {
		return fmt.Errorf("horizon must be positive, got %g", c.Horizon)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be non-negative, got %d", c.Capacity)
	}
	if _, err := ode.Lookup(c.Integrator.Method); err != nil {
		return fmt.Errorf("invalid integrator: %w", err)
	}
	if !(c.Integrator.Tolerance > 0) {
		return fmt.Errorf("integrator tolerance must be positive, got %g", c.Integrator.Tolerance)
	}
	if !(c.CHV.SamplingRate > 0) {
		return fmt.Errorf("chv sampling_rate must be positive, got %g", c.CHV.SamplingRate)
	}
	if !(c.Strang.MacroStep > 0) {
		return fmt.Errorf("strang macro_step must be positive, got %g", c.Strang.MacroStep)
	}
	if !(c.Hybrid.Window > 0) {
		return fmt.Errorf("hybrid window must be positive, got %g", c.Hybrid.Window)
	}
	if c.Ensemble.Trajectories < 0 || c.Ensemble.Workers < 0 {
		return fmt.Errorf("ensemble trajectories and workers must be non-negative")
	}

	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}
	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}
	return nil
}

// SimulationMethod returns the parsed driver name.
func (c *RunConfig) SimulationMethod() (crn.Method, error) {
	return crn.ParseMethod(c.Method)
}

// Params converts the numeric settings to driver parameters.
func (c *RunConfig) Params() crn.Params {
	return crn.Params{
		Integrator:   c.Integrator.Method,
		Tolerance:    c.Integrator.Tolerance,
		SamplingRate: c.CHV.SamplingRate,
		MacroStep:    c.Strang.MacroStep,
		Window:       c.Hybrid.Window,
	}
}

func methodList() string {
	names := make([]string, 0, len(crn.Methods()))
	for _, m := range crn.Methods() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *RunConfig) {
	if v := os.Getenv("CRNSIM_METHOD"); v != "" {
		config.Method = v
	}
	if v := os.Getenv("CRNSIM_HORIZON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Horizon = f
		}
	}
	if v := os.Getenv("CRNSIM_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Seed = n
		}
	}
	if v := os.Getenv("CRNSIM_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Capacity = n
		}
	}
	if v := os.Getenv("CRNSIM_INTEGRATOR"); v != "" {
		config.Integrator.Method = v
	}
	if v := os.Getenv("CRNSIM_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Integrator.Tolerance = f
		}
	}
	if v := os.Getenv("CRNSIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Ensemble.Workers = n
		}
	}
	if v := os.Getenv("CRNSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("CRNSIM_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
	if v := os.Getenv("CRNSIM_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv("CRNSIM_WEBHOOK_URL"); v != "" {
		config.Notify.WebhookURL = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
