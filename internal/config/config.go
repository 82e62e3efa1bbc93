package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration, loaded once at startup from a
// YAML file and never mutated afterward.
type Config struct {
	ListenPort int `yaml:"listen_port"`

	LLDPPeriodSeconds  float64 `yaml:"lldp_period_seconds"`
	StatsPeriodSeconds float64 `yaml:"stats_period_seconds"`
	EdgeExpirySeconds  float64 `yaml:"edge_expiry_seconds"`

	MonitorPeriodSeconds float64 `yaml:"monitor_period_seconds"`

	ForecastWindow   int     `yaml:"forecast_window"`
	ForecastAlphaMin float64 `yaml:"forecast_alpha_min"`
	ForecastAlphaMax float64 `yaml:"forecast_alpha_max"`
	ForecastGamma    float64 `yaml:"forecast_gamma"`
	ForecastThreshold float64 `yaml:"forecast_threshold_mbps"`

	PlannerPeriodSeconds  float64 `yaml:"planner_period_seconds"`
	PlannerPathsPerPair   int     `yaml:"planner_paths_per_pair"`
	PlannerMaxHops        int     `yaml:"planner_max_hops"`
	PlannerSolverBudgetMS int     `yaml:"planner_solver_budget_ms"`
	PlannerPinFlowRoutes  bool    `yaml:"planner_pin_flow_routes"`

	GraphFile string `yaml:"graph_file"`
	FlowFile  string `yaml:"flow_file"`

	HTTPListenAddr string `yaml:"http_listen_addr"`
}

// Default returns the tuning defaults a bare controller runs with when no
// config file overrides them. GraphFile and FlowFile have no default and
// must be set by the config file for the controller to start.
func Default() Config {
	return Config{
		ListenPort: 6633,

		LLDPPeriodSeconds:  2,
		StatsPeriodSeconds: 3,
		EdgeExpirySeconds:  10,

		MonitorPeriodSeconds: 2,

		ForecastWindow:    6,
		ForecastAlphaMin:  0.3,
		ForecastAlphaMax:  0.9,
		ForecastGamma:     1.25,
		ForecastThreshold: 100,

		PlannerPeriodSeconds:  5,
		PlannerPathsPerPair:   3,
		PlannerMaxHops:        10,
		PlannerSolverBudgetMS: 2000,
		PlannerPinFlowRoutes:  false,

		HTTPListenAddr: ":8080",
	}
}

// Load reads and strictly decodes a YAML file on top of Default(): an
// unrecognized key in the file is an error rather than a silently ignored
// typo.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) LLDPPeriod() time.Duration {
	return time.Duration(c.LLDPPeriodSeconds * float64(time.Second))
}

func (c Config) StatsPeriod() time.Duration {
	return time.Duration(c.StatsPeriodSeconds * float64(time.Second))
}

func (c Config) EdgeExpiry() time.Duration {
	return time.Duration(c.EdgeExpirySeconds * float64(time.Second))
}

func (c Config) MonitorPeriod() time.Duration {
	return time.Duration(c.MonitorPeriodSeconds * float64(time.Second))
}

func (c Config) PlannerPeriod() time.Duration {
	return time.Duration(c.PlannerPeriodSeconds * float64(time.Second))
}

func (c Config) SolverBudget() time.Duration {
	return time.Duration(c.PlannerSolverBudgetMS) * time.Millisecond
}
