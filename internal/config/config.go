// Package config provides unified configuration loading for beliefsim.
// It supports loading from YAML files, a .env file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/nvandessel/beliefsim/internal/constants"
	"github.com/nvandessel/beliefsim/internal/logging"
	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/propagation"
	"github.com/nvandessel/beliefsim/internal/simerr"
	"github.com/nvandessel/beliefsim/internal/simulation"
	"gopkg.in/yaml.v3"
)

// EnvFileVar names the variable holding the .env path. Default: ".env".
const EnvFileVar = "BELIEFSIM_ENV"

// SimConfig contains all beliefsim configuration settings.
type SimConfig struct {
	// Simulation contains the experiment parameters.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Population contains the initialization distributions.
	Population PopulationConfig `json:"population" yaml:"population"`

	// Dynamics contains the update rule constants.
	Dynamics DynamicsConfig `json:"dynamics" yaml:"dynamics"`

	// Output contains settings for rendered artifacts.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and step logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig holds the recognized experiment options.
type SimulationConfig struct {
	Agents               int       `json:"n_agents" yaml:"n_agents"`
	Timesteps            int       `json:"timesteps" yaml:"timesteps"`
	MisinformationRate   float64   `json:"misinformation_rate" yaml:"misinformation_rate"`
	KNeighbors           int       `json:"k_neighbors" yaml:"k_neighbors"`
	RewireProb           float64   `json:"rewire_prob" yaml:"rewire_prob"`
	InterventionStep     *int      `json:"intervention_step,omitempty" yaml:"intervention_step,omitempty"`
	PostInterventionRate *float64  `json:"post_intervention_rate,omitempty" yaml:"post_intervention_rate,omitempty"`
	TrustLevels          []float64 `json:"trust_levels,omitempty" yaml:"trust_levels,omitempty"`
	RandomSeed           *uint64   `json:"random_seed,omitempty" yaml:"random_seed,omitempty"`

	// Workers bounds trust sweep parallelism. 0 or 1 runs sequentially.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// PopulationConfig holds the initialization distributions.
type PopulationConfig struct {
	BeliefMin   float64 `json:"belief_min" yaml:"belief_min"`
	BeliefMax   float64 `json:"belief_max" yaml:"belief_max"`
	TrustMeanA  float64 `json:"trust_mean_a" yaml:"trust_mean_a"`
	TrustMeanB  float64 `json:"trust_mean_b" yaml:"trust_mean_b"`
	TrustStdDev float64 `json:"trust_std_dev" yaml:"trust_std_dev"`
	TrustMin    float64 `json:"trust_min" yaml:"trust_min"`
	TrustMax    float64 `json:"trust_max" yaml:"trust_max"`
}

// DynamicsConfig holds the update rule constants.
type DynamicsConfig struct {
	BeliefThreshold      float64 `json:"belief_threshold" yaml:"belief_threshold"`
	CorrectionSignal     float64 `json:"correction_signal" yaml:"correction_signal"`
	MisinformationSignal float64 `json:"misinformation_signal" yaml:"misinformation_signal"`
	NoiseStdDev          float64 `json:"noise_std_dev" yaml:"noise_std_dev"`
}

// OutputConfig configures where artifacts are written.
type OutputConfig struct {
	// Dir is the directory reports, exports and steps.jsonl are written to.
	Dir string `json:"dir" yaml:"dir"`
}

// LoggingConfig configures beliefsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables step logging to <output.dir>/steps.jsonl.
	// "trace" additionally logs every agent update.
	Level string `json:"level" yaml:"level"`
}

// Default returns a SimConfig with the reference experiment.
func Default() *SimConfig {
	return &SimConfig{
		Simulation: SimulationConfig{
			Agents:             constants.DefaultAgents,
			Timesteps:          constants.DefaultTimesteps,
			MisinformationRate: constants.DefaultMisinformationRate,
			KNeighbors:         constants.DefaultKNeighbors,
			RewireProb:         constants.DefaultRewireProb,
		},
		Population: PopulationConfig{
			BeliefMin:   constants.InitialBeliefMin,
			BeliefMax:   constants.InitialBeliefMax,
			TrustMeanA:  constants.TrustMeanA,
			TrustMeanB:  constants.TrustMeanB,
			TrustStdDev: constants.TrustStdDev,
			TrustMin:    constants.TrustClipMin,
			TrustMax:    constants.TrustClipMax,
		},
		Dynamics: DynamicsConfig{
			BeliefThreshold:      constants.BeliefThreshold,
			CorrectionSignal:     constants.CorrectionSignal,
			MisinformationSignal: constants.MisinformationSignal,
			NoiseStdDev:          constants.NoiseStdDev,
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.beliefsim/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".beliefsim", "config.yaml"), nil
}

// Load loads configuration from path and the environment.
// Order: defaults -> path (or ~/.beliefsim/config.yaml if path is empty and
// the file exists) -> .env file -> BELIEFSIM_* environment variables.
// An explicit path that does not exist is an error.
func Load(path string) (*SimConfig, error) {
	config := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	envFile := os.Getenv(EnvFileVar)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys absent
// from the file keep their defaults.
func LoadFromFile(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Save writes the configuration to path as YAML, creating parent directories.
func (c *SimConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Options converts the configuration into simulation options.
func (c *SimConfig) Options() simulation.Options {
	s := c.Simulation
	opts := simulation.Options{
		Agents:               s.Agents,
		Timesteps:            s.Timesteps,
		MisinformationRate:   s.MisinformationRate,
		KNeighbors:           s.KNeighbors,
		RewireProb:           s.RewireProb,
		InterventionStep:     s.InterventionStep,
		PostInterventionRate: s.PostInterventionRate,
		TrustLevels:          s.TrustLevels,
		Seed:                 s.RandomSeed,
		Workers:              s.Workers,
		Population: population.Config{
			Agents:    s.Agents,
			BeliefMin: c.Population.BeliefMin,
			BeliefMax: c.Population.BeliefMax,
			Trust: map[population.Demographic]population.TrustDistribution{
				population.DemographicA: {Mean: c.Population.TrustMeanA, StdDev: c.Population.TrustStdDev},
				population.DemographicB: {Mean: c.Population.TrustMeanB, StdDev: c.Population.TrustStdDev},
			},
			TrustMin: c.Population.TrustMin,
			TrustMax: c.Population.TrustMax,
		},
		Dynamics: &propagation.Config{
			BeliefThreshold:      c.Dynamics.BeliefThreshold,
			CorrectionSignal:     c.Dynamics.CorrectionSignal,
			MisinformationSignal: c.Dynamics.MisinformationSignal,
			NoiseStdDev:          c.Dynamics.NoiseStdDev,
		},
	}
	return opts
}

// Validate checks that the configuration is valid. Domain errors match
// simerr.ErrInvalidParameter or simerr.ErrInvalidTopology.
func (c *SimConfig) Validate() error {
	if err := c.Options().Validate(); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return simerr.InvalidParameter("logging.level", c.Logging.Level, "valid: info, debug, trace, or empty for default")
	}
	return nil
}
