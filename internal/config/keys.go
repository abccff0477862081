package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// field binds a dot-notation key to its environment variable and accessors.
type field struct {
	key string
	env string
	get func(*SimConfig) any
	set func(*SimConfig, string) error
}

var fields = []field{
	{"simulation.n_agents", "BELIEFSIM_N_AGENTS",
		func(c *SimConfig) any { return c.Simulation.Agents },
		intSetter(func(c *SimConfig) *int { return &c.Simulation.Agents })},
	{"simulation.timesteps", "BELIEFSIM_TIMESTEPS",
		func(c *SimConfig) any { return c.Simulation.Timesteps },
		intSetter(func(c *SimConfig) *int { return &c.Simulation.Timesteps })},
	{"simulation.misinformation_rate", "BELIEFSIM_MISINFORMATION_RATE",
		func(c *SimConfig) any { return c.Simulation.MisinformationRate },
		floatSetter(func(c *SimConfig) *float64 { return &c.Simulation.MisinformationRate })},
	{"simulation.k_neighbors", "BELIEFSIM_K_NEIGHBORS",
		func(c *SimConfig) any { return c.Simulation.KNeighbors },
		intSetter(func(c *SimConfig) *int { return &c.Simulation.KNeighbors })},
	{"simulation.rewire_prob", "BELIEFSIM_REWIRE_PROB",
		func(c *SimConfig) any { return c.Simulation.RewireProb },
		floatSetter(func(c *SimConfig) *float64 { return &c.Simulation.RewireProb })},
	{"simulation.intervention_step", "BELIEFSIM_INTERVENTION_STEP",
		func(c *SimConfig) any { return deref(c.Simulation.InterventionStep) },
		func(c *SimConfig, v string) error {
			if isUnset(v) {
				c.Simulation.InterventionStep = nil
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer: %s", v)
			}
			c.Simulation.InterventionStep = &n
			return nil
		}},
	{"simulation.post_intervention_rate", "BELIEFSIM_POST_INTERVENTION_RATE",
		func(c *SimConfig) any { return deref(c.Simulation.PostInterventionRate) },
		func(c *SimConfig, v string) error {
			if isUnset(v) {
				c.Simulation.PostInterventionRate = nil
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid number: %s", v)
			}
			c.Simulation.PostInterventionRate = &f
			return nil
		}},
	{"simulation.trust_levels", "BELIEFSIM_TRUST_LEVELS",
		func(c *SimConfig) any { return c.Simulation.TrustLevels },
		func(c *SimConfig, v string) error {
			levels, err := ParseFloatList(v)
			if err != nil {
				return err
			}
			c.Simulation.TrustLevels = levels
			return nil
		}},
	{"simulation.random_seed", "BELIEFSIM_RANDOM_SEED",
		func(c *SimConfig) any { return deref(c.Simulation.RandomSeed) },
		func(c *SimConfig, v string) error {
			if isUnset(v) {
				c.Simulation.RandomSeed = nil
				return nil
			}
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed: %s (must be a non-negative integer)", v)
			}
			c.Simulation.RandomSeed = &n
			return nil
		}},
	{"simulation.workers", "BELIEFSIM_WORKERS",
		func(c *SimConfig) any { return c.Simulation.Workers },
		intSetter(func(c *SimConfig) *int { return &c.Simulation.Workers })},
	{"population.belief_min", "BELIEFSIM_BELIEF_MIN",
		func(c *SimConfig) any { return c.Population.BeliefMin },
		floatSetter(func(c *SimConfig) *float64 { return &c.Population.BeliefMin })},
	{"population.belief_max", "BELIEFSIM_BELIEF_MAX",
		func(c *SimConfig) any { return c.Population.BeliefMax },
		floatSetter(func(c *SimConfig) *float64 { return &c.Population.BeliefMax })},
	{"population.trust_mean_a", "BELIEFSIM_TRUST_MEAN_A",
		func(c *SimConfig) any { return c.Population.TrustMeanA },
		floatSetter(func(c *SimConfig) *float64 { return &c.Population.TrustMeanA })},
	{"population.trust_mean_b", "BELIEFSIM_TRUST_MEAN_B",
		func(c *SimConfig) any { return c.Population.TrustMeanB },
		floatSetter(func(c *SimConfig) *float64 { return &c.Population.TrustMeanB })},
	{"population.trust_std_dev", "BELIEFSIM_TRUST_STD_DEV",
		func(c *SimConfig) any { return c.Population.TrustStdDev },
		floatSetter(func(c *SimConfig) *float64 { return &c.Population.TrustStdDev })},
	{"population.trust_min", "BELIEFSIM_TRUST_MIN",
		func(c *SimConfig) any { return c.Population.TrustMin },
		floatSetter(func(c *SimConfig) *float64 { return &c.Population.TrustMin })},
	{"population.trust_max", "BELIEFSIM_TRUST_MAX",
		func(c *SimConfig) any { return c.Population.TrustMax },
		floatSetter(func(c *SimConfig) *float64 { return &c.Population.TrustMax })},
	{"dynamics.belief_threshold", "BELIEFSIM_BELIEF_THRESHOLD",
		func(c *SimConfig) any { return c.Dynamics.BeliefThreshold },
		floatSetter(func(c *SimConfig) *float64 { return &c.Dynamics.BeliefThreshold })},
	{"dynamics.correction_signal", "BELIEFSIM_CORRECTION_SIGNAL",
		func(c *SimConfig) any { return c.Dynamics.CorrectionSignal },
		floatSetter(func(c *SimConfig) *float64 { return &c.Dynamics.CorrectionSignal })},
	{"dynamics.misinformation_signal", "BELIEFSIM_MISINFORMATION_SIGNAL",
		func(c *SimConfig) any { return c.Dynamics.MisinformationSignal },
		floatSetter(func(c *SimConfig) *float64 { return &c.Dynamics.MisinformationSignal })},
	{"dynamics.noise_std_dev", "BELIEFSIM_NOISE_STD_DEV",
		func(c *SimConfig) any { return c.Dynamics.NoiseStdDev },
		floatSetter(func(c *SimConfig) *float64 { return &c.Dynamics.NoiseStdDev })},
	{"output.dir", "BELIEFSIM_OUTPUT_DIR",
		func(c *SimConfig) any { return c.Output.Dir },
		func(c *SimConfig, v string) error { c.Output.Dir = v; return nil }},
	{"logging.level", "BELIEFSIM_LOG_LEVEL",
		func(c *SimConfig) any { return c.Logging.Level },
		func(c *SimConfig, v string) error { c.Logging.Level = strings.ToLower(v); return nil }},
}

// Keys returns every dot-notation configuration key in display order.
func Keys() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.key
	}
	return out
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) (string, bool) {
	f, ok := lookup(key)
	if !ok {
		return "", false
	}
	return f.env, true
}

// Get retrieves a configuration value by dot-notation key. Unset optional
// values are returned as nil.
func (c *SimConfig) Get(key string) (any, bool) {
	f, ok := lookup(key)
	if !ok {
		return nil, false
	}
	return f.get(c), true
}

// Set parses value and assigns it to key. Optional keys accept "none" to
// unset them. Set checks syntax only; call Validate for ranges.
func (c *SimConfig) Set(key, value string) error {
	f, ok := lookup(key)
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := f.set(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// ParseFloatList parses a comma-separated list of numbers.
func ParseFloatList(s string) ([]float64, error) {
	if isUnset(s) {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number in list: %q", p)
		}
		out = append(out, f)
	}
	return out, nil
}

// applyEnvOverrides applies BELIEFSIM_* environment variables. A variable
// that does not parse is an error.
func applyEnvOverrides(config *SimConfig) error {
	for _, f := range fields {
		v, ok := os.LookupEnv(f.env)
		if !ok || v == "" {
			continue
		}
		if err := f.set(config, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s: %w", f.env, err)
		}
	}
	return nil
}

func lookup(key string) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

func intSetter(target func(*SimConfig) *int) func(*SimConfig, string) error {
	return func(c *SimConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer: %s", v)
		}
		*target(c) = n
		return nil
	}
}

func floatSetter(target func(*SimConfig) *float64) func(*SimConfig, string) error {
	return func(c *SimConfig, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", v)
		}
		*target(c) = f
		return nil
	}
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func isUnset(v string) bool {
	return v == "" || strings.EqualFold(v, "none")
}
