package simulation

import (
	"fmt"

	"github.com/nvandessel/beliefsim/internal/constants"
	"github.com/nvandessel/beliefsim/internal/network"
	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/propagation"
	"github.com/nvandessel/beliefsim/internal/simerr"
)

// Options configures a single run or a trust sweep.
type Options struct {
	Agents             int     `json:"n_agents"`
	Timesteps          int     `json:"timesteps"`
	MisinformationRate float64 `json:"misinformation_rate"`
	KNeighbors         int     `json:"k_neighbors"`
	RewireProb         float64 `json:"rewire_prob"`

	// InterventionStep, when set, is the first step that runs at
	// PostInterventionRate instead of MisinformationRate.
	InterventionStep *int `json:"intervention_step,omitempty"`

	// PostInterventionRate is the correction-boost rate. Unset with an
	// intervention step means the reference rate of 0.1.
	PostInterventionRate *float64 `json:"post_intervention_rate,omitempty"`

	// TrustLevels is the ordered set of trust values a sweep visits. Empty
	// means nine evenly spaced levels in [0.1, 0.9]. A point's random stream
	// is derived from its trust value, so levels must be distinct. Ignored
	// by Run.
	TrustLevels []float64 `json:"trust_levels,omitempty"`

	// Seed makes a run reproducible. Nil draws a fresh seed, which is
	// reported on the result.
	Seed *uint64 `json:"random_seed,omitempty"`

	// Workers bounds sweep parallelism. 0 or 1 runs sequentially.
	Workers int `json:"workers,omitempty"`

	// Population overrides the initialization distributions. Its Agents
	// field is ignored in favor of Options.Agents. A zero value means the
	// reference distributions.
	Population population.Config `json:"-"`

	// Dynamics overrides the update rule constants. Nil means the reference
	// dynamics.
	Dynamics *propagation.Config `json:"-"`
}

// DefaultOptions returns the reference experiment: 100 agents for 50 steps
// at misinformation rate 0.3 on a k=6, p=0.2 small world, with no
// intervention.
func DefaultOptions() Options {
	return Options{
		Agents:             constants.DefaultAgents,
		Timesteps:          constants.DefaultTimesteps,
		MisinformationRate: constants.DefaultMisinformationRate,
		KNeighbors:         constants.DefaultKNeighbors,
		RewireProb:         constants.DefaultRewireProb,
		Population:         population.DefaultConfig(constants.DefaultAgents),
	}
}

// SeedOf returns a pointer to seed for use as Options.Seed.
func SeedOf(seed uint64) *uint64 {
	return &seed
}

// WithIntervention returns a copy of o that drops to post at step.
func (o Options) WithIntervention(step int, post float64) Options {
	o.InterventionStep = &step
	o.PostInterventionRate = &post
	return o
}

// Schedule returns the misinformation-rate schedule the options describe.
func (o Options) Schedule() propagation.Schedule {
	if o.InterventionStep == nil {
		return propagation.ConstantRate(o.MisinformationRate)
	}
	post := constants.DefaultPostInterventionRate
	if o.PostInterventionRate != nil {
		post = *o.PostInterventionRate
	}
	return propagation.Intervention(o.MisinformationRate, *o.InterventionStep, post)
}

// Levels returns the trust levels a sweep visits.
func (o Options) Levels() []float64 {
	if len(o.TrustLevels) == 0 {
		return constants.DefaultTrustLevels()
	}
	out := make([]float64, len(o.TrustLevels))
	copy(out, o.TrustLevels)
	return out
}

// Network returns the topology request the options describe.
func (o Options) Network() network.Config {
	return network.Config{
		Nodes:      o.Agents,
		KNeighbors: o.KNeighbors,
		RewireProb: o.RewireProb,
	}
}

// PopulationConfig returns the population request the options describe.
func (o Options) PopulationConfig() population.Config {
	cfg := o.Population
	if cfg.Trust == nil {
		cfg = population.DefaultConfig(o.Agents)
	}
	cfg.Agents = o.Agents
	return cfg
}

// DynamicsConfig returns the update rule constants the options describe.
func (o Options) DynamicsConfig() propagation.Config {
	if o.Dynamics == nil {
		return propagation.DefaultConfig()
	}
	return *o.Dynamics
}

// Validate checks every option before any simulation work begins. Errors
// match simerr.ErrInvalidParameter or simerr.ErrInvalidTopology.
func (o Options) Validate() error {
	if err := simerr.CheckPositive("n_agents", o.Agents); err != nil {
		return err
	}
	if err := simerr.CheckPositive("timesteps", o.Timesteps); err != nil {
		return err
	}
	if err := o.Network().Validate(); err != nil {
		return err
	}
	if o.PostInterventionRate != nil {
		if err := simerr.CheckUnit("post_intervention_rate", *o.PostInterventionRate); err != nil {
			return err
		}
	}
	if err := o.Schedule().Validate(o.Timesteps); err != nil {
		return err
	}
	seen := make(map[float64]int, len(o.TrustLevels))
	for i, level := range o.TrustLevels {
		field := fmt.Sprintf("trust_levels[%d]", i)
		if err := simerr.CheckUnit(field, level); err != nil {
			return err
		}
		if j, dup := seen[level]; dup {
			return simerr.InvalidParameter(field, level, fmt.Sprintf("duplicates trust_levels[%d]", j))
		}
		seen[level] = i
	}
	if o.Workers < 0 {
		return simerr.InvalidParameter("workers", o.Workers, "must be non-negative")
	}
	if err := o.PopulationConfig().Validate(); err != nil {
		return err
	}
	return o.DynamicsConfig().Validate()
}
