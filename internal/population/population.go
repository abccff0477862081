// Package population constructs the agents of a belief simulation: each agent
// carries a demographic group, a belief in [0, 1], and a trust value drawn from
// a demographic-conditioned normal distribution.
package population

import (
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/beliefsim/internal/constants"
	"github.com/nvandessel/beliefsim/internal/simerr"
	"github.com/nvandessel/beliefsim/internal/vecmath"
)

// Demographic is the categorical group an agent belongs to.
type Demographic string

const (
	// DemographicA is assigned to the first half of the population.
	DemographicA Demographic = "female"

	// DemographicB is assigned to the second half of the population.
	DemographicB Demographic = "male"
)

// Demographics returns the closed set of groups in assignment order.
func Demographics() []Demographic {
	return []Demographic{DemographicA, DemographicB}
}

// Valid returns true if the demographic is a recognized value.
func (d Demographic) Valid() bool {
	switch d {
	case DemographicA, DemographicB:
		return true
	}
	return false
}

// String returns the string representation of the demographic.
func (d Demographic) String() string {
	return string(d)
}

// DemographicFor returns the group for agent index i in a population of n.
// Indices below n/2 (integer division) are group A, so an odd population
// gives group A the smaller half.
func DemographicFor(i, n int) Demographic {
	if i < n/2 {
		return DemographicA
	}
	return DemographicB
}

// Agent is one network participant.
type Agent struct {
	Index       int         `json:"index"`
	Demographic Demographic `json:"demographic"`
	Belief      float64     `json:"belief"`
	Trust       float64     `json:"trust"`
}

// TrustDistribution parameterizes the normal distribution trust is drawn from.
type TrustDistribution struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}

// Config holds the initialization parameters for a population.
type Config struct {
	// Agents is the population size. Must be > 0.
	Agents int

	// BeliefMin and BeliefMax bound the uniform band initial beliefs are drawn from.
	BeliefMin float64
	BeliefMax float64

	// Trust maps each demographic to its trust distribution. Both groups must
	// be present; the asymmetry between them is an experiment parameter.
	Trust map[Demographic]TrustDistribution

	// TrustMin and TrustMax clip drawn trust values.
	TrustMin float64
	TrustMax float64
}

// DefaultConfig returns the reference population configuration for n agents.
func DefaultConfig(n int) Config {
	return Config{
		Agents:    n,
		BeliefMin: constants.InitialBeliefMin,
		BeliefMax: constants.InitialBeliefMax,
		Trust: map[Demographic]TrustDistribution{
			DemographicA: {Mean: constants.TrustMeanA, StdDev: constants.TrustStdDev},
			DemographicB: {Mean: constants.TrustMeanB, StdDev: constants.TrustStdDev},
		},
		TrustMin: constants.TrustClipMin,
		TrustMax: constants.TrustClipMax,
	}
}

// Validate checks that the configuration can produce a population.
func (c Config) Validate() error {
	if err := simerr.CheckPositive("n_agents", c.Agents); err != nil {
		return err
	}
	if err := simerr.CheckUnit("belief_min", c.BeliefMin); err != nil {
		return err
	}
	if err := simerr.CheckUnit("belief_max", c.BeliefMax); err != nil {
		return err
	}
	if c.BeliefMin > c.BeliefMax {
		return simerr.InvalidParameter("belief_min", c.BeliefMin, "must not exceed belief_max")
	}
	if err := simerr.CheckUnit("trust_min", c.TrustMin); err != nil {
		return err
	}
	if err := simerr.CheckUnit("trust_max", c.TrustMax); err != nil {
		return err
	}
	if c.TrustMin > c.TrustMax {
		return simerr.InvalidParameter("trust_min", c.TrustMin, "must not exceed trust_max")
	}
	for _, d := range Demographics() {
		dist, ok := c.Trust[d]
		if !ok {
			return simerr.InvalidParameter("trust."+d.String(), nil, "missing trust distribution")
		}
		if err := simerr.CheckUnit("trust."+d.String()+".mean", dist.Mean); err != nil {
			return err
		}
		if dist.StdDev < 0 {
			return simerr.InvalidParameter("trust."+d.String()+".std_dev", dist.StdDev, "must be non-negative")
		}
	}
	return nil
}

// Population is the ordered agent collection owned by a single run.
type Population struct {
	Agents []Agent
}

// Initialize builds a population from cfg, drawing from rng. For each agent in
// index order it draws the belief, then the trust.
func Initialize(rng *rand.Rand, cfg Config) (*Population, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	agents := make([]Agent, cfg.Agents)
	for i := range agents {
		d := DemographicFor(i, cfg.Agents)
		dist := cfg.Trust[d]

		belief := cfg.BeliefMin + rng.Float64()*(cfg.BeliefMax-cfg.BeliefMin)
		trust := vecmath.Clip(dist.Mean+rng.NormFloat64()*dist.StdDev, cfg.TrustMin, cfg.TrustMax)

		agents[i] = Agent{
			Index:       i,
			Demographic: d,
			Belief:      belief,
			Trust:       trust,
		}
	}
	return &Population{Agents: agents}, nil
}

// FromBeliefs builds a population with explicit beliefs and trust values.
// Demographics follow the usual index split. Used to set up hand-built scenarios.
func FromBeliefs(beliefs, trust []float64) (*Population, error) {
	if len(beliefs) == 0 {
		return nil, simerr.CheckPositive("n_agents", 0)
	}
	if len(trust) != len(beliefs) {
		return nil, fmt.Errorf("population: %d beliefs but %d trust values", len(beliefs), len(trust))
	}
	n := len(beliefs)
	agents := make([]Agent, n)
	for i := range agents {
		if err := simerr.CheckUnit("belief", beliefs[i]); err != nil {
			return nil, err
		}
		if err := simerr.CheckUnit("trust", trust[i]); err != nil {
			return nil, err
		}
		agents[i] = Agent{
			Index:       i,
			Demographic: DemographicFor(i, n),
			Belief:      beliefs[i],
			Trust:       trust[i],
		}
	}
	return &Population{Agents: agents}, nil
}

// Len returns the number of agents.
func (p *Population) Len() int {
	return len(p.Agents)
}

// Beliefs returns a copy of the current belief vector in index order.
func (p *Population) Beliefs() []float64 {
	out := make([]float64, len(p.Agents))
	for i, a := range p.Agents {
		out[i] = a.Belief
	}
	return out
}

// Trusts returns a copy of the per-agent trust values in index order.
func (p *Population) Trusts() []float64 {
	out := make([]float64, len(p.Agents))
	for i, a := range p.Agents {
		out[i] = a.Trust
	}
	return out
}

// SetBeliefs overwrites every agent's belief. The vector length must match.
func (p *Population) SetBeliefs(beliefs []float64) error {
	if len(beliefs) != len(p.Agents) {
		return fmt.Errorf("population: set %d beliefs on %d agents", len(beliefs), len(p.Agents))
	}
	for i := range p.Agents {
		p.Agents[i].Belief = beliefs[i]
	}
	return nil
}

// GroupIndices returns the agent indices of each demographic, in index order.
// Empty groups are omitted.
func (p *Population) GroupIndices() map[Demographic][]int {
	groups := make(map[Demographic][]int, 2)
	for _, a := range p.Agents {
		groups[a.Demographic] = append(groups[a.Demographic], a.Index)
	}
	return groups
}

// GroupMeans returns the mean belief of each non-empty demographic.
func (p *Population) GroupMeans() map[Demographic]float64 {
	beliefs := p.Beliefs()
	means := make(map[Demographic]float64, 2)
	for d, idx := range p.GroupIndices() {
		means[d] = vecmath.MeanAt(beliefs, idx)
	}
	return means
}
