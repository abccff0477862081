// Package propagation advances agent beliefs one synchronous step at a time.
// Every agent's update reads the same frozen pre-step belief vector: neighbors
// above the belief threshold broadcast a corrective or misinformation message,
// the agent blends the message mean into its prior belief weighted by trust,
// and Gaussian drift is added before clipping to [0, 1].
package propagation

import (
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/beliefsim/internal/constants"
	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/simerr"
	"github.com/nvandessel/beliefsim/internal/vecmath"
)

// Topology is the read-only view of the contact network the engine needs.
type Topology interface {
	NodeCount() int
	Neighbors(i int) []int
}

// Config holds the fixed dynamics of the update rule.
type Config struct {
	// BeliefThreshold is the belief a neighbor must exceed to broadcast. Default: 0.6.
	BeliefThreshold float64

	// CorrectionSignal is the value a corrective message carries. Default: 0.9.
	CorrectionSignal float64

	// MisinformationSignal is the value a misinformation message carries. Default: 0.1.
	MisinformationSignal float64

	// NoiseStdDev is the standard deviation of per-step belief drift. Default: 0.02.
	// Zero disables drift.
	NoiseStdDev float64
}

// DefaultConfig returns the reference dynamics.
func DefaultConfig() Config {
	return Config{
		BeliefThreshold:      constants.BeliefThreshold,
		CorrectionSignal:     constants.CorrectionSignal,
		MisinformationSignal: constants.MisinformationSignal,
		NoiseStdDev:          constants.NoiseStdDev,
	}
}

// Validate checks the dynamics parameters.
func (c Config) Validate() error {
	if err := simerr.CheckUnit("belief_threshold", c.BeliefThreshold); err != nil {
		return err
	}
	if err := simerr.CheckUnit("correction_signal", c.CorrectionSignal); err != nil {
		return err
	}
	if err := simerr.CheckUnit("misinformation_signal", c.MisinformationSignal); err != nil {
		return err
	}
	if c.NoiseStdDev < 0 {
		return simerr.InvalidParameter("noise_std_dev", c.NoiseStdDev, "must be non-negative")
	}
	return nil
}

// Params are the per-step inputs chosen by the harness.
type Params struct {
	// MisinformationRate is the probability a broadcast carries misinformation.
	MisinformationRate float64

	// TrustOverride, when non-nil, replaces every agent's own trust for this
	// step. Trust sweeps set it to the run-level scalar.
	TrustOverride *float64
}

// Override returns a pointer to v for use as Params.TrustOverride.
func Override(v float64) *float64 {
	return &v
}

// Validate rejects rates or trust values outside [0, 1].
func (p Params) Validate() error {
	if err := simerr.CheckUnit("misinformation_rate", p.MisinformationRate); err != nil {
		return err
	}
	if p.TrustOverride != nil {
		if err := simerr.CheckUnit("trust", *p.TrustOverride); err != nil {
			return err
		}
	}
	return nil
}

// Draws holds the randomness consumed by one step. Fixing the draws makes a
// step a pure function of the pre-step beliefs.
type Draws struct {
	// Coins[i][k] is the uniform draw that decides the message type of agent
	// i's k-th neighbor (in Topology.Neighbors order). A draw >= the
	// misinformation rate yields a correction.
	Coins [][]float64

	// Noise[i] is agent i's belief drift, already scaled by NoiseStdDev.
	Noise []float64
}

// AgentUpdate describes how one agent's belief changed in a step.
type AgentUpdate struct {
	Index          int     `json:"index"`
	Prior          float64 `json:"prior"`
	Corrections    int     `json:"corrections"`
	Misinformation int     `json:"misinformation"`
	MessageMean    float64 `json:"message_mean"`
	Candidate      float64 `json:"candidate"`
	Noise          float64 `json:"noise"`
	Belief         float64 `json:"belief"`
}

// Messages returns the number of messages the agent received.
func (u AgentUpdate) Messages() int {
	return u.Corrections + u.Misinformation
}

// StepSummary aggregates message traffic for one step.
type StepSummary struct {
	Rate           float64 `json:"rate"`
	Corrections    int     `json:"corrections"`
	Misinformation int     `json:"misinformation"`
	Silent         int     `json:"silent"` // agents that received no messages
}

// Engine applies the belief update rule. The engine is stateless: all
// randomness comes from the rng passed to Step or from explicit Draws.
type Engine struct {
	config Config
}

// NewEngine creates a propagation engine with the given dynamics.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Draw consumes the randomness for one step in a fixed order: for each agent
// in index order, one uniform per neighbor, then one normal for drift. The
// amount drawn depends only on the topology, never on beliefs.
func (e *Engine) Draw(rng *rand.Rand, g Topology) Draws {
	n := g.NodeCount()
	d := Draws{
		Coins: make([][]float64, n),
		Noise: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		nbrs := g.Neighbors(i)
		coins := make([]float64, len(nbrs))
		for k := range coins {
			coins[k] = rng.Float64()
		}
		d.Coins[i] = coins
		d.Noise[i] = rng.NormFloat64() * e.config.NoiseStdDev
	}
	return d
}

// UpdateAgent computes agent i's next belief from the frozen pre-step vector
// prev. It reads nothing but its arguments, so agents may be updated in any
// order.
func (e *Engine) UpdateAgent(i int, prev []float64, trust float64, g Topology, d Draws, rate float64) AgentUpdate {
	u := AgentUpdate{Index: i, Prior: prev[i], Noise: d.Noise[i]}

	sum := 0.0
	for k, j := range g.Neighbors(i) {
		if prev[j] <= e.config.BeliefThreshold {
			continue
		}
		if d.Coins[i][k] >= rate {
			u.Corrections++
			sum += e.config.CorrectionSignal
		} else {
			u.Misinformation++
			sum += e.config.MisinformationSignal
		}
	}

	u.Candidate = u.Prior
	if n := u.Messages(); n > 0 {
		u.MessageMean = sum / float64(n)
		u.Candidate = u.Prior*(1-trust) + u.MessageMean*trust
	}

	u.Belief = vecmath.Clip(u.Candidate+u.Noise, 0, 1)
	return u
}

// Step draws fresh randomness from rng and advances every agent's belief by
// one step, mutating pop in place.
func (e *Engine) Step(rng *rand.Rand, pop *population.Population, g Topology, p Params) (StepSummary, error) {
	if err := e.check(pop, g, p); err != nil {
		return StepSummary{}, err
	}
	_, summary, err := e.Apply(pop, g, p, e.Draw(rng, g))
	return summary, err
}

// Apply advances pop by one step using the given draws. It returns the
// per-agent updates in index order.
func (e *Engine) Apply(pop *population.Population, g Topology, p Params, d Draws) ([]AgentUpdate, StepSummary, error) {
	if err := e.check(pop, g, p); err != nil {
		return nil, StepSummary{}, err
	}
	n := pop.Len()
	if len(d.Coins) != n || len(d.Noise) != n {
		return nil, StepSummary{}, fmt.Errorf("propagation: draws cover %d agents, population has %d", len(d.Noise), n)
	}

	prev := pop.Beliefs()
	updates := make([]AgentUpdate, n)
	next := make([]float64, n)
	summary := StepSummary{Rate: p.MisinformationRate}

	for i, agent := range pop.Agents {
		trust := agent.Trust
		if p.TrustOverride != nil {
			trust = *p.TrustOverride
		}
		u := e.UpdateAgent(i, prev, trust, g, d, p.MisinformationRate)
		updates[i] = u
		next[i] = u.Belief

		summary.Corrections += u.Corrections
		summary.Misinformation += u.Misinformation
		if u.Messages() == 0 {
			summary.Silent++
		}
	}

	if err := pop.SetBeliefs(next); err != nil {
		return nil, StepSummary{}, err
	}
	return updates, summary, nil
}

func (e *Engine) check(pop *population.Population, g Topology, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if pop.Len() != g.NodeCount() {
		return fmt.Errorf("propagation: population has %d agents, topology has %d nodes", pop.Len(), g.NodeCount())
	}
	return nil
}
