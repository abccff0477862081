package mcp

import (
	"github.com/nvandessel/beliefsim/internal/propagation"
	"github.com/nvandessel/beliefsim/internal/visualization"
)

// SimParams are the run parameters shared by every tool. Unset fields fall
// back to the server's configured defaults.
type SimParams struct {
	Agents               *int     `json:"n_agents,omitempty" jsonschema:"Number of agents (default 100)"`
	Timesteps            *int     `json:"timesteps,omitempty" jsonschema:"Number of update steps (default 50)"`
	MisinformationRate   *float64 `json:"misinformation_rate,omitempty" jsonschema:"Probability that a broadcasting neighbor sends misinformation, in [0,1]"`
	KNeighbors           *int     `json:"k_neighbors,omitempty" jsonschema:"Ring lattice neighbors per node before rewiring (default 6)"`
	RewireProb           *float64 `json:"rewire_prob,omitempty" jsonschema:"Watts-Strogatz rewiring probability, in [0,1]"`
	InterventionStep     *int     `json:"intervention_step,omitempty" jsonschema:"First step of the correction boost; omit for a constant rate"`
	PostInterventionRate *float64 `json:"post_intervention_rate,omitempty" jsonschema:"Misinformation rate from the intervention step on (default 0.1)"`
	Seed                 *uint64  `json:"random_seed,omitempty" jsonschema:"Seed for a reproducible run; omit for a random seed"`
}

// RunInput defines the input for the beliefsim_run tool.
type RunInput struct {
	SimParams
	IncludeSeries bool `json:"include_series,omitempty" jsonschema:"Include the per-step group mean series (default false)"`
}

// PhaseSummary is the state at the end of one third of a run.
type PhaseSummary struct {
	Label      string             `json:"label"`
	Start      int                `json:"start"`
	End        int                `json:"end"`
	GroupMeans map[string]float64 `json:"group_means"`
}

// RunOutput defines the output for the beliefsim_run tool.
type RunOutput struct {
	RunID           string               `json:"run_id" jsonschema:"Unique ID of this run"`
	Seed            uint64               `json:"seed" jsonschema:"Seed the run used; pass it back to replay the run"`
	Timesteps       int                  `json:"timesteps"`
	Edges           int                  `json:"edges" jsonschema:"Edge count of the generated network"`
	InitialMeans    map[string]float64   `json:"initial_group_means"`
	FinalMeans      map[string]float64   `json:"final_group_means"`
	FinalAverage    float64              `json:"final_average" jsonschema:"Mean of the final group means"`
	Phases          []PhaseSummary       `json:"phases"`
	InterventionAt  *int                 `json:"intervention_step,omitempty"`
	Series          map[string][]float64 `json:"series,omitempty" jsonschema:"Per-step group mean belief, when requested"`
	RatePerStep     []float64            `json:"rate_per_step,omitempty"`
	PhasePerStep    []propagation.Phase  `json:"phase_per_step,omitempty"`
	CorrectionCount int                  `json:"corrections" jsonschema:"Correction messages received over the run"`
	MisinfoCount    int                  `json:"misinformation" jsonschema:"Misinformation messages received over the run"`
}

// SweepInput defines the input for the beliefsim_sweep tool.
type SweepInput struct {
	SimParams
	TrustLevels []float64 `json:"trust_levels,omitempty" jsonschema:"Trust values to visit, each in [0,1] (default 0.1 to 0.9 in steps of 0.1)"`
	Workers     int       `json:"workers,omitempty" jsonschema:"Parallel runs (default sequential)"`
}

// SweepPointOutput is one point of the trust sweep.
type SweepPointOutput struct {
	Trust       float64 `json:"trust"`
	FinalBelief float64 `json:"final_belief"`
}

// SweepOutput defines the output for the beliefsim_sweep tool.
type SweepOutput struct {
	SweepID string             `json:"sweep_id"`
	Seed    uint64             `json:"seed"`
	Points  []SweepPointOutput `json:"points" jsonschema:"Final average belief for each trust level, in input order"`
}

// GraphInput defines the input for the beliefsim_graph tool.
type GraphInput struct {
	SimParams
	Format string `json:"format,omitempty" jsonschema:"Output format: dot (Graphviz) or json (default json)"`
}

// GraphOutput defines the output for the beliefsim_graph tool.
type GraphOutput struct {
	RunID  string                   `json:"run_id"`
	Seed   uint64                   `json:"seed"`
	Format string                   `json:"format"`
	DOT    string                   `json:"dot,omitempty" jsonschema:"Graphviz source, when format is dot"`
	Graph  *visualization.GraphJSON `json:"graph,omitempty" jsonschema:"Nodes colored by final belief, when format is json"`
}
