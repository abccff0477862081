package simulation

import (
	"github.com/nvandessel/beliefsim/internal/network"
	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/propagation"
	"github.com/nvandessel/beliefsim/internal/vecmath"
)

// Snapshot is the population state after one step. Snapshots are never
// mutated once appended to a Trajectory.
type Snapshot struct {
	Step           int                                `json:"step"`
	Phase          propagation.Phase                  `json:"phase"`
	Rate           float64                            `json:"rate"`
	Mean           float64                            `json:"mean"`
	GroupMeans     map[population.Demographic]float64 `json:"group_means"`
	Beliefs        []float64                          `json:"beliefs"`
	Corrections    int                                `json:"corrections"`
	Misinformation int                                `json:"misinformation"`
	Silent         int                                `json:"silent"`
}

// Average returns the unweighted mean of the group means.
func (s Snapshot) Average() float64 {
	if len(s.GroupMeans) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range population.Demographics() {
		sum += s.GroupMeans[d]
	}
	return sum / float64(len(s.GroupMeans))
}

// Trajectory is the ordered record of one run.
type Trajectory struct {
	RunID   string   `json:"run_id"`
	Seed    uint64   `json:"seed"`
	Options Options  `json:"options"`
	Trust   *float64 `json:"trust,omitempty"` // set for sweep points

	// Groups lists the agent indices of each demographic.
	Groups map[population.Demographic][]int `json:"groups"`

	// Initial is the belief vector before the first step.
	Initial []float64 `json:"initial"`

	// Trusts is each agent's own trust, as drawn at initialization.
	Trusts []float64 `json:"trusts"`

	Snapshots []Snapshot `json:"snapshots"`

	// Graph is the contact network the run used.
	Graph *network.Graph `json:"-"`
}

// Len returns the number of recorded steps.
func (t *Trajectory) Len() int {
	return len(t.Snapshots)
}

// Final returns the last snapshot. ok is false for an empty trajectory.
func (t *Trajectory) Final() (snap Snapshot, ok bool) {
	if len(t.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return t.Snapshots[len(t.Snapshots)-1], true
}

// FinalBeliefs returns the belief vector after the last step, or the initial
// vector when nothing was recorded.
func (t *Trajectory) FinalBeliefs() []float64 {
	if snap, ok := t.Final(); ok {
		return snap.Beliefs
	}
	return t.Initial
}

// FinalAverage returns the mean of the group means at the last step. This is
// the value a sweep point reports.
func (t *Trajectory) FinalAverage() float64 {
	snap, ok := t.Final()
	if !ok {
		return 0
	}
	return snap.Average()
}

// GroupSeries returns the per-step mean belief of group d.
func (t *Trajectory) GroupSeries(d population.Demographic) []float64 {
	out := make([]float64, len(t.Snapshots))
	for i, s := range t.Snapshots {
		out[i] = s.GroupMeans[d]
	}
	return out
}

// MeanSeries returns the per-step population mean belief.
func (t *Trajectory) MeanSeries() []float64 {
	out := make([]float64, len(t.Snapshots))
	for i, s := range t.Snapshots {
		out[i] = s.Mean
	}
	return out
}

// Matrix returns the steps x agents belief matrix restricted to group d, in
// agent index order. Row i is the state after step i.
func (t *Trajectory) Matrix(d population.Demographic) [][]float64 {
	idx := t.Groups[d]
	out := make([][]float64, len(t.Snapshots))
	for i, s := range t.Snapshots {
		row := make([]float64, len(idx))
		for k, a := range idx {
			row[k] = s.Beliefs[a]
		}
		out[i] = row
	}
	return out
}

// newSnapshot captures the population after a step.
func newSnapshot(step int, sched propagation.Schedule, summary propagation.StepSummary, pop *population.Population) Snapshot {
	beliefs := pop.Beliefs()
	return Snapshot{
		Step:           step,
		Phase:          sched.PhaseAt(step),
		Rate:           summary.Rate,
		Mean:           vecmath.Mean(beliefs),
		GroupMeans:     pop.GroupMeans(),
		Beliefs:        beliefs,
		Corrections:    summary.Corrections,
		Misinformation: summary.Misinformation,
		Silent:         summary.Silent,
	}
}

// PhaseSpan is a labeled half-open step range [Start, End).
type PhaseSpan struct {
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Phases splits timesteps into the Preparation, Development and Escalation
// thirds used to label animation frames. Spans may be empty for very short
// runs.
func Phases(timesteps int) []PhaseSpan {
	labels := []string{"Preparation", "Development", "Escalation"}
	out := make([]PhaseSpan, len(labels))
	for k, label := range labels {
		out[k] = PhaseSpan{
			Label: label,
			Start: k * timesteps / 3,
			End:   (k + 1) * timesteps / 3,
		}
	}
	return out
}
