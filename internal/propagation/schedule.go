package propagation

import "github.com/nvandessel/beliefsim/internal/simerr"

// Phase labels the regime a step runs under.
type Phase string

const (
	// PhaseBaseline is every step of a run without an intervention, and every
	// step before the intervention in a run with one.
	PhaseBaseline Phase = "baseline"

	// PhaseCorrectionBoost is every step from the intervention step onward.
	PhaseCorrectionBoost Phase = "correction-boost"
)

// Schedule maps a step index to the misinformation rate in effect.
type Schedule struct {
	// BaselineRate applies before the intervention, or always when there is none.
	BaselineRate float64 `json:"baseline_rate"`

	// InterventionStep is the first step (inclusive) that uses PostRate.
	// Nil means no intervention.
	InterventionStep *int `json:"intervention_step,omitempty"`

	// PostRate applies from InterventionStep onward.
	PostRate float64 `json:"post_rate,omitempty"`
}

// ConstantRate returns a schedule that never changes.
func ConstantRate(rate float64) Schedule {
	return Schedule{BaselineRate: rate}
}

// Intervention returns a schedule that drops from baseline to post at step.
func Intervention(baseline float64, step int, post float64) Schedule {
	return Schedule{BaselineRate: baseline, InterventionStep: &step, PostRate: post}
}

// HasIntervention reports whether the schedule changes rate at some step.
func (s Schedule) HasIntervention() bool {
	return s.InterventionStep != nil
}

// RateAt returns the misinformation rate in effect at step t.
func (s Schedule) RateAt(t int) float64 {
	if s.InterventionStep != nil && t >= *s.InterventionStep {
		return s.PostRate
	}
	return s.BaselineRate
}

// PhaseAt returns the phase label for step t.
func (s Schedule) PhaseAt(t int) Phase {
	if s.InterventionStep != nil && t >= *s.InterventionStep {
		return PhaseCorrectionBoost
	}
	return PhaseBaseline
}

// Validate checks the rates and, when timesteps > 0, that the intervention
// step falls in [0, timesteps).
func (s Schedule) Validate(timesteps int) error {
	if err := simerr.CheckUnit("misinformation_rate", s.BaselineRate); err != nil {
		return err
	}
	if s.InterventionStep == nil {
		return nil
	}
	if err := simerr.CheckUnit("post_intervention_rate", s.PostRate); err != nil {
		return err
	}
	step := *s.InterventionStep
	if step < 0 || (timesteps > 0 && step >= timesteps) {
		return simerr.InvalidParameter("intervention_step", step, "must be in [0, timesteps)")
	}
	return nil
}
