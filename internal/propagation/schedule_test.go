package propagation

import (
	"errors"
	"testing"

	"github.com/nvandessel/beliefsim/internal/network"
	"github.com/nvandessel/beliefsim/internal/simerr"
)

func TestSchedule_RateAt(t *testing.T) {
	s := Intervention(0.3, 30, 0.1)

	tests := []struct {
		step      int
		wantRate  float64
		wantPhase Phase
	}{
		{0, 0.3, PhaseBaseline},
		{29, 0.3, PhaseBaseline},
		{30, 0.1, PhaseCorrectionBoost},
		{49, 0.1, PhaseCorrectionBoost},
	}
	for _, tt := range tests {
		if got := s.RateAt(tt.step); got != tt.wantRate {
			t.Errorf("RateAt(%d) = %v, want %v", tt.step, got, tt.wantRate)
		}
		if got := s.PhaseAt(tt.step); got != tt.wantPhase {
			t.Errorf("PhaseAt(%d) = %q, want %q", tt.step, got, tt.wantPhase)
		}
	}
}

func TestSchedule_ConstantRate(t *testing.T) {
	s := ConstantRate(0.25)
	if s.HasIntervention() {
		t.Error("constant schedule reports an intervention")
	}
	for _, step := range []int{0, 10, 1000} {
		if got := s.RateAt(step); got != 0.25 {
			t.Errorf("RateAt(%d) = %v, want 0.25", step, got)
		}
		if got := s.PhaseAt(step); got != PhaseBaseline {
			t.Errorf("PhaseAt(%d) = %q, want baseline", step, got)
		}
	}
}

// A coin of 0.2 is misinformation under rate 0.3 and a correction under 0.1,
// so the same draws must flip message type exactly at the intervention step.
func TestSchedule_InterventionBoundarySampling(t *testing.T) {
	g, err := network.NewGraph(2, []network.Edge{{U: 0, V: 1}})
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	s := Intervention(0.3, 30, 0.1)
	d := Draws{
		Coins: [][]float64{{0.2}, {0.2}},
		Noise: []float64{0, 0},
	}
	eng := NewEngine(noiseless())

	tests := []struct {
		step               int
		wantCorrections    int
		wantMisinformation int
	}{
		{29, 0, 2},
		{30, 2, 0},
	}
	for _, tt := range tests {
		pop := mustPopulation(t, []float64{0.8, 0.8}, 0.5)
		_, summary, err := eng.Apply(pop, g, Params{MisinformationRate: s.RateAt(tt.step)}, d)
		if err != nil {
			t.Fatalf("step %d: %v", tt.step, err)
		}
		if summary.Corrections != tt.wantCorrections || summary.Misinformation != tt.wantMisinformation {
			t.Errorf("step %d: summary = %+v, want %d corrections and %d misinformation",
				tt.step, summary, tt.wantCorrections, tt.wantMisinformation)
		}
	}
}

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name      string
		schedule  Schedule
		timesteps int
		wantErr   bool
	}{
		{"constant", ConstantRate(0.3), 50, false},
		{"intervention", Intervention(0.3, 30, 0.1), 50, false},
		{"intervention at zero", Intervention(0.3, 0, 0.1), 50, false},
		{"intervention at last step", Intervention(0.3, 49, 0.1), 50, false},
		{"intervention past end", Intervention(0.3, 50, 0.1), 50, true},
		{"negative intervention", Intervention(0.3, -1, 0.1), 50, true},
		{"unbounded horizon", Intervention(0.3, 500, 0.1), 0, false},
		{"bad baseline", ConstantRate(1.2), 50, true},
		{"bad post rate", Intervention(0.3, 10, -0.5), 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate(tt.timesteps)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, simerr.ErrInvalidParameter) {
				t.Errorf("Validate() = %v, want ErrInvalidParameter", err)
			}
		})
	}
}
