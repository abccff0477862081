package simulation

import (
	"bufio"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nvandessel/beliefsim/internal/logging"
	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/propagation"
	"github.com/nvandessel/beliefsim/internal/simerr"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// smallOptions is a quick experiment used throughout the tests.
func smallOptions(seed uint64) Options {
	opts := DefaultOptions()
	opts.Agents = 30
	opts.Timesteps = 20
	opts.Seed = SeedOf(seed)
	return opts
}

// ignoreIDs drops fields that are fresh on every run.
var ignoreIDs = cmpopts.IgnoreFields(Trajectory{}, "RunID", "Graph")

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"defaults", func(o *Options) {}, nil},
		{"with intervention", func(o *Options) { *o = o.WithIntervention(30, 0.1) }, nil},
		{"zero agents", func(o *Options) { o.Agents = 0 }, simerr.ErrInvalidParameter},
		{"zero timesteps", func(o *Options) { o.Timesteps = 0 }, simerr.ErrInvalidParameter},
		{"rate above one", func(o *Options) { o.MisinformationRate = 1.5 }, simerr.ErrInvalidParameter},
		{"negative rewire", func(o *Options) { o.RewireProb = -0.1 }, simerr.ErrInvalidParameter},
		{"too few agents for lattice", func(o *Options) { o.Agents = 5 }, simerr.ErrInvalidTopology},
		{"intervention past end", func(o *Options) { *o = o.WithIntervention(50, 0.1) }, simerr.ErrInvalidParameter},
		{"post rate out of range", func(o *Options) { *o = o.WithIntervention(10, 2) }, simerr.ErrInvalidParameter},
		{"trust level out of range", func(o *Options) { o.TrustLevels = []float64{0.2, 1.2} }, simerr.ErrInvalidParameter},
		{"negative workers", func(o *Options) { o.Workers = -1 }, simerr.ErrInvalidParameter},
		{"post rate out of range without intervention", func(o *Options) {
			post := 5.0
			o.PostInterventionRate = &post
		}, simerr.ErrInvalidParameter},
		{"negative post rate without intervention", func(o *Options) {
			post := -0.1
			o.PostInterventionRate = &post
		}, simerr.ErrInvalidParameter},
		{"post rate without intervention", func(o *Options) {
			post := 0.2
			o.PostInterventionRate = &post
		}, nil},
		{"duplicate trust levels", func(o *Options) { o.TrustLevels = []float64{0.2, 0.5, 0.2} }, simerr.ErrInvalidParameter},
		{"bad dynamics", func(o *Options) {
			dyn := propagation.DefaultConfig()
			dyn.NoiseStdDev = -1
			o.Dynamics = &dyn
		}, simerr.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptions_ScheduleDefaultsPostRate(t *testing.T) {
	opts := DefaultOptions()
	step := 30
	opts.InterventionStep = &step

	sched := opts.Schedule()
	if got := sched.RateAt(30); got != 0.1 {
		t.Errorf("RateAt(30) = %v, want reference post rate 0.1", got)
	}
}

func TestOptions_DynamicsConfig(t *testing.T) {
	opts := DefaultOptions()
	if diff := cmp.Diff(propagation.DefaultConfig(), opts.DynamicsConfig()); diff != "" {
		t.Errorf("nil dynamics (-want +got):\n%s", diff)
	}

	zero := propagation.Config{}
	opts.Dynamics = &zero
	if diff := cmp.Diff(zero, opts.DynamicsConfig()); diff != "" {
		t.Errorf("explicit zero dynamics replaced (-want +got):\n%s", diff)
	}
}

func TestRun_ExplicitZeroDynamicsIsHonored(t *testing.T) {
	// Zero signals pull every hearing agent toward 0, so no belief can rise.
	opts := smallOptions(3)
	opts.Timesteps = 4
	opts.Dynamics = &propagation.Config{}

	traj, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	prev := traj.Initial
	for _, snap := range traj.Snapshots {
		for i, b := range snap.Beliefs {
			if b > prev[i] {
				t.Fatalf("step %d agent %d rose %v -> %v under zero dynamics", snap.Step, i, prev[i], b)
			}
		}
		prev = snap.Beliefs
	}
}

func TestRun_InvalidOptionsProduceNothing(t *testing.T) {
	opts := smallOptions(1)
	opts.Agents = 4 // k=6 needs at least 7
	traj, err := Run(context.Background(), opts)
	if !errors.Is(err, simerr.ErrInvalidTopology) {
		t.Fatalf("Run error = %v, want ErrInvalidTopology", err)
	}
	if traj != nil {
		t.Error("expected nil trajectory on invalid options")
	}
}

func TestRun_Shape(t *testing.T) {
	opts := smallOptions(7)
	traj, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if traj.Len() != opts.Timesteps {
		t.Fatalf("Len() = %d, want %d", traj.Len(), opts.Timesteps)
	}
	if traj.Seed != 7 {
		t.Errorf("Seed = %d, want 7", traj.Seed)
	}
	if traj.RunID == "" {
		t.Error("expected a run id")
	}
	if traj.Graph == nil || traj.Graph.NodeCount() != opts.Agents {
		t.Error("expected the run's contact network on the trajectory")
	}
	if len(traj.Groups[population.DemographicA]) != 15 || len(traj.Groups[population.DemographicB]) != 15 {
		t.Errorf("group sizes = %d/%d, want 15/15",
			len(traj.Groups[population.DemographicA]), len(traj.Groups[population.DemographicB]))
	}

	for i, snap := range traj.Snapshots {
		if snap.Step != i {
			t.Errorf("snapshot %d has step %d", i, snap.Step)
		}
		if len(snap.Beliefs) != opts.Agents {
			t.Fatalf("snapshot %d has %d beliefs", i, len(snap.Beliefs))
		}
		for a, b := range snap.Beliefs {
			if b < 0 || b > 1 {
				t.Errorf("step %d agent %d belief %f outside [0, 1]", i, a, b)
			}
		}
		if snap.Phase != propagation.PhaseBaseline || snap.Rate != opts.MisinformationRate {
			t.Errorf("step %d: phase %q rate %v, want baseline at %v", i, snap.Phase, snap.Rate, opts.MisinformationRate)
		}
	}
}

func TestRun_InterventionTakesEffectAtStep(t *testing.T) {
	opts := smallOptions(3).WithIntervention(12, 0.05)
	traj, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, snap := range traj.Snapshots {
		wantRate, wantPhase := 0.3, propagation.PhaseBaseline
		if snap.Step >= 12 {
			wantRate, wantPhase = 0.05, propagation.PhaseCorrectionBoost
		}
		if snap.Rate != wantRate || snap.Phase != wantPhase {
			t.Errorf("step %d: rate %v phase %q, want %v %q", snap.Step, snap.Rate, snap.Phase, wantRate, wantPhase)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	a, err := Run(context.Background(), smallOptions(42))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := Run(context.Background(), smallOptions(42))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff(a, b, ignoreIDs); diff != "" {
		t.Errorf("same seed produced different trajectories (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.Graph.Edges(), b.Graph.Edges()); diff != "" {
		t.Errorf("same seed produced different networks (-a +b):\n%s", diff)
	}
	if a.RunID == b.RunID {
		t.Error("run ids should be unique per run")
	}

	c, err := Run(context.Background(), smallOptions(43))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cmp.Equal(a.FinalBeliefs(), c.FinalBeliefs()) {
		t.Error("different seeds produced identical final beliefs")
	}
}

func TestRun_UnseededReportsSeed(t *testing.T) {
	opts := smallOptions(0)
	opts.Seed = nil
	first, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	opts.Seed = SeedOf(first.Seed)
	replay, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff(first.Snapshots, replay.Snapshots); diff != "" {
		t.Errorf("replaying the reported seed diverged (-first +replay):\n%s", diff)
	}
}

func TestRun_ZeroTrustWithoutNoiseIsStatic(t *testing.T) {
	opts := smallOptions(5)
	dyn := propagation.DefaultConfig()
	dyn.NoiseStdDev = 0
	opts.Dynamics = &dyn
	opts.Population = population.DefaultConfig(opts.Agents)
	opts.Population.TrustMin = 0
	for _, d := range population.Demographics() {
		opts.Population.Trust[d] = population.TrustDistribution{Mean: 0, StdDev: 0}
	}

	traj, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, snap := range traj.Snapshots {
		if diff := cmp.Diff(traj.Initial, snap.Beliefs); diff != "" {
			t.Fatalf("step %d moved with zero trust and no noise (-initial +got):\n%s", snap.Step, diff)
		}
	}
}

func TestRun_FirstStepMovesTowardCorrection(t *testing.T) {
	// With no misinformation and no drift, any agent that heard a message
	// moves toward the corrective signal by trust x (0.9 - prior).
	opts := smallOptions(11)
	opts.Agents = 10
	opts.KNeighbors = 4
	opts.RewireProb = 0
	opts.MisinformationRate = 0
	opts.Timesteps = 1
	dyn := propagation.DefaultConfig()
	dyn.NoiseStdDev = 0
	dyn.BeliefThreshold = 0.5 // initial beliefs span [0.4, 0.6)
	opts.Dynamics = &dyn

	traj, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	moved := 0
	for i, prior := range traj.Initial {
		got := traj.Snapshots[0].Beliefs[i]
		loud := false
		for _, j := range traj.Graph.Neighbors(i) {
			if traj.Initial[j] > 0.5 {
				loud = true
			}
		}
		if !loud {
			if got != prior {
				t.Errorf("agent %d without loud neighbors moved %v -> %v", i, prior, got)
			}
			continue
		}
		moved++
		want := prior + traj.Trusts[i]*(0.9-prior)
		if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("agent %d belief (-want +got):\n%s", i, diff)
		}
	}
	if moved == 0 {
		t.Fatal("seed produced no agent with a loud neighbor")
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, smallOptions(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestRunner_WritesStepEvents(t *testing.T) {
	dir := t.TempDir()
	events := logging.NewEventLogger(dir, "debug")
	defer events.Close()

	opts := smallOptions(9)
	if _, err := NewRunner(logging.Discard(), events).Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	f, err := os.Open(events.Path())
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	if lines != opts.Timesteps {
		t.Errorf("event lines = %d, want one per step (%d)", lines, opts.Timesteps)
	}
}
