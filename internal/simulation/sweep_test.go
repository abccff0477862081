package simulation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nvandessel/beliefsim/internal/constants"
	"github.com/nvandessel/beliefsim/internal/simerr"
)

// comparable sweep points ignore the per-run id.
var ignoreRunID = cmpopts.IgnoreFields(SweepPoint{}, "RunID")

func TestSweep_DefaultLevels(t *testing.T) {
	res, err := Sweep(context.Background(), smallOptions(1))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	trust, belief := res.Curve()
	if diff := cmp.Diff(constants.DefaultTrustLevels(), trust); diff != "" {
		t.Errorf("trust levels (-want +got):\n%s", diff)
	}
	for i, b := range belief {
		if b < 0 || b > 1 || math.IsNaN(b) {
			t.Errorf("point %d final belief %v outside [0, 1]", i, b)
		}
	}
	if res.SweepID == "" || res.Seed != 1 {
		t.Errorf("sweep id %q seed %d, want non-empty id and seed 1", res.SweepID, res.Seed)
	}
}

func TestSweep_FinalBeliefIsGroupAverage(t *testing.T) {
	opts := smallOptions(2)
	opts.TrustLevels = []float64{0.2, 0.7}
	res, err := Sweep(context.Background(), opts)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	for _, p := range res.Points {
		if len(p.GroupMeans) != 2 {
			t.Fatalf("trust %v: %d group means, want 2", p.Trust, len(p.GroupMeans))
		}
		sum := 0.0
		for _, m := range p.GroupMeans {
			sum += m
		}
		if math.Abs(p.FinalBelief-sum/2) > 1e-12 {
			t.Errorf("trust %v: final belief %v, want group average %v", p.Trust, p.FinalBelief, sum/2)
		}
	}
}

func TestSweep_Deterministic(t *testing.T) {
	opts := smallOptions(77)
	a, err := Sweep(context.Background(), opts)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	b, err := Sweep(context.Background(), opts)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if diff := cmp.Diff(a.Points, b.Points, ignoreRunID); diff != "" {
		t.Errorf("same seed produced different sweeps (-a +b):\n%s", diff)
	}

	other := smallOptions(78)
	c, err := Sweep(context.Background(), other)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if cmp.Equal(a.Points, c.Points, ignoreRunID) {
		t.Error("different seeds produced identical sweeps")
	}
}

func TestSweep_WorkersDoNotChangeResults(t *testing.T) {
	opts := smallOptions(13)
	sequential, err := Sweep(context.Background(), opts)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	opts.Workers = 4
	parallel, err := Sweep(context.Background(), opts)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if diff := cmp.Diff(sequential.Points, parallel.Points, ignoreRunID); diff != "" {
		t.Errorf("parallel sweep differs from sequential (-seq +par):\n%s", diff)
	}
}

func TestSweep_PointDependsOnlyOnSeedAndTrust(t *testing.T) {
	full := smallOptions(21)
	fullRes, err := Sweep(context.Background(), full)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	single := smallOptions(21)
	single.TrustLevels = []float64{fullRes.Points[4].Trust}
	singleRes, err := Sweep(context.Background(), single)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if diff := cmp.Diff(fullRes.Points[4], singleRes.Points[0], ignoreRunID); diff != "" {
		t.Errorf("isolated point differs from the same level inside a sweep (-full +single):\n%s", diff)
	}
}

func TestSweep_PointsAreIndependentRuns(t *testing.T) {
	opts := smallOptions(4)
	opts.TrustLevels = []float64{0.5, 0.5000001}
	res, err := Sweep(context.Background(), opts)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Points[0].RunID == res.Points[1].RunID {
		t.Error("sweep points share a run id")
	}
	if cmp.Equal(res.Points[0].GroupMeans, res.Points[1].GroupMeans) {
		t.Error("nearby trust levels drew identical populations; streams are not independent")
	}
}

func TestSweep_InvalidLevelFailsBeforeRunning(t *testing.T) {
	opts := smallOptions(1)
	opts.TrustLevels = []float64{0.1, -0.5}
	res, err := Sweep(context.Background(), opts)
	if !errors.Is(err, simerr.ErrInvalidParameter) {
		t.Fatalf("Sweep error = %v, want ErrInvalidParameter", err)
	}
	if res != nil {
		t.Error("expected nil result on invalid options")
	}
}

func TestSweep_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := smallOptions(1)
	opts.Workers = 3
	if _, err := Sweep(ctx, opts); !errors.Is(err, context.Canceled) {
		t.Errorf("Sweep error = %v, want context.Canceled", err)
	}
}

func TestPointStream(t *testing.T) {
	if PointStream(0.3) == PointStream(0.4) {
		t.Error("distinct trust levels share a stream")
	}
	if PointStream(0.3) == runStream {
		t.Error("sweep point stream collides with the standalone run stream")
	}
}
