package simulation

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/nvandessel/beliefsim/internal/logging"
	"github.com/nvandessel/beliefsim/internal/population"
	"golang.org/x/sync/errgroup"
)

// SweepPoint is the outcome of one trust level.
type SweepPoint struct {
	Trust       float64                            `json:"trust"`
	FinalBelief float64                            `json:"final_belief"`
	GroupMeans  map[population.Demographic]float64 `json:"group_means"`
	RunID       string                             `json:"run_id"`
}

// SweepResult holds one point per trust level, in the order the levels were
// given.
type SweepResult struct {
	SweepID string       `json:"sweep_id"`
	Seed    uint64       `json:"seed"`
	Options Options      `json:"options"`
	Points  []SweepPoint `json:"points"`
}

// Curve returns the trust levels and their final beliefs as parallel slices.
func (s *SweepResult) Curve() (trust, belief []float64) {
	trust = make([]float64, len(s.Points))
	belief = make([]float64, len(s.Points))
	for i, p := range s.Points {
		trust[i] = p.Trust
		belief[i] = p.FinalBelief
	}
	return trust, belief
}

// Sweep runs a trust sweep with a silent runner.
func Sweep(ctx context.Context, opts Options) (*SweepResult, error) {
	return NewRunner(nil, nil).Sweep(ctx, opts)
}

// Sweep runs one independent simulation per trust level, with the level
// replacing every agent's own trust, and records the final group-averaged
// belief of each. Each point draws its population, network and step noise
// from its own stream derived from the seed and the trust level, so results
// do not depend on level order or worker count.
func (r *Runner) Sweep(ctx context.Context, opts Options) (*SweepResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	seed := resolveSeed(opts)
	levels := opts.Levels()

	result := &SweepResult{
		SweepID: uuid.NewString(),
		Seed:    seed,
		Options: opts,
		Points:  make([]SweepPoint, len(levels)),
	}
	r.logger.Info("starting trust sweep",
		"sweep_id", result.SweepID,
		"levels", len(levels),
		"workers", max(opts.Workers, 1),
		"seed", seed)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	for i, level := range levels {
		g.Go(func() error {
			trust := level
			traj, err := r.run(gctx, opts, seed, PointStream(trust), &trust)
			if err != nil {
				return fmt.Errorf("trust %.3f: %w", trust, err)
			}
			final, _ := traj.Final()
			result.Points[i] = SweepPoint{
				Trust:       trust,
				FinalBelief: traj.FinalAverage(),
				GroupMeans:  final.GroupMeans,
				RunID:       traj.RunID,
			}
			r.events.LogSweepPoint(logging.SweepPointEvent{
				RunID:       traj.RunID,
				SweepID:     result.SweepID,
				Trust:       trust,
				FinalBelief: result.Points[i].FinalBelief,
			})
			r.logger.Debug("sweep point complete",
				"trust", trust,
				"final_belief", result.Points[i].FinalBelief)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("trust sweep complete", "sweep_id", result.SweepID)
	return result, nil
}

// PointStream returns the PCG stream a sweep point at trust uses.
func PointStream(trust float64) uint64 {
	return math.Float64bits(trust)
}
