package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/nvandessel/beliefsim/internal/logging"
	"github.com/nvandessel/beliefsim/internal/network"
	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/propagation"
)

// runStream is the PCG stream of a standalone run. Sweep points use a stream
// derived from their trust level instead.
const runStream uint64 = 0x72756e

// Runner executes runs and sweeps, reporting progress to a logger and an
// optional JSONL event trace.
type Runner struct {
	logger *slog.Logger
	events *logging.EventLogger
}

// NewRunner creates a runner. A nil logger discards output; a nil event
// logger records nothing.
func NewRunner(logger *slog.Logger, events *logging.EventLogger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{logger: logger, events: events}
}

// Run executes a single run with a silent runner.
func Run(ctx context.Context, opts Options) (*Trajectory, error) {
	return NewRunner(nil, nil).Run(ctx, opts)
}

// Run validates opts, then builds a population and small-world network from
// a fresh random stream and steps it opts.Timesteps times under the
// options' rate schedule.
func (r *Runner) Run(ctx context.Context, opts Options) (*Trajectory, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	seed := resolveSeed(opts)
	r.logger.Info("starting run",
		"agents", opts.Agents,
		"timesteps", opts.Timesteps,
		"rate", opts.MisinformationRate,
		"seed", seed)

	traj, err := r.run(ctx, opts, seed, runStream, nil)
	if err != nil {
		return nil, err
	}

	r.logger.Info("run complete",
		"run_id", traj.RunID,
		"final_average", traj.FinalAverage())
	return traj, nil
}

// run executes one validated simulation on its own PCG stream. trust, when
// non-nil, replaces every agent's own trust for the whole run.
func (r *Runner) run(ctx context.Context, opts Options, seed, stream uint64, trust *float64) (*Trajectory, error) {
	rng := rand.New(rand.NewPCG(seed, stream))

	pop, err := population.Initialize(rng, opts.PopulationConfig())
	if err != nil {
		return nil, fmt.Errorf("initializing population: %w", err)
	}
	g, err := network.BuildSmallWorld(rng, opts.Network())
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}

	engine := propagation.NewEngine(opts.DynamicsConfig())
	sched := opts.Schedule()

	traj := &Trajectory{
		RunID:     uuid.NewString(),
		Seed:      seed,
		Options:   opts,
		Trust:     trust,
		Groups:    pop.GroupIndices(),
		Initial:   pop.Beliefs(),
		Trusts:    pop.Trusts(),
		Snapshots: make([]Snapshot, 0, opts.Timesteps),
		Graph:     g,
	}
	r.logger.Debug("run initialized",
		"run_id", traj.RunID,
		"edges", g.EdgeCount(),
		"mean_degree", g.MeanDegree(),
		"group_means", pop.GroupMeans())

	tracing := r.logger.Enabled(ctx, logging.LevelTrace)
	for step := 0; step < opts.Timesteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := propagation.Params{
			MisinformationRate: sched.RateAt(step),
			TrustOverride:      trust,
		}
		updates, summary, err := engine.Apply(pop, g, params, engine.Draw(rng, g))
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}

		if tracing {
			for _, u := range updates {
				r.logger.Log(ctx, logging.LevelTrace, "agent update",
					"run_id", traj.RunID,
					"step", step,
					"agent", u.Index,
					"prior", u.Prior,
					"corrections", u.Corrections,
					"misinformation", u.Misinformation,
					"belief", u.Belief)
			}
		}

		snap := newSnapshot(step, sched, summary, pop)
		traj.Snapshots = append(traj.Snapshots, snap)
		r.recordStep(ctx, traj, snap)
	}

	return traj, nil
}

func (r *Runner) recordStep(ctx context.Context, traj *Trajectory, snap Snapshot) {
	groups := make(map[string]float64, len(snap.GroupMeans))
	for d, m := range snap.GroupMeans {
		groups[d.String()] = m
	}
	r.events.LogStep(logging.StepEvent{
		RunID:          traj.RunID,
		Step:           snap.Step,
		Phase:          string(snap.Phase),
		Rate:           snap.Rate,
		Trust:          traj.Trust,
		Mean:           snap.Mean,
		GroupMeans:     groups,
		Corrections:    snap.Corrections,
		Misinformation: snap.Misinformation,
		Silent:         snap.Silent,
	})
	r.logger.DebugContext(ctx, "step",
		"run_id", traj.RunID,
		"step", snap.Step,
		"phase", snap.Phase,
		"rate", snap.Rate,
		"mean", snap.Mean)
}

// resolveSeed returns the configured seed or draws a fresh one.
func resolveSeed(opts Options) uint64 {
	if opts.Seed != nil {
		return *opts.Seed
	}
	return rand.Uint64()
}
