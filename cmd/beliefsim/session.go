package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nvandessel/beliefsim/internal/config"
	"github.com/nvandessel/beliefsim/internal/logging"
	"github.com/nvandessel/beliefsim/internal/simulation"
	"github.com/spf13/cobra"
)

// addSimFlags registers the flags that override simulation settings from
// the config file.
func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("agents", 0, "Number of agents")
	f.Int("timesteps", 0, "Number of update steps")
	f.Float64("rate", 0, "Misinformation rate in [0,1]")
	f.Int("k", 0, "Ring lattice neighbors per node before rewiring")
	f.Float64("rewire", 0, "Rewiring probability in [0,1]")
	f.Int("intervention-step", -1, "First step of the correction boost (-1 for none)")
	f.Float64("post-rate", 0, "Misinformation rate after the intervention (default 0.1)")
	f.Uint64("seed", 0, "Random seed for a reproducible run")
	f.String("output-dir", "", "Directory for written artifacts and step logs")
}

// session is the resolved config plus the loggers a command runs with.
type session struct {
	cfg    *config.SimConfig
	opts   simulation.Options
	logger *slog.Logger
	events *logging.EventLogger
}

// Close flushes the step log.
func (s *session) Close() {
	s.events.Close()
}

// runner returns a simulation runner wired to the session's loggers.
func (s *session) runner() *simulation.Runner {
	return simulation.NewRunner(s.logger, s.events)
}

// newSession loads the config, applies any changed flags and validates
// the result.
func newSession(cmd *cobra.Command) (*session, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	return &session{
		cfg:    cfg,
		opts:   cfg.Options(),
		logger: logger,
		events: logging.NewEventLogger(cfg.Output.Dir, cfg.Logging.Level),
	}, nil
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.SimConfig) error {
	f := cmd.Flags()
	sim := &cfg.Simulation

	if f.Changed("agents") {
		sim.Agents, _ = f.GetInt("agents")
	}
	if f.Changed("timesteps") {
		sim.Timesteps, _ = f.GetInt("timesteps")
	}
	if f.Changed("rate") {
		sim.MisinformationRate, _ = f.GetFloat64("rate")
	}
	if f.Changed("k") {
		sim.KNeighbors, _ = f.GetInt("k")
	}
	if f.Changed("rewire") {
		sim.RewireProb, _ = f.GetFloat64("rewire")
	}
	if f.Changed("intervention-step") {
		step, _ := f.GetInt("intervention-step")
		if step < 0 {
			sim.InterventionStep = nil
		} else {
			sim.InterventionStep = &step
		}
	}
	if f.Changed("post-rate") {
		post, _ := f.GetFloat64("post-rate")
		sim.PostInterventionRate = &post
	}
	if f.Changed("seed") {
		seed, _ := f.GetUint64("seed")
		sim.RandomSeed = &seed
	}
	if f.Changed("output-dir") {
		cfg.Output.Dir, _ = f.GetString("output-dir")
	}
	if f.Lookup("trust") != nil && f.Changed("trust") {
		raw, _ := f.GetString("trust")
		levels, err := config.ParseFloatList(raw)
		if err != nil {
			return fmt.Errorf("invalid --trust: %w", err)
		}
		sim.TrustLevels = levels
	}
	if f.Lookup("workers") != nil && f.Changed("workers") {
		sim.Workers, _ = f.GetInt("workers")
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
