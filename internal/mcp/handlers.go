package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/propagation"
	"github.com/nvandessel/beliefsim/internal/simulation"
	"github.com/nvandessel/beliefsim/internal/visualization"
	"golang.org/x/time/rate"
)

const (
	toolRun   = "beliefsim_run"
	toolSweep = "beliefsim_sweep"
	toolGraph = "beliefsim_graph"
)

// newToolLimiters returns one token bucket per tool. Sweeps are the
// expensive call and get the tightest budget.
func newToolLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		toolRun:   rate.NewLimiter(rate.Limit(1.0), 10),     // 60/minute, burst 10
		toolSweep: rate.NewLimiter(rate.Limit(6.0/60.0), 2), // 6/minute, burst 2
		toolGraph: rate.NewLimiter(rate.Limit(0.5), 5),      // 30/minute, burst 5
	}
}

func (s *Server) checkLimit(tool string) error {
	if l, ok := s.limiters[tool]; ok && !l.Allow() {
		return fmt.Errorf("rate limit exceeded for %s, please wait before retrying", tool)
	}
	return nil
}

// registerTools registers all simulation tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        toolRun,
		Description: "Run one misinformation belief propagation simulation on a small-world network and summarize group mean beliefs over time",
	}, s.handleRun)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        toolSweep,
		Description: "Repeat the simulation once per trust level with every agent's trust overridden, and report the final average belief at each level",
	}, s.handleSweep)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        toolGraph,
		Description: "Run a simulation and render its contact network (DOT or JSON) with nodes colored by final belief",
	}, s.handleGraph)
}

// options merges p over the server's base options.
func (s *Server) options(p SimParams) simulation.Options {
	opts := s.base
	if p.Agents != nil {
		opts.Agents = *p.Agents
	}
	if p.Timesteps != nil {
		opts.Timesteps = *p.Timesteps
	}
	if p.MisinformationRate != nil {
		opts.MisinformationRate = *p.MisinformationRate
	}
	if p.KNeighbors != nil {
		opts.KNeighbors = *p.KNeighbors
	}
	if p.RewireProb != nil {
		opts.RewireProb = *p.RewireProb
	}
	if p.InterventionStep != nil {
		opts.InterventionStep = p.InterventionStep
	}
	if p.PostInterventionRate != nil {
		opts.PostInterventionRate = p.PostInterventionRate
	}
	if p.Seed != nil {
		opts.Seed = p.Seed
	}
	return opts
}

func (s *Server) logTool(tool string, start time.Time, err error) {
	if err != nil {
		s.logger.Warn("tool call failed", "tool", tool, "duration", time.Since(start), "error", err)
		return
	}
	s.logger.Info("tool call", "tool", tool, "duration", time.Since(start))
}

// handleRun implements the beliefsim_run tool.
func (s *Server) handleRun(ctx context.Context, req *sdk.CallToolRequest, args RunInput) (_ *sdk.CallToolResult, _ RunOutput, retErr error) {
	start := time.Now()
	defer func() { s.logTool(toolRun, start, retErr) }()

	if err := s.checkLimit(toolRun); err != nil {
		return nil, RunOutput{}, err
	}

	traj, err := s.runner.Run(ctx, s.options(args.SimParams))
	if err != nil {
		return nil, RunOutput{}, fmt.Errorf("run failed: %w", err)
	}
	return nil, summarize(traj, args.IncludeSeries), nil
}

// handleSweep implements the beliefsim_sweep tool.
func (s *Server) handleSweep(ctx context.Context, req *sdk.CallToolRequest, args SweepInput) (_ *sdk.CallToolResult, _ SweepOutput, retErr error) {
	start := time.Now()
	defer func() { s.logTool(toolSweep, start, retErr) }()

	if err := s.checkLimit(toolSweep); err != nil {
		return nil, SweepOutput{}, err
	}

	opts := s.options(args.SimParams)
	if len(args.TrustLevels) > 0 {
		opts.TrustLevels = args.TrustLevels
	}
	if args.Workers > 0 {
		opts.Workers = args.Workers
	}

	res, err := s.runner.Sweep(ctx, opts)
	if err != nil {
		return nil, SweepOutput{}, fmt.Errorf("sweep failed: %w", err)
	}

	out := SweepOutput{
		SweepID: res.SweepID,
		Seed:    res.Seed,
		Points:  make([]SweepPointOutput, len(res.Points)),
	}
	for i, p := range res.Points {
		out.Points[i] = SweepPointOutput{Trust: p.Trust, FinalBelief: p.FinalBelief}
	}
	return nil, out, nil
}

// handleGraph implements the beliefsim_graph tool.
func (s *Server) handleGraph(ctx context.Context, req *sdk.CallToolRequest, args GraphInput) (_ *sdk.CallToolResult, _ GraphOutput, retErr error) {
	start := time.Now()
	defer func() { s.logTool(toolGraph, start, retErr) }()

	if err := s.checkLimit(toolGraph); err != nil {
		return nil, GraphOutput{}, err
	}

	format := visualization.FormatJSON
	if args.Format != "" {
		f, err := visualization.ParseFormat(args.Format)
		if err != nil {
			return nil, GraphOutput{}, err
		}
		if f != visualization.FormatDOT && f != visualization.FormatJSON {
			return nil, GraphOutput{}, fmt.Errorf("format must be 'dot' or 'json', got %q", args.Format)
		}
		format = f
	}

	traj, err := s.runner.Run(ctx, s.options(args.SimParams))
	if err != nil {
		return nil, GraphOutput{}, fmt.Errorf("run failed: %w", err)
	}

	view := visualization.NewNetworkView(traj)
	out := GraphOutput{RunID: traj.RunID, Seed: traj.Seed, Format: string(format)}
	if format == visualization.FormatDOT {
		out.DOT = visualization.RenderDOT(view)
	} else {
		g := visualization.RenderGraphJSON(view)
		out.Graph = &g
	}
	return nil, out, nil
}

// summarize condenses a trajectory into the run tool's output.
func summarize(traj *simulation.Trajectory, includeSeries bool) RunOutput {
	out := RunOutput{
		RunID:          traj.RunID,
		Seed:           traj.Seed,
		Timesteps:      traj.Len(),
		InitialMeans:   map[string]float64{},
		FinalMeans:     map[string]float64{},
		FinalAverage:   traj.FinalAverage(),
		InterventionAt: traj.Options.InterventionStep,
	}
	if traj.Graph != nil {
		out.Edges = traj.Graph.EdgeCount()
	}

	for d, idx := range traj.Groups {
		sum := 0.0
		for _, i := range idx {
			sum += traj.Initial[i]
		}
		out.InitialMeans[d.String()] = sum / float64(len(idx))
	}
	if final, ok := traj.Final(); ok {
		out.FinalMeans = groupMap(final.GroupMeans)
	}

	for _, span := range simulation.Phases(traj.Len()) {
		if span.End <= span.Start {
			continue
		}
		out.Phases = append(out.Phases, PhaseSummary{
			Label:      span.Label,
			Start:      span.Start,
			End:        span.End - 1,
			GroupMeans: groupMap(traj.Snapshots[span.End-1].GroupMeans),
		})
	}

	for _, snap := range traj.Snapshots {
		out.CorrectionCount += snap.Corrections
		out.MisinfoCount += snap.Misinformation
	}

	if includeSeries {
		out.Series = make(map[string][]float64, len(traj.Groups))
		for d := range traj.Groups {
			out.Series[d.String()] = traj.GroupSeries(d)
		}
		out.RatePerStep = make([]float64, traj.Len())
		out.PhasePerStep = make([]propagation.Phase, traj.Len())
		for i, snap := range traj.Snapshots {
			out.RatePerStep[i] = snap.Rate
			out.PhasePerStep[i] = snap.Phase
		}
	}
	return out
}

func groupMap(means map[population.Demographic]float64) map[string]float64 {
	out := make(map[string]float64, len(means))
	for d, m := range means {
		out[d.String()] = m
	}
	return out
}
