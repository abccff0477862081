package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/beliefsim/internal/simulation"
	"github.com/nvandessel/beliefsim/internal/visualization"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write an HTML report of a run and a trust sweep",
		Long: `Run a simulation and a trust sweep with the same settings, then write a
self-contained HTML report with the group mean belief chart, per-group belief
heatmaps (intervention marked) and the final-belief-versus-trust curve.

Examples:
  beliefsim report --seed 42 --intervention-step 30
  beliefsim report --no-sweep --open
  beliefsim report -o /tmp/belief.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			noSweep, _ := cmd.Flags().GetBool("no-sweep")
			open, _ := cmd.Flags().GetBool("open")

			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			traj, sweep, err := runExperiment(ctx, sess, !noSweep)
			if err != nil {
				return err
			}

			page, err := visualization.RenderReport(visualization.ReportInput{
				Trajectory: traj,
				Sweep:      sweep,
			})
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}

			outPath := output
			if outPath == "" {
				if err := os.MkdirAll(sess.cfg.Output.Dir, 0700); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
				outPath = filepath.Join(sess.cfg.Output.Dir, "report.html")
			}
			if err := os.WriteFile(outPath, page, 0600); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outPath)

			if open {
				if err := visualization.OpenBrowser(outPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, outPath)
				}
			}
			return nil
		},
	}

	addSimFlags(cmd)
	cmd.Flags().String("trust", "", "Comma-separated sweep trust levels (default 0.1,0.2,...,0.9)")
	cmd.Flags().Int("workers", 0, "Sweep runs in parallel (0 or 1 runs sequentially)")
	cmd.Flags().StringP("output", "o", "", "Report path (default <output.dir>/report.html)")
	cmd.Flags().Bool("no-sweep", false, "Skip the trust sweep")
	cmd.Flags().Bool("open", false, "Open the report in a browser")

	return cmd
}

// runExperiment runs the configured simulation and, when withSweep is set,
// the trust sweep over the same options.
func runExperiment(ctx context.Context, sess *session, withSweep bool) (*simulation.Trajectory, *simulation.SweepResult, error) {
	runner := sess.runner()

	traj, err := runner.Run(ctx, sess.opts)
	if err != nil {
		return nil, nil, fmt.Errorf("run failed: %w", err)
	}
	if !withSweep {
		return traj, nil, nil
	}

	// Replay the sweep from the run's seed so an unseeded report is still
	// consistent with itself.
	opts := sess.opts
	opts.Seed = simulation.SeedOf(traj.Seed)
	sweep, err := runner.Sweep(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("sweep failed: %w", err)
	}
	return traj, sweep, nil
}
