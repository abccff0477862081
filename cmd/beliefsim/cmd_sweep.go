package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nvandessel/beliefsim/internal/simulation"
	"github.com/nvandessel/beliefsim/internal/visualization"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep final belief across trust levels",
		Long: `Repeat the simulation once per trust level, overriding every agent's
trust with that level, and report the final average belief of each run.

Each level runs on its own random stream derived from the seed, so a point
does not depend on which other levels are swept or on --workers.

Examples:
  beliefsim sweep --seed 7
  beliefsim sweep --trust 0,0.25,0.5,0.75,1 --workers 4
  beliefsim sweep --save      # Also write sweep.json and sweep.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			save, _ := cmd.Flags().GetBool("save")

			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			res, err := sess.runner().Sweep(ctx, sess.opts)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}

			if save {
				if err := saveSweep(sess.cfg.Output.Dir, res); err != nil {
					return err
				}
				sess.logger.Info("wrote sweep", "dir", sess.cfg.Output.Dir)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return visualization.WriteJSON(out, res)
			}
			printSweepSummary(out, res)
			return nil
		},
	}

	addSimFlags(cmd)
	cmd.Flags().String("trust", "", "Comma-separated trust levels (default 0.1,0.2,...,0.9)")
	cmd.Flags().Int("workers", 0, "Runs in parallel (0 or 1 runs sequentially)")
	cmd.Flags().Bool("save", false, "Write sweep JSON and CSV files to the output directory")

	return cmd
}

func saveSweep(dir string, res *simulation.SweepResult) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeFile(filepath.Join(dir, "sweep.json"), func(w io.Writer) error {
		return visualization.WriteJSON(w, res)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, "sweep.csv"), func(w io.Writer) error {
		return visualization.WriteSweepCSV(w, res)
	})
}

func printSweepSummary(w io.Writer, res *simulation.SweepResult) {
	printTitle(w, "Trust sweep")
	printField(w, "Sweep ID", res.SweepID)
	printField(w, "Seed", res.Seed)
	printField(w, "Levels", len(res.Points))
	fmt.Fprintln(w)

	rows := make([][]string, len(res.Points))
	for i, p := range res.Points {
		rows[i] = []string{
			fmt.Sprintf("%.3f", p.Trust),
			fmt.Sprintf("%.4f", p.FinalBelief),
			beliefBar(p.FinalBelief, 20),
		}
	}
	fmt.Fprintln(w, renderTable([]string{"Trust", "Final belief", ""}, rows))
}
