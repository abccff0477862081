package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/beliefsim/internal/population"
	"github.com/nvandessel/beliefsim/internal/simulation"
	"github.com/nvandessel/beliefsim/internal/visualization"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation",
		Long: `Run one belief propagation simulation and summarize it.

Settings come from the config file, overridden by flags.

Examples:
  beliefsim run                                  # Reference experiment
  beliefsim run --seed 42 --intervention-step 30 # Correction boost at step 30
  beliefsim run --save                           # Also write JSON and CSV to output.dir
  beliefsim run --json                           # Full trajectory as JSON`,
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

			traj, err := sess.runner().Run(ctx, sess.opts)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			if save {
				paths, err := saveTrajectory(sess.cfg.Output.Dir, traj)
				if err != nil {
					return err
				}
				for _, p := range paths {
					sess.logger.Info("wrote artifact", "path", p)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return visualization.WriteJSON(out, traj)
			}
			printRunSummary(out, traj)
			return nil
		},
	}

	addSimFlags(cmd)
	cmd.Flags().Bool("save", false, "Write trajectory JSON and CSV files to the output directory")

	return cmd
}

// saveTrajectory writes the trajectory as JSON, its per-step CSV and one
// belief matrix CSV per group. It returns the written paths.
func saveTrajectory(dir string, traj *simulation.Trajectory) ([]string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	type artifact struct {
		name  string
		write func(io.Writer) error
	}
	artifacts := []artifact{
		{"trajectory.json", func(w io.Writer) error { return visualization.WriteJSON(w, traj) }},
		{"trajectory.csv", func(w io.Writer) error { return visualization.WriteTrajectoryCSV(w, traj) }},
	}
	for _, d := range population.Demographics() {
		if _, ok := traj.Groups[d]; !ok {
			continue
		}
		artifacts = append(artifacts, artifact{
			name:  "beliefs_" + d.String() + ".csv",
			write: func(w io.Writer) error { return visualization.WriteMatrixCSV(w, traj, d) },
		})
	}

	var paths []string
	for _, a := range artifacts {
		path := filepath.Join(dir, a.name)
		if err := writeFile(path, a.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeFile creates path and fills it with write.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printRunSummary(w io.Writer, traj *simulation.Trajectory) {
	opts := traj.Options

	printTitle(w, "Simulation run")
	printField(w, "Run ID", traj.RunID)
	printField(w, "Seed", traj.Seed)
	printField(w, "Agents", opts.Agents)
	printField(w, "Timesteps", traj.Len())
	printField(w, "Misinformation rate", fmt.Sprintf("%.3f", opts.MisinformationRate))
	if traj.Graph != nil {
		printField(w, "Network", fmt.Sprintf("k=%d p=%.2f, %d edges, mean degree %.2f",
			opts.KNeighbors, opts.RewireProb, traj.Graph.EdgeCount(), traj.Graph.MeanDegree()))
	}
	if sched := opts.Schedule(); sched.HasIntervention() {
		printField(w, "Intervention", fmt.Sprintf("step %d, rate %.3f -> %.3f",
			*sched.InterventionStep, sched.BaselineRate, sched.PostRate))
	}
	fmt.Fprintln(w)

	groups := presentGroups(traj)
	headers := []string{"Phase", "Steps"}
	for _, d := range groups {
		headers = append(headers, d.String())
	}
	var rows [][]string
	for _, span := range simulation.Phases(traj.Len()) {
		if span.End <= span.Start {
			continue
		}
		row := []string{span.Label, fmt.Sprintf("%d-%d", span.Start, span.End-1)}
		snap := traj.Snapshots[span.End-1]
		for _, d := range groups {
			row = append(row, strconv.FormatFloat(snap.GroupMeans[d], 'f', 4, 64))
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(w, renderTable(headers, rows))
	fmt.Fprintln(w)

	printTitle(w, "Final mean belief")
	if final, ok := traj.Final(); ok {
		for _, d := range groups {
			m := final.GroupMeans[d]
			printField(w, d.String(), fmt.Sprintf("%s %.4f", beliefBar(m, 30), m))
		}
	}
	printField(w, "average", fmt.Sprintf("%.4f", traj.FinalAverage()))
}

func presentGroups(traj *simulation.Trajectory) []population.Demographic {
	var out []population.Demographic
	for _, d := range population.Demographics() {
		if _, ok := traj.Groups[d]; ok {
			out = append(out, d)
		}
	}
	return out
}
