package main

import (
	"fmt"
	"io"

	"github.com/nvandessel/beliefsim/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the contact network of a run",
		Long: `Run a simulation and output its contact network in DOT (Graphviz) or
JSON format. Nodes are colored by final belief and sized by PageRank.

Examples:
  beliefsim graph --seed 42 | neato -Tsvg > network.svg
  beliefsim graph --format json -o network.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			f, err := visualization.ParseFormat(format)
			if err != nil {
				return err
			}
			if f != visualization.FormatDOT && f != visualization.FormatJSON {
				return fmt.Errorf("unsupported format %q (use 'dot' or 'json')", format)
			}

			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			traj, err := sess.runner().Run(cmd.Context(), sess.opts)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}
			view := visualization.NewNetworkView(traj)

			render := func(w io.Writer) error {
				if f == visualization.FormatDOT {
					_, err := io.WriteString(w, visualization.RenderDOT(view))
					return err
				}
				return visualization.WriteJSON(w, visualization.RenderGraphJSON(view))
			}

			if output == "" {
				return render(cmd.OutOrStdout())
			}
			if err := writeFile(output, render); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Graph written to %s\n", output)
			return nil
		},
	}

	addSimFlags(cmd)
	cmd.Flags().String("format", "dot", "Output format: dot or json")
	cmd.Flags().StringP("output", "o", "", "Output file path (default stdout)")

	return cmd
}
