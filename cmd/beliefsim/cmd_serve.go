package main

import (
	"fmt"
	"time"

	"github.com/nvandessel/beliefsim/internal/visualization"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report and its data over HTTP",
		Long: `Run a simulation and a trust sweep, then serve the HTML report together
with JSON and CSV endpoints until interrupted:

  /                     HTML report
  /api/trajectory       run trajectory (JSON)
  /api/trajectory.csv   per-step group means (CSV)
  /api/matrix/{group}   steps x agents beliefs of one group (JSON)
  /api/graph            contact network (JSON)
  /api/sweep            trust sweep (JSON)
  /api/sweep.csv        trust sweep (CSV)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			noSweep, _ := cmd.Flags().GetBool("no-sweep")
			noOpen, _ := cmd.Flags().GetBool("no-open")

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

			srv := visualization.NewServer(traj, sweep, sess.logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

			deadline := time.Now().Add(3 * time.Second)
			for srv.Addr() == "" && time.Now().Before(deadline) {
				select {
				case err := <-errCh:
					return fmt.Errorf("server error: %w", err)
				case <-time.After(10 * time.Millisecond):
				}
			}
			if srv.Addr() == "" {
				cancel()
				<-errCh
				return fmt.Errorf("server failed to start")
			}

			url := "http://" + srv.Addr()
			fmt.Fprintf(cmd.OutOrStdout(), "Report server running at %s\n", url)
			fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

			if !noOpen {
				if err := visualization.OpenBrowser(url); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
				}
			}

			if err := <-errCh; err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	addSimFlags(cmd)
	cmd.Flags().String("trust", "", "Comma-separated sweep trust levels (default 0.1,0.2,...,0.9)")
	cmd.Flags().Int("workers", 0, "Sweep runs in parallel (0 or 1 runs sequentially)")
	cmd.Flags().String("addr", "localhost:0", "Listen address")
	cmd.Flags().Bool("no-sweep", false, "Skip the trust sweep")
	cmd.Flags().Bool("no-open", false, "Don't open a browser")

	return cmd
}
