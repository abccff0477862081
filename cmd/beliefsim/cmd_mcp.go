package main

import (
	"fmt"

	"github.com/nvandessel/beliefsim/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run an MCP server over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the
beliefsim_run, beliefsim_sweep and beliefsim_graph tools. Tool calls start
from the configured settings and override only the parameters they pass.

Logs go to stderr so they never interleave with the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "beliefsim",
				Version: version,
				Base:    sess.opts,
				Logger:  sess.logger,
				Events:  sess.events,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			sess.logger.Info("mcp server starting", "version", version)
			return server.Run(ctx)
		},
	}
}
