// Package mcp provides an MCP (Model Context Protocol) server that runs
// belief propagation simulations on behalf of an agent.
package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/beliefsim/internal/logging"
	"github.com/nvandessel/beliefsim/internal/simulation"
	"golang.org/x/time/rate"
)

// Server wraps the MCP SDK server and the simulation runner behind it.
type Server struct {
	server   *sdk.Server
	runner   *simulation.Runner
	base     simulation.Options
	logger   *slog.Logger
	limiters map[string]*rate.Limiter
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "beliefsim")
	Version string // Server version

	// Base supplies every parameter a tool call leaves unset.
	Base simulation.Options

	Logger *slog.Logger
	Events *logging.EventLogger
}

// NewServer creates a new MCP server with the simulation tools registered.
func NewServer(cfg *Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:   mcpServer,
		runner:   simulation.NewRunner(logger, cfg.Events),
		base:     cfg.Base,
		logger:   logger,
		limiters: newToolLimiters(),
	}
	s.registerTools()

	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &sdk.StdioTransport{})
}
