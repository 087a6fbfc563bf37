// Package mcpserver binds the seven astrograph_* MCP tools (spec §6,
// matching original_source/server.py's seven-tool contract) onto
// pkg/astrograph.Engine. It is a thin transport adapter: every handler
// unmarshals its input, calls straight into the Engine, and marshals
// the result back. No duplicate-detection logic lives here.
package mcpserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/astrograph-io/astrograph/pkg/astrograph"
	"github.com/astrograph-io/astrograph/pkg/discovery"
)

// Server wraps the MCP server and registers every astrograph tool
// against a single Engine and the root path it analyzes.
type Server struct {
	server   *mcp.Server
	engine   *astrograph.Engine
	rootPath string

	mu           sync.Mutex
	lastClusters []discovery.DuplicateCluster
	lastReport   string
	indexed      bool
}

// NewServer constructs an MCP server bound to engine and rootPath. It
// performs no I/O; call Warm before Run to index rootPath up front,
// matching the auto-index-at-startup behavior of the original tool,
// or let the first astrograph_analyze call index it lazily.
func NewServer(engine *astrograph.Engine, rootPath string, version string) *Server {
	if version == "" {
		version = "dev"
	}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{Name: "astrograph", Version: version},
		nil,
	)
	s := &Server{server: mcpServer, engine: engine, rootPath: rootPath}
	s.registerTools()
	return s
}

// Warm runs an initial analysis of rootPath so the first
// astrograph_analyze call (and astrograph_suppress_idiomatic) has a
// cached cluster set to work from, rather than indexing on demand.
func (s *Server) Warm(ctx context.Context) error {
	_, err := s.reindex(ctx, defaultThresholdOptions(true))
	return err
}

// Run starts the MCP server over stdio, the same transport the
// teacher's CLI exposes its own tool server over.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "astrograph_analyze",
		Description: describeAnalyze(),
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "astrograph_write",
		Description: describeWrite(),
	}, s.handleWrite)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "astrograph_edit",
		Description: describeEdit(),
	}, s.handleEdit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "astrograph_suppress",
		Description: describeSuppress(),
	}, s.handleSuppress)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "astrograph_unsuppress",
		Description: describeUnsuppress(),
	}, s.handleUnsuppress)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "astrograph_list_suppressions",
		Description: describeListSuppressions(),
	}, s.handleListSuppressions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "astrograph_suppress_idiomatic",
		Description: describeSuppressIdiomatic(),
	}, s.handleSuppressIdiomatic)
}

// reindex runs Engine.Analyze over s.rootPath and caches the
// resulting clusters and report path for reuse by astrograph_analyze
// (when auto_reindex is false) and astrograph_suppress_idiomatic.
func (s *Server) reindex(ctx context.Context, opts astrograph.Options) (discovery.Summary, error) {
	reportPath, summary, err := s.engine.Analyze(ctx, s.rootPath, opts)
	if err != nil {
		return discovery.Summary{}, fmt.Errorf("astrograph: reindex %s: %w", s.rootPath, err)
	}
	s.mu.Lock()
	s.lastClusters = summary.Clusters
	s.lastReport = reportPath
	s.indexed = true
	s.mu.Unlock()
	return summary, nil
}

func (s *Server) cached() ([]discovery.DuplicateCluster, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClusters, s.lastReport, s.indexed
}

// defaultThresholdOptions maps the analyze tool's thorough flag onto
// astrograph.Options: thorough lowers the significance thresholds so
// small duplicates surface too (spec §4.5's thresholds are a floor,
// not a ceiling every caller wants).
func defaultThresholdOptions(thorough bool) astrograph.Options {
	if thorough {
		return astrograph.Options{
			MinNodeCountExact:      2,
			MinNodeCountBlock:      2,
			MinBlockLines:          2,
			IncludeBlocks:          true,
			IncludeRecommendations: true,
		}
	}
	return astrograph.Options{IncludeRecommendations: true}
}
