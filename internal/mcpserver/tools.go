package mcpserver

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/astrograph-io/astrograph/pkg/astrograph"
	"github.com/astrograph-io/astrograph/pkg/discovery"
	"github.com/astrograph-io/astrograph/pkg/recommend"
)

// AnalyzeInput is the astrograph_analyze tool's argument shape,
// matching original_source/server.py's thorough/auto_reindex pair.
type AnalyzeInput struct {
	Thorough    bool   `json:"thorough,omitempty" jsonschema:"Surface small duplicates too (~2+ nodes). Default false."`
	AutoReindex bool   `json:"auto_reindex,omitempty" jsonschema:"Re-walk and re-fingerprint the tree before clustering. Default false; a server with no cached analysis always indexes on the first call."`
	Format      string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	f := parseFormat(input.Format)
	// AutoReindex's JSON zero value (false) is indistinguishable from
	// an explicit false, so a server with no cached index yet always
	// reindexes on first call regardless of the flag.
	_, _, indexed := s.cached()
	if input.AutoReindex || !indexed {
		if _, err := s.reindex(ctx, defaultThresholdOptions(input.Thorough)); err != nil {
			return toolError(err.Error())
		}
	}

	clusters, reportPath, _ := s.cached()
	view := analysisView{
		ReportPath: reportPath,
		Clusters:   toClusterViews(clusters),
	}
	view.Recommended = toRecommendationViews(recommend.NewEngine().Recommend(clusters))
	return toolResult(view, f)
}

// WriteInput is the astrograph_write tool's argument shape.
type WriteInput struct {
	FilePath string `json:"file_path" jsonschema:"Path the content would be written to."`
	Content  string `json:"content" jsonschema:"The code content to check before writing."`
	Format   string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

func (s *Server) handleWrite(ctx context.Context, req *mcp.CallToolRequest, input WriteInput) (*mcp.CallToolResult, any, error) {
	f := parseFormat(input.Format)
	clusters, err := s.engine.Write(ctx, input.FilePath, []byte(input.Content))
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(writeCheckView{
		Blocked:  hasExactCluster(clusters),
		Clusters: toClusterViews(clusters),
	}, f)
}

// EditInput is the astrograph_edit tool's argument shape. old_string
// must occur exactly once in the current file content; its line span
// is what gets replaced and re-checked, mirroring
// original_source/server.py's old_string/new_string contract over
// this module's line-range Edit primitive.
type EditInput struct {
	FilePath  string `json:"file_path" jsonschema:"Path to the file to check an edit against."`
	OldString string `json:"old_string" jsonschema:"The exact text to replace; must be unique in the file."`
	NewString string `json:"new_string" jsonschema:"The replacement content."`
	Format    string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

func (s *Server) handleEdit(ctx context.Context, req *mcp.CallToolRequest, input EditInput) (*mcp.CallToolResult, any, error) {
	f := parseFormat(input.Format)
	content, err := os.ReadFile(input.FilePath)
	if err != nil {
		return toolError(err.Error())
	}
	startLine, endLine, err := locateUnique(string(content), input.OldString)
	if err != nil {
		return toolError(err.Error())
	}
	clusters, err := s.engine.Edit(ctx, input.FilePath, []astrograph.Edit{
		{StartLine: startLine, EndLine: endLine, NewText: input.NewString},
	})
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(writeCheckView{
		Blocked:  hasExactCluster(clusters),
		Clusters: toClusterViews(clusters),
	}, f)
}

type writeCheckView struct {
	Blocked  bool          `json:"blocked"`
	Clusters []clusterView `json:"clusters"`
}

func hasExactCluster(clusters []discovery.DuplicateCluster) bool {
	for _, c := range clusters {
		if c.Kind == discovery.KindExact {
			return true
		}
	}
	return false
}

// SuppressInput is the astrograph_suppress tool's argument shape.
type SuppressInput struct {
	ClusterKey string `json:"cluster_key" jsonschema:"The cluster key shown in astrograph_analyze output."`
	Reason     string `json:"reason" jsonschema:"Why this cluster is being tolerated."`
}

func (s *Server) handleSuppress(ctx context.Context, req *mcp.CallToolRequest, input SuppressInput) (*mcp.CallToolResult, any, error) {
	if err := s.engine.Suppress(ctx, input.ClusterKey, input.Reason); err != nil {
		return toolError(err.Error())
	}
	return toolResult(map[string]any{"ok": true, "cluster_key": input.ClusterKey}, formatTOON)
}

// UnsuppressInput is the astrograph_unsuppress tool's argument shape.
type UnsuppressInput struct {
	ClusterKey string `json:"cluster_key" jsonschema:"The cluster key to remove the suppression from."`
}

func (s *Server) handleUnsuppress(ctx context.Context, req *mcp.CallToolRequest, input UnsuppressInput) (*mcp.CallToolResult, any, error) {
	if err := s.engine.Unsuppress(ctx, input.ClusterKey); err != nil {
		return toolError(err.Error())
	}
	return toolResult(map[string]any{"ok": true, "cluster_key": input.ClusterKey}, formatTOON)
}

// ListSuppressionsInput takes no arguments.
type ListSuppressionsInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

func (s *Server) handleListSuppressions(ctx context.Context, req *mcp.CallToolRequest, input ListSuppressionsInput) (*mcp.CallToolResult, any, error) {
	f := parseFormat(input.Format)
	sups, err := s.engine.ListSuppressions(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(toSuppressionViews(sups), f)
}

// SuppressIdiomaticInput takes no arguments: it always acts on the
// most recently analyzed cluster set, reindexing first if nothing has
// been analyzed yet in this server's lifetime.
type SuppressIdiomaticInput struct{}

func (s *Server) handleSuppressIdiomatic(ctx context.Context, req *mcp.CallToolRequest, input SuppressIdiomaticInput) (*mcp.CallToolResult, any, error) {
	clusters, _, indexed := s.cached()
	if !indexed {
		summary, err := s.reindex(ctx, defaultThresholdOptions(false))
		if err != nil {
			return toolError(err.Error())
		}
		clusters = summary.Clusters
	}
	count, err := s.engine.SuppressIdiomatic(ctx, clusters)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(map[string]any{"suppressed": count}, formatTOON)
}

// locateUnique returns the 1-based inclusive line span of needle's
// single occurrence in content, or an error if it occurs zero or
// more than once.
func locateUnique(content, needle string) (start, end int, err error) {
	idx := strings.Index(content, needle)
	if idx < 0 {
		return 0, 0, fmt.Errorf("old_string not found")
	}
	if strings.Index(content[idx+1:], needle) >= 0 {
		return 0, 0, fmt.Errorf("old_string is not unique in file")
	}
	start = strings.Count(content[:idx], "\n") + 1
	end = start + strings.Count(needle, "\n")
	return start, end, nil
}
