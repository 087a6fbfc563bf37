package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/astrograph-io/astrograph/internal/mcpserver"
	"github.com/astrograph-io/astrograph/internal/registry"
	"github.com/astrograph-io/astrograph/pkg/astrograph"
	"github.com/astrograph-io/astrograph/pkg/config"
	"github.com/astrograph-io/astrograph/pkg/watch"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:      "mcp",
		Usage:     "Start the MCP server over stdio for editor and agent integration",
		ArgsUsage: "[path]",
		Description: `Starts an MCP server over stdio transport exposing astrograph_analyze,
astrograph_write, astrograph_edit, astrograph_suppress, astrograph_unsuppress,
astrograph_list_suppressions, and astrograph_suppress_idiomatic as tools.

Set ASTROGRAPH_EVENT_DRIVEN=1 (or enable index.event_driven in the config
file) to keep the index warm as files change instead of only reindexing on
explicit astrograph_analyze calls.

To use with Claude Desktop or another MCP client, add:
  {
    "mcpServers": {
      "astrograph": {
        "command": "astrograph",
        "args": ["mcp"]
      }
    }
  }`,
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	rootPath := getPaths(c)
	cfg := loadConfig(c)

	engine, store, err := openEngine(c, rootPath)
	if err != nil {
		return err
	}
	defer store.Close()

	server := mcpserver.NewServer(engine, rootPath, version)

	ctx := context.Background()
	if err := server.Warm(ctx); err != nil {
		color.Yellow("initial index warm-up failed: %v", err)
	}

	if eventDriven(cfg) {
		reg := registry.All()
		debounce := time.Duration(cfg.Index.WatchDebounceMS) * time.Millisecond
		watcher, err := watch.NewWatcher(rootPath, cfg, debounce, reg)
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		watcher.SetCallback(func(path string) {
			if _, _, err := engine.Analyze(ctx, rootPath, astrograph.Options{IncludeRecommendations: true}); err != nil {
				color.Yellow("reindex after change to %s failed: %v", path, err)
			}
		})
		go func() {
			if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
				color.Yellow("watcher stopped: %v", err)
			}
		}()
		defer watcher.Stop()
	}

	return server.Run(ctx)
}

// eventDriven honors both the config file's index.event_driven setting
// and an ASTROGRAPH_EVENT_DRIVEN env override, matching how the rest of
// this CLI lets env vars shadow config (spec §6).
func eventDriven(cfg *config.Config) bool {
	if v := os.Getenv("ASTROGRAPH_EVENT_DRIVEN"); v != "" {
		return v != "0" && v != "false"
	}
	return cfg.Index.EventDriven
}
