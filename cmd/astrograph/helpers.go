package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/astrograph-io/astrograph/internal/output"
	"github.com/astrograph-io/astrograph/internal/registry"
	"github.com/astrograph-io/astrograph/pkg/astrograph"
	"github.com/astrograph-io/astrograph/pkg/config"
	"github.com/astrograph-io/astrograph/pkg/discovery"
	"github.com/astrograph-io/astrograph/pkg/index"
)

// openEngine loads config, opens the index store rooted at
// cfg.Index.Dir under rootPath, and builds an Engine over the full
// language registry. The caller owns closing the returned store.
func openEngine(c *cli.Context, rootPath string) (*astrograph.Engine, *index.Store, error) {
	cfg := loadConfig(c)

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid path %s: %w", rootPath, err)
	}

	storeDir := cfg.Index.Dir
	if !filepath.IsAbs(storeDir) {
		storeDir = filepath.Join(absRoot, storeDir)
	}
	store, err := index.Open(storeDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open index at %s: %w", storeDir, err)
	}

	reg := registry.All()
	engine := astrograph.New(reg, store,
		astrograph.WithVersion(version),
		astrograph.WithThresholds(thresholdsFromConfig(cfg)),
	)
	return engine, store, nil
}

func loadConfig(c *cli.Context) *config.Config {
	if path := c.String("config"); path != "" {
		if cfg, err := config.Load(path); err == nil {
			return cfg
		}
	}
	return config.LoadOrDefault()
}

func thresholdsFromConfig(cfg *config.Config) discovery.Thresholds {
	return discovery.Thresholds{
		MinNodeCountExact: cfg.Thresholds.MinNodeCountExact,
		MinNodeCountBlock: cfg.Thresholds.MinNodeCountBlock,
		MinBlockLines:     cfg.Thresholds.MinBlockLines,
		IncludeBlocks:     cfg.Thresholds.IncludeBlocks,
	}
}

func formatter(c *cli.Context) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
}

// clusterTable renders a write/edit pre-create check result: zero
// clusters means the content is clear to create.
func clusterTable(clusters []discovery.DuplicateCluster) *output.Table {
	var rows [][]string
	for _, cl := range clusters {
		rows = append(rows, []string{
			cl.ClusterKey(),
			string(cl.Kind),
			cl.LanguageID,
			fmt.Sprintf("%d", len(cl.Members)),
			fmt.Sprintf("%d", cl.LineCount),
		})
	}
	footer := []string{fmt.Sprintf("Matches: %d", len(clusters))}
	return output.NewTable("Pre-create Duplicate Check", []string{"Cluster", "Kind", "Language", "Members", "Lines"}, rows, footer, clusters)
}
