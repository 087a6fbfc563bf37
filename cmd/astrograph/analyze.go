package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/astrograph-io/astrograph/internal/output"
	"github.com/astrograph-io/astrograph/internal/progress"
	"github.com/astrograph-io/astrograph/pkg/astrograph"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Scan a codebase and report structurally duplicated code",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "thorough",
				Usage: "Lower the clustering thresholds to surface smaller, weaker duplicates",
			},
			&cli.StringSliceFlag{
				Name:  "lang",
				Usage: "Restrict the scan to these language ids (default: all registered plugins)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Worker pool size (default: 2x NumCPU)",
			},
			&cli.BoolFlag{
				Name:  "no-recommendations",
				Usage: "Skip the recommendation pass in the written report",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	rootPath := getPaths(c)

	engine, store, err := openEngine(c, rootPath)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := astrograph.Options{
		Languages:              c.StringSlice("lang"),
		MaxWorkers:              c.Int("workers"),
		IncludeRecommendations: !c.Bool("no-recommendations"),
	}
	if c.Bool("thorough") {
		opts.MinNodeCountExact = 2
		opts.MinNodeCountBlock = 2
		opts.MinBlockLines = 2
		opts.IncludeBlocks = true
	}

	tracker := progress.NewSpinner("Scanning and fingerprinting...")
	reportPath, summary, err := engine.Analyze(context.Background(), rootPath, opts)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("analyze failed: %w", err)
	}
	tracker.FinishSuccess()

	formatter, err := formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var rows [][]string
	for _, cl := range summary.Clusters {
		rows = append(rows, []string{
			cl.ClusterKey(),
			string(cl.Kind),
			cl.LanguageID,
			fmt.Sprintf("%d", len(cl.Members)),
			fmt.Sprintf("%d", cl.LineCount),
		})
	}

	table := output.NewTable(
		"Duplicate Clusters",
		[]string{"Cluster", "Kind", "Language", "Members", "Lines"},
		rows,
		[]string{
			fmt.Sprintf("Files: %d", summary.FilesScanned),
			fmt.Sprintf("Units: %d", summary.UnitsTotal),
			fmt.Sprintf("Filtered: %d", summary.UnitsFiltered),
			fmt.Sprintf("Clusters: %d", len(summary.Clusters)),
		},
		summary,
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if formatter.Format() == output.FormatText {
		fmt.Println()
		color.Green("Report written to %s", reportPath)
	}

	for _, f := range summary.FilesFailed {
		color.Yellow("skipped %s (%s): %s", f.Path, f.Kind, f.Message)
	}

	return nil
}
