package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/astrograph-io/astrograph/pkg/astrograph"
)

func editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Pre-create check: would replacing a line range duplicate existing code",
		ArgsUsage: "<file> <start-line> <end-line> <new-text>",
		Action:    runEditCmd,
	}
}

func runEditCmd(c *cli.Context) error {
	if c.Args().Len() < 4 {
		return fmt.Errorf("edit requires <file> <start-line> <end-line> <new-text>")
	}
	filePath := c.Args().Get(0)
	var start, end int
	if _, err := fmt.Sscanf(c.Args().Get(1), "%d", &start); err != nil {
		return fmt.Errorf("invalid start-line: %w", err)
	}
	if _, err := fmt.Sscanf(c.Args().Get(2), "%d", &end); err != nil {
		return fmt.Errorf("invalid end-line: %w", err)
	}
	newText := c.Args().Get(3)

	engine, store, err := openEngine(c, ".")
	if err != nil {
		return err
	}
	defer store.Close()

	clusters, err := engine.Edit(context.Background(), filePath, []astrograph.Edit{
		{StartLine: start, EndLine: end, NewText: newText},
	})
	if err != nil {
		return fmt.Errorf("edit check failed: %w", err)
	}

	formatter, err := formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(clusterTable(clusters))
}
