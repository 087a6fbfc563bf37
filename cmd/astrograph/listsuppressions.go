package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/astrograph-io/astrograph/internal/output"
)

func listSuppressionsCmd() *cli.Command {
	return &cli.Command{
		Name:   "list-suppressions",
		Usage:  "List every currently active suppression",
		Action: runListSuppressionsCmd,
	}
}

func runListSuppressionsCmd(c *cli.Context) error {
	engine, store, err := openEngine(c, ".")
	if err != nil {
		return err
	}
	defer store.Close()

	sups, err := engine.ListSuppressions(context.Background())
	if err != nil {
		return fmt.Errorf("list suppressions failed: %w", err)
	}

	formatter, err := formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var rows [][]string
	for _, s := range sups {
		rows = append(rows, []string{s.ClusterKey, s.Reason, s.CreatedAt.Format(time.RFC3339)})
	}
	table := output.NewTable(
		"Active Suppressions",
		[]string{"Cluster", "Reason", "Created"},
		rows,
		[]string{fmt.Sprintf("Total: %d", len(sups))},
		sups,
	)
	return formatter.Output(table)
}
