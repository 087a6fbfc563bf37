package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func unsuppressCmd() *cli.Command {
	return &cli.Command{
		Name:      "unsuppress",
		Usage:     "Remove a previously declared suppression",
		ArgsUsage: "<cluster-key>",
		Action:    runUnsuppressCmd,
	}
}

func runUnsuppressCmd(c *cli.Context) error {
	clusterKey := c.Args().First()
	if clusterKey == "" {
		return fmt.Errorf("unsuppress requires a cluster key")
	}

	engine, store, err := openEngine(c, ".")
	if err != nil {
		return err
	}
	defer store.Close()

	if err := engine.Unsuppress(context.Background(), clusterKey); err != nil {
		return fmt.Errorf("unsuppress failed: %w", err)
	}

	color.Green("Unsuppressed %s", clusterKey)
	return nil
}
