package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func suppressCmd() *cli.Command {
	return &cli.Command{
		Name:      "suppress",
		Usage:     "Declare a cluster as a tolerated duplicate",
		ArgsUsage: "<cluster-key> <reason>",
		Action:    runSuppressCmd,
	}
}

func runSuppressCmd(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("suppress requires <cluster-key> <reason>")
	}
	clusterKey := c.Args().Get(0)
	reason := c.Args().Get(1)

	engine, store, err := openEngine(c, ".")
	if err != nil {
		return err
	}
	defer store.Close()

	if err := engine.Suppress(context.Background(), clusterKey, reason); err != nil {
		return fmt.Errorf("suppress failed: %w", err)
	}

	color.Green("Suppressed %s: %s", clusterKey, reason)
	return nil
}
