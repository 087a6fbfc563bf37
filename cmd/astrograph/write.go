package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func writeCmd() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "Pre-create check: would this file's content duplicate existing code",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "content",
				Usage: "File content to check (default: read file from disk)",
			},
		},
		Action: runWriteCmd,
	}
}

func runWriteCmd(c *cli.Context) error {
	filePath := c.Args().First()
	if filePath == "" {
		return fmt.Errorf("write requires a file path")
	}

	content := []byte(c.String("content"))
	if len(content) == 0 {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("read %s: %w", filePath, err)
		}
		content = raw
	}

	engine, store, err := openEngine(c, ".")
	if err != nil {
		return err
	}
	defer store.Close()

	clusters, err := engine.Write(context.Background(), filePath, content)
	if err != nil {
		return fmt.Errorf("write check failed: %w", err)
	}

	formatter, err := formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(clusterTable(clusters))
}
