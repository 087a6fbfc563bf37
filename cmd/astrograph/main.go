package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPaths returns the root path from positional args, defaulting to ".".
// Unlike the teacher's multi-root CLI, astrograph's engine analyzes one
// root at a time, so only the first argument is honored.
func getPaths(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

func main() {
	app := &cli.App{
		Name:     "astrograph",
		Usage:    "Structural code duplication detector",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `astrograph finds structurally duplicated functions, classes, and
code blocks across a codebase by fingerprinting each unit's parse
tree, rather than diffing text. It persists its index and suppressions
between runs (each analyze rescans the whole tree), and exposes the same checks over stdio as MCP
tools for editor and agent integration.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"ASTROGRAPH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			writeCmd(),
			editCmd(),
			suppressCmd(),
			unsuppressCmd(),
			listSuppressionsCmd(),
			mcpCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
