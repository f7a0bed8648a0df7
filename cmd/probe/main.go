package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/probe/internal/config"
	proberrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/mcp"
	"github.com/standardbeagle/probe/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:                   "probe",
		Usage:                  "Code-aware search: matches expand to whole functions, classes, and structs, ranked by relevance",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags:                  searchFlags(),
		ArgsUsage:              "<pattern> [paths...]",
		Action:                 searchCommand,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search code using patterns",
				ArgsUsage: "<pattern> [paths...]",
				Flags:     searchFlags(),
				Action:    searchCommand,
			},
			{
				Name:      "extract",
				Usage:     "Extract code blocks from files (file or file:line)",
				ArgsUsage: "<file[:line]>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "allow-tests",
						Usage: "Allow test files and test code blocks in results",
					},
					&cli.IntFlag{
						Name:    "context",
						Aliases: []string{"c"},
						Usage:   "Context lines to include around the extracted block",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"o"},
						Usage:   "Output format: color, plain, json, markdown",
						Value:   "color",
					},
				},
				Action: extractCommand,
			},
			{
				Name:  "mcp",
				Usage: "Run as an MCP tool server over stdio",
				Action: func(c *cli.Context) error {
					server := mcp.NewServer()
					if err := server.Run(ctx); err != nil {
						return cli.Exit(fmt.Sprintf("mcp server: %v", err), 2)
					}
					return nil
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		// cli.Exit errors carry their own code; anything else is internal.
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(err)
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "files-only",
			Aliases: []string{"f"},
			Usage:   "Skip AST expansion and return one block per matching file",
		},
		&cli.StringSliceFlag{
			Name:    "ignore",
			Aliases: []string{"i"},
			Usage:   "Glob patterns to ignore (in addition to .gitignore and common patterns)",
		},
		&cli.BoolFlag{
			Name:  "include-filenames",
			Usage: "Include blocks from files whose names match query words",
		},
		&cli.StringFlag{
			Name:    "reranker",
			Aliases: []string{"r"},
			Usage:   "Reranking method: hybrid, hybrid2, bm25, tfidf",
			Value:   "hybrid",
		},
		&cli.BoolFlag{
			Name:    "frequency",
			Aliases: []string{"s"},
			Usage:   "Frequency-based search with stemming and stopword removal",
			Value:   true,
		},
		&cli.BoolFlag{
			Name:  "exact",
			Usage: "Exact matching without stemming or stopword removal",
		},
		&cli.IntFlag{
			Name:  "max-results",
			Usage: "Maximum number of results to return",
		},
		&cli.IntFlag{
			Name:  "max-bytes",
			Usage: "Maximum total bytes of code content to return",
		},
		&cli.IntFlag{
			Name:  "max-tokens",
			Usage: "Maximum total tokens in code content to return (for AI usage)",
		},
		&cli.BoolFlag{
			Name:  "allow-tests",
			Usage: "Allow test files and test code blocks in search results",
		},
		&cli.BoolFlag{
			Name:  "any-term",
			Usage: "Match blocks containing any query term instead of all terms",
		},
		&cli.BoolFlag{
			Name:  "merge-blocks",
			Usage: "Merge adjacent code blocks after ranking",
		},
		&cli.IntFlag{
			Name:  "merge-threshold",
			Usage: "Maximum lines between code blocks to consider them adjacent for merging",
			Value: config.Default().MergeThreshold,
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Output only file names and line numbers without full content",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"o"},
			Usage:   "Output format: color, plain, json, markdown",
			Value:   "color",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Config file path",
			Value: ".probe.toml",
		},
	}
}

// exitCodeFor maps error kinds to the CLI exit code contract:
// 1 for configuration errors, 2 for I/O and internal errors.
func exitCodeFor(err error) int {
	var cfgErr *proberrors.ConfigError
	if errors.As(err, &cfgErr) {
		return 1
	}
	return 2
}
