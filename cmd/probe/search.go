package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/probe/internal/config"
	"github.com/standardbeagle/probe/internal/results"
	"github.com/standardbeagle/probe/internal/search"
	"github.com/standardbeagle/probe/pkg/pathutil"
)

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: probe <pattern> [paths...]", 1)
	}

	opts := config.Default()
	opts.Pattern = c.Args().First()
	if paths := c.Args().Tail(); len(paths) > 0 {
		opts.Paths = paths
	}
	opts.FilesOnly = c.Bool("files-only")
	opts.Ignore = c.StringSlice("ignore")
	opts.IncludeFilenames = c.Bool("include-filenames")
	opts.Reranker = c.String("reranker")
	opts.FrequencySearch = c.Bool("frequency")
	opts.Exact = c.Bool("exact")
	opts.MaxResults = c.Int("max-results")
	opts.MaxBytes = c.Int("max-bytes")
	opts.MaxTokens = c.Int("max-tokens")
	opts.AllowTests = c.Bool("allow-tests")
	opts.AnyTerm = c.Bool("any-term")
	opts.MergeBlocks = c.Bool("merge-blocks")
	opts.MergeThreshold = c.Int("merge-threshold")

	fileCfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	// Leave the reranker and size cap unset so the file's values apply;
	// an explicit --reranker still wins and Validate fills in defaults.
	if !c.IsSet("reranker") {
		opts.Reranker = ""
	}
	opts.MaxFileSize = 0
	fileCfg.Apply(&opts)

	start := time.Now()
	blocks, err := search.Search(c.Context, opts)
	if err != nil {
		return cli.Exit(err.Error(), exitCodeFor(err))
	}
	elapsed := time.Since(start)

	// Convert paths to root-relative for user-facing output.
	blocks = pathutil.ToRelativeBlocks(blocks, opts.Paths)

	return displayResults(c, blocks, elapsed)
}

const (
	ansiBold  = "\x1b[1m"
	ansiCyan  = "\x1b[36m"
	ansiReset = "\x1b[0m"
)

func displayResults(c *cli.Context, blocks []results.Block, elapsed time.Duration) error {
	format := c.String("format")

	if format == "json" {
		output := map[string]interface{}{
			"query":   c.Args().First(),
			"time_ms": float64(elapsed.Microseconds()) / 1000.0,
			"count":   len(blocks),
			"results": blocks,
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	fmt.Printf("Found %d results in %.1fms\n\n", len(blocks), float64(elapsed.Microseconds())/1000.0)

	dryRun := c.Bool("dry-run")
	for _, b := range blocks {
		header := blockHeader(b)
		switch format {
		case "color":
			fmt.Printf("%s%s%s%s\n", ansiBold, ansiCyan, header, ansiReset)
		case "markdown":
			fmt.Printf("### %s\n", header)
		default:
			fmt.Println(header)
		}
		if dryRun {
			fmt.Println()
			continue
		}
		if format == "markdown" {
			lang := b.Language
			fmt.Printf("```%s\n%s\n```\n\n", lang, b.Text)
			continue
		}
		if b.Text != "" {
			fmt.Println(b.Text)
		}
		fmt.Println()
	}
	return nil
}

func blockHeader(b results.Block) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%d-%d", b.Path, b.StartLine, b.EndLine)
	if b.NodeKind != "" {
		fmt.Fprintf(&sb, " (%s)", b.NodeKind)
	}
	if b.Score > 0 {
		fmt.Fprintf(&sb, " [score: %.3f]", b.Score)
	}
	return sb.String()
}
