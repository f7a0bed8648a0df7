package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/probe/internal/extract"
	"github.com/standardbeagle/probe/internal/language"
	"github.com/standardbeagle/probe/internal/results"
	"github.com/standardbeagle/probe/internal/scanner"
)

func extractCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: probe extract <file[:line]>...", 1)
	}

	allowTests := c.Bool("allow-tests")
	contextLines := c.Int("context")

	var blocks []results.Block
	for _, arg := range c.Args().Slice() {
		path, line, err := parseFileArg(arg)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		extracted, err := extractFromFile(path, line, allowTests, contextLines)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		blocks = append(blocks, extracted...)
	}

	return displayExtracted(c, blocks)
}

// parseFileArg splits "file.rs:10" into path and line; a bare path
// extracts the whole file. Windows drive letters are left intact.
func parseFileArg(arg string) (string, int, error) {
	idx := strings.LastIndex(arg, ":")
	if idx <= 1 {
		return arg, 0, nil
	}
	line, err := strconv.Atoi(arg[idx+1:])
	if err != nil {
		// Not a line suffix; treat the whole argument as a path.
		return arg, 0, nil
	}
	if line < 1 {
		return "", 0, fmt.Errorf("invalid line number in %q", arg)
	}
	return arg[:idx], line, nil
}

func extractFromFile(path string, line int, allowTests bool, contextLines int) ([]results.Block, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	lines := strings.Split(string(source), "\n")

	var extracted []extract.Block
	if line > 0 {
		fh := scanner.FileHits{
			Path:   path,
			Source: source,
			Hits:   []scanner.Hit{{Line: line}},
		}
		extracted = extract.File(fh)
	} else {
		adapter := language.ForPath(path)
		name := ""
		isTest := false
		if adapter != nil {
			name = adapter.Name
			isTest = adapter.FileIsTest(path)
		}
		extracted = []extract.Block{{
			Path:      path,
			Language:  name,
			StartLine: 1,
			EndLine:   len(lines),
			NodeKind:  "file",
			Text:      string(source),
			IsTest:    isTest,
		}}
	}

	var out []results.Block
	for _, b := range extracted {
		if b.IsTest && !allowTests {
			continue
		}
		if contextLines > 0 && b.StartLine >= 1 {
			b.StartLine = max(1, b.StartLine-contextLines)
			b.EndLine = min(len(lines), b.EndLine+contextLines)
			b.Text = strings.Join(lines[b.StartLine-1:b.EndLine], "\n")
		}
		out = append(out, results.Block{
			Path:      b.Path,
			Language:  b.Language,
			StartLine: b.StartLine,
			EndLine:   b.EndLine,
			NodeKind:  b.NodeKind,
			IsTest:    b.IsTest,
			Text:      b.Text,
		})
	}
	return out, nil
}

func displayExtracted(c *cli.Context, blocks []results.Block) error {
	format := c.String("format")
	if format == "json" {
		return json.NewEncoder(os.Stdout).Encode(blocks)
	}
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
		if format == "markdown" {
			fmt.Printf("```%s\n%s\n```\n\n", b.Language, b.Text)
			continue
		}
		fmt.Println(b.Text)
		fmt.Println()
	}
	return nil
}
