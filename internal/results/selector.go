// Package results applies the final selection pipeline to the ranked
// list: test filtering, adjacent-block merging, and deterministic
// byte/token/count budget truncation.
package results

import (
	"os"
	"sort"
	"strings"

	"github.com/standardbeagle/probe/internal/debug"
	"github.com/standardbeagle/probe/internal/query"
	"github.com/standardbeagle/probe/internal/rank"
)

// DefaultMergeThreshold is the maximum line gap between two blocks of
// the same file for them to be considered adjacent when merging.
const DefaultMergeThreshold = 5

// Block is one search result.
type Block struct {
	Path       string             `json:"path"`
	Language   string             `json:"language,omitempty"`
	StartLine  int                `json:"start_line"`
	EndLine    int                `json:"end_line"`
	NodeKind   string             `json:"node_kind"`
	IsTest     bool               `json:"is_test"`
	Text       string             `json:"text"`
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"score_components,omitempty"`
}

// Options configures the selection pipeline.
type Options struct {
	AllowTests     bool
	MergeBlocks    bool
	MergeThreshold int

	// Budgets; 0 means unset. Applied in order: results, bytes, tokens.
	MaxResults int
	MaxBytes   int
	MaxTokens  int

	// LoadSource supplies file content for merged block text. Defaults
	// to os.ReadFile; injectable for tests.
	LoadSource func(path string) ([]byte, error)
}

// Select runs the pipeline over the ranked list and returns the final
// ordered results.
func Select(ranked []rank.Scored, opts Options) []Block {
	blocks := make([]Block, 0, len(ranked))
	for _, s := range ranked {
		b := s.Stats.Block
		if b.IsTest && !opts.AllowTests {
			continue
		}
		blocks = append(blocks, Block{
			Path:       b.Path,
			Language:   b.Language,
			StartLine:  b.StartLine,
			EndLine:    b.EndLine,
			NodeKind:   b.NodeKind,
			IsTest:     b.IsTest,
			Text:       b.Text,
			Score:      s.Score,
			Components: s.Components,
		})
	}

	if opts.MergeBlocks {
		threshold := opts.MergeThreshold
		if threshold <= 0 {
			threshold = DefaultMergeThreshold
		}
		blocks = Merge(blocks, threshold, opts.LoadSource)
		sortByScore(blocks)
	}

	return truncate(blocks, opts)
}

// Merge collapses same-file blocks whose gap is at most threshold lines.
// A merged block spans the union, takes the max constituent score, and
// reports node kind "merged". Merging is idempotent.
func Merge(blocks []Block, threshold int, loadSource func(string) ([]byte, error)) []Block {
	if len(blocks) < 2 {
		return blocks
	}
	if loadSource == nil {
		loadSource = os.ReadFile
	}

	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].StartLine < sorted[j].StartLine
	})

	out := make([]Block, 0, len(sorted))
	cur := sorted[0]
	curMerged := false
	for _, next := range sorted[1:] {
		adjacent := next.Path == cur.Path &&
			cur.StartLine > 0 && next.StartLine > 0 &&
			next.StartLine-cur.EndLine <= threshold
		if !adjacent {
			out = append(out, finishMerge(cur, curMerged, loadSource))
			cur = next
			curMerged = false
			continue
		}
		if next.EndLine > cur.EndLine {
			cur.EndLine = next.EndLine
		}
		if next.Score > cur.Score {
			cur.Score = next.Score
			cur.Components = next.Components
		}
		cur.IsTest = cur.IsTest || next.IsTest
		curMerged = true
	}
	out = append(out, finishMerge(cur, curMerged, loadSource))
	return out
}

func finishMerge(b Block, merged bool, loadSource func(string) ([]byte, error)) Block {
	if !merged {
		return b
	}
	b.NodeKind = "merged"
	source, err := loadSource(b.Path)
	if err != nil {
		debug.Log("SELECT", "merged text reload failed for %s: %v", b.Path, err)
		return b
	}
	lines := strings.Split(string(source), "\n")
	if b.StartLine >= 1 && b.EndLine <= len(lines) {
		b.Text = strings.Join(lines[b.StartLine-1:b.EndLine], "\n")
	}
	return b
}

func sortByScore(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Score != blocks[j].Score {
			return blocks[i].Score > blocks[j].Score
		}
		if blocks[i].Path != blocks[j].Path {
			return blocks[i].Path < blocks[j].Path
		}
		return blocks[i].StartLine < blocks[j].StartLine
	})
}

// truncate applies the budgets greedily over the sorted order; no
// reordering to better fit a budget.
func truncate(blocks []Block, opts Options) []Block {
	if opts.MaxResults > 0 && len(blocks) > opts.MaxResults {
		blocks = blocks[:opts.MaxResults]
	}
	if opts.MaxBytes > 0 {
		total := 0
		kept := blocks[:0:0]
		for _, b := range blocks {
			if total+len(b.Text) > opts.MaxBytes {
				break
			}
			total += len(b.Text)
			kept = append(kept, b)
		}
		blocks = kept
	}
	if opts.MaxTokens > 0 {
		total := 0
		kept := blocks[:0:0]
		for _, b := range blocks {
			n := CountTokens(b.Text)
			if total+n > opts.MaxTokens {
				break
			}
			total += n
			kept = append(kept, b)
		}
		blocks = kept
	}
	return blocks
}

// CountTokens approximates a block's token count by splitting on
// whitespace and punctuation. Approximate, but stable across runs.
func CountTokens(text string) int {
	return len(query.SplitTokens(text))
}
