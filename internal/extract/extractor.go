// Package extract lifts line-level hits to the smallest enclosing
// syntactic unit. Each file is parsed once; every hit line climbs the
// AST to the nearest acceptable parent, overlapping candidates collapse
// to the outermost span, and files without a usable tree fall back to
// line-only blocks.
package extract

import (
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/probe/internal/language"
	"github.com/standardbeagle/probe/internal/scanner"
)

// Block is one extracted code region. Lines are 1-based inclusive; a
// files-only block uses StartLine = EndLine = 0.
type Block struct {
	Path      string
	Language  string
	StartLine int
	EndLine   int
	NodeKind  string
	Text      string
	IsTest    bool
	LineHits  []int

	// HitTerms is the union of query-term indices matched by the hits
	// inside this block, as recorded by the scanner.
	HitTerms []int

	// FilenameOnly marks a block synthesized because the file's path
	// matched query terms without any content hit.
	FilenameOnly bool
}

// NumLines returns the number of lines the block spans.
func (b *Block) NumLines() int {
	if b.EndLine < b.StartLine {
		return 0
	}
	return b.EndLine - b.StartLine + 1
}

// File extracts the non-overlapping blocks for one file's hits.
func File(fh scanner.FileHits) []Block {
	adapter := language.ForPath(fh.Path)

	fileIsTest := adapter != nil && adapter.FileIsTest(fh.Path)

	// Synthetic whole-file hits (files-only mode, filename matches).
	if len(fh.Hits) == 1 && fh.Hits[0].Line == 0 {
		return []Block{{
			Path:         fh.Path,
			Language:     adapterName(adapter),
			StartLine:    0,
			EndLine:      0,
			NodeKind:     "file",
			IsTest:       fileIsTest,
			LineHits:     []int{0},
			HitTerms:     fh.Hits[0].Terms,
			FilenameOnly: fh.FilenameOnly,
		}}
	}

	lines := strings.Split(string(fh.Source), "\n")

	var candidates []candidate
	switch {
	case adapter == nil:
		candidates = lineCandidates(fh.Hits)
	case adapter.IsMarkdown():
		candidates = markdownCandidates(lines, fh.Hits)
	default:
		candidates = astCandidates(adapter, fh.Source, fh.Hits)
		if candidates == nil {
			candidates = lineCandidates(fh.Hits)
		}
	}

	merged := mergeCandidates(candidates)

	blocks := make([]Block, 0, len(merged))
	for _, c := range merged {
		b := Block{
			Path:      fh.Path,
			Language:  adapterName(adapter),
			StartLine: c.start,
			EndLine:   clampLine(c.end, len(lines)),
			NodeKind:  c.kind,
			IsTest:    c.isTest || fileIsTest,
		}
		b.Text = strings.Join(lines[b.StartLine-1:b.EndLine], "\n")
		termSet := make(map[int]bool)
		for _, h := range fh.Hits {
			if h.Line >= b.StartLine && h.Line <= b.EndLine {
				b.LineHits = append(b.LineHits, h.Line)
				for _, t := range h.Terms {
					termSet[t] = true
				}
			}
		}
		for t := range termSet {
			b.HitTerms = append(b.HitTerms, t)
		}
		sort.Ints(b.HitTerms)
		blocks = append(blocks, b)
	}
	return blocks
}

type candidate struct {
	start, end int
	kind       string
	isTest     bool
}

func adapterName(a *language.Adapter) string {
	if a == nil {
		return ""
	}
	return a.Name
}

func clampLine(line, max int) int {
	if line > max {
		return max
	}
	return line
}

// lineCandidates is the fallback for unsupported extensions and
// unparseable files: each hit becomes a single-line block.
func lineCandidates(hits []scanner.Hit) []candidate {
	var out []candidate
	seen := make(map[int]bool)
	for _, h := range hits {
		if h.Line < 1 || seen[h.Line] {
			continue
		}
		seen[h.Line] = true
		out = append(out, candidate{start: h.Line, end: h.Line, kind: "line"})
	}
	return out
}

func markdownCandidates(lines []string, hits []scanner.Hit) []candidate {
	var out []candidate
	for _, h := range hits {
		if h.Line < 1 {
			continue
		}
		region := language.MarkdownRegionForLine(lines, h.Line)
		out = append(out, candidate{start: region.StartLine, end: region.EndLine, kind: region.Kind})
	}
	return out
}

// astCandidates parses the file and produces one candidate per hit line.
// Returns nil when no usable tree was produced.
func astCandidates(adapter *language.Adapter, source []byte, hits []scanner.Hit) []candidate {
	tree := adapter.Parse(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil
	}

	out := make([]candidate, 0, len(hits))
	for _, h := range hits {
		if h.Line < 1 {
			continue
		}
		out = append(out, candidateForLine(adapter, root, source, h.Line))
	}
	return out
}

func candidateForLine(adapter *language.Adapter, root *tree_sitter.Node, source []byte, line int) candidate {
	point := tree_sitter.Point{Row: uint(line - 1), Column: 0}
	node := root.NamedDescendantForPointRange(point, point)
	if node == nil {
		return candidate{start: line, end: line, kind: "line"}
	}

	// Walk upward to the first acceptable ancestor; starting from the
	// deepest node means nested definitions resolve to the innermost.
	for cur := node; cur != nil && cur.Id() != root.Id(); cur = cur.Parent() {
		if adapter.Acceptable(cur, source) {
			start := int(cur.StartPosition().Row) + 1
			end := int(cur.EndPosition().Row) + 1
			start = absorbPrecedingTrivia(cur, start)
			return candidate{
				start:  start,
				end:    end,
				kind:   cur.Kind(),
				isTest: adapter.IsTestBlock(cur, source),
			}
		}
	}

	// No acceptable parent before the root: emit the contiguous
	// comment+statement neighborhood around the hit line.
	top := node
	for top.Parent() != nil && top.Parent().Id() != root.Id() {
		top = top.Parent()
	}
	if top.Id() == root.Id() {
		return candidate{start: line, end: line, kind: "line"}
	}
	start := absorbPrecedingTrivia(top, int(top.StartPosition().Row)+1)
	end := absorbTrailingComments(top, int(top.EndPosition().Row)+1)
	return candidate{start: start, end: end, kind: top.Kind(), isTest: adapter.IsTestBlock(top, source)}
}

// triviaKinds are attribute/decorator/doc-comment node kinds absorbed
// into the block when they immediately precede it.
var triviaKinds = map[string]bool{
	"comment":           true,
	"line_comment":      true,
	"block_comment":     true,
	"doc_comment":       true,
	"attribute_item":    true,
	"attribute":         true,
	"attribute_list":    true,
	"decorator":         true,
	"annotation":        true,
	"marker_annotation": true,
}

// absorbPrecedingTrivia extends the start line upward over
// immediately-preceding trivia siblings with no blank line between.
// A comment that trails another node on that node's last line stays
// with that node and is not absorbed.
func absorbPrecedingTrivia(node *tree_sitter.Node, startLine int) int {
	for prev := node.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if !triviaKinds[prev.Kind()] {
			break
		}
		if before := prev.PrevNamedSibling(); before != nil && !triviaKinds[before.Kind()] &&
			before.EndPosition().Row == prev.StartPosition().Row {
			break
		}
		prevEnd := int(prev.EndPosition().Row) + 1
		if startLine-prevEnd > 1 {
			break
		}
		startLine = int(prev.StartPosition().Row) + 1
	}
	return startLine
}

// absorbTrailingComments extends the end line downward over trailing
// comment siblings with no blank line between.
func absorbTrailingComments(node *tree_sitter.Node, endLine int) int {
	for next := node.NextNamedSibling(); next != nil; next = next.NextNamedSibling() {
		switch next.Kind() {
		case "comment", "line_comment", "block_comment":
		default:
			return endLine
		}
		nextStart := int(next.StartPosition().Row) + 1
		if nextStart-endLine > 1 {
			return endLine
		}
		endLine = int(next.EndPosition().Row) + 1
	}
	return endLine
}

// mergeCandidates sorts by start line and collapses overlapping spans to
// the outermost one, so no two output blocks of a file ever overlap.
func mergeCandidates(candidates []candidate) []candidate {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end > sorted[j].end
	})

	out := sorted[:1]
	for _, c := range sorted[1:] {
		last := &out[len(out)-1]
		if c.start <= last.end {
			// Overlap: keep the outer span. Sorting guarantees last
			// started first, so only the end can grow.
			if c.end > last.end {
				last.end = c.end
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
