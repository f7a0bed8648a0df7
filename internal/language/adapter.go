// Package language maps file extensions to per-language adapters backed
// by tree-sitter grammars. An adapter knows how to parse a file, which
// node kinds form a complete code block, and how to recognize test code.
package language

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Adapter is the per-language capability set: parse, acceptable-parent
// classification, and test detection. Adapters are immutable after
// registry initialization and safe for concurrent use; parsers are
// created per call because tree-sitter parser state is not shareable
// across goroutines.
type Adapter struct {
	Name string

	lang       *tree_sitter.Language
	acceptable map[string]bool

	// acceptableNode, when set, extends the kind-set check with
	// structural rules (e.g. JS arrow functions bound to a declarator).
	acceptableNode func(node *tree_sitter.Node, source []byte) bool

	isTestBlock func(node *tree_sitter.Node, source []byte) bool
	fileIsTest  func(path string) bool
}

// HasGrammar reports whether this adapter parses with tree-sitter.
// Markdown is the one adapter without a grammar: its sections are
// line-oriented and extracted directly.
func (a *Adapter) HasGrammar() bool {
	return a.lang != nil
}

// IsMarkdown reports whether this adapter uses section-based extraction.
func (a *Adapter) IsMarkdown() bool {
	return a.Name == "markdown"
}

// Parse parses source into a tree. Returns nil when the language has no
// grammar or the parser cannot be constructed; callers fall back to
// line-only extraction. tree-sitter is error-tolerant, so a tree is
// returned even for source with syntax errors.
func (a *Adapter) Parse(source []byte) *tree_sitter.Tree {
	if a.lang == nil {
		return nil
	}
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.lang); err != nil {
		return nil
	}
	return parser.Parse(source, nil)
}

// Acceptable reports whether the node constitutes a complete code block
// suitable for output.
func (a *Adapter) Acceptable(node *tree_sitter.Node, source []byte) bool {
	if node == nil {
		return false
	}
	if a.acceptable[node.Kind()] {
		return true
	}
	if a.acceptableNode != nil {
		return a.acceptableNode(node, source)
	}
	return false
}

// IsTestBlock reports whether the node is test code by the language's
// conventions (attributes, naming, enclosing constructs).
func (a *Adapter) IsTestBlock(node *tree_sitter.Node, source []byte) bool {
	if a.isTestBlock == nil || node == nil {
		return false
	}
	return a.isTestBlock(node, source)
}

// FileIsTest reports whether the path names a test file by filename
// convention.
func (a *Adapter) FileIsTest(path string) bool {
	if a.fileIsTest == nil {
		return false
	}
	return a.fileIsTest(path)
}

// nodeText returns the source text of a node, or "" for nil.
func nodeText(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// fieldText returns the text of a named field child, or "".
func fieldText(node *tree_sitter.Node, field string, source []byte) string {
	if node == nil {
		return ""
	}
	return nodeText(node.ChildByFieldName(field), source)
}
