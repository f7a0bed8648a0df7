// Package pathutil converts absolute result paths to root-relative form
// for user-facing output.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/probe/internal/results"
)

// ToRelative converts path to be relative to root when possible; paths
// outside root are returned unchanged.
func ToRelative(path, root string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// ToRelativeAny converts path relative to the first root that contains
// it; paths outside every root are returned unchanged.
func ToRelativeAny(path string, roots []string) string {
	for _, root := range roots {
		if rel := ToRelative(path, root); rel != path {
			return rel
		}
	}
	return path
}

// ToRelativeBlocks rewrites every result block's path relative to the
// search root that contains it, for user-facing output.
func ToRelativeBlocks(blocks []results.Block, roots []string) []results.Block {
	for i := range blocks {
		blocks[i].Path = ToRelativeAny(blocks[i].Path, roots)
	}
	return blocks
}
