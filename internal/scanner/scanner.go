// Package scanner walks directory roots and streams per-file pattern
// hits to the block extractor. Traversal honors .gitignore, a default
// set of VCS/build directories, and user-supplied glob ignores. Binary
// and oversized files are skipped.
package scanner

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/probe/internal/debug"
	proberrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/query"
)

// DefaultMaxFileSize is the per-file size cap; larger files are skipped
// with a warning.
const DefaultMaxFileSize = 5 * 1024 * 1024

// defaultIgnoreDirs are pruned from traversal unconditionally.
var defaultIgnoreDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"target":       true,
	"node_modules": true,
	"build":        true,
	"dist":         true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"vendor":       true,
}

// Hit is one matching line. Terms holds the indices of every query term
// whose pattern occurs anywhere on the line. Line 0 marks a synthetic
// whole-file hit (files-only mode and filename matches).
type Hit struct {
	Line  int
	Terms []int
}

// FileHits is the unit streamed from the scanner to the extractor: one
// file's source bytes with its ordered hit list.
type FileHits struct {
	Path         string
	Source       []byte
	Hits         []Hit
	FilenameOnly bool
}

// Scanner streams hits for one compiled query over a set of roots.
type Scanner struct {
	Query            *query.Query
	Ignore           []string
	MaxFileSize      int64
	FilesOnly        bool
	IncludeFilenames bool
	Workers          int
}

// New returns a scanner with defaults applied.
func New(q *query.Query) *Scanner {
	return &Scanner{
		Query:       q,
		MaxFileSize: DefaultMaxFileSize,
		Workers:     runtime.NumCPU(),
	}
}

// Run walks the roots and sends FileHits on out, closing out when the
// walk completes. A root that does not exist fails the invocation with a
// PathError; individual file errors are logged and skipped.
func (s *Scanner) Run(ctx context.Context, roots []string, out chan<- FileHits) error {
	defer close(out)

	if err := ctx.Err(); err != nil {
		return err
	}

	paths, err := s.collectFiles(roots)
	if err != nil {
		return err
	}

	workers := s.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fh, ok := s.scanFile(path)
			if !ok {
				return nil
			}
			select {
			case out <- fh:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}

// collectFiles enumerates candidate files under all roots, applying
// ignore rules. The result is sorted so downstream work is independent
// of filesystem iteration order.
func (s *Scanner) collectFiles(roots []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, proberrors.NewPathError(root, err)
		}
		if !info.IsDir() {
			if !seen[root] {
				seen[root] = true
				paths = append(paths, root)
			}
			continue
		}

		gitignore := loadGitignore(root)

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				debug.LogScan("walk error at %s: %v", path, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil || rel == "." {
				return nil
			}
			if d.IsDir() {
				if defaultIgnoreDirs[d.Name()] ||
					gitignore.Ignored(rel, true) ||
					s.userIgnored(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if gitignore.Ignored(rel, false) || s.userIgnored(rel) {
				return nil
			}
			if isBinaryExtension(path) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, proberrors.NewPathError(root, err)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func (s *Scanner) userIgnored(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range s.Ignore {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
		// Bare patterns also match individual path components.
		if !strings.Contains(pattern, "/") {
			for _, part := range strings.Split(relPath, "/") {
				if ok, err := doublestar.Match(pattern, part); err == nil && ok {
					return true
				}
			}
		}
	}
	return false
}

// scanFile reads one file and produces its hits. Returns ok=false when
// the file is skipped (unreadable, binary, oversized, or no match).
func (s *Scanner) scanFile(path string) (FileHits, bool) {
	maxSize := s.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	info, err := os.Stat(path)
	if err != nil {
		debug.LogScan("stat failed: %v", proberrors.NewFileError("stat", path, err))
		return FileHits{}, false
	}
	if info.Size() > maxSize {
		debug.LogScan("skipping %s: %d bytes exceeds cap %d", path, info.Size(), maxSize)
		return FileHits{}, false
	}

	source, err := os.ReadFile(path)
	if err != nil {
		debug.LogScan("read failed: %v", proberrors.NewFileError("read", path, err))
		return FileHits{}, false
	}
	if isBinaryContent(source) {
		return FileHits{}, false
	}

	fh := FileHits{Path: path, Source: source}
	lines := bytes.Split(source, []byte("\n"))
	for i, line := range lines {
		if !s.Query.Pattern.Match(line) {
			continue
		}
		if s.FilesOnly {
			// One synthetic whole-file hit; AST expansion is skipped.
			fh.Hits = []Hit{{Line: 0, Terms: s.Query.MatchTerms(line)}}
			return fh, true
		}
		fh.Hits = append(fh.Hits, Hit{Line: i + 1, Terms: s.Query.MatchTerms(line)})
	}

	if len(fh.Hits) > 0 {
		return fh, true
	}
	if s.IncludeFilenames {
		if terms := s.Query.MatchFilenameTerms(path); len(terms) > 0 {
			fh.Hits = []Hit{{Line: 0, Terms: terms}}
			fh.FilenameOnly = true
			return fh, true
		}
	}
	return FileHits{}, false
}
