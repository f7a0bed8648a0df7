package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// gitignoreMatcher holds patterns parsed from a .gitignore file and
// matches them against root-relative paths.
type gitignoreMatcher struct {
	patterns []gitignorePattern
}

type gitignorePattern struct {
	pattern   string
	negate    bool
	directory bool
	absolute  bool
}

// loadGitignore loads patterns from <root>/.gitignore. A missing file is
// not an error.
func loadGitignore(root string) *gitignoreMatcher {
	gm := &gitignoreMatcher{}

	file, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return gm
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		gm.add(line)
	}
	return gm
}

func (gm *gitignoreMatcher) add(line string) {
	p := gitignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.absolute = true
		line = line[1:]
	}
	p.pattern = line
	gm.patterns = append(gm.patterns, p)
}

// Ignored reports whether a root-relative path is excluded. Later
// patterns win, so negations can re-include earlier matches.
func (gm *gitignoreMatcher) Ignored(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	ignored := false
	for _, p := range gm.patterns {
		if gm.matches(p, relPath, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

func (gm *gitignoreMatcher) matches(p gitignorePattern, relPath string, isDir bool) bool {
	// Directory patterns also exclude everything beneath the directory.
	if p.directory && !isDir {
		parts := strings.Split(relPath, "/")
		for i := 0; i < len(parts)-1; i++ {
			dir := strings.Join(parts[:i+1], "/")
			if gm.matchPath(p, dir) {
				return true
			}
		}
		return false
	}
	return gm.matchPath(p, relPath)
}

func (gm *gitignoreMatcher) matchPath(p gitignorePattern, relPath string) bool {
	if p.absolute || strings.Contains(p.pattern, "/") {
		ok, err := doublestar.Match(p.pattern, relPath)
		return err == nil && ok
	}
	// Bare patterns match any path component or suffix.
	parts := strings.Split(relPath, "/")
	for i := range parts {
		suffix := strings.Join(parts[i:], "/")
		if ok, err := doublestar.Match(p.pattern, suffix); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(p.pattern, parts[i]); err == nil && ok {
			return true
		}
	}
	return false
}
