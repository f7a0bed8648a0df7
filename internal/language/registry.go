package language

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	registryOnce sync.Once
	registry     map[string]*Adapter
)

// ForExtension returns the adapter for a file extension (with or without
// the leading dot), or nil when the extension is unsupported and the file
// should be processed in line-only mode.
func ForExtension(ext string) *Adapter {
	registryOnce.Do(buildRegistry)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return registry[strings.ToLower(ext)]
}

// ForPath returns the adapter for a file path, or nil for line-only mode.
func ForPath(path string) *Adapter {
	return ForExtension(filepath.Ext(path))
}

// Extensions returns all supported extensions, sorted.
func Extensions() []string {
	registryOnce.Do(buildRegistry)
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Names returns the supported language names, sorted and deduplicated.
func Names() []string {
	registryOnce.Do(buildRegistry)
	seen := make(map[string]bool)
	var names []string
	for _, a := range registry {
		if !seen[a.Name] {
			seen[a.Name] = true
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names
}

// buildRegistry is run once per process; the map is read-only afterwards.
func buildRegistry() {
	registry = make(map[string]*Adapter)

	register := func(a *Adapter, exts ...string) {
		for _, ext := range exts {
			registry[ext] = a
		}
	}

	register(setupRust(), ".rs")
	register(setupJavaScript(), ".js", ".jsx")
	register(setupTypeScript(), ".ts")
	register(setupTSX(), ".tsx")
	register(setupPython(), ".py")
	register(setupGo(), ".go")
	register(setupC(), ".c", ".h")
	register(setupCpp(), ".cpp", ".cc", ".cxx", ".hpp", ".hxx")
	register(setupJava(), ".java")
	register(setupRuby(), ".rb")
	register(setupPHP(), ".php")
	register(setupCSharp(), ".cs")
	register(setupZig(), ".zig")
	register(setupMarkdown(), ".md", ".markdown")
}
