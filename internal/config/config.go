// Package config defines the search configuration value object, its
// defaults and validation, and the optional .probe.toml defaults file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hbollon/go-edlib"
	"github.com/pelletier/go-toml/v2"

	proberrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/rank"
	"github.com/standardbeagle/probe/internal/results"
	"github.com/standardbeagle/probe/internal/scanner"
)

// Options is the full configuration for one search invocation. All
// state is transient; nothing is persisted between searches.
type Options struct {
	Pattern string
	Paths   []string

	FilesOnly        bool
	Ignore           []string
	IncludeFilenames bool

	Reranker        string
	FrequencySearch bool
	Exact           bool

	MaxResults int
	MaxBytes   int
	MaxTokens  int

	AllowTests     bool
	AnyTerm        bool
	MergeBlocks    bool
	MergeThreshold int

	MaxFileSize int64
}

// Default returns the options with all defaults applied.
func Default() Options {
	return Options{
		Paths:           []string{"."},
		Reranker:        "hybrid",
		FrequencySearch: true,
		MergeThreshold:  results.DefaultMergeThreshold,
		MaxFileSize:     scanner.DefaultMaxFileSize,
	}
}

// Validate checks the options, applying fallback defaults for zero
// values. Fails fast with a ConfigError before any search work.
func (o *Options) Validate() error {
	if o.Pattern == "" {
		return proberrors.NewConfigError("pattern", "", errors.New("search pattern is required"))
	}
	if len(o.Paths) == 0 {
		o.Paths = []string{"."}
	}
	if o.Reranker == "" {
		o.Reranker = "hybrid"
	}
	if !rank.Known(o.Reranker) {
		cfgErr := proberrors.NewConfigError("reranker", o.Reranker,
			errors.New("unknown reranker"))
		if suggestion, err := edlib.FuzzySearchThreshold(o.Reranker, rank.Names, 0.5, edlib.Levenshtein); err == nil && suggestion != "" {
			cfgErr = cfgErr.WithSuggestion(suggestion)
		}
		return cfgErr
	}
	if o.MaxResults < 0 {
		return proberrors.NewConfigError("max-results", fmt.Sprint(o.MaxResults),
			errors.New("limit must be >= 1"))
	}
	if o.MaxBytes < 0 {
		return proberrors.NewConfigError("max-bytes", fmt.Sprint(o.MaxBytes),
			errors.New("limit must be >= 1"))
	}
	if o.MaxTokens < 0 {
		return proberrors.NewConfigError("max-tokens", fmt.Sprint(o.MaxTokens),
			errors.New("limit must be >= 1"))
	}
	if o.MergeThreshold < 0 {
		return proberrors.NewConfigError("merge-threshold", fmt.Sprint(o.MergeThreshold),
			errors.New("threshold must be >= 0"))
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = scanner.DefaultMaxFileSize
	}
	return nil
}

// FileConfig is the subset of options a .probe.toml file can default.
type FileConfig struct {
	Ignore      []string `toml:"ignore"`
	Reranker    string   `toml:"reranker"`
	MaxFileSize int64    `toml:"max-file-size"`
	AllowTests  bool     `toml:"allow-tests"`
}

// LoadFile reads a TOML defaults file. A missing file returns an empty
// config without error; a malformed file is a ConfigError.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return fc, proberrors.NewConfigError("config-file", path, err)
	}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fc, proberrors.NewConfigError("config-file", path, err)
	}
	return fc, nil
}

// Apply overlays file defaults onto options that are still at their
// zero values; explicit option values win.
func (fc FileConfig) Apply(o *Options) {
	o.Ignore = append(o.Ignore, fc.Ignore...)
	if o.Reranker == "" && fc.Reranker != "" {
		o.Reranker = fc.Reranker
	}
	if o.MaxFileSize == 0 && fc.MaxFileSize > 0 {
		o.MaxFileSize = fc.MaxFileSize
	}
	if fc.AllowTests {
		o.AllowTests = true
	}
}
