package mcp

import (
	"encoding/json"
	"strings"

	"github.com/standardbeagle/probe/internal/config"
)

// QueryValue accepts either a string or a list of strings joined by
// spaces, so callers can pass multi-term queries naturally.
type QueryValue string

// UnmarshalJSON implements the string-or-list acceptance.
func (q *QueryValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*q = QueryValue(single)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*q = QueryValue(strings.Join(list, " "))
	return nil
}

// SearchCodeParams is the search_code tool input. Fields map one-to-one
// onto the search configuration.
type SearchCodeParams struct {
	Query            QueryValue `json:"query"`
	Paths            []string   `json:"paths"`
	FilesOnly        bool       `json:"files_only"`
	Ignore           []string   `json:"ignore"`
	IncludeFilenames bool       `json:"include_filenames"`
	Reranker         string     `json:"reranker"`
	FrequencySearch  *bool      `json:"frequency_search"`
	Exact            bool       `json:"exact"`
	MaxResults       int        `json:"max_results"`
	MaxBytes         int        `json:"max_bytes"`
	MaxTokens        int        `json:"max_tokens"`
	AllowTests       bool       `json:"allow_tests"`
	AnyTerm          bool       `json:"any_term"`
	MergeBlocks      bool       `json:"merge_blocks"`
	MergeThreshold   *int       `json:"merge_threshold"`
}

// ToOptions converts the tool parameters to search options, applying
// defaults for omitted fields.
func (p *SearchCodeParams) ToOptions() config.Options {
	opts := config.Default()
	opts.Pattern = string(p.Query)
	if len(p.Paths) > 0 {
		opts.Paths = p.Paths
	}
	opts.FilesOnly = p.FilesOnly
	opts.Ignore = p.Ignore
	opts.IncludeFilenames = p.IncludeFilenames
	if p.Reranker != "" {
		opts.Reranker = p.Reranker
	}
	if p.FrequencySearch != nil {
		opts.FrequencySearch = *p.FrequencySearch
	}
	opts.Exact = p.Exact
	opts.MaxResults = p.MaxResults
	opts.MaxBytes = p.MaxBytes
	opts.MaxTokens = p.MaxTokens
	opts.AllowTests = p.AllowTests
	opts.AnyTerm = p.AnyTerm
	opts.MergeBlocks = p.MergeBlocks
	if p.MergeThreshold != nil {
		opts.MergeThreshold = *p.MergeThreshold
	}
	return opts
}
