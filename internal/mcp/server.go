// Package mcp adapts the search core to the Model Context Protocol.
// One tool is exposed: search_code, whose input object maps
// field-for-field onto the search configuration.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/probe/internal/debug"
	"github.com/standardbeagle/probe/internal/search"
	"github.com/standardbeagle/probe/internal/version"
)

// Server hosts the probe MCP tool server over stdio.
type Server struct {
	server *mcp.Server
}

// NewServer creates the MCP server and registers its tools.
func NewServer() *Server {
	s := &Server{}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "probe-mcp-server",
		Version: version.Version,
	}, nil)
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	debug.SetMCPMode(true)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "search_code",
		Description: "Search code blocks across directories. Matches are expanded to whole functions, classes, or structs, ranked by relevance, and bounded by result/byte/token limits.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"query"},
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Description: "Search query: a string, or a list of strings joined by spaces",
				},
				"paths": {
					Type:        "array",
					Description: "Directories to search (default: current directory)",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"files_only": {
					Type:        "boolean",
					Description: "Return one block per matching file without AST expansion",
				},
				"ignore": {
					Type:        "array",
					Description: "Glob patterns added to the default ignore set",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"include_filenames": {
					Type:        "boolean",
					Description: "Include blocks from files whose path tokens match query terms",
				},
				"reranker": {
					Type:        "string",
					Description: "Ranking strategy: hybrid (default), hybrid2, bm25, or tfidf",
				},
				"frequency_search": {
					Type:        "boolean",
					Description: "Enable stemming and stopword removal (default true)",
				},
				"exact": {
					Type:        "boolean",
					Description: "Exact matching without stemming or stopword removal",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of result blocks",
				},
				"max_bytes": {
					Type:        "integer",
					Description: "Maximum total bytes of block content",
				},
				"max_tokens": {
					Type:        "integer",
					Description: "Maximum total tokens of block content",
				},
				"allow_tests": {
					Type:        "boolean",
					Description: "Allow test files and test blocks in results",
				},
				"any_term": {
					Type:        "boolean",
					Description: "Match blocks containing any query term instead of all",
				},
				"merge_blocks": {
					Type:        "boolean",
					Description: "Merge adjacent blocks from the same file",
				},
				"merge_threshold": {
					Type:        "integer",
					Description: "Maximum line gap for adjacent block merging (default 5)",
				},
			},
		},
	}, s.handleSearchCode)
}

func (s *Server) handleSearchCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SearchCodeParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	opts := params.ToOptions()
	debug.LogMCP("search_code pattern=%q paths=%v", opts.Pattern, opts.Paths)

	blocks, err := search.Search(ctx, opts)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	payload, err := json.Marshal(blocks)
	if err != nil {
		return errorResult(fmt.Sprintf("encoding results: %v", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
