package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mbuckingham74/quilting-patterns-viewer/api/duplicates"
	"github.com/mbuckingham74/quilting-patterns-viewer/api/search"
)

var (
	findDuplicatesToolName    = "find_duplicates"
	findDuplicatesDescription = "List pairs of patterns in the library whose embeddings are nearly identical, most similar first. Each side carries the pattern's file name, extension, author and thumbnail URL."

	searchToolName    = "search_patterns"
	searchDescription = "Search the pattern library by meaning. Returns the patterns whose embeddings are closest to the query text."
)

// FindDuplicatesInput represents the input arguments for the find_duplicates tool.
type FindDuplicatesInput struct {
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity between 0 and 1 (default: 0.95)"`
	Limit     *int     `json:"limit,omitempty" jsonschema:"maximum number of pairs between 1 and 200 (default: 50)"`
}

// SearchInput represents the input arguments for the search_patterns tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text"`
	Limit *int   `json:"limit,omitempty" jsonschema:"number of results between 1 and 100 (default: 20)"`
}

func (s *Server) handleFindDuplicates(ctx context.Context, _ *mcp.CallToolRequest, input FindDuplicatesInput) (*mcp.CallToolResult, duplicates.Output, error) {
	threshold := duplicates.DefaultThreshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}
	limit := duplicates.DefaultLimit
	if input.Limit != nil {
		limit = *input.Limit
	}

	output, err := duplicates.Find(ctx, threshold, limit, s.config.Driver, s.config.Logger)
	if err != nil {
		s.config.Logger.Error("MCP find_duplicates failed", "error", err)
		return errorResult(fmt.Sprintf("Failed to find duplicates: %v", err)), duplicates.Output{}, nil
	}

	return textResult(s, output), *output, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, search.Output, error) {
	limit := search.DefaultLimit
	if input.Limit != nil {
		limit = *input.Limit
	}

	output, err := search.Search(ctx, input.Query, limit, s.config.Embedder, s.config.Driver, s.config.Logger)
	if err != nil {
		s.config.Logger.Error("MCP search_patterns failed", "error", err)
		return errorResult(fmt.Sprintf("Search failed: %v", err)), search.Output{}, nil
	}

	return textResult(s, output), *output, nil
}

// textResult serializes the structured output as JSON in a TextContent block
// for clients that do not read structured content.
func textResult(s *Server, output any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		s.config.Logger.Error("failed to marshal tool output", "error", err)
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
