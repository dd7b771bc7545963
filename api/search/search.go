// Package search provides semantic search over the pattern library. It is
// used by both the REST API endpoint and the MCP server tool.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/embeddings"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrInvalidInput is returned for an empty query or an out of range limit.
var ErrInvalidInput = errors.New("invalid input")

// Output represents the output of a search operation.
type Output struct {
	Query   string                  `json:"query"`
	Results []patterns.SearchResult `json:"results"`
	Count   int                     `json:"count"`
}

// ParseLimit parses a raw limit, defaulting an empty value to DefaultLimit.
func ParseLimit(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultLimit, nil
	}

	limit, err := strconv.Atoi(s)
	if err != nil || limit < 1 || limit > MaxLimit {
		return 0, fmt.Errorf("%w: limit must be an integer between 1 and %d", ErrInvalidInput, MaxLimit)
	}
	return limit, nil
}

// Search embeds the query text and returns the closest patterns by cosine
// similarity.
func Search(
	ctx context.Context,
	query string,
	limit int,
	embedder embeddings.Embedder,
	driver patterns.Driver,
	logger *slog.Logger,
) (*Output, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must be an integer between 1 and %d", ErrInvalidInput, MaxLimit)
	}

	logger.Debug("search request",
		"query", query,
		"limit", limit,
	)

	queryEmbedding, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := driver.Search(ctx, queryEmbedding, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search patterns: %w", err)
	}
	if results == nil {
		results = []patterns.SearchResult{}
	}

	return &Output{
		Query:   query,
		Results: results,
		Count:   len(results),
	}, nil
}
