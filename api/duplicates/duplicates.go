// Package duplicates finds near-duplicate pattern pairs and attaches each
// pattern's summary. It is used by both the REST API endpoint and the MCP
// server tool.
package duplicates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
)

const (
	DefaultThreshold = 0.95
	DefaultLimit     = 50
	MaxLimit         = 200
)

// ErrInvalidInput is returned when threshold or limit is out of range.
var ErrInvalidInput = errors.New("invalid input")

// DuplicatePair is a candidate pair with both summaries attached.
type DuplicatePair struct {
	Pattern1   patterns.Summary `json:"pattern1"`
	Pattern2   patterns.Summary `json:"pattern2"`
	Similarity float64          `json:"similarity"`
}

// Output is the result of a duplicate scan.
type Output struct {
	Duplicates []DuplicatePair `json:"duplicates"`
	Count      int             `json:"count"`
	Threshold  float64         `json:"threshold"`
}

// ParseParams parses raw threshold and limit values, applying defaults to
// empty strings, and validates the result.
func ParseParams(rawThreshold, rawLimit string) (float64, int, error) {
	threshold := DefaultThreshold
	if s := strings.TrimSpace(rawThreshold); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: threshold must be a number between 0 and 1", ErrInvalidInput)
		}
		threshold = parsed
	}

	limit := DefaultLimit
	if s := strings.TrimSpace(rawLimit); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: limit must be an integer between 1 and %d", ErrInvalidInput, MaxLimit)
		}
		limit = parsed
	}

	if err := Validate(threshold, limit); err != nil {
		return 0, 0, err
	}
	return threshold, limit, nil
}

// Validate checks threshold is in [0,1] and limit is in [1,MaxLimit].
func Validate(threshold float64, limit int) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: threshold must be a number between 0 and 1", ErrInvalidInput)
	}
	if limit < 1 || limit > MaxLimit {
		return fmt.Errorf("%w: limit must be an integer between 1 and %d", ErrInvalidInput, MaxLimit)
	}
	return nil
}

// Find validates the parameters, queries the similarity index and enriches
// every pair. Any store failure fails the whole call.
func Find(
	ctx context.Context,
	threshold float64,
	limit int,
	driver patterns.Driver,
	logger *slog.Logger,
) (*Output, error) {
	if err := Validate(threshold, limit); err != nil {
		return nil, err
	}

	logger.Debug("duplicate scan",
		"threshold", threshold,
		"limit", limit,
	)

	pairs, err := driver.FindDuplicates(ctx, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicates: %w", err)
	}

	enriched, err := Enrich(ctx, pairs, driver)
	if err != nil {
		return nil, err
	}

	return &Output{
		Duplicates: enriched,
		Count:      len(enriched),
		Threshold:  threshold,
	}, nil
}

// Enrich fetches the summary of every distinct id in pairs with a single
// store call and attaches it to each side. Ids without a row get
// patterns.UnknownSummary.
func Enrich(ctx context.Context, pairs []patterns.CandidatePair, driver patterns.Driver) ([]DuplicatePair, error) {
	result := make([]DuplicatePair, 0, len(pairs))
	if len(pairs) == 0 {
		return result, nil
	}

	seen := make(map[int64]struct{}, len(pairs)*2)
	ids := make([]int64, 0, len(pairs)*2)
	for _, p := range pairs {
		for _, id := range []int64{p.PatternIDA, p.PatternIDB} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	summaries, err := driver.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern summaries: %w", err)
	}

	byID := make(map[int64]patterns.Summary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}

	lookup := func(id int64) patterns.Summary {
		if s, ok := byID[id]; ok {
			return s
		}
		return patterns.UnknownSummary(id)
	}

	for _, p := range pairs {
		result = append(result, DuplicatePair{
			Pattern1:   lookup(p.PatternIDA),
			Pattern2:   lookup(p.PatternIDB),
			Similarity: p.Similarity,
		})
	}
	return result, nil
}
