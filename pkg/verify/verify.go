// Package verify asks a vision model whether a candidate pair of patterns
// are duplicates. The judgment is advisory; nothing here mutates data.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/thumbnail"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/vision"
)

var (
	// ErrNotFound is returned when the ids do not resolve to two distinct patterns.
	ErrNotFound = errors.New("patterns not found")

	// ErrThumbnail is returned when a thumbnail is missing, rejected by the
	// url guard or fails to download.
	ErrThumbnail = errors.New("thumbnail unavailable")
)

// ImageFetcher downloads the thumbnail for a pattern.
type ImageFetcher interface {
	Fetch(ctx context.Context, patternID int64, rawURL string) (*thumbnail.Image, error)
}

// Config holds the dependencies of a Verifier.
type Config struct {
	Driver  patterns.Driver
	Fetcher ImageFetcher
	Model   vision.Model
	Logger  *slog.Logger
}

// Verifier runs a single pair through the vision model.
type Verifier struct {
	driver  patterns.Driver
	fetcher ImageFetcher
	model   vision.Model
	logger  *slog.Logger
}

// Briefs holds the metadata of both patterns in request order.
type Briefs struct {
	Pattern1 patterns.Summary `json:"pattern_1"`
	Pattern2 patterns.Summary `json:"pattern_2"`
}

// Result is the outcome of a verification.
type Result struct {
	PatternID1   int64         `json:"pattern_id_1"`
	PatternID2   int64         `json:"pattern_id_2"`
	Verification *Verification `json:"verification"`
	Patterns     Briefs        `json:"patterns"`
}

// New creates a Verifier.
func New(c Config) (*Verifier, error) {
	if c.Driver == nil {
		return nil, errors.New("pattern driver is required")
	}
	if c.Fetcher == nil {
		return nil, errors.New("thumbnail fetcher is required")
	}
	if c.Model == nil {
		return nil, errors.New("vision model is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	return &Verifier{
		driver:  c.Driver,
		fetcher: c.Fetcher,
		model:   c.Model,
		logger:  c.Logger,
	}, nil
}

// Verify loads both patterns, downloads their thumbnails concurrently and
// returns the model's parsed judgment.
func (v *Verifier) Verify(ctx context.Context, id1, id2 int64) (*Result, error) {
	first, second, err := v.load(ctx, id1, id2)
	if err != nil {
		return nil, err
	}

	images := make([]*thumbnail.Image, 2)
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range []*patterns.Pattern{first, second} {
		g.Go(func() error {
			img, err := v.fetch(gctx, p)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v.logger.Debug("requesting duplicate verification",
		"pattern_id_1", id1,
		"pattern_id_2", id2,
	)

	raw, err := v.model.Compare(ctx, BuildPrompt(first, second), images)
	if err != nil {
		return nil, err
	}

	verification, err := ParseVerification(raw)
	if err != nil {
		v.logger.Error("failed to parse verification response",
			"pattern_id_1", id1,
			"pattern_id_2", id2,
			"raw", raw,
			"error", err,
		)
		return nil, err
	}

	return &Result{
		PatternID1:   id1,
		PatternID2:   id2,
		Verification: verification,
		Patterns: Briefs{
			Pattern1: first.Summary(),
			Pattern2: second.Summary(),
		},
	}, nil
}

func (v *Verifier) load(ctx context.Context, id1, id2 int64) (*patterns.Pattern, *patterns.Pattern, error) {
	rows, err := v.driver.Patterns(ctx, []int64{id1, id2})
	if err != nil {
		return nil, nil, fmt.Errorf("loading patterns: %w", err)
	}

	byID := make(map[int64]*patterns.Pattern, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	first, ok1 := byID[id1]
	second, ok2 := byID[id2]
	if id1 == id2 || !ok1 || !ok2 {
		return nil, nil, fmt.Errorf("%w: %d, %d", ErrNotFound, id1, id2)
	}
	return first, second, nil
}

func (v *Verifier) fetch(ctx context.Context, p *patterns.Pattern) (*thumbnail.Image, error) {
	if p.ThumbnailURL == nil || strings.TrimSpace(*p.ThumbnailURL) == "" {
		return nil, fmt.Errorf("%w: pattern %d has no thumbnail", ErrThumbnail, p.ID)
	}

	img, err := v.fetcher.Fetch(ctx, p.ID, *p.ThumbnailURL)
	if err != nil {
		v.logger.Warn("thumbnail fetch failed",
			"pattern_id", p.ID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: pattern %d: %w", ErrThumbnail, p.ID, err)
	}
	return img, nil
}
