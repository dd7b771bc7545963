// Package embeddingscmder provides commands that fill in pattern embeddings
// from their thumbnails.
package embeddingscmder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/embeddings"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/logger"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/thumbnail"
)

const embeddingsLongDesc string = `Manage pattern embeddings.

Embeddings drive both semantic search and the similarity index:
  qpv embeddings generate    Embed thumbnails of patterns that have no embedding`

const embeddingsShortDesc string = "Manage pattern embeddings"

func NewEmbeddingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "embeddings",
		Aliases: []string{"emb"},
		Short:   embeddingsShortDesc,
		Long:    embeddingsLongDesc,
	}

	cmd.AddCommand(newGenerateCmd())

	return cmd
}

// ImageFetcher downloads the thumbnail of a pattern.
type ImageFetcher interface {
	Fetch(ctx context.Context, patternID int64, rawURL string) (*thumbnail.Image, error)
}

// Options tunes a Generate run.
type Options struct {
	// BatchSize is how many patterns are listed per store query. Defaults to 10.
	BatchSize int

	// Limit stops the run after this many patterns were attempted. Zero means
	// no limit.
	Limit int

	// Delay is waited after every embedding call to stay under provider
	// rate limits.
	Delay time.Duration

	// Progress, when set, is called after every attempted pattern.
	Progress func(embedded, failed int)

	Logger *slog.Logger
}

// Result summarises a Generate run.
type Result struct {
	Embedded int
	Failed   []int64
}

// Generate embeds the thumbnail of every pattern that has one but no
// embedding, and stores the vector. A pattern whose thumbnail cannot be
// fetched or embedded is logged and skipped; store errors abort the run.
func Generate(
	ctx context.Context,
	store patterns.EmbeddingWriter,
	fetcher ImageFetcher,
	embedder embeddings.ImageEmbedder,
	opts Options,
) (*Result, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	res := &Result{}
	failed := make(map[int64]bool)

	for {
		// failed patterns still lack an embedding, so they are over-fetched
		// and filtered out
		batch, err := store.MissingEmbeddings(ctx, opts.BatchSize+len(failed))
		if err != nil {
			return res, fmt.Errorf("listing patterns without embeddings: %w", err)
		}

		pending := make([]patterns.Pattern, 0, len(batch))
		for _, p := range batch {
			if !failed[p.ID] {
				pending = append(pending, p)
			}
		}
		if len(pending) == 0 {
			return res, nil
		}

		for _, p := range pending {
			if opts.Limit > 0 && res.Embedded+len(res.Failed) >= opts.Limit {
				return res, nil
			}
			if err := ctx.Err(); err != nil {
				return res, err
			}

			vec, err := embedThumbnail(ctx, fetcher, embedder, p)
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				opts.Logger.Warn("could not embed pattern", "pattern_id", p.ID, "error", err)
				failed[p.ID] = true
				res.Failed = append(res.Failed, p.ID)
			} else {
				if err := store.SetEmbedding(ctx, p.ID, vec); err != nil {
					return res, fmt.Errorf("storing embedding: %w", err)
				}
				res.Embedded++
				opts.Logger.Debug("embedded pattern", "pattern_id", p.ID, "dimensions", len(vec))
			}

			if opts.Progress != nil {
				opts.Progress(res.Embedded, len(res.Failed))
			}
			if err := wait(ctx, opts.Delay); err != nil {
				return res, err
			}
		}
	}
}

func embedThumbnail(ctx context.Context, fetcher ImageFetcher, embedder embeddings.ImageEmbedder, p patterns.Pattern) ([]float32, error) {
	if p.ThumbnailURL == nil || *p.ThumbnailURL == "" {
		return nil, fmt.Errorf("pattern %d has no thumbnail", p.ID)
	}

	img, err := fetcher.Fetch(ctx, p.ID, *p.ThumbnailURL)
	if err != nil {
		return nil, err
	}

	return embedder.EmbedImage(ctx, img.MediaType, img.Data)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
