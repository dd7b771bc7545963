// Package similaritiescmder provides commands that build and inspect the
// pairwise similarity index behind duplicate detection.
package similaritiescmder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/dotdir"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/similarity"
)

const similaritiesLongDesc string = `Build and inspect the pattern similarity index.

The duplicates endpoint reads pairs from a precomputed index. Rebuild it after
importing or re-embedding patterns:
  qpv similarities compute    Rebuild the index from stored embeddings
  qpv similarities status     Show when the index was last built`

const similaritiesShortDesc string = "Manage the pattern similarity index"

func NewSimilaritiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "similarities",
		Aliases: []string{"sim"},
		Short:   similaritiesShortDesc,
		Long:    similaritiesLongDesc,
	}

	cmd.AddCommand(newComputeCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// ErrNotIndexable is returned for drivers that cannot persist a similarity index.
var ErrNotIndexable = errors.New("storage driver does not support a similarity index")

// Compute rebuilds the similarity index of driver from its stored embeddings
// and returns a record of the build.
func Compute(ctx context.Context, driver patterns.Driver, opts similarity.Options) (*dotdir.IndexState, error) {
	indexer, ok := driver.(patterns.SimilarityIndexer)
	if !ok {
		return nil, ErrNotIndexable
	}

	rows, err := indexer.Embeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}

	pairs, err := similarity.Pairs(ctx, rows, opts)
	if err != nil {
		return nil, fmt.Errorf("computing similarities: %w", err)
	}

	if err := indexer.ReplaceSimilarities(ctx, pairs); err != nil {
		return nil, fmt.Errorf("writing similarity index: %w", err)
	}

	return &dotdir.IndexState{
		ComputedAt:    time.Now().UTC(),
		Patterns:      len(rows),
		Pairs:         len(pairs),
		MinSimilarity: opts.MinSimilarity,
	}, nil
}
