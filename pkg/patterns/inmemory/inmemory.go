// Package inmemory provides a map-backed patterns.Driver for local
// development and tests.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/similarity"
)

// Driver implements patterns.Driver and patterns.SimilarityIndexer using
// in-memory maps.
type Driver struct {
	// mu guards patterns and pairs
	mu sync.RWMutex

	// patterns is keyed by pattern id
	patterns map[int64]*patterns.Pattern

	// pairs is the similarity index, sorted by descending similarity
	pairs []patterns.CandidatePair
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		patterns: make(map[int64]*patterns.Pattern),
	}
}

// Put stores or replaces a pattern.
func (d *Driver) Put(_ context.Context, p *patterns.Pattern) error {
	if p == nil {
		return errors.New("cannot store nil pattern")
	}
	if p.ID <= 0 {
		return errors.New("pattern id must be positive")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cp := *p
	d.patterns[p.ID] = &cp
	return nil
}

// FindDuplicates returns indexed pairs at or above threshold.
func (d *Driver) FindDuplicates(_ context.Context, threshold float64, limit int) ([]patterns.CandidatePair, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]patterns.CandidatePair, 0)
	for _, pair := range d.pairs {
		if len(result) >= limit {
			break
		}
		if pair.Similarity < threshold {
			// pairs is sorted, nothing further can match
			break
		}
		result = append(result, pair)
	}
	return result, nil
}

// Summaries returns display metadata for the ids that exist.
func (d *Driver) Summaries(_ context.Context, ids []int64) ([]patterns.Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]patterns.Summary, 0, len(ids))
	for _, id := range ids {
		if p, ok := d.patterns[id]; ok {
			result = append(result, p.Summary())
		}
	}
	return result, nil
}

// Patterns returns copies of the records for the ids that exist.
func (d *Driver) Patterns(_ context.Context, ids []int64) ([]patterns.Pattern, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[int64]bool, len(ids))
	result := make([]patterns.Pattern, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := d.patterns[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

// Delete removes a pattern and its similarity entries.
func (d *Driver) Delete(_ context.Context, id int64) (*patterns.Pattern, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.patterns[id]
	if !ok {
		return nil, patterns.NotFoundError{ID: id}
	}
	delete(d.patterns, id)

	kept := d.pairs[:0]
	for _, pair := range d.pairs {
		if pair.PatternIDA != id && pair.PatternIDB != id {
			kept = append(kept, pair)
		}
	}
	d.pairs = kept

	return p, nil
}

// Search ranks every pattern with an embedding by cosine similarity.
func (d *Driver) Search(_ context.Context, embedding []float32, limit int) ([]patterns.SearchResult, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]patterns.SearchResult, 0, len(d.patterns))
	for _, p := range d.patterns {
		if len(p.Embedding) == 0 || len(p.Embedding) != len(embedding) {
			continue
		}
		results = append(results, patterns.SearchResult{
			Summary: p.Summary(),
			Score:   similarity.Cosine(embedding, p.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Embeddings returns all patterns with embeddings, ordered by id.
func (d *Driver) Embeddings(_ context.Context) ([]patterns.EmbeddingRow, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows := make([]patterns.EmbeddingRow, 0, len(d.patterns))
	for _, p := range d.patterns {
		if len(p.Embedding) == 0 {
			continue
		}
		rows = append(rows, patterns.EmbeddingRow{ID: p.ID, Embedding: p.Embedding})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// ReplaceSimilarities swaps the similarity index.
func (d *Driver) ReplaceSimilarities(_ context.Context, pairs []patterns.CandidatePair) error {
	sorted := make([]patterns.CandidatePair, len(pairs))
	copy(sorted, pairs)
	similarity.SortPairs(sorted)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pairs = sorted
	return nil
}

// MissingEmbeddings returns patterns with a thumbnail and no embedding.
func (d *Driver) MissingEmbeddings(_ context.Context, limit int) ([]patterns.Pattern, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]patterns.Pattern, 0)
	for _, p := range d.patterns {
		if len(p.Embedding) == 0 && p.ThumbnailURL != nil {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SetEmbedding replaces the embedding of an existing pattern.
func (d *Driver) SetEmbedding(_ context.Context, id int64, embedding []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.patterns[id]
	if !ok {
		return patterns.NotFoundError{ID: id}
	}
	p.Embedding = append([]float32(nil), embedding...)
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

var (
	_ patterns.Driver            = (*Driver)(nil)
	_ patterns.SimilarityIndexer = (*Driver)(nil)
	_ patterns.EmbeddingWriter   = (*Driver)(nil)
)
