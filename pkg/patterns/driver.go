package patterns

import "context"

// Driver defines the interface for reading and mutating the pattern library in
// a storage backend.
type Driver interface {
	// FindDuplicates returns up to limit candidate pairs whose similarity is at
	// or above threshold, ordered by descending similarity. Each unordered pair
	// is reported once.
	FindDuplicates(ctx context.Context, threshold float64, limit int) ([]CandidatePair, error)

	// Summaries returns display metadata for the given ids. Ids without a row
	// are omitted from the result; that is not an error.
	Summaries(ctx context.Context, ids []int64) ([]Summary, error)

	// Patterns returns the full records for the given ids. Ids without a row
	// are omitted from the result.
	Patterns(ctx context.Context, ids []int64) ([]Pattern, error)

	// Delete removes a pattern and every similarity entry that references it.
	// It returns the deleted record, or NotFoundError if the id does not exist.
	Delete(ctx context.Context, id int64) (*Pattern, error)

	// Search returns up to limit patterns ordered by descending cosine
	// similarity to the given embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error)

	// Close releases any resources held by the driver.
	Close() error
}

// SimilarityIndexer is implemented by drivers that persist the precomputed
// pairwise similarity index read by FindDuplicates.
type SimilarityIndexer interface {
	// Embeddings returns every pattern that has an embedding, ordered by id.
	Embeddings(ctx context.Context) ([]EmbeddingRow, error)

	// ReplaceSimilarities atomically swaps the similarity index for pairs.
	ReplaceSimilarities(ctx context.Context, pairs []CandidatePair) error
}

// Importer is implemented by drivers that accept new or updated patterns.
type Importer interface {
	// Put inserts p, replacing any existing pattern with the same id.
	Put(ctx context.Context, p *Pattern) error
}

// EmbeddingWriter is implemented by drivers that can backfill embeddings for
// patterns imported without one.
type EmbeddingWriter interface {
	// MissingEmbeddings returns up to limit patterns that have a thumbnail
	// but no embedding, ordered by id.
	MissingEmbeddings(ctx context.Context, limit int) ([]Pattern, error)

	// SetEmbedding stores the embedding of an existing pattern. It returns
	// NotFoundError if the id does not exist.
	SetEmbedding(ctx context.Context, id int64, embedding []float32) error
}
