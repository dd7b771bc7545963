// Package patterns defines the pattern library records and the driver
// interface used to query and mutate them.
package patterns

// UnknownFileName is shown for patterns whose metadata could not be found.
const UnknownFileName = "Unknown"

// Pattern is a single embroidery or quilting design in the library.
type Pattern struct {
	ID            int64   `json:"id"`
	FileName      string  `json:"file_name"`
	FileExtension string  `json:"file_extension"`
	Author        *string `json:"author"`
	AuthorNotes   *string `json:"author_notes,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	ThumbnailURL  *string `json:"thumbnail_url"`

	// Embedding is produced by an external embedding provider. It is opaque to
	// everything except the similarity index and semantic search.
	Embedding []float32 `json:"-"`
}

// Summary is the display metadata a reviewer needs to compare two patterns.
type Summary struct {
	ID            int64   `json:"id"`
	FileName      string  `json:"file_name"`
	FileExtension string  `json:"file_extension"`
	Author        *string `json:"author"`
	ThumbnailURL  *string `json:"thumbnail_url"`
}

// Summary returns the display metadata of p.
func (p *Pattern) Summary() Summary {
	return Summary{
		ID:            p.ID,
		FileName:      p.FileName,
		FileExtension: p.FileExtension,
		Author:        p.Author,
		ThumbnailURL:  p.ThumbnailURL,
	}
}

// UnknownSummary is the placeholder summary for a pattern id that has no
// metadata row, e.g. because it was deleted while a review was in progress.
func UnknownSummary(id int64) Summary {
	return Summary{
		ID:       id,
		FileName: UnknownFileName,
	}
}

// CandidatePair is a pair of patterns the similarity index reports as
// plausible duplicates. PatternIDA is always the smaller id.
type CandidatePair struct {
	PatternIDA int64   `json:"pattern_id_1"`
	PatternIDB int64   `json:"pattern_id_2"`
	Similarity float64 `json:"similarity"`
}

// SearchResult is a pattern matched by semantic search.
type SearchResult struct {
	Summary

	// Score is the cosine similarity between the query and the pattern (higher = more similar).
	Score float64 `json:"score"`
}

// EmbeddingRow is the id and embedding of one pattern, used to build the
// similarity index.
type EmbeddingRow struct {
	ID        int64
	Embedding []float32
}
