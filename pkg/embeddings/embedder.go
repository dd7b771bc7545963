// Package embeddings
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbedding is returned when a remote embedding call fails.
var ErrEmbedding = errors.New("embedding failed")

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// ImageEmbedder embeds images into the same vector space as Embed's text
// queries.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, mediaType string, data []byte) ([]float32, error)
}
