package config

import (
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/embeddings/voyage"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/eventstream/kafka"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/thumbnail"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/vision/anthropic"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverInMemory = "inmemory"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultVerifierProvider = "anthropic"

	defaultEmbeddingProvider   = "voyage"
	defaultEmbeddingDimensions = 1024

	defaultActivityProvider = "nop"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: DriverInMemory,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Verifier: VerifierConfig{
			Provider:  defaultVerifierProvider,
			Model:     anthropic.DefaultModel,
			MaxTokens: anthropic.DefaultMaxTokens,
		},
		Thumbnails: ThumbnailsConfig{
			PathPrefix: thumbnail.DefaultPathPrefix,
			MaxBytes:   uint(thumbnail.DefaultMaxBytes),
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      voyage.DefaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Activity: ActivityConfig{
			Provider: defaultActivityProvider,
			Topic:    kafka.DefaultTopic,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
	}
}
