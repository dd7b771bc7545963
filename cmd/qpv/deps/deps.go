// Package deps builds the runtime dependencies of qpv commands from a
// resolved config.
package deps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/sqlitepath"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/auth"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/credentials"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/embeddings"
	embeddingutils "github.com/mbuckingham74/quilting-patterns-viewer/pkg/embeddings/utils"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/eventstream"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/eventstream/kafka"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/eventstream/nop"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns/inmemory"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns/postgres"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns/sqlite"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/thumbnail"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/verify"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/vision/anthropic"
)

// ErrNotConfigured is returned by optional dependencies that have no
// credentials. Callers serve without the feature.
var ErrNotConfigured = errors.New("not configured")

// NewDriver opens the pattern store selected by cfg.Storage.Driver.
func NewDriver(ctx context.Context, cfg *config.Config, logger *slog.Logger) (patterns.Driver, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres driver")
		}
		driver, err := postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		logger.Info("using PostgreSQL storage")
		return driver, nil

	case config.DriverSQLite:
		path, err := sqlitepath.ResolveSQLitePath(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		driver, err := sqlite.NewDriver(path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		logger.Info("using SQLite storage", "path", path)
		return driver, nil

	case config.DriverInMemory, "":
		logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Storage.Driver)
	}
}

// NewVerifier builds the duplicate verifier. It returns ErrNotConfigured when
// no API key is available for the verifier provider.
func NewVerifier(cfg *config.Config, configDir string, driver patterns.Driver, logger *slog.Logger) (*verify.Verifier, error) {
	if cfg.Verifier.Provider != credentials.ProviderAnthropic {
		return nil, fmt.Errorf("unsupported verifier provider: %q", cfg.Verifier.Provider)
	}

	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	apiKey, err := creds.ResolveKey(credentials.ProviderAnthropic, "")
	if err != nil {
		return nil, fmt.Errorf("resolving anthropic key: %w", err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no anthropic api key (run qpv auth anthropic or set %s)",
			ErrNotConfigured, credentials.EnvVarForProvider(credentials.ProviderAnthropic))
	}

	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}

	model, err := anthropic.New(anthropic.Config{
		APIKey:    apiKey,
		Model:     cfg.Verifier.Model,
		MaxTokens: int64(cfg.Verifier.MaxTokens),
	})
	if err != nil {
		return nil, err
	}

	return verify.New(verify.Config{
		Driver:  driver,
		Fetcher: fetcher,
		Model:   model,
		Logger:  logger,
	})
}

// NewFetcher builds the guarded thumbnail fetcher. It returns
// ErrNotConfigured when no thumbnail host is allowed.
func NewFetcher(cfg *config.Config) (*thumbnail.Fetcher, error) {
	guard, err := thumbnail.NewGuard(thumbnail.GuardConfig{
		AllowedHosts:  cfg.Thumbnails.AllowedHosts,
		PathPrefix:    cfg.Thumbnails.PathPrefix,
		AllowInsecure: cfg.Thumbnails.AllowInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	return thumbnail.NewFetcher(guard, thumbnail.FetcherConfig{MaxBytes: int64(cfg.Thumbnails.MaxBytes)}), nil
}

// NewImageEmbedder builds an embedder for pattern thumbnails. Only providers
// with a multimodal model can embed images.
func NewImageEmbedder(cfg *config.Config, configDir string) (ImageEmbedder, error) {
	e, err := NewEmbedder(cfg, configDir)
	if err != nil {
		return nil, err
	}
	ie, ok := e.(ImageEmbedder)
	if !ok {
		e.Close()
		return nil, fmt.Errorf("embedding provider %q cannot embed images", cfg.Embedding.Provider)
	}
	return ie, nil
}

// ImageEmbedder is an embeddings.Embedder that also embeds images.
type ImageEmbedder interface {
	embeddings.Embedder
	embeddings.ImageEmbedder
}

// NewEmbedder builds the query embedder. Voyage requires an API key; it
// returns ErrNotConfigured when none is available.
func NewEmbedder(cfg *config.Config, configDir string) (embeddings.Embedder, error) {
	opts := &embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
	}

	if cfg.Embedding.Provider == credentials.ProviderVoyage {
		creds, err := credentials.NewManager(configDir)
		if err != nil {
			return nil, fmt.Errorf("loading credentials: %w", err)
		}
		key, err := creds.ResolveKey(credentials.ProviderVoyage, "")
		if err != nil {
			return nil, fmt.Errorf("resolving voyage key: %w", err)
		}
		if key == "" {
			return nil, fmt.Errorf("%w: no voyage api key (run qpv auth voyage or set %s)",
				ErrNotConfigured, credentials.EnvVarForProvider(credentials.ProviderVoyage))
		}
		opts.APIKey = key
	}

	return embeddingutils.NewEmbedder(opts)
}

// NewPublisher builds the activity event publisher.
func NewPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	switch cfg.Activity.Provider {
	case "nop", "":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Activity.Brokers,
			Topic:   cfg.Activity.Topic,
		})
	default:
		return nil, fmt.Errorf("unsupported activity provider: %q", cfg.Activity.Provider)
	}
}

// NewResolver builds the bearer token resolver from the configured tokens.
func NewResolver(cfg *config.Config, logger *slog.Logger) auth.Resolver {
	if len(cfg.Auth.Tokens) == 0 {
		logger.Warn("no API tokens configured; every /v1 request will be rejected")
	}
	return auth.NewStaticResolver(cfg.Auth.Tokens)
}
