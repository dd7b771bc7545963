// Package api provides the HTTP API server for reviewing, verifying and
// resolving duplicate patterns.
package api

import (
	"context"
	"time"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/auth"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/embeddings"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/eventstream"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/verify"
)

// DefaultPublishTimeout is the default Config.PublishTimeout.
const DefaultPublishTimeout = 2 * time.Second

// Verifier judges whether two patterns are duplicates.
type Verifier interface {
	Verify(ctx context.Context, id1, id2 int64) (*verify.Result, error)
}

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Resolver maps bearer tokens to principals. Required.
	Resolver auth.Resolver

	// Verifier runs the vision model. Verification requests get a 503 when nil.
	Verifier Verifier

	// Embedder for semantic search. Search requests get a 503 when nil.
	Embedder embeddings.Embedder

	// Publisher receives activity events. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	// PublishTimeout bounds how long a request waits on Publisher before
	// answering. Defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration

	// MCP serves the MCP endpoint at /mcp for admin principals.
	MCP bool
}
