// Package mcp provides an MCP (Model Context Protocol) server exposing the
// duplicate scan and pattern search to agent clients.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/embeddings"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
)

type Config struct {
	// Driver reads the similarity index and pattern metadata
	Driver patterns.Driver

	// Embedder converts query text to vectors. Optional; the search_patterns
	// tool is only registered when set.
	Embedder embeddings.Embedder

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the duplicate and search tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "qpv",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Driver == nil {
			return nil, errors.New("pattern driver is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        findDuplicatesToolName,
			Description: findDuplicatesDescription,
		}, s.handleFindDuplicates)

		if c.Embedder != nil {
			mcp.AddTool(mcpServer, &mcp.Tool{
				Name:        searchToolName,
				Description: searchDescription,
			}, s.handleSearch)
		}
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
