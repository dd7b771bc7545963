package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/mbuckingham74/quilting-patterns-viewer/api/mcp"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/eventstream/nop"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
)

// Server is the API server for the duplicate review workflow
type Server struct {
	config Config
	driver patterns.Driver
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The driver is injected to allow sharing with other components
// (e.g., the similarity index job).
func NewServer(config Config, driver patterns.Driver, logger *slog.Logger) (*Server, error) {
	if driver == nil {
		return nil, errors.New("pattern driver is required")
	}
	if config.Resolver == nil {
		return nil, errors.New("auth resolver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.Publisher == nil {
		config.Publisher = nop.NewPublisher()
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = DefaultPublishTimeout
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		driver: driver,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1", s.authenticate)
	v1.Get("/patterns/search", s.handleSearchPatterns)

	admin := v1.Group("/admin", s.requireAdmin)
	admin.Get("/duplicates", s.handleListDuplicates)
	admin.Post("/duplicates/verify", s.handleVerifyDuplicates)
	admin.Delete("/patterns/:id", s.handleDeletePattern)

	if config.MCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Driver:   driver,
			Embedder: config.Embedder,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", s.authenticate, s.requireAdmin, adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
