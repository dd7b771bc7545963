package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mbuckingham74/quilting-patterns-viewer/api/duplicates"
	"github.com/mbuckingham74/quilting-patterns-viewer/api/search"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/eventstream"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/verify"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// VerifyRequest is the body of POST /v1/admin/duplicates/verify.
type VerifyRequest struct {
	PatternID1 *int64 `json:"pattern_id_1"`
	PatternID2 *int64 `json:"pattern_id_2"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListDuplicates handles GET /v1/admin/duplicates.
// Query parameters:
//   - threshold (optional, default 0.95): minimum similarity in [0,1]
//   - limit (optional, default 50): maximum pairs in [1,200]
func (s *Server) handleListDuplicates(c *fiber.Ctx) error {
	threshold, limit, err := duplicates.ParseParams(c.Query("threshold"), c.Query("limit"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	output, err := duplicates.Find(c.UserContext(), threshold, limit, s.driver, s.logger)
	if err != nil {
		if errors.Is(err, duplicates.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("failed to list duplicates",
			"action", "find_duplicates",
			"threshold", threshold,
			"limit", limit,
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to find duplicates"})
	}

	return c.JSON(output)
}

// handleVerifyDuplicates handles POST /v1/admin/duplicates/verify.
func (s *Server) handleVerifyDuplicates(c *fiber.Ctx) error {
	if s.config.Verifier == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "duplicate verification is not configured",
		})
	}

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.PatternID1 == nil || req.PatternID2 == nil || *req.PatternID1 <= 0 || *req.PatternID2 <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "pattern_id_1 and pattern_id_2 must be positive integers",
		})
	}
	id1, id2 := *req.PatternID1, *req.PatternID2

	result, err := s.config.Verifier.Verify(c.UserContext(), id1, id2)
	if err != nil {
		switch {
		case errors.Is(err, verify.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "one or both patterns not found"})
		case errors.Is(err, verify.ErrThumbnail):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}

		s.logger.Error("duplicate verification failed",
			"action", "verify_duplicates",
			"pattern_id_1", id1,
			"pattern_id_2", id2,
			"error", err,
		)

		var parseErr *verify.ParseError
		if errors.As(err, &parseErr) {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to parse verification response"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "verification failed"})
	}

	return c.JSON(result)
}

// handleDeletePattern handles DELETE /v1/admin/patterns/:id.
func (s *Server) handleDeletePattern(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id must be a positive integer"})
	}

	deleted, err := s.driver.Delete(c.UserContext(), id)
	if err != nil {
		var notFound patterns.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "pattern not found"})
		}
		s.logger.Error("failed to delete pattern",
			"action", "delete_pattern",
			"pattern_id", id,
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete pattern"})
	}

	actor := ""
	if p := principalFrom(c); p != nil {
		actor = p.UserID
	}

	s.logger.Info("pattern deleted",
		"pattern_id", id,
		"actor", actor,
	)

	// the delete is committed; a slow broker must not hold the response
	pubCtx, cancel := context.WithTimeout(c.UserContext(), s.config.PublishTimeout)
	defer cancel()

	event := eventstream.NewPatternDeleted(actor, id, deleted.FileName)
	if err := s.config.Publisher.Publish(pubCtx, event); err != nil {
		s.logger.Warn("failed to publish activity event",
			"event_type", event.EventType,
			"pattern_id", id,
			"error", err,
		)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleSearchPatterns handles GET /v1/patterns/search.
// Query parameters:
//   - query (required): the search query text
//   - limit (optional, default 20): number of results in [1,100]
func (s *Server) handleSearchPatterns(c *fiber.Ctx) error {
	if s.config.Embedder == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "search is not configured: an embedder is required",
		})
	}

	limit, err := search.ParseLimit(c.Query("limit"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	output, err := search.Search(c.UserContext(), c.Query("query"), limit, s.config.Embedder, s.driver, s.logger)
	if err != nil {
		if errors.Is(err, search.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("pattern search failed",
			"action", "search_patterns",
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "search failed"})
	}

	return c.JSON(output)
}
