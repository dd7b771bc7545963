package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/auth"
)

const principalKey = "principal"

// authenticate resolves the bearer token and stores the principal on the
// request. Requests without a valid token stop here with a 401.
func (s *Server) authenticate(c *fiber.Ctx) error {
	token := auth.BearerToken(c.Get(fiber.HeaderAuthorization))

	principal, err := s.config.Resolver.Resolve(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "authentication required"})
		}
		s.logger.Error("failed to resolve token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to resolve token"})
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// requireAdmin must run after authenticate.
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	principal := principalFrom(c)
	if principal == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "authentication required"})
	}
	if !principal.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "admin access required"})
	}
	return c.Next()
}

func principalFrom(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals(principalKey).(*auth.Principal)
	return p
}
