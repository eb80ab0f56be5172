package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware guards the service-to-service API with a shared bearer
// token.
type AuthMiddleware struct {
	token string
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(token string) *AuthMiddleware {
	return &AuthMiddleware{token: token}
}

// RequireToken ensures the request carries the configured bearer token.
// With no token configured every request is rejected: the control
// surface is never open by accident.
func (m *AuthMiddleware) RequireToken(c fiber.Ctx) error {
	if m.token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "API token not configured",
		})
	}

	header := c.Get("Authorization")
	presented, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(m.token)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "unauthorized",
		})
	}

	return c.Next()
}
