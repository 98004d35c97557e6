package middleware

import (
	"strings"

	"github.com/biosecret/go-todo/auth"
	"github.com/gofiber/fiber/v2"
)

// Locals keys set by JWTMiddleware.
const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// JWTMiddleware authenticates the access token from the Authorization header.
func JWTMiddleware(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Vary(fiber.HeaderAuthorization)

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
		}

		// "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token format"})
		}

		identity, err := tokens.Verify(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(UserIDKey, identity.UserID)
		c.Locals(UsernameKey, identity.Username)
		return c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *fiber.Ctx) (int, bool) {
	id, ok := c.Locals(UserIDKey).(int)
	return id, ok && id > 0
}
