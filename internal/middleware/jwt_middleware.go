package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const userIDKey = "user_id"

// TokenValidator resolves an access token to the user id it was issued for.
// *services.AuthService satisfies it.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "") {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		userID, err := validator.ValidateToken(parts[1])
		if err != nil {
			logger.Debug().Err(err).Str("path", c.Path()).Msg("JWT validation failed")
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the id stored by AuthRequired, or "" outside of it.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "unauthorized",
			"message": msg,
		},
	})
}
