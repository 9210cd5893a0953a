package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// LocalsUserID is the fiber locals key the authenticated user id lives under.
const LocalsUserID = "user_id"

// LocalsToken holds the raw bearer token, so logout can revoke it.
const LocalsToken = "token"

// TokenResolver resolves a bearer token to a user id. *session.Store
// satisfies it.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
}

// Authenticate requires a valid `Authorization: Bearer <token>` header and
// stores the user id in locals for the handlers downstream.
func Authenticate(sessions TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		userID, err := sessions.Resolve(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(LocalsUserID, userID)
		c.Locals(LocalsToken, token)
		return c.Next()
	}
}

// UserID extracts the authenticated user id placed by Authenticate.
func UserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(LocalsUserID).(uuid.UUID)
	return id
}

// Token extracts the raw bearer token placed by Authenticate.
func Token(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalsToken).(string)
	return token
}
