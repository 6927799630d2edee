package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/billvault/billvault/internal/auth"
	"github.com/billvault/billvault/internal/identity"
)

// SessionAuth validates the session cookie and resolves the user. Every
// failure (missing cookie, bad signature, expired token, unknown user)
// produces the same generic 401.
func SessionAuth(issuer *auth.Issuer, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(auth.SessionCookie)
		if token == "" {
			return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
		}

		userID, err := issuer.Verify(token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
		}

		if _, err := repo.FindByID(c.UserContext(), userID); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
