package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/billvault/billvault/internal/auth"
)

// RegisterAuthRoutes wires authentication and password-reset endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/signup", h.Signup)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/logout", h.Logout)
	group.Post("/password/forgot", h.ForgotPassword)
	group.Post("/password/reset", h.ResetPassword)
}
