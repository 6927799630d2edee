package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/billvault/billvault/internal/identity"
	"github.com/billvault/billvault/internal/reset"
)

// SessionCookie is the name of the HTTP-only cookie carrying the session token.
const SessionCookie = "bv_session"

// Handler exposes auth endpoints: signup, login, logout and the password
// reset flow.
type Handler struct {
	svc    *Service
	resets *reset.Coordinator
	ttl    time.Duration
	secure bool
}

// NewHandler builds the auth HTTP handler. secure controls the cookie Secure
// flag and should be true outside development.
func NewHandler(svc *Service, resets *reset.Coordinator, ttl time.Duration, secure bool) *Handler {
	return &Handler{svc: svc, resets: resets, ttl: ttl, secure: secure}
}

type signupRequest struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	ReferralCode string `json:"referral_code"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

// Signup registers an account and sets the session cookie.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	session, err := h.svc.Signup(c.UserContext(), identity.SignupInput{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Password:     req.Password,
		Phone:        req.Phone,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return mapAuthError(err)
	}
	h.setSessionCookie(c, session.Token)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"user": toUserResponse(session.User)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login validates credentials and sets the session cookie.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	session, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}
	h.setSessionCookie(c, session.Token)
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": toUserResponse(session.User)})
}

// Logout clears the session cookie. Tokens are stateless, so the cookie is
// the only thing to destroy.
func (h *Handler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}

type forgotRequest struct {
	Email string `json:"email"`
}

// ForgotPassword starts the reset flow. The response is identical whether or
// not the email has an account.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.resets.Request(c.UserContext(), req.Email); err != nil {
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword redeems a reset token and applies the new password.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.resets.Redeem(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return mapAuthError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "password_updated"})
}

func (h *Handler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(h.ttl),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

// mapAuthError translates the error taxonomy into HTTP responses. Anything
// unrecognised is an infrastructure failure and stays opaque.
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailTaken):
		return fiber.NewError(http.StatusConflict, identity.ErrEmailTaken.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, identity.ErrInvalidCredentials.Error())
	case errors.Is(err, identity.ErrInvalidInput):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, reset.ErrInvalidOrExpired):
		return fiber.NewError(http.StatusBadRequest, reset.ErrInvalidOrExpired.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
