package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/billvault/billvault/internal/auth"
	"github.com/billvault/billvault/internal/config"
	"github.com/billvault/billvault/internal/logging"
)

const testTimeoutMs = 15000

type captureMailer struct {
	mu     sync.Mutex
	tokens []string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, token)
	return nil
}

// last waits for the detached delivery goroutine to hand the mailer a token.
func (m *captureMailer) last(t *testing.T) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		m.mu.Lock()
		if n := len(m.tokens); n > 0 {
			token := m.tokens[n-1]
			m.mu.Unlock()
			return token
		}
		m.mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatal("no reset token captured")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func setupApp(t *testing.T) (*fiber.App, *captureMailer) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	cfg := config.Config{
		AppName:        "Billvault",
		AppEnv:         "development",
		JWTSecret:      "routes-test-secret-0123456789",
		SessionTTL:     15 * time.Minute,
		ResetTokenTTL:  900 * time.Second,
		IdempotencyTTL: time.Minute,
		LoginPerMinute: 100,
		BaseURL:        "http://localhost:8080",
	}

	mailer := &captureMailer{}
	app := fiber.New()
	if err := Setup(app, Deps{Cfg: cfg, Cache: cache, Logger: logging.Discard(), Mailer: mailer}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app, mailer
}

func postJSON(t *testing.T, app *fiber.App, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, testTimeoutMs)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func getJSON(t *testing.T, app *fiber.App, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, testTimeoutMs)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.SessionCookie {
			if !cookie.HttpOnly {
				t.Fatal("session cookie must be HTTP-only")
			}
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return string(payload)
}

func TestSignupLoginAndMe(t *testing.T) {
	app, _ := setupApp(t)

	resp := postJSON(t, app, "/api/v1/auth/signup", fiber.Map{
		"email":      "a@b.com",
		"first_name": "A",
		"last_name":  "B",
		"password":   "Passw0rd",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	cookie := sessionCookie(t, resp)

	// Same email, different case.
	resp = postJSON(t, app, "/api/v1/auth/signup", fiber.Map{
		"email":      "A@B.com",
		"first_name": "X",
		"last_name":  "Y",
		"password":   "Different1",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", resp.StatusCode)
	}

	resp = getJSON(t, app, "/api/v1/me")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me without cookie: expected 401, got %d", resp.StatusCode)
	}

	resp = getJSON(t, app, "/api/v1/me", cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me with cookie: expected 200, got %d", resp.StatusCode)
	}
	var profile struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(readBody(t, resp)), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Email != "a@b.com" {
		t.Fatalf("expected email a@b.com, got %q", profile.Email)
	}

	// The signup-provisioned wallet starts at zero.
	resp = getJSON(t, app, "/api/v1/wallets/me", cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("wallets/me: expected 200, got %d", resp.StatusCode)
	}
	var walletBody struct {
		Balance  int64  `json:"balance"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal([]byte(readBody(t, resp)), &walletBody); err != nil {
		t.Fatalf("decode wallet: %v", err)
	}
	if walletBody.Balance != 0 {
		t.Fatalf("expected zero seed balance, got %d", walletBody.Balance)
	}
	if walletBody.Currency != "NGN" {
		t.Fatalf("expected NGN wallet, got %s", walletBody.Currency)
	}
}

func TestLoginFailurePathsLookTheSame(t *testing.T) {
	app, _ := setupApp(t)

	resp := postJSON(t, app, "/api/v1/auth/signup", fiber.Map{
		"email":      "user@example.com",
		"first_name": "Ada",
		"last_name":  "Obi",
		"password":   "Passw0rd",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", resp.StatusCode)
	}
	readBody(t, resp)

	respWrongPw := postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "user@example.com", "password": "wrongwrong"})
	respNoUser := postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "ghost@example.com", "password": "wrongwrong"})

	if respWrongPw.StatusCode != http.StatusUnauthorized || respNoUser.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", respWrongPw.StatusCode, respNoUser.StatusCode)
	}
	if a, b := readBody(t, respWrongPw), readBody(t, respNoUser); a != b {
		t.Fatalf("login failure bodies differ: %q vs %q", a, b)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	app, mailer := setupApp(t)

	resp := postJSON(t, app, "/api/v1/auth/signup", fiber.Map{
		"email":      "user@example.com",
		"first_name": "Ada",
		"last_name":  "Obi",
		"password":   "Passw0rd",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", resp.StatusCode)
	}
	readBody(t, resp)

	// Known and unknown emails produce identical responses.
	respKnown := postJSON(t, app, "/api/v1/auth/password/forgot", fiber.Map{"email": "user@example.com"})
	respUnknown := postJSON(t, app, "/api/v1/auth/password/forgot", fiber.Map{"email": "ghost@example.com"})
	if respKnown.StatusCode != http.StatusOK || respUnknown.StatusCode != http.StatusOK {
		t.Fatalf("forgot: expected 200/200, got %d/%d", respKnown.StatusCode, respUnknown.StatusCode)
	}
	if a, b := readBody(t, respKnown), readBody(t, respUnknown); a != b {
		t.Fatalf("forgot responses differ: %q vs %q", a, b)
	}

	token := mailer.last(t)

	resp = postJSON(t, app, "/api/v1/auth/password/reset", fiber.Map{"token": token, "new_password": "NewPass1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	resp = postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "user@example.com", "password": "NewPass1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login with new password: expected 200, got %d", resp.StatusCode)
	}

	// The token is single use.
	resp = postJSON(t, app, "/api/v1/auth/password/reset", fiber.Map{"token": token, "new_password": "Other2aa"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("second reset: expected 400, got %d", resp.StatusCode)
	}

	// And the rejected second redeem did not touch the password.
	resp = postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "user@example.com", "password": "NewPass1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login after rejected reset: expected 200, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupApp(t)

	resp := getJSON(t, app, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.StatusCode)
	}
}
