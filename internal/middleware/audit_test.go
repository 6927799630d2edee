package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestAuditLogsRequestLifecycle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Audit(logger))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/ok", nil)
	req.Header.Set(requestIDHeader, "req-audit-1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var entry struct {
		Level     string `json:"level"`
		Msg       string `json:"msg"`
		Method    string `json:"method"`
		Path      string `json:"path"`
		Status    int    `json:"status"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode audit entry: %v (raw %q)", err, buf.String())
	}
	if entry.Msg != "request completed" {
		t.Fatalf("unexpected audit message %q", entry.Msg)
	}
	if entry.Method != fiber.MethodGet || entry.Path != "/ok" || entry.Status != http.StatusOK {
		t.Fatalf("unexpected audit attrs: %+v", entry)
	}
	if entry.RequestID != "req-audit-1" {
		t.Fatalf("expected request id propagated into audit log, got %q", entry.RequestID)
	}
}

func TestAuditLogsHandlerErrorsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Audit(logger))
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusServiceUnavailable, "downstream gone")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var entry struct {
		Level string `json:"level"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode audit entry: %v (raw %q)", err, buf.String())
	}
	if entry.Level != "ERROR" {
		t.Fatalf("expected ERROR level, got %q", entry.Level)
	}
	if entry.Error == "" {
		t.Fatal("expected error attribute in audit entry")
	}
}
