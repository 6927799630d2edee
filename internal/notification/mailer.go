package notification

import (
	"context"
	"fmt"
	"log/slog"
)

// Mailer delivers account mail out of band. Implementations are best-effort;
// the reset flow never surfaces delivery failures to clients.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, token string) error
}

// LogMailer writes mail to the structured logger instead of sending it.
// Used for development and tests.
type LogMailer struct {
	logger  *slog.Logger
	baseURL string
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(logger *slog.Logger, baseURL string) *LogMailer {
	return &LogMailer{logger: logger, baseURL: baseURL}
}

// SendPasswordReset logs the reset link that would have been mailed.
func (m *LogMailer) SendPasswordReset(_ context.Context, toEmail, toName, token string) error {
	if m == nil || m.logger == nil {
		return nil
	}
	m.logger.Info("password reset mail",
		"to", toEmail,
		"name", toName,
		"link", resetLink(m.baseURL, token),
	)
	return nil
}

func resetLink(baseURL, token string) string {
	return fmt.Sprintf("%s/auth/reset-password?token=%s", baseURL, token)
}
