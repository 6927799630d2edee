package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESMailer delivers account mail via Amazon SES.
type SESMailer struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	baseURL   string
	window    time.Duration
}

// NewSESMailer loads AWS configuration and builds an SES-backed mailer.
// window is the reset-link validity period quoted in the mail body.
func NewSESMailer(ctx context.Context, region, fromEmail, fromName, baseURL string, window time.Duration) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESMailer{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
		window:    window,
	}, nil
}

// SendPasswordReset mails the reset link to the account holder.
func (m *SESMailer) SendPasswordReset(ctx context.Context, toEmail, toName, token string) error {
	link := resetLink(m.baseURL, token)
	minutes := int(m.window.Minutes())

	subject := "Reset your Billvault password"
	htmlBody := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset the password for your Billvault account.</p>
<p><a href="%s">Reset your password</a></p>
<p>This link expires in %d minutes. If you didn't ask for a reset you can ignore this email.</p>`,
		toName, link, minutes)
	textBody := fmt.Sprintf(`Hi %s,

We received a request to reset the password for your Billvault account.

%s

This link expires in %d minutes. If you didn't ask for a reset you can ignore this email.
`, toName, link, minutes)

	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}
