package auth

import (
	"context"
	"log/slog"

	"github.com/billvault/billvault/internal/identity"
	"github.com/billvault/billvault/internal/wallet"
)

const defaultCurrency = "NGN"

// Service orchestrates signup and login: credential checks via the identity
// service, session minting via the issuer, and default wallet provisioning.
type Service struct {
	ids     *identity.Service
	wallets *wallet.Service
	issuer  *Issuer
	logger  *slog.Logger
}

// NewService builds the auth service.
func NewService(ids *identity.Service, wallets *wallet.Service, issuer *Issuer, logger *slog.Logger) *Service {
	return &Service{ids: ids, wallets: wallets, issuer: issuer, logger: logger}
}

// Session pairs an authenticated user with a freshly issued token.
type Session struct {
	User  identity.User
	Token string
}

// Signup registers the user and then provisions a default zero-balance wallet
// as an explicit second step. Wallet provisioning is non-fatal: a failure is
// logged for reconciliation and the signup still succeeds.
func (s *Service) Signup(ctx context.Context, in identity.SignupInput) (Session, error) {
	user, err := s.ids.Signup(ctx, in)
	if err != nil {
		return Session{}, err
	}

	if s.wallets != nil {
		if _, err := s.wallets.Create(ctx, wallet.CreateInput{OwnerID: user.ID, Currency: defaultCurrency}); err != nil {
			s.logger.Error("provision default wallet", "user_id", user.ID, "error", err)
		}
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

// Login validates credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.ids.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}
