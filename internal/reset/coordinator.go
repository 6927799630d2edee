package reset

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/billvault/billvault/internal/identity"
	"github.com/billvault/billvault/internal/notification"
)

// ErrInvalidOrExpired is the only redeem failure visible to callers. It
// deliberately conflates never-existed, expired and already-used tokens so a
// caller probing tokens learns nothing.
var ErrInvalidOrExpired = errors.New("reset token invalid or expired")

const tokenBytes = 32

// deliverTimeout bounds the detached mint/store/deliver work after the request
// has already been answered.
const deliverTimeout = 10 * time.Second

// Credentials is the slice of the credential store the coordinator needs.
type Credentials interface {
	LookupByEmail(ctx context.Context, email string) (identity.User, error)
	UpdatePassword(ctx context.Context, id, newPassword string) error
}

// TokenStore holds pending reset records in an ephemeral store with TTL.
// Claim must be atomic with respect to concurrent claimers of the same token.
type TokenStore interface {
	Put(ctx context.Context, token string, rec Record, ttl time.Duration) error
	Claim(ctx context.Context, token string) (Record, bool, error)
}

// Record is the pending-reset bookkeeping entry keyed by the opaque token.
type Record struct {
	UserID   string    `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// Coordinator drives the request -> deliver -> redeem lifecycle for password
// resets, enforcing single use and expiry.
type Coordinator struct {
	creds  Credentials
	store  TokenStore
	mailer notification.Mailer
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	inflight sync.WaitGroup
}

// NewCoordinator builds a reset coordinator with the given token window.
func NewCoordinator(creds Credentials, store TokenStore, mailer notification.Mailer, ttl time.Duration, logger *slog.Logger) *Coordinator {
	return &Coordinator{creds: creds, store: store, mailer: mailer, ttl: ttl, logger: logger, now: time.Now}
}

// Request starts a password reset for the account. It reports success whether
// or not the email has an account, and the token mint, store write and mail
// delivery all happen off the request path, so neither the outcome nor the
// latency reveals account existence. Failures past the lookup stay internal.
func (c *Coordinator) Request(ctx context.Context, email string) error {
	user, err := c.creds.LookupByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil
		}
		return err
	}

	// Detached from the request context: the caller has already been answered.
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()
		c.deliver(ctx, user)
	}()
	return nil
}

func (c *Coordinator) deliver(ctx context.Context, user identity.User) {
	token, err := newToken()
	if err != nil {
		c.logger.Error("mint reset token", "user_id", user.ID, "error", err)
		return
	}

	rec := Record{UserID: user.ID, IssuedAt: c.now().UTC()}
	if err := c.store.Put(ctx, token, rec, c.ttl); err != nil {
		c.logger.Error("store reset token", "user_id", user.ID, "error", err)
		return
	}

	if err := c.mailer.SendPasswordReset(ctx, user.Email, user.FirstName, token); err != nil {
		c.logger.Warn("reset mail delivery failed", "user_id", user.ID, "error", err)
	}
}

// Drain blocks until in-flight reset deliveries have finished. Called on
// shutdown so pending mail is not lost.
func (c *Coordinator) Drain() {
	c.inflight.Wait()
}

// Redeem consumes the token and applies the new password. The token is
// claimed atomically before the password write, so concurrent redeems of the
// same token let at most one through. If the password write fails, the record
// is put back with its remaining window so the user can retry with the same
// link.
func (c *Coordinator) Redeem(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidOrExpired
	}
	// Validate before claiming so a policy rejection does not consume the token.
	if err := identity.ValidatePassword(newPassword); err != nil {
		return err
	}

	rec, ok, err := c.store.Claim(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOrExpired
	}

	if err := c.creds.UpdatePassword(ctx, rec.UserID, newPassword); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrInvalidOrExpired
		}
		remaining := c.ttl - c.now().Sub(rec.IssuedAt)
		if remaining > 0 {
			if rerr := c.store.Put(ctx, token, rec, remaining); rerr != nil {
				c.logger.Error("restore reset token", "user_id", rec.UserID, "error", rerr)
			}
		}
		return err
	}

	return nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
