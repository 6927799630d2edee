package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned for any login failure. It deliberately
	// does not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidInput marks signup/password policy violations so handlers can
	// report them without exposing infrastructure errors.
	ErrInvalidInput = errors.New("invalid input")
)

const minPasswordLen = 8

// dummyHash is compared against when the email has no account, so the
// unknown-email path costs one bcrypt verification like the known-email path.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Service owns the user identity lifecycle: signup, credential checks and
// password updates.
type Service struct {
	repo   Repository
	hasher *Hasher
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, hasher: NewHasher()}
}

// SignupInput captures the data required to register an account.
type SignupInput struct {
	Email        string
	FirstName    string
	LastName     string
	Password     string
	Phone        string
	ReferralCode string
}

// Signup registers a new user with a hashed password. Returns ErrEmailTaken
// when the email is already registered in any case variant.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	email := NormalizeEmail(in.Email)
	if !validEmail(email) {
		return User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if in.FirstName == "" || in.LastName == "" {
		return User{}, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if err := ValidatePassword(in.Password); err != nil {
		return User{}, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Phone:        in.Phone,
		ReferralCode: in.ReferralCode,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Login verifies the email and password pair.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a comparison anyway to keep both failure paths on the
			// same clock.
			_ = s.hasher.Compare(ctx, dummyHash, password)
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// LookupByEmail fetches a user record by email, case-insensitively.
func (s *Service) LookupByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// LookupByID fetches a user record by identifier.
func (s *Service) LookupByID(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdatePassword hashes and stores a new password for the user. Sessions
// issued before the change remain valid until they expire.
func (s *Service) UpdatePassword(ctx context.Context, id, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// ValidatePassword enforces the minimum password policy.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	return nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
