package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrEmailTaken indicates the email is already registered, in any case variant.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNotFound indicates no user matches the given email or id.
	ErrNotFound = errors.New("user not found")
)

const uniqueViolation = "23505"

// Repository persists users. Emails are compared case-insensitively.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	UpdatePassword(ctx context.Context, id string, hash []byte) error
}

// NormalizeEmail lowercases and trims an email so lookups and uniqueness
// checks never depend on the caller's casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. The unique index on lower(email) is the final
// arbiter for concurrent signups racing on the same address.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, email, first_name, last_name, password_hash, phone, referral_code, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, NormalizeEmail(user.Email), user.FirstName, user.LastName, user.PasswordHash, user.Phone, user.ReferralCode, user.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindByEmail fetches a user by email, case-insensitively.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, first_name, last_name, password_hash, phone, referral_code, created_at
        FROM users WHERE lower(email) = $1`, NormalizeEmail(email))
	return scanUser(row)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, email, first_name, last_name, password_hash, phone, referral_code, created_at
        FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// UpdatePassword overwrites the stored password hash. Existing session tokens
// are untouched; they expire on their own short window.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.Phone, &user.ReferralCode, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
