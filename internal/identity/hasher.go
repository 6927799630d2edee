package identity

import (
	"context"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher wraps bcrypt behind a weighted semaphore so a burst of signups or
// logins cannot monopolise every scheduler thread with hashing work.
type Hasher struct {
	sem  *semaphore.Weighted
	cost int
}

// NewHasher builds a hasher with the default bcrypt cost and a concurrency
// cap of twice GOMAXPROCS.
func NewHasher() *Hasher {
	return &Hasher{
		sem:  semaphore.NewWeighted(int64(2 * runtime.GOMAXPROCS(0))),
		cost: bcrypt.DefaultCost,
	}
}

// Hash derives a salted one-way hash of the password.
func (h *Hasher) Hash(ctx context.Context, password string) ([]byte, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer h.sem.Release(1)
	return bcrypt.GenerateFromPassword([]byte(password), h.cost)
}

// Compare checks a password against a stored hash using bcrypt's
// constant-time comparison.
func (h *Hasher) Compare(ctx context.Context, hash []byte, password string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}
