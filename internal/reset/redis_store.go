package reset

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "pwreset:v1:"
	opTimeout = 2 * time.Second
)

// RedisStore keeps reset records in Redis. Expiry is enforced by the store's
// own TTL mechanism, and Claim uses GETDEL so check-and-invalidate is a
// single atomic operation.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores the record under the token with the given TTL.
func (s *RedisStore) Put(ctx context.Context, token string, rec Record, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Set(ctx, keyPrefix+token, payload, ttl).Err()
}

// Claim atomically fetches and deletes the record. A missing or expired key
// reports ok=false with no error.
func (s *RedisStore) Claim(ctx context.Context, token string) (Record, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	val, err := s.client.GetDel(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		// A corrupt record is unredeemable; treat it as absent.
		return Record{}, false, nil
	}
	return rec, true, nil
}
