package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoEntry is returned by RevocationStore.Get when no entry exists for a
// token-id. Absence means the refresh token is no longer valid even if its
// signature and expiry still check out.
var ErrNoEntry = errors.New("revocation entry not found")

// RevocationStore maps token-id -> subject id for every outstanding refresh
// token. Entries carry a TTL equal to the refresh token's validity window
// and never outlive it. The store must be shared across all gateway/bridge
// instances, not kept in process memory.
type RevocationStore interface {
	// Set records an entry with the given time-to-live.
	Set(ctx context.Context, tokenID, subject string, ttl time.Duration) error
	// Get returns the subject for a token-id, or ErrNoEntry when absent.
	Get(ctx context.Context, tokenID string) (string, error)
	// Del removes an entry and reports whether one was actually removed,
	// so racing rotations can tell winner from loser.
	Del(ctx context.Context, tokenID string) (bool, error)
}

const revocationPrefix = "refresh:"

// RedisRevocations is the production RevocationStore, one Redis string per
// outstanding refresh token.
type RedisRevocations struct{ RDB *redis.Client }

func NewRedisRevocations(rdb *redis.Client) *RedisRevocations {
	return &RedisRevocations{RDB: rdb}
}

func (s *RedisRevocations) Set(ctx context.Context, tokenID, subject string, ttl time.Duration) error {
	return s.RDB.Set(ctx, revocationPrefix+tokenID, subject, ttl).Err()
}

func (s *RedisRevocations) Get(ctx context.Context, tokenID string) (string, error) {
	v, err := s.RDB.Get(ctx, revocationPrefix+tokenID).Result()
	if err == redis.Nil {
		return "", ErrNoEntry
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *RedisRevocations) Del(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.RDB.Del(ctx, revocationPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
