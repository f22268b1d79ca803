package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "revoked:"

// RevocationStore is the Redis-backed revocation registry for deployments
// spanning multiple processes. Entries expire with the token they revoke,
// so Redis handles garbage collection; the consistency of SET/EXISTS gives
// the immediate-visibility guarantee within the store.
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore wraps a connected client.
func NewRevocationStore(r *Redis) (*RevocationStore, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("redis client not configured")
	}
	return &RevocationStore{client: r.Client}, nil
}

// Revoke stores the token identifier with a TTL matching the token's
// remaining lifetime. Idempotent; already-expired tokens are skipped.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return s.client.Set(ctx, revocationKeyPrefix+tokenID, "", ttl).Err()
}

// IsRevoked reports whether the identifier has a live entry. Errors
// propagate so the resolver can deny rather than fail open.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
