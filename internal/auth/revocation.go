package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// TokenID derives the registry identifier for a raw token. Registries key on
// this digest so neither memory nor an external store holds live bearer
// credentials.
func TokenID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RevocationRegistry records tokens invalidated before their natural expiry.
// Revocation must be visible to every IsRevoked call the instant Revoke
// returns.
type RevocationRegistry interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRegistry is the single-process registry: a map of revoked token
// identifiers to their expiry, guarded by one RWMutex shared by readers and
// writers. Entries are dropped only at or after their expiry, never before.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRegistry builds an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke records the token identifier until expiresAt. Idempotent: revoking
// an already-revoked token is a no-op. Identifiers whose expiry has already
// passed are not stored, the token is dead either way.
func (r *MemoryRegistry) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" || !expiresAt.After(r.now()) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[tokenID]; !exists {
		r.entries[tokenID] = expiresAt
	}
	return nil
}

// IsRevoked reports whether the identifier is currently revoked. An entry
// whose expiry has passed reads as not revoked and is purged lazily.
func (r *MemoryRegistry) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	expiresAt, exists := r.entries[tokenID]
	r.mu.RUnlock()

	if !exists {
		return false, nil
	}
	if r.now().Before(expiresAt) {
		return true, nil
	}

	// Expired entry: purge under the write lock, rechecking in case a
	// concurrent Revoke replaced it.
	r.mu.Lock()
	if current, ok := r.entries[tokenID]; ok && !r.now().Before(current) {
		delete(r.entries, tokenID)
	}
	r.mu.Unlock()
	return false, nil
}

// Sweep removes every entry whose expiry has passed and returns how many
// were dropped. Called periodically by the background sweeper.
func (r *MemoryRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, expiresAt := range r.entries {
		if !now.Before(expiresAt) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
