package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RevocationStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRevocationStore(&Redis{Client: client})
	require.NoError(t, err)
	return store, mr
}

func TestRevocationStoreRevokeAndLookup(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "token-a", time.Now().Add(time.Hour)))

	revoked, err = store.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "token-b")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevocationStoreIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	expiresAt := time.Now().Add(time.Hour)

	require.NoError(t, store.Revoke(ctx, "token-a", expiresAt))
	require.NoError(t, store.Revoke(ctx, "token-a", expiresAt))

	revoked, err := store.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRevocationStoreEntryExpiresWithToken(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "token-a", time.Now().Add(time.Minute)))

	mr.FastForward(30 * time.Second)
	revoked, err := store.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	require.True(t, revoked)

	mr.FastForward(31 * time.Second)
	revoked, err = store.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevocationStoreSkipsDeadTokens(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "token-a", time.Now().Add(-time.Minute)))
	require.Empty(t, mr.Keys())
}

func TestRevocationStoreErrorsPropagate(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	mr.Close()

	_, err := store.IsRevoked(ctx, "token-a")
	require.Error(t, err)
}
