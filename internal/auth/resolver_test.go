package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/identity-service/internal/domain"
)

type fakeDirectory struct {
	users map[string]*domain.User
	err   error
}

func (d *fakeDirectory) FindBySubject(_ context.Context, subject string) (*domain.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	user, ok := d.users[subject]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

type failingRegistry struct{}

func (failingRegistry) Revoke(context.Context, string, time.Time) error {
	return errors.New("store down")
}

func (failingRegistry) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}

func newResolverFixture(t *testing.T) (*PrincipalResolver, *TokenManager, *MemoryRegistry, *fakeDirectory) {
	t.Helper()
	tm := newTestManager(t, time.Hour)
	registry := NewMemoryRegistry()
	directory := &fakeDirectory{users: map[string]*domain.User{
		"alice@example.com": {
			ID:     "user-1",
			Email:  "alice@example.com",
			Roles:  []domain.Role{domain.RoleStudent},
			Status: domain.UserStatusActive,
		},
	}}
	return NewPrincipalResolver(tm, registry, directory), tm, registry, directory
}

func TestResolveValidToken(t *testing.T) {
	resolver, tm, _, _ := newResolverFixture(t)

	token, _, err := tm.Issue("alice@example.com", []domain.Role{domain.RoleStudent})
	require.NoError(t, err)

	principal, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", principal.Subject)
	require.Equal(t, []domain.Role{domain.RoleStudent}, principal.Roles)
}

func TestResolveRevokedBeforeDecode(t *testing.T) {
	resolver, tm, registry, _ := newResolverFixture(t)
	ctx := context.Background()

	token, exp, err := tm.Issue("alice@example.com", []domain.Role{domain.RoleStudent})
	require.NoError(t, err)

	// Decode alone still succeeds: valid-but-revoked is a distinct state.
	_, err = tm.Decode(token)
	require.NoError(t, err)

	require.NoError(t, registry.Revoke(ctx, TokenID(token), exp))

	_, err = resolver.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrRevoked)

	_, err = tm.Decode(token)
	require.NoError(t, err)
}

func TestResolvePropagatesCodecErrors(t *testing.T) {
	resolver, tm, _, _ := newResolverFixture(t)
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, "garbage")
	require.ErrorIs(t, err, ErrMalformedToken)

	other := NewTokenManager("other-key", time.Hour)
	forged, _, err := other.Issue("alice@example.com", []domain.Role{domain.RoleAdmin})
	require.NoError(t, err)

	_, err = resolver.Resolve(ctx, forged)
	require.ErrorIs(t, err, ErrBadSignature)

	issuedAt := time.Now().Add(-2 * time.Hour)
	tm.now = func() time.Time { return issuedAt }
	expired, _, err := tm.Issue("alice@example.com", []domain.Role{domain.RoleStudent})
	require.NoError(t, err)
	tm.now = time.Now

	_, err = resolver.Resolve(ctx, expired)
	require.ErrorIs(t, err, ErrExpired)
}

func TestResolveForceReLogin(t *testing.T) {
	resolver, tm, _, directory := newResolverFixture(t)
	ctx := context.Background()

	token, _, err := tm.Issue("alice@example.com", []domain.Role{domain.RoleStudent})
	require.NoError(t, err)

	directory.users["alice@example.com"].ForceReLogin = true

	_, err = resolver.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrMustReauthenticate)

	directory.users["alice@example.com"].ForceReLogin = false
	_, err = resolver.Resolve(ctx, token)
	require.NoError(t, err)
}

func TestResolveSuspendedAccount(t *testing.T) {
	resolver, tm, _, directory := newResolverFixture(t)

	token, _, err := tm.Issue("alice@example.com", []domain.Role{domain.RoleStudent})
	require.NoError(t, err)

	directory.users["alice@example.com"].Status = domain.UserStatusSuspended

	_, err = resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrRevoked)
}

func TestResolveUnknownSubject(t *testing.T) {
	resolver, tm, _, _ := newResolverFixture(t)

	token, _, err := tm.Issue("ghost@example.com", []domain.Role{domain.RoleStudent})
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestResolveDirectoryOutageDenies(t *testing.T) {
	resolver, tm, _, directory := newResolverFixture(t)

	token, _, err := tm.Issue("alice@example.com", []domain.Role{domain.RoleStudent})
	require.NoError(t, err)

	directory.err = errors.New("connection refused")

	_, err = resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestResolveRegistryOutageDenies(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	directory := &fakeDirectory{users: map[string]*domain.User{}}
	resolver := NewPrincipalResolver(tm, failingRegistry{}, directory)

	token, _, err := tm.Issue("alice@example.com", []domain.Role{domain.RoleStudent})
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

// Roles come from the token, not the directory: a directory-side role change
// only takes effect through force-re-login and a fresh token.
func TestResolveRolesSnapshotAtIssuance(t *testing.T) {
	resolver, tm, _, directory := newResolverFixture(t)
	ctx := context.Background()

	tokenA, _, err := tm.Issue("alice@example.com", []domain.Role{domain.RoleStudent})
	require.NoError(t, err)

	// Admin grants INSTRUCTOR and flags a forced re-login.
	user := directory.users["alice@example.com"]
	user.Roles = []domain.Role{domain.RoleStudent, domain.RoleInstructor}
	user.ForceReLogin = true

	_, err = resolver.Resolve(ctx, tokenA)
	require.ErrorIs(t, err, ErrMustReauthenticate)

	// Fresh login: flag cleared, new token carries the merged role set.
	user.ForceReLogin = false
	tokenB, _, err := tm.Issue(user.Email, user.Roles)
	require.NoError(t, err)

	principal, err := resolver.Resolve(ctx, tokenB)
	require.NoError(t, err)
	require.ElementsMatch(t,
		[]domain.Role{domain.RoleStudent, domain.RoleInstructor},
		principal.Roles)
}
