package auth

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/domain"
)

// Principal is the trusted identity attached to a request after successful
// authentication. Roles come from the token's own claims, not a directory
// re-read: the token is the source of truth for roles as of issuance.
type Principal struct {
	Subject string
	Roles   []domain.Role
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role domain.Role) bool {
	return p != nil && domain.ContainsRole(p.Roles, role)
}

// UserDirectory is the external user-record collaborator the resolver reads.
type UserDirectory interface {
	FindBySubject(ctx context.Context, subject string) (*domain.User, error)
}

// PrincipalResolver turns a raw bearer token into a Principal, or an error
// from the taxonomy in errors.go.
type PrincipalResolver struct {
	tokens    *TokenManager
	registry  RevocationRegistry
	directory UserDirectory
}

// NewPrincipalResolver constructs a resolver.
func NewPrincipalResolver(tokens *TokenManager, registry RevocationRegistry, directory UserDirectory) *PrincipalResolver {
	return &PrincipalResolver{tokens: tokens, registry: registry, directory: directory}
}

// Resolve runs the ordered checks: revocation registry, codec decode, then
// the directory's force-re-login flag. Any failure short-circuits the rest;
// a registry or directory outage denies, never allows.
func (r *PrincipalResolver) Resolve(ctx context.Context, raw string) (*Principal, error) {
	revoked, err := r.registry.IsRevoked(ctx, TokenID(raw))
	if err != nil {
		return nil, ErrUpstreamUnavailable
	}
	if revoked {
		return nil, ErrRevoked
	}

	claims, err := r.tokens.Decode(raw)
	if err != nil {
		return nil, err
	}

	user, err := r.directory.FindBySubject(ctx, claims.Subject)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Valid signature over a subject the directory no longer knows:
			// the claim set is unusable, reject as malformed.
			return nil, ErrMalformedToken
		}
		return nil, ErrUpstreamUnavailable
	}
	if user.Status == domain.UserStatusSuspended {
		return nil, ErrRevoked
	}
	if user.ForceReLogin {
		return nil, ErrMustReauthenticate
	}

	return &Principal{Subject: claims.Subject, Roles: claims.RoleSet()}, nil
}
