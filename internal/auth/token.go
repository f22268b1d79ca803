package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/identity-service/internal/domain"
)

// TokenManager issues and decodes signed bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager. The TTL applies to every issued token.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Claims is the fixed token schema. Roles carry the subject's full role set
// as of issuance; downstream code consumes these typed fields and never
// re-parses raw claim maps.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// RoleSet returns the claim roles as normalized domain roles.
func (c *Claims) RoleSet() []domain.Role {
	return domain.RolesFromStrings(c.Roles)
}

// TTL exposes the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a token for the subject. The role set must be
// non-empty; issuing a role-less token would only defer the rejection to
// decode time.
func (tm *TokenManager) Issue(subject string, roles []domain.Role) (string, time.Time, error) {
	if len(tm.secret) == 0 {
		return "", time.Time{}, ErrNoSigningKey
	}
	if subject == "" {
		return "", time.Time{}, ErrMalformedToken
	}
	roles = domain.NormalizeRoles(roles)
	if len(roles) == 0 {
		return "", time.Time{}, ErrNoRoles
	}

	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Roles: domain.RoleStrings(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode verifies the signature and validity window, then returns the typed
// claims. The signature is checked before any claim is read, so a failed
// decode never exposes attacker-controlled fields.
func (tm *TokenManager) Decode(raw string) (*Claims, error) {
	if len(tm.secret) == 0 {
		return nil, ErrNoSigningKey
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrBadSignature
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrBadSignature):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformedToken
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	if claims.Subject == "" || len(claims.RoleSet()) == 0 {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// ExpiryOf extracts the expiration of a token without enforcing the validity
// window, for revocation bookkeeping at logout. The signature is still
// verified; only unverified or unparsable tokens are rejected.
func (tm *TokenManager) ExpiryOf(raw string) (time.Time, error) {
	if len(tm.secret) == 0 {
		return time.Time{}, ErrNoSigningKey
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrBadSignature
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now), jwt.WithoutClaimsValidation())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, ErrBadSignature) {
			return time.Time{}, ErrBadSignature
		}
		return time.Time{}, ErrMalformedToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformedToken
	}
	return claims.ExpiresAt.Time, nil
}
