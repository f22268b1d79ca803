package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

const principalKey = "auth_principal"

// AccessFilter is the per-request gate: it extracts the bearer token, runs
// the resolver, and attaches the resulting Principal to the request context.
// It is the only place identity is established; downstream code reads the
// principal from the context and never re-parses the raw token.
type AccessFilter struct {
	resolver       *PrincipalResolver
	bypassPrefixes []string
	logger         *zap.Logger
}

// NewAccessFilter constructs the filter. Requests whose path starts with one
// of the bypass prefixes skip authentication entirely.
func NewAccessFilter(resolver *PrincipalResolver, bypassPrefixes []string, logger *zap.Logger) *AccessFilter {
	return &AccessFilter{resolver: resolver, bypassPrefixes: bypassPrefixes, logger: logger}
}

// Handle authenticates the request. A missing or non-bearer Authorization
// header lets the request proceed anonymously; the policy guards decide
// whether anonymous access is enough for the operation.
func (f *AccessFilter) Handle(c *fiber.Ctx) error {
	path := c.Path()
	for _, prefix := range f.bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return c.Next()
		}
	}

	raw, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return c.Next()
	}

	principal, err := f.resolver.Resolve(c.UserContext(), raw)
	if err != nil {
		return f.reject(c, err)
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// reject maps resolver errors to minimal-information responses. Only the
// force-re-login case is distinguishable, so clients can tell "log in again"
// from plain rejection.
func (f *AccessFilter) reject(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrMustReauthenticate):
		return apperrors.NewForbidden("re-login required")
	case errors.Is(err, ErrRevoked):
		return apperrors.NewUnauthorized("token revoked")
	case errors.Is(err, ErrExpired):
		return apperrors.NewUnauthorized("token expired")
	case errors.Is(err, ErrUpstreamUnavailable):
		f.logger.Error("authentication upstream unavailable",
			zap.String("path", c.Path()), zap.Error(err))
		return apperrors.NewUnauthorized("authentication unavailable")
	default:
		return apperrors.NewUnauthorized("invalid token")
	}
}

// BearerToken extracts the token from an Authorization header value. The
// second return is false when the header is absent or not in bearer shape.
func BearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// PrincipalFromContext retrieves the authenticated principal, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
