package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/domain"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

type filterFixture struct {
	app       *fiber.App
	tokens    *TokenManager
	registry  *MemoryRegistry
	directory *fakeDirectory
}

func newFilterFixture(t *testing.T) *filterFixture {
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
		"root@example.com": {
			ID:     "user-2",
			Email:  "root@example.com",
			Roles:  []domain.Role{domain.RoleAdmin},
			Status: domain.UserStatusActive,
		},
	}}

	resolver := NewPrincipalResolver(tm, registry, directory)
	filter := NewAccessFilter(resolver, []string{"/auth", "/health"}, zap.NewNop())
	policy := DefaultPolicy()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{
				"code":    de.Code,
				"message": de.Message,
			}})
		},
	})
	app.Use(filter.Handle)

	ok := func(c *fiber.Ctx) error {
		if principal, found := PrincipalFromContext(c); found {
			return c.JSON(fiber.Map{"subject": principal.Subject})
		}
		return c.JSON(fiber.Map{"subject": "anonymous"})
	}
	app.Get("/health/live", ok)
	app.Post("/auth/login", ok)
	app.Get("/courses", Require(policy, OpCoursesRead), ok)
	app.Get("/dashboard", Require(policy, OpDashboardView), ok)
	app.Get("/admin/users", Require(policy, OpUsersManage), ok)

	return &filterFixture{app: app, tokens: tm, registry: registry, directory: directory}
}

func (f *filterFixture) get(t *testing.T, path, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (f *filterFixture) issue(t *testing.T, subject string, roles ...domain.Role) string {
	t.Helper()
	token, _, err := f.tokens.Issue(subject, roles)
	require.NoError(t, err)
	return token
}

func TestFilterAnonymousRequests(t *testing.T) {
	f := newFilterFixture(t)

	status, body := f.get(t, "/courses", "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "anonymous")

	status, _ = f.get(t, "/dashboard", "")
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestFilterNonBearerHeaderIsAnonymous(t *testing.T) {
	f := newFilterFixture(t)

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer "} {
		status, _ := f.get(t, "/courses", header)
		require.Equal(t, http.StatusOK, status, "header %q", header)

		status, _ = f.get(t, "/dashboard", header)
		require.Equal(t, http.StatusUnauthorized, status, "header %q", header)
	}
}

func TestFilterAuthenticatedRequest(t *testing.T) {
	f := newFilterFixture(t)
	token := f.issue(t, "alice@example.com", domain.RoleStudent)

	status, body := f.get(t, "/dashboard", "Bearer "+token)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "alice@example.com")
}

func TestFilterRejectsInvalidTokens(t *testing.T) {
	f := newFilterFixture(t)

	status, body := f.get(t, "/dashboard", "Bearer garbage")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Contains(t, body, "invalid token")

	forged, _, err := NewTokenManager("other-key", time.Hour).Issue("alice@example.com", []domain.Role{domain.RoleAdmin})
	require.NoError(t, err)
	status, _ = f.get(t, "/dashboard", "Bearer "+forged)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestFilterRejectsExpiredToken(t *testing.T) {
	f := newFilterFixture(t)

	issuedAt := time.Now().Add(-2 * time.Hour)
	f.tokens.now = func() time.Time { return issuedAt }
	token := f.issue(t, "alice@example.com", domain.RoleStudent)
	f.tokens.now = time.Now

	status, body := f.get(t, "/dashboard", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Contains(t, body, "token expired")
}

func TestFilterRejectsRevokedToken(t *testing.T) {
	f := newFilterFixture(t)
	token := f.issue(t, "alice@example.com", domain.RoleStudent)

	status, _ := f.get(t, "/dashboard", "Bearer "+token)
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, f.registry.Revoke(context.Background(), TokenID(token), time.Now().Add(time.Hour)))

	status, body := f.get(t, "/dashboard", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Contains(t, body, "token revoked")
}

func TestFilterForceReLoginDistinctFromRevoked(t *testing.T) {
	f := newFilterFixture(t)
	token := f.issue(t, "alice@example.com", domain.RoleStudent)

	f.directory.users["alice@example.com"].ForceReLogin = true

	status, body := f.get(t, "/dashboard", "Bearer "+token)
	require.Equal(t, http.StatusForbidden, status)
	require.Contains(t, body, "re-login required")
}

func TestFilterBypassPrefixes(t *testing.T) {
	f := newFilterFixture(t)

	// Even a garbage bearer token must not block bypassed paths.
	status, _ := f.get(t, "/health/live", "Bearer garbage")
	require.Equal(t, http.StatusOK, status)
}

func TestFilterInsufficientRole(t *testing.T) {
	f := newFilterFixture(t)

	student := f.issue(t, "alice@example.com", domain.RoleStudent)
	status, _ := f.get(t, "/admin/users", "Bearer "+student)
	require.Equal(t, http.StatusForbidden, status)

	admin := f.issue(t, "root@example.com", domain.RoleAdmin)
	status, _ = f.get(t, "/admin/users", "Bearer "+admin)
	require.Equal(t, http.StatusOK, status)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		require.Equal(t, tt.ok, ok, "header %q", tt.header)
		require.Equal(t, tt.want, got, "header %q", tt.header)
	}
}
