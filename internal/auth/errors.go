package auth

import "errors"

// Sentinel errors for every way an authentication attempt can fail. Handlers
// map these to HTTP statuses at the boundary; internal callers compare with
// errors.Is and never branch on message text.
var (
	// ErrMalformedToken means the encoding could not be parsed, or a parsed
	// token carried an empty subject or empty role set.
	ErrMalformedToken = errors.New("malformed token")

	// ErrBadSignature means the signature does not match the payload.
	ErrBadSignature = errors.New("bad token signature")

	// ErrExpired means the token's validity window has passed.
	ErrExpired = errors.New("token expired")

	// ErrRevoked means the token was explicitly invalidated before expiry.
	ErrRevoked = errors.New("token revoked")

	// ErrMustReauthenticate means the token is cryptographically valid but a
	// role change requires the subject to obtain a fresh one.
	ErrMustReauthenticate = errors.New("re-login required")

	// ErrNoRoles rejects issuance for an empty role set.
	ErrNoRoles = errors.New("role set must not be empty")

	// ErrNoSigningKey means no key material is configured. Fatal at startup.
	ErrNoSigningKey = errors.New("signing key not configured")

	// ErrUpstreamUnavailable means the user directory or revocation store
	// could not be reached. Always treated as an authentication failure.
	ErrUpstreamUnavailable = errors.New("authentication upstream unavailable")
)
