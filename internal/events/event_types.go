package events

import (
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventTokenRevoked   EventType = "token_revoked"
	EventRolesChanged   EventType = "roles_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID string        `json:"user_id"`
	Roles  []domain.Role `json:"roles"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	UserID         string    `json:"user_id"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

// TokenRevokedPayload payload. TokenID is the registry identifier, never the
// raw token.
type TokenRevokedPayload struct {
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RolesChangedPayload payload.
type RolesChangedPayload struct {
	UserID   string        `json:"user_id"`
	OldRoles []domain.Role `json:"old_roles"`
	NewRoles []domain.Role `json:"new_roles"`
}
