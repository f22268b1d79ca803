package domain

import "time"

// UserStatus represents lifecycle states for a platform account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the directory record behind every authenticated subject. Roles are
// a set carried in full through every layer; tokens snapshot the set at
// issuance, and ForceReLogin invalidates those snapshots after a role change.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Roles        []Role
	ForceReLogin bool
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
