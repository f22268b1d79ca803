package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/repository"
)

// RoleService manages role grants and revocations. Every change sets the
// force-re-login flag: outstanding tokens still carry the old role set and
// must not keep their authority.
type RoleService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewRoleService builds the service.
func NewRoleService(users repository.UserRepository, dispatcher events.Dispatcher) *RoleService {
	return &RoleService{users: users, dispatcher: dispatcher}
}

// GrantRole adds a role to the user's set. Granting an already-held role is
// a no-op that does not invalidate outstanding tokens.
func (s *RoleService) GrantRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, errors.New("unknown role")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if domain.ContainsRole(user.Roles, role) {
		return user, nil
	}

	oldRoles := user.Roles
	newRoles := domain.NormalizeRoles(append(append([]domain.Role{}, user.Roles...), role))
	return s.applyRoleChange(ctx, user, oldRoles, newRoles)
}

// RevokeRole removes a role from the user's set. The last role cannot be
// removed: a role-less account could never hold a valid token again.
func (s *RoleService) RevokeRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !domain.ContainsRole(user.Roles, role) {
		return user, nil
	}
	if len(user.Roles) == 1 {
		return nil, errors.New("cannot remove last role")
	}

	oldRoles := user.Roles
	newRoles := make([]domain.Role, 0, len(user.Roles)-1)
	for _, r := range user.Roles {
		if r != role {
			newRoles = append(newRoles, r)
		}
	}
	return s.applyRoleChange(ctx, user, oldRoles, newRoles)
}

// ListUsers returns the directory contents for administration.
func (s *RoleService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *RoleService) applyRoleChange(ctx context.Context, user *domain.User, oldRoles, newRoles []domain.Role) (*domain.User, error) {
	if err := s.users.SetRoles(ctx, user.ID, newRoles); err != nil {
		return nil, err
	}
	if err := s.users.SetForceReLogin(ctx, user.ID, true); err != nil {
		return nil, err
	}
	user.Roles = newRoles
	user.ForceReLogin = true

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRolesChanged,
			Subject:   user.Email,
			Timestamp: time.Now(),
			Payload: events.RolesChangedPayload{
				UserID:   user.ID,
				OldRoles: oldRoles,
				NewRoles: newRoles,
			},
		})
	}
	return user, nil
}
