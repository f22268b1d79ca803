package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/domain"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// Operation names a protected action for the policy table.
type Operation string

// Platform operations gated by the default policy.
const (
	OpCoursesRead       Operation = "courses:read"
	OpCoursesWrite      Operation = "courses:write"
	OpLessonsManage     Operation = "lessons:manage"
	OpEnrollmentsCreate Operation = "enrollments:create"
	OpDashboardView     Operation = "dashboard:view"
	OpUsersManage       Operation = "users:manage"
	OpStatsView         Operation = "stats:view"
	OpProfileRead       Operation = "profile:read"
	OpPasswordChange    Operation = "password:change"
)

// Policy is a static table mapping operations to the role sets allowed to
// perform them. An empty requirement marks the operation public. The table
// is fixed at construction, never reloaded.
type Policy struct {
	rules map[Operation][]domain.Role
}

// NewPolicy builds a policy from a rule table.
func NewPolicy(rules map[Operation][]domain.Role) *Policy {
	copied := make(map[Operation][]domain.Role, len(rules))
	for op, roles := range rules {
		copied[op] = domain.NormalizeRoles(roles)
	}
	return &Policy{rules: copied}
}

// DefaultPolicy covers the platform's operations.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Operation][]domain.Role{
		OpCoursesRead:       {},
		OpCoursesWrite:      {domain.RoleInstructor, domain.RoleAdmin},
		OpLessonsManage:     {domain.RoleInstructor, domain.RoleAdmin},
		OpEnrollmentsCreate: {domain.RoleStudent},
		OpDashboardView:     {domain.RoleStudent, domain.RoleInstructor, domain.RoleAdmin},
		OpUsersManage:       {domain.RoleAdmin},
		OpStatsView:         {domain.RoleAdmin},
		OpProfileRead:       {domain.RoleStudent, domain.RoleInstructor, domain.RoleAdmin},
		OpPasswordChange:    {domain.RoleStudent, domain.RoleInstructor, domain.RoleAdmin},
	})
}

// Allow decides whether the principal (nil for anonymous) may perform the
// operation. Unknown operations deny. Operations requiring roles are allowed
// iff the principal's role set intersects the requirement.
func (p *Policy) Allow(principal *Principal, op Operation) bool {
	required, known := p.rules[op]
	if !known {
		return false
	}
	if len(required) == 0 {
		return true
	}
	if principal == nil {
		return false
	}
	return domain.RolesIntersect(principal.Roles, required)
}

// Require returns a route guard enforcing the policy for one operation.
// Anonymous callers get 401 on gated operations, authenticated callers
// without an intersecting role get 403.
func Require(policy *Policy, op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if policy.Allow(principal, op) {
			return c.Next()
		}
		if principal == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
