package domain

// Role enumerates platform roles carried in token claims.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

// ValidRole reports whether the role is one of the known constants.
func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// NormalizeRoles removes duplicates and empty entries, preserving first-seen order.
func NormalizeRoles(roles []Role) []Role {
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ContainsRole reports whether the role set includes the given role.
func ContainsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// RolesIntersect reports whether the two role sets share at least one role.
func RolesIntersect(a, b []Role) bool {
	for _, r := range a {
		if ContainsRole(b, r) {
			return true
		}
	}
	return false
}

// RoleStrings converts a role set to plain strings for claim encoding.
func RoleStrings(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

// RolesFromStrings converts claim strings back into a normalized role set.
func RolesFromStrings(values []string) []Role {
	roles := make([]Role, 0, len(values))
	for _, v := range values {
		roles = append(roles, Role(v))
	}
	return NormalizeRoles(roles)
}
