package domain

// Role is an organization role. Roles form a fixed total order; every
// privilege check compares ranks, never strings.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleStaff  Role = "staff"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

var roleRanks = map[Role]int{
	RoleViewer: 1,
	RoleStaff:  2,
	RoleMember: 3,
	RoleAdmin:  4,
	RoleOwner:  5,
}

// Rank returns the position of role in the hierarchy, or 0 for an empty or
// unknown role. A rank of 0 never satisfies any requirement.
func Rank(role Role) int {
	return roleRanks[role]
}

// AtLeast reports whether subject holds at least the privileges of required.
// An empty or unknown subject role is never sufficient.
func AtLeast(subject, required Role) bool {
	r := Rank(subject)
	return r > 0 && r >= Rank(required)
}

// ParseRole returns the Role for s if it names a known role, or "" otherwise.
func ParseRole(s string) Role {
	r := Role(s)
	if _, ok := roleRanks[r]; ok {
		return r
	}
	return ""
}
