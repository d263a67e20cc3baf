package domain

import "time"

// Role is a project-scoped role. Roles form a hierarchy: admin implies
// project_admin, which implies member. The hierarchy is resolved once
// here rather than re-enumerated at every call site.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProjectAdmin Role = "project_admin"
	RoleMember       Role = "member"
)

// implied maps each role to every role whose permissions it carries,
// itself included.
var implied = map[Role][]Role{
	RoleAdmin:        {RoleAdmin, RoleProjectAdmin, RoleMember},
	RoleProjectAdmin: {RoleProjectAdmin, RoleMember},
	RoleMember:       {RoleMember},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := implied[r]
	return ok
}

// Implies reports whether r carries the permissions of other.
func (r Role) Implies(other Role) bool {
	for _, have := range implied[r] {
		if have == other {
			return true
		}
	}
	return false
}

// Membership maps (project, user) to a role. One role per pair.
type Membership struct {
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"joined_at"`
}
