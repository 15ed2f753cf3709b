package entity

// Role is an authorization role carried by every user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleLeadGuide Role = "lead-guide"
	RoleGuide     Role = "guide"
)

// Roles lists the closed set of roles in declaration order.
var Roles = []Role{RoleAdmin, RoleUser, RoleLeadGuide, RoleGuide}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// RoleSet is an immutable set of roles allowed through an authorization gate.
type RoleSet struct {
	roles map[Role]struct{}
}

func NewRoleSet(roles ...Role) RoleSet {
	m := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		m[r] = struct{}{}
	}
	return RoleSet{roles: m}
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s.roles[r]
	return ok
}

// List returns the members in the order of Roles.
func (s RoleSet) List() []Role {
	out := make([]Role, 0, len(s.roles))
	for _, r := range Roles {
		if s.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}
