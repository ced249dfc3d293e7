package privilege

import "strings"

// Role is a named bundle of permissions assignable to users.
type Role struct {
	name        string
	permissions Set[Permission]
}

// NewRole builds a role. Permissions sharing a name collapse to the first
// occurrence.
func NewRole(name string, permissions ...Permission) Role {
	r := Role{name: strings.TrimSpace(name)}
	for _, p := range permissions {
		r.addPermission(p)
	}
	return r
}

func (r *Role) addPermission(p Permission) bool {
	return r.permissions.add(p)
}

func (r Role) Name() string                 { return r.name }
func (r Role) Permissions() Set[Permission] { return r.permissions }
func (r Role) IsEmpty() bool                { return r.name == "" && r.permissions.Len() == 0 }

// Equal compares names recursively down to the actions.
func (r Role) Equal(other Role) bool {
	if r.name != other.name || !r.permissions.SameNames(other.permissions) {
		return false
	}
	for _, p := range r.permissions.Members() {
		q, _ := other.permissions.Get(p.Name())
		if !p.Equal(q) {
			return false
		}
	}
	return true
}

// Allows reports whether any permission of the role contains the named action.
func (r Role) Allows(actionName string) bool {
	for _, p := range r.permissions.Members() {
		if p.actions.Contains(actionName) {
			return true
		}
	}
	return false
}

// ContainsPermission reports whether permission belongs to role, compared by name.
func ContainsPermission(role Role, permission Permission) bool {
	return role.permissions.Contains(permission.Name())
}
